package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/authportal/internal/domain"
	apperrors "github.com/spec-kit/authportal/pkg/util"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func reply(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(t *testing.T, fn roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient("http://backend.test/api/", fn, 0, nil)
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ", nil, 0, nil)
	assert.Error(t, err)
}

func TestSignInPostsCredentials(t *testing.T) {
	var gotPath, gotMethod, gotBody string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		gotPath, gotMethod = req.URL.Path, req.Method
		data, _ := io.ReadAll(req.Body)
		gotBody = string(data)
		return reply(http.StatusOK, `{"token":"t1","type":"Bearer","id":7,"username":"alice","email":"a@x.com","roles":["ROLE_USER"]}`), nil
	})

	resp, err := client.SignIn(context.Background(), domain.SignInRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	assert.Equal(t, "/api/auth/signin", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.JSONEq(t, `{"username":"alice","password":"secret1"}`, gotBody)
	assert.Equal(t, "t1", resp.Token)
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, []string{domain.RoleUser}, resp.Roles)
}

func TestUnauthorizedMapsToSessionRejected(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return reply(http.StatusUnauthorized, `{"message":"expired"}`), nil
	})

	_, err := client.ListUsers(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSessionRejected))
	assert.Equal(t, "expired", err.Error())
}

func TestErrorStatusCarriesBackendMessage(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return reply(http.StatusBadRequest, `{"message":"username is already taken"}`), nil
	})

	err := client.SignUp(context.Background(), domain.SignUpRequest{Username: "alice"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrRequestFailed))
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
	assert.Equal(t, "username is already taken", err.Error())
}

func TestErrorWithoutEnvelopeFallsBackToStatusText(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return reply(http.StatusInternalServerError, `<html>oops</html>`), nil
	})

	_, err := client.GetUser(context.Background(), 3)
	require.Error(t, err)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), err.Error())
}

func TestTransportFailure(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	err := client.DeleteUser(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTransportFailed))
	assert.Equal(t, http.StatusBadGateway, apperrors.StatusOf(err))
}

func TestUpdateUserSendsOnlyChangedFields(t *testing.T) {
	var gotPath, gotBody string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		gotPath = req.URL.Path
		data, _ := io.ReadAll(req.Body)
		gotBody = string(data)
		return reply(http.StatusOK, `{"id":3,"username":"bob","email":"new@x.com","roles":["ROLE_USER"]}`), nil
	})

	email := "new@x.com"
	user, err := client.UpdateUser(context.Background(), 3, domain.UserUpdate{Email: &email})
	require.NoError(t, err)

	assert.Equal(t, "/api/users/3", gotPath)
	assert.JSONEq(t, `{"email":"new@x.com"}`, gotBody)
	assert.Equal(t, "new@x.com", user.Email)
}

func TestDeleteUserAcceptsNoContent(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodDelete, req.Method)
		return &http.Response{StatusCode: http.StatusNoContent, Body: http.NoBody, Header: http.Header{}}, nil
	})

	assert.NoError(t, client.DeleteUser(context.Background(), 3))
}

func TestRedirectsAreNotFollowed(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		calls++
		resp := reply(http.StatusFound, ``)
		resp.Header.Set("Location", "http://backend.test/elsewhere")
		return resp, nil
	})

	assert.NoError(t, client.SignUp(context.Background(), domain.SignUpRequest{}))
	assert.Equal(t, 1, calls)
}
