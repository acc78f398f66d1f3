package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/authportal/internal/domain"
	apperrors "github.com/spec-kit/authportal/pkg/util"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// Client performs JSON calls against the backend. Session handling lives in
// the transport it is built with.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient builds a client rooted at baseURL (for example
// "http://localhost:8080/api"). The client keeps a cookie jar so
// credentialed cross-origin cookies survive between calls.
func NewClient(baseURL string, transport http.RoundTripper, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("backend: empty base URL")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("backend: cookie jar: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}, nil
}

// do sends in as the JSON body and decodes a successful reply into out.
// Failures come back as *apperrors.DomainError: SESSION_REJECTED for 401,
// REQUEST_FAILED for any other status >= 400, TRANSPORT_FAILED otherwise.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		message := decodeErrorMessage(resp.Body)
		c.logger.Debug("backend call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", message))
		if resp.StatusCode == http.StatusUnauthorized {
			return apperrors.NewSessionRejected(message)
		}
		return apperrors.NewRequestFailed(resp.StatusCode, message)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewRequestFailed(resp.StatusCode, fmt.Sprintf("decode response: %v", err))
	}
	return nil
}

// decodeErrorMessage reads the {message} envelope; anything else yields "".
func decodeErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var envelope domain.ErrorEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ""
	}
	return envelope.Message
}
