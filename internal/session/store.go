package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/authportal/internal/domain"
)

// DefaultKey is the well-known storage key of the session record.
const DefaultKey = "user"

// ErrMalformedSession is returned by Read when the stored value is not a
// valid session record. Callers treat it as logged out.
var ErrMalformedSession = errors.New("malformed session")

// Snapshot is the record together with the generation it was read at.
type Snapshot struct {
	Record     *domain.SessionRecord
	Generation uint64
	Malformed  bool
}

// Authenticated reports whether the snapshot holds a usable record.
func (s Snapshot) Authenticated() bool {
	return s.Record != nil
}

// Store owns the single session record. All access is serialized; every
// mutation bumps a monotonic generation so callers can detect that the record
// they acted on has since been replaced.
type Store struct {
	backend Backend
	key     string
	logger  *zap.Logger

	mu         sync.Mutex
	generation uint64
}

// NewStore builds a store over backend at key.
func NewStore(backend Backend, key string, logger *zap.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, key: key, logger: logger}
}

// Key returns the storage key.
func (s *Store) Key() string { return s.key }

// Backend exposes the underlying storage for health checks.
func (s *Store) Backend() Backend { return s.backend }

// Generation returns the current mutation counter.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Read returns the stored record, nil when absent, or ErrMalformedSession.
func (s *Store) Read(ctx context.Context) (*domain.SessionRecord, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Malformed {
		return nil, ErrMalformedSession
	}
	return snap.Record, nil
}

// Snapshot reads the record and the generation atomically. A malformed value
// is reported through Snapshot.Malformed, not as an error.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Generation: s.generation}
	data, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return snap, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		return snap, nil
	}
	rec, err := decodeRecord(data)
	if err != nil {
		s.logger.Warn("stored session is malformed", zap.String("key", s.key), zap.Error(err))
		snap.Malformed = true
		return snap, nil
	}
	snap.Record = rec
	return snap, nil
}

// Write replaces the stored record.
func (s *Store) Write(ctx context.Context, rec *domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(ctx, rec)
}

// Clear removes the record. Clearing an absent record is not an error.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

// CompareAndWrite replaces the record only if nothing mutated the store since
// generation gen was observed.
func (s *Store) CompareAndWrite(ctx context.Context, gen uint64, rec *domain.SessionRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false, nil
	}
	if err := s.writeLocked(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}

// CompareAndClear removes the record only if nothing mutated the store since
// generation gen was observed.
func (s *Store) CompareAndClear(ctx context.Context, gen uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false, nil
	}
	if err := s.clearLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) writeLocked(ctx context.Context, rec *domain.SessionRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	s.generation++
	return nil
}

func (s *Store) clearLocked(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.generation++
	return nil
}

func decodeRecord(data []byte) (*domain.SessionRecord, error) {
	var rec domain.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}
	return &rec, nil
}
