package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"omsz_portal/internal/metrics"
	"omsz_portal/internal/models"
)

// Keys of the persisted collections. Each holds a JSON array.
const (
	KeyUsers          = "users"
	KeyServices       = "services"
	KeyReports        = "reports"
	KeyPosts          = "posts"
	KeyWeeklyAnalyses = "weeklyAnalyses"
)

// ErrCorrupt is returned when a stored value is not the JSON it should be.
var ErrCorrupt = errors.New("corrupt stored value")

// Backend persists raw values under string keys.
// Implementations must be safe for concurrent use. SetMany writes all
// values or none of them.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, values map[string][]byte) error
	Close() error
}

// Store exposes the typed collections on top of a Backend.
type Store struct {
	backend Backend
	mu      sync.Mutex
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Atomically runs fn while holding the store's write lock.
// Every read-modify-write sequence goes through here so that two
// requests never interleave mid-update. fn must not call Atomically.
func (s *Store) Atomically(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// Has reports whether key has ever been written.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.backend.Get(ctx, key)
	return ok, err
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func load[T any](ctx context.Context, s *Store, key string) ([]T, error) {
	data, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || len(data) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("load %s: %w: %v", key, ErrCorrupt, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func encode[T any](key string, items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", key, err)
	}
	return data, nil
}

func save[T any](ctx context.Context, s *Store, key string, items []T) error {
	data, err := encode(key, items)
	if err != nil {
		return err
	}
	if err := s.backend.Set(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	metrics.RecordWrite(key)
	return nil
}

func (s *Store) Users(ctx context.Context) ([]models.User, error) {
	return load[models.User](ctx, s, KeyUsers)
}

func (s *Store) SaveUsers(ctx context.Context, users []models.User) error {
	return save(ctx, s, KeyUsers, users)
}

func (s *Store) Services(ctx context.Context) ([]models.Service, error) {
	return load[models.Service](ctx, s, KeyServices)
}

func (s *Store) SaveServices(ctx context.Context, services []models.Service) error {
	return save(ctx, s, KeyServices, services)
}

func (s *Store) Reports(ctx context.Context) ([]models.Report, error) {
	return load[models.Report](ctx, s, KeyReports)
}

func (s *Store) SaveReports(ctx context.Context, reports []models.Report) error {
	return save(ctx, s, KeyReports, reports)
}

func (s *Store) Posts(ctx context.Context) ([]models.Post, error) {
	return load[models.Post](ctx, s, KeyPosts)
}

func (s *Store) SavePosts(ctx context.Context, posts []models.Post) error {
	return save(ctx, s, KeyPosts, posts)
}

func (s *Store) WeeklyAnalyses(ctx context.Context) ([]models.WeeklyAnalysis, error) {
	return load[models.WeeklyAnalysis](ctx, s, KeyWeeklyAnalyses)
}

func (s *Store) SaveWeeklyAnalyses(ctx context.Context, analyses []models.WeeklyAnalysis) error {
	return save(ctx, s, KeyWeeklyAnalyses, analyses)
}

// CommitRollover stores history and empties services and reports in one
// backend write. On error none of the three keys has changed.
func (s *Store) CommitRollover(ctx context.Context, history []models.WeeklyAnalysis) error {
	data, err := encode(KeyWeeklyAnalyses, history)
	if err != nil {
		return err
	}
	values := map[string][]byte{
		KeyWeeklyAnalyses: data,
		KeyServices:       []byte("[]"),
		KeyReports:        []byte("[]"),
	}
	if err := s.backend.SetMany(ctx, values); err != nil {
		return fmt.Errorf("commit rollover: %w", err)
	}
	for key := range values {
		metrics.RecordWrite(key)
	}
	return nil
}
