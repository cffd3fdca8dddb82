package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/alertapi/internal/domain"
	"github.com/hamed0406/alertapi/internal/repo"
)

var _ repo.AlertStore = (*Store)(nil)
var _ repo.SchemaInitializer = (*Store)(nil)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("memory store closed")

type Store struct {
	mu      sync.RWMutex
	rows    []domain.AlertRecord
	nextID  int64
	closed  bool
	pingErr error
	failN   map[int]error // insert call number -> forced error
	inserts int
	now     func() time.Time
}

func New() *Store {
	return &Store{
		rows:   make([]domain.AlertRecord, 0, 128),
		nextID: 1,
		failN:  make(map[int]error),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the created_at source, for deterministic ordering in tests.
func (m *Store) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SetPingErr makes Ping (and Recent) return err; nil restores health.
func (m *Store) SetPingErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

// FailInsert makes the n-th Insert call (1-based, counted from now) return err.
func (m *Store) FailInsert(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failN[m.inserts+n] = err
}

func (m *Store) InitSchema(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *Store) Insert(ctx context.Context, rec *domain.AlertRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	m.inserts++
	if err, ok := m.failN[m.inserts]; ok {
		delete(m.failN, m.inserts)
		return 0, err
	}
	row := *rec
	row.ID = m.nextID
	row.CreatedAt = m.now()
	m.nextID++
	m.rows = append(m.rows, row)
	rec.ID = row.ID
	rec.CreatedAt = row.CreatedAt
	return row.ID, nil
}

func (m *Store) Recent(ctx context.Context, limit int) ([]domain.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	if m.pingErr != nil {
		return nil, m.pingErr
	}
	out := make([]domain.AlertRecord, len(m.rows))
	copy(out, m.rows)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Store) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return m.pingErr
}

// Len reports how many rows are stored.
func (m *Store) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func (m *Store) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
