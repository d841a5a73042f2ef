package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/a-essam23/syncboard/pkg/shape"
)

// Memory is a process-local Store. Records live as long as the process.
type Memory struct {
	mu     sync.RWMutex
	rooms  map[string][]Record
	nextID int64
	logger *slog.Logger
}

var _ Store = (*Memory)(nil)

func NewMemory(logger *slog.Logger) *Memory {
	return &Memory{
		rooms:  make(map[string][]Record),
		logger: logger.With(slog.String("component", "store_memory")),
	}
}

func (m *Memory) Append(ctx context.Context, roomID, userID string, s shape.Shape) error {
	rec, err := newRecord(roomID, userID, s)
	if err != nil {
		return fmt.Errorf("%w: failed to encode shape: %w", ErrPersistence, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec.ID = m.nextID
	m.rooms[roomID] = append(m.rooms[roomID], rec)
	return nil
}

func (m *Memory) ReplaceAll(ctx context.Context, roomID, userID string, shapes []shape.Shape) error {
	recs := make([]Record, 0, len(shapes))
	for _, s := range shapes {
		rec, err := newRecord(roomID, userID, s)
		if err != nil {
			return fmt.Errorf("%w: failed to encode shape: %w", ErrPersistence, err)
		}
		recs = append(recs, rec)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range recs {
		m.nextID++
		recs[i].ID = m.nextID
	}
	if len(recs) == 0 {
		delete(m.rooms, roomID)
	} else {
		m.rooms[roomID] = recs
	}
	m.logger.Debug("Replaced room records", slog.String("roomID", roomID), slog.Int("count", len(recs)))
	return nil
}

func (m *Memory) LoadAll(ctx context.Context, roomID string, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := m.rooms[roomID]
	n := len(recs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Record, 0, n)
	for i := len(recs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, recs[i])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
