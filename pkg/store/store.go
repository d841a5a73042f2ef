// Package store persists the durable Scene of every room. The durable copy is
// the source of truth for clients joining a room.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/a-essam23/syncboard/pkg/shape"
)

// ErrPersistence wraps every failure of an underlying store operation.
var ErrPersistence = errors.New("persistence failure")

// Record is one persisted shape.
type Record struct {
	ID     int64
	RoomID string
	UserID string
	// Message is the {"shape":...} envelope exactly as served by the history endpoint.
	Message   string
	Shape     shape.Shape
	CreatedAt time.Time
}

type Store interface {
	// Append adds one shape record to roomID.
	Append(ctx context.Context, roomID, userID string, s shape.Shape) error
	// ReplaceAll atomically discards every record of roomID and stores
	// exactly shapes, in order. Readers never observe a partial replacement.
	ReplaceAll(ctx context.Context, roomID, userID string, shapes []shape.Shape) error
	// LoadAll returns up to limit records of roomID, newest first.
	// A limit <= 0 returns every record.
	LoadAll(ctx context.Context, roomID string, limit int) ([]Record, error)
	Close() error
}

// Shapes extracts the shapes of records, keeping their order.
func Shapes(records []Record) []shape.Shape {
	out := make([]shape.Shape, len(records))
	for i, r := range records {
		out[i] = r.Shape
	}
	return out
}

// Open builds the store named by driver ("memory" or "sqlite").
func Open(driver, dsn string, logger *slog.Logger) (Store, error) {
	switch driver {
	case "memory":
		return NewMemory(logger), nil
	case "", "sqlite", "sqlite3":
		return OpenSQLite(dsn, logger)
	default:
		return nil, fmt.Errorf("unknown store driver '%s'", driver)
	}
}

func newRecord(roomID, userID string, s shape.Shape) (Record, error) {
	env, err := shape.EncodeEnvelope(s)
	if err != nil {
		return Record{}, err
	}
	return Record{RoomID: roomID, UserID: userID, Message: env, Shape: s, CreatedAt: time.Now()}, nil
}
