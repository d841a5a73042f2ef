package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/a-essam23/syncboard/pkg/shape"
)

const schema = `
CREATE TABLE IF NOT EXISTS shapes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id    TEXT    NOT NULL,
	user_id    TEXT    NOT NULL,
	message    TEXT    NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_shapes_room ON shapes (room_id, id);
`

// SQLite keeps room records in a single sqlite table.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at dsn and ensures the schema.
func OpenSQLite(dsn string, logger *slog.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" databases
	// shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	s := &SQLite{db: db, logger: logger.With(slog.String("component", "store_sqlite"))}
	s.logger.Info("Ensured shapes table exists", slog.String("dsn", dsn))
	return s, nil
}

func (s *SQLite) Append(ctx context.Context, roomID, userID string, sh shape.Shape) error {
	rec, err := newRecord(roomID, userID, sh)
	if err != nil {
		return fmt.Errorf("%w: failed to encode shape: %w", ErrPersistence, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO shapes (room_id, user_id, message, created_at) VALUES (?, ?, ?, ?)`,
		rec.RoomID, rec.UserID, rec.Message, rec.CreatedAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("%w: failed to insert shape: %w", ErrPersistence, err)
	}
	return nil
}

func (s *SQLite) ReplaceAll(ctx context.Context, roomID, userID string, shapes []shape.Shape) error {
	recs := make([]Record, 0, len(shapes))
	for _, sh := range shapes {
		rec, err := newRecord(roomID, userID, sh)
		if err != nil {
			return fmt.Errorf("%w: failed to encode shape: %w", ErrPersistence, err)
		}
		recs = append(recs, rec)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", ErrPersistence, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM shapes WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("%w: failed to clear room: %w", ErrPersistence, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO shapes (room_id, user_id, message, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare insert: %w", ErrPersistence, err)
	}
	defer stmt.Close()
	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec.RoomID, rec.UserID, rec.Message, rec.CreatedAt.UnixMilli()); err != nil {
			return fmt.Errorf("%w: failed to reinsert shape: %w", ErrPersistence, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit replacement: %w", ErrPersistence, err)
	}
	s.logger.Debug("Replaced room records", slog.String("roomID", roomID), slog.Int("count", len(recs)))
	return nil
}

func (s *SQLite) LoadAll(ctx context.Context, roomID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, message, created_at FROM shapes WHERE room_id = ? ORDER BY id DESC LIMIT ?`,
		roomID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query room: %w", ErrPersistence, err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			s.logger.Error("failed to close rows", slog.Any("error", err))
		}
	}(rows)

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			created int64
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Message, &created); err != nil {
			return nil, fmt.Errorf("%w: failed to scan record: %w", ErrPersistence, err)
		}
		sh, err := shape.DecodeEnvelope(rec.Message)
		if err != nil {
			s.logger.Warn("Skipping undecodable record", slog.Int64("id", rec.ID), slog.String("roomID", roomID), slog.Any("error", err))
			continue
		}
		rec.RoomID = roomID
		rec.Shape = sh
		rec.CreatedAt = time.UnixMilli(created)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate records: %w", ErrPersistence, err)
	}
	return out, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
