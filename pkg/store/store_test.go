package store_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/a-essam23/syncboard/pkg/shape"
	"github.com/a-essam23/syncboard/pkg/store"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

func backends(t *testing.T) map[string]store.Store {
	t.Helper()
	sq, err := store.OpenSQLite(":memory:", newTestLogger())
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	return map[string]store.Store{
		"memory": store.NewMemory(newTestLogger()),
		"sqlite": sq,
	}
}

func TestAppendAndLoadNewestFirst(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			first := &shape.Rect{X: 10, Y: 10, Width: 50, Height: 30}
			second := &shape.Circle{CenterX: 100, CenterY: 100, Radius: 20}
			if err := s.Append(ctx, "42", "alice", first); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
			if err := s.Append(ctx, "42", "bob", second); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
			s.Append(ctx, "7", "alice", &shape.Arrow{EndX: 1})

			recs, err := s.LoadAll(ctx, "42", 0)
			if err != nil {
				t.Fatalf("LoadAll failed: %v", err)
			}
			if len(recs) != 2 {
				t.Fatalf("expected 2 records, got %d", len(recs))
			}
			if !shape.Equal(recs[0].Shape, second) || !shape.Equal(recs[1].Shape, first) {
				t.Errorf("expected newest-first order")
			}
			if recs[0].UserID != "bob" {
				t.Errorf("expected author bob, got %s", recs[0].UserID)
			}
			if recs[1].Message != `{"shape":{"type":"rect","x":10,"y":10,"width":50,"height":30}}` {
				t.Errorf("unexpected stored envelope %s", recs[1].Message)
			}
		})
	}
}

func TestLoadAllLimit(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 5; i++ {
				s.Append(ctx, "r", "u", &shape.Rect{X: float64(i)})
			}
			recs, err := s.LoadAll(ctx, "r", 3)
			if err != nil {
				t.Fatalf("LoadAll failed: %v", err)
			}
			if len(recs) != 3 {
				t.Fatalf("expected 3 records, got %d", len(recs))
			}
			// the three most recent: x = 4, 3, 2
			for i, want := range []float64{4, 3, 2} {
				if got := recs[i].Shape.(*shape.Rect).X; got != want {
					t.Errorf("record %d: expected x=%v, got %v", i, want, got)
				}
			}
		})
	}
}

func TestReplaceAll(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s.Append(ctx, "42", "alice", &shape.Rect{X: 1})
			s.Append(ctx, "42", "alice", &shape.Rect{X: 2})
			s.Append(ctx, "other", "alice", &shape.Rect{X: 3})

			keep := []shape.Shape{&shape.Circle{Radius: 5}, &shape.Arrow{EndX: 9}}
			if err := s.ReplaceAll(ctx, "42", "bob", keep); err != nil {
				t.Fatalf("ReplaceAll failed: %v", err)
			}
			recs, _ := s.LoadAll(ctx, "42", 0)
			got := store.Shapes(recs)
			if len(got) != 2 || !shape.Equal(got[0], keep[1]) || !shape.Equal(got[1], keep[0]) {
				t.Errorf("expected exactly the replacement set newest-first, got %v", got)
			}

			// other rooms untouched
			if recs, _ := s.LoadAll(ctx, "other", 0); len(recs) != 1 {
				t.Errorf("expected other room to keep its record, got %d", len(recs))
			}

			if err := s.ReplaceAll(ctx, "42", "bob", nil); err != nil {
				t.Fatalf("ReplaceAll(empty) failed: %v", err)
			}
			if recs, _ := s.LoadAll(ctx, "42", 0); len(recs) != 0 {
				t.Errorf("expected empty room, got %d records", len(recs))
			}
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := store.Open("postgres", "", newTestLogger()); err == nil {
		t.Error("expected error for unknown driver")
	}
}
