package transport_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/a-essam23/syncboard/pkg/transport"
	"github.com/google/uuid"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

func newIdleConn(buffer int, onClose transport.OnCloseHandler) *transport.Connection {
	var wg sync.WaitGroup
	cfg := transport.ConnectionConfig{SendBuffer: buffer}
	return transport.NewConnection(context.Background(), &wg, nil, cfg, nil, onClose, newTestLogger())
}

func TestSendQueuesUntilBufferFull(t *testing.T) {
	closed := make(chan error, 1)
	conn := newIdleConn(2, func(id uuid.UUID, err error) { closed <- err })

	if !conn.Send([]byte("a")) || !conn.Send([]byte("b")) {
		t.Fatal("expected the first two sends to be queued")
	}
	if conn.Send([]byte("c")) {
		t.Fatal("expected send on a full buffer to be rejected")
	}

	select {
	case err := <-closed:
		if !errors.Is(err, transport.ErrSendBufferFull) {
			t.Errorf("expected ErrSendBufferFull, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("slow connection was not closed")
	}
	<-conn.Done()
}

func TestSendAfterClose(t *testing.T) {
	conn := newIdleConn(4, nil)
	conn.Close(nil)
	if conn.Send([]byte("late")) {
		t.Error("expected send after close to be rejected")
	}
	// Close is idempotent.
	conn.Close(errors.New("again"))
	select {
	case <-conn.Done():
	default:
		t.Error("Done channel not closed after Close")
	}
}

func TestRunAfterCloseReleasesWaitGroup(t *testing.T) {
	var wg sync.WaitGroup
	conn := transport.NewConnection(context.Background(), &wg, nil, transport.ConnectionConfig{}, nil, nil, newTestLogger())

	conn.Close(errors.New("server shutting down"))
	conn.Run()
	<-conn.Done()

	waited := make(chan struct{})
	go func() {
		wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitGroup still held after Close then Run")
	}
}
