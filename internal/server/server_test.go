package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/a-essam23/syncboard/internal/server"
	"github.com/a-essam23/syncboard/pkg/auth"
	"github.com/a-essam23/syncboard/pkg/config"
	"github.com/a-essam23/syncboard/pkg/logging"
	"github.com/a-essam23/syncboard/pkg/protocol"
	"github.com/a-essam23/syncboard/pkg/shape"
	"github.com/a-essam23/syncboard/pkg/store"
)

const testSecret = "server-test-secret"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Address: "127.0.0.1:0",
			Auth:    config.AuthConfig{JWTSecret: testSecret},
		},
		Transport: config.TransportConfig{ReadLimit: 1 << 20, SendBuffer: 64},
		Store:     config.StoreConfig{Driver: "memory"},
		History:   config.HistoryConfig{Limit: 1000},
	}
}

func startApp(t *testing.T, cfg *config.Config) (*server.App, *httptest.Server) {
	t.Helper()
	logger := logging.Discard()
	app, err := server.NewApp(logger, context.Background(), cfg, store.NewMemory(logger))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	srv := httptest.NewServer(app.Handler())
	t.Cleanup(func() {
		_ = app.Shutdown()
		srv.Close()
	})
	return app, srv
}

func token(t *testing.T, userID string, perms ...string) string {
	t.Helper()
	tok, err := auth.New(testSecret).Issue(userID, perms, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return tok
}

func wsURL(srv *httptest.Server, tok string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + tok
}

type client struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, srv *httptest.Server, tok string) *client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(srv, tok), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return &client{t: t, conn: conn}
}

func (c *client) send(frame []byte, err error) {
	c.t.Helper()
	if err != nil {
		c.t.Fatalf("encode failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.conn.Write(ctx, websocket.MessageText, frame); err != nil {
		c.t.Fatalf("Write failed: %v", err)
	}
}

func (c *client) next() *protocol.Message {
	c.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, raw, err := c.conn.Read(ctx)
	if err != nil {
		c.t.Fatalf("Read failed: %v", err)
	}
	msg, err := protocol.Decode(raw)
	if err != nil {
		c.t.Fatalf("server sent undecodable frame %s: %v", raw, err)
	}
	return msg
}

// stream hands every inbound frame to the returned channel, which is
// closed when the connection fails. A timed-out Read closes the websocket,
// so waits with a deadline select on this instead.
func (c *client) stream() <-chan *protocol.Message {
	out := make(chan *protocol.Message, 16)
	go func() {
		defer close(out)
		for {
			_, raw, err := c.conn.Read(context.Background())
			if err != nil {
				return
			}
			msg, err := protocol.Decode(raw)
			if err != nil {
				c.t.Errorf("server sent undecodable frame %s: %v", raw, err)
				return
			}
			out <- msg
		}
	}()
	return out
}

// drain reads until the connection fails and reports the error on the
// returned channel.
func (c *client) drain() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		for {
			if _, _, err := c.conn.Read(context.Background()); err != nil {
				errCh <- err
				return
			}
		}
	}()
	return errCh
}

func waitClosed(t *testing.T, errCh <-chan error) {
	t.Helper()
	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("connection was not closed")
	}
}

// joinAndSync joins roomID and round-trips a chat so the join is known to
// have been processed.
func (c *client) joinAndSync(roomID string, s shape.Shape) {
	c.t.Helper()
	c.send(protocol.EncodeJoin(roomID))
	c.send(protocol.EncodeChat(roomID, s))
	if got := c.next(); got.Type != protocol.TypeChat || !shape.Equal(s, got.Shape) {
		c.t.Fatalf("expected own chat echo, got %+v", got)
	}
}

func history(t *testing.T, srv *httptest.Server, roomID, tok string) (int, protocol.HistoryResponse) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/canvas/"+roomID, nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("history request failed: %v", err)
	}
	defer resp.Body.Close()
	var body protocol.HistoryResponse
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("bad history body: %v", err)
		}
	}
	return resp.StatusCode, body
}

func TestUpgradeRequiresCredential(t *testing.T) {
	_, srv := startApp(t, testConfig())

	for name, url := range map[string]string{
		"missing": srv.URL + "/ws",
		"forged":  srv.URL + "/ws?token=not-a-jwt",
	} {
		resp, err := http.Get(url)
		if err != nil {
			t.Fatalf("%s: request failed: %v", name, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, resp.StatusCode)
		}
		if len(body) != 0 {
			t.Errorf("%s: expected empty body, got %q", name, body)
		}
	}
}

func TestRoomSyncEndToEnd(t *testing.T) {
	_, srv := startApp(t, testConfig())
	alice := dial(t, srv, token(t, "alice"))
	bob := dial(t, srv, token(t, "bob"))

	first := &shape.Rect{X: 10, Y: 10, Width: 50, Height: 40}
	second := &shape.Circle{CenterX: 100, CenterY: 100, Radius: 20}

	alice.joinAndSync("42", first)
	bob.joinAndSync("42", second)
	if got := alice.next(); !shape.Equal(second, got.Shape) {
		t.Fatalf("alice expected bob's circle, got %+v", got)
	}

	status, body := history(t, srv, "42", token(t, "carol"))
	if status != http.StatusOK || len(body.Messages) != 2 {
		t.Fatalf("history: status %d, %d messages", status, len(body.Messages))
	}
	newest, _ := shape.DecodeEnvelope(body.Messages[0].Message)
	if !shape.Equal(second, newest) {
		t.Errorf("history must be newest first, got %+v", newest)
	}

	alice.send(protocol.EncodeErase("42", shape.List{first}))
	for name, c := range map[string]*client{"alice": alice, "bob": bob} {
		got := c.next()
		if got.Type != protocol.TypeErase || len(got.Shapes) != 1 || !shape.Equal(first, got.Shapes[0]) {
			t.Errorf("%s: expected erase carrying the rect, got %+v", name, got)
		}
	}

	_, body = history(t, srv, "42", token(t, "carol"))
	if len(body.Messages) != 1 {
		t.Errorf("history after erase: expected 1 message, got %d", len(body.Messages))
	}
}

func TestMalformedFrameKeepsConnectionOpen(t *testing.T) {
	_, srv := startApp(t, testConfig())
	c := dial(t, srv, token(t, "alice"))

	c.send([]byte(`{"type":"chat","roomId":"1","message":42}`), nil)
	c.send([]byte(`garbage`), nil)
	c.joinAndSync("1", &shape.Arrow{StartX: 1, StartY: 2, EndX: 3, EndY: 4})
}

func TestReadOnlyTokenCannotDraw(t *testing.T) {
	_, srv := startApp(t, testConfig())
	viewer := dial(t, srv, token(t, "viewer", "read"))
	editor := dial(t, srv, token(t, "editor"))

	viewer.send(protocol.EncodeJoin("7"))
	viewer.send(protocol.EncodeChat("7", &shape.Rect{Width: 1, Height: 1}))

	// the viewer's join races the editor's chats; keep drawing until one lands
	editorShape := &shape.Rect{X: 5, Width: 2, Height: 2}
	editor.send(protocol.EncodeJoin("7"))
	inbox := viewer.stream()
	var got *protocol.Message
	for i := 0; i < 50 && got == nil; i++ {
		editor.send(protocol.EncodeChat("7", editorShape))
		if echo := editor.next(); !shape.Equal(editorShape, echo.Shape) {
			t.Fatalf("editor expected own echo, got %+v", echo)
		}
		select {
		case got = <-inbox:
		case <-time.After(100 * time.Millisecond):
		}
	}
	if got == nil || !shape.Equal(editorShape, got.Shape) {
		t.Fatalf("viewer expected the editor's shape first, got %+v", got)
	}

	_, body := history(t, srv, "7", token(t, "editor"))
	for _, m := range body.Messages {
		s, _ := shape.DecodeEnvelope(m.Message)
		if !shape.Equal(editorShape, s) {
			t.Errorf("read-only connection persisted %s", m.Message)
		}
	}
}

func TestHistoryRequiresCredential(t *testing.T) {
	_, srv := startApp(t, testConfig())
	status, _ := history(t, srv, "42", "")
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", status)
	}
	status, body := history(t, srv, "empty-room", token(t, "alice"))
	if status != http.StatusOK || body.Messages == nil || len(body.Messages) != 0 {
		t.Errorf("expected an empty message list, got status %d body %+v", status, body)
	}
}

func TestConnectionLimitReject(t *testing.T) {
	cfg := testConfig()
	cfg.Server.ConnectionLimit = config.ConnectionLimitConfig{MaxPerUser: 1, Mode: "reject"}
	_, srv := startApp(t, cfg)

	tok := token(t, "alice")
	first := dial(t, srv, tok)
	first.joinAndSync("1", &shape.Rect{Width: 1, Height: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, wsURL(srv, tok), nil)
	if err == nil {
		t.Fatal("expected the second connection to be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %+v", resp)
	}
}

func TestConnectionLimitCycle(t *testing.T) {
	cfg := testConfig()
	cfg.Server.ConnectionLimit = config.ConnectionLimitConfig{MaxPerUser: 1, Mode: "cycle"}
	_, srv := startApp(t, cfg)

	tok := token(t, "alice")
	first := dial(t, srv, tok)
	first.joinAndSync("1", &shape.Rect{Width: 1, Height: 1})

	closed := first.drain()
	second := dial(t, srv, tok)
	waitClosed(t, closed)
	second.joinAndSync("1", &shape.Rect{Width: 2, Height: 2})
}

func TestShutdownClosesConnections(t *testing.T) {
	app, srv := startApp(t, testConfig())
	c := dial(t, srv, token(t, "alice"))
	c.joinAndSync("1", &shape.Rect{Width: 1, Height: 1})

	closed := c.drain()
	if err := app.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	waitClosed(t, closed)
}
