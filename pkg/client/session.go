package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/coder/websocket"

	"github.com/a-essam23/syncboard/pkg/auth"
	"github.com/a-essam23/syncboard/pkg/protocol"
)

// Session is one websocket connection to the board server.
type Session struct {
	conn   *websocket.Conn
	logger *slog.Logger
}

var _ Outbox = (*Session)(nil)

// WebsocketURL maps an http(s) server base URL to its /ws endpoint
// carrying token.
func WebsocketURL(base, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme '%s'", u.Scheme)
	}
	u.Path += "/ws"
	q := u.Query()
	q.Set(auth.QueryParam, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial opens a session. A rejected credential fails the handshake.
func Dial(ctx context.Context, baseURL, token string, logger *slog.Logger) (*Session, error) {
	wsURL, err := WebsocketURL(baseURL, token)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connect rejected with %s: %w", resp.Status, err)
		}
		return nil, err
	}
	conn.SetReadLimit(1 << 20)
	return &Session{conn: conn, logger: logger.With(slog.String("component", "session"))}, nil
}

func (s *Session) Send(ctx context.Context, frame []byte) error {
	return s.conn.Write(ctx, websocket.MessageText, frame)
}

func (s *Session) Join(ctx context.Context, roomID string) error {
	frame, err := protocol.EncodeJoin(roomID)
	if err != nil {
		return err
	}
	return s.Send(ctx, frame)
}

func (s *Session) Leave(ctx context.Context, roomID string) error {
	frame, err := protocol.EncodeLeave(roomID)
	if err != nil {
		return err
	}
	return s.Send(ctx, frame)
}

// Listen passes every inbound frame to handle until the connection ends.
// A normal closure or a cancelled ctx returns nil.
func (s *Session) Listen(ctx context.Context, handle func(frame []byte)) error {
	for {
		_, frame, err := s.conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return err
		}
		handle(frame)
	}
}

func (s *Session) Close() error {
	err := s.conn.Close(websocket.StatusNormalClosure, "")
	var ce websocket.CloseError
	if err != nil && !errors.As(err, &ce) {
		s.logger.Debug("Close handshake failed", slog.Any("error", err))
		return err
	}
	return nil
}
