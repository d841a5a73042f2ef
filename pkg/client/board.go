package client

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/a-essam23/syncboard/pkg/canvas"
)

// Options configures a Board.
type Options struct {
	// ServerURL is the http(s) base of the board server.
	ServerURL  string
	Token      string
	RoomID     string
	Surface    canvas.Surface
	HTTPClient *http.Client
	Logger     *slog.Logger
	// OnFrame, when set, sees every server frame after it was applied.
	OnFrame func(frame []byte)
}

// Board joins one room and keeps a Controller in sync with it.
type Board struct {
	*Controller
	session *Session
	onFrame func(frame []byte)
}

// Open connects, joins the room and seeds the scene from history. Joining
// first means no edit falls between the history snapshot and the live
// stream; one that lands in both shows up twice, which draws the same.
func Open(ctx context.Context, opts Options) (*Board, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	session, err := Dial(ctx, opts.ServerURL, opts.Token, logger)
	if err != nil {
		return nil, err
	}
	if err := session.Join(ctx, opts.RoomID); err != nil {
		session.Close()
		return nil, err
	}

	loader := &HTTPLoader{BaseURL: opts.ServerURL, Token: opts.Token, Client: opts.HTTPClient, Logger: logger}
	ctrl := NewController(ctx, opts.RoomID, loader, opts.Surface, session, logger)
	return &Board{Controller: ctrl, session: session, onFrame: opts.OnFrame}, nil
}

// Run applies server frames until the connection ends or ctx is done.
func (b *Board) Run(ctx context.Context) error {
	return b.session.Listen(ctx, func(frame []byte) {
		b.HandleFrame(frame)
		if b.onFrame != nil {
			b.onFrame(frame)
		}
	})
}

func (b *Board) Close() error {
	return b.session.Close()
}
