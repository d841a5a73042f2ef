package transport

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// ErrSendBufferFull closes a connection whose client cannot keep up.
var ErrSendBufferFull = errors.New("send buffer full")

// callback executed when a message is received.
type MessageHandler func(ctx context.Context, connId uuid.UUID, msg []byte)

type OnCloseHandler func(connId uuid.UUID, err error)

// Sender is the push side of a connection as seen by the registry and router.
type Sender interface {
	ID() uuid.UUID
	// Send queues msg without blocking and reports whether it was queued.
	Send(msg []byte) bool
	Close(err error)
}

type ConnectionConfig struct {
	// ReadTimeout bounds the wait for the next client frame; zero disables it.
	ReadTimeout  time.Duration
	PingInterval time.Duration
	ReadLimit    int64
	SendBuffer   int
}

// Connection represents a single, thread-safe WebSocket connection.
type Connection struct {
	id     uuid.UUID
	conn   *websocket.Conn
	config ConnectionConfig
	send   chan []byte

	onMessage MessageHandler
	onClose   OnCloseHandler

	done      chan struct{}
	wg        *sync.WaitGroup
	ctx       context.Context
	closeOnce sync.Once
	cancel    context.CancelFunc

	// mu guards started and closed so Run and Close agree on whether the
	// WaitGroup slot was taken.
	mu      sync.Mutex
	started bool
	closed  bool

	logger *slog.Logger
}

var _ Sender = (*Connection)(nil)

func NewConnection(parentCtx context.Context, wg *sync.WaitGroup, conn *websocket.Conn, config ConnectionConfig, onMessage MessageHandler, onClose OnCloseHandler, logger *slog.Logger) *Connection {
	id := uuid.New()
	connCtx, cancel := context.WithCancel(parentCtx)
	connLogger := logger.With(slog.String("connID", id.String()))
	if config.SendBuffer <= 0 {
		config.SendBuffer = 256
	}
	if conn != nil && config.ReadLimit > 0 {
		conn.SetReadLimit(config.ReadLimit)
	}

	return &Connection{
		id:        id,
		conn:      conn,
		logger:    connLogger,
		config:    config,
		onMessage: onMessage,
		send:      make(chan []byte, config.SendBuffer),
		done:      make(chan struct{}),
		ctx:       connCtx,
		cancel:    cancel,
		onClose:   onClose,
		wg:        wg,
	}
}

// Run starts the pumps. It is a no-op on a connection that was already
// closed.
func (c *Connection) Run() {
	c.mu.Lock()
	if c.closed || c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()

	c.logger.Info("connection established")
}

// readPump hands each frame to the message handler and waits for it to
// return before reading the next one, so a connection's frames are
// processed strictly in order.
func (c *Connection) readPump() {
	var readErr error
	defer func() {
		c.Close(readErr)
	}()

	for {
		readCtx, cancelRead := c.ctx, context.CancelFunc(func() {})
		if c.config.ReadTimeout > 0 {
			readCtx, cancelRead = context.WithTimeout(c.ctx, c.config.ReadTimeout)
		}
		typ, message, err := c.conn.Read(readCtx)
		cancelRead()
		if err != nil {
			readErr = err
			return
		}
		// Ensure we are only handling text or binary messages.
		if typ != websocket.MessageText && typ != websocket.MessageBinary {
			continue
		}
		if c.onMessage != nil {
			c.onMessage(c.ctx, c.id, message)
		}
	}
}

// writePump pumps messages from the send channel to the WebSocket connection.
func (c *Connection) writePump() {
	var writeErr error
	defer func() {
		c.Close(writeErr)
	}()

	var ping <-chan time.Time
	if c.config.PingInterval > 0 {
		ticker := time.NewTicker(c.config.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case message := <-c.send:
			if err := c.conn.Write(c.ctx, websocket.MessageText, message); err != nil {
				writeErr = err
				return
			}
		case <-ping:
			pingCtx, cancel := context.WithTimeout(c.ctx, c.config.PingInterval)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				writeErr = err
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// Send queues a frame for the client. It never blocks: a full buffer means
// the client has fallen behind, and the connection is closed so it can
// reconnect and reload instead of silently missing frames.
func (c *Connection) Send(message []byte) bool {
	select {
	case <-c.ctx.Done():
		c.logger.Debug("Attempted to send on a closed connection")
		return false
	default:
	}
	select {
	case c.send <- message:
		return true
	default:
		c.logger.Warn("Send buffer full, closing slow connection", slog.Int("buffer", cap(c.send)))
		go c.Close(ErrSendBufferFull)
		return false
	}
}

// gracefully shuts down the connection and its resources.
func (c *Connection) Close(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		started := c.started
		c.mu.Unlock()

		status := websocket.CloseStatus(err)
		c.logger.Info("Transport connection closing", slog.Any("reason", err), slog.String("status", status.String()))

		c.cancel() // Signal goroutines to stop.
		if c.conn != nil {
			if errors.Is(err, ErrSendBufferFull) {
				c.conn.Close(websocket.StatusPolicyViolation, "client too slow")
			} else {
				c.conn.Close(websocket.StatusNormalClosure, "")
			}
		}
		if c.onClose != nil {
			c.onClose(c.id, err)
		}
		if started {
			c.wg.Done()
		}
		close(c.done)
		c.logger.Info("Connection closed")
	})
}

// returns a channel that is closed when the connection is fully terminated.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// ID returns the unique identifier of the connection.
func (c *Connection) ID() uuid.UUID {
	return c.id
}

func (c *Connection) SetOnMessageHandler(handler MessageHandler) {
	c.onMessage = handler
}
func (c *Connection) SetOnCloseHandler(handler OnCloseHandler) {
	c.onClose = handler
}
