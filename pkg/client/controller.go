// Package client is the drawing side of a board: it keeps a local copy of
// a room's scene, applies local edits optimistically, merges the server's
// events and repaints the whole scene after every change.
package client

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/a-essam23/syncboard/pkg/canvas"
	"github.com/a-essam23/syncboard/pkg/protocol"
	"github.com/a-essam23/syncboard/pkg/scene"
	"github.com/a-essam23/syncboard/pkg/shape"
)

// Outbox delivers frames to the server.
type Outbox interface {
	Send(ctx context.Context, frame []byte) error
}

// Loader fetches a room's persisted shapes, newest first.
type Loader interface {
	Load(ctx context.Context, roomID string) ([]shape.Shape, error)
}

// Controller owns the local Scene of one room. Every method runs to
// completion, render included, before another may start.
type Controller struct {
	mu           sync.Mutex
	logger       *slog.Logger
	roomID       string
	scene        *scene.Scene
	tools        *Interaction
	surface      canvas.Surface
	outbox       Outbox
	eraserRadius float64

	// pending counts shapes sent by this client whose echo has not
	// arrived yet, keyed by shape.Key.
	pending map[string]int
}

// NewController seeds the scene from loader and renders it once. A failed
// load leaves the scene empty.
func NewController(ctx context.Context, roomID string, loader Loader, surface canvas.Surface, outbox Outbox, logger *slog.Logger) *Controller {
	c := &Controller{
		logger:       logger.With(slog.String("component", "scene_controller"), slog.String("roomID", roomID)),
		roomID:       roomID,
		scene:        scene.New(),
		tools:        NewInteraction(),
		surface:      surface,
		outbox:       outbox,
		eraserRadius: shape.DefaultEraserRadius,
		pending:      make(map[string]int),
	}

	history, err := loader.Load(ctx, roomID)
	if err != nil {
		c.logger.Warn("Failed to load room history, starting empty", slog.Any("error", err))
	}
	// oldest first, so replay follows the order the shapes were drawn
	slices.Reverse(history)
	c.scene.Replace(history)
	c.logger.Debug("Scene seeded", slog.Int("shapes", len(history)))

	c.mu.Lock()
	c.render()
	c.mu.Unlock()
	return c
}

func (c *Controller) RoomID() string { return c.roomID }

// Shapes is a snapshot of the local scene.
func (c *Controller) Shapes() shape.List {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scene.Shapes()
}

func (c *Controller) Tool() Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tools.Tool()
}

func (c *Controller) SetTool(t Tool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools.SetTool(t)
	c.render()
}

func (c *Controller) PointerDown(ctx context.Context, p shape.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(ctx, c.tools.PointerDown(p))
}

func (c *Controller) PointerMove(ctx context.Context, p shape.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(ctx, c.tools.PointerMove(p))
}

func (c *Controller) PointerUp(ctx context.Context, p shape.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(ctx, c.tools.PointerUp(p))
}

func (c *Controller) apply(ctx context.Context, e Effect) {
	switch {
	case e.Commit != nil:
		c.applyLocal(ctx, e.Commit)
	case e.Erase:
		c.eraseAt(ctx, e.EraseAt)
	case e.Redraw:
		c.render()
	}
}

// ApplyLocal appends s, repaints and sends it to the room without waiting
// for the server.
func (c *Controller) ApplyLocal(ctx context.Context, s shape.Shape) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyLocal(ctx, s)
}

func (c *Controller) applyLocal(ctx context.Context, s shape.Shape) {
	c.scene.Append(s)
	c.render()

	frame, err := protocol.EncodeChat(c.roomID, s)
	if err != nil {
		c.logger.Error("Failed to encode local shape", slog.Any("error", err))
		return
	}
	if key, err := shape.Key(s); err == nil {
		c.pending[key]++
	}
	if err := c.outbox.Send(ctx, frame); err != nil {
		c.logger.Warn("Failed to send shape, kept locally", slog.Any("error", err))
	}
}

// EraseAt removes every shape the eraser hits at p. When anything was
// removed, the remaining scene is sent as an erase. It returns the number
// of shapes removed.
func (c *Controller) EraseAt(ctx context.Context, p shape.Point) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eraseAt(ctx, p)
}

func (c *Controller) eraseAt(ctx context.Context, p shape.Point) int {
	removed := c.scene.EraseAt(p, c.eraserRadius)
	if removed == 0 {
		return 0
	}
	c.render()

	frame, err := protocol.EncodeErase(c.roomID, c.scene.Shapes())
	if err != nil {
		c.logger.Error("Failed to encode erase", slog.Any("error", err))
		return removed
	}
	if err := c.outbox.Send(ctx, frame); err != nil {
		c.logger.Warn("Failed to send erase", slog.Any("error", err))
	}
	return removed
}

// HandleFrame applies one server frame. Frames for other rooms and frames
// that do not decode are ignored.
func (c *Controller) HandleFrame(raw []byte) {
	msg, err := protocol.Decode(raw)
	if err != nil {
		c.logger.Warn("Ignoring malformed frame", slog.Any("error", err))
		return
	}
	if msg.RoomID != c.roomID {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch msg.Type {
	case protocol.TypeChat:
		if c.consumeEcho(msg.Shape) {
			return
		}
		c.scene.Append(msg.Shape)
	case protocol.TypeErase:
		c.scene.Replace(msg.Shapes)
		c.forgetErasedPending()
	default:
		return
	}
	c.render()
}

// consumeEcho reports whether s is the server's echo of a shape this
// client already applied.
func (c *Controller) consumeEcho(s shape.Shape) bool {
	key, err := shape.Key(s)
	if err != nil || c.pending[key] == 0 {
		return false
	}
	c.pending[key]--
	if c.pending[key] == 0 {
		delete(c.pending, key)
	}
	return true
}

// forgetErasedPending drops pending shapes the new scene no longer holds,
// so an echo arriving after the erase appends them again.
func (c *Controller) forgetErasedPending() {
	if len(c.pending) == 0 {
		return
	}
	present := make(map[string]struct{}, c.scene.Len())
	for _, s := range c.scene.Shapes() {
		if key, err := shape.Key(s); err == nil {
			present[key] = struct{}{}
		}
	}
	for key := range c.pending {
		if _, ok := present[key]; !ok {
			delete(c.pending, key)
		}
	}
}

// render repaints the scene plus any in-progress preview. Callers hold mu.
func (c *Controller) render() {
	shapes := []shape.Shape(c.scene.Shapes())
	if preview := c.tools.Preview(); preview != nil {
		shapes = append(shapes, preview)
	}
	canvas.Render(c.surface, shapes)
}

// Render repaints on demand, e.g. after the surface was resized.
func (c *Controller) Render() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.render()
}
