package router

import (
	"context"
	"errors"
	"log/slog"

	"github.com/a-essam23/syncboard/internal/engine"
	"github.com/a-essam23/syncboard/pkg/pipeline"
	"github.com/a-essam23/syncboard/pkg/protocol"
	"github.com/a-essam23/syncboard/pkg/state"
	"github.com/a-essam23/syncboard/pkg/store"
	"github.com/google/uuid"
)

// EventRouter is the per-connection message handler: it decodes a frame and
// runs the matching engine action to completion before returning.
type EventRouter struct {
	logger       *slog.Logger
	stateManager state.Manager
	store        store.Store
	engine       *engine.Registry
}

func NewEventRouter(logger *slog.Logger, stateManager state.Manager, st store.Store, eng *engine.Registry) *EventRouter {
	return &EventRouter{
		logger:       logger.With(slog.String("component", "event_router")),
		stateManager: stateManager,
		store:        st,
		engine:       eng,
	}
}

// HandleMessage never replies and never closes the connection: frames
// that fail to decode, or that the action refuses, are dropped and logged.
func (r *EventRouter) HandleMessage(ctx context.Context, connID uuid.UUID, raw []byte) {
	msg, err := protocol.Decode(raw)
	if err != nil {
		r.logger.Warn("Dropping malformed message", slog.String("connID", connID.String()), slog.Any("error", err))
		return
	}

	conn, ok := r.stateManager.GetConnection(connID)
	if !ok {
		r.logger.Warn("Message from unregistered connection", slog.String("connID", connID.String()), slog.Any("type", msg.Type))
		return
	}

	cargo := &pipeline.Cargo{
		Logger:       r.logger.With(slog.String("connID", connID.String())),
		Ctx:          ctx,
		Connection:   conn,
		StateManager: r.stateManager,
		Store:        r.store,
		Message:      msg,
	}
	r.logger.Debug("Executing action", slog.Any("type", msg.Type), slog.String("roomID", msg.RoomID), slog.String("connID", connID.String()))
	if err := r.engine.Execute(cargo); err != nil {
		level := slog.LevelError
		if errors.Is(err, engine.ErrForbidden) {
			level = slog.LevelWarn
		}
		r.logger.Log(ctx, level, "Action failed", slog.Any("type", msg.Type), slog.String("roomID", msg.RoomID), slog.Any("error", err))
	}
}
