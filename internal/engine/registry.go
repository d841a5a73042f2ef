package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/a-essam23/syncboard/pkg/pipeline"
	"github.com/a-essam23/syncboard/pkg/protocol"
	"github.com/a-essam23/syncboard/pkg/state"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrForbidden     = errors.New("forbidden")
)

type action struct {
	fn   pipeline.ActionFunc
	perm state.Permission
	// serialized actions run under their room's lock.
	serialized bool
}

/*
* The central registry of protocol actions, keyed by frame type.
* Serialized actions for one room execute one at a time, so their
* persistence and broadcast happen in the order the server accepted them.
 */
type Registry struct {
	logger   *slog.Logger
	actions  map[protocol.Type]action
	actionMu sync.RWMutex
	rooms    *roomLocks
}

// New creates an empty registry. Call RegisterCore for the protocol actions.
func New(logger *slog.Logger) *Registry {
	return &Registry{
		logger:  logger.With(slog.String("component", "engine")),
		actions: make(map[protocol.Type]action),
		rooms:   newRoomLocks(),
	}
}

func (e *Registry) RegisterCore() {
	e.RegisterAction(protocol.TypeJoinRoom, state.PermCanRead, false, actionJoinRoom)
	e.RegisterAction(protocol.TypeLeaveRoom, 0, false, actionLeaveRoom)
	e.RegisterAction(protocol.TypeChat, state.PermCanWrite, true, actionChat)
	e.RegisterAction(protocol.TypeErase, state.PermCanWrite, true, actionErase)
	e.logger.Info("Registered core actions", slog.Int("count", len(e.actions)))
}

// RegisterAction binds fn to frames of type typ. Connections lacking perm
// are refused. It panics on duplicate registration.
func (e *Registry) RegisterAction(typ protocol.Type, perm state.Permission, serialized bool, fn pipeline.ActionFunc) {
	e.actionMu.Lock()
	defer e.actionMu.Unlock()
	if _, exists := e.actions[typ]; exists {
		panic("action function already registered: " + string(typ))
	}
	e.actions[typ] = action{fn: fn, perm: perm, serialized: serialized}
}

// Execute runs the action registered for c.Message.Type.
func (e *Registry) Execute(c *pipeline.Cargo) error {
	e.actionMu.RLock()
	act, ok := e.actions[c.Message.Type]
	e.actionMu.RUnlock()
	if !ok {
		return fmt.Errorf("%w '%s'", ErrUnknownAction, c.Message.Type)
	}
	if !c.Connection.Permissions.Has(act.perm) {
		return fmt.Errorf("%w: '%s' requires permission %b", ErrForbidden, c.Message.Type, act.perm)
	}
	if !act.serialized {
		return act.fn(c)
	}
	return e.rooms.Do(c.Message.RoomID, func() error {
		return act.fn(c)
	})
}
