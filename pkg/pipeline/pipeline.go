package pipeline

import (
	"context"
	"log/slog"

	"github.com/a-essam23/syncboard/pkg/protocol"
	"github.com/a-essam23/syncboard/pkg/state"
	"github.com/a-essam23/syncboard/pkg/store"
)

/*
 * Cargo detaches the implementation of protocol actions from the router
 * that decodes frames: an action only sees what it carries.
 */

type Cargo struct {
	Logger       *slog.Logger
	Ctx          context.Context
	Connection   *state.Connection
	StateManager state.Manager
	Store        store.Store
	Message      *protocol.Message
}

// UserID is the authenticated identity of the originating connection.
func (c *Cargo) UserID() string {
	if c.Connection == nil || c.Connection.User == nil {
		return ""
	}
	return c.Connection.User.ID
}

// simple, testable functions that act on one decoded message
type ActionFunc func(c *Cargo) error
