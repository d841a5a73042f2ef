package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/a-essam23/syncboard/pkg/pipeline"
)

// PersistTimeout bounds one store call made on behalf of a frame.
const PersistTimeout = 10 * time.Second

// persistContext outlives the originating connection: an accepted event is
// written even if its author disconnects mid-call.
func persistContext(c *pipeline.Cargo) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Ctx), PersistTimeout)
}

// broadcast delivers frame to every connection joined to roomID when the
// registry snapshot is taken. Delivery is best effort: no acks, no retries.
func broadcast(c *pipeline.Cargo, roomID string, frame []byte, excludeSelf bool) int {
	members := c.StateManager.RoomMembers(roomID)
	sent := 0
	for _, m := range members {
		if excludeSelf && m.ID() == c.Connection.ID {
			continue
		}
		if m.Send(frame) {
			sent++
		}
	}
	c.Logger.Debug("Notified room", slog.String("roomID", roomID), slog.Int("members", len(members)), slog.Int("sent", sent))
	return sent
}
