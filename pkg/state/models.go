package state

import (
	"time"

	"github.com/a-essam23/syncboard/pkg/transport"
	"github.com/google/uuid"
)

// Identity is what a verified credential establishes about a connection.
type Identity struct {
	UserID      string
	Permissions Permission
}

// representation of a single live transport session.
// Rooms is owned by the Manager and only read or written under its lock.
type Connection struct {
	ID          uuid.UUID
	IPAddress   string
	Transport   transport.Sender // used to push frames to the client
	User        *User
	Permissions Permission // from the credential this connection presented
	Rooms       map[string]struct{}
	CreatedAt   time.Time
}

// canonical representation of a user, aggregating all their connections.
type User struct {
	ID          string
	Connections map[uuid.UUID]*Connection
}
