package state

import (
	"errors"

	"github.com/a-essam23/syncboard/pkg/transport"
	"github.com/google/uuid"
)

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrUnknownConnection = errors.New("unknown connection")
	ErrAlreadyRegistered = errors.New("connection is already registered")
)

// Manager is the connection registry: live connections, the identity each
// one authenticated as, and the rooms each one has joined. All mutations
// are serialized; no method blocks on I/O.
type Manager interface {
	// --- Connection Lifecycle ---
	// fails with ErrUnauthenticated when the identity carries no user id.
	RegisterConnection(conn transport.Sender, ipAddr string, id Identity) (*Connection, error)
	// removes the connection and every room membership it held.
	DeregisterConnection(connID uuid.UUID) error
	GetConnection(connID uuid.UUID) (*Connection, bool)
	GetAllConnections() []*Connection

	// --- User Management ---
	FindOldestUserConnection(userID string) (*Connection, bool)
	GetUserConnectionCount(userID string) (int, error)

	// --- Room Membership ---
	// idempotent; joining twice keeps a single membership.
	Join(connID uuid.UUID, roomID string) error
	// no-op when the connection is not in the room.
	Leave(connID uuid.UUID, roomID string) error
	Rooms(connID uuid.UUID) ([]string, error)
	// snapshot of the transports joined to roomID at call time.
	RoomMembers(roomID string) []transport.Sender
}
