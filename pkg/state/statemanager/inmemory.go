package statemanager

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/a-essam23/syncboard/pkg/state"
	"github.com/a-essam23/syncboard/pkg/transport"
	"github.com/google/uuid"
)

// InMemoryManager keeps the whole registry behind one mutex, so every
// mutation is ordered against every other and a RoomMembers snapshot never
// includes a connection whose Leave already returned.
type InMemoryManager struct {
	conns map[uuid.UUID]*state.Connection
	users map[string]*state.User
	rooms map[string]map[uuid.UUID]*state.Connection

	mu sync.RWMutex

	logger *slog.Logger
}

func NewInMemoryManager(logger *slog.Logger) *InMemoryManager {
	return &InMemoryManager{
		conns:  make(map[uuid.UUID]*state.Connection),
		users:  make(map[string]*state.User),
		rooms:  make(map[string]map[uuid.UUID]*state.Connection),
		logger: logger.With(slog.String("component", "state_manager_inmemory")),
	}
}

// compile-time check to ensure InMemoryManager implements Manager.
var _ state.Manager = (*InMemoryManager)(nil)

func (m *InMemoryManager) RegisterConnection(conn transport.Sender, ipAddr string, id state.Identity) (*state.Connection, error) {
	if id.UserID == "" {
		return nil, state.ErrUnauthenticated
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	connID := conn.ID()
	if _, exists := m.conns[connID]; exists {
		return nil, state.ErrAlreadyRegistered
	}

	// Find or create the user session.
	user, exists := m.users[id.UserID]
	if !exists {
		user = &state.User{
			ID:          id.UserID,
			Connections: make(map[uuid.UUID]*state.Connection),
		}
		m.users[id.UserID] = user
		m.logger.Debug("Created new user session", slog.String("userID", id.UserID))
	}

	newConn := &state.Connection{
		ID:          connID,
		IPAddress:   ipAddr,
		Transport:   conn,
		User:        user,
		Permissions: id.Permissions,
		Rooms:       make(map[string]struct{}),
		CreatedAt:   time.Now(),
	}
	m.conns[connID] = newConn
	user.Connections[connID] = newConn

	m.logger.Debug("Connection registered", slog.String("connID", connID.String()), slog.String("userID", id.UserID))
	return newConn, nil
}

func (m *InMemoryManager) DeregisterConnection(connID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.conns[connID]
	if !ok {
		// connection is already deregistered
		return nil
	}
	delete(m.conns, connID)

	for roomID := range conn.Rooms {
		m.removeMember(roomID, connID)
	}
	conn.Rooms = make(map[string]struct{})

	// detach conn from user
	if user := conn.User; user != nil {
		delete(user.Connections, connID)
		if len(user.Connections) == 0 {
			delete(m.users, user.ID)
		}
		m.logger.Debug("Detached connection from user", slog.String("connID", connID.String()), slog.String("userID", user.ID))
	}
	m.logger.Debug("Connection deregistered", "connID", connID.String())
	return nil
}

func (m *InMemoryManager) GetConnection(connID uuid.UUID) (*state.Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.conns[connID]
	return conn, ok
}

func (m *InMemoryManager) GetAllConnections() []*state.Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns := make([]*state.Connection, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, c)
	}
	return conns
}

// --- User Management ---

func (m *InMemoryManager) GetUserConnectionCount(userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return 0, nil // User doesn't exist yet, so they have 0 connections.
	}
	return len(user.Connections), nil
}

func (m *InMemoryManager) FindOldestUserConnection(userID string) (*state.Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, false
	}

	var oldestConn *state.Connection
	for _, conn := range user.Connections {
		if oldestConn == nil || conn.CreatedAt.Before(oldestConn.CreatedAt) {
			oldestConn = conn
		}
	}
	return oldestConn, oldestConn != nil
}

// --- Room Membership ---

func (m *InMemoryManager) Join(connID uuid.UUID, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.conns[connID]
	if !ok {
		return fmt.Errorf("cannot join room '%s': %w", roomID, state.ErrUnknownConnection)
	}
	if _, joined := conn.Rooms[roomID]; joined {
		return nil
	}

	members, exists := m.rooms[roomID]
	if !exists {
		members = make(map[uuid.UUID]*state.Connection)
		m.rooms[roomID] = members
	}
	members[connID] = conn
	conn.Rooms[roomID] = struct{}{}

	m.logger.Debug("Connection joined room", "connID", connID.String(), "roomID", roomID)
	return nil
}

func (m *InMemoryManager) Leave(connID uuid.UUID, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.conns[connID]
	if !ok {
		return fmt.Errorf("cannot leave room '%s': %w", roomID, state.ErrUnknownConnection)
	}
	if _, joined := conn.Rooms[roomID]; !joined {
		return nil
	}
	delete(conn.Rooms, roomID)
	m.removeMember(roomID, connID)

	m.logger.Debug("Connection left room", "connID", connID.String(), "roomID", roomID)
	return nil
}

// removeMember must be called with mu held.
func (m *InMemoryManager) removeMember(roomID string, connID uuid.UUID) {
	members, ok := m.rooms[roomID]
	if !ok {
		return
	}
	delete(members, connID)
	// For memory hygiene, remove the room if it's now empty.
	if len(members) == 0 {
		delete(m.rooms, roomID)
		m.logger.Debug("Removed empty room", "roomID", roomID)
	}
}

func (m *InMemoryManager) Rooms(connID uuid.UUID) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conn, ok := m.conns[connID]
	if !ok {
		return nil, state.ErrUnknownConnection
	}
	rooms := make([]string, 0, len(conn.Rooms))
	for r := range conn.Rooms {
		rooms = append(rooms, r)
	}
	sort.Strings(rooms)
	return rooms, nil
}

func (m *InMemoryManager) RoomMembers(roomID string) []transport.Sender {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := m.rooms[roomID]
	out := make([]transport.Sender, 0, len(members))
	for _, c := range members {
		out = append(out, c.Transport)
	}
	return out
}
