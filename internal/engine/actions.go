package engine

import (
	"fmt"
	"log/slog"

	"github.com/a-essam23/syncboard/pkg/pipeline"
	"github.com/a-essam23/syncboard/pkg/protocol"
)

func actionJoinRoom(c *pipeline.Cargo) error {
	roomID := c.Message.RoomID
	if err := c.StateManager.Join(c.Connection.ID, roomID); err != nil {
		return fmt.Errorf("failed to join connection to room '%s': %w", roomID, err)
	}
	c.Logger.Info("User joined room", slog.String("userID", c.UserID()), slog.String("roomID", roomID))
	return nil
}

func actionLeaveRoom(c *pipeline.Cargo) error {
	roomID := c.Message.RoomID
	if err := c.StateManager.Leave(c.Connection.ID, roomID); err != nil {
		return fmt.Errorf("failed to remove connection from room '%s': %w", roomID, err)
	}
	c.Logger.Info("User left room", slog.String("userID", c.UserID()), slog.String("roomID", roomID))
	return nil
}

// actionChat persists one shape and echoes it to every member, the author
// included. A failed write is logged and the broadcast still goes out.
func actionChat(c *pipeline.Cargo) error {
	msg := c.Message
	ctx, cancel := persistContext(c)
	err := c.Store.Append(ctx, msg.RoomID, c.UserID(), msg.Shape)
	cancel()
	if err != nil {
		c.Logger.Error("Failed to persist shape, broadcasting anyway",
			slog.String("roomID", msg.RoomID),
			slog.Any("error", err),
		)
	}

	frame, err := protocol.EncodeChatEnvelope(msg.RoomID, msg.Envelope)
	if err != nil {
		return fmt.Errorf("failed to encode chat frame: %w", err)
	}
	broadcast(c, msg.RoomID, frame, false)
	return nil
}

// actionErase replaces the room's durable scene with the shapes carried by
// the frame. Members are only told about a scene the store recorded.
func actionErase(c *pipeline.Cargo) error {
	msg := c.Message
	ctx, cancel := persistContext(c)
	err := c.Store.ReplaceAll(ctx, msg.RoomID, c.UserID(), msg.Shapes)
	cancel()
	if err != nil {
		return fmt.Errorf("erase for room '%s' not broadcast: %w", msg.RoomID, err)
	}

	frame, err := protocol.EncodeErase(msg.RoomID, msg.Shapes)
	if err != nil {
		return fmt.Errorf("failed to encode erase frame: %w", err)
	}
	c.Logger.Debug("Scene replaced", slog.String("roomID", msg.RoomID), slog.Int("shapes", len(msg.Shapes)))
	broadcast(c, msg.RoomID, frame, false)
	return nil
}
