// Package protocol defines the JSON frames exchanged between drawing
// clients and the room server.
//
// Client to server:
//
//	{"type":"join_room","roomId":"42"}
//	{"type":"leave_room","roomId":"42"}
//	{"type":"chat","roomId":"42","message":"{\"shape\":{...}}"}
//	{"type":"erase","roomId":"42","shapes":[...]}
//
// Server to client frames reuse the chat and erase layouts. The same
// Decode function reads both directions.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/a-essam23/syncboard/pkg/shape"
)

// ErrMalformedMessage marks a frame that must be dropped without a reply.
var ErrMalformedMessage = errors.New("malformed message")

type Type string

const (
	TypeJoinRoom  Type = "join_room"
	TypeLeaveRoom Type = "leave_room"
	TypeChat      Type = "chat"
	TypeErase     Type = "erase"
)

// Message is a decoded frame. Shape is set for chat, Shapes for erase.
type Message struct {
	Type   Type
	RoomID string
	Shape  shape.Shape
	Shapes shape.List
	// Envelope is the canonical {"shape":...} document for chat frames.
	Envelope string
}

// RoomFrame is the wire form of join_room and leave_room.
type RoomFrame struct {
	Type   Type   `json:"type"`
	RoomID string `json:"roomId"`
}

// ChatFrame carries one shape as a JSON-encoded envelope string.
type ChatFrame struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
	RoomID  string `json:"roomId"`
}

// EraseFrame carries the complete remaining scene of a room.
type EraseFrame struct {
	Type   Type       `json:"type"`
	Shapes shape.List `json:"shapes"`
	RoomID string     `json:"roomId"`
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedMessage, fmt.Sprintf(format, args...))
}

// Decode validates and parses one frame. Every failure wraps ErrMalformedMessage.
func Decode(raw []byte) (*Message, error) {
	if !gjson.ValidBytes(raw) {
		return nil, malformed("not valid json")
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, malformed("frame is not an object")
	}

	typ := doc.Get("type")
	if typ.Type != gjson.String {
		return nil, malformed("missing 'type'")
	}
	msg := &Message{Type: Type(typ.String())}

	room := doc.Get("roomId")
	switch room.Type {
	case gjson.String, gjson.Number:
		msg.RoomID = room.String()
	}
	if msg.RoomID == "" {
		return nil, malformed("'%s' missing 'roomId'", msg.Type)
	}

	switch msg.Type {
	case TypeJoinRoom, TypeLeaveRoom:
	case TypeChat:
		body := doc.Get("message")
		if body.Type != gjson.String {
			return nil, malformed("chat 'message' must be a json-encoded string")
		}
		s, err := shape.DecodeEnvelope(body.String())
		if err != nil {
			return nil, malformed("chat: %v", err)
		}
		env, err := shape.EncodeEnvelope(s)
		if err != nil {
			return nil, malformed("chat: %v", err)
		}
		msg.Shape, msg.Envelope = s, env
	case TypeErase:
		shapes, err := shape.ListFrom(doc.Get("shapes"))
		if err != nil {
			return nil, malformed("erase: %v", err)
		}
		msg.Shapes = shapes
	default:
		return nil, malformed("unknown type '%s'", msg.Type)
	}
	return msg, nil
}

func EncodeJoin(roomID string) ([]byte, error) {
	return json.Marshal(RoomFrame{Type: TypeJoinRoom, RoomID: roomID})
}

func EncodeLeave(roomID string) ([]byte, error) {
	return json.Marshal(RoomFrame{Type: TypeLeaveRoom, RoomID: roomID})
}

// EncodeChat builds a chat frame for s in either direction.
func EncodeChat(roomID string, s shape.Shape) ([]byte, error) {
	env, err := shape.EncodeEnvelope(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode shape envelope: %w", err)
	}
	return EncodeChatEnvelope(roomID, env)
}

// EncodeChatEnvelope builds a chat frame around an already encoded envelope.
func EncodeChatEnvelope(roomID, envelope string) ([]byte, error) {
	return json.Marshal(ChatFrame{Type: TypeChat, Message: envelope, RoomID: roomID})
}

func EncodeErase(roomID string, shapes shape.List) ([]byte, error) {
	return json.Marshal(EraseFrame{Type: TypeErase, Shapes: shapes, RoomID: roomID})
}

// HistoryEntry is one persisted shape as served by GET /canvas/{roomId}.
type HistoryEntry struct {
	// Message is the JSON-encoded {"shape":...} envelope.
	Message string `json:"message"`
}

// HistoryResponse lists a room's entries newest first.
type HistoryResponse struct {
	Messages []HistoryEntry `json:"messages"`
}
