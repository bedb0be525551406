// Package protocol defines the JSON envelopes exchanged between clients and
// the relay.
//
// A client's first frame is a Registration; every later inbound frame is a
// ClientCommand tagged by its action. Everything the server emits is a
// ServerEvent tagged by its type, so all broadcast payloads share one shape.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxFrameSize is the maximum accepted inbound frame size (64KB).
const MaxFrameSize = 65536

// SystemUsername is the sender shown on server-generated room notices.
const SystemUsername = "System"

// Inbound command actions.
const (
	ActionJoinRoom           = "join_room"
	ActionLeaveRoom          = "leave_room"
	ActionSendRoomMessage    = "send_room_message"
	ActionSendPrivateMessage = "send_private_message"
	ActionTyping             = "typing"
)

// Outbound event types.
const (
	EventMessage        = "message"
	EventPrivateMessage = "private_message"
	EventError          = "error"
	EventUserList       = "user_list"
	EventTyping         = "typing"
)

var ErrFrameTooLarge = fmt.Errorf("protocol: frame exceeds %d bytes", MaxFrameSize)
var ErrMissingUsername = errors.New("protocol: registration frame missing username")
var ErrMissingAction = errors.New("protocol: command frame missing action")

// Registration is the first frame a client must send after connecting.
type Registration struct {
	Username string `json:"username"`
}

// ClientCommand is any inbound frame after registration. Only the fields
// relevant to the action are set.
type ClientCommand struct {
	Action    string `json:"action"`
	RoomName  string `json:"room_name,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ServerEvent is the single outbound envelope shape. Type is always set;
// the remaining fields depend on it.
type ServerEvent struct {
	Type     string   `json:"type"`
	Room     string   `json:"room,omitempty"`
	From     string   `json:"from,omitempty"`
	Message  string   `json:"message,omitempty"`
	Users    []string `json:"users,omitempty"`
	Username string   `json:"username,omitempty"`
}

// DecodeRegistration parses and validates a registration frame.
func DecodeRegistration(data []byte) (*Registration, error) {
	if len(data) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	var reg Registration
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("protocol: decode registration: %w", err)
	}
	if reg.Username == "" {
		return nil, ErrMissingUsername
	}
	return &reg, nil
}

// DecodeCommand parses a command frame. The action string is required; its
// arguments are validated by the caller.
func DecodeCommand(data []byte) (*ClientCommand, error) {
	if len(data) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	var cmd ClientCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, fmt.Errorf("protocol: decode command: %w", err)
	}
	if cmd.Action == "" {
		return nil, ErrMissingAction
	}
	return &cmd, nil
}

// Encode serializes the event for transport.
func (e *ServerEvent) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode event: %w", err)
	}
	return data, nil
}

// RoomMessage builds a room broadcast envelope.
func RoomMessage(room, from, message string) *ServerEvent {
	return &ServerEvent{Type: EventMessage, Room: room, From: from, Message: message}
}

// SystemNotice builds a room broadcast envelope attributed to the server.
func SystemNotice(room, text string) *ServerEvent {
	return RoomMessage(room, SystemUsername, text)
}

// PrivateMessage builds a directed message envelope for a single recipient.
func PrivateMessage(from, message string) *ServerEvent {
	return &ServerEvent{Type: EventPrivateMessage, From: from, Message: message}
}

// ErrorEvent builds an error envelope delivered to a single sender.
func ErrorEvent(message string) *ServerEvent {
	return &ServerEvent{Type: EventError, Message: message}
}

// UserList builds the authoritative membership snapshot for a room. Users
// appear in join order.
func UserList(room string, users []string) *ServerEvent {
	return &ServerEvent{Type: EventUserList, Room: room, Users: users}
}

// Typing builds a typing indicator envelope.
func Typing(username string) *ServerEvent {
	return &ServerEvent{Type: EventTyping, Username: username}
}
