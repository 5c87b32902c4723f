package models

import "encoding/json"

// Status is a user's connection status as it travels on the wire.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// User is the per-connection record for a room member. Exactly one exists
// per live connection; SocketID is the wire name for the connection id.
type User struct {
	Username       string  `json:"username"`
	RoomID         string  `json:"roomId"`
	Status         Status  `json:"status"`
	CursorPosition int     `json:"cursorPosition"`
	SelectionEnd   int     `json:"selectionEnd"`
	SocketID       string  `json:"socketId"`
	Typing         bool    `json:"typing"`
	CurrentFile    *string `json:"currentFile"`
}

// Frame is the wire envelope. Payload stays raw so pure relays forward
// client bytes untouched.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewFrame builds an outbound frame from a payload value.
func NewFrame(event string, v any) Frame {
	b, _ := json.Marshal(v)
	return Frame{Event: event, Payload: b}
}

/*** Session lifecycle payloads ***/

type JoinRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type JoinAccepted struct {
	User  User   `json:"user"`
	Users []User `json:"users"`
}

// UserJoined doubles as the roster refresh broadcast on cursor moves, where
// only Users is set (the client protocol reuses the event name).
type UserJoined struct {
	User  *User  `json:"user,omitempty"`
	Users []User `json:"users"`
}

// UserEvent carries a single User: user-disconnected, online, offline.
type UserEvent struct {
	User User `json:"user"`
}

/*** Presence payloads ***/

type CursorMove struct {
	CursorPosition int `json:"cursorPosition"`
	SelectionEnd   int `json:"selectionEnd"`
}

/*** Drawing relay payloads ***/

type RequestDrawing struct {
	SocketID string `json:"socketId"`
}

type SyncDrawing struct {
	SocketID    string          `json:"socketId,omitempty"`
	DrawingData json.RawMessage `json:"drawingData"`
}

/*** Terminal payloads ***/

type TerminalCommand struct {
	Command string `json:"command"`
	Input   string `json:"input"`
}

type TerminalStream struct {
	Lines   []string `json:"lines"`
	IsError bool     `json:"isError,omitempty"`
}

type TerminalStatus struct {
	Status string `json:"status"`
	Code   *int   `json:"code,omitempty"`
}
