package events

import (
	"encoding/json"

	"codesync/internal/models"
	"codesync/internal/utils"
)

// Scope says who receives a routed frame.
type Scope int

const (
	ScopeNone Scope = iota
	// ScopeSender delivers back to the originating connection only.
	ScopeSender
	// ScopeRoom delivers to the whole room, sender included.
	ScopeRoom
	// ScopeRoomOthers delivers to the room excluding the sender.
	ScopeRoomOthers
	// ScopeTarget delivers to the single connection named in Target.
	ScopeTarget
	// ScopeUpstream forwards to the process-execution collaborator.
	ScopeUpstream
)

// Delivery is one routed emission: a frame plus where it goes.
type Delivery struct {
	Scope  Scope
	Target string
	Frame  models.Frame
}

// sessions is the slice of the coordinator the router needs. Kept as an
// interface so the table is unit-testable without a live transport.
type sessions interface {
	Lookup(connID string) (models.User, bool)
	Roster(roomID string) []models.User
	SetCursor(connID string, cursorPosition, selectionEnd int) (models.User, bool)
	SetTyping(connID string, typing bool) (models.User, bool)
	SetStatus(connID string, status models.Status) (models.User, bool)
	DrawingHolder(roomID string) (string, bool)
	SetDrawingHolder(roomID, connID string)
	FirstOther(roomID, exclude string) (string, bool)
}

// Router turns an inbound frame into zero or more deliveries per a fixed
// table. Every event except cursor/typing/status is a pure relay: payload
// bytes pass through untouched and the server keeps no canonical copy
// (last-writer-wins by construction).
type Router struct {
	sessions sessions
	log      *utils.Logger
	onEvent  func(event string)
}

func NewRouter(s sessions, log *utils.Logger) *Router {
	return &Router{sessions: s, log: log}
}

// SetEventHook installs an observer called once per routed event kind.
func (r *Router) SetEventHook(fn func(event string)) { r.onEvent = fn }

// Route dispatches one inbound frame. Frames from connections with no bound
// User are dropped silently; so are unrecognized event kinds.
func (r *Router) Route(connID string, frame models.Frame) []Delivery {
	user, ok := r.sessions.Lookup(connID)
	if !ok {
		return nil
	}
	if r.onEvent != nil {
		r.onEvent(frame.Event)
	}

	switch frame.Event {
	case FileUpdated:
		// Full-document (or language-only) broadcast, sender included.
		return []Delivery{{Scope: ScopeRoom, Frame: frame}}

	case TypingStart:
		return []Delivery{{Scope: ScopeRoomOthers, Frame: augment(frame, "user", user)}}

	case TypingPause:
		user, _ = r.sessions.SetTyping(connID, false)
		return []Delivery{{Scope: ScopeRoomOthers, Frame: augment(frame, "user", user)}}

	case CursorMove:
		var move models.CursorMove
		if err := json.Unmarshal(frame.Payload, &move); err != nil {
			return nil
		}
		r.sessions.SetCursor(connID, move.CursorPosition, move.SelectionEnd)
		// The client protocol reuses user-joined as the roster refresh.
		refresh := models.NewFrame(UserJoined, models.UserJoined{Users: r.sessions.Roster(user.RoomID)})
		return []Delivery{{Scope: ScopeRoom, Frame: refresh}}

	case SendMessage:
		return []Delivery{{Scope: ScopeRoomOthers, Frame: models.Frame{Event: ReceiveMessage, Payload: frame.Payload}}}

	case UserOnline:
		user, _ = r.sessions.SetStatus(connID, models.StatusOnline)
		return []Delivery{{Scope: ScopeRoomOthers, Frame: models.NewFrame(UserOnline, models.UserEvent{User: user})}}

	case UserOffline:
		user, _ = r.sessions.SetStatus(connID, models.StatusOffline)
		return []Delivery{{Scope: ScopeRoomOthers, Frame: models.NewFrame(UserOffline, models.UserEvent{User: user})}}

	case DirectoryCreated, DirectoryUpdated, DirectoryRenamed, DirectoryDeleted,
		FileCreated, FileRenamed, FileDeleted:
		// File-tree state lives with the clients; pure relay.
		return []Delivery{{Scope: ScopeRoomOthers, Frame: frame}}

	case RequestDrawing:
		target, ok := r.sessions.DrawingHolder(user.RoomID)
		if !ok || target == connID {
			target, ok = r.sessions.FirstOther(user.RoomID, connID)
		}
		if !ok {
			return nil
		}
		req := models.NewFrame(RequestDrawing, models.RequestDrawing{SocketID: connID})
		return []Delivery{{Scope: ScopeTarget, Target: target, Frame: req}}

	case SyncDrawing:
		var sync models.SyncDrawing
		if err := json.Unmarshal(frame.Payload, &sync); err != nil || sync.SocketID == "" {
			return nil
		}
		resp := models.NewFrame(SyncDrawing, models.SyncDrawing{DrawingData: sync.DrawingData})
		return []Delivery{{Scope: ScopeTarget, Target: sync.SocketID, Frame: resp}}

	case DrawingUpdate:
		r.sessions.SetDrawingHolder(user.RoomID, connID)
		return []Delivery{{Scope: ScopeRoomOthers, Frame: frame}}

	case SyncFileStructure:
		target, rest, ok := extractTarget(frame.Payload)
		if !ok {
			return nil
		}
		return []Delivery{{Scope: ScopeTarget, Target: target, Frame: models.Frame{Event: SyncFileStructure, Payload: rest}}}

	case TerminalExecute, TerminalRunCommand, TerminalInput, TerminalStop:
		return []Delivery{{Scope: ScopeUpstream, Frame: frame}}
	}

	// Unrecognized event kinds are ignored.
	return nil
}

// augment adds one field to a raw payload. Relays that attach the sender's
// User use this so the client's own fields survive untouched.
func augment(frame models.Frame, key string, v any) models.Frame {
	fields := map[string]json.RawMessage{}
	if len(frame.Payload) > 0 {
		_ = json.Unmarshal(frame.Payload, &fields)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return frame
	}
	fields[key] = b
	payload, err := json.Marshal(fields)
	if err != nil {
		return frame
	}
	return models.Frame{Event: frame.Event, Payload: payload}
}

// extractTarget pulls socketId out of a payload and returns the remainder.
func extractTarget(payload json.RawMessage) (string, json.RawMessage, bool) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return "", nil, false
	}
	raw, ok := fields["socketId"]
	if !ok {
		return "", nil, false
	}
	var target string
	if err := json.Unmarshal(raw, &target); err != nil || target == "" {
		return "", nil, false
	}
	delete(fields, "socketId")
	rest, err := json.Marshal(fields)
	if err != nil {
		return "", nil, false
	}
	return target, rest, true
}
