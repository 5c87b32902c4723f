package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"codesync/internal/events"
	"codesync/internal/exec"
	"codesync/internal/models"
	"codesync/internal/session"
	"codesync/internal/utils"
)

const (
	maxMessageSize = 1 << 20
	pongWait       = 60 * time.Second
)

type Handlers struct {
	log      *utils.Logger
	sessions *session.Coordinator
	router   *events.Router
	exec     exec.Executor
}

func NewHandlers(log *utils.Logger, sessions *session.Coordinator, router *events.Router, executor exec.Executor) *Handlers {
	return &Handlers{log: log, sessions: sessions, router: router, exec: executor}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// RoomUsers returns the current roster of a room.
func (h *Handlers) RoomUsers(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	writeJSON(w, h.sessions.Roster(roomID))
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// SessionWS is the room transport endpoint: one persistent full-duplex
// connection per client.
func (h *Handlers) SessionWS(w http.ResponseWriter, r *http.Request) {
	var claims *utils.RoomTokenClaims
	if utils.JWTEnabled() {
		token := r.URL.Query().Get("token")
		parsed, err := utils.ValidateRoomToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		claims = parsed
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := session.NewClient(uuid.NewString(), conn)
	h.sessions.Attach(client)
	go client.WritePump()

	h.readLoop(client, conn, claims)
}

// readLoop serializes one connection's inbound events. Exiting it is the
// only cancellation primitive: anything routed before disconnect is still
// delivered, then cleanup runs once.
func (h *Handlers) readLoop(client *session.Client, conn *websocket.Conn, claims *utils.RoomTokenClaims) {
	defer func() {
		h.exec.StopAll(client.ID)
		h.sessions.Disconnect(client.ID)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame models.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		h.handleFrame(client.ID, claims, frame)
	}
}

func (h *Handlers) handleFrame(connID string, claims *utils.RoomTokenClaims, frame models.Frame) {
	if frame.Event == events.JoinRequest {
		var req models.JoinRequest
		if err := json.Unmarshal(frame.Payload, &req); err != nil || req.RoomID == "" || req.Username == "" {
			return
		}
		if _, bound := h.sessions.Lookup(connID); bound {
			// A connection belongs to at most one room; re-joins need a
			// reconnect.
			return
		}
		if claims != nil && claims.RoomID != req.RoomID {
			h.log.Warn("room token mismatch", "conn", connID, "room", req.RoomID)
			return
		}
		_, _, _ = h.sessions.Join(connID, req.RoomID, req.Username)
		return
	}

	for _, d := range h.router.Route(connID, frame) {
		h.apply(connID, d)
	}
}

func (h *Handlers) apply(senderID string, d events.Delivery) {
	switch d.Scope {
	case events.ScopeSender:
		h.sessions.SendTo(senderID, d.Frame)
	case events.ScopeRoom:
		if user, ok := h.sessions.Lookup(senderID); ok {
			h.sessions.Broadcast(user.RoomID, d.Frame, "")
		}
	case events.ScopeRoomOthers:
		if user, ok := h.sessions.Lookup(senderID); ok {
			h.sessions.Broadcast(user.RoomID, d.Frame, senderID)
		}
	case events.ScopeTarget:
		h.sessions.SendTo(d.Target, d.Frame)
	case events.ScopeUpstream:
		h.forwardTerminal(senderID, d.Frame)
	}
}

// forwardTerminal hands terminal events to the process-execution
// collaborator, keyed by (roomId, connectionId). Collaborator output comes
// back through the emitters wired at startup.
func (h *Handlers) forwardTerminal(senderID string, frame models.Frame) {
	user, ok := h.sessions.Lookup(senderID)
	if !ok {
		return
	}
	key := exec.Key{RoomID: user.RoomID, ConnID: senderID}

	var cmd models.TerminalCommand
	if len(frame.Payload) > 0 {
		_ = json.Unmarshal(frame.Payload, &cmd)
	}

	switch frame.Event {
	case events.TerminalRunCommand:
		go h.exec.Run(key, cmd.Command)
	case events.TerminalExecute:
		go h.exec.Execute(key, cmd.Command)
	case events.TerminalInput:
		go h.exec.Input(key, cmd.Input)
	case events.TerminalStop:
		go h.exec.Stop(key)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
