package session

import (
	"errors"
	"sync"

	"codesync/internal/events"
	"codesync/internal/models"
	"codesync/internal/utils"
)

var (
	ErrUsernameExists    = errors.New("username already exists in room")
	ErrUnknownConnection = errors.New("connection has no user")
)

// Notifier observes room membership changes. Occupants is the room size
// after the change.
type Notifier interface {
	JoinedRoom(roomID, username string, occupants int)
	LeftRoom(roomID, username string, occupants int)
}

// Coordinator owns the connection registry and room index. All join/leave
// lifecycle and all outbound delivery goes through it; no other component
// writes usernames or membership.
type Coordinator struct {
	mu        sync.Mutex
	registry  *Registry
	rooms     *Rooms
	clients   map[string]*Client
	notifiers []Notifier
	log       *utils.Logger
}

func NewCoordinator(log *utils.Logger, notifiers ...Notifier) *Coordinator {
	return &Coordinator{
		registry:  NewRegistry(),
		rooms:     NewRooms(),
		clients:   make(map[string]*Client),
		notifiers: notifiers,
		log:       log,
	}
}

// Attach registers the write side of a new connection. The connection is
// not in any room until Join succeeds.
func (c *Coordinator) Attach(client *Client) {
	c.mu.Lock()
	c.clients[client.ID] = client
	c.mu.Unlock()
}

// Join admits a connection into a room. On a duplicate username the join is
// refused with username-exists and no User record is created; the
// connection stays unbound and may retry.
func (c *Coordinator) Join(connID, roomID, username string) (models.User, []models.User, error) {
	c.mu.Lock()
	for _, u := range c.rosterLocked(roomID) {
		if u.Username == username {
			c.mu.Unlock()
			c.SendTo(connID, models.NewFrame(events.UsernameExists, struct{}{}))
			return models.User{}, nil, ErrUsernameExists
		}
	}

	user := models.User{
		Username: username,
		RoomID:   roomID,
		Status:   models.StatusOnline,
		SocketID: connID,
	}
	c.registry.Register(user)
	c.rooms.Add(roomID, connID)
	roster := c.rosterLocked(roomID)
	c.mu.Unlock()

	c.log.Info("user joined", "room", roomID, "username", username, "conn", connID)

	c.SendTo(connID, models.NewFrame(events.JoinAccepted, models.JoinAccepted{User: user, Users: roster}))
	c.Broadcast(roomID, models.NewFrame(events.UserJoined, models.UserJoined{User: &user, Users: roster}), connID)

	for _, n := range c.notifiers {
		n.JoinedRoom(roomID, username, len(roster))
	}
	return user, roster, nil
}

// Disconnect tears down a connection. If it was bound to a room, the rest
// of the room hears user-disconnected exactly once and the username slot is
// freed.
func (c *Coordinator) Disconnect(connID string) {
	c.mu.Lock()
	user, bound := c.registry.Remove(connID)
	var left int
	if bound {
		left = c.rooms.Remove(user.RoomID, connID)
	}
	client, attached := c.clients[connID]
	delete(c.clients, connID)
	c.mu.Unlock()

	if bound {
		c.Broadcast(user.RoomID, models.NewFrame(events.UserDisconnected, models.UserEvent{User: user}), connID)
		c.log.Info("user disconnected", "room", user.RoomID, "username", user.Username, "conn", connID)
		for _, n := range c.notifiers {
			n.LeftRoom(user.RoomID, user.Username, left)
		}
	}
	if attached {
		client.Close()
	}
}

// Lookup returns a copy of the User bound to connID.
func (c *Coordinator) Lookup(connID string) (models.User, bool) {
	return c.registry.Lookup(connID)
}

// Roster lists the room's Users in join order.
func (c *Coordinator) Roster(roomID string) []models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rosterLocked(roomID)
}

func (c *Coordinator) rosterLocked(roomID string) []models.User {
	ids := c.rooms.Members(roomID)
	roster := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := c.registry.Lookup(id); ok {
			roster = append(roster, u)
		}
	}
	return roster
}

// SendTo delivers a frame to a single connection, if it is still attached.
// Sends are fire-and-forget.
func (c *Coordinator) SendTo(connID string, frame models.Frame) {
	c.mu.Lock()
	client, ok := c.clients[connID]
	c.mu.Unlock()
	if ok {
		client.Send(frame)
	}
}

// Broadcast delivers a frame to every member of a room except exceptID
// (pass "" to include everyone).
func (c *Coordinator) Broadcast(roomID string, frame models.Frame, exceptID string) {
	ids := c.rooms.Members(roomID)
	c.mu.Lock()
	targets := make([]*Client, 0, len(ids))
	for _, id := range ids {
		if id == exceptID {
			continue
		}
		if client, ok := c.clients[id]; ok {
			targets = append(targets, client)
		}
	}
	c.mu.Unlock()
	for _, client := range targets {
		client.Send(frame)
	}
}

// FirstOther exposes the room index's deterministic fallback target.
func (c *Coordinator) FirstOther(roomID, exclude string) (string, bool) {
	return c.rooms.FirstOther(roomID, exclude)
}

func (c *Coordinator) DrawingHolder(roomID string) (string, bool) {
	return c.rooms.DrawingHolder(roomID)
}

func (c *Coordinator) SetDrawingHolder(roomID, connID string) {
	c.rooms.SetDrawingHolder(roomID, connID)
}
