package announce

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"codesync/internal/utils"
)

// Channel is the pub/sub channel room lifecycle events are published to.
const Channel = "codesync:rooms"

const publishTimeout = 2 * time.Second

// Event mirrors one room membership change for external observers (ops
// dashboards, occupancy monitors). Nothing is stored; this is pub/sub only.
type Event struct {
	Type      string    `json:"type"` // "user-joined", "user-left", "room-closed"
	RoomID    string    `json:"roomId"`
	Username  string    `json:"username,omitempty"`
	Occupants int       `json:"occupants"`
	At        time.Time `json:"at"`
}

// Announcer publishes room lifecycle events to Redis. It implements
// session.Notifier.
type Announcer struct {
	rdb *redis.Client
	log *utils.Logger
}

func New(rdb *redis.Client, log *utils.Logger) *Announcer {
	return &Announcer{rdb: rdb, log: log}
}

func (a *Announcer) JoinedRoom(roomID, username string, occupants int) {
	a.publish(Event{Type: "user-joined", RoomID: roomID, Username: username, Occupants: occupants, At: time.Now()})
}

func (a *Announcer) LeftRoom(roomID, username string, occupants int) {
	a.publish(Event{Type: "user-left", RoomID: roomID, Username: username, Occupants: occupants, At: time.Now()})
	if occupants == 0 {
		a.publish(Event{Type: "room-closed", RoomID: roomID, At: time.Now()})
	}
}

func (a *Announcer) publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := a.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		a.log.Warn("room event publish failed", "type", ev.Type, "room", ev.RoomID, "error", err.Error())
	}
}
