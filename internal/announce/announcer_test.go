package announce

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codesync/internal/utils"
)

func newTestAnnouncer(t *testing.T) (*Announcer, <-chan *redis.Message) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	sub := rdb.Subscribe(context.Background(), Channel)
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	return New(rdb, utils.NewLogger()), sub.Channel()
}

func receive(t *testing.T, ch <-chan *redis.Message) Event {
	t.Helper()
	select {
	case msg := <-ch:
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("no event published")
		return Event{}
	}
}

func TestJoinedRoomPublishes(t *testing.T) {
	a, ch := newTestAnnouncer(t)

	a.JoinedRoom("r1", "alice", 1)

	ev := receive(t, ch)
	assert.Equal(t, "user-joined", ev.Type)
	assert.Equal(t, "r1", ev.RoomID)
	assert.Equal(t, "alice", ev.Username)
	assert.Equal(t, 1, ev.Occupants)
	assert.False(t, ev.At.IsZero())
}

func TestLeftRoomPublishes(t *testing.T) {
	a, ch := newTestAnnouncer(t)

	a.LeftRoom("r1", "bob", 2)

	ev := receive(t, ch)
	assert.Equal(t, "user-left", ev.Type)
	assert.Equal(t, "bob", ev.Username)
	assert.Equal(t, 2, ev.Occupants)
}

func TestLastLeaverClosesRoom(t *testing.T) {
	a, ch := newTestAnnouncer(t)

	a.LeftRoom("r1", "alice", 0)

	left := receive(t, ch)
	assert.Equal(t, "user-left", left.Type)
	assert.Equal(t, 0, left.Occupants)

	closed := receive(t, ch)
	assert.Equal(t, "room-closed", closed.Type)
	assert.Equal(t, "r1", closed.RoomID)
	assert.Empty(t, closed.Username)
}

func TestPublishFailureDoesNotPanic(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	a := New(rdb, utils.NewLogger())
	mr.Close()
	rdb.Close()

	a.JoinedRoom("r1", "alice", 1)
}
