package session

import "sync"

// Rooms is the explicit room -> member index. Membership is kept in join
// order so rosters are stable across broadcasts. It also remembers which
// member most recently pushed drawing state for each room.
type Rooms struct {
	mu            sync.RWMutex
	members       map[string][]string
	drawingHolder map[string]string
}

func NewRooms() *Rooms {
	return &Rooms{
		members:       make(map[string][]string),
		drawingHolder: make(map[string]string),
	}
}

func (r *Rooms) Add(roomID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[roomID] = append(r.members[roomID], connID)
}

// Remove detaches a connection from its room and returns the number of
// members left. An empty room is dropped along with its holder bookkeeping.
func (r *Rooms) Remove(roomID, connID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.members[roomID]
	for i, id := range ids {
		if id == connID {
			r.members[roomID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if r.drawingHolder[roomID] == connID {
		delete(r.drawingHolder, roomID)
	}
	left := len(r.members[roomID])
	if left == 0 {
		delete(r.members, roomID)
		delete(r.drawingHolder, roomID)
	}
	return left
}

func (r *Rooms) Members(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.members[roomID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// FirstOther returns the earliest-joined member other than exclude.
func (r *Rooms) FirstOther(roomID, exclude string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.members[roomID] {
		if id != exclude {
			return id, true
		}
	}
	return "", false
}

func (r *Rooms) Contains(roomID, connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.members[roomID] {
		if id == connID {
			return true
		}
	}
	return false
}

func (r *Rooms) SetDrawingHolder(roomID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drawingHolder[roomID] = connID
}

func (r *Rooms) DrawingHolder(roomID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.drawingHolder[roomID]
	return id, ok
}

func (r *Rooms) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
