package session

import (
	"sync"

	"codesync/internal/models"
)

// Registry maps a connection id to the User bound to it. It is the only
// holder of User records; callers get copies, mutation goes through Update.
type Registry struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[string]*models.User)}
}

func (r *Registry) Register(u models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := u
	r.users[u.SocketID] = &clone
}

func (r *Registry) Lookup(connID string) (models.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[connID]
	if !ok {
		return models.User{}, false
	}
	return *u, true
}

// Update applies fn to the record under the registry lock and returns the
// resulting copy. Each connection delivers one event at a time, so fn never
// races with another mutation of the same record.
func (r *Registry) Update(connID string, fn func(*models.User)) (models.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[connID]
	if !ok {
		return models.User{}, false
	}
	fn(u)
	return *u, true
}

func (r *Registry) Remove(connID string) (models.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[connID]
	if !ok {
		return models.User{}, false
	}
	delete(r.users, connID)
	return *u, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
