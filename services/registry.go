// services/registry.go - Room lookup and code allocation.
package services

import (
	"crypto/rand"
	"sync"
)

const roomCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const roomCodeLength = 6

// Registry owns the live room table. Room internals are guarded by each
// room's own mutex; the registry lock only covers the table itself.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// CreateRoom allocates a code no live room is using and registers a fresh
// room under it.
func (r *Registry) CreateRoom() *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := generateRoomCode()
	for _, taken := r.rooms[code]; taken; _, taken = r.rooms[code] {
		code = generateRoomCode()
	}

	room := NewRoom(code)
	r.rooms[code] = room
	return room
}

func (r *Registry) Get(code string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[code]
	return room, ok
}

func (r *Registry) Has(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[code]
	return ok
}

func (r *Registry) Delete(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, code)
}

// Rooms returns a snapshot of the live rooms.
func (r *Registry) Rooms() []*Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// generateRoomCode builds a 6-character uppercase alphanumeric code.
func generateRoomCode() string {
	b := make([]byte, roomCodeLength)
	rand.Read(b)
	for i := range b {
		b[i] = roomCodeChars[int(b[i])%len(roomCodeChars)]
	}
	return string(b)
}
