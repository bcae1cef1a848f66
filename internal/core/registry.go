package core

import (
	"math/rand"
	"sync"

	"github.com/dmelnik/pairpad/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	RoomIDLength   = 6
)

// RoomRegistry owns the mapping from room ID to live Room. IDs are
// guaranteed unique among registered rooms by a retry loop, not by
// probability alone.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*domain.Room
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[domain.RoomID]*domain.Room)}
}

func randomRoomID() domain.RoomID {
	b := make([]byte, RoomIDLength)
	for i := range b {
		b[i] = roomIDAlphabet[rand.Intn(len(roomIDAlphabet))]
	}
	return domain.RoomID(b)
}

// Create allocates a fresh collision-free ID and registers a new room
// with creator as its sole member. The room is fully constructed before
// it becomes visible to any other caller.
func (r *RoomRegistry) Create(creator string) *domain.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	var id domain.RoomID
	for {
		id = randomRoomID()
		if _, taken := r.rooms[id]; !taken {
			break
		}
	}
	room := domain.NewRoom(id, creator)
	r.rooms[id] = room
	log.Info().Str("module", "core.registry").Str("room", string(id)).Str("creator", creator).Msg("room created")
	return room
}

func (r *RoomRegistry) Get(id domain.RoomID) (*domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

func (r *RoomRegistry) Remove(id domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, id)
	log.Info().Str("module", "core.registry").Str("room", string(id)).Msg("room removed")
}

func (r *RoomRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// IDs returns a snapshot of registered room IDs, for the sweep.
func (r *RoomRegistry) IDs() []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.RoomID, 0, len(r.rooms))
	for id := range r.rooms {
		out = append(out, id)
	}
	return out
}

// List returns read-only views of every registered room.
func (r *RoomRegistry) List() []RoomListItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomListItem, 0, len(r.rooms))
	for id, room := range r.rooms {
		out = append(out, RoomListItem{ID: id, MemberCount: len(room.Members), CreatedBy: room.CreatedBy})
	}
	return out
}
