package domain

import "time"

type RoomID string

// Room is the unit of a session: a short-lived shared buffer with
// turn-based write access. Pure data, no transport or timer logic here.
type Room struct {
	ID        RoomID
	Members   []string // insertion order defines turn rotation order
	TurnIndex int
	Code      string
	CreatedBy string
	CreatedAt time.Time
	Active    bool
}

func NewRoom(id RoomID, creator string) *Room {
	return &Room{
		ID:        id,
		Members:   []string{creator},
		CreatedBy: creator,
		CreatedAt: time.Now(),
		Active:    true,
	}
}

func (r *Room) HasMember(name string) bool {
	for _, m := range r.Members {
		if m == name {
			return true
		}
	}
	return false
}

// CurrentEditor returns the member holding the turn, or "" for an
// empty room.
func (r *Room) CurrentEditor() string {
	if len(r.Members) == 0 {
		return ""
	}
	return r.Members[r.TurnIndex]
}

// RemoveMember deletes name from the member list, keeping order, and
// clamps TurnIndex back to 0 if the removal left it out of range.
// Returns false if name was not a member.
func (r *Room) RemoveMember(name string) bool {
	for i, m := range r.Members {
		if m == name {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			if r.TurnIndex >= len(r.Members) {
				r.TurnIndex = 0
			}
			return true
		}
	}
	return false
}

// AdvanceTurn rotates the turn to the next member in insertion order.
func (r *Room) AdvanceTurn() {
	if len(r.Members) == 0 {
		return
	}
	r.TurnIndex = (r.TurnIndex + 1) % len(r.Members)
}

// ExpiresAt is the absolute deadline fixed at creation.
func (r *Room) ExpiresAt(lifetime time.Duration) time.Time {
	return r.CreatedAt.Add(lifetime)
}

func (r *Room) Expired(lifetime time.Duration, now time.Time) bool {
	return now.After(r.ExpiresAt(lifetime))
}
