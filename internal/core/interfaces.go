package core

import "github.com/dmelnik/pairpad/internal/domain"

// Frame is a raw outbound payload (encoded event).
type Frame []byte

// SessionID identifies one transport connection. A connection is a
// member of at most one room at a time.
type SessionID string

// SignalConnection abstracts the system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Publisher delivers outbound events, either to one connection or
// fanned out over a room. The session manager never touches transport
// resources directly.
type Publisher interface {
	ToSession(sid SessionID, v any)
	ToRoom(id domain.RoomID, v any)
	ToRoomExcept(id domain.RoomID, except SessionID, v any)
}

// RoomListItem is a read-only view for the REST surface.
type RoomListItem struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
	CreatedBy   string        `json:"created_by"`
}
