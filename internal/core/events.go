package core

import (
	"time"

	"github.com/dmelnik/pairpad/internal/domain"
)

// Outbound event types on the wire envelope.
const (
	EventError       = "error"
	EventRoomCreated = "room_created"
	EventJoinedRoom  = "joined_room"
	EventRoomInfo    = "room_info"
	EventRoomUpdate  = "room_update"
	EventCodeUpdate  = "code_update"
	EventRoomExpired = "room_expired"
	EventPong        = "pong"
)

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorEvent(msg string) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: msg}
}

type RoomCreatedEvent struct {
	Type    string        `json:"type"`
	Room    domain.RoomID `json:"room"`
	Message string        `json:"message"`
	Creator string        `json:"creator"`
}

type JoinedRoomEvent struct {
	Type    string        `json:"type"`
	Room    domain.RoomID `json:"room"`
	Message string        `json:"message"`
	Users   []string      `json:"users"`
}

type RoomInfoEvent struct {
	Type      string        `json:"type"`
	Room      domain.RoomID `json:"room"`
	Users     []string      `json:"users"`
	UserCount int           `json:"user_count"`
	MaxUsers  int           `json:"max_users"`
	CreatedBy string        `json:"created_by"`
	StartTime time.Time     `json:"start_time"`
	IsActive  bool          `json:"is_active"`
}

// TimeRemaining carries whole seconds until the room and turn
// deadlines. Turn is 0 while the turn timer is dormant.
type TimeRemaining struct {
	Room int64 `json:"room"`
	Turn int64 `json:"turn"`
}

type RoomUpdateEvent struct {
	Type          string        `json:"type"`
	Room          domain.RoomID `json:"room"`
	Users         []string      `json:"users"`
	CurrentTurn   int           `json:"current_turn"`
	CurrentPlayer string        `json:"current_player"`
	Code          string        `json:"code"`
	TimeRemaining TimeRemaining `json:"time_remaining"`
}

type CodeUpdateEvent struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

type RoomExpiredEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type PongEvent struct {
	Type string `json:"type"`
}
