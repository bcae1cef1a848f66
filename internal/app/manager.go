package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dmelnik/pairpad/internal/core"
	"github.com/dmelnik/pairpad/internal/domain"
)

// Config carries the session limits. Defaults match the product
// constants; tests shrink the durations.
type Config struct {
	RoomDuration  time.Duration
	TurnDuration  time.Duration
	MaxUsers      int
	SweepInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		RoomDuration:  30 * time.Minute,
		TurnDuration:  5 * time.Minute,
		MaxUsers:      2,
		SweepInterval: 5 * time.Minute,
	}
}

// Manager is the session facade: every public operation, every timer
// callback and the sweep body runs under its single mutex, so no two
// mutations of the same room ever interleave. It owns the room
// registry and the timer scheduler; outbound events go through the
// injected Publisher.
type Manager struct {
	mu    sync.Mutex
	cfg   Config
	rooms *core.RoomRegistry
	conns *ConnRegistry
	sched *core.Scheduler
	pub   core.Publisher
}

func NewManager(cfg Config, conns *ConnRegistry, pub core.Publisher) *Manager {
	return &Manager{
		cfg:   cfg,
		rooms: core.NewRoomRegistry(),
		conns: conns,
		sched: core.NewScheduler(),
		pub:   pub,
	}
}

// Rooms exposes the read-only registry surface for the REST API.
func (m *Manager) Rooms() *core.RoomRegistry { return m.rooms }

// CreateRoom allocates a room with the caller as sole member and arms
// the lifetime timer. A connection already in another room is removed
// from it first.
func (m *Manager) CreateRoom(sid core.SessionID, rawName string) (domain.RoomID, error) {
	name, err := domain.ValidateUsername(rawName)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.leaveLocked(sid)

	room := m.rooms.Create(name)
	m.conns.SetMembership(sid, room.ID, name)
	m.sched.ArmRoom(room.ID, m.cfg.RoomDuration, m.onRoomExpire)

	m.pub.ToSession(sid, core.RoomCreatedEvent{
		Type:    core.EventRoomCreated,
		Room:    room.ID,
		Message: fmt.Sprintf("Room %s created. Share the code with your partner.", room.ID),
		Creator: name,
	})
	return room.ID, nil
}

// Join adds the caller to an existing room. Validation runs before the
// caller is removed from any prior room, so a failed join leaves the
// old membership untouched. Reaching capacity arms the turn timer,
// once.
func (m *Manager) Join(sid core.SessionID, id domain.RoomID, rawName string) error {
	name, err := domain.ValidateUsername(rawName)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms.Get(id)
	if !ok {
		return domain.ErrRoomNotFound
	}
	if len(room.Members) >= m.cfg.MaxUsers {
		return domain.ErrRoomFull
	}
	if room.HasMember(name) {
		return domain.ErrNameTaken
	}

	// One room per connection: drop any prior membership now that the
	// join is known to succeed. The prior room may be this one (under
	// another name) and may tear down when it empties, so re-fetch.
	m.leaveLocked(sid)
	room, ok = m.rooms.Get(id)
	if !ok {
		return domain.ErrRoomNotFound
	}

	room.Members = append(room.Members, name)
	m.conns.SetMembership(sid, id, name)
	log.Info().Str("module", "app.manager").Str("sid", string(sid)).Str("room", string(id)).Str("name", name).Msg("joined room")

	if len(room.Members) == m.cfg.MaxUsers && !m.sched.TurnArmed(id) {
		m.sched.ArmTurn(id, m.cfg.TurnDuration, m.onTurnTick)
	}

	m.pub.ToSession(sid, core.JoinedRoomEvent{
		Type:    core.EventJoinedRoom,
		Room:    id,
		Message: fmt.Sprintf("Joined room %s.", id),
		Users:   append([]string(nil), room.Members...),
	})
	m.broadcastUpdateLocked(room)
	return nil
}

// Info returns a point-in-time snapshot for one room.
func (m *Manager) Info(id domain.RoomID) (core.RoomInfoEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms.Get(id)
	if !ok {
		return core.RoomInfoEvent{}, domain.ErrRoomNotFound
	}
	return core.RoomInfoEvent{
		Type:      core.EventRoomInfo,
		Room:      id,
		Users:     append([]string(nil), room.Members...),
		UserCount: len(room.Members),
		MaxUsers:  m.cfg.MaxUsers,
		CreatedBy: room.CreatedBy,
		StartTime: room.CreatedAt,
		IsActive:  room.Active,
	}, nil
}

// CodeChange replaces the shared buffer if the caller holds the turn
// and fans the new content out to everyone else in the room. An
// unknown room is a silent no-op (stale edits racing a teardown).
func (m *Manager) CodeChange(sid core.SessionID, id domain.RoomID, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms.Get(id)
	if !ok {
		return nil
	}
	boundRoom, name, bound := m.conns.RoomOf(sid)
	if !bound || boundRoom != id || room.CurrentEditor() != name {
		return domain.ErrNotYourTurn
	}

	room.Code = code
	m.pub.ToRoomExcept(id, sid, core.CodeUpdateEvent{Type: core.EventCodeUpdate, Code: code})
	return nil
}

// Leave removes the caller from its room, if any. Idempotent: unknown
// connections and repeated disconnect events are no-ops.
func (m *Manager) Leave(sid core.SessionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked(sid)
}

func (m *Manager) leaveLocked(sid core.SessionID) {
	id, name, ok := m.conns.RoomOf(sid)
	if !ok {
		return
	}
	m.conns.ClearMembership(sid)

	room, ok := m.rooms.Get(id)
	if !ok {
		return
	}
	if !room.RemoveMember(name) {
		return
	}
	log.Info().Str("module", "app.manager").Str("sid", string(sid)).Str("room", string(id)).Str("name", name).Msg("left room")

	if len(room.Members) == 0 {
		m.teardownLocked(id, false)
		return
	}
	if len(room.Members) < m.cfg.MaxUsers {
		m.sched.CancelTurn(id)
	}
	m.broadcastUpdateLocked(room)
}

// teardownLocked cancels both timers, drops connection associations
// and removes the room. Idempotent: the sweep and the lifetime timer
// can both reach it for the same room.
func (m *Manager) teardownLocked(id domain.RoomID, expired bool) {
	room, ok := m.rooms.Get(id)
	if !ok {
		return
	}
	room.Active = false
	if expired {
		m.pub.ToRoom(id, core.RoomExpiredEvent{
			Type:    core.EventRoomExpired,
			Message: "Session expired. Thanks for pairing!",
		})
	}
	m.sched.CancelAll(id)
	m.conns.ClearRoom(id)
	m.rooms.Remove(id)
	log.Info().Str("module", "app.manager").Str("room", string(id)).Bool("expired", expired).Msg("room torn down")
}

// onRoomExpire fires from the lifetime timer. The room is re-fetched
// by ID: a fire racing a teardown finds nothing and stops.
func (m *Manager) onRoomExpire(id domain.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms.Get(id); !ok {
		return
	}
	m.teardownLocked(id, true)
}

// onTurnTick advances the rotation and rearms. Fires only matter for a
// live, full, active room; anything else leaves the timer dormant.
func (m *Manager) onTurnTick(id domain.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms.Get(id)
	if !ok || !room.Active {
		return
	}
	if len(room.Members) < m.cfg.MaxUsers {
		return
	}
	room.AdvanceTurn()
	m.sched.ArmTurn(id, m.cfg.TurnDuration, m.onTurnTick)
	m.broadcastUpdateLocked(room)
}

// Sweep tears down every room past its lifetime or left without
// members. Second line of defense behind the per-room timers.
func (m *Manager) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, id := range m.rooms.IDs() {
		room, ok := m.rooms.Get(id)
		if !ok {
			continue
		}
		switch {
		case len(room.Members) == 0:
			m.teardownLocked(id, false)
		case room.Expired(m.cfg.RoomDuration, now):
			m.teardownLocked(id, true)
		}
	}
}

func (m *Manager) broadcastUpdateLocked(room *domain.Room) {
	m.pub.ToRoom(room.ID, core.RoomUpdateEvent{
		Type:          core.EventRoomUpdate,
		Room:          room.ID,
		Users:         append([]string(nil), room.Members...),
		CurrentTurn:   room.TurnIndex,
		CurrentPlayer: room.CurrentEditor(),
		Code:          room.Code,
		TimeRemaining: m.sched.Remaining(room.ID),
	})
}
