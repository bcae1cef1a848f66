package app

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmelnik/pairpad/internal/core"
	"github.com/dmelnik/pairpad/internal/domain"
)

type fakeConn struct{}

func (fakeConn) TrySend(core.Frame) error { return nil }
func (fakeConn) Close()                   {}

type recorded struct {
	target string // "session", "room", "room_except"
	sid    core.SessionID
	room   domain.RoomID
	except core.SessionID
	event  any
}

// recordingPub captures manager fan-out for assertions. Safe for use
// from timer goroutines.
type recordingPub struct {
	mu     sync.Mutex
	events []recorded
}

func (p *recordingPub) ToSession(sid core.SessionID, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recorded{target: "session", sid: sid, event: v})
}

func (p *recordingPub) ToRoom(id domain.RoomID, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recorded{target: "room", room: id, event: v})
}

func (p *recordingPub) ToRoomExcept(id domain.RoomID, except core.SessionID, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recorded{target: "room_except", room: id, except: except, event: v})
}

func (p *recordingPub) snapshot() []recorded {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recorded(nil), p.events...)
}

func (p *recordingPub) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func (p *recordingPub) lastOfType(eventType string) (recorded, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if typeOf(p.events[i].event) == eventType {
			return p.events[i], true
		}
	}
	return recorded{}, false
}

func typeOf(v any) string {
	switch e := v.(type) {
	case core.ErrorEvent:
		return e.Type
	case core.RoomCreatedEvent:
		return e.Type
	case core.JoinedRoomEvent:
		return e.Type
	case core.RoomInfoEvent:
		return e.Type
	case core.RoomUpdateEvent:
		return e.Type
	case core.CodeUpdateEvent:
		return e.Type
	case core.RoomExpiredEvent:
		return e.Type
	default:
		return ""
	}
}

func testConfig() Config {
	return Config{
		RoomDuration:  time.Hour,
		TurnDuration:  time.Hour,
		MaxUsers:      2,
		SweepInterval: time.Hour,
	}
}

func newTestManager(t *testing.T, cfg Config, sids ...core.SessionID) (*Manager, *recordingPub) {
	t.Helper()
	conns := NewConnRegistry()
	for _, sid := range sids {
		conns.Bind(sid, fakeConn{}, nil)
	}
	pub := &recordingPub{}
	return NewManager(cfg, conns, pub), pub
}

func TestCreateRoom(t *testing.T) {
	m, pub := newTestManager(t, testConfig(), "s1")

	id, err := m.CreateRoom("s1", " Alice ")
	require.NoError(t, err)
	assert.Len(t, string(id), core.RoomIDLength)

	room, ok := m.rooms.Get(id)
	require.True(t, ok)
	assert.Equal(t, []string{"Alice"}, room.Members)
	assert.True(t, room.Active)

	created, ok := pub.lastOfType(core.EventRoomCreated)
	require.True(t, ok)
	assert.Equal(t, "session", created.target)
	assert.Equal(t, core.SessionID("s1"), created.sid)
	assert.Equal(t, "Alice", created.event.(core.RoomCreatedEvent).Creator)
}

func TestCreateRoomInvalidName(t *testing.T) {
	m, pub := newTestManager(t, testConfig(), "s1")

	_, err := m.CreateRoom("s1", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidName)
	assert.Equal(t, 0, m.rooms.Len())
	assert.Equal(t, 0, pub.count())
}

func TestJoinArmsTurnTimerAtCapacity(t *testing.T) {
	m, pub := newTestManager(t, testConfig(), "s1", "s2")

	id, err := m.CreateRoom("s1", "Alice")
	require.NoError(t, err)
	assert.False(t, m.sched.TurnArmed(id))

	require.NoError(t, m.Join("s2", id, "Bob"))
	assert.True(t, m.sched.TurnArmed(id))

	joined, ok := pub.lastOfType(core.EventJoinedRoom)
	require.True(t, ok)
	assert.Equal(t, []string{"Alice", "Bob"}, joined.event.(core.JoinedRoomEvent).Users)

	update, ok := pub.lastOfType(core.EventRoomUpdate)
	require.True(t, ok)
	assert.Equal(t, "room", update.target)
	assert.Equal(t, "Alice", update.event.(core.RoomUpdateEvent).CurrentPlayer)
}

func TestJoinUnknownRoom(t *testing.T) {
	m, _ := newTestManager(t, testConfig(), "s1")
	err := m.Join("s1", "nosuch", "Bob")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestJoinFullRoomNeverMutatesMembership(t *testing.T) {
	m, _ := newTestManager(t, testConfig(), "s1", "s2", "s3")

	id, _ := m.CreateRoom("s1", "Alice")
	require.NoError(t, m.Join("s2", id, "Bob"))

	err := m.Join("s3", id, "Carol")
	assert.ErrorIs(t, err, domain.ErrRoomFull)

	room, _ := m.rooms.Get(id)
	assert.Equal(t, []string{"Alice", "Bob"}, room.Members)
	_, _, bound := m.conns.RoomOf("s3")
	assert.False(t, bound)
}

func TestJoinNameTaken(t *testing.T) {
	m, _ := newTestManager(t, testConfig(), "s1", "s2")

	id, _ := m.CreateRoom("s1", "Alice")

	// Covers the reconnect-after-drop case too: a fresh connection
	// presenting the same name is rejected.
	err := m.Join("s2", id, "Alice")
	assert.ErrorIs(t, err, domain.ErrNameTaken)

	room, _ := m.rooms.Get(id)
	assert.Equal(t, []string{"Alice"}, room.Members)
}

func TestCrossRoomJoinForceLeavesPriorRoom(t *testing.T) {
	m, _ := newTestManager(t, testConfig(), "s1", "s2")

	first, _ := m.CreateRoom("s1", "Alice")
	second, _ := m.CreateRoom("s2", "Bob")

	require.NoError(t, m.Join("s1", second, "Alice"))

	// s1's old room emptied and was torn down immediately.
	_, ok := m.rooms.Get(first)
	assert.False(t, ok)

	room, ok := m.rooms.Get(second)
	require.True(t, ok)
	assert.Equal(t, []string{"Bob", "Alice"}, room.Members)

	boundRoom, name, bound := m.conns.RoomOf("s1")
	require.True(t, bound)
	assert.Equal(t, second, boundRoom)
	assert.Equal(t, "Alice", name)
}

func TestFailedJoinKeepsPriorMembership(t *testing.T) {
	m, _ := newTestManager(t, testConfig(), "s1", "s2", "s3")

	first, _ := m.CreateRoom("s1", "Alice")
	second, _ := m.CreateRoom("s2", "Bob")
	require.NoError(t, m.Join("s3", second, "Carol"))

	err := m.Join("s1", second, "Alice")
	assert.ErrorIs(t, err, domain.ErrRoomFull)

	room, ok := m.rooms.Get(first)
	require.True(t, ok)
	assert.Equal(t, []string{"Alice"}, room.Members)
}

func TestCodeChangeAuthorization(t *testing.T) {
	m, pub := newTestManager(t, testConfig(), "s1", "s2")

	id, _ := m.CreateRoom("s1", "Alice")
	require.NoError(t, m.Join("s2", id, "Bob"))

	// Alice holds turn 0 and may edit.
	require.NoError(t, m.CodeChange("s1", id, "package main"))
	room, _ := m.rooms.Get(id)
	assert.Equal(t, "package main", room.Code)

	update, ok := pub.lastOfType(core.EventCodeUpdate)
	require.True(t, ok)
	assert.Equal(t, "room_except", update.target)
	assert.Equal(t, core.SessionID("s1"), update.except)

	// Bob does not hold the turn; buffer must stay put.
	err := m.CodeChange("s2", id, "haxx")
	assert.ErrorIs(t, err, domain.ErrNotYourTurn)
	assert.Equal(t, "package main", room.Code)
}

func TestCodeChangeUnknownRoomIsSilentNoop(t *testing.T) {
	m, pub := newTestManager(t, testConfig(), "s1")
	before := pub.count()
	assert.NoError(t, m.CodeChange("s1", "nosuch", "code"))
	assert.Equal(t, before, pub.count())
}

func TestTurnRotationIsCyclic(t *testing.T) {
	cfg := testConfig()
	cfg.TurnDuration = 30 * time.Millisecond
	m, _ := newTestManager(t, cfg, "s1", "s2")

	id, _ := m.CreateRoom("s1", "Alice")
	require.NoError(t, m.Join("s2", id, "Bob"))

	editor := func() string {
		m.mu.Lock()
		defer m.mu.Unlock()
		room, ok := m.rooms.Get(id)
		if !ok {
			return ""
		}
		return room.CurrentEditor()
	}

	require.Equal(t, "Alice", editor())

	assert.Eventually(t, func() bool { return editor() == "Bob" },
		time.Second, 5*time.Millisecond, "first tick should hand the turn to Bob")

	// After the tick Bob can edit.
	require.NoError(t, m.CodeChange("s2", id, "bob was here"))

	assert.Eventually(t, func() bool { return editor() == "Alice" },
		time.Second, 5*time.Millisecond, "rotation is cyclic: A -> B -> A")
}

func TestLeaveBelowCapacityDisarmsTurnTimer(t *testing.T) {
	m, _ := newTestManager(t, testConfig(), "s1", "s2")

	id, _ := m.CreateRoom("s1", "Alice")
	require.NoError(t, m.Join("s2", id, "Bob"))
	require.True(t, m.sched.TurnArmed(id))

	m.Leave("s2")
	assert.False(t, m.sched.TurnArmed(id))

	room, ok := m.rooms.Get(id)
	require.True(t, ok)
	assert.Equal(t, []string{"Alice"}, room.Members)
	assert.Equal(t, 0, room.TurnIndex)
}

func TestLeaveIsIdempotent(t *testing.T) {
	m, pub := newTestManager(t, testConfig(), "s1", "s2")

	id, _ := m.CreateRoom("s1", "Alice")
	require.NoError(t, m.Join("s2", id, "Bob"))

	m.Leave("s2")
	before := pub.count()

	// Duplicate disconnect events and unknown connections are no-ops.
	m.Leave("s2")
	m.Leave("ghost")
	assert.Equal(t, before, pub.count())
}

func TestBothLeaveTearsDownImmediately(t *testing.T) {
	cfg := testConfig()
	cfg.TurnDuration = 20 * time.Millisecond
	cfg.RoomDuration = 40 * time.Millisecond
	m, pub := newTestManager(t, cfg, "s1", "s2")

	id, _ := m.CreateRoom("s1", "Alice")
	require.NoError(t, m.Join("s2", id, "Bob"))

	m.Leave("s1")
	m.Leave("s2")

	_, ok := m.rooms.Get(id)
	assert.False(t, ok, "room removed immediately, not on the lifetime timer")

	// No stray timer fire afterwards: if a canceled timer still fired
	// it would publish room_expired or room_update.
	before := pub.count()
	time.Sleep(3 * cfg.RoomDuration)
	assert.Equal(t, before, pub.count())
	_, expired := pub.lastOfType(core.EventRoomExpired)
	assert.False(t, expired)
}

func TestRoomLifetimeExpiry(t *testing.T) {
	cfg := testConfig()
	cfg.RoomDuration = 40 * time.Millisecond
	m, pub := newTestManager(t, cfg, "s1")

	id, _ := m.CreateRoom("s1", "Alice")

	assert.Eventually(t, func() bool {
		_, ok := m.rooms.Get(id)
		return !ok
	}, time.Second, 5*time.Millisecond)

	expired, ok := pub.lastOfType(core.EventRoomExpired)
	require.True(t, ok)
	assert.Equal(t, "room", expired.target)
	assert.Equal(t, id, expired.room)

	_, err := m.Info(id)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestInfoSnapshot(t *testing.T) {
	m, _ := newTestManager(t, testConfig(), "s1", "s2")

	id, _ := m.CreateRoom("s1", "Alice")
	require.NoError(t, m.Join("s2", id, "Bob"))

	info, err := m.Info(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, info.Users)
	assert.Equal(t, 2, info.UserCount)
	assert.Equal(t, 2, info.MaxUsers)
	assert.Equal(t, "Alice", info.CreatedBy)
	assert.True(t, info.IsActive)
}

func TestSweepRemovesExpiredRooms(t *testing.T) {
	m, pub := newTestManager(t, testConfig(), "s1")

	id, _ := m.CreateRoom("s1", "Alice")
	room, _ := m.rooms.Get(id)
	room.CreatedAt = time.Now().Add(-2 * time.Hour)

	m.Sweep()

	_, ok := m.rooms.Get(id)
	assert.False(t, ok)
	_, expired := pub.lastOfType(core.EventRoomExpired)
	assert.True(t, expired)
}

func TestSweepRemovesEmptyRooms(t *testing.T) {
	m, pub := newTestManager(t, testConfig(), "s1")

	id, _ := m.CreateRoom("s1", "Alice")
	room, _ := m.rooms.Get(id)
	room.Members = nil

	m.Sweep()

	_, ok := m.rooms.Get(id)
	assert.False(t, ok)
	_, expired := pub.lastOfType(core.EventRoomExpired)
	assert.False(t, expired, "empty-room sweep is silent, nobody is left to notify")
}

func TestSweepLeavesHealthyRoomsAlone(t *testing.T) {
	m, _ := newTestManager(t, testConfig(), "s1")
	id, _ := m.CreateRoom("s1", "Alice")

	m.Sweep()

	_, ok := m.rooms.Get(id)
	assert.True(t, ok)
}

func TestTeardownIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t, testConfig(), "s1")
	id, _ := m.CreateRoom("s1", "Alice")

	m.mu.Lock()
	m.teardownLocked(id, true)
	m.teardownLocked(id, true)
	m.mu.Unlock()

	_, ok := m.rooms.Get(id)
	assert.False(t, ok)
}
