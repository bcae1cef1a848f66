package core

import (
	"sync"
	"time"

	"github.com/dmelnik/pairpad/internal/domain"
)

// slot is one cancelable delayed action. Zero value is dormant.
type slot struct {
	timer    *time.Timer
	deadline time.Time
}

func (s *slot) arm(d time.Duration, fn func()) {
	s.cancel()
	s.timer = time.AfterFunc(d, fn)
	s.deadline = time.Now().Add(d)
}

// cancel is a safe no-op on a dormant or already-fired slot.
func (s *slot) cancel() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.deadline = time.Time{}
}

func (s *slot) armed() bool { return s.timer != nil }

func (s *slot) remaining(now time.Time) time.Duration {
	if s.timer == nil {
		return 0
	}
	if d := s.deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

type roomTimers struct {
	room slot // lifetime, armed once at creation
	turn slot // rotation, armed only at full capacity
}

// Scheduler manages the two independent countdown timers of each room.
// Callbacks receive only the room ID: the owner must re-fetch the room
// and check liveness at fire time, never act on a captured pointer.
type Scheduler struct {
	mu    sync.Mutex
	slots map[domain.RoomID]*roomTimers
}

func NewScheduler() *Scheduler {
	return &Scheduler{slots: make(map[domain.RoomID]*roomTimers)}
}

func (s *Scheduler) entry(id domain.RoomID) *roomTimers {
	t, ok := s.slots[id]
	if !ok {
		t = &roomTimers{}
		s.slots[id] = t
	}
	return t
}

// ArmRoom schedules the room-lifetime action. Rearming replaces any
// live timer for the slot.
func (s *Scheduler) ArmRoom(id domain.RoomID, d time.Duration, fn func(domain.RoomID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(id).room.arm(d, func() { fn(id) })
}

// ArmTurn schedules (or reschedules) the turn-rotation action.
func (s *Scheduler) ArmTurn(id domain.RoomID, d time.Duration, fn func(domain.RoomID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(id).turn.arm(d, func() { fn(id) })
}

func (s *Scheduler) TurnArmed(id domain.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.slots[id]
	return ok && t.turn.armed()
}

// CancelTurn disarms the turn timer; no-op if dormant or fired.
func (s *Scheduler) CancelTurn(id domain.RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.slots[id]; ok {
		t.turn.cancel()
	}
}

// CancelAll disarms both timers and forgets the room. Part of every
// teardown path; safe to call twice.
func (s *Scheduler) CancelAll(id domain.RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.slots[id]; ok {
		t.room.cancel()
		t.turn.cancel()
		delete(s.slots, id)
	}
}

// Remaining reports seconds left on each timer, 0 for dormant slots.
func (s *Scheduler) Remaining(id domain.RoomID) TimeRemaining {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.slots[id]
	if !ok {
		return TimeRemaining{}
	}
	now := time.Now()
	return TimeRemaining{
		Room: int64(t.room.remaining(now) / time.Second),
		Turn: int64(t.turn.remaining(now) / time.Second),
	}
}
