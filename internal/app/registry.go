package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dmelnik/pairpad/internal/core"
	"github.com/dmelnik/pairpad/internal/domain"
)

type connEntry struct {
	Name   string
	Room   domain.RoomID
	Conn   core.SignalConnection
	Cancel context.CancelFunc
}

// ConnRegistry tracks live transport connections and which room (and
// under what name) each one is currently a member of. A connection is
// bound once on upgrade and unbound on disconnect; its room membership
// changes as it joins and leaves.
type ConnRegistry struct {
	mu    sync.RWMutex
	conns map[core.SessionID]*connEntry
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{conns: make(map[core.SessionID]*connEntry)}
}

func (r *ConnRegistry) Bind(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[sid] = &connEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound connection")
}

func (r *ConnRegistry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbound connection")
}

func (r *ConnRegistry) Conn(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[sid]; ok && e.Conn != nil {
		return e.Conn, true
	}
	return nil, false
}

// SetMembership records that sid is now a member of room under name.
func (r *ConnRegistry) SetMembership(sid core.SessionID, room domain.RoomID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[sid]; ok {
		e.Room = room
		e.Name = name
	}
}

// ClearMembership leaves room association intact for other sids.
func (r *ConnRegistry) ClearMembership(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[sid]; ok {
		e.Room = ""
		e.Name = ""
	}
}

// RoomOf reports the room sid is a member of, and under which name.
func (r *ConnRegistry) RoomOf(sid core.SessionID) (domain.RoomID, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[sid]
	if !ok || e.Room == "" {
		return "", "", false
	}
	return e.Room, e.Name, true
}

type ConnSnap struct {
	SID  core.SessionID
	Name string
	Conn core.SignalConnection
}

// MembersOfRoom snapshots the connections currently associated with a
// room, for fan-out.
func (r *ConnRegistry) MembersOfRoom(id domain.RoomID) []ConnSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ConnSnap, 0, len(r.conns))
	for sid, e := range r.conns {
		if e.Room == id {
			out = append(out, ConnSnap{SID: sid, Name: e.Name, Conn: e.Conn})
		}
	}
	return out
}

// ClearRoom drops the room association of every connection bound to id.
// Used on teardown so a dead room never keeps receiving fan-out.
func (r *ConnRegistry) ClearRoom(id domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.conns {
		if e.Room == id {
			e.Room = ""
			e.Name = ""
		}
	}
}

// CancelSession fires the connection-scoped cancel, if any.
func (r *ConnRegistry) CancelSession(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.conns[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	return true
}
