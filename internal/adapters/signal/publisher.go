package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dmelnik/pairpad/internal/app"
	"github.com/dmelnik/pairpad/internal/core"
	"github.com/dmelnik/pairpad/internal/domain"
)

// Publisher fans session-manager events out over the live connections.
// Implements core.Publisher.
type Publisher struct {
	Conns *app.ConnRegistry
}

func NewPublisher(conns *app.ConnRegistry) *Publisher {
	return &Publisher{Conns: conns}
}

func (p *Publisher) ToSession(sid core.SessionID, v any) {
	conn, ok := p.Conns.Conn(sid)
	if !ok {
		return
	}
	p.send(conn, v)
}

func (p *Publisher) ToRoom(id domain.RoomID, v any) {
	for _, snap := range p.Conns.MembersOfRoom(id) {
		p.send(snap.Conn, v)
	}
}

func (p *Publisher) ToRoomExcept(id domain.RoomID, except core.SessionID, v any) {
	for _, snap := range p.Conns.MembersOfRoom(id) {
		if snap.SID == except {
			continue
		}
		p.send(snap.Conn, v)
	}
}

func (p *Publisher) send(conn core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal.publisher").Msg("marshal event")
		return
	}
	if err := conn.TrySend(b); err != nil {
		// Slow peer: drop the frame, the next room_update resyncs it.
		log.Warn().Err(err).Str("module", "signal.publisher").Msg("dropped frame")
	}
}
