package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dmelnik/pairpad/internal/core"
)

func (ctl *Controller) writePump(ctx context.Context, c *SignalConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump drives the connection. On exit the connection counts as
// disconnected: membership is released and the binding dropped.
func (ctl *Controller) readPump(ctx context.Context, sid core.SessionID, c *SignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Mgr.Leave(sid)
		ctl.Conns.CancelSession(sid)
		ctl.Conns.Unbind(sid)
		if ctl.Limiter != nil {
			ctl.Limiter.Forget(sid)
		}
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.dispatch(sid, c, data)
		}
	}
}

func (ctl *Controller) dispatch(sid core.SessionID, c *SignalConn, data []byte) {
	if ctl.Limiter != nil && !ctl.Limiter.Allow(sid) {
		ctl.sendError(c, "too many requests, slow down")
		return
	}

	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "bad payload")
		return
	}

	switch env.Type {
	case "create_room":
		ctl.handleCreateRoom(sid, c, data)
	case "join":
		ctl.handleJoin(sid, c, data)
	case "room_info":
		ctl.handleRoomInfo(c, data)
	case "code_change":
		ctl.handleCodeChange(sid, c, data)
	case "leave":
		ctl.handleLeave(sid)
	case "ping":
		ctl.sendJSON(c, core.PongEvent{Type: core.EventPong})
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown intent")
	}
}

func (ctl *Controller) sendJSON(c *SignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c *SignalConn, msg string) {
	ctl.sendJSON(c, core.NewErrorEvent(msg))
}
