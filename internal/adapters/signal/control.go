package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dmelnik/pairpad/internal/core"
	"github.com/dmelnik/pairpad/internal/domain"
)

func (ctl *Controller) handleCreateRoom(sid core.SessionID, c *SignalConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad create_room payload")
		ctl.sendError(c, "bad payload")
		return
	}

	id, err := ctl.Mgr.CreateRoom(sid, p.Name)
	if err != nil {
		ctl.sendError(c, err.Error())
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(id)).Msg("create_room")
}

func (ctl *Controller) handleJoin(sid core.SessionID, c *SignalConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(c, "bad payload")
		return
	}

	if err := ctl.Mgr.Join(sid, domain.RoomID(p.Room), p.Name); err != nil {
		ctl.sendError(c, err.Error())
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.Room).Msg("join")
}

func (ctl *Controller) handleRoomInfo(c *SignalConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad payload")
		return
	}

	info, err := ctl.Mgr.Info(domain.RoomID(p.Room))
	if err != nil {
		ctl.sendError(c, err.Error())
		return
	}
	ctl.sendJSON(c, info)
}

func (ctl *Controller) handleCodeChange(sid core.SessionID, c *SignalConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Code string `json:"code"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad payload")
		return
	}

	if err := ctl.Mgr.CodeChange(sid, domain.RoomID(p.Room), p.Code); err != nil {
		ctl.sendError(c, err.Error())
	}
}

// handleLeave releases room membership without dropping the socket.
func (ctl *Controller) handleLeave(sid core.SessionID) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	ctl.Mgr.Leave(sid)
}
