package ws

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/moyeora/server/internal/app"
	"github.com/moyeora/server/internal/core"
	"github.com/moyeora/server/internal/domain"
)

// Inbound frames carry the same envelope as outbound ones: an event name in
// "type" plus an event-specific "data" object. Every payload variant is
// decoded and validated here, before the gateway runs; a malformed frame
// answers with an error and mutates nothing.

type joinSpacePayload struct {
	SpaceID  int    `json:"spaceId"`
	NickName string `json:"nickName"`
	domain.Appearance
}

type joinLayerPayload struct {
	// The client also sends its spaceId here; the session's own space is
	// authoritative, so it is accepted and ignored.
	SpaceID int `json:"spaceId"`
	Layer   int `json:"layer"`
}

type movePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type messagePayload struct {
	Message string `json:"message"`
}

type signalPayload struct {
	Target    string `json:"target"`
	SDP       string `json:"sdp"`
	Candidate string `json:"candidate"`
	Status    string `json:"status"`
}

type mediaStatusPayload struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

func (ctl *Controller) handleFrame(cid domain.ConnID, conn core.SignalConnection, data []byte) {
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "ws").Str("cid", string(cid)).Msg("bad json")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if len(env.Data) == 0 {
		env.Data = []byte("{}")
	}

	switch env.Type {
	case "ping":
		ctl.sendEvent(conn, "pong", nil)
	case "joinSpace":
		ctl.handleJoinSpace(cid, conn, env.Data)
	case "joinLayer":
		ctl.handleJoinLayer(cid, conn, env.Data)
	case "leaveSpace":
		ctl.reply(conn, ctl.Gateway.LeaveSpace(cid))
	case "movePlayer":
		var p movePayload
		if !ctl.decode(conn, env.Data, &p) {
			return
		}
		ctl.reply(conn, ctl.Gateway.MovePlayer(cid, p.X, p.Y))
	case "sendSpaceMessage":
		var p messagePayload
		if !ctl.decode(conn, env.Data, &p) {
			return
		}
		if p.Message == "" {
			ctl.sendError(conn, "empty message")
			return
		}
		ctl.reply(conn, ctl.Gateway.SpaceMessage(cid, p.Message))
	case "sendLayerMessage":
		var p messagePayload
		if !ctl.decode(conn, env.Data, &p) {
			return
		}
		if p.Message == "" {
			ctl.sendError(conn, "empty message")
			return
		}
		ctl.reply(conn, ctl.Gateway.LayerMessage(cid, p.Message))
	case "offer", "answer", "candidate":
		ctl.handleSignal(cid, conn, env.Type, env.Data)
	case "webRTCStatus":
		var p mediaStatusPayload
		if !ctl.decode(conn, env.Data, &p) {
			return
		}
		if p.Type == "" || p.Status == "" {
			ctl.sendError(conn, "bad_payload")
			return
		}
		ctl.reply(conn, ctl.Gateway.MediaStatus(cid, p.Type, p.Status))
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown event")
		ctl.sendError(conn, "unknown event")
	}
}

func (ctl *Controller) handleJoinSpace(cid domain.ConnID, conn core.SignalConnection, data []byte) {
	var p joinSpacePayload
	if !ctl.decode(conn, data, &p) {
		return
	}
	res := ctl.Gateway.JoinSpace(cid, p.SpaceID, p.NickName, p.Appearance)
	if res.OK() {
		ctl.sendEvent(conn, "joined", res)
		return
	}
	ctl.sendError(conn, res.Message)
}

func (ctl *Controller) handleJoinLayer(cid domain.ConnID, conn core.SignalConnection, data []byte) {
	var p joinLayerPayload
	if !ctl.decode(conn, data, &p) {
		return
	}
	ctl.reply(conn, ctl.Gateway.JoinLayer(cid, p.Layer))
}

func (ctl *Controller) handleSignal(cid domain.ConnID, conn core.SignalConnection, kind string, data []byte) {
	var p signalPayload
	if !ctl.decode(conn, data, &p) {
		return
	}
	if p.Target == "" {
		ctl.sendError(conn, "missing target")
		return
	}
	payload := p.SDP
	if kind == "candidate" {
		payload = p.Candidate
	}
	ctl.reply(conn, ctl.Gateway.Signal(cid, kind, domain.ConnID(p.Target), payload, p.Status))
}

// decode unmarshals a payload variant, answering bad_payload on failure.
func (ctl *Controller) decode(conn core.SignalConnection, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad payload")
		ctl.sendError(conn, "bad_payload")
		return false
	}
	return true
}

// reply surfaces soft gateway failures to the client; successes are silent,
// the resulting broadcasts are the acknowledgement.
func (ctl *Controller) reply(conn core.SignalConnection, res app.Result) {
	if res.OK() {
		return
	}
	ctl.sendError(conn, res.Message)
}

func (ctl *Controller) sendEvent(conn core.SignalConnection, event string, data any) {
	ctl.sendJSON(conn, core.Event{Type: event, Data: data})
}

func (ctl *Controller) sendError(conn core.SignalConnection, msg string) {
	ctl.sendJSON(conn, map[string]any{
		"type":  "error",
		"error": msg,
	})
}

func (ctl *Controller) sendJSON(conn core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("sendJSON marshal")
		return
	}
	_ = conn.TrySend(b)
}
