package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/moyeora/server/internal/core"
	"github.com/moyeora/server/internal/domain"
)

// UnicastRelay delivers a payload to exactly one connection, independent of
// room membership. A missing target is a silent no-op: signaling messages
// naturally race disconnects and that is not worth surfacing to the sender.
type UnicastRelay struct {
	Registry *core.Registry
}

func (u *UnicastRelay) SendTo(target domain.ConnID, event string, payload any) {
	conn, ok := u.Registry.Conn(target)
	if !ok {
		log.Debug().Str("module", "app.relay").Str("target", string(target)).
			Str("event", event).Msg("target not connected, dropping")
		return
	}
	frame, err := json.Marshal(core.Event{Type: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Str("event", event).Msg("marshal event")
		return
	}
	if err := conn.TrySend(core.Frame(frame)); err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Str("target", string(target)).
			Str("event", event).Msg("unicast dropped")
	}
}
