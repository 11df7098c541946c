package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/moyeora/server/internal/core"
	"github.com/moyeora/server/internal/domain"
)

// PublishResult reports delivery stats for one broadcast.
type PublishResult struct {
	SendTo  int
	Dropped []domain.ConnID
}

// Broadcaster fans an event out to every member of a room. Delivery is
// per-member and non-blocking: a dead or slow member is skipped, never
// stalls the others, and never fails the caller.
type Broadcaster struct {
	Registry *core.Registry
	Rooms    *core.RoomIndex
}

// Broadcast delivers payload tagged with event to every member of key,
// except exclude if non-empty. Members without a live connection are
// silently dropped; the transport prunes them from the index on disconnect.
func (b *Broadcaster) Broadcast(key domain.RoomKey, event string, payload any, exclude domain.ConnID) PublishResult {
	res := PublishResult{}
	frame, err := json.Marshal(core.Event{Type: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("event", event).Msg("marshal event")
		return res
	}
	for _, id := range b.Rooms.MembersOf(key) {
		if id == exclude {
			continue
		}
		conn, ok := b.Registry.Conn(id)
		if !ok {
			continue
		}
		if err := conn.TrySend(core.Frame(frame)); err != nil {
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "app.broadcast").Str("room", string(key)).Str("event", event).
		Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
