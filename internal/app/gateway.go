package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/moyeora/server/internal/core"
	"github.com/moyeora/server/internal/domain"
)

// Gateway is the state machine driving what happens on connect, disconnect,
// join/leave of space and layer, movement and message events. It is the
// single serialization point of the system: every inbound event runs under
// one mutex, so each read-then-mutate-then-broadcast sequence is atomic
// relative to other events touching the same connection or room.
type Gateway struct {
	mu       sync.Mutex
	Registry *core.Registry
	Rooms    *core.RoomIndex
	Cast     *Broadcaster
	Relay    *UnicastRelay
	Auth     Authorizer
}

func NewGateway(reg *core.Registry, rooms *core.RoomIndex, auth Authorizer) *Gateway {
	if auth == nil {
		auth = AllowAll{}
	}
	return &Gateway{
		Registry: reg,
		Rooms:    rooms,
		Cast:     &Broadcaster{Registry: reg, Rooms: rooms},
		Relay:    &UnicastRelay{Registry: reg},
		Auth:     auth,
	}
}

// castLocked broadcasts and applies the backpressure policy: a member whose
// send queue stayed full gets its transport canceled, which runs the normal
// disconnect teardown from the pump side.
func (g *Gateway) castLocked(key domain.RoomKey, event string, payload any, exclude domain.ConnID) {
	res := g.Cast.Broadcast(key, event, payload, exclude)
	for _, slow := range res.Dropped {
		log.Warn().Str("module", "app.gateway").Str("cid", string(slow)).
			Str("event", event).Msg("backpressure, kicking slow consumer")
		g.Registry.Cancel(slow)
	}
}

// Connect binds a freshly upgraded transport endpoint. No Session exists
// yet; one is created only when the connection joins a space.
func (g *Gateway) Connect(id domain.ConnID, conn core.SignalConnection, cancel context.CancelFunc) {
	g.Registry.BindConn(id, conn, cancel)
}

// JoinSpace creates the session and makes it visible to the space. The
// joiner gets the current roster via a dedicated spaceUsers push; everyone
// else in the space gets a joinSpace broadcast with the new session.
func (g *Gateway) JoinSpace(id domain.ConnID, spaceID int, nickName string, ap domain.Appearance) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.Auth.CanJoin(id, spaceID) {
		log.Warn().Str("module", "app.gateway").Str("cid", string(id)).
			Int("space", spaceID).Msg("join denied")
		return failure("Not authorized")
	}

	// Rejoining while already in a space implicitly leaves the old one.
	if _, ok := g.Registry.Get(id); ok {
		g.leaveLocked(id, true)
	}

	s, err := domain.NewSession(id, spaceID, nickName, ap)
	if err != nil {
		return failure(err.Error())
	}

	g.Registry.Put(id, s)
	g.Rooms.Join(id, s.SpaceRoom())
	g.Rooms.Join(id, s.LayerRoom())

	g.castLocked(s.SpaceRoom(), "joinSpace", *s, id)
	g.Relay.SendTo(id, "spaceUsers", g.roomSnapshotLocked(s.SpaceRoom()))

	log.Info().Str("module", "app.gateway").Str("cid", string(id)).
		Int("space", spaceID).Msg("joined space")
	return Result{Status: StatusSuccess, Message: "Joined space", SpaceID: spaceID}
}

// JoinLayer moves the session to another layer of its space. The leaveLayer
// broadcast goes to the old layer room after the session has left it, the
// joinLayer broadcast to the new layer room, and the joiner alone gets the
// new layer's roster.
func (g *Gateway) JoinLayer(id domain.ConnID, layer int) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.Registry.Get(id)
	if !ok {
		return userNotFound()
	}
	if layer < 0 {
		return failure(domain.ErrBadLayer.Error())
	}
	if !g.Rooms.Contains(id, s.LayerRoom()) {
		// Registry and index disagree: fatal to this connection.
		g.forceCleanupLocked(id, s)
		return failure("Session state inconsistent")
	}

	oldLayer := s.LayerRoom()
	g.Rooms.Leave(id, oldLayer)
	g.castLocked(oldLayer, "leaveLayer", *s, "")

	s.Layer = layer
	g.Rooms.Join(id, s.LayerRoom())
	g.castLocked(s.LayerRoom(), "joinLayer", *s, id)
	g.Relay.SendTo(id, "layerUsers", g.roomSnapshotLocked(s.LayerRoom()))

	log.Info().Str("module", "app.gateway").Str("cid", string(id)).
		Int("space", s.SpaceID).Int("layer", layer).Msg("joined layer")
	return success("Joined layer")
}

// LeaveSpace removes the session from its space without dropping the
// transport connection.
func (g *Gateway) LeaveSpace(id domain.ConnID) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.leaveLocked(id, true) {
		return userNotFound()
	}
	return success("Left space")
}

// MovePlayer updates the session position and fans the updated session out
// to the whole space.
func (g *Gateway) MovePlayer(id domain.ConnID, x, y float64) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.Registry.Get(id)
	if !ok {
		return userNotFound()
	}
	s.X, s.Y = x, y
	g.castLocked(s.SpaceRoom(), "movePlayer", *s, "")
	return success("Moved")
}

// SpaceMessage fans a chat message out to every member of the space,
// sender included.
func (g *Gateway) SpaceMessage(id domain.ConnID, message string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.Registry.Get(id)
	if !ok {
		return userNotFound()
	}
	g.castLocked(s.SpaceRoom(), "spaceMessage", ChatMessage{NickName: s.NickName, Message: message}, "")
	return success("Sent")
}

// LayerMessage fans a chat message out to the sender's current layer only.
func (g *Gateway) LayerMessage(id domain.ConnID, message string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.Registry.Get(id)
	if !ok {
		return userNotFound()
	}
	g.castLocked(s.LayerRoom(), "layerMessage", ChatMessage{NickName: s.NickName, Message: message}, "")
	return success("Sent")
}

// Signal relays one handshake message (offer, answer or candidate) to
// exactly one peer, stamped with the sender's connection id. A target that
// already left produces no delivery and no error.
func (g *Gateway) Signal(id domain.ConnID, kind string, target domain.ConnID, payload, status string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.Registry.Get(id); !ok {
		return userNotFound()
	}
	body := SignalBody{Sender: id, Status: status}
	if kind == "candidate" {
		body.Candidate = payload
	} else {
		body.SDP = payload
	}
	g.Relay.SendTo(target, kind, body)
	return success("Relayed")
}

// MediaStatus announces a media state flip (camera/mic on or off) to the
// sender's layer as a dynamic event named statusType+status, e.g. cameraOn.
// The payload is the sender's connection id.
func (g *Gateway) MediaStatus(id domain.ConnID, statusType, status string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.Registry.Get(id)
	if !ok {
		return userNotFound()
	}
	g.castLocked(s.LayerRoom(), statusType+status, id, id)
	return success("Sent")
}

// Disconnect is the transport-level terminal event. It is idempotent:
// running it twice for the same id is a safe no-op the second time.
func (g *Gateway) Disconnect(id domain.ConnID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.leaveLocked(id, false)
	g.Registry.UnbindConn(id)
	log.Info().Str("module", "app.gateway").Str("cid", string(id)).Msg("disconnected")
}

// leaveLocked tears the session out of both its rooms and the registry,
// then broadcasts the departure to the remaining members. The session is
// removed before any broadcast is computed, so the leaver never sees its
// own departure and receives nothing further. The leaveLayer event is only
// sent on an explicit leave; a dropped transport gets just leaveSpace.
func (g *Gateway) leaveLocked(id domain.ConnID, explicit bool) bool {
	s, ok := g.Registry.Get(id)
	if !ok {
		return false
	}
	spaceRoom, layerRoom := s.SpaceRoom(), s.LayerRoom()

	g.Rooms.Leave(id, layerRoom)
	g.Rooms.Leave(id, spaceRoom)
	g.Registry.Remove(id)

	g.castLocked(spaceRoom, "leaveSpace", *s, "")
	if explicit {
		g.castLocked(layerRoom, "leaveLayer", *s, "")
	}

	log.Info().Str("module", "app.gateway").Str("cid", string(id)).
		Int("space", s.SpaceID).Msg("left space")
	return true
}

// forceCleanupLocked handles an internal invariant violation by treating it
// as a disconnect: membership and session are torn down and the transport
// is canceled, rather than propagating inconsistent broadcasts.
func (g *Gateway) forceCleanupLocked(id domain.ConnID, s *domain.Session) {
	log.Error().Str("module", "app.gateway").Str("cid", string(id)).
		Int("space", s.SpaceID).Int("layer", s.Layer).Msg("registry/index mismatch, forcing cleanup")
	g.leaveLocked(id, false)
	g.Registry.Cancel(id)
}

// roomSnapshotLocked builds the roster of a room from the index plus the
// registry. A member without a session violates the membership invariant
// and is cleaned up instead of being reported.
func (g *Gateway) roomSnapshotLocked(key domain.RoomKey) []domain.Session {
	ids := g.Rooms.MembersOf(key)
	out := make([]domain.Session, 0, len(ids))
	var stale []domain.ConnID
	for _, id := range ids {
		s, ok := g.Registry.Get(id)
		if !ok {
			stale = append(stale, id)
			continue
		}
		out = append(out, *s)
	}
	for _, id := range stale {
		log.Error().Str("module", "app.gateway").Str("cid", string(id)).
			Str("room", string(key)).Msg("room member without session, pruning")
		g.Rooms.Leave(id, key)
		g.Registry.Cancel(id)
	}
	return out
}
