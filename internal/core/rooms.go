package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/moyeora/server/internal/domain"
)

// RoomIndex owns the grouping of connections into rooms. Membership is
// authoritative state here, not recomputed from sessions per query. Empty
// rooms are pruned eagerly on last leave.
type RoomIndex struct {
	mu      sync.RWMutex
	members map[domain.RoomKey]map[domain.ConnID]struct{}
}

func NewRoomIndex() *RoomIndex {
	return &RoomIndex{members: make(map[domain.RoomKey]map[domain.ConnID]struct{})}
}

// Join adds a connection to a room; joining twice is a no-op.
func (ri *RoomIndex) Join(id domain.ConnID, key domain.RoomKey) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	set, ok := ri.members[key]
	if !ok {
		set = make(map[domain.ConnID]struct{})
		ri.members[key] = set
	}
	set[id] = struct{}{}
	log.Debug().Str("module", "core.rooms").Str("cid", string(id)).
		Str("room", string(key)).Msg("joined room")
}

// Leave removes a connection from a room; no-op if not a member.
func (ri *RoomIndex) Leave(id domain.ConnID, key domain.RoomKey) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	set, ok := ri.members[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(ri.members, key)
	}
	log.Debug().Str("module", "core.rooms").Str("cid", string(id)).
		Str("room", string(key)).Msg("left room")
}

// MembersOf returns the current members of a room. A room nobody is in
// yields an empty slice, never an error.
func (ri *RoomIndex) MembersOf(key domain.RoomKey) []domain.ConnID {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	set := ri.members[key]
	out := make([]domain.ConnID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// Contains reports whether a connection is a member of a room.
func (ri *RoomIndex) Contains(id domain.ConnID, key domain.RoomKey) bool {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	_, ok := ri.members[key][id]
	return ok
}

// Count returns the member count of a room.
func (ri *RoomIndex) Count(key domain.RoomKey) int {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	return len(ri.members[key])
}

// RoomInfo is a read-only view of one room for APIs.
type RoomInfo struct {
	Key         domain.RoomKey `json:"room"`
	MemberCount int            `json:"member_count"`
}

// List snapshots every non-empty room with its member count.
func (ri *RoomIndex) List() []RoomInfo {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	out := make([]RoomInfo, 0, len(ri.members))
	for key, set := range ri.members {
		out = append(out, RoomInfo{Key: key, MemberCount: len(set)})
	}
	return out
}
