package domain

import "fmt"

// RoomKey addresses a derived room: either a whole space or one layer
// within it. Rooms are not entities of their own, they exist implicitly as
// the set of sessions whose fields match the key.
type RoomKey string

// SpaceKey builds the space-level room key for a space id.
func SpaceKey(spaceID int) RoomKey {
	return RoomKey(fmt.Sprintf("space:%d", spaceID))
}

// LayerKey builds the layer-level room key for a space id and layer.
func LayerKey(spaceID, layer int) RoomKey {
	return RoomKey(fmt.Sprintf("space:%d:layer:%d", spaceID, layer))
}
