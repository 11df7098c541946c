// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxNickNameLen = 36

var (
	ErrNickNameEmpty   = errors.New("nickname empty")
	ErrNickNameTooLong = errors.New("nickname too long")
	ErrBadSpaceID      = errors.New("invalid space id")
	ErrBadLayer        = errors.New("invalid layer")
)

// ConnID is the transport-assigned identifier of one live connection.
// It is the addressing key for unicast delivery.
type ConnID string

// BaseLayer is the layer every session starts on when it joins a space.
const BaseLayer = 0

// Default spawn coordinates on joining a space.
const (
	SpawnX = 1
	SpawnY = 1
)

// Appearance is the fixed bundle of cosmetic attributes supplied at join
// time. It never changes for the lifetime of the session.
type Appearance struct {
	Skin         int `json:"skin"`
	Face         int `json:"face"`
	Hair         int `json:"hair"`
	HairColor    int `json:"hair_color"`
	Clothes      int `json:"clothes"`
	ClothesColor int `json:"clothes_color"`
}

// Session is the per-connection presence state while inside a space.
type Session struct {
	ID       ConnID  `json:"id"`
	SpaceID  int     `json:"spaceId"`
	NickName string  `json:"nickName"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Layer    int     `json:"layer"`
	Appearance
}

// NewSession avoids raw literals in adapters and keeps construction obvious.
// The session spawns at the default position on the base layer.
func NewSession(id ConnID, spaceID int, nickName string, ap Appearance) (*Session, error) {
	if spaceID <= 0 {
		return nil, ErrBadSpaceID
	}
	if len(nickName) == 0 {
		return nil, ErrNickNameEmpty
	}
	if len(nickName) > MaxNickNameLen {
		return nil, ErrNickNameTooLong
	}
	return &Session{
		ID:         id,
		SpaceID:    spaceID,
		NickName:   nickName,
		X:          SpawnX,
		Y:          SpawnY,
		Layer:      BaseLayer,
		Appearance: ap,
	}, nil
}

// SpaceRoom is the space-level room key of the session.
func (s *Session) SpaceRoom() RoomKey { return SpaceKey(s.SpaceID) }

// LayerRoom is the (space, layer) room key of the session.
func (s *Session) LayerRoom() RoomKey { return LayerKey(s.SpaceID, s.Layer) }
