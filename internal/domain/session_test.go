package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyeora/server/internal/domain"
)

func TestNewSession(t *testing.T) {
	tests := []struct {
		name     string
		spaceID  int
		nickName string
		wantErr  error
	}{
		{name: "valid", spaceID: 1, nickName: "mina"},
		{name: "missing space id", spaceID: 0, nickName: "mina", wantErr: domain.ErrBadSpaceID},
		{name: "negative space id", spaceID: -3, nickName: "mina", wantErr: domain.ErrBadSpaceID},
		{name: "empty nickname", spaceID: 1, nickName: "", wantErr: domain.ErrNickNameEmpty},
		{name: "nickname too long", spaceID: 1, nickName: strings.Repeat("x", domain.MaxNickNameLen+1), wantErr: domain.ErrNickNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := domain.NewSession("conn-1", tt.spaceID, tt.nickName, domain.Appearance{Skin: 2})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.ConnID("conn-1"), s.ID)
			assert.Equal(t, tt.spaceID, s.SpaceID)
			assert.Equal(t, domain.BaseLayer, s.Layer)
			assert.Equal(t, float64(domain.SpawnX), s.X)
			assert.Equal(t, float64(domain.SpawnY), s.Y)
			assert.Equal(t, 2, s.Skin)
		})
	}
}

func TestRoomKeys(t *testing.T) {
	assert.Equal(t, domain.RoomKey("space:7"), domain.SpaceKey(7))
	assert.Equal(t, domain.RoomKey("space:7:layer:2"), domain.LayerKey(7, 2))

	s, err := domain.NewSession("c", 7, "mina", domain.Appearance{})
	require.NoError(t, err)
	assert.Equal(t, domain.SpaceKey(7), s.SpaceRoom())
	assert.Equal(t, domain.LayerKey(7, 0), s.LayerRoom())

	s.Layer = 2
	assert.Equal(t, domain.LayerKey(7, 2), s.LayerRoom())
}
