package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

func TestPackTile(t *testing.T) {
	tests := []struct {
		name  string
		x, y  int
		owner core.SmallID
		flags uint8
	}{
		{"origin unowned", 0, 0, core.NoOwner, 0},
		{"all flags", 5, 7, 3, core.FlagFallout | core.FlagDefenseBonus | core.FlagBorder},
		{"max coordinates", 65535, 65535, core.MaxSmallID, core.FlagBorder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := UnpackTile(PackTile(tt.x, tt.y, tt.owner, tt.flags))
			assert.Equal(t, PackedTile{X: tt.x, Y: tt.y, Owner: tt.owner, Flags: tt.flags}, p)
		})
	}

	p := UnpackTile(PackTile(1, 2, 9, core.FlagFallout|core.FlagBorder))
	assert.True(t, p.HasFallout())
	assert.True(t, p.IsBorder())
	assert.False(t, p.HasDefenseBonus())
}

func TestPackMapTile(t *testing.T) {
	m, err := core.NewGameMap(4, 4, make([]core.TerrainType, 16))
	require.NoError(t, err)
	ref := m.Ref(2, 3)
	m.SetOwnerID(ref, 11)
	m.SetDefenseBonus(ref, true)

	p := UnpackTile(PackMapTile(m, ref))
	assert.Equal(t, 2, p.X)
	assert.Equal(t, 3, p.Y)
	assert.Equal(t, core.SmallID(11), p.Owner)
	assert.True(t, p.HasDefenseBonus())
}

func TestClone_IsDeepCopy(t *testing.T) {
	src := GameUpdateViewData{
		Tick: 12,
		Updates: Updates{
			Players: []PlayerUpdate{{ID: "p1", SmallID: 1, Allies: []core.SmallID{2}}},
			Hashes:  []HashUpdate{{Tick: 12, Hash: 99}},
		},
		PackedTileUpdates: []uint64{PackTile(1, 1, 1, 0)},
	}

	dst, err := Clone(src)
	require.NoError(t, err)
	assert.Equal(t, src, dst)

	dst.Updates.Players[0].Allies[0] = 7
	dst.PackedTileUpdates[0] = 0
	assert.Equal(t, core.SmallID(2), src.Updates.Players[0].Allies[0], "clone must not share slices")
	assert.NotZero(t, src.PackedTileUpdates[0])

	h, ok := dst.LastHash()
	require.True(t, ok)
	assert.Equal(t, uint64(99), h.Hash)
}

func TestMarshal_Stable(t *testing.T) {
	turn := Turn{TurnNumber: 3, Intents: []Intent{
		SpawnIntent("c1", "alice", core.NewCell(5, 5)),
		AttackIntent("c1", "", 100),
	}}
	a, err := Marshal(turn)
	require.NoError(t, err)
	b, err := Marshal(turn)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	var decoded Turn
	require.NoError(t, Unmarshal(a, &decoded))
	assert.Equal(t, 3, decoded.TurnNumber)
	require.Len(t, decoded.Intents, 2)
	assert.Equal(t, IntentSpawn, decoded.Intents[0].Type)
	assert.Equal(t, core.NewCell(5, 5), decoded.Intents[0].Cell)
	assert.Equal(t, 100, decoded.Intents[1].Troops)
	assert.Nil(t, decoded.Intents[1].SpawnCell)
}

func TestUpdates_Count(t *testing.T) {
	u := Updates{
		Units:         []UnitUpdate{{ID: 1}, {ID: 2}},
		Wins:          []WinUpdate{{Winner: 1}},
		DisplayEvents: []DisplayEventUpdate{{Message: "hi"}},
	}
	assert.Equal(t, 2, u.Count(UpdateUnit))
	assert.Equal(t, 1, u.Count(UpdateWin))
	assert.Equal(t, 1, u.Count(UpdateDisplayEvent))
	assert.Equal(t, 0, u.Count(UpdateHash))
	assert.Equal(t, "BrokeAlliance", UpdateBrokeAlliance.String())
}
