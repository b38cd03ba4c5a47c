package view

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/execution"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/mapgen"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

// funcExec runs fn once, on its first eligible tick.
type funcExec struct {
	fn   func(e *game.Engine)
	done bool
}

func (f *funcExec) Init(e *game.Engine, tick int) { f.fn(e); f.done = true }
func (f *funcExec) Tick(int)                      {}
func (f *funcExec) IsActive() bool                { return !f.done }
func (f *funcExec) ActiveDuringSpawnPhase() bool  { return true }

func plainsMap(t *testing.T, w, h int) *core.GameMap {
	terrain := make([]core.TerrainType, w*h)
	for i := range terrain {
		if i%w == 0 {
			terrain[i] = core.TerrainOcean
		}
	}
	m, err := core.NewGameMap(w, h, terrain)
	require.NoError(t, err)
	return m
}

type sim struct {
	t  *testing.T
	e  *game.Engine
	tp *game.TurnProcessor
}

func newSim(t *testing.T, gameID string, m *core.GameMap, cfg config.GameConfig) *sim {
	e := game.NewEngine(gameID, m, cfg, zerolog.Nop())
	mgr := execution.NewManager(gameID, cfg, zerolog.Nop())
	e.AddExecution(mgr.InitialExecs(e.Map())...)
	return &sim{t: t, e: e, tp: game.NewTurnProcessor(e, mgr)}
}

func (s *sim) turn(intents ...protocol.Intent) *protocol.GameUpdateViewData {
	gu, err := s.tp.ProcessTurn(context.Background(), protocol.Turn{TurnNumber: s.e.Ticks(), Intents: intents})
	require.NoError(s.t, err)
	return gu
}

func TestGameView_DiffsEqualSnapshot(t *testing.T) {
	mapCfg := config.DefaultMapConfig()
	mapCfg.Width, mapCfg.Height = 60, 40
	m, err := mapgen.NewGenerator(mapCfg).Generate()
	require.NoError(t, err)

	cfg := config.DefaultGameConfig()
	cfg.SpawnPhaseTurns = 5
	cfg.NumBots = 5
	s := newSim(t, "view-equivalence", m.Clone(), cfg)

	v := NewGameView(m, zerolog.Nop())
	checkpoints := map[int]bool{1: true, 10: true, 50: true, 120: true}
	for s.e.Ticks() < 120 {
		gu := s.turn()
		require.NoError(t, v.Update(gu))

		if checkpoints[gu.Tick] {
			want := s.e.Snapshot()
			assert.Equal(t, want, v.Snapshot(), "diffs up to tick %d", gu.Tick)

			loaded := NewGameView(m, zerolog.Nop())
			require.NoError(t, loaded.Load(want))
			assert.Equal(t, want, loaded.Snapshot(), "snapshot loaded at tick %d", gu.Tick)
		}
	}
	assert.NotEmpty(t, v.Players())
	assert.Equal(t, 120, v.Tick())
}

func TestGameView_TargetExpiryReachesView(t *testing.T) {
	m := plainsMap(t, 20, 10)
	cfg := config.DefaultGameConfig()
	cfg.SpawnPhaseTurns = 1
	cfg.NumBots = 0
	cfg.Alliance.TargetDurationTicks = 3
	s := newSim(t, "view-targets", m.Clone(), cfg)
	v := NewGameView(m, zerolog.Nop())

	var p1, p2 *game.Player
	s.e.AddExecution(&funcExec{fn: func(e *game.Engine) {
		p1 = e.AddPlayer(game.PlayerInfo{ID: "p1", ClientID: "a", Name: "A", Type: core.PlayerHuman})
		p2 = e.AddPlayer(game.PlayerInfo{ID: "p2", ClientID: "b", Name: "B", Type: core.PlayerHuman})
		e.SetTarget(p1, p2)
	}})
	require.NoError(t, v.Update(s.turn()))

	pv, ok := v.Player("p1")
	require.True(t, ok)
	other, ok := v.Player("p2")
	require.True(t, ok)
	assert.True(t, pv.IsTargeting(other))

	for i := 0; i < 10; i++ {
		require.NoError(t, v.Update(s.turn()))
		assert.Equal(t, s.e.Snapshot(), v.Snapshot(), "tick %d", v.Tick())
	}
	pv, _ = v.Player("p1")
	other, _ = v.Player("p2")
	assert.False(t, pv.IsTargeting(other))
	assert.Empty(t, p1.Targets(s.e.Ticks(), cfg.Alliance.TargetDurationTicks))
}

func TestGameView_TilesAndPlayers(t *testing.T) {
	m := plainsMap(t, 20, 10)
	cfg := config.DefaultGameConfig()
	cfg.SpawnPhaseTurns = 2
	cfg.SpawnRadius = 1
	cfg.NumBots = 0
	s := newSim(t, "view-tiles", m.Clone(), cfg)
	v := NewGameView(m, zerolog.Nop())

	require.NoError(t, v.Update(s.turn(protocol.SpawnIntent("a", "Alpha", core.NewCell(5, 5)))))

	p, ok := s.e.PlayerByClientID("a")
	require.True(t, ok)
	pv, ok := v.Player(string(p.ID()))
	require.True(t, ok)
	assert.Equal(t, "Alpha", pv.Name())
	assert.Equal(t, p.SmallID(), pv.SmallID())
	assert.Same(t, pv, v.PlayerBySmallID(p.SmallID()))
	assert.Nil(t, v.PlayerBySmallID(core.NoOwner))

	center := m.Ref(5, 5)
	assert.Same(t, pv, v.Owner(center))
	assert.False(t, v.IsBorder(center))
	assert.True(t, v.IsBorder(m.Ref(6, 5)))
	assert.Nil(t, v.Owner(m.Ref(15, 5)))
	assert.Equal(t, p.NumTilesOwned(), pv.NumTilesOwned())

	hash, ok := v.LastHash()
	require.True(t, ok)
	assert.Equal(t, 1, hash.Tick)
	assert.Equal(t, s.e.Hash(), hash.Hash)
}

func TestGameView_InactiveUnitKeptOneUpdate(t *testing.T) {
	m := plainsMap(t, 20, 10)
	cfg := config.DefaultGameConfig()
	cfg.SpawnPhaseTurns = 1
	cfg.SpawnRadius = 2
	cfg.NumBots = 0
	s := newSim(t, "view-units", m.Clone(), cfg)
	v := NewGameView(m, zerolog.Nop())

	require.NoError(t, v.Update(s.turn(protocol.SpawnIntent("a", "A", core.NewCell(5, 5)))))
	p, ok := s.e.PlayerByClientID("a")
	require.True(t, ok)

	var unitID int
	s.e.AddExecution(&funcExec{fn: func(e *game.Engine) {
		unitID = e.BuildUnit(core.UnitCity, p, m.Ref(5, 5), game.UnitParams{}).ID()
	}})
	require.NoError(t, v.Update(s.turn()))
	u, ok := v.Unit(unitID)
	require.True(t, ok)
	assert.True(t, u.IsActive())
	assert.Len(t, v.Units(core.UnitCity), 1)
	assert.Empty(t, v.Units(core.UnitPort))

	s.e.AddExecution(&funcExec{fn: func(e *game.Engine) {
		unit, ok := e.Unit(unitID)
		require.True(t, ok)
		e.DeleteUnit(unit)
	}})
	require.NoError(t, v.Update(s.turn()))
	u, ok = v.Unit(unitID)
	require.True(t, ok, "deactivated unit stays for one update")
	assert.False(t, u.IsActive())

	require.NoError(t, v.Update(s.turn()))
	_, ok = v.Unit(unitID)
	assert.False(t, ok)
	assert.Equal(t, s.e.Snapshot(), v.Snapshot())
}

func TestGameView_RejectsStaleUpdates(t *testing.T) {
	m := plainsMap(t, 10, 10)
	v := NewGameView(m, zerolog.Nop())

	require.NoError(t, v.Update(&protocol.GameUpdateViewData{Tick: 1}))
	require.NoError(t, v.Update(&protocol.GameUpdateViewData{Tick: 2}))
	assert.ErrorIs(t, v.Update(&protocol.GameUpdateViewData{Tick: 2}), ErrStaleUpdate)
	assert.ErrorIs(t, v.Update(&protocol.GameUpdateViewData{Tick: 1}), ErrStaleUpdate)
	assert.Equal(t, 2, v.Tick())

	err := v.Update(&protocol.GameUpdateViewData{Tick: 3, PackedTileUpdates: []uint64{protocol.PackTile(50, 1, 1, 0)}})
	assert.ErrorIs(t, err, core.ErrOutOfBounds)
}

func TestGameView_EventsAndAlliances(t *testing.T) {
	m := plainsMap(t, 10, 10)
	v := NewGameView(m, zerolog.Nop())

	gu := &protocol.GameUpdateViewData{Tick: 1}
	gu.Updates.Players = []protocol.PlayerUpdate{
		{ID: "p1", SmallID: 1, Allies: []core.SmallID{2}},
		{ID: "p2", SmallID: 2, Allies: []core.SmallID{1}},
	}
	gu.Updates.Alliances = []protocol.AllianceUpdate{{ID: 7, Requestor: 1, Recipient: 2}}
	gu.Updates.DisplayEvents = []protocol.DisplayEventUpdate{{Message: "hello", MessageType: "info"}}
	gu.Updates.Emojis = []protocol.EmojiUpdate{{Sender: 1, Emoji: "wave"}}
	gu.NameViewData = []protocol.NameViewData{{PlayerID: "p1", X: 3, Y: 4, Size: 2}}
	require.NoError(t, v.Update(gu))

	p1, _ := v.Player("p1")
	p2, _ := v.Player("p2")
	assert.True(t, p1.IsAlliedWith(p2))
	assert.Len(t, v.Alliances(), 1)
	loc, ok := p1.NameLocation()
	require.True(t, ok)
	assert.Equal(t, 3, loc.X)
	_, ok = p2.NameLocation()
	assert.False(t, ok)

	v.AddDisplayEvent(protocol.DisplayEventUpdate{Message: "local"})
	events := v.DisplayEvents()
	require.Len(t, events, 2)
	assert.Equal(t, "hello", events[0].Message)
	assert.Equal(t, "local", events[1].Message)
	assert.Empty(t, v.DisplayEvents(), "events are drained")
	assert.Len(t, v.Emojis(), 1)

	gu2 := &protocol.GameUpdateViewData{Tick: 2}
	gu2.Updates.BrokeAlliances = []protocol.BrokeAllianceUpdate{{Traitor: 2, Betrayed: 1}}
	gu2.Updates.Wins = []protocol.WinUpdate{{Winner: 1, WinnerID: "p1"}}
	require.NoError(t, v.Update(gu2))
	assert.Empty(t, v.Alliances())
	assert.Same(t, p1, v.Winner())
}
