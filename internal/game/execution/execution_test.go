package execution

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/mapgen"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

// plainsMap builds a plains map with an ocean column at x == 0.
func plainsMap(t testing.TB, w, h int) *core.GameMap {
	terrain := make([]core.TerrainType, w*h)
	for i := range terrain {
		terrain[i] = core.TerrainPlains
		if i%w == 0 {
			terrain[i] = core.TerrainOcean
		}
	}
	m, err := core.NewGameMap(w, h, terrain)
	require.NoError(t, err)
	return m
}

func testConfig() config.GameConfig {
	cfg := config.DefaultGameConfig()
	cfg.SpawnPhaseTurns = 2
	cfg.SpawnRadius = 2
	cfg.NumBots = 0
	return cfg
}

type harness struct {
	t       testing.TB
	e       *game.Engine
	tp      *game.TurnProcessor
	mgr     *Manager
	updates []*protocol.GameUpdateViewData
}

func newHarness(t testing.TB, gameID string, m *core.GameMap, cfg config.GameConfig) *harness {
	e := game.NewEngine(gameID, m, cfg, zerolog.Nop())
	mgr := NewManager(gameID, cfg, zerolog.Nop())
	return &harness{t: t, e: e, tp: game.NewTurnProcessor(e, mgr), mgr: mgr}
}

// turn applies the next turn with the given intents.
func (h *harness) turn(intents ...protocol.Intent) *protocol.GameUpdateViewData {
	gu, err := h.tp.ProcessTurn(context.Background(), protocol.Turn{TurnNumber: h.e.Ticks(), Intents: intents})
	require.NoError(h.t, err)
	h.updates = append(h.updates, gu)
	return gu
}

// runTo applies empty turns until the engine reaches tick.
func (h *harness) runTo(tick int) {
	for h.e.Ticks() < tick {
		h.turn()
	}
}

func (h *harness) player(clientID string) *game.Player {
	p, ok := h.e.PlayerByClientID(clientID)
	require.True(h.t, ok, "player %s", clientID)
	return p
}

func (h *harness) ref(x, y int) core.TileRef {
	return h.e.Map().Ref(x, y)
}

func assertExclusiveOwnership(t *testing.T, e *game.Engine) {
	t.Helper()
	m := e.Map()
	owned := 0
	for i := 0; i < m.Size(); i++ {
		ref := core.TileRef(i)
		if !m.HasOwner(ref) {
			continue
		}
		owned++
		assert.True(t, e.Owner(ref).OwnsTile(ref))
	}
	total := 0
	for _, p := range e.AllPlayers() {
		total += p.NumTilesOwned()
	}
	assert.Equal(t, owned, total, "every owned tile belongs to exactly one player")
}

func TestManager_CreateExecs(t *testing.T) {
	mgr := NewManager("g", testConfig(), zerolog.Nop())
	execs := mgr.CreateExecs(protocol.Turn{Intents: []protocol.Intent{
		protocol.SpawnIntent("a", "A", core.NewCell(1, 1)),
		{Type: protocol.IntentBuildUnit, ClientID: "a", Unit: "Nope"},
		{Type: protocol.IntentBuildUnit, ClientID: "a", Unit: "Shell"},
		protocol.AttackIntent("a", "", 10),
		{Type: "unknown", ClientID: "a"},
		protocol.TroopRatioIntent("a", 40),
	}})

	require.Len(t, execs, 3)
	assert.IsType(t, &SpawnExecution{}, execs[0])
	assert.IsType(t, &AttackExecution{}, execs[1])
	assert.IsType(t, &TroopRatioExecution{}, execs[2])
}

func TestManager_InitialExecs(t *testing.T) {
	cfg := testConfig()
	cfg.NumBots = 3
	m := plainsMap(t, 60, 40)

	first := NewManager("game-1", cfg, zerolog.Nop()).InitialExecs(m)
	again := NewManager("game-1", cfg, zerolog.Nop()).InitialExecs(m)
	require.Len(t, first, 4)
	assert.IsType(t, &WinCheckExecution{}, first[0])
	assert.Equal(t, first, again, "the roster is a function of the game id")

	other := NewManager("game-2", cfg, zerolog.Nop()).InitialExecs(m)
	assert.NotEqual(t, first[1], other[1])
}

func TestSpawn(t *testing.T) {
	h := newHarness(t, "spawn", plainsMap(t, 20, 12), testConfig())

	gu := h.turn(protocol.SpawnIntent("a", "Alice", core.NewCell(5, 5)))
	a := h.player("a")
	assert.Equal(t, 13, a.NumTilesOwned())
	assert.True(t, a.HasSpawned())
	assert.Equal(t, h.e.Config().Population.StartTroops, a.Troops())
	assert.Equal(t, a, h.e.Owner(h.ref(5, 5)))
	assert.Len(t, gu.PackedTileUpdates, 13, "territory is visible in the tick the spawn lands")

	t.Run("respawn moves the territory", func(t *testing.T) {
		h.turn(protocol.SpawnIntent("a", "Alice", core.NewCell(14, 5)))
		assert.Nil(t, h.e.Owner(h.ref(5, 5)))
		assert.Equal(t, a, h.e.Owner(h.ref(14, 5)))
		assert.Equal(t, 13, a.NumTilesOwned())
		assertExclusiveOwnership(t, h.e)
	})

	t.Run("water and foreign land are ignored", func(t *testing.T) {
		h.turn(
			protocol.SpawnIntent("b", "Bob", core.NewCell(0, 3)),
			protocol.SpawnIntent("c", "Carol", core.NewCell(14, 5)),
		)
		_, ok := h.e.PlayerByClientID("b")
		assert.False(t, ok)
		_, ok = h.e.PlayerByClientID("c")
		assert.False(t, ok)
	})

	t.Run("spawn after the spawn phase is ignored", func(t *testing.T) {
		h.runTo(3)
		h.turn(protocol.SpawnIntent("d", "Dan", core.NewCell(5, 5)))
		_, ok := h.e.PlayerByClientID("d")
		assert.False(t, ok)
	})
}

func TestSpawn_OutOfBoundsIsFatal(t *testing.T) {
	h := newHarness(t, "oob", plainsMap(t, 10, 10), testConfig())
	defer func() {
		fe, ok := core.AsFatal(recover())
		require.True(t, ok)
		assert.ErrorIs(t, fe, core.ErrOutOfBounds)
	}()
	h.turn(protocol.SpawnIntent("a", "A", core.NewCell(50, 50)))
}

func TestAttack_PhaseGatingAndExpansion(t *testing.T) {
	h := newHarness(t, "expand", plainsMap(t, 20, 12), testConfig())
	h.turn(protocol.SpawnIntent("a", "A", core.NewCell(5, 5)))
	a := h.player("a")

	h.turn(protocol.AttackIntent("a", "", 1000))
	h.runTo(3)
	_, pending := h.e.NumExecutions()
	assert.Greater(t, pending, 0, "attacks wait for the spawn phase to end")
	assert.Equal(t, 13, a.NumTilesOwned())

	h.runTo(8)
	assert.Greater(t, a.NumTilesOwned(), 13)
	assertExclusiveOwnership(t, h.e)
}

func TestAttack_AgainstPlayerAndCancel(t *testing.T) {
	h := newHarness(t, "cancel", plainsMap(t, 20, 12), testConfig())
	h.turn(
		protocol.SpawnIntent("a", "A", core.NewCell(5, 5)),
		protocol.SpawnIntent("b", "B", core.NewCell(9, 5)),
	)
	a, b := h.player("a"), h.player("b")
	h.runTo(3)
	require.True(t, h.e.SharesBorder(a, b))
	h.e.SetTroops(b, 100)

	h.turn(protocol.AttackIntent("a", "b", 1000))
	attacks := h.e.OutgoingAttacks(a)
	require.Len(t, attacks, 1)
	assert.Equal(t, b.SmallID(), attacks[0].Target())
	bTiles := b.NumTilesOwned()

	h.turn(protocol.CancelAttackIntent("a", attacks[0].ID()))
	assert.True(t, attacks[0].Retreating())
	assert.Less(t, b.NumTilesOwned(), bTiles, "the attack took tiles before retreating")

	h.turn()
	assert.Empty(t, h.e.OutgoingAttacks(a))
	assert.False(t, attacks[0].IsActive())
	assertExclusiveOwnership(t, h.e)
}

func TestAttack_MergesAndCancelsOpposing(t *testing.T) {
	h := newHarness(t, "merge", plainsMap(t, 20, 12), testConfig())
	h.turn(
		protocol.SpawnIntent("a", "A", core.NewCell(5, 5)),
		protocol.SpawnIntent("b", "B", core.NewCell(9, 5)),
	)
	a, b := h.player("a"), h.player("b")
	h.runTo(3)
	h.e.SetTroops(b, 100)

	h.turn(protocol.AttackIntent("a", "b", 500), protocol.AttackIntent("a", "b", 300))
	require.Len(t, h.e.OutgoingAttacks(a), 1, "a second attack on the same target merges")
	assert.Equal(t, 800, h.e.OutgoingAttacks(a)[0].Troops())

	h.turn(protocol.AttackIntent("b", "a", 200))
	assert.Empty(t, h.e.OutgoingAttacks(b), "a smaller counter attack is absorbed")
	assert.Less(t, h.e.OutgoingAttacks(a)[0].Troops(), 800)
}

func TestAlliance_RequestReplyAndBreakByAttack(t *testing.T) {
	h := newHarness(t, "ally", plainsMap(t, 20, 12), testConfig())
	h.turn(
		protocol.SpawnIntent("a", "A", core.NewCell(5, 5)),
		protocol.SpawnIntent("b", "B", core.NewCell(9, 5)),
	)
	a, b := h.player("a"), h.player("b")
	h.runTo(3)

	h.turn(protocol.AllianceRequestIntent("a", "b"))
	require.NotNil(t, h.e.PendingAllianceRequest(a, b))
	h.turn(protocol.AllianceReplyIntent("b", "a", true))
	require.True(t, h.e.IsAlliedWith(a, b))

	h.turn(protocol.Intent{Type: protocol.IntentDonateGold, ClientID: "a", Recipient: "b", Gold: 0})

	h.turn(protocol.AttackIntent("a", "b", 500))
	gu := h.turn()
	assert.False(t, h.e.IsAlliedWith(a, b))
	assert.True(t, a.IsTraitor())
	assert.False(t, b.IsTraitor())
	assert.Len(t, gu.Updates.BrokeAlliances, 1)
}

func TestAlliance_ReciprocalRequestAutoAccepts(t *testing.T) {
	h := newHarness(t, "recip", plainsMap(t, 20, 12), testConfig())
	h.turn(
		protocol.SpawnIntent("a", "A", core.NewCell(5, 5)),
		protocol.SpawnIntent("b", "B", core.NewCell(14, 5)),
	)
	h.runTo(3)
	h.turn(protocol.AllianceRequestIntent("a", "b"), protocol.AllianceRequestIntent("a", "b"))
	assert.Len(t, h.e.AllianceRequests(), 1, "duplicate requests are ignored")
	h.turn(protocol.AllianceRequestIntent("b", "a"))
	assert.True(t, h.e.IsAlliedWith(h.player("a"), h.player("b")))
	assert.Empty(t, h.e.AllianceRequests())
}

func TestRejectedIntentsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	e := game.NewEngine("rejects", plainsMap(t, 20, 12), cfg, zerolog.New(&buf).Level(zerolog.DebugLevel))
	mgr := NewManager("rejects", cfg, zerolog.Nop())
	h := &harness{t: t, e: e, tp: game.NewTurnProcessor(e, mgr), mgr: mgr}

	h.turn(
		protocol.SpawnIntent("a", "A", core.NewCell(5, 5)),
		protocol.SpawnIntent("b", "B", core.NewCell(14, 5)),
	)
	h.runTo(3)
	h.turn(
		protocol.TroopRatioIntent("ghost", 40),
		protocol.AttackIntent("a", "nobody", 10),
		protocol.CancelAttackIntent("a", 999),
		protocol.AllianceReplyIntent("b", "a", true),
		protocol.BreakAllianceIntent("a", "b"),
	)

	out := buf.String()
	for _, msg := range []string{
		"Intent from unknown client ignored",
		"Attack on unknown player ignored",
		"No attack to cancel",
		"Reply to missing alliance request",
		"Not allied",
	} {
		assert.Contains(t, out, msg)
	}
	assert.False(t, h.e.IsAlliedWith(h.player("a"), h.player("b")))
}

func TestInteractions(t *testing.T) {
	h := newHarness(t, "interact", plainsMap(t, 20, 12), testConfig())
	h.turn(
		protocol.SpawnIntent("a", "A", core.NewCell(5, 5)),
		protocol.SpawnIntent("b", "B", core.NewCell(14, 5)),
	)
	a, b := h.player("a"), h.player("b")
	h.runTo(3)

	h.turn(
		protocol.TroopRatioIntent("a", 150),
		protocol.Intent{Type: protocol.IntentEmbargo, ClientID: "a", Recipient: "b", Action: "start"},
		protocol.Intent{Type: protocol.IntentTargetPlayer, ClientID: "a", Recipient: "b"},
		protocol.Intent{Type: protocol.IntentEmoji, ClientID: "a", Recipient: AllPlayers, Emoji: "🙂"},
		protocol.Intent{Type: protocol.IntentMarkDisconnected, ClientID: "b", Disconnected: true},
	)
	assert.Equal(t, 100, a.TargetTroopRatio(), "ratio is clamped")
	assert.True(t, a.HasEmbargoAgainst(b))
	assert.Equal(t, []core.SmallID{b.SmallID()}, a.Targets(h.e.Ticks(), h.e.Config().Alliance.TargetDurationTicks))
	assert.True(t, b.IsDisconnected())

	before := b.Troops()
	gu := h.turn(protocol.Intent{Type: protocol.IntentDonateTroops, ClientID: "a", Recipient: "b", Troops: 100})
	assert.Empty(t, gu.Updates.DisplayEvents, "donations need an alliance")
	assert.GreaterOrEqual(t, b.Troops(), before)

	h.turn(protocol.Intent{Type: protocol.IntentEmbargo, ClientID: "a", Recipient: "b", Action: "stop"})
	assert.False(t, a.HasEmbargoAgainst(b))
}

func TestConstruction_City(t *testing.T) {
	cfg := testConfig()
	cfg.Units.City.ConstructionTicks = 2
	h := newHarness(t, "build", plainsMap(t, 20, 12), cfg)
	h.turn(protocol.SpawnIntent("a", "A", core.NewCell(5, 5)))
	a := h.player("a")
	h.runTo(3)

	h.e.AddGold(a, cfg.Units.City.Cost)
	h.turn(protocol.BuildUnitIntent("a", core.UnitCity, core.NewCell(5, 5)))
	cons := h.e.PlayerUnits(a, core.UnitConstruction)
	require.Len(t, cons, 1)
	assert.Equal(t, core.UnitCity, cons[0].ConstructionType())
	assert.Less(t, a.Gold(), cfg.Units.City.Cost)

	h.turn()
	h.turn()
	assert.Empty(t, h.e.PlayerUnits(a, core.UnitConstruction))
	require.Len(t, h.e.PlayerUnits(a, core.UnitCity), 1)

	t.Run("structures keep their distance", func(t *testing.T) {
		h.e.AddGold(a, cfg.Units.City.Cost)
		h.turn(protocol.BuildUnitIntent("a", core.UnitCity, core.NewCell(5, 6)))
		assert.Empty(t, h.e.PlayerUnits(a, core.UnitConstruction))
	})
}

func TestNuke_Detonation(t *testing.T) {
	cfg := testConfig()
	cfg.Units.MissileSilo.ConstructionTicks = 0
	cfg.Nukes.Speed = 100
	cfg.Nukes.AtomInnerRadius = 1
	cfg.Nukes.AtomOuterRadius = 1
	h := newHarness(t, "nuke", plainsMap(t, 30, 12), cfg)
	h.turn(
		protocol.SpawnIntent("a", "A", core.NewCell(4, 5)),
		protocol.SpawnIntent("b", "B", core.NewCell(20, 5)),
	)
	a, b := h.player("a"), h.player("b")
	h.runTo(3)

	h.e.AddGold(a, cfg.Units.MissileSilo.Cost+cfg.Units.AtomBomb.Cost)
	h.turn(protocol.BuildUnitIntent("a", core.UnitMissileSilo, core.NewCell(4, 5)))
	silos := h.e.PlayerUnits(a, core.UnitMissileSilo)
	require.Len(t, silos, 1)

	h.turn(protocol.BuildUnitIntent("a", core.UnitAtomBomb, core.NewCell(20, 5)))
	assert.Equal(t, h.e.Ticks()-1+cfg.Nukes.SiloCooldown, silos[0].ReadyTick())
	h.turn()
	require.Len(t, h.e.Units(core.UnitAtomBomb), 1)
	bTiles := b.NumTilesOwned()

	h.turn()
	assert.Empty(t, h.e.Units(core.UnitAtomBomb))
	assert.Nil(t, h.e.Owner(h.ref(20, 5)))
	assert.True(t, h.e.Map().HasFallout(h.ref(20, 5)))
	assert.Equal(t, bTiles-5, b.NumTilesOwned())
	assertExclusiveOwnership(t, h.e)
}

func TestWinCheck_DeclaresOneWinner(t *testing.T) {
	cfg := testConfig()
	cfg.SpawnRadius = 20
	h := newHarness(t, "win", plainsMap(t, 10, 10), cfg)
	h.e.AddExecution(NewWinCheckExecution())
	h.turn(protocol.SpawnIntent("a", "A", core.NewCell(5, 5)))
	h.runTo(25)

	wins := 0
	for _, gu := range h.updates {
		for _, w := range gu.Updates.Wins {
			wins++
			assert.Equal(t, string(h.player("a").ID()), w.WinnerID)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, h.player("a"), h.e.Winner())
}

func TestDeterminism_SameTurnsSameHashes(t *testing.T) {
	mapCfg := config.DefaultMapConfig()
	mapCfg.Width, mapCfg.Height = 60, 40
	m, err := mapgen.NewGenerator(mapCfg).Generate()
	require.NoError(t, err)

	cfg := testConfig()
	cfg.NumBots = 4
	cfg.SpawnPhaseTurns = 5

	run := func() []uint64 {
		h := newHarness(t, "determinism", m.Clone(), cfg)
		h.e.AddExecution(h.mgr.InitialExecs(h.e.Map())...)
		var hashes []uint64
		for i := 0; i < 80; i++ {
			var intents []protocol.Intent
			if i == 0 {
				intents = append(intents, protocol.SpawnIntent("human", "H", core.NewCell(30, 20)))
			}
			if i == 10 {
				intents = append(intents, protocol.AttackIntent("human", "", 0))
			}
			gu := h.turn(intents...)
			hu, ok := gu.LastHash()
			require.True(t, ok)
			hashes = append(hashes, hu.Hash)
		}
		assertExclusiveOwnership(t, h.e)
		return hashes
	}

	assert.Equal(t, run(), run())
}
