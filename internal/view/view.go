// Package view is the read-only mirror of a simulation, built purely from
// the diffs and snapshots the simulation emits.
package view

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

var ErrStaleUpdate = errors.New("update is not newer than the view")

// GameView applies diffs in tick order. Update and Load are the only
// writers; everything else may be called concurrently between them.
type GameView struct {
	mu      sync.RWMutex
	terrain *core.GameMap
	tiles   *core.GameMap
	logger  zerolog.Logger

	tick      int
	players   map[string]*PlayerView
	bySmallID map[core.SmallID]*PlayerView
	units     map[int]*UnitView
	// units reported inactive by the last update, removed by the next one
	retiring  []int
	alliances map[int]protocol.AllianceUpdate
	winner    core.SmallID
	lastHash  protocol.HashUpdate
	hasHash   bool

	displayEvents []protocol.DisplayEventUpdate
	emojis        []protocol.EmojiUpdate
}

// NewGameView creates an empty view over the terrain of m. Tile ownership
// in m is ignored.
func NewGameView(m *core.GameMap, logger zerolog.Logger) *GameView {
	v := &GameView{
		terrain: m,
		logger:  logger.With().Str("component", "GameView").Logger(),
	}
	v.reset()
	return v
}

func (v *GameView) reset() {
	v.tiles = v.terrain.Clone()
	for i := 0; i < v.tiles.Size(); i++ {
		v.tiles.ApplyTileState(core.TileRef(i), core.NoOwner, 0)
	}
	v.tick = 0
	v.players = make(map[string]*PlayerView)
	v.bySmallID = make(map[core.SmallID]*PlayerView)
	v.units = make(map[int]*UnitView)
	v.retiring = nil
	v.alliances = make(map[int]protocol.AllianceUpdate)
	v.winner = core.NoOwner
	v.lastHash = protocol.HashUpdate{}
	v.hasHash = false
	v.displayEvents = nil
	v.emojis = nil
}

// Update applies the diff of one tick. Diffs must arrive in increasing tick
// order; an older or repeated diff is rejected and leaves the view as is.
func (v *GameView) Update(gu *protocol.GameUpdateViewData) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gu.Tick <= v.tick && v.tick > 0 {
		return fmt.Errorf("update tick %d at view tick %d: %w", gu.Tick, v.tick, ErrStaleUpdate)
	}
	return v.apply(gu)
}

// Load replaces the whole view with a snapshot.
func (v *GameView) Load(snapshot *protocol.GameUpdateViewData) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.reset()
	return v.apply(snapshot)
}

func (v *GameView) apply(gu *protocol.GameUpdateViewData) error {
	for _, id := range v.retiring {
		if u, ok := v.units[id]; ok && !u.data.IsActive {
			delete(v.units, id)
		}
	}
	v.retiring = v.retiring[:0]

	for _, packed := range gu.PackedTileUpdates {
		t := protocol.UnpackTile(packed)
		if !v.tiles.IsValidCoord(t.X, t.Y) {
			return fmt.Errorf("tile (%d,%d): %w", t.X, t.Y, core.ErrOutOfBounds)
		}
		v.tiles.ApplyTileState(v.tiles.Ref(t.X, t.Y), t.Owner, t.Flags)
	}

	u := &gu.Updates
	for _, pu := range u.Players {
		if p, ok := v.players[pu.ID]; ok {
			p.data = pu
			continue
		}
		p := &PlayerView{data: pu}
		v.players[pu.ID] = p
		v.bySmallID[pu.SmallID] = p
	}
	for _, uu := range u.Units {
		if unit, ok := v.units[uu.ID]; ok {
			unit.data = uu
		} else {
			v.units[uu.ID] = &UnitView{data: uu}
		}
		if !uu.IsActive {
			v.retiring = append(v.retiring, uu.ID)
		}
	}
	for _, al := range u.Alliances {
		v.alliances[al.ID] = al
	}
	for _, b := range u.BrokeAlliances {
		v.removeAlliance(b.Traitor, b.Betrayed)
	}
	for _, x := range u.AlliancesExpired {
		v.removeAlliance(x.Player1, x.Player2)
	}
	for _, w := range u.Wins {
		if v.winner == core.NoOwner {
			v.winner = w.Winner
		}
	}
	if h, ok := gu.LastHash(); ok {
		v.lastHash, v.hasHash = h, true
	}
	for _, nv := range gu.NameViewData {
		if p, ok := v.players[nv.PlayerID]; ok {
			p.name = nv
		}
	}
	v.displayEvents = append(v.displayEvents, u.DisplayEvents...)
	v.emojis = append(v.emojis, u.Emojis...)
	v.tick = gu.Tick
	return nil
}

func (v *GameView) removeAlliance(a, b core.SmallID) {
	for id, al := range v.alliances {
		if (al.Requestor == a && al.Recipient == b) || (al.Requestor == b && al.Recipient == a) {
			delete(v.alliances, id)
		}
	}
}

// AddDisplayEvent queues a locally produced message next to the ones
// received from the simulation.
func (v *GameView) AddDisplayEvent(ev protocol.DisplayEventUpdate) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.displayEvents = append(v.displayEvents, ev)
}

// DisplayEvents returns and clears the queued messages.
func (v *GameView) DisplayEvents() []protocol.DisplayEventUpdate {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.displayEvents
	v.displayEvents = nil
	return out
}

// Emojis returns and clears the queued emojis.
func (v *GameView) Emojis() []protocol.EmojiUpdate {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.emojis
	v.emojis = nil
	return out
}

func (v *GameView) Tick() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tick
}

// Map returns the terrain the view was built on.
func (v *GameView) Map() *core.GameMap { return v.terrain }

func (v *GameView) Player(id string) (*PlayerView, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	p, ok := v.players[id]
	return p, ok
}

// PlayerBySmallID returns nil for core.NoOwner and unknown ids.
func (v *GameView) PlayerBySmallID(id core.SmallID) *PlayerView {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.bySmallID[id]
}

// Players returns every known player ordered by small id.
func (v *GameView) Players() []*PlayerView {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*PlayerView, 0, len(v.players))
	for _, p := range v.players {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *PlayerView) int { return int(a.SmallID()) - int(b.SmallID()) })
	return out
}

func (v *GameView) Unit(id int) (*UnitView, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	u, ok := v.units[id]
	return u, ok
}

// Units returns the units of the given types, or all units, ordered by id.
// Units deactivated by the last update are included.
func (v *GameView) Units(types ...core.UnitType) []*UnitView {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []*UnitView
	for _, u := range v.units {
		if len(types) == 0 || slices.Contains(types, u.Type()) {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b *UnitView) int { return a.ID() - b.ID() })
	return out
}

// Owner returns nil for unowned tiles.
func (v *GameView) Owner(ref core.TileRef) *PlayerView {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.bySmallID[v.tiles.OwnerID(ref)]
}

func (v *GameView) OwnerID(ref core.TileRef) core.SmallID {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tiles.OwnerID(ref)
}

func (v *GameView) IsBorder(ref core.TileRef) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tiles.IsBorder(ref)
}

func (v *GameView) HasFallout(ref core.TileRef) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tiles.HasFallout(ref)
}

func (v *GameView) HasDefenseBonus(ref core.TileRef) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tiles.HasDefenseBonus(ref)
}

// Winner returns nil while the game is undecided.
func (v *GameView) Winner() *PlayerView {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.bySmallID[v.winner]
}

// LastHash returns the most recent tick hash received.
func (v *GameView) LastHash() (protocol.HashUpdate, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastHash, v.hasHash
}

// Alliances returns the live alliances ordered by id.
func (v *GameView) Alliances() []protocol.AllianceUpdate {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]protocol.AllianceUpdate, 0, len(v.alliances))
	for _, al := range v.alliances {
		out = append(out, al)
	}
	slices.SortFunc(out, func(a, b protocol.AllianceUpdate) int { return a.ID - b.ID })
	return out
}

// Snapshot renders the view back into snapshot form, in the same order the
// engine uses, so a view can be compared with the engine it mirrors.
func (v *GameView) Snapshot() *protocol.GameUpdateViewData {
	players := v.Players()
	units := v.Units()
	alliances := v.Alliances()

	v.mu.RLock()
	defer v.mu.RUnlock()

	gu := &protocol.GameUpdateViewData{Tick: v.tick}
	for _, p := range players {
		gu.Updates.Players = append(gu.Updates.Players, p.data)
	}
	for _, u := range units {
		gu.Updates.Units = append(gu.Updates.Units, u.data)
	}
	gu.Updates.Alliances = alliances
	if len(alliances) == 0 {
		gu.Updates.Alliances = nil
	}
	if w := v.bySmallID[v.winner]; w != nil {
		gu.Updates.Wins = []protocol.WinUpdate{{Winner: w.SmallID(), WinnerID: w.ID()}}
	}
	if v.hasHash {
		gu.Updates.Hashes = []protocol.HashUpdate{v.lastHash}
	}
	for i := 0; i < v.tiles.Size(); i++ {
		ref := core.TileRef(i)
		if !v.tiles.IsDefaultState(ref) {
			gu.PackedTileUpdates = append(gu.PackedTileUpdates, protocol.PackMapTile(v.tiles, ref))
		}
	}
	return gu
}
