package execution

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

const playerIDLength = 8

// SpawnInfo identifies the player behind a spawn intent.
type SpawnInfo struct {
	ClientID string
	Name     string
	Type     core.PlayerType
}

// SpawnExecution places a player on the map. The first spawn creates the
// player; later spawns during the spawn phase move it.
type SpawnExecution struct {
	oneShot
	info SpawnInfo
	cell core.Cell
}

func NewSpawnExecution(info SpawnInfo, cell core.Cell) *SpawnExecution {
	return &SpawnExecution{info: info, cell: cell}
}

func (s *SpawnExecution) ActiveDuringSpawnPhase() bool { return true }

// Init does all the work so the territory is visible in the diff of the tick
// the intent lands in.
func (s *SpawnExecution) Init(e *game.Engine, tick int) {
	s.done = true
	logger := e.Logger().With().Str("client_id", s.info.ClientID).Int("tick", tick).Logger()

	if !e.InSpawnPhase() {
		logger.Debug().Msg("Spawn outside spawn phase ignored")
		return
	}

	m := e.Map()
	center := m.RefOf(s.cell)
	existing, known := e.PlayerByClientID(s.info.ClientID)
	if !m.IsLand(center) {
		logger.Debug().Str("cell", s.cell.String()).Msg("Spawn on water ignored")
		return
	}
	if owner := e.Owner(center); owner != nil && owner != existing {
		logger.Debug().Str("cell", s.cell.String()).Msg("Spawn on foreign territory ignored")
		return
	}

	p := existing
	if !known {
		p = e.AddPlayer(game.PlayerInfo{
			ID:       newPlayerID(e),
			ClientID: s.info.ClientID,
			Name:     s.info.Name,
			Type:     s.info.Type,
		})
	}

	for _, ref := range p.Tiles() {
		e.Relinquish(ref)
	}
	for _, ref := range m.TilesInRadius(center, e.Config().SpawnRadius) {
		if m.IsLand(ref) && !m.HasOwner(ref) {
			e.Conquer(p, ref)
		}
	}

	if p.HasSpawned() {
		logger.Debug().Str("player_id", string(p.ID())).Msg("Player re-spawned")
		return
	}

	pop := e.Config().Population
	troops := pop.StartTroops
	if p.Type() == core.PlayerBot {
		troops = pop.BotStartTroops
	}
	e.SetTroops(p, troops)
	e.AddWorkers(p, pop.StartWorkers-p.Workers())
	e.MarkSpawned(p)

	e.AddExecution(NewPlayerExecution(p.ID()))
	if p.Type() != core.PlayerHuman {
		e.AddExecution(NewBotExecution(p.ID()))
	}

	logger.Info().
		Str("player_id", string(p.ID())).
		Str("name", p.Name()).
		Int("tiles", p.NumTilesOwned()).
		Msg("Player spawned")
}

// newPlayerID draws ids from the tick generator until one is unused.
func newPlayerID(e *game.Engine) core.PlayerID {
	for {
		id := core.PlayerID(e.Random().NextID(playerIDLength))
		if !e.HasPlayer(id) {
			return id
		}
	}
}
