package game

import (
	"github.com/rs/zerolog"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/events"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

// Execution is a unit of per-tick behaviour owned by the engine. Init runs
// once, on the first tick the execution is eligible; Tick runs on every tick
// after that until IsActive reports false.
type Execution interface {
	Init(e *Engine, tick int)
	Tick(tick int)
	IsActive() bool
	ActiveDuringSpawnPhase() bool
}

// Engine is the authoritative game state. It is driven by one goroutine and
// is not safe for concurrent use.
type Engine struct {
	gameID  string
	cfg     config.GameConfig
	gameMap *core.GameMap
	logger  zerolog.Logger

	bus       *events.EventBus
	collector *UpdateCollector

	seed  int64
	rng   *core.PseudoRandom
	ticks int

	players         []*Player
	playersByID     map[core.PlayerID]*Player
	playersByClient map[string]*Player

	units      []*Unit
	unitsByID  map[int]*Unit
	nextUnitID int

	alliances        []*Alliance
	allianceRequests []*AllianceRequest
	nextAllianceID   int

	attacks      []*Attack
	nextAttackID int

	execs       []Execution
	unInitExecs []Execution

	production *ProductionManager
	winner     core.SmallID
}

// NewEngine creates an engine over m. The engine takes ownership of the map.
func NewEngine(gameID string, m *core.GameMap, cfg config.GameConfig, logger zerolog.Logger) *Engine {
	logger = logger.With().Str("component", "Engine").Str("game_id", gameID).Logger()
	seed := int64(StableHash(gameID) >> 1)

	e := &Engine{
		gameID:          gameID,
		cfg:             cfg,
		gameMap:         m,
		logger:          logger,
		bus:             events.NewEventBusWithLogger(logger),
		collector:       NewUpdateCollector(),
		seed:            seed,
		rng:             core.NewPseudoRandom(seed),
		playersByID:     make(map[core.PlayerID]*Player),
		playersByClient: make(map[string]*Player),
		unitsByID:       make(map[int]*Unit),
	}
	e.production = NewProductionManager(&e.cfg.Population, logger)
	e.bus.Subscribe(e.collector)
	return e
}

func (e *Engine) GameID() string          { return e.gameID }
func (e *Engine) Map() *core.GameMap      { return e.gameMap }
func (e *Engine) Ticks() int              { return e.ticks }
func (e *Engine) Logger() *zerolog.Logger { return &e.logger }

// Config returns the game settings. Callers must not modify them.
func (e *Engine) Config() *config.GameConfig { return &e.cfg }

// Bus exposes the event bus so observers (loggers, tests) can subscribe.
func (e *Engine) Bus() events.Bus { return e.bus }

// InSpawnPhase reports whether players may still pick or move their spawn.
func (e *Engine) InSpawnPhase() bool {
	return e.ticks <= e.cfg.SpawnPhaseTurns
}

// Random returns the generator for the current tick. It is reseeded at the
// start of every tick.
func (e *Engine) Random() *core.PseudoRandom { return e.rng }

// NewRandom derives an independent generator, for executions that keep their
// own sequence across ticks.
func (e *Engine) NewRandom() *core.PseudoRandom {
	return core.NewPseudoRandom(e.rng.Int63())
}

// AddExecution queues execs. They are initialized on the next tick.
func (e *Engine) AddExecution(execs ...Execution) {
	e.unInitExecs = append(e.unInitExecs, execs...)
}

// NumExecutions returns the counts of running and not yet initialized
// executions.
func (e *Engine) NumExecutions() (active, pending int) {
	return len(e.execs), len(e.unInitExecs)
}

// ExecuteNextTick advances the simulation by one tick and returns the diff of
// everything that changed, labelled with the new tick.
func (e *Engine) ExecuteNextTick() *protocol.GameUpdateViewData {
	e.rng = core.NewPseudoRandom(core.TickSeed(e.seed, e.ticks))
	e.dropInactiveUnits()

	spawnPhase := e.InSpawnPhase()
	for _, exec := range e.execs {
		if spawnPhase && !exec.ActiveDuringSpawnPhase() {
			continue
		}
		if exec.IsActive() {
			exec.Tick(e.ticks)
		}
	}

	pending := e.unInitExecs
	e.unInitExecs = nil
	var deferred []Execution
	for _, exec := range pending {
		if spawnPhase && !exec.ActiveDuringSpawnPhase() {
			deferred = append(deferred, exec)
			continue
		}
		exec.Init(e, e.ticks)
		e.execs = append(e.execs, exec)
	}
	// Executions queued during Init go behind the ones still waiting.
	e.unInitExecs = append(deferred, e.unInitExecs...)

	live := e.execs[:0]
	for _, exec := range e.execs {
		if exec.IsActive() {
			live = append(live, exec)
		}
	}
	for i := len(live); i < len(e.execs); i++ {
		e.execs[i] = nil
	}
	e.execs = live

	e.ticks++
	e.expireTargets()
	hash := e.Hash()
	e.publish(events.NewTickHashedEvent(e.gameID, e.ticks, hash))

	e.logger.Debug().
		Int("tick", e.ticks).
		Int("executions", len(e.execs)).
		Uint64("hash", hash).
		Msg("Tick executed")

	return e.collector.Flush(e, e.ticks)
}

func (e *Engine) publish(ev events.Event) {
	e.bus.Publish(ev)
}

// DisplayMessage sends a user-facing message. A nil player addresses
// everyone.
func (e *Engine) DisplayMessage(message, messageType string, p *Player) {
	to := core.NoOwner
	if p != nil {
		to = p.smallID
	}
	e.publish(events.NewDisplayMessageEvent(e.gameID, e.ticks, message, messageType, to))
}

// SendEmoji broadcasts when recipient is nil.
func (e *Engine) SendEmoji(sender, recipient *Player, emoji string) {
	to := core.NoOwner
	if recipient != nil {
		to = recipient.smallID
	}
	e.publish(events.NewEmojiEvent(e.gameID, e.ticks, sender.smallID, to, emoji))
}

// SetWinner records the winner. Only the first call has an effect, so a game
// reports exactly one win.
func (e *Engine) SetWinner(p *Player) bool {
	if e.winner != core.NoOwner {
		return false
	}
	e.winner = p.smallID
	e.logger.Info().Str("winner", string(p.id)).Int("tick", e.ticks).Msg("Game won")
	e.publish(events.NewPlayerWonEvent(e.gameID, e.ticks, p.smallID))
	return true
}

// Winner returns nil while the game is undecided.
func (e *Engine) Winner() *Player {
	if e.winner == core.NoOwner {
		return nil
	}
	return e.PlayerBySmallID(e.winner)
}
