package execution

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/mapgen"
)

const (
	botActInterval   = 20
	botSpawnSpacing  = 10
	botMinTroops     = 100
	botAcceptOdds    = 3
	botExpandDivisor = 4
	botAttackDivisor = 3
)

// BotExecution is the simple expansion AI run for bots and fake humans.
type BotExecution struct {
	playerID core.PlayerID

	e       *game.Engine
	p       *game.Player
	rng     *core.PseudoRandom
	nextAct int
	active  bool
}

func NewBotExecution(id core.PlayerID) *BotExecution {
	return &BotExecution{playerID: id}
}

func (b *BotExecution) ActiveDuringSpawnPhase() bool { return false }
func (b *BotExecution) IsActive() bool               { return b.active }

func (b *BotExecution) Init(e *game.Engine, tick int) {
	b.e = e
	b.p = e.Player(b.playerID)
	b.rng = e.NewRandom()
	b.nextAct = tick + b.rng.NextInt(0, botActInterval)
	b.active = true
}

func (b *BotExecution) Tick(tick int) {
	if !b.p.IsAlive() {
		b.active = false
		return
	}
	if tick < b.nextAct {
		return
	}
	b.nextAct = tick + botActInterval + b.rng.NextInt(0, botActInterval/2)

	b.answerAllianceRequests()
	if b.p.Troops() < botMinTroops {
		return
	}
	if b.e.BordersUnowned(b.p) {
		b.e.AddExecution(NewAttackExecution(b.p.ClientID(), "", b.p.Troops()/botExpandDivisor))
		return
	}
	if target := b.weakestNeighbor(); target != nil {
		b.e.AddExecution(NewAttackExecution(b.p.ClientID(), target.ClientID(), b.p.Troops()/botAttackDivisor))
	}
}

func (b *BotExecution) answerAllianceRequests() {
	for _, r := range b.e.AllianceRequests() {
		if r.Recipient() != b.p.SmallID() {
			continue
		}
		if b.rng.Chance(botAcceptOdds) {
			b.e.AcceptAllianceRequest(r)
		} else {
			b.e.RejectAllianceRequest(r)
		}
	}
}

// weakestNeighbor returns the non-allied neighbor with the fewest troops,
// if it is weaker than the bot.
func (b *BotExecution) weakestNeighbor() *game.Player {
	var weakest *game.Player
	for _, n := range b.e.Neighbors(b.p) {
		if b.e.IsAlliedWith(b.p, n) {
			continue
		}
		if weakest == nil || n.Troops() < weakest.Troops() {
			weakest = n
		}
	}
	if weakest == nil || weakest.Troops() >= b.p.Troops() {
		return nil
	}
	return weakest
}

var (
	botPrefixes = []string{"Northern", "Southern", "Red", "Iron", "Free", "Grand", "United", "High", "Old", "New"}
	botSuffixes = []string{"Empire", "Republic", "Horde", "Kingdom", "League", "Clans", "Duchy", "Union", "Tribes", "Realm"}
)

// BotSpawner derives the bot roster of a game from its id, so every client
// computes the same bots at the same places.
type BotSpawner struct {
	gameID string
	rng    *core.PseudoRandom
	logger zerolog.Logger
}

func NewBotSpawner(gameID string, logger zerolog.Logger) *BotSpawner {
	return &BotSpawner{
		gameID: gameID,
		rng:    core.NewPseudoRandom(int64(game.StableHash("bots/"+gameID) >> 1)),
		logger: logger.With().Str("component", "BotSpawner").Logger(),
	}
}

// SpawnBots returns spawn executions for up to n bots. Fewer are returned
// when the map runs out of free land.
func (s *BotSpawner) SpawnBots(m *core.GameMap, n int) []game.Execution {
	if n <= 0 {
		return nil
	}
	tiles := mapgen.FindSpawnTiles(m, s.rng, n, botSpawnSpacing, nil)
	execs := make([]game.Execution, 0, len(tiles))
	for i, tile := range tiles {
		info := SpawnInfo{
			ClientID: BotClientID(s.gameID, i),
			Name:     s.botName(i),
			Type:     core.PlayerBot,
		}
		execs = append(execs, NewSpawnExecution(info, m.Cell(tile)))
	}
	if len(tiles) < n {
		s.logger.Warn().Int("requested", n).Int("placed", len(tiles)).Msg("Not enough land for all bots")
	}
	return execs
}

// BotClientID is the deterministic client id of the i-th bot of a game.
func BotClientID(gameID string, i int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(gameID+"/bot/"+strconv.Itoa(i))).String()
}

func (s *BotSpawner) botName(i int) string {
	prefix := botPrefixes[s.rng.NextInt(0, len(botPrefixes))]
	suffix := botSuffixes[s.rng.NextInt(0, len(botSuffixes))]
	return prefix + " " + suffix + " " + strconv.Itoa(i+1)
}
