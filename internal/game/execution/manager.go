// Package execution turns player intents into engine executions and holds
// every per-tick behaviour of the simulation.
package execution

import (
	"github.com/rs/zerolog"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

// Manager is the execution factory of one game.
type Manager struct {
	gameID string
	cfg    config.GameConfig
	logger zerolog.Logger
}

// NewManager creates a new execution manager
func NewManager(gameID string, cfg config.GameConfig, logger zerolog.Logger) *Manager {
	return &Manager{
		gameID: gameID,
		cfg:    cfg,
		logger: logger.With().Str("component", "ExecutionManager").Logger(),
	}
}

// CreateExecs maps the intents of turn to executions, in intent order.
// Player references are resolved when each execution is initialized, so an
// unknown client id turns into a logged no-op there.
func (m *Manager) CreateExecs(turn protocol.Turn) []game.Execution {
	execs := make([]game.Execution, 0, len(turn.Intents))
	for _, intent := range turn.Intents {
		if exec := m.createExec(intent); exec != nil {
			execs = append(execs, exec)
		}
	}
	return execs
}

func (m *Manager) createExec(intent protocol.Intent) game.Execution {
	switch intent.Type {
	case protocol.IntentSpawn:
		pt := intent.PlayerType
		return NewSpawnExecution(SpawnInfo{ClientID: intent.ClientID, Name: intent.Name, Type: pt}, intent.Cell)
	case protocol.IntentAttack:
		return NewAttackExecution(intent.ClientID, intent.TargetID, intent.Troops)
	case protocol.IntentCancelAttack:
		return NewCancelAttackExecution(intent.ClientID, intent.AttackID)
	case protocol.IntentBoat:
		return NewTransportShipExecution(intent.ClientID, intent.TargetID, intent.Troops, intent.Cell, intent.SpawnCell)
	case protocol.IntentAllianceRequest:
		return NewAllianceRequestExecution(intent.ClientID, intent.Recipient)
	case protocol.IntentAllianceRequestReply:
		return NewAllianceReplyExecution(intent.Requestor, intent.ClientID, intent.Accept)
	case protocol.IntentBreakAlliance:
		return NewBreakAllianceExecution(intent.ClientID, intent.Recipient)
	case protocol.IntentTargetPlayer:
		return NewTargetPlayerExecution(intent.ClientID, intent.Recipient)
	case protocol.IntentEmoji:
		return NewEmojiExecution(intent.ClientID, intent.Recipient, intent.Emoji)
	case protocol.IntentQuickChat:
		return NewQuickChatExecution(intent.ClientID, intent.Recipient, intent.QuickChatKey)
	case protocol.IntentDonateTroops:
		return NewDonateTroopsExecution(intent.ClientID, intent.Recipient, intent.Troops)
	case protocol.IntentDonateGold:
		return NewDonateGoldExecution(intent.ClientID, intent.Recipient, intent.Gold)
	case protocol.IntentEmbargo:
		return NewEmbargoExecution(intent.ClientID, intent.Recipient, intent.Action != "stop")
	case protocol.IntentTroopRatio:
		return NewTroopRatioExecution(intent.ClientID, intent.Ratio)
	case protocol.IntentMarkDisconnected:
		return NewMarkDisconnectedExecution(intent.ClientID, intent.Disconnected)
	case protocol.IntentBuildUnit:
		unit, err := core.ParseUnitType(intent.Unit)
		if err != nil || !unit.Buildable() {
			m.logger.Warn().Str("client_id", intent.ClientID).Str("unit", intent.Unit).Msg("Ignoring build of unknown unit")
			return nil
		}
		return NewConstructionExecution(intent.ClientID, unit, intent.Cell)
	default:
		m.logger.Warn().Str("client_id", intent.ClientID).Str("type", string(intent.Type)).Msg("Unhandled intent type")
		return nil
	}
}

// InitialExecs returns the executions every game starts with: the win check
// and the bot roster. Every client derives the same roster from the game id.
func (m *Manager) InitialExecs(gameMap *core.GameMap) []game.Execution {
	execs := []game.Execution{NewWinCheckExecution()}
	execs = append(execs, NewBotSpawner(m.gameID, m.logger).SpawnBots(gameMap, m.cfg.NumBots)...)
	return execs
}

// lookupPlayer resolves a client id at init time. Missing players are logged
// and reported as absent.
func lookupPlayer(e *game.Engine, clientID, op string) (*game.Player, bool) {
	p, ok := e.PlayerByClientID(clientID)
	if !ok {
		e.Logger().Warn().Str("client_id", clientID).Str("op", op).Msg("Intent from unknown client ignored")
		return nil, false
	}
	if !p.IsAlive() && !e.InSpawnPhase() {
		e.Logger().Debug().Str("client_id", clientID).Str("op", op).Msg("Intent from dead player ignored")
		return nil, false
	}
	return p, true
}

// oneShot is embedded by executions that do all their work in Init.
type oneShot struct {
	done bool
}

func (o *oneShot) Tick(int)       {}
func (o *oneShot) IsActive() bool { return !o.done }
