package events

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

// Event type constants
const (
	TypeTileChanged       = "tile.changed"
	TypeUnitChanged       = "unit.changed"
	TypePlayerChanged     = "player.changed"
	TypePlayerEliminated  = "player.eliminated"
	TypeAllianceRequested = "alliance.requested"
	TypeAllianceReplied   = "alliance.replied"
	TypeAllianceFormed    = "alliance.formed"
	TypeAllianceBroken    = "alliance.broken"
	TypeAllianceExpired   = "alliance.expired"
	TypeTargetPlayer      = "player.targeted"
	TypeEmoji             = "player.emoji"
	TypeDisplayMessage    = "display.message"
	TypePlayerWon         = "player.won"
	TypeTickHashed        = "tick.hashed"
	TypeStateTransition   = "state.transition"
)

// TileChangedEvent is published when a tile's owner or flags change
type TileChangedEvent struct {
	BaseEvent
	Tile core.TileRef
}

// NewTileChangedEvent creates a new TileChangedEvent
func NewTileChangedEvent(gameID string, tick int, tile core.TileRef) *TileChangedEvent {
	return &TileChangedEvent{
		BaseEvent: BaseEvent{EventType: TypeTileChanged, EventTick: tick, Game: gameID},
		Tile:      tile,
	}
}

// UnitChangedEvent is published when any field of a unit changes, including
// its creation and deactivation
type UnitChangedEvent struct {
	BaseEvent
	UnitID int
}

// NewUnitChangedEvent creates a new UnitChangedEvent
func NewUnitChangedEvent(gameID string, tick int, unitID int) *UnitChangedEvent {
	return &UnitChangedEvent{
		BaseEvent: BaseEvent{EventType: TypeUnitChanged, EventTick: tick, Game: gameID},
		UnitID:    unitID,
	}
}

// PlayerChangedEvent is published when a player's observable state changes
type PlayerChangedEvent struct {
	BaseEvent
	Player core.SmallID
}

// NewPlayerChangedEvent creates a new PlayerChangedEvent
func NewPlayerChangedEvent(gameID string, tick int, player core.SmallID) *PlayerChangedEvent {
	return &PlayerChangedEvent{
		BaseEvent: BaseEvent{EventType: TypePlayerChanged, EventTick: tick, Game: gameID},
		Player:    player,
	}
}

// PlayerEliminatedEvent is published when a player loses its last tile after
// the spawn phase
type PlayerEliminatedEvent struct {
	BaseEvent
	Player core.SmallID
}

// NewPlayerEliminatedEvent creates a new PlayerEliminatedEvent
func NewPlayerEliminatedEvent(gameID string, tick int, player core.SmallID) *PlayerEliminatedEvent {
	return &PlayerEliminatedEvent{
		BaseEvent: BaseEvent{EventType: TypePlayerEliminated, EventTick: tick, Game: gameID},
		Player:    player,
	}
}

// AllianceRequestedEvent is published when a new alliance request is stored
type AllianceRequestedEvent struct {
	BaseEvent
	Requestor core.SmallID
	Recipient core.SmallID
}

// NewAllianceRequestedEvent creates a new AllianceRequestedEvent
func NewAllianceRequestedEvent(gameID string, tick int, requestor, recipient core.SmallID) *AllianceRequestedEvent {
	return &AllianceRequestedEvent{
		BaseEvent: BaseEvent{EventType: TypeAllianceRequested, EventTick: tick, Game: gameID},
		Requestor: requestor,
		Recipient: recipient,
	}
}

// AllianceRepliedEvent is published when a pending request is answered
type AllianceRepliedEvent struct {
	BaseEvent
	Requestor core.SmallID
	Recipient core.SmallID
	Accepted  bool
}

// NewAllianceRepliedEvent creates a new AllianceRepliedEvent
func NewAllianceRepliedEvent(gameID string, tick int, requestor, recipient core.SmallID, accepted bool) *AllianceRepliedEvent {
	return &AllianceRepliedEvent{
		BaseEvent: BaseEvent{EventType: TypeAllianceReplied, EventTick: tick, Game: gameID},
		Requestor: requestor,
		Recipient: recipient,
		Accepted:  accepted,
	}
}

// AllianceFormedEvent is published when an alliance is created
type AllianceFormedEvent struct {
	BaseEvent
	AllianceID int
	Requestor  core.SmallID
	Recipient  core.SmallID
}

// NewAllianceFormedEvent creates a new AllianceFormedEvent
func NewAllianceFormedEvent(gameID string, tick, allianceID int, requestor, recipient core.SmallID) *AllianceFormedEvent {
	return &AllianceFormedEvent{
		BaseEvent:  BaseEvent{EventType: TypeAllianceFormed, EventTick: tick, Game: gameID},
		AllianceID: allianceID,
		Requestor:  requestor,
		Recipient:  recipient,
	}
}

// AllianceBrokenEvent is published when a player breaks an alliance
type AllianceBrokenEvent struct {
	BaseEvent
	Traitor  core.SmallID
	Betrayed core.SmallID
}

// NewAllianceBrokenEvent creates a new AllianceBrokenEvent
func NewAllianceBrokenEvent(gameID string, tick int, traitor, betrayed core.SmallID) *AllianceBrokenEvent {
	return &AllianceBrokenEvent{
		BaseEvent: BaseEvent{EventType: TypeAllianceBroken, EventTick: tick, Game: gameID},
		Traitor:   traitor,
		Betrayed:  betrayed,
	}
}

// AllianceExpiredEvent is published when an alliance runs out
type AllianceExpiredEvent struct {
	BaseEvent
	Player1 core.SmallID
	Player2 core.SmallID
}

// NewAllianceExpiredEvent creates a new AllianceExpiredEvent
func NewAllianceExpiredEvent(gameID string, tick int, p1, p2 core.SmallID) *AllianceExpiredEvent {
	return &AllianceExpiredEvent{
		BaseEvent: BaseEvent{EventType: TypeAllianceExpired, EventTick: tick, Game: gameID},
		Player1:   p1,
		Player2:   p2,
	}
}

// TargetPlayerEvent is published when a player marks another as target
type TargetPlayerEvent struct {
	BaseEvent
	Player core.SmallID
	Target core.SmallID
}

// NewTargetPlayerEvent creates a new TargetPlayerEvent
func NewTargetPlayerEvent(gameID string, tick int, player, target core.SmallID) *TargetPlayerEvent {
	return &TargetPlayerEvent{
		BaseEvent: BaseEvent{EventType: TypeTargetPlayer, EventTick: tick, Game: gameID},
		Player:    player,
		Target:    target,
	}
}

// EmojiEvent is published when a player sends an emoji. Recipient is
// core.NoOwner for a broadcast.
type EmojiEvent struct {
	BaseEvent
	Sender    core.SmallID
	Recipient core.SmallID
	Emoji     string
}

// NewEmojiEvent creates a new EmojiEvent
func NewEmojiEvent(gameID string, tick int, sender, recipient core.SmallID, emoji string) *EmojiEvent {
	return &EmojiEvent{
		BaseEvent: BaseEvent{EventType: TypeEmoji, EventTick: tick, Game: gameID},
		Sender:    sender,
		Recipient: recipient,
		Emoji:     emoji,
	}
}

// DisplayMessageEvent carries a user-facing message. Player is core.NoOwner
// when the message is meant for everyone.
type DisplayMessageEvent struct {
	BaseEvent
	Message     string
	MessageType string
	Player      core.SmallID
}

// NewDisplayMessageEvent creates a new DisplayMessageEvent
func NewDisplayMessageEvent(gameID string, tick int, message, messageType string, player core.SmallID) *DisplayMessageEvent {
	return &DisplayMessageEvent{
		BaseEvent:   BaseEvent{EventType: TypeDisplayMessage, EventTick: tick, Game: gameID},
		Message:     message,
		MessageType: messageType,
		Player:      player,
	}
}

// PlayerWonEvent is published once when a winner is decided
type PlayerWonEvent struct {
	BaseEvent
	Winner core.SmallID
}

// NewPlayerWonEvent creates a new PlayerWonEvent
func NewPlayerWonEvent(gameID string, tick int, winner core.SmallID) *PlayerWonEvent {
	return &PlayerWonEvent{
		BaseEvent: BaseEvent{EventType: TypePlayerWon, EventTick: tick, Game: gameID},
		Winner:    winner,
	}
}

// TickHashedEvent is published after each tick with the consistency hash
type TickHashedEvent struct {
	BaseEvent
	Hash uint64
}

// NewTickHashedEvent creates a new TickHashedEvent
func NewTickHashedEvent(gameID string, tick int, hash uint64) *TickHashedEvent {
	return &TickHashedEvent{
		BaseEvent: BaseEvent{EventType: TypeTickHashed, EventTick: tick, Game: gameID},
		Hash:      hash,
	}
}

// StateTransitionEvent is published when a simulation changes lifecycle phase
type StateTransitionEvent struct {
	BaseEvent
	FromState string
	ToState   string
	Reason    string
}

// NewStateTransitionEvent creates a new StateTransitionEvent
func NewStateTransitionEvent(gameID string, tick int, from, to, reason string) *StateTransitionEvent {
	return &StateTransitionEvent{
		BaseEvent: BaseEvent{EventType: TypeStateTransition, EventTick: tick, Game: gameID},
		FromState: from,
		ToState:   to,
		Reason:    reason,
	}
}
