package execution

import (
	"strconv"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
)

// Message types carried by display events.
const (
	MessageInfo           = "info"
	MessageAllianceBroken = "alliance_broken"
	MessageDonation       = "donation"
	MessageNuke           = "nuke"
	MessageQuickChat      = "quick_chat"
	MessageAttack         = "attack"
)

// AllPlayers is the recipient id that addresses every player.
const AllPlayers = "AllPlayers"

// TargetPlayerExecution marks another player as a target.
type TargetPlayerExecution struct {
	oneShot
	clientID, target string
}

func NewTargetPlayerExecution(clientID, target string) *TargetPlayerExecution {
	return &TargetPlayerExecution{clientID: clientID, target: target}
}

func (x *TargetPlayerExecution) ActiveDuringSpawnPhase() bool { return false }

func (x *TargetPlayerExecution) Init(e *game.Engine, tick int) {
	x.done = true
	if p, target, ok := pairOf(e, x.clientID, x.target, "target player"); ok {
		e.SetTarget(p, target)
	}
}

// EmojiExecution sends an emoji to one player, or to everyone.
type EmojiExecution struct {
	oneShot
	clientID, recipient, emoji string
}

func NewEmojiExecution(clientID, recipient, emoji string) *EmojiExecution {
	return &EmojiExecution{clientID: clientID, recipient: recipient, emoji: emoji}
}

func (x *EmojiExecution) ActiveDuringSpawnPhase() bool { return true }

func (x *EmojiExecution) Init(e *game.Engine, tick int) {
	x.done = true
	if x.emoji == "" {
		return
	}
	if x.recipient == AllPlayers || x.recipient == "" {
		if p, ok := lookupPlayer(e, x.clientID, "emoji"); ok {
			e.SendEmoji(p, nil, x.emoji)
		}
		return
	}
	if p, to, ok := pairOf(e, x.clientID, x.recipient, "emoji"); ok {
		e.SendEmoji(p, to, x.emoji)
	}
}

// QuickChatExecution delivers a predefined chat line to another player.
type QuickChatExecution struct {
	oneShot
	clientID, recipient, key string
}

func NewQuickChatExecution(clientID, recipient, key string) *QuickChatExecution {
	return &QuickChatExecution{clientID: clientID, recipient: recipient, key: key}
}

func (x *QuickChatExecution) ActiveDuringSpawnPhase() bool { return false }

func (x *QuickChatExecution) Init(e *game.Engine, tick int) {
	x.done = true
	p, to, ok := pairOf(e, x.clientID, x.recipient, "quick chat")
	if !ok || x.key == "" {
		return
	}
	e.DisplayMessage(p.Name()+": "+x.key, MessageQuickChat, to)
	e.DisplayMessage("You: "+x.key, MessageQuickChat, p)
}

// DonateTroopsExecution gives troops to an ally.
type DonateTroopsExecution struct {
	oneShot
	clientID, recipient string
	troops              int
}

func NewDonateTroopsExecution(clientID, recipient string, troops int) *DonateTroopsExecution {
	return &DonateTroopsExecution{clientID: clientID, recipient: recipient, troops: troops}
}

func (x *DonateTroopsExecution) ActiveDuringSpawnPhase() bool { return false }

func (x *DonateTroopsExecution) Init(e *game.Engine, tick int) {
	x.done = true
	p, to, ok := pairOf(e, x.clientID, x.recipient, "donate troops")
	if !ok || !e.IsAlliedWith(p, to) {
		return
	}
	n := e.RemoveTroops(p, defaultTroops(p, x.troops))
	if n == 0 {
		return
	}
	e.AddTroops(to, n)
	e.DisplayMessage("Received "+strconv.Itoa(n)+" troops from "+p.Name(), MessageDonation, to)
}

// DonateGoldExecution gives gold to an ally.
type DonateGoldExecution struct {
	oneShot
	clientID, recipient string
	gold                int
}

func NewDonateGoldExecution(clientID, recipient string, gold int) *DonateGoldExecution {
	return &DonateGoldExecution{clientID: clientID, recipient: recipient, gold: gold}
}

func (x *DonateGoldExecution) ActiveDuringSpawnPhase() bool { return false }

func (x *DonateGoldExecution) Init(e *game.Engine, tick int) {
	x.done = true
	p, to, ok := pairOf(e, x.clientID, x.recipient, "donate gold")
	if !ok || !e.IsAlliedWith(p, to) {
		return
	}
	gold := x.gold
	if gold <= 0 {
		gold = p.Gold() / 3
	}
	gold = min(gold, p.Gold())
	if gold == 0 || !e.RemoveGold(p, gold) {
		return
	}
	e.AddGold(to, gold)
	e.DisplayMessage("Received "+strconv.Itoa(gold)+" gold from "+p.Name(), MessageDonation, to)
}

// EmbargoExecution starts or stops trade with another player.
type EmbargoExecution struct {
	oneShot
	clientID, recipient string
	start               bool
}

func NewEmbargoExecution(clientID, recipient string, start bool) *EmbargoExecution {
	return &EmbargoExecution{clientID: clientID, recipient: recipient, start: start}
}

func (x *EmbargoExecution) ActiveDuringSpawnPhase() bool { return false }

func (x *EmbargoExecution) Init(e *game.Engine, tick int) {
	x.done = true
	p, to, ok := pairOf(e, x.clientID, x.recipient, "embargo")
	if !ok {
		return
	}
	if x.start {
		e.AddEmbargo(p, to)
	} else {
		e.RemoveEmbargo(p, to)
	}
}

// TroopRatioExecution sets the share of new population that becomes troops.
// Out-of-range ratios are clamped by the engine.
type TroopRatioExecution struct {
	oneShot
	clientID string
	ratio    int
}

func NewTroopRatioExecution(clientID string, ratio int) *TroopRatioExecution {
	return &TroopRatioExecution{clientID: clientID, ratio: ratio}
}

func (x *TroopRatioExecution) ActiveDuringSpawnPhase() bool { return true }

func (x *TroopRatioExecution) Init(e *game.Engine, tick int) {
	x.done = true
	if p, ok := lookupPlayer(e, x.clientID, "troop ratio"); ok {
		e.SetTargetTroopRatio(p, x.ratio)
	}
}

// MarkDisconnectedExecution records a client's connection state.
type MarkDisconnectedExecution struct {
	oneShot
	clientID     string
	disconnected bool
}

func NewMarkDisconnectedExecution(clientID string, disconnected bool) *MarkDisconnectedExecution {
	return &MarkDisconnectedExecution{clientID: clientID, disconnected: disconnected}
}

func (x *MarkDisconnectedExecution) ActiveDuringSpawnPhase() bool { return true }

func (x *MarkDisconnectedExecution) Init(e *game.Engine, tick int) {
	x.done = true
	if p, ok := e.PlayerByClientID(x.clientID); ok {
		e.MarkDisconnected(p, x.disconnected)
	}
}
