// Package protocol defines the wire types exchanged with the simulation:
// Intents and Turns flow in, GameUpdateViewData diffs flow out.
package protocol

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

// IntentType tags the variant carried by an Intent.
type IntentType string

const (
	IntentSpawn                IntentType = "spawn"
	IntentAttack               IntentType = "attack"
	IntentCancelAttack         IntentType = "cancel_attack"
	IntentBoat                 IntentType = "boat"
	IntentAllianceRequest      IntentType = "allianceRequest"
	IntentAllianceRequestReply IntentType = "allianceRequestReply"
	IntentBreakAlliance        IntentType = "breakAlliance"
	IntentTargetPlayer         IntentType = "targetPlayer"
	IntentEmoji                IntentType = "emoji"
	IntentDonateTroops         IntentType = "donate_troops"
	IntentDonateGold           IntentType = "donate_gold"
	IntentTroopRatio           IntentType = "troop_ratio"
	IntentBuildUnit            IntentType = "build_unit"
	IntentEmbargo              IntentType = "embargo"
	IntentQuickChat            IntentType = "quick_chat"
	IntentMarkDisconnected     IntentType = "mark_disconnected"
)

// Intent is a single player command. Only the fields of the tagged variant
// are meaningful; the rest stay zero and are omitted on the wire.
//
// Player references (TargetID, Recipient, Requestor) are client ids.
// An empty TargetID on an attack or boat means unowned land.
type Intent struct {
	Type     IntentType `msgpack:"type"`
	ClientID string     `msgpack:"client_id"`

	// spawn
	Name       string          `msgpack:"name,omitempty"`
	PlayerType core.PlayerType `msgpack:"player_type,omitempty"`

	// spawn, build_unit, boat destination
	Cell core.Cell `msgpack:"cell,omitempty"`
	// boat launch point; nil lets the engine pick the closest shore tile
	SpawnCell *core.Cell `msgpack:"spawn_cell,omitempty"`

	// attack, boat
	TargetID string `msgpack:"target_id,omitempty"`
	// attack, boat, donate_troops; zero or less means the default share
	Troops int `msgpack:"troops,omitempty"`

	// cancel_attack
	AttackID int `msgpack:"attack_id,omitempty"`

	// alliance ops, target, emoji, donate, embargo, quick_chat
	Recipient string `msgpack:"recipient,omitempty"`
	// allianceRequestReply
	Requestor string `msgpack:"requestor,omitempty"`
	Accept    bool   `msgpack:"accept,omitempty"`

	Emoji        string `msgpack:"emoji,omitempty"`
	QuickChatKey string `msgpack:"quick_chat_key,omitempty"`
	Gold         int    `msgpack:"gold,omitempty"`
	Ratio        int    `msgpack:"ratio,omitempty"`
	Unit         string `msgpack:"unit,omitempty"`
	// embargo: "start" or "stop"
	Action       string `msgpack:"action,omitempty"`
	Disconnected bool   `msgpack:"disconnected,omitempty"`
}

// Turn is the ordered batch of intents applied during exactly one tick.
type Turn struct {
	TurnNumber int      `msgpack:"turn_number"`
	Intents    []Intent `msgpack:"intents"`
}

// EmptyTurn returns a turn with no intents, used to fill sequence gaps.
func EmptyTurn(n int) Turn {
	return Turn{TurnNumber: n, Intents: []Intent{}}
}

// Intent constructors used by tests, bots and the CLI.

func SpawnIntent(clientID, name string, cell core.Cell) Intent {
	return Intent{Type: IntentSpawn, ClientID: clientID, Name: name, Cell: cell}
}

func AttackIntent(clientID, targetID string, troops int) Intent {
	return Intent{Type: IntentAttack, ClientID: clientID, TargetID: targetID, Troops: troops}
}

func CancelAttackIntent(clientID string, attackID int) Intent {
	return Intent{Type: IntentCancelAttack, ClientID: clientID, AttackID: attackID}
}

func BoatIntent(clientID, targetID string, troops int, dst core.Cell, src *core.Cell) Intent {
	return Intent{Type: IntentBoat, ClientID: clientID, TargetID: targetID, Troops: troops, Cell: dst, SpawnCell: src}
}

func AllianceRequestIntent(clientID, recipient string) Intent {
	return Intent{Type: IntentAllianceRequest, ClientID: clientID, Recipient: recipient}
}

func AllianceReplyIntent(clientID, requestor string, accept bool) Intent {
	return Intent{Type: IntentAllianceRequestReply, ClientID: clientID, Requestor: requestor, Accept: accept}
}

func BreakAllianceIntent(clientID, recipient string) Intent {
	return Intent{Type: IntentBreakAlliance, ClientID: clientID, Recipient: recipient}
}

func BuildUnitIntent(clientID string, unit core.UnitType, cell core.Cell) Intent {
	return Intent{Type: IntentBuildUnit, ClientID: clientID, Unit: unit.String(), Cell: cell}
}

func TroopRatioIntent(clientID string, ratio int) Intent {
	return Intent{Type: IntentTroopRatio, ClientID: clientID, Ratio: ratio}
}
