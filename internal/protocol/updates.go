package protocol

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
)

// UpdateType enumerates the kinds of records a diff carries.
type UpdateType uint8

const (
	UpdateUnit UpdateType = iota
	UpdatePlayer
	UpdateAlliance
	UpdateBrokeAlliance
	UpdateAllianceExpired
	UpdateAllianceRequest
	UpdateAllianceRequestReply
	UpdateTargetPlayer
	UpdateEmoji
	UpdateWin
	UpdateHash
	UpdateDisplayEvent
)

var updateTypeNames = [...]string{
	"Unit", "Player", "Alliance", "BrokeAlliance", "AllianceExpired",
	"AllianceRequest", "AllianceRequestReply", "TargetPlayer", "Emoji",
	"Win", "Hash", "DisplayEvent",
}

func (u UpdateType) String() string {
	if int(u) < len(updateTypeNames) {
		return updateTypeNames[u]
	}
	return "Unknown"
}

// UnitUpdate is the full observable state of one unit.
type UnitUpdate struct {
	ID               int           `msgpack:"id"`
	Type             core.UnitType `msgpack:"type"`
	Owner            core.SmallID  `msgpack:"owner"`
	LastOwner        core.SmallID  `msgpack:"last_owner,omitempty"`
	Tile             core.TileRef  `msgpack:"tile"`
	LastTile         core.TileRef  `msgpack:"last_tile"`
	Health           int           `msgpack:"health"`
	Troops           int           `msgpack:"troops,omitempty"`
	IsActive         bool          `msgpack:"is_active"`
	ConstructionType core.UnitType `msgpack:"construction_type,omitempty"`
	TargetUnitID     int           `msgpack:"target_unit_id,omitempty"`
	TargetTile       core.TileRef  `msgpack:"target_tile"`
	ReadyTick        int           `msgpack:"ready_tick,omitempty"`
}

// PlayerUpdate is the full observable state of one player.
type PlayerUpdate struct {
	ID               string          `msgpack:"id"`
	ClientID         string          `msgpack:"client_id"`
	Name             string          `msgpack:"name"`
	Type             core.PlayerType `msgpack:"type"`
	SmallID          core.SmallID    `msgpack:"small_id"`
	IsAlive          bool            `msgpack:"is_alive"`
	HasSpawned       bool            `msgpack:"has_spawned"`
	IsDisconnected   bool            `msgpack:"is_disconnected,omitempty"`
	IsTraitor        bool            `msgpack:"is_traitor,omitempty"`
	Troops           int             `msgpack:"troops"`
	Workers          int             `msgpack:"workers"`
	Gold             int             `msgpack:"gold"`
	TargetTroopRatio int             `msgpack:"target_troop_ratio"`
	TilesOwned       int             `msgpack:"tiles_owned"`
	Allies           []core.SmallID  `msgpack:"allies,omitempty"`
	Embargoes        []core.SmallID  `msgpack:"embargoes,omitempty"`
	Targets          []core.SmallID  `msgpack:"targets,omitempty"`
	OutgoingRequests []core.SmallID  `msgpack:"outgoing_requests,omitempty"`
	OutgoingAttacks  []AttackInfo    `msgpack:"outgoing_attacks,omitempty"`
}

// Population is troops plus workers.
func (p PlayerUpdate) Population() int {
	return p.Troops + p.Workers
}

// AttackInfo describes one attack in flight.
type AttackInfo struct {
	ID     int          `msgpack:"id"`
	Target core.SmallID `msgpack:"target"`
	Troops int          `msgpack:"troops"`
}

type AllianceUpdate struct {
	ID        int          `msgpack:"id"`
	Requestor core.SmallID `msgpack:"requestor"`
	Recipient core.SmallID `msgpack:"recipient"`
	CreatedAt int          `msgpack:"created_at"`
}

type BrokeAllianceUpdate struct {
	Traitor  core.SmallID `msgpack:"traitor"`
	Betrayed core.SmallID `msgpack:"betrayed"`
}

type AllianceExpiredUpdate struct {
	Player1 core.SmallID `msgpack:"player1"`
	Player2 core.SmallID `msgpack:"player2"`
}

type AllianceRequestUpdate struct {
	Requestor core.SmallID `msgpack:"requestor"`
	Recipient core.SmallID `msgpack:"recipient"`
	CreatedAt int          `msgpack:"created_at"`
}

type AllianceRequestReplyUpdate struct {
	Requestor core.SmallID `msgpack:"requestor"`
	Recipient core.SmallID `msgpack:"recipient"`
	Accepted  bool         `msgpack:"accepted"`
}

type TargetPlayerUpdate struct {
	Player core.SmallID `msgpack:"player"`
	Target core.SmallID `msgpack:"target"`
}

// EmojiUpdate has Recipient == core.NoOwner for broadcasts.
type EmojiUpdate struct {
	Sender    core.SmallID `msgpack:"sender"`
	Recipient core.SmallID `msgpack:"recipient"`
	Emoji     string       `msgpack:"emoji"`
	CreatedAt int          `msgpack:"created_at"`
}

type WinUpdate struct {
	Winner   core.SmallID `msgpack:"winner"`
	WinnerID string       `msgpack:"winner_id"`
}

type HashUpdate struct {
	Tick int    `msgpack:"tick"`
	Hash uint64 `msgpack:"hash"`
}

// DisplayEventUpdate is a user-facing message. Player == core.NoOwner means
// everyone.
type DisplayEventUpdate struct {
	Message     string       `msgpack:"message"`
	MessageType string       `msgpack:"message_type"`
	Player      core.SmallID `msgpack:"player,omitempty"`
}

// Updates holds the records of one diff grouped by UpdateType.
type Updates struct {
	Units                  []UnitUpdate                 `msgpack:"units,omitempty"`
	Players                []PlayerUpdate               `msgpack:"players,omitempty"`
	Alliances              []AllianceUpdate             `msgpack:"alliances,omitempty"`
	BrokeAlliances         []BrokeAllianceUpdate        `msgpack:"broke_alliances,omitempty"`
	AlliancesExpired       []AllianceExpiredUpdate      `msgpack:"alliances_expired,omitempty"`
	AllianceRequests       []AllianceRequestUpdate      `msgpack:"alliance_requests,omitempty"`
	AllianceRequestReplies []AllianceRequestReplyUpdate `msgpack:"alliance_request_replies,omitempty"`
	TargetPlayers          []TargetPlayerUpdate         `msgpack:"target_players,omitempty"`
	Emojis                 []EmojiUpdate                `msgpack:"emojis,omitempty"`
	Wins                   []WinUpdate                  `msgpack:"wins,omitempty"`
	Hashes                 []HashUpdate                 `msgpack:"hashes,omitempty"`
	DisplayEvents          []DisplayEventUpdate         `msgpack:"display_events,omitempty"`
}

// Count returns the number of records of the given type.
func (u *Updates) Count(t UpdateType) int {
	switch t {
	case UpdateUnit:
		return len(u.Units)
	case UpdatePlayer:
		return len(u.Players)
	case UpdateAlliance:
		return len(u.Alliances)
	case UpdateBrokeAlliance:
		return len(u.BrokeAlliances)
	case UpdateAllianceExpired:
		return len(u.AlliancesExpired)
	case UpdateAllianceRequest:
		return len(u.AllianceRequests)
	case UpdateAllianceRequestReply:
		return len(u.AllianceRequestReplies)
	case UpdateTargetPlayer:
		return len(u.TargetPlayers)
	case UpdateEmoji:
		return len(u.Emojis)
	case UpdateWin:
		return len(u.Wins)
	case UpdateHash:
		return len(u.Hashes)
	case UpdateDisplayEvent:
		return len(u.DisplayEvents)
	}
	return 0
}

// NameViewData is the presentation-only label placement of a player.
type NameViewData struct {
	PlayerID string `msgpack:"player_id"`
	X        int    `msgpack:"x"`
	Y        int    `msgpack:"y"`
	Size     int    `msgpack:"size"`
}

// GameUpdateViewData is the diff produced by one tick, or a full snapshot.
type GameUpdateViewData struct {
	Tick              int            `msgpack:"tick"`
	Updates           Updates        `msgpack:"updates"`
	PackedTileUpdates []uint64       `msgpack:"packed_tile_updates,omitempty"`
	NameViewData      []NameViewData `msgpack:"name_view_data,omitempty"`
}

// LastHash returns the hash record carried by the update, if any.
func (g *GameUpdateViewData) LastHash() (HashUpdate, bool) {
	if n := len(g.Updates.Hashes); n > 0 {
		return g.Updates.Hashes[n-1], true
	}
	return HashUpdate{}, false
}
