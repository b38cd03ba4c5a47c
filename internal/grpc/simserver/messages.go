package simserver

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/desync"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/runtime"
)

// Request and response payloads. Each travels msgpack-encoded inside a
// wrapperspb.BytesValue.

type CreateGameRequest struct {
	// GameID is optional; the server assigns a uuid when empty.
	GameID  string            `msgpack:"game_id,omitempty"`
	Game    config.GameConfig `msgpack:"game"`
	Map     config.MapConfig  `msgpack:"map"`
	Terrain *runtime.Terrain  `msgpack:"terrain,omitempty"`
}

type CreateGameResponse struct {
	GameID   string                       `msgpack:"game_id"`
	Snapshot *protocol.GameUpdateViewData `msgpack:"snapshot"`
}

type SubmitTurnRequest struct {
	GameID   string        `msgpack:"game_id"`
	ClientID string        `msgpack:"client_id"`
	Turn     protocol.Turn `msgpack:"turn"`
}

type SubmitTurnResponse struct {
	NextTurn int `msgpack:"next_turn"`
}

type StreamUpdatesRequest struct {
	GameID string `msgpack:"game_id"`
}

type QueryRequest struct {
	GameID string        `msgpack:"game_id"`
	Query  runtime.Query `msgpack:"query"`
}

type QueryResponse struct {
	Result *runtime.QueryResult `msgpack:"result"`
}

type ReportHashRequest struct {
	GameID   string `msgpack:"game_id"`
	ClientID string `msgpack:"client_id"`
	Tick     int    `msgpack:"tick"`
	Hash     uint64 `msgpack:"hash"`
}

type ReportHashResponse struct {
	// Report is nil while all reported hashes for the tick agree.
	Report *desync.Report `msgpack:"report,omitempty"`
}
