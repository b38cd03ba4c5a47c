// Package runtime runs a simulation on its own goroutine and exposes it to
// the interactive side through a message channel. Every value crossing the
// boundary is msgpack encoded, so neither side can observe the other's
// memory.
package runtime

import (
	"errors"
	"fmt"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/config"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

var (
	ErrNotInitialized     = errors.New("not initialized")
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrClosed             = errors.New("simulation closed")
	ErrUnknownMessage     = errors.New("unknown message type")
)

// MessageType tags the payload of a Message.
type MessageType string

const (
	// inbound
	MsgInit  MessageType = "init"
	MsgTurn  MessageType = "turn"
	MsgQuery MessageType = "query"

	// outbound
	MsgInitialized MessageType = "initialized"
	MsgGameUpdate  MessageType = "game_update"
	MsgQueryResult MessageType = "query_result"
	MsgError       MessageType = "error"
)

// Message is the single envelope exchanged with the worker. ID correlates a
// query with its result and is zero otherwise.
type Message struct {
	Type MessageType `msgpack:"type"`
	ID   uint64      `msgpack:"id,omitempty"`

	Init   *InitRequest                 `msgpack:"init,omitempty"`
	Turn   *protocol.Turn               `msgpack:"turn,omitempty"`
	Query  *Query                       `msgpack:"query,omitempty"`
	Update *protocol.GameUpdateViewData `msgpack:"update,omitempty"`
	Result *QueryResult                 `msgpack:"result,omitempty"`
	Error  *SimulationError             `msgpack:"error,omitempty"`
}

// InitRequest is everything the worker needs to build its engine.
type InitRequest struct {
	GameID string            `msgpack:"game_id"`
	Game   config.GameConfig `msgpack:"game"`
	Map    config.MapConfig  `msgpack:"map"`
	// Terrain overrides map generation when set.
	Terrain *Terrain `msgpack:"terrain,omitempty"`
}

// Terrain is the serializable form of a map's terrain.
type Terrain struct {
	Width  int    `msgpack:"width"`
	Height int    `msgpack:"height"`
	Tiles  []byte `msgpack:"tiles"`
}

// TerrainOf captures the terrain of m.
func TerrainOf(m *core.GameMap) *Terrain {
	t := &Terrain{Width: m.Width(), Height: m.Height(), Tiles: make([]byte, m.Size())}
	for i := range t.Tiles {
		t.Tiles[i] = byte(m.Terrain(core.TileRef(i)))
	}
	return t
}

// GameMap builds a fresh map from the terrain.
func (t *Terrain) GameMap() (*core.GameMap, error) {
	tiles := make([]core.TerrainType, len(t.Tiles))
	for i, b := range t.Tiles {
		tiles[i] = core.TerrainType(b)
	}
	return core.NewGameMap(t.Width, t.Height, tiles)
}

// SimulationError is the terminal error reported by a failed simulation.
type SimulationError struct {
	GameID  string `msgpack:"game_id"`
	Tick    int    `msgpack:"tick"`
	Op      string `msgpack:"op,omitempty"`
	Message string `msgpack:"message"`
	// Fatal is false for errors that only affect one request.
	Fatal bool `msgpack:"fatal"`
}

func (e *SimulationError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("simulation %s at tick %d: %s: %s", e.GameID, e.Tick, e.Op, e.Message)
	}
	return fmt.Sprintf("simulation %s at tick %d: %s", e.GameID, e.Tick, e.Message)
}
