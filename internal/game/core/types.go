package core

import "fmt"

// TileRef is a dense index into the row-major tile arrays of a GameMap.
type TileRef int32

// InvalidTile marks an absent tile reference.
const InvalidTile TileRef = -1

// SmallID is the compact per-game player alias stored in tile state.
// 0 means the tile has no owner.
type SmallID uint16

const (
	NoOwner    SmallID = 0
	MaxSmallID SmallID = 1<<12 - 1
)

// PlayerID identifies a player inside the engine.
type PlayerID string

// PlayerType distinguishes human players from simulated ones.
type PlayerType uint8

const (
	PlayerHuman PlayerType = iota
	PlayerBot
	PlayerFakeHuman
)

func (p PlayerType) String() string {
	switch p {
	case PlayerHuman:
		return "Human"
	case PlayerBot:
		return "Bot"
	case PlayerFakeHuman:
		return "FakeHuman"
	default:
		return fmt.Sprintf("PlayerType(%d)", p)
	}
}

// UnitType is the closed set of unit kinds.
type UnitType uint8

const (
	UnitCity UnitType = iota + 1
	UnitPort
	UnitMissileSilo
	UnitDefensePost
	UnitSAMLauncher
	UnitFactory
	UnitTransportShip
	UnitWarship
	UnitTradeShip
	UnitShell
	UnitAtomBomb
	UnitHydrogenBomb
	UnitMIRV
	UnitMIRVWarhead
	UnitConstruction
)

// AllUnitTypes lists every unit type in declaration order.
var AllUnitTypes = []UnitType{
	UnitCity, UnitPort, UnitMissileSilo, UnitDefensePost, UnitSAMLauncher, UnitFactory,
	UnitTransportShip, UnitWarship, UnitTradeShip, UnitShell,
	UnitAtomBomb, UnitHydrogenBomb, UnitMIRV, UnitMIRVWarhead,
	UnitConstruction,
}

var unitTypeNames = map[UnitType]string{
	UnitCity:          "City",
	UnitPort:          "Port",
	UnitMissileSilo:   "MissileSilo",
	UnitDefensePost:   "DefensePost",
	UnitSAMLauncher:   "SAMLauncher",
	UnitFactory:       "Factory",
	UnitTransportShip: "TransportShip",
	UnitWarship:       "Warship",
	UnitTradeShip:     "TradeShip",
	UnitShell:         "Shell",
	UnitAtomBomb:      "AtomBomb",
	UnitHydrogenBomb:  "HydrogenBomb",
	UnitMIRV:          "MIRV",
	UnitMIRVWarhead:   "MIRVWarhead",
	UnitConstruction:  "Construction",
}

func (u UnitType) String() string {
	if name, ok := unitTypeNames[u]; ok {
		return name
	}
	return fmt.Sprintf("UnitType(%d)", u)
}

// ParseUnitType converts a unit name back into its UnitType.
func ParseUnitType(s string) (UnitType, error) {
	for _, u := range AllUnitTypes {
		if unitTypeNames[u] == s {
			return u, nil
		}
	}
	return 0, fmt.Errorf("unknown unit type %q", s)
}

// IsStructure reports whether the unit is a land building.
func (u UnitType) IsStructure() bool {
	switch u {
	case UnitCity, UnitPort, UnitMissileSilo, UnitDefensePost, UnitSAMLauncher, UnitFactory:
		return true
	}
	return false
}

// IsShip reports whether the unit moves over water.
func (u UnitType) IsShip() bool {
	switch u {
	case UnitTransportShip, UnitWarship, UnitTradeShip:
		return true
	}
	return false
}

// IsNuke reports whether the unit is nuclear ordnance.
func (u UnitType) IsNuke() bool {
	switch u {
	case UnitAtomBomb, UnitHydrogenBomb, UnitMIRV, UnitMIRVWarhead:
		return true
	}
	return false
}

// Buildable reports whether a player may request this unit through a build intent.
func (u UnitType) Buildable() bool {
	switch u {
	case UnitShell, UnitMIRVWarhead, UnitConstruction, UnitTradeShip:
		return false
	}
	return u >= UnitCity && u <= UnitConstruction
}
