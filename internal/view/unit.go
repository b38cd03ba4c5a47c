package view

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

// UnitView is the read model of one unit.
type UnitView struct {
	data protocol.UnitUpdate
}

func (u *UnitView) ID() int                         { return u.data.ID }
func (u *UnitView) Type() core.UnitType             { return u.data.Type }
func (u *UnitView) Owner() core.SmallID             { return u.data.Owner }
func (u *UnitView) LastOwner() core.SmallID         { return u.data.LastOwner }
func (u *UnitView) Tile() core.TileRef              { return u.data.Tile }
func (u *UnitView) LastTile() core.TileRef          { return u.data.LastTile }
func (u *UnitView) Health() int                     { return u.data.Health }
func (u *UnitView) Troops() int                     { return u.data.Troops }
func (u *UnitView) IsActive() bool                  { return u.data.IsActive }
func (u *UnitView) ConstructionType() core.UnitType { return u.data.ConstructionType }
func (u *UnitView) TargetUnitID() int               { return u.data.TargetUnitID }
func (u *UnitView) TargetTile() core.TileRef        { return u.data.TargetTile }
func (u *UnitView) ReadyTick() int                  { return u.data.ReadyTick }

// Data returns a copy of the last record received for the unit.
func (u *UnitView) Data() protocol.UnitUpdate { return u.data }
