package runtime

import (
	"github.com/woodydrn/OpenFrontIO-sub000/internal/common"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/game/core"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
)

// nameViewData places each living player's label on the owned tile closest
// to the centroid of its territory. Size grows with the square root of the
// territory so labels of large empires stay readable.
func nameViewData(e *game.Engine) []protocol.NameViewData {
	m := e.Map()
	var out []protocol.NameViewData
	for _, p := range e.Players() {
		n := p.NumTilesOwned()
		if n == 0 {
			continue
		}
		var sumX, sumY int
		p.ForEachTile(func(ref core.TileRef) {
			sumX += m.X(ref)
			sumY += m.Y(ref)
		})
		center := core.NewCell(sumX/n, sumY/n)

		best, bestDist := core.InvalidTile, -1
		p.ForEachTile(func(ref core.TileRef) {
			if d := m.Cell(ref).DistSquared(center); bestDist < 0 || d < bestDist {
				best, bestDist = ref, d
			}
		})
		out = append(out, protocol.NameViewData{
			PlayerID: string(p.ID()),
			X:        m.X(best),
			Y:        m.Y(best),
			Size:     max(common.ISqrt(n), 1),
		})
	}
	return out
}
