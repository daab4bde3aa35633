// Package transit interpolates the discrete position of a moving entity
// (army, spy, or relocating capital) from its path and departure/arrival
// timestamps. All functions are pure; callers pass wall-clock time in.
package transit

import (
	"math"
	"time"

	"hexfront.gg/internal/sim/game/logic/hexgrid"
)

// Progress is the clamped fraction of the journey completed at now.
func Progress(departure, arrival, now time.Time) float64 {
	total := arrival.Sub(departure)
	if total <= 0 {
		return 1
	}
	p := float64(now.Sub(departure)) / float64(total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// PathIndex maps a progress fraction onto a path slot:
// clamp(floor(progress*len), 0, len-1).
func PathIndex(progress float64, pathLen int) int {
	if pathLen <= 0 {
		return 0
	}
	i := int(math.Floor(progress * float64(pathLen)))
	if i < 0 {
		return 0
	}
	if i > pathLen-1 {
		return pathLen - 1
	}
	return i
}

// PositionAt returns the entity's current hex along path at now. origin is
// the hex the entity departed from (paths exclude their start). An empty
// path returns origin.
func PositionAt(origin hexgrid.Hex, path []hexgrid.Hex, departure, arrival, now time.Time) hexgrid.Hex {
	if len(path) == 0 {
		return origin
	}
	return path[PathIndex(Progress(departure, arrival, now), len(path))]
}

// PassedAt returns the hexes of path already reached at now, in travel order.
// Used by capital relocation cancel, which walks them backward looking for
// the last owned city on the route.
func PassedAt(path []hexgrid.Hex, departure, arrival, now time.Time) []hexgrid.Hex {
	if len(path) == 0 {
		return nil
	}
	idx := PathIndex(Progress(departure, arrival, now), len(path))
	return path[:idx+1]
}

// TravelTime computes the journey duration for a path of pathLen hexes:
// round(pathLen * perHex * (1 - speedBonus)). speedBonus is clamped to
// [0, 0.9] so purchased upgrades can never zero out travel.
func TravelTime(pathLen int, perHex time.Duration, speedBonus float64) time.Duration {
	if pathLen <= 0 {
		return 0
	}
	if speedBonus < 0 {
		speedBonus = 0
	}
	if speedBonus > 0.9 {
		speedBonus = 0.9
	}
	base := float64(pathLen) * float64(perHex)
	return time.Duration(math.Round(base * (1 - speedBonus)))
}
