// Package hexgrid provides axial-coordinate math for a pointy-top hex map:
// distance, neighbor enumeration, A* pathfinding over a caller-supplied
// traversability predicate, and the visibility sets used for fog of war.
package hexgrid

// Hex is an axial coordinate (q, r).
type Hex struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// neighborOffsets is the fixed axial adjacency. The order is load-bearing:
// pathfinding and ring walks must expand neighbors deterministically.
var neighborOffsets = [6]Hex{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent hexes in fixed order.
func Neighbors(h Hex) [6]Hex {
	var out [6]Hex
	for i, d := range neighborOffsets {
		out[i] = Hex{Q: h.Q + d.Q, R: h.R + d.R}
	}
	return out
}

// Distance is the hex-grid distance between two axial coordinates.
func Distance(a, b Hex) int {
	dq := a.Q - b.Q
	dr := a.R - b.R
	return (abs(dq) + abs(dq+dr) + abs(dr)) / 2
}

// Ring returns the hexes at exactly radius from center, walked in a fixed
// order starting from center's fifth neighbor direction. Radius zero is the
// center itself.
func Ring(center Hex, radius int) []Hex {
	if radius < 0 {
		return nil
	}
	if radius == 0 {
		return []Hex{center}
	}
	out := make([]Hex, 0, 6*radius)
	h := Hex{Q: center.Q + neighborOffsets[4].Q*radius, R: center.R + neighborOffsets[4].R*radius}
	for side := 0; side < 6; side++ {
		d := neighborOffsets[side]
		for step := 0; step < radius; step++ {
			out = append(out, h)
			h = Hex{Q: h.Q + d.Q, R: h.R + d.R}
		}
	}
	return out
}

// Disk returns every hex within radius of center, center included.
func Disk(center Hex, radius int) []Hex {
	if radius < 0 {
		return nil
	}
	out := make([]Hex, 0, 1+3*radius*(radius+1))
	for q := -radius; q <= radius; q++ {
		rLo := max(-radius, -q-radius)
		rHi := min(radius, -q+radius)
		for r := rLo; r <= rHi; r++ {
			out = append(out, Hex{Q: center.Q + q, R: center.R + r})
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
