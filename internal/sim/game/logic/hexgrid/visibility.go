package hexgrid

// LineOfSight is the fog-of-war set: every owned tile plus its immediate
// neighbors, de-duplicated. A single owned tile yields exactly 7 members.
func LineOfSight(owned []Hex) map[Hex]bool {
	out := make(map[Hex]bool, len(owned)*7)
	for _, h := range owned {
		out[h] = true
		for _, nb := range Neighbors(h) {
			out[nb] = true
		}
	}
	return out
}

// Horizon is the render boundary: a radius-5 disk around the capital, plus
// the owned tiles and two neighbor rings around them. It is always a
// superset of LineOfSight for the same owned set.
func Horizon(capital Hex, owned []Hex) map[Hex]bool {
	out := make(map[Hex]bool)
	for _, h := range Disk(capital, 5) {
		out[h] = true
	}
	// owned + ring 1
	ring1 := make(map[Hex]bool, len(owned)*6)
	for _, h := range owned {
		out[h] = true
		for _, nb := range Neighbors(h) {
			ring1[nb] = true
			out[nb] = true
		}
	}
	// ring 2
	for h := range ring1 {
		for _, nb := range Neighbors(h) {
			out[nb] = true
		}
	}
	return out
}
