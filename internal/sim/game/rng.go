package game

import "math/rand"

// tickSeed folds the game seed and tick number into one value so every tick
// draws from its own rng stream. Replaying a tick therefore reproduces its
// rolls without carrying rng state through snapshots.
func tickSeed(seed int64, tick uint64) int64 {
	z := uint64(seed) ^ (tick * 0x9e3779b97f4a7c15)
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}

func (g *Game) tickRNG(tick uint64) *rand.Rand {
	return rand.New(rand.NewSource(tickSeed(g.cfg.Seed, tick)))
}
