// Package combat holds the tile-combat damage formulas. Randomness is
// injected by the caller so the tick step controls the RNG stream.
package combat

const (
	// UnitStrength is the attack contribution of one stationary unit.
	UnitStrength = 20.0

	// BaseDefense applies to every side; DefenderBonus stacks on top for the
	// side that owns the contested tile.
	BaseDefense   = 0.2
	DefenderBonus = 0.1

	// UnitBaseHP is the hit points of a freshly conscripted unit.
	UnitBaseHP = 100.0

	// RandomMin/RandomMax bound the uniform damage multiplier.
	RandomMin = 0.9
	RandomMax = 1.1
)

// Strength is the aggregate attack value of a stationary unit count.
func Strength(units int) float64 {
	if units <= 0 {
		return 0
	}
	return float64(units) * UnitStrength
}

// Defense returns a side's effective defense, optionally including the
// tile-owner bonus and purchased defense upgrades, capped below 1 so damage
// never inverts.
func Defense(ownsTile bool, defenseBonus float64) float64 {
	d := BaseDefense + defenseBonus
	if ownsTile {
		d += DefenderBonus
	}
	if d < 0 {
		d = 0
	}
	if d > 0.95 {
		d = 0.95
	}
	return d
}

// Damage is the total damage a side takes in one tick:
// (opposingStrength / 10) * (1 - ownDefense) * randomMultiplier.
func Damage(opposingStrength, ownDefense, randomMultiplier float64) float64 {
	if opposingStrength <= 0 {
		return 0
	}
	return opposingStrength / 10 * (1 - ownDefense) * randomMultiplier
}

// PerUnit splits a side's total damage evenly across its units.
func PerUnit(totalDamage float64, unitCount int) float64 {
	if unitCount <= 0 {
		return 0
	}
	return totalDamage / float64(unitCount)
}

// Dead reports whether a unit at hp is removed. Exactly zero is dead; any
// positive remainder survives.
func Dead(hp float64) bool {
	return hp <= 0
}
