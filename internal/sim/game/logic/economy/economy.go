// Package economy holds the per-tick economic formulas: labour allocation,
// upkeep, gold rate, and population growth. Ratio validation (sum <= 100)
// happens at the intent boundary, not here.
package economy

import "math"

const (
	// Upkeep in gold per second per head. Spies cost twice what soldiers do.
	MilitaryUpkeepPerUnit = 0.1
	SpyUpkeepPerSpy       = 0.2

	// A labourer produces 1/5 gold per second.
	goldPerLabourer = 0.2
)

// Labourers is floor(population * labourRatio/100). The floor is applied per
// ratio independently, so labourers+soldiers+spies may undercount the
// population by rounding; that slack is intentional.
func Labourers(population int, labourRatio int) int {
	if population <= 0 || labourRatio <= 0 {
		return 0
	}
	return population * labourRatio / 100
}

// TargetMilitary is floor(population * militaryRatio/100), the headcount the
// conscription/demobilization step reconciles toward.
func TargetMilitary(population int, militaryRatio int) int {
	return Labourers(population, militaryRatio)
}

// TargetSpies is floor(population * spyRatio/100).
func TargetSpies(population int, spyRatio int) int {
	return Labourers(population, spyRatio)
}

// MilitaryUpkeep is the gold cost per second for a military headcount.
func MilitaryUpkeep(units int) float64 {
	if units <= 0 {
		return 0
	}
	return float64(units) * MilitaryUpkeepPerUnit
}

// SpyUpkeep is the gold cost per second for a spy headcount.
func SpyUpkeep(spies int) float64 {
	if spies <= 0 {
		return 0
	}
	return float64(spies) * SpyUpkeepPerSpy
}

// GoldPerSecond is labourers/5 minus upkeep, scaled by labour efficiency
// upgrades. The result may be negative; sustained debt is an elimination
// condition handled by the victory step.
func GoldPerSecond(labourers, militaryUnits, spies int, labourEfficiencyBonus float64) float64 {
	income := float64(labourers) * goldPerLabourer * (1 + labourEfficiencyBonus)
	return income - MilitaryUpkeep(militaryUnits) - SpyUpkeep(spies)
}

// GrowthPerTick is the fractional population growth accrued in one tick:
// (labourers/10 + cities*0.5) per minute, prorated by tickSeconds and scaled
// by growth upgrades. Callers accumulate the fraction and commit whole units.
func GrowthPerTick(labourers, cityCount int, tickSeconds float64, popGrowthBonus float64) float64 {
	perMinute := float64(labourers)/10 + float64(cityCount)*0.5
	g := perMinute / 60 * tickSeconds * (1 + popGrowthBonus)
	if math.IsNaN(g) || g < 0 {
		return 0
	}
	return g
}
