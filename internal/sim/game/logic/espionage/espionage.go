// Package espionage holds the detection-probability, capital-intel, and
// city-allegiance formulas. Rolls happen in the tick step; this package only
// computes the odds and thresholds.
package espionage

import (
	"math"
	"time"
)

const (
	// Per-threat detection rates per tick-second. A counter-spy is four
	// times as effective at unmasking as a soldier.
	MilitaryDetectionRate = 0.01 / 60
	SpyDetectionRate      = 0.04 / 60

	// TierDuration is the undetected dwell time per capital-intel tier.
	TierDuration = 180 * time.Second

	// MaxTier caps intel progression (5 = spy counts revealed).
	MaxTier = 5

	// FlipThreshold is the allegiance score at which a non-owner team with a
	// spy present takes the tile.
	FlipThreshold = 20.0

	// Allegiance drift per 10-second interval.
	OwnerDrift    = 1.0
	NonOwnerDrift = -1.0
	SpyOwnerDrain = -2.0
	SpyTeamGain   = 1.0
	AllegianceMin = 0.0
	AllegianceMax = 100.0
	DriftInterval = 10 * time.Second
)

// DetectionChance is the aggregate probability that at least one of n
// independent threats detects the spy this tick: 1 - (1-rate)^n. Evasion
// upgrades scale the per-threat rate down before aggregation.
func DetectionChance(rate float64, threats int, evasionBonus float64) float64 {
	if threats <= 0 || rate <= 0 {
		return 0
	}
	r := rate * (1 - evasionBonus)
	if r <= 0 {
		return 0
	}
	if r >= 1 {
		return 1
	}
	p := 1 - math.Pow(1-r, float64(threats))
	if p > 1 {
		p = 1
	}
	return p
}

// MilitaryDetectionChance aggregates the soldier rate over unit count.
func MilitaryDetectionChance(units int, evasionBonus float64) float64 {
	return DetectionChance(MilitaryDetectionRate, units, evasionBonus)
}

// CounterSpyDetectionChance aggregates the counter-spy rate over spy count.
func CounterSpyDetectionChance(spies int, evasionBonus float64) float64 {
	return DetectionChance(SpyDetectionRate, spies, evasionBonus)
}

// IntelTier maps accumulated undetected dwell time onto the 0..5 tier scale.
func IntelTier(accumulated time.Duration) int {
	if accumulated <= 0 {
		return 0
	}
	tier := int(accumulated / TierDuration)
	if tier > MaxTier {
		return MaxTier
	}
	return tier
}

// ClampAllegiance bounds a score into [0, 100].
func ClampAllegiance(score float64) float64 {
	if score < AllegianceMin {
		return AllegianceMin
	}
	if score > AllegianceMax {
		return AllegianceMax
	}
	return score
}

// DriftDelta is the change applied to one team's allegiance score over a
// full drift interval: natural owner/non-owner drift plus the shift from
// undetected spies sitting on the tile.
func DriftDelta(isOwner bool, ownSpies, hostileSpies int) float64 {
	var d float64
	if isOwner {
		d = OwnerDrift + SpyOwnerDrain*float64(hostileSpies)
	} else {
		d = NonOwnerDrift + SpyTeamGain*float64(ownSpies)
	}
	return d
}

// ShouldFlip reports whether a non-owner team's score has crossed the flip
// threshold while it has a spy on the tile.
func ShouldFlip(score float64, hasSpyPresent bool) bool {
	return hasSpyPresent && score >= FlipThreshold
}
