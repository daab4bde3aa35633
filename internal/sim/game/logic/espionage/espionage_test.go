package espionage

import (
	"math"
	"testing"
	"time"
)

func TestDetectionChance_ZeroThreats(t *testing.T) {
	if got := MilitaryDetectionChance(0, 0); got != 0 {
		t.Fatalf("zero units: got %v want 0", got)
	}
	if got := CounterSpyDetectionChance(0, 0); got != 0 {
		t.Fatalf("zero spies: got %v want 0", got)
	}
}

func TestDetectionChance_ComplementFormula(t *testing.T) {
	for _, n := range []int{1, 5, 60, 600} {
		want := 1 - math.Pow(1-MilitaryDetectionRate, float64(n))
		got := MilitaryDetectionChance(n, 0)
		if math.Abs(got-want) > 1e-15 {
			t.Fatalf("n=%d: got %v want %v", n, got, want)
		}
	}
}

func TestDetectionChance_StrictlyIncreasingBoundedByOne(t *testing.T) {
	prev := 0.0
	for n := 1; n <= 100000; n *= 10 {
		p := MilitaryDetectionChance(n, 0)
		if p <= prev {
			t.Fatalf("n=%d: chance %v not strictly above %v", n, p, prev)
		}
		if p > 1 {
			t.Fatalf("n=%d: chance %v exceeds 1", n, p)
		}
		prev = p
	}
}

func TestDetectionChance_CounterSpiesFourTimesRate(t *testing.T) {
	if SpyDetectionRate != 4*MilitaryDetectionRate {
		t.Fatalf("counter-spy rate must be 4x military rate")
	}
	// For a single threat the aggregate equals the raw rate.
	if got := CounterSpyDetectionChance(1, 0); math.Abs(got-SpyDetectionRate) > 1e-15 {
		t.Fatalf("single counter-spy: got %v want %v", got, SpyDetectionRate)
	}
}

func TestDetectionChance_EvasionBonus(t *testing.T) {
	base := MilitaryDetectionChance(10, 0)
	evading := MilitaryDetectionChance(10, 0.5)
	if evading >= base {
		t.Fatalf("evasion bonus must reduce detection: %v >= %v", evading, base)
	}
	if got := MilitaryDetectionChance(10, 1.0); got != 0 {
		t.Fatalf("full evasion: got %v want 0", got)
	}
}

func TestIntelTier_Progression(t *testing.T) {
	if got := IntelTier(0); got != 0 {
		t.Fatalf("t=0: got %d", got)
	}
	if got := IntelTier(179 * time.Second); got != 0 {
		t.Fatalf("just under tier 1: got %d", got)
	}
	// 181,000 ms is tier 1 (gold), not tier 2.
	if got := IntelTier(181 * time.Second); got != 1 {
		t.Fatalf("181s: got %d want 1", got)
	}
	if got := IntelTier(2 * TierDuration); got != 2 {
		t.Fatalf("two durations: got %d want 2", got)
	}
	if got := IntelTier(100 * TierDuration); got != MaxTier {
		t.Fatalf("cap: got %d want %d", got, MaxTier)
	}
}

func TestDriftDelta(t *testing.T) {
	// Natural drift, no spies.
	if got := DriftDelta(true, 0, 0); got != 1 {
		t.Fatalf("owner drift: got %v want 1", got)
	}
	if got := DriftDelta(false, 0, 0); got != -1 {
		t.Fatalf("non-owner drift: got %v want -1", got)
	}
	// Two hostile spies drain the owner at -2 each on top of +1 drift.
	if got := DriftDelta(true, 0, 2); got != -3 {
		t.Fatalf("owner under 2 spies: got %v want -3", got)
	}
	// A team's own spy adds +1 on top of -1 drift.
	if got := DriftDelta(false, 1, 0); got != 0 {
		t.Fatalf("team with 1 spy: got %v want 0", got)
	}
}

func TestShouldFlip_RequiresSpyPresence(t *testing.T) {
	if ShouldFlip(50, false) {
		t.Fatalf("no spy present: must not flip")
	}
	if ShouldFlip(19.9, true) {
		t.Fatalf("below threshold: must not flip")
	}
	if !ShouldFlip(20, true) {
		t.Fatalf("at threshold with spy: must flip")
	}
}

func TestClampAllegiance(t *testing.T) {
	if got := ClampAllegiance(-4); got != 0 {
		t.Fatalf("got %v", got)
	}
	if got := ClampAllegiance(104); got != 100 {
		t.Fatalf("got %v", got)
	}
	if got := ClampAllegiance(55); got != 55 {
		t.Fatalf("got %v", got)
	}
}
