package economy

import (
	"math"
	"testing"
)

func TestLabourers_FloorPerRatio(t *testing.T) {
	if got := Labourers(100, 30); got != 30 {
		t.Fatalf("got %d want 30", got)
	}
	if got := Labourers(33, 50); got != 16 {
		t.Fatalf("got %d want 16 (floor)", got)
	}
	if got := Labourers(0, 50); got != 0 {
		t.Fatalf("zero population: got %d", got)
	}
	if got := Labourers(-5, 50); got != 0 {
		t.Fatalf("negative population guarded: got %d", got)
	}
}

func TestLabourers_UndercountPreserved(t *testing.T) {
	// 33/33/34 on population 10 floors each bucket independently.
	pop := 10
	l := Labourers(pop, 33)
	m := TargetMilitary(pop, 33)
	s := TargetSpies(pop, 34)
	if l+m+s >= pop {
		t.Fatalf("expected rounding undercount, got %d+%d+%d", l, m, s)
	}
}

func TestUpkeep_Rates(t *testing.T) {
	if got := MilitaryUpkeep(10); got != 1.0 {
		t.Fatalf("military upkeep: got %v want 1.0", got)
	}
	if got := SpyUpkeep(10); got != 2.0 {
		t.Fatalf("spy upkeep: got %v want 2.0", got)
	}
	// Spies always cost exactly twice the military rate for equal counts.
	for n := 1; n < 50; n += 7 {
		if SpyUpkeep(n) != 2*MilitaryUpkeep(n) {
			t.Fatalf("spy upkeep not 2x at n=%d", n)
		}
	}
}

func TestGoldPerSecond_BaseCase(t *testing.T) {
	if got := GoldPerSecond(50, 0, 0, 0); got != 10 {
		t.Fatalf("50 labourers no upkeep: got %v want 10", got)
	}
	if got := GoldPerSecond(0, 10, 10, 0); got != -3.0 {
		t.Fatalf("pure upkeep: got %v want -3.0", got)
	}
	// Negative rates are allowed; debt handling is the victory step's job.
	if got := GoldPerSecond(5, 100, 0, 0); got >= 0 {
		t.Fatalf("expected negative rate, got %v", got)
	}
}

func TestGrowthPerTick_AccumulatesFractions(t *testing.T) {
	// 10 labourers, 1 city: 1.5 population per minute -> 0.025/s.
	g := GrowthPerTick(10, 1, 1.0, 0)
	if math.Abs(g-0.025) > 1e-12 {
		t.Fatalf("got %v want 0.025", g)
	}
	acc := 0.0
	ticks := 0
	for acc < 1 {
		acc += g
		ticks++
	}
	if ticks != 40 {
		t.Fatalf("first whole unit after %d ticks, want 40", ticks)
	}
}

func TestGrowthPerTick_Guards(t *testing.T) {
	if got := GrowthPerTick(-10, -1, 1.0, 0); got != 0 {
		t.Fatalf("negative inputs: got %v want 0", got)
	}
	if got := GrowthPerTick(10, 1, 1.0, math.NaN()); got != 0 {
		t.Fatalf("NaN bonus: got %v want 0", got)
	}
}
