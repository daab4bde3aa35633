package game

import (
	"testing"

	"hexfront.gg/internal/protocol"
	"hexfront.gg/internal/sim/game/logic/hexgrid"
)

// neutralGround finds an unowned empty tile well away from every capital.
func neutralGround(t *testing.T, g *Game) hexgrid.Hex {
	t.Helper()
	for _, k := range g.sortedTileKeys() {
		tl := g.tiles[k]
		if tl.OwnerID != "" || tl.Kind != TileEmpty {
			continue
		}
		far := true
		for _, id := range g.order {
			if hexgrid.Distance(k, g.players[id].Capital) < 3 {
				far = false
				break
			}
		}
		if far {
			return k
		}
	}
	t.Fatalf("no neutral ground on map")
	return hexgrid.Hex{}
}

// pinRatios stops the economy step from conscripting or demobilizing during
// combat-focused tests.
func pinRatios(g *Game) {
	for _, id := range g.order {
		g.players[id].Ratios = Ratios{Labour: 90, Military: 10, Spy: 0}
	}
}

func TestCombat_SimultaneousDamage(t *testing.T) {
	g := newTestGame(t, 11)
	pinRatios(g)
	front := neutralGround(t, g)

	a1 := g.stationaryArmyAt("P1", g.players["P1"].Capital)
	a2 := g.stationaryArmyAt("P2", g.players["P2"].Capital)
	a1.Pos = front
	a2.Pos = front

	g.step(nil, nil)

	// 5 units vs 5 units on unowned ground: each side takes strength 100 /
	// 10 * (1 - 0.2) * mult damage, mult in [0.9, 1.1], split over 5 units.
	for _, a := range []*Army{a1, a2} {
		if len(a.Units) != 5 {
			t.Fatalf("units died in a light exchange: %v", a.Units)
		}
		for _, hp := range a.Units {
			if hp >= 100 {
				t.Fatalf("unit untouched: hp=%v", hp)
			}
			if hp < 98 {
				t.Fatalf("unit damage out of range: hp=%v", hp)
			}
		}
	}

	// Contested ground does not change hands.
	if got := g.tiles[front].OwnerID; got != "" {
		t.Fatalf("contested tile captured by %q", got)
	}
}

func TestCombat_DeadUnitLeavesThePopulation(t *testing.T) {
	g := newTestGame(t, 11)
	pinRatios(g)
	front := neutralGround(t, g)

	a1 := g.stationaryArmyAt("P1", g.players["P1"].Capital)
	a1.Pos = front
	g.armies["A900001"] = &Army{ID: "A900001", OwnerID: "P2", Pos: front, Units: []float64{5}}
	popBefore := g.players["P2"].Population

	g.step(nil, nil)

	if _, alive := g.armies["A900001"]; alive {
		t.Fatalf("wiped army still registered")
	}
	if got := g.players["P2"].Population; got != popBefore-1 {
		t.Fatalf("population = %d, want %d", got, popBefore-1)
	}
	// The survivor holds the ground alone and takes it.
	if got := g.tiles[front].OwnerID; got != "P1" {
		t.Fatalf("undefended tile owner = %q, want P1", got)
	}
}

func TestCombat_RevealsOpponentUpgrades(t *testing.T) {
	g := newTestGame(t, 11)
	pinRatios(g)
	front := neutralGround(t, g)

	p2 := g.players["P2"]
	p2.Upgrades = append(p2.Upgrades, "PALISADES")

	a1 := g.stationaryArmyAt("P1", g.players["P1"].Capital)
	a2 := g.stationaryArmyAt("P2", p2.Capital)
	a1.Pos = front
	a2.Pos = front

	g.step(nil, nil)

	p1 := g.players["P1"]
	if got := p1.KnownEnemyUpgrades["P2"]["PALISADES"]; got != RevealCombat {
		t.Fatalf("upgrade reveal source = %q, want %q", got, RevealCombat)
	}
}

func TestCombat_BetweenAlliesDissolvesAlliance(t *testing.T) {
	g := newTestGame(t, 11)
	pinRatios(g)
	front := neutralGround(t, g)

	g.alliances["AL0001"] = &Alliance{
		ID: "AL0001", Player1: "P1", Player2: "P2", Status: AllianceActive,
		Sharing: map[string]map[string]bool{"P1": {}, "P2": {}},
	}

	a1 := g.stationaryArmyAt("P1", g.players["P1"].Capital)
	a2 := g.stationaryArmyAt("P2", g.players["P2"].Capital)
	a1.Pos = front
	a2.Pos = front

	g.step(nil, nil)

	if len(g.alliances) != 0 {
		t.Fatalf("alliance survived friendly fire")
	}
}

func TestCombat_CityOwnerIsWarned(t *testing.T) {
	g := newTestGame(t, 11)
	pinRatios(g)
	out := attachTestClient(g, "P2")
	front := neutralGround(t, g)

	tl := g.tiles[front]
	tl.OwnerID = "P2"
	tl.Kind = TileCity
	tl.Allegiance = initialAllegiance("P2", g.order)

	a1 := g.stationaryArmyAt("P1", g.players["P1"].Capital)
	a2 := g.stationaryArmyAt("P2", g.players["P2"].Capital)
	a1.Pos = front
	a2.Pos = front

	g.step(nil, nil)

	v := latestView(t, out)
	found := false
	for _, e := range v.Events {
		if e["type"] == protocol.EventCityUnderAttack {
			found = true
		}
	}
	if !found {
		t.Fatalf("no cityUnderAttack event for the defender")
	}
}

func TestCombat_TransitingArmiesDoNotFight(t *testing.T) {
	g := newTestGame(t, 11)
	pinRatios(g)
	front := neutralGround(t, g)

	a1 := g.stationaryArmyAt("P1", g.players["P1"].Capital)
	a1.Pos = front
	mover := &Army{
		ID: "A900001", OwnerID: "P2", Pos: front, Units: []float64{100},
		Move: g.newMove(front, hexInside(t, g, front), []hexgrid.Hex{hexInside(t, g, front)}, g.armyPerHex(), 0),
	}
	g.armies[mover.ID] = mover

	g.step(nil, nil)

	for _, hp := range a1.Units {
		if hp != 100 {
			t.Fatalf("stationary army damaged by a transiting one: hp=%v", hp)
		}
	}
	if mover.Units[0] != 100 {
		t.Fatalf("transiting army took damage")
	}
}
