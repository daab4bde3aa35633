package game

import (
	"testing"

	"hexfront.gg/internal/protocol"
	"hexfront.gg/internal/sim/game/logic/hexgrid"
)

func TestMoveArmy_ArrivesAfterPerHexTime(t *testing.T) {
	g := newTestGame(t, 5)
	out := attachTestClient(g, "P1")
	p1 := g.players["P1"]
	army := g.stationaryArmyAt("P1", p1.Capital)
	target := hexInside(t, g, p1.Capital)

	stepIntent(g, "P1", protocol.IntentMoveArmy, func(in *protocol.IntentMsg) {
		in.ArmyID = army.ID
		in.Target = &protocol.HexRef{Q: target.Q, R: target.R}
	})
	wantAccepted(t, resultIn(t, latestView(t, out), "ref-1"))

	if army.Move == nil {
		t.Fatalf("army has no transit after accepted move")
	}
	// One hex at 10s per hex, 1s ticks: 9 more ticks in flight, landing on
	// the 10th.
	for i := 0; i < 8; i++ {
		g.step(nil, nil)
		if army.Move == nil {
			t.Fatalf("army landed early at tick %d", g.tick.Load())
		}
	}
	g.step(nil, nil)
	if army.Move != nil || army.Pos != target {
		t.Fatalf("army did not land: move=%v pos=%v want %v", army.Move, army.Pos, target)
	}
}

func TestMoveArmy_ClaimsUnownedEmptyTile(t *testing.T) {
	g := newTestGame(t, 5)
	p1 := g.players["P1"]
	army := g.stationaryArmyAt("P1", p1.Capital)

	// Two rings out from the capital is past the auto-claimed surroundings.
	var target hexgrid.Hex
	found := false
	for _, k := range g.sortedTileKeys() {
		tl := g.tiles[k]
		if tl.OwnerID == "" && tl.Kind == TileEmpty && hexgrid.Distance(k, p1.Capital) == 2 {
			target, found = k, true
			break
		}
	}
	if !found {
		t.Fatalf("no unowned empty tile at distance 2")
	}

	stepIntent(g, "P1", protocol.IntentMoveArmy, func(in *protocol.IntentMsg) {
		in.ArmyID = army.ID
		in.Target = &protocol.HexRef{Q: target.Q, R: target.R}
	})
	for army.Move != nil {
		g.step(nil, nil)
	}
	if got := g.tiles[target].OwnerID; got != "P1" {
		t.Fatalf("landed tile owner = %q, want P1", got)
	}
}

func TestMoveArmy_Rejections(t *testing.T) {
	g := newTestGame(t, 5)
	out := attachTestClient(g, "P1")
	p1 := g.players["P1"]
	army := g.stationaryArmyAt("P1", p1.Capital)
	target := hexInside(t, g, p1.Capital)

	stepIntent(g, "P1", protocol.IntentMoveArmy, func(in *protocol.IntentMsg) {
		in.ArmyID = "A999999"
		in.Target = &protocol.HexRef{Q: target.Q, R: target.R}
	})
	wantRejected(t, resultIn(t, latestView(t, out), "ref-1"), protocol.ErrInvalidTarget)

	stepIntent(g, "P1", protocol.IntentMoveArmy, func(in *protocol.IntentMsg) {
		in.ArmyID = army.ID
	})
	wantRejected(t, resultIn(t, latestView(t, out), "ref-1"), protocol.ErrBadRequest)

	stepIntent(g, "P1", protocol.IntentMoveArmy, func(in *protocol.IntentMsg) {
		in.ArmyID = army.ID
		in.Target = &protocol.HexRef{Q: army.Pos.Q, R: army.Pos.R}
	})
	wantRejected(t, resultIn(t, latestView(t, out), "ref-1"), protocol.ErrInvalidTarget)

	// Off the map entirely.
	stepIntent(g, "P1", protocol.IntentMoveArmy, func(in *protocol.IntentMsg) {
		in.ArmyID = army.ID
		in.Target = &protocol.HexRef{Q: 999, R: 999}
	})
	wantRejected(t, resultIn(t, latestView(t, out), "ref-1"), protocol.ErrNoPath)

	// Someone else's army.
	p2 := g.players["P2"]
	enemy := g.stationaryArmyAt("P2", p2.Capital)
	stepIntent(g, "P1", protocol.IntentMoveArmy, func(in *protocol.IntentMsg) {
		in.ArmyID = enemy.ID
		in.Target = &protocol.HexRef{Q: target.Q, R: target.R}
	})
	wantRejected(t, resultIn(t, latestView(t, out), "ref-1"), protocol.ErrNotOwner)

	// Already moving.
	stepIntent(g, "P1", protocol.IntentMoveArmy, func(in *protocol.IntentMsg) {
		in.ArmyID = army.ID
		in.Target = &protocol.HexRef{Q: target.Q, R: target.R}
	})
	wantAccepted(t, resultIn(t, latestView(t, out), "ref-1"))
	stepIntent(g, "P1", protocol.IntentMoveArmy, func(in *protocol.IntentMsg) {
		in.ArmyID = army.ID
		in.Target = &protocol.HexRef{Q: p1.Capital.Q, R: p1.Capital.R}
	})
	wantRejected(t, resultIn(t, latestView(t, out), "ref-1"), protocol.ErrConflict)
}

func TestSplitMoveArmy_DetachesFromTail(t *testing.T) {
	g := newTestGame(t, 5)
	out := attachTestClient(g, "P1")
	p1 := g.players["P1"]
	// Pin the military target to the current headcount so the economy step
	// does not conscript into the stack mid-test.
	p1.Ratios = Ratios{Labour: 90, Military: 10, Spy: 0}
	army := g.stationaryArmyAt("P1", p1.Capital)
	army.Units = []float64{100, 90, 80, 70, 60}
	target := hexInside(t, g, p1.Capital)

	stepIntent(g, "P1", protocol.IntentSplitMoveArmy, func(in *protocol.IntentMsg) {
		in.ArmyID = army.ID
		in.Units = 2
		in.Target = &protocol.HexRef{Q: target.Q, R: target.R}
	})
	wantAccepted(t, resultIn(t, latestView(t, out), "ref-1"))

	if len(army.Units) != 3 || army.Units[0] != 100 || army.Units[2] != 80 {
		t.Fatalf("stack after split = %v", army.Units)
	}
	var detached *Army
	for _, a := range g.armies {
		if a.OwnerID == "P1" && a.ID != army.ID && a.Move != nil {
			detached = a
		}
	}
	if detached == nil {
		t.Fatalf("no detached army in flight")
	}
	if len(detached.Units) != 2 || detached.Units[0] != 70 || detached.Units[1] != 60 {
		t.Fatalf("detached units = %v, want tail [70 60]", detached.Units)
	}
}

func TestSplitMoveArmy_MustLeaveUnitsOnBothSides(t *testing.T) {
	g := newTestGame(t, 5)
	out := attachTestClient(g, "P1")
	p1 := g.players["P1"]
	p1.Ratios = Ratios{Labour: 90, Military: 10, Spy: 0}
	army := g.stationaryArmyAt("P1", p1.Capital)
	target := hexInside(t, g, p1.Capital)

	for _, n := range []int{0, len(army.Units)} {
		stepIntent(g, "P1", protocol.IntentSplitMoveArmy, func(in *protocol.IntentMsg) {
			in.ArmyID = army.ID
			in.Units = n
			in.Target = &protocol.HexRef{Q: target.Q, R: target.R}
		})
		wantRejected(t, resultIn(t, latestView(t, out), "ref-1"), protocol.ErrBadRequest)
	}
}

func TestCancelMove_FreezesArmyAtInterpolatedHex(t *testing.T) {
	g := newTestGame(t, 5)
	out := attachTestClient(g, "P1")
	p1 := g.players["P1"]
	army := g.stationaryArmyAt("P1", p1.Capital)

	// A two-hex route: halfway through the journey the army sits on path[0].
	first := hexInside(t, g, p1.Capital)
	var target hexgrid.Hex
	found := false
	for _, nb := range hexgrid.Neighbors(first) {
		if _, ok := g.tiles[nb]; ok && hexgrid.Distance(nb, p1.Capital) == 2 {
			target, found = nb, true
			break
		}
	}
	if !found {
		t.Skip("map too small for a 2-hex route")
	}

	stepIntent(g, "P1", protocol.IntentMoveArmy, func(in *protocol.IntentMsg) {
		in.ArmyID = army.ID
		in.Target = &protocol.HexRef{Q: target.Q, R: target.R}
	})
	wantAccepted(t, resultIn(t, latestView(t, out), "ref-1"))

	// 20s total travel; after 8 ticks progress is 0.4, still on the first
	// hop of the route.
	for i := 0; i < 7; i++ {
		g.step(nil, nil)
	}
	stepIntent(g, "P1", protocol.IntentCancelMove, func(in *protocol.IntentMsg) {
		in.ArmyID = army.ID
	})
	wantAccepted(t, resultIn(t, latestView(t, out), "ref-1"))
	if army.Move != nil {
		t.Fatalf("move not cleared")
	}
	if got := hexgrid.Distance(army.Pos, p1.Capital); got != 1 {
		t.Fatalf("frozen at distance %d from origin, want 1 (pos=%v)", got, army.Pos)
	}
}

func TestRetreatArmy_OnlyWhileEngaged(t *testing.T) {
	g := newTestGame(t, 5)
	out := attachTestClient(g, "P1")
	p1 := g.players["P1"]
	army := g.stationaryArmyAt("P1", p1.Capital)

	// Fight on a border tile next to the capital; the retreat pulls the
	// stack back home.
	front := hexInside(t, g, p1.Capital)
	army.Pos = front

	stepIntent(g, "P1", protocol.IntentRetreatArmy, func(in *protocol.IntentMsg) {
		in.ArmyID = army.ID
		in.Target = &protocol.HexRef{Q: p1.Capital.Q, R: p1.Capital.R}
	})
	wantRejected(t, resultIn(t, latestView(t, out), "ref-1"), protocol.ErrWrongStatus)

	// Drop a hostile stack on the tile; the retreat becomes legal and is
	// instantaneous.
	g.armies["A900001"] = &Army{ID: "A900001", OwnerID: "P2", Pos: front, Units: []float64{100}}
	stepIntent(g, "P1", protocol.IntentRetreatArmy, func(in *protocol.IntentMsg) {
		in.ArmyID = army.ID
		in.Target = &protocol.HexRef{Q: p1.Capital.Q, R: p1.Capital.R}
	})
	wantAccepted(t, resultIn(t, latestView(t, out), "ref-1"))
	if army.Pos != p1.Capital || army.Move != nil {
		t.Fatalf("retreat not instant: pos=%v move=%v", army.Pos, army.Move)
	}
}

func TestRelocateCapital_RequiresOwnedCityAndFreezesUpgrades(t *testing.T) {
	g := newTestGame(t, 5)
	out := attachTestClient(g, "P1")
	p1 := g.players["P1"]

	// No owned city yet.
	target := hexInside(t, g, p1.Capital)
	stepIntent(g, "P1", protocol.IntentRelocateCapital, func(in *protocol.IntentMsg) {
		in.Target = &protocol.HexRef{Q: target.Q, R: target.R}
	})
	wantRejected(t, resultIn(t, latestView(t, out), "ref-1"), protocol.ErrInvalidTarget)

	// Found a city next door, then relocate into it.
	city := g.tiles[target]
	city.Kind = TileCity
	city.Allegiance = initialAllegiance("P1", g.order)
	stepIntent(g, "P1", protocol.IntentRelocateCapital, func(in *protocol.IntentMsg) {
		in.Target = &protocol.HexRef{Q: target.Q, R: target.R}
	})
	wantAccepted(t, resultIn(t, latestView(t, out), "ref-1"))
	if p1.CapitalMove == nil {
		t.Fatalf("no capital transit")
	}

	// Upgrades are administered at the capital and freeze during transit.
	stepIntent(g, "P1", protocol.IntentBuyUpgrade, func(in *protocol.IntentMsg) {
		in.UpgradeID = "PALISADES"
	})
	wantRejected(t, resultIn(t, latestView(t, out), "ref-1"), protocol.ErrCapitalMoving)

	// A second relocation order is a conflict with the first.
	stepIntent(g, "P1", protocol.IntentRelocateCapital, func(in *protocol.IntentMsg) {
		in.Target = &protocol.HexRef{Q: target.Q, R: target.R}
	})
	wantRejected(t, resultIn(t, latestView(t, out), "ref-1"), protocol.ErrCapitalMoving)

	for p1.CapitalMove != nil {
		g.step(nil, nil)
	}
	if p1.Capital != target {
		t.Fatalf("capital = %v, want %v", p1.Capital, target)
	}
	if g.tiles[target].Kind != TileCapital {
		t.Fatalf("destination not promoted to capital")
	}
	if found := func() bool {
		for _, tl := range g.tiles {
			if tl.OwnerID == "P1" && tl.Kind == TileCapital && tl.Pos != target {
				return true
			}
		}
		return false
	}(); found {
		t.Fatalf("more than one capital tile for P1")
	}
}

// relocationCorridor forces a unique two-hex capital route: it picks a
// straight line origin -> nb -> far inside the map and strips ownership from
// every other tile around the origin so pathfinding has one choice.
func relocationCorridor(t *testing.T, g *Game, playerID string) (hexgrid.Hex, hexgrid.Hex) {
	t.Helper()
	origin := g.players[playerID].Capital
	for _, nb := range hexgrid.Neighbors(origin) {
		if _, ok := g.tiles[nb]; !ok {
			continue
		}
		far := hexgrid.Hex{Q: 2*nb.Q - origin.Q, R: 2*nb.R - origin.R}
		ft, ok := g.tiles[far]
		if !ok {
			continue
		}
		for _, other := range hexgrid.Neighbors(origin) {
			if other == nb {
				continue
			}
			if ot, ok := g.tiles[other]; ok && ot.OwnerID == playerID {
				ot.OwnerID = ""
			}
		}
		ft.OwnerID = playerID
		ft.Kind = TileCity
		ft.Allegiance = initialAllegiance(playerID, g.order)
		return nb, far
	}
	t.Fatalf("no two-hex corridor from %v", origin)
	return hexgrid.Hex{}, hexgrid.Hex{}
}

func TestRelocateCapital_CancelFallsBackToLastPassedCity(t *testing.T) {
	g := newTestGame(t, 5)
	out := attachTestClient(g, "P1")
	p1 := g.players["P1"]
	origin := p1.Capital

	mid, far := relocationCorridor(t, g, "P1")
	midTile := g.tiles[mid]
	midTile.Kind = TileCity
	midTile.Allegiance = initialAllegiance("P1", g.order)

	stepIntent(g, "P1", protocol.IntentRelocateCapital, func(in *protocol.IntentMsg) {
		in.Target = &protocol.HexRef{Q: far.Q, R: far.R}
	})
	wantAccepted(t, resultIn(t, latestView(t, out), "ref-1"))

	// 40s total travel at 20s per hex; a handful of ticks puts the capital
	// onto the first hop but nowhere near the destination.
	for i := 0; i < 5; i++ {
		g.step(nil, nil)
	}
	stepIntent(g, "P1", protocol.IntentCancelMove, nil)
	wantAccepted(t, resultIn(t, latestView(t, out), "ref-1"))

	if p1.CapitalMove != nil {
		t.Fatalf("capital transit not cleared")
	}
	if p1.Capital != mid {
		t.Fatalf("capital = %v, want passed city %v", p1.Capital, mid)
	}
	if g.tiles[mid].Kind != TileCapital {
		t.Fatalf("passed city not promoted: %+v", g.tiles[mid])
	}
	if g.tiles[origin].Kind != TileCity {
		t.Fatalf("old capital tile kind = %v, want city", g.tiles[origin].Kind)
	}
	if g.tiles[far].Kind != TileCity {
		t.Fatalf("destination changed kind: %+v", g.tiles[far])
	}
}

func TestRelocateCapital_CancelWithNoPassedCityStaysPut(t *testing.T) {
	g := newTestGame(t, 5)
	out := attachTestClient(g, "P1")
	p1 := g.players["P1"]
	origin := p1.Capital

	// The mid hop stays a plain owned tile, so there is nothing on the
	// route to fall back to.
	mid, far := relocationCorridor(t, g, "P1")

	stepIntent(g, "P1", protocol.IntentRelocateCapital, func(in *protocol.IntentMsg) {
		in.Target = &protocol.HexRef{Q: far.Q, R: far.R}
	})
	wantAccepted(t, resultIn(t, latestView(t, out), "ref-1"))

	for i := 0; i < 5; i++ {
		g.step(nil, nil)
	}
	stepIntent(g, "P1", protocol.IntentCancelMove, nil)
	wantAccepted(t, resultIn(t, latestView(t, out), "ref-1"))

	if p1.CapitalMove != nil {
		t.Fatalf("capital transit not cleared")
	}
	if p1.Capital != origin {
		t.Fatalf("capital = %v, want original %v", p1.Capital, origin)
	}
	if g.tiles[origin].Kind != TileCapital {
		t.Fatalf("original tile kind = %v, want capital", g.tiles[origin].Kind)
	}
	if g.tiles[mid].Kind != TileEmpty {
		t.Fatalf("mid hop changed kind: %+v", g.tiles[mid])
	}

	// With no relocation pending the same intent is a conflict.
	stepIntent(g, "P1", protocol.IntentCancelMove, nil)
	wantRejected(t, resultIn(t, latestView(t, out), "ref-1"), protocol.ErrConflict)
}

func TestMoveSpy_CrossesEnemyGround(t *testing.T) {
	g := newTestGame(t, 5)
	out := attachTestClient(g, "P1")
	p2 := g.players["P2"]

	s := &Spy{ID: "S900001", OwnerID: "P1", Pos: g.players["P1"].Capital}
	g.spies[s.ID] = s

	stepIntent(g, "P1", protocol.IntentMoveSpy, func(in *protocol.IntentMsg) {
		in.SpyID = s.ID
		in.Target = &protocol.HexRef{Q: p2.Capital.Q, R: p2.Capital.R}
	})
	wantAccepted(t, resultIn(t, latestView(t, out), "ref-1"))
	if s.Move == nil {
		t.Fatalf("spy has no transit into enemy territory")
	}
}
