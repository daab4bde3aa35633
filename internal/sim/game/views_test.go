package game

import (
	"testing"
	"time"

	"hexfront.gg/internal/protocol"
	"hexfront.gg/internal/sim/game/logic/hexgrid"
)

func neutralCity(t *testing.T, g *Game) *Tile {
	t.Helper()
	for _, k := range g.sortedTileKeys() {
		if tl := g.tiles[k]; tl.Kind == TileCity && tl.OwnerID == "" {
			return tl
		}
	}
	t.Fatalf("no neutral city on the map")
	return nil
}

func TestView_EnemyHoldingsStayHidden(t *testing.T) {
	g := newTestGame(t, 3)
	out := attachTestClient(g, "P1")

	g.step(nil, nil)

	v := latestView(t, out)
	for _, tv := range v.Tiles {
		if tv.OwnerID == "P2" {
			t.Fatalf("enemy tile %v visible at game start", tv.Pos)
		}
	}
	for _, av := range v.Armies {
		if av.OwnerID == "P2" {
			t.Fatalf("enemy army %s visible at game start", av.ID)
		}
	}
	// Own armies carry the HP detail.
	for _, av := range v.Armies {
		if av.OwnerID == "P1" && len(av.HP) != av.Units {
			t.Fatalf("own army %s missing hp detail", av.ID)
		}
	}
}

func TestView_FogRemembersLastSeenState(t *testing.T) {
	g := newTestGame(t, 3)
	out := attachTestClient(g, "P1")
	city := neutralCity(t, g)

	// A temporary outpost next to the city brings it into line of sight.
	var outpost *Tile
	for _, nb := range hexgrid.Neighbors(city.Pos) {
		if tl, ok := g.tiles[nb]; ok && tl.OwnerID == "" {
			outpost = tl
			break
		}
	}
	if outpost == nil {
		t.Fatalf("city has no claimable neighbor")
	}
	outpost.OwnerID = "P1"
	g.step(nil, nil)

	seen := false
	for _, tv := range latestView(t, out).Tiles {
		if tv.Pos.Q == city.Pos.Q && tv.Pos.R == city.Pos.R {
			seen = true
		}
	}
	if !seen {
		t.Fatalf("city not visible from the outpost")
	}

	// Losing the outpost drops the city out of vision; its tile moves to the
	// fog layer and does not track later ownership changes.
	outpost.OwnerID = ""
	city.OwnerID = "P2"
	g.step(nil, nil)

	v := latestView(t, out)
	for _, tv := range v.Tiles {
		if tv.Pos.Q == city.Pos.Q && tv.Pos.R == city.Pos.R {
			t.Fatalf("city still in live vision")
		}
	}
	var fogged *protocol.TileView
	for i, tv := range v.Fogged {
		if tv.Pos.Q == city.Pos.Q && tv.Pos.R == city.Pos.R {
			fogged = &v.Fogged[i]
		}
	}
	if fogged == nil {
		t.Fatalf("city absent from fog memory")
	}
	if fogged.OwnerID != "" {
		t.Fatalf("fog shows live owner %q, want last-seen neutral", fogged.OwnerID)
	}
}

func TestView_SharedVisionFlowsPerSharerToggle(t *testing.T) {
	g := newTestGame(t, 3)
	out1 := attachTestClient(g, "P1")
	out2 := attachTestClient(g, "P2")

	stepIntent(g, "P1", protocol.IntentProposeAlliance, func(in *protocol.IntentMsg) {
		in.PlayerID = "P2"
	})
	stepIntent(g, "P2", protocol.IntentAcceptAlliance, func(in *protocol.IntentMsg) {
		in.PlayerID = "P1"
	})
	stepIntent(g, "P2", protocol.IntentSetSharing, func(in *protocol.IntentMsg) {
		in.PlayerID = "P1"
		in.Sharing = &protocol.SharingReq{Category: protocol.SharingVision, Enabled: true}
	})

	v1 := latestView(t, out1)
	if len(v1.Shared) != 1 || v1.Shared[0].PlayerID != "P2" {
		t.Fatalf("shared views for P1 = %+v", v1.Shared)
	}
	if len(v1.Shared[0].Vision) == 0 {
		t.Fatalf("no shared vision hexes")
	}
	// P1 shares nothing back, so P2 receives nothing.
	if v2 := latestView(t, out2); len(v2.Shared) != 0 {
		t.Fatalf("unshared data leaked to P2: %+v", v2.Shared)
	}
}

func TestView_IntelFieldsUnlockByTier(t *testing.T) {
	g := newTestGame(t, 3)
	p1 := g.players["P1"]
	p2 := g.players["P2"]
	p2.Upgrades = []string{"PALISADES"}

	tierLen := 180 * time.Second
	cases := []struct {
		acc  time.Duration
		tier int
	}{
		{tierLen - time.Second, 0},
		{tierLen + time.Second, 1},
		{2*tierLen + time.Second, 2},
		{3*tierLen + time.Second, 3},
		{4*tierLen + time.Second, 4},
		{9 * tierLen, 5},
	}
	for _, tc := range cases {
		p1.Intel = map[string]*IntelProgress{"P2": {Accumulated: tc.acc}}
		v := g.buildView(p1, 1)

		if tc.tier == 0 {
			if len(v.Intel) != 0 {
				t.Fatalf("acc %v: intel surfaced below tier 1", tc.acc)
			}
			continue
		}
		if len(v.Intel) != 1 {
			t.Fatalf("acc %v: intel views = %d", tc.acc, len(v.Intel))
		}
		iv := v.Intel[0]
		if iv.Tier != tc.tier || iv.TargetID != "P2" {
			t.Fatalf("acc %v: tier = %d target %s, want %d P2", tc.acc, iv.Tier, iv.TargetID, tc.tier)
		}
		if (iv.Gold == nil) != (tc.tier < 1) ||
			(iv.Population == nil) != (tc.tier < 2) ||
			(iv.Upgrades == nil) != (tc.tier < 3) ||
			(iv.ArmyUnits == nil) != (tc.tier < 4) ||
			(iv.Spies == nil) != (tc.tier < 5) {
			t.Fatalf("acc %v: wrong fields unlocked at tier %d: %+v", tc.acc, tc.tier, iv)
		}
	}
}

func TestView_SelfMarksWinnerAndFallen(t *testing.T) {
	g := newTestGame(t, 3)
	p1 := g.players["P1"]
	p2 := g.players["P2"]

	g.eliminate(p1, ReasonForfeit, 4)

	loser := g.buildView(p1, 5).Self
	if loser.EliminatedAt == 0 || loser.FinishPosition != 2 {
		t.Fatalf("loser self view = %+v", loser)
	}
	winner := g.buildView(p2, 5).Self
	if winner.EliminatedAt != 0 || winner.FinishPosition != 1 {
		t.Fatalf("winner self view = %+v", winner)
	}
}
