package game

import (
	"time"

	"hexfront.gg/internal/protocol"
	"hexfront.gg/internal/sim/game/logic/espionage"
	"hexfront.gg/internal/sim/game/logic/hexgrid"
)

// systemEspionage rolls spy detection, accumulates capital-intel dwell time,
// and drifts city allegiance. Detection uses two independent checks per spy
// per tick: one against enemy soldiers on the tile, one against enemy
// counter-spies.
func (g *Game) systemEspionage(nowTick uint64) {
	g.rollDetection(nowTick)
	g.accumulateIntel()
	g.driftAllegiance(nowTick)
}

func (g *Game) rollDetection(nowTick uint64) {
	for _, id := range g.sortedSpyIDs() {
		s := g.spies[id]
		if s.Revealed {
			continue
		}
		owner := g.players[s.OwnerID]
		evasion := 0.0
		if owner != nil {
			evasion = owner.effects.SpyEvasionBonus
		}
		pos := g.spyPos(s)

		// Each hostile owner's forces roll with their own detection bonus,
		// folded into the per-threat rate as negative evasion.
		for _, tid := range g.order {
			if tid == s.OwnerID {
				continue
			}
			tp := g.players[tid]
			if tp.Eliminated() {
				continue
			}
			eff := evasion - tp.effects.SpyDetectionBonus

			units := g.stationaryUnitsAt(tid, pos)
			if g.rng.Float64() < espionage.MilitaryDetectionChance(units, eff) {
				g.revealSpy(s, tid, nowTick)
				break
			}
			counterSpies := g.spiesAt(tid, pos)
			if g.rng.Float64() < espionage.CounterSpyDetectionChance(counterSpies, eff) {
				g.revealSpy(s, tid, nowTick)
				break
			}
		}
	}
}

func (g *Game) revealSpy(s *Spy, detectedBy string, nowTick uint64) {
	s.Revealed = true
	pos := g.spyPos(s)
	e := protocol.Event{
		"t":        nowTick,
		"type":     protocol.EventSpyDetected,
		"spy":      s.ID,
		"owner":    s.OwnerID,
		"detector": detectedBy,
		"pos":      protocol.HexRef{Q: pos.Q, R: pos.R},
	}
	if p := g.players[s.OwnerID]; p != nil && !p.Eliminated() {
		p.AddEvent(e)
	}
	if p := g.players[detectedBy]; p != nil && !p.Eliminated() {
		p.AddEvent(e)
	}
}

// accumulateIntel advances capital-intel dwell per (owner, target) pair.
// Every undetected stationary spy on the enemy capital contributes a full
// tick interval, so stacking spies shortens the time to the next tier.
func (g *Game) accumulateIntel() {
	interval := g.tickInterval()
	for _, id := range g.sortedSpyIDs() {
		s := g.spies[id]
		if s.Revealed || !s.Stationary() {
			continue
		}
		owner := g.players[s.OwnerID]
		if owner == nil || owner.Eliminated() {
			continue
		}
		for _, tid := range g.order {
			if tid == s.OwnerID {
				continue
			}
			tp := g.players[tid]
			if tp.Eliminated() || s.Pos != tp.Capital {
				continue
			}
			prog := owner.Intel[tid]
			if prog == nil {
				prog = &IntelProgress{}
				owner.Intel[tid] = prog
			}
			prog.Accumulated += interval

			// Tier 3 burns the target's upgrade list into permanent memory.
			if g.intelTier(prog.Accumulated) >= 3 {
				if owner.KnownEnemyUpgrades[tid] == nil {
					owner.KnownEnemyUpgrades[tid] = map[string]string{}
				}
				for _, u := range tp.Upgrades {
					if _, known := owner.KnownEnemyUpgrades[tid][u]; !known {
						owner.KnownEnemyUpgrades[tid][u] = RevealCapitalIntel
					}
				}
			}
		}
	}
}

// intelTier maps accumulated dwell time onto the tier scale, honoring a
// tuned tier duration when one is set.
func (g *Game) intelTier(acc time.Duration) int {
	ms := g.cfg.Tuning.Espionage.IntelTierMs
	if ms <= 0 {
		return espionage.IntelTier(acc)
	}
	if acc <= 0 {
		return 0
	}
	tier := int(acc / (time.Duration(ms) * time.Millisecond))
	if tier > espionage.MaxTier {
		return espionage.MaxTier
	}
	return tier
}

// driftAllegiance applies the 10-second loyalty drift to every city and
// capital tile and flips ownership once a non-owner team with a spy present
// crosses the threshold.
func (g *Game) driftAllegiance(nowTick uint64) {
	driftTicks := uint64(espionage.DriftInterval / g.tickInterval())
	if g.cfg.Tuning.Espionage.AllegianceDriftSec > 0 {
		driftTicks = uint64(time.Duration(g.cfg.Tuning.Espionage.AllegianceDriftSec) * time.Second / g.tickInterval())
	}
	if driftTicks == 0 || nowTick == 0 || nowTick%driftTicks != 0 {
		return
	}

	for _, k := range g.sortedTileKeys() {
		t := g.tiles[k]
		if t.Kind != TileCity && t.Kind != TileCapital {
			continue
		}
		if t.Allegiance == nil {
			t.Allegiance = initialAllegiance(t.OwnerID, g.order)
		}

		spiesByTeam := g.undetectedSpiesByTeam(k)
		hostileSpies := 0
		for tid, n := range spiesByTeam {
			if tid != t.OwnerID {
				hostileSpies += n
			}
		}

		for _, tid := range g.order {
			delta := espionage.DriftDelta(tid == t.OwnerID, spiesByTeam[tid], hostileSpies)
			t.Allegiance[tid] = espionage.ClampAllegiance(t.Allegiance[tid] + delta)
		}

		g.checkFlip(k, t, spiesByTeam, nowTick)
	}
}

// checkFlip hands the tile to the highest-scoring non-owner team that has
// crossed the flip threshold with a spy present. Seat order breaks score
// ties.
func (g *Game) checkFlip(pos hexgrid.Hex, t *Tile, spiesByTeam map[string]int, nowTick uint64) {
	threshold := espionage.FlipThreshold
	if g.cfg.Tuning.Espionage.AllegianceFlipScore > 0 {
		threshold = g.cfg.Tuning.Espionage.AllegianceFlipScore
	}
	var winner string
	var best float64
	for _, tid := range g.order {
		if tid == t.OwnerID || g.players[tid].Eliminated() {
			continue
		}
		score := t.Allegiance[tid]
		if spiesByTeam[tid] > 0 && score >= threshold && score > best {
			winner = tid
			best = score
		}
	}
	if winner == "" {
		return
	}
	prev := t.OwnerID
	t.OwnerID = winner
	t.Allegiance = initialAllegiance(winner, g.order)
	g.broadcast(protocol.Event{
		"t":     nowTick,
		"type":  protocol.EventCityFlipped,
		"pos":   protocol.HexRef{Q: pos.Q, R: pos.R},
		"from":  prev,
		"to":    winner,
		"cause": "allegiance",
	})
}

// stationaryUnitsAt counts a player's stationary units on a tile.
func (g *Game) stationaryUnitsAt(playerID string, pos hexgrid.Hex) int {
	n := 0
	for _, a := range g.armies {
		if a.OwnerID == playerID && a.Stationary() && a.Pos == pos {
			n += len(a.Units)
		}
	}
	return n
}

// spiesAt counts a player's spies currently on a tile, moving or not.
func (g *Game) spiesAt(playerID string, pos hexgrid.Hex) int {
	n := 0
	for _, s := range g.spies {
		if s.OwnerID == playerID && g.spyPos(s) == pos {
			n++
		}
	}
	return n
}

// undetectedSpiesByTeam counts undetected stationary spies per team on a
// tile.
func (g *Game) undetectedSpiesByTeam(pos hexgrid.Hex) map[string]int {
	out := map[string]int{}
	for _, s := range g.spies {
		if !s.Revealed && s.Stationary() && s.Pos == pos {
			out[s.OwnerID]++
		}
	}
	return out
}
