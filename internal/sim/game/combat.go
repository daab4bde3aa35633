package game

import (
	"sort"

	"hexfront.gg/internal/protocol"
	"hexfront.gg/internal/sim/game/logic/combat"
	"hexfront.gg/internal/sim/game/logic/hexgrid"
)

// systemCombat resolves one round of damage on every tile where stationary
// armies of different owners coexist, then transfers ownership of tiles left
// undefended. Transiting armies do not fight mid-path.
func (g *Game) systemCombat(nowTick uint64) {
	groups := g.stationaryByTile()

	keys := make([]hexgrid.Hex, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Q != keys[j].Q {
			return keys[i].Q < keys[j].Q
		}
		return keys[i].R < keys[j].R
	})

	for _, pos := range keys {
		armies := groups[pos]
		owners := distinctOwners(armies)
		if len(owners) >= 2 {
			g.resolveTileCombat(pos, armies, owners, nowTick)
		}
	}

	// Capture pass: re-group after casualties so deleted armies don't hold
	// ground.
	groups = g.stationaryByTile()
	for _, pos := range keys {
		armies := groups[pos]
		if len(armies) == 0 {
			continue
		}
		owners := distinctOwners(armies)
		g.resolveCapture(pos, owners, nowTick)
	}
}

// stationaryByTile groups live stationary armies by their tile.
func (g *Game) stationaryByTile() map[hexgrid.Hex][]*Army {
	out := map[hexgrid.Hex][]*Army{}
	for _, id := range g.sortedArmyIDs() {
		a := g.armies[id]
		if a.Stationary() && len(a.Units) > 0 {
			out[a.Pos] = append(out[a.Pos], a)
		}
	}
	return out
}

func distinctOwners(armies []*Army) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range armies {
		if !seen[a.OwnerID] {
			seen[a.OwnerID] = true
			out = append(out, a.OwnerID)
		}
	}
	sort.Strings(out)
	return out
}

// resolveTileCombat applies one tick of mutual damage between every owner
// present on the tile. Each side's incoming damage derives from the summed
// strength of all opposing units; the total is split evenly across the
// side's own units.
func (g *Game) resolveTileCombat(pos hexgrid.Hex, armies []*Army, owners []string, nowTick uint64) {
	tile := g.tiles[pos]

	// Opposing strength per side, computed before any damage lands so the
	// exchange is simultaneous.
	oppStrength := map[string]float64{}
	unitCount := map[string]int{}
	for _, o := range owners {
		for _, a := range armies {
			if a.OwnerID == o {
				unitCount[o] += len(a.Units)
			}
		}
	}
	for _, o := range owners {
		var s float64
		for _, other := range owners {
			if other == o {
				continue
			}
			bonus := 0.0
			if op := g.players[other]; op != nil {
				bonus = op.effects.StrengthBonus
			}
			s += combat.Strength(unitCount[other]) * (1 + bonus)
		}
		oppStrength[o] = s
	}

	// One random multiplier per side per tick, drawn in owner order.
	damage := map[string]float64{}
	for _, o := range owners {
		defBonus := 0.0
		if p := g.players[o]; p != nil {
			defBonus = p.effects.DefenseBonus
		}
		def := combat.Defense(tile != nil && tile.OwnerID == o, defBonus)
		mult := combat.RandomMin + (combat.RandomMax-combat.RandomMin)*g.rng.Float64()
		damage[o] = combat.Damage(oppStrength[o], def, mult)
	}

	for _, o := range owners {
		perUnit := combat.PerUnit(damage[o], unitCount[o])
		if perUnit <= 0 {
			continue
		}
		for _, a := range armies {
			if a.OwnerID != o {
				continue
			}
			survivors := a.Units[:0]
			for _, hp := range a.Units {
				hp -= perUnit
				if combat.Dead(hp) {
					if p := g.players[o]; p != nil && p.Population > 0 {
						p.Population--
					}
					continue
				}
				survivors = append(survivors, hp)
			}
			a.Units = survivors
			if len(a.Units) == 0 {
				delete(g.armies, a.ID)
			}
		}
	}

	// Fighting someone reveals their purchased upgrades.
	for _, o := range owners {
		p := g.players[o]
		if p == nil {
			continue
		}
		for _, other := range owners {
			if other == o {
				continue
			}
			op := g.players[other]
			if op == nil || len(op.Upgrades) == 0 {
				continue
			}
			if p.KnownEnemyUpgrades[other] == nil {
				p.KnownEnemyUpgrades[other] = map[string]string{}
			}
			for _, u := range op.Upgrades {
				if _, known := p.KnownEnemyUpgrades[other][u]; !known {
					p.KnownEnemyUpgrades[other][u] = RevealCombat
				}
			}
		}
	}

	if tile != nil && (tile.Kind == TileCity || tile.Kind == TileCapital) && tile.OwnerID != "" {
		if p := g.players[tile.OwnerID]; p != nil && !p.Eliminated() {
			p.AddEvent(protocol.Event{
				"t":    nowTick,
				"type": protocol.EventCityUnderAttack,
				"pos":  protocol.HexRef{Q: pos.Q, R: pos.R},
			})
		}
	}

	// Combat between allies breaks the alliance on the spot.
	for i, o := range owners {
		for _, other := range owners[i+1:] {
			if al := g.allianceBetween(o, other); al != nil && al.Status == AllianceActive {
				g.dissolveAlliance(al, nowTick)
			}
		}
	}
}

// resolveCapture transfers the tile once exactly one hostile owner holds it
// with no defending army present. Capturing a capital leaves the old owner
// to the victory check.
func (g *Game) resolveCapture(pos hexgrid.Hex, owners []string, nowTick uint64) {
	tile := g.tiles[pos]
	if tile == nil {
		return
	}
	for _, o := range owners {
		if o == tile.OwnerID {
			return // defended
		}
	}
	if len(owners) != 1 || owners[0] == tile.OwnerID {
		return
	}
	captor := owners[0]
	tile.OwnerID = captor
	if tile.Kind == TileCity || tile.Kind == TileCapital {
		tile.Allegiance = initialAllegiance(captor, g.order)
	}
}
