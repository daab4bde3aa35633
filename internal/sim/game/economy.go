package game

import (
	"math"

	"hexfront.gg/internal/sim/game/logic/economy"
	"hexfront.gg/internal/sim/game/logic/hexgrid"
)

// systemEconomy accrues gold, grows population, and reconciles military and
// spy headcounts against the allocation ratios, once per tick per active
// player in seat order.
func (g *Game) systemEconomy(nowTick uint64) {
	tickSeconds := g.tickInterval().Seconds()

	for _, id := range g.order {
		p := g.players[id]
		if p.Eliminated() {
			continue
		}

		labourers := economy.Labourers(p.Population, p.Ratios.Labour)
		p.Gold += economy.GoldPerSecond(
			labourers,
			g.militaryUnitCount(p.ID),
			g.spyCount(p.ID),
			p.effects.LabourEfficiencyBonus,
		) * tickSeconds

		p.growthAcc += economy.GrowthPerTick(labourers, g.cityCount(p.ID), tickSeconds, p.effects.PopGrowthBonus)
		if p.growthAcc >= 1 {
			whole := math.Floor(p.growthAcc)
			p.Population += int(whole)
			p.growthAcc -= whole
		}

		g.reconcileMilitary(p)
		g.reconcileSpies(p)
	}
}

// reconcileMilitary conscripts civilians into an army at the rally point or
// demobilizes units from the capital's stationary army until the headcount
// matches the military ratio target. Demobilization draws only from the
// capital; units in the field stay in the field.
func (g *Game) reconcileMilitary(p *Player) {
	target := economy.TargetMilitary(p.Population, p.Ratios.Military)
	cur := g.militaryUnitCount(p.ID)

	switch {
	case cur < target:
		rally := p.RallyPoint
		if t, ok := g.tiles[rally]; !ok || t.OwnerID != p.ID {
			rally = p.Capital
		}
		a := g.stationaryArmyAt(p.ID, rally)
		if a == nil {
			a = &Army{ID: g.newArmyID(), OwnerID: p.ID, Pos: rally}
			g.armies[a.ID] = a
		}
		for i := 0; i < target-cur; i++ {
			a.Units = append(a.Units, float64(g.cfg.Tuning.Combat.UnitBaseHP))
		}
	case cur > target:
		a := g.stationaryArmyAt(p.ID, p.Capital)
		if a == nil {
			return
		}
		drop := cur - target
		if drop > len(a.Units) {
			drop = len(a.Units)
		}
		a.Units = a.Units[:len(a.Units)-drop]
		if len(a.Units) == 0 {
			delete(g.armies, a.ID)
		}
	}
}

// reconcileSpies trains new spies at the capital or stands down capital-side
// spies until the headcount matches the spy ratio target. Deployed spies are
// never recalled automatically.
func (g *Game) reconcileSpies(p *Player) {
	target := economy.TargetSpies(p.Population, p.Ratios.Spy)
	cur := g.spyCount(p.ID)

	switch {
	case cur < target:
		for i := 0; i < target-cur; i++ {
			s := &Spy{ID: g.newSpyID(), OwnerID: p.ID, Pos: p.Capital}
			g.spies[s.ID] = s
		}
	case cur > target:
		drop := cur - target
		for _, id := range g.sortedSpyIDs() {
			if drop == 0 {
				return
			}
			s := g.spies[id]
			if s.OwnerID == p.ID && s.Stationary() && s.Pos == p.Capital {
				delete(g.spies, id)
				drop--
			}
		}
	}
}

// stationaryArmyAt finds the first (lowest-id) stationary army a player has
// on a tile.
func (g *Game) stationaryArmyAt(playerID string, pos hexgrid.Hex) *Army {
	for _, id := range g.sortedArmyIDs() {
		a := g.armies[id]
		if a.OwnerID == playerID && a.Stationary() && a.Pos == pos {
			return a
		}
	}
	return nil
}
