package game

import (
	"hexfront.gg/internal/protocol"
	"hexfront.gg/internal/sim/game/logic/hexgrid"
)

// applySetRatios replaces the labour/military/spy allocation. Each ratio is
// 0..100 and the sum may not exceed 100; conscription or demobilization
// against the new targets happens immediately rather than waiting for the
// next economy tick.
func (g *Game) applySetRatios(p *Player, in protocol.IntentMsg, nowTick uint64) {
	if in.Ratios == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrBadRequest, "ratios required"))
		return
	}
	r := *in.Ratios
	if r.Labour < 0 || r.Military < 0 || r.Spy < 0 || r.Labour > 100 || r.Military > 100 || r.Spy > 100 {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrBadRequest, "ratios must be within 0..100"))
		return
	}
	if r.Labour+r.Military+r.Spy > 100 {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrBadRequest, "ratios must sum to at most 100"))
		return
	}
	p.Ratios = Ratios{Labour: r.Labour, Military: r.Military, Spy: r.Spy}
	g.reconcileMilitary(p)
	g.reconcileSpies(p)
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
}

func (g *Game) applySetRallyPoint(p *Player, in protocol.IntentMsg, nowTick uint64) {
	if in.Target == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrBadRequest, "target required"))
		return
	}
	goal := hexgrid.Hex{Q: in.Target.Q, R: in.Target.R}
	t, ok := g.tiles[goal]
	if !ok {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "no such tile"))
		return
	}
	if t.OwnerID != p.ID {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrNotOwner, "rally point must be an owned tile"))
		return
	}
	p.RallyPoint = goal
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
}

func (g *Game) applyBuildCity(p *Player, in protocol.IntentMsg, nowTick uint64) {
	if in.Target == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrBadRequest, "target required"))
		return
	}
	goal := hexgrid.Hex{Q: in.Target.Q, R: in.Target.R}
	t, ok := g.tiles[goal]
	if !ok || t.OwnerID != p.ID || t.Kind != TileEmpty {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "cities are built on owned empty tiles"))
		return
	}
	cost := float64(g.cfg.Tuning.Economy.CityCostGold)
	if p.Gold < cost {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrNoGold, "not enough gold"))
		return
	}
	p.Gold -= cost
	t.Kind = TileCity
	t.Allegiance = initialAllegiance(p.ID, g.order)
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
}

// applyBuyUpgrade purchases one catalog upgrade. Purchases are administered
// from the capital and are frozen for the duration of a relocation.
func (g *Game) applyBuyUpgrade(p *Player, in protocol.IntentMsg, nowTick uint64) {
	if p.CapitalMove != nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrCapitalMoving, "capital is relocating"))
		return
	}
	def, ok := g.cats.Upgrades.ByID[in.UpgradeID]
	if !ok {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "unknown upgrade"))
		return
	}
	if p.hasUpgrade(def.ID) {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrConflict, "upgrade already purchased"))
		return
	}
	for _, pre := range def.Prerequisites {
		if !p.hasUpgrade(pre) {
			p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrBadRequest, "missing prerequisite "+pre))
			return
		}
	}
	if p.Gold < float64(def.GoldCost) {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrNoGold, "not enough gold"))
		return
	}
	if p.Population < def.PopulationRequired {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrNoPopulation, "population too small"))
		return
	}
	p.Gold -= float64(def.GoldCost)
	p.Upgrades = append(p.Upgrades, def.ID)
	p.effects = p.effects.Add(def.Effects)
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
}

func (g *Game) applyForfeit(p *Player, in protocol.IntentMsg, nowTick uint64) {
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
	g.eliminate(p, ReasonForfeit, nowTick)
}

func (p *Player) hasUpgrade(id string) bool {
	for _, u := range p.Upgrades {
		if u == id {
			return true
		}
	}
	return false
}
