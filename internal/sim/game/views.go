package game

import (
	"sort"

	"hexfront.gg/internal/protocol"
	"hexfront.gg/internal/sim/game/logic/economy"
	"hexfront.gg/internal/sim/game/logic/hexgrid"
)

func (g *Game) welcomeFor(p *Player) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        p.ID,
		GameID:          g.cfg.ID,
		ResumeToken:     g.resumeToken(p.ID),
		GameParams: protocol.GameParams{
			TickIntervalMs:  g.cfg.Tuning.TickIntervalMs,
			MapRadius:       g.cfg.Tuning.MapRadius,
			ArmyPerHexMs:    g.cfg.Tuning.Movement.ArmyPerHexMs,
			SpyPerHexMs:     g.cfg.Tuning.Movement.SpyPerHexMs,
			CapitalPerHexMs: g.cfg.Tuning.Movement.CapitalPerHexMs,
			PauseBudgetMs:   g.cfg.Tuning.Pause.BudgetMs,
		},
		UpgradesDigest: g.cats.Upgrades.Digest,
	}
}

// lineOfSight is the player's own fog-of-war: owned tiles plus their
// immediate neighbors.
func (g *Game) lineOfSight(p *Player) map[hexgrid.Hex]bool {
	return hexgrid.LineOfSight(g.ownedTiles(p.ID))
}

// buildView assembles the per-tick committed state one player may see:
// their own line of sight, remembered fog, entities inside vision, whatever
// allies have opted into sharing, and accumulated capital intel.
func (g *Game) buildView(p *Player, nowTick uint64) protocol.ViewMsg {
	view := protocol.ViewMsg{
		Type:            protocol.TypeView,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		GameID:          g.cfg.ID,
		PlayerID:        p.ID,
		Status:          string(g.status),
		Events:          p.events,
	}

	if g.paused {
		view.Paused = &protocol.PauseView{
			ByPlayerID: g.pausedBy,
			SinceMs:    g.pausedAtWall.UnixMilli(),
			BudgetMs:   g.pauseBudgetLeft(g.players[g.pausedBy]).Milliseconds(),
		}
	}

	los := g.lineOfSight(p)
	horizon := hexgrid.Horizon(p.Capital, g.ownedTiles(p.ID))

	// Visible tiles refresh the player's fog memory; fogged tiles come from
	// memory alone, never live state.
	for _, k := range sortedHexes(los) {
		t, ok := g.tiles[k]
		if !ok {
			continue
		}
		view.Tiles = append(view.Tiles, tileView(t))
		p.TileMemory[k] = TileMemory{OwnerID: t.OwnerID, Kind: t.Kind}
	}
	for _, k := range sortedHexKeys(p.TileMemory) {
		if los[k] {
			continue
		}
		m := p.TileMemory[k]
		view.Fogged = append(view.Fogged, protocol.TileView{
			Pos:     protocol.HexRef{Q: k.Q, R: k.R},
			OwnerID: m.OwnerID,
			Kind:    string(m.Kind),
		})
	}

	for _, k := range sortedHexes(horizon) {
		view.Horizon = append(view.Horizon, protocol.HexRef{Q: k.Q, R: k.R})
	}

	// Own armies carry HP and transit detail; foreign armies show up only at
	// an interpolated position inside vision.
	for _, id := range g.sortedArmyIDs() {
		a := g.armies[id]
		pos := g.armyPos(a)
		if a.OwnerID == p.ID {
			view.Armies = append(view.Armies, protocol.ArmyView{
				ID:      a.ID,
				OwnerID: a.OwnerID,
				Pos:     protocol.HexRef{Q: pos.Q, R: pos.R},
				Units:   len(a.Units),
				HP:      append([]float64(nil), a.Units...),
				Move:    moveView(a.Move),
			})
		} else if los[pos] {
			view.Armies = append(view.Armies, protocol.ArmyView{
				ID:      a.ID,
				OwnerID: a.OwnerID,
				Pos:     protocol.HexRef{Q: pos.Q, R: pos.R},
				Units:   len(a.Units),
			})
		}
	}

	// Own spies always; foreign spies only once revealed and inside vision.
	for _, id := range g.sortedSpyIDs() {
		s := g.spies[id]
		pos := g.spyPos(s)
		if s.OwnerID == p.ID {
			view.Spies = append(view.Spies, protocol.SpyView{
				ID:       s.ID,
				OwnerID:  s.OwnerID,
				Pos:      protocol.HexRef{Q: pos.Q, R: pos.R},
				Revealed: s.Revealed,
				Move:     moveView(s.Move),
			})
		} else if s.Revealed && los[pos] {
			view.Spies = append(view.Spies, protocol.SpyView{
				ID:       s.ID,
				OwnerID:  s.OwnerID,
				Pos:      protocol.HexRef{Q: pos.Q, R: pos.R},
				Revealed: true,
			})
		}
	}

	view.Shared = g.sharedViews(p, los)
	view.Intel = g.intelViews(p)
	view.Self = g.selfView(p)
	return view
}

// sharedViews applies the alliance gate: for every active alliance, the
// sharer's own toggles decide what the viewer receives. Shared vision is
// deduplicated against the viewer's own line of sight.
func (g *Game) sharedViews(viewer *Player, ownLOS map[hexgrid.Hex]bool) []protocol.SharedView {
	var out []protocol.SharedView
	for _, id := range g.sortedAllianceIDs() {
		al := g.alliances[id]
		if al.Status != AllianceActive || !al.Involves(viewer.ID) {
			continue
		}
		sharerID := al.Other(viewer.ID)
		sharer := g.players[sharerID]
		if sharer == nil || sharer.Eliminated() {
			continue
		}
		toggles := al.Sharing[sharerID]
		if len(toggles) == 0 {
			continue
		}

		sv := protocol.SharedView{PlayerID: sharerID}
		any := false

		if toggles[protocol.SharingVision] {
			for _, k := range sortedHexes(g.lineOfSight(sharer)) {
				if ownLOS[k] {
					continue
				}
				sv.Vision = append(sv.Vision, protocol.HexRef{Q: k.Q, R: k.R})
			}
			any = true
		}
		if toggles[protocol.SharingGold] {
			gold := sharer.Gold
			pop := sharer.Population
			sv.Gold = &gold
			sv.Population = &pop
			any = true
		}
		if toggles[protocol.SharingUpgrades] {
			sv.Upgrades = append([]string(nil), sharer.Upgrades...)
			any = true
		}
		if toggles[protocol.SharingArmyPositions] {
			for _, aid := range g.sortedArmyIDs() {
				a := g.armies[aid]
				if a.OwnerID != sharerID {
					continue
				}
				pos := g.armyPos(a)
				sv.Armies = append(sv.Armies, protocol.ArmyView{
					ID:      a.ID,
					OwnerID: a.OwnerID,
					Pos:     protocol.HexRef{Q: pos.Q, R: pos.R},
					Units:   len(a.Units),
				})
			}
			any = true
		}
		// SharingSpyIntel is reserved; nothing flows for it yet.

		if any {
			out = append(out, sv)
		}
	}
	return out
}

// intelViews surfaces capital intel per enemy, fields unlocked by tier:
// 1 gold, 2 population, 3 upgrades, 4 army units, 5 spy count.
func (g *Game) intelViews(p *Player) []protocol.IntelView {
	var out []protocol.IntelView
	for _, tid := range g.order {
		if tid == p.ID {
			continue
		}
		prog := p.Intel[tid]
		if prog == nil {
			continue
		}
		tier := g.intelTier(prog.Accumulated)
		if tier < 1 {
			continue
		}
		target := g.players[tid]
		iv := protocol.IntelView{TargetID: tid, Tier: tier}
		gold := target.Gold
		iv.Gold = &gold
		if tier >= 2 {
			pop := target.Population
			iv.Population = &pop
		}
		if tier >= 3 {
			iv.Upgrades = append([]string(nil), target.Upgrades...)
		}
		if tier >= 4 {
			units := g.militaryUnitCount(tid)
			iv.ArmyUnits = &units
		}
		if tier >= 5 {
			spies := g.spyCount(tid)
			iv.Spies = &spies
		}
		out = append(out, iv)
	}
	return out
}

func (g *Game) selfView(p *Player) protocol.SelfView {
	labourers := economy.Labourers(p.Population, p.Ratios.Labour)
	sv := protocol.SelfView{
		Gold:       p.Gold,
		Population: p.Population,
		Labourers:  labourers,
		GoldPerSecond: economy.GoldPerSecond(
			labourers,
			g.militaryUnitCount(p.ID),
			g.spyCount(p.ID),
			p.effects.LabourEfficiencyBonus,
		),
		Ratios:        protocol.Ratios(p.Ratios),
		RallyPoint:    &protocol.HexRef{Q: p.RallyPoint.Q, R: p.RallyPoint.R},
		Upgrades:      append([]string(nil), p.Upgrades...),
		PauseBudgetMs: g.pauseBudgetLeft(p).Milliseconds(),
		CapitalMove:   moveView(p.CapitalMove),
	}
	if p.Eliminated() {
		sv.EliminatedAt = p.EliminatedAt.UnixMilli()
		sv.FinishPosition = p.FinishPosition
	} else if g.status == StatusFinished && p.FinishPosition == 1 {
		sv.FinishPosition = 1
	}
	return sv
}

func tileView(t *Tile) protocol.TileView {
	return protocol.TileView{
		Pos:     protocol.HexRef{Q: t.Pos.Q, R: t.Pos.R},
		OwnerID: t.OwnerID,
		Kind:    string(t.Kind),
	}
}

func moveView(m *Move) *protocol.MoveView {
	if m == nil {
		return nil
	}
	path := make([]protocol.HexRef, len(m.Path))
	for i, h := range m.Path {
		path[i] = protocol.HexRef{Q: h.Q, R: h.R}
	}
	return &protocol.MoveView{
		Target:      protocol.HexRef{Q: m.Target.Q, R: m.Target.R},
		Path:        path,
		DepartureMs: m.Departure.UnixMilli(),
		ArrivalMs:   m.Arrival.UnixMilli(),
	}
}

func sortedHexes(set map[hexgrid.Hex]bool) []hexgrid.Hex {
	out := make([]hexgrid.Hex, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sortHexes(out)
	return out
}

func sortedHexKeys(m map[hexgrid.Hex]TileMemory) []hexgrid.Hex {
	out := make([]hexgrid.Hex, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sortHexes(out)
	return out
}

func sortHexes(hs []hexgrid.Hex) {
	sort.Slice(hs, func(i, j int) bool {
		if hs[i].Q != hs[j].Q {
			return hs[i].Q < hs[j].Q
		}
		return hs[i].R < hs[j].R
	})
}
