package game

import (
	"hexfront.gg/internal/protocol"
	"hexfront.gg/internal/sim/game/logic/hexgrid"
	"hexfront.gg/internal/sim/game/logic/transit"
)

// systemArrivals lands every transit whose arrival time has passed on the
// simulation clock, then refreshes border-contact notifications. Runs before
// combat so a freshly arrived army fights on the tile it reached this tick.
func (g *Game) systemArrivals(nowTick uint64) {
	for _, id := range g.sortedArmyIDs() {
		a := g.armies[id]
		if a.Move == nil || g.now.Before(a.Move.Arrival) {
			continue
		}
		a.Pos = a.Move.Target
		a.Move = nil
		g.claimTile(a.OwnerID, a.Pos)
	}

	for _, id := range g.sortedSpyIDs() {
		s := g.spies[id]
		if s.Move == nil || g.now.Before(s.Move.Arrival) {
			continue
		}
		s.Pos = s.Move.Target
		s.Move = nil
	}

	for _, id := range g.order {
		p := g.players[id]
		if p.Eliminated() || p.CapitalMove == nil || g.now.Before(p.CapitalMove.Arrival) {
			continue
		}
		dest := p.CapitalMove.Target
		p.CapitalMove = nil
		t, ok := g.tiles[dest]
		if !ok || t.OwnerID != p.ID {
			// Destination was lost in transit; the capital never moved.
			continue
		}
		g.promoteCapital(p, dest)
	}

	g.refreshBorderContacts(nowTick)
}

// claimTile takes an unowned empty tile for an arriving army's owner.
// Cities and capitals change hands only through combat or allegiance flips.
func (g *Game) claimTile(playerID string, pos hexgrid.Hex) {
	t, ok := g.tiles[pos]
	if ok && t.OwnerID == "" && t.Kind == TileEmpty {
		t.OwnerID = playerID
	}
}

// refreshBorderContacts emits a one-time borderContact event per ordered
// player pair the first time their territories touch.
func (g *Game) refreshBorderContacts(nowTick uint64) {
	for _, k := range g.sortedTileKeys() {
		t := g.tiles[k]
		if t.OwnerID == "" {
			continue
		}
		for _, nb := range hexgrid.Neighbors(k) {
			nt, ok := g.tiles[nb]
			if !ok || nt.OwnerID == "" || nt.OwnerID == t.OwnerID {
				continue
			}
			key := t.OwnerID + "|" + nt.OwnerID
			if g.contacts[key] {
				continue
			}
			g.contacts[key] = true
			if p := g.players[t.OwnerID]; p != nil && !p.Eliminated() {
				p.AddEvent(protocol.Event{
					"t":      nowTick,
					"type":   protocol.EventBorderContact,
					"player": nt.OwnerID,
					"pos":    protocol.HexRef{Q: k.Q, R: k.R},
				})
			}
		}
	}
}

// armyPos interpolates a possibly moving army's current hex on the
// simulation clock.
func (g *Game) armyPos(a *Army) hexgrid.Hex {
	if a.Move == nil {
		return a.Pos
	}
	return transit.PositionAt(a.Move.Origin, a.Move.Path, a.Move.Departure, a.Move.Arrival, g.now)
}

func (g *Game) spyPos(s *Spy) hexgrid.Hex {
	if s.Move == nil {
		return s.Pos
	}
	return transit.PositionAt(s.Move.Origin, s.Move.Path, s.Move.Departure, s.Move.Arrival, g.now)
}
