package game

import (
	"time"

	"hexfront.gg/internal/protocol"
	"hexfront.gg/internal/sim/game/logic/hexgrid"
	"hexfront.gg/internal/sim/game/logic/transit"
)

func (g *Game) armyPerHex() time.Duration {
	return time.Duration(g.cfg.Tuning.Movement.ArmyPerHexMs) * time.Millisecond
}

func (g *Game) spyPerHex() time.Duration {
	return time.Duration(g.cfg.Tuning.Movement.SpyPerHexMs) * time.Millisecond
}

func (g *Game) capitalPerHex() time.Duration {
	return time.Duration(g.cfg.Tuning.Movement.CapitalPerHexMs) * time.Millisecond
}

// armyTraversable is the army pathfinding predicate: own, neutral, and
// allied tiles, plus the destination itself even when enemy-held so an
// attack can be ordered onto hostile ground.
func (g *Game) armyTraversable(playerID string, goal hexgrid.Hex) func(hexgrid.Hex) bool {
	return func(h hexgrid.Hex) bool {
		t, ok := g.tiles[h]
		if !ok {
			return false
		}
		if h == goal {
			return true
		}
		return t.OwnerID == "" || t.OwnerID == playerID || g.allied(playerID, t.OwnerID)
	}
}

// spyTraversable lets spies cross every existing tile, friend or foe.
func (g *Game) spyTraversable() func(hexgrid.Hex) bool {
	return func(h hexgrid.Hex) bool {
		_, ok := g.tiles[h]
		return ok
	}
}

// capitalTraversable restricts capital relocation to the player's own tiles.
func (g *Game) capitalTraversable(playerID string) func(hexgrid.Hex) bool {
	return func(h hexgrid.Hex) bool {
		t, ok := g.tiles[h]
		return ok && t.OwnerID == playerID
	}
}

func (g *Game) applyMoveArmy(p *Player, in protocol.IntentMsg, nowTick uint64) {
	a := g.armies[in.ArmyID]
	if a == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "no such army"))
		return
	}
	if a.OwnerID != p.ID {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrNotOwner, "not your army"))
		return
	}
	if !a.Stationary() {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrConflict, "army is already moving"))
		return
	}
	if in.Target == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrBadRequest, "target required"))
		return
	}
	goal := hexgrid.Hex{Q: in.Target.Q, R: in.Target.R}
	if goal == a.Pos {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "army is already there"))
		return
	}
	path := hexgrid.FindPath(a.Pos, goal, g.armyTraversable(p.ID, goal))
	if path == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrNoPath, "no route to target"))
		return
	}
	a.Move = g.newMove(a.Pos, goal, path, g.armyPerHex(), p.effects.ArmySpeedBonus)
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
}

// applySplitMoveArmy detaches part of a stack into a fresh army and sends it
// off; the remainder stays put under the original id.
func (g *Game) applySplitMoveArmy(p *Player, in protocol.IntentMsg, nowTick uint64) {
	a := g.armies[in.ArmyID]
	if a == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "no such army"))
		return
	}
	if a.OwnerID != p.ID {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrNotOwner, "not your army"))
		return
	}
	if !a.Stationary() {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrConflict, "army is already moving"))
		return
	}
	if in.Units < 1 || in.Units >= len(a.Units) {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrBadRequest, "split size must leave units on both sides"))
		return
	}
	if in.Target == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrBadRequest, "target required"))
		return
	}
	goal := hexgrid.Hex{Q: in.Target.Q, R: in.Target.R}
	if goal == a.Pos {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "army is already there"))
		return
	}
	path := hexgrid.FindPath(a.Pos, goal, g.armyTraversable(p.ID, goal))
	if path == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrNoPath, "no route to target"))
		return
	}

	// Detach from the tail so the original stack keeps its oldest units.
	cut := len(a.Units) - in.Units
	detached := make([]float64, in.Units)
	copy(detached, a.Units[cut:])
	a.Units = a.Units[:cut]

	na := &Army{
		ID:      g.newArmyID(),
		OwnerID: p.ID,
		Pos:     a.Pos,
		Units:   detached,
		Move:    g.newMove(a.Pos, goal, path, g.armyPerHex(), p.effects.ArmySpeedBonus),
	}
	g.armies[na.ID] = na
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
}

// applyRetreatArmy hops a stationary army out of combat onto an adjacent
// visible tile with no travel time.
func (g *Game) applyRetreatArmy(p *Player, in protocol.IntentMsg, nowTick uint64) {
	a := g.armies[in.ArmyID]
	if a == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "no such army"))
		return
	}
	if a.OwnerID != p.ID {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrNotOwner, "not your army"))
		return
	}
	if !a.Stationary() {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrConflict, "army is moving"))
		return
	}
	if !g.hostilePresence(p.ID, a.Pos) {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrWrongStatus, "army is not in combat"))
		return
	}
	if in.Target == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrBadRequest, "target required"))
		return
	}
	goal := hexgrid.Hex{Q: in.Target.Q, R: in.Target.R}
	if _, ok := g.tiles[goal]; !ok || hexgrid.Distance(a.Pos, goal) != 1 {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "retreat target must be adjacent"))
		return
	}
	if !g.lineOfSight(p)[goal] {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "retreat target not visible"))
		return
	}
	a.Pos = goal
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
}

// applyCancelMove freezes a moving entity at its interpolated position. With
// an army or spy id it cancels that entity's transit; with neither it
// cancels the player's capital relocation, walking passed hexes backward to
// the last owned city on the route.
func (g *Game) applyCancelMove(p *Player, in protocol.IntentMsg, nowTick uint64) {
	switch {
	case in.ArmyID != "":
		a := g.armies[in.ArmyID]
		if a == nil {
			p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "no such army"))
			return
		}
		if a.OwnerID != p.ID {
			p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrNotOwner, "not your army"))
			return
		}
		if a.Move == nil {
			p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrConflict, "army is not moving"))
			return
		}
		a.Pos = transit.PositionAt(a.Move.Origin, a.Move.Path, a.Move.Departure, a.Move.Arrival, g.now)
		a.Move = nil
	case in.SpyID != "":
		s := g.spies[in.SpyID]
		if s == nil {
			p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "no such spy"))
			return
		}
		if s.OwnerID != p.ID {
			p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrNotOwner, "not your spy"))
			return
		}
		if s.Move == nil {
			p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrConflict, "spy is not moving"))
			return
		}
		s.Pos = transit.PositionAt(s.Move.Origin, s.Move.Path, s.Move.Departure, s.Move.Arrival, g.now)
		s.Move = nil
	default:
		if p.CapitalMove == nil {
			p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrConflict, "capital is not moving"))
			return
		}
		m := p.CapitalMove
		passed := transit.PassedAt(m.Path, m.Departure, m.Arrival, g.now)
		for i := len(passed) - 1; i >= 0; i-- {
			t, ok := g.tiles[passed[i]]
			if ok && t.OwnerID == p.ID && t.Kind == TileCity {
				g.promoteCapital(p, passed[i])
				break
			}
		}
		// No city passed: the capital never left its original tile.
		p.CapitalMove = nil
	}
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
}

func (g *Game) applyMoveSpy(p *Player, in protocol.IntentMsg, nowTick uint64) {
	s := g.spies[in.SpyID]
	if s == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "no such spy"))
		return
	}
	if s.OwnerID != p.ID {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrNotOwner, "not your spy"))
		return
	}
	if !s.Stationary() {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrConflict, "spy is already moving"))
		return
	}
	if in.Target == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrBadRequest, "target required"))
		return
	}
	goal := hexgrid.Hex{Q: in.Target.Q, R: in.Target.R}
	if goal == s.Pos {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "spy is already there"))
		return
	}
	path := hexgrid.FindPath(s.Pos, goal, g.spyTraversable())
	if path == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrNoPath, "no route to target"))
		return
	}
	s.Move = g.newMove(s.Pos, goal, path, g.spyPerHex(), p.effects.SpySpeedBonus)
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
}

func (g *Game) applyRelocateCapital(p *Player, in protocol.IntentMsg, nowTick uint64) {
	if p.CapitalMove != nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrCapitalMoving, "capital relocation already in progress"))
		return
	}
	if in.Target == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrBadRequest, "target required"))
		return
	}
	goal := hexgrid.Hex{Q: in.Target.Q, R: in.Target.R}
	t, ok := g.tiles[goal]
	if !ok || t.OwnerID != p.ID || t.Kind != TileCity {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "capital must relocate to an owned city"))
		return
	}
	path := hexgrid.FindPath(p.Capital, goal, g.capitalTraversable(p.ID))
	if path == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrNoPath, "no route through own territory"))
		return
	}
	p.CapitalMove = g.newMove(p.Capital, goal, path, g.capitalPerHex(), 0)
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
}

// newMove stamps a transit on the simulation clock.
func (g *Game) newMove(origin, target hexgrid.Hex, path []hexgrid.Hex, perHex time.Duration, speedBonus float64) *Move {
	travel := transit.TravelTime(len(path), perHex, speedBonus)
	return &Move{
		Target:    target,
		Path:      path,
		Origin:    origin,
		Departure: g.now,
		Arrival:   g.now.Add(travel),
	}
}

// promoteCapital moves the capital marker to dest, reverting the old capital
// tile to a plain city.
func (g *Game) promoteCapital(p *Player, dest hexgrid.Hex) {
	if old, ok := g.tiles[p.Capital]; ok && old.Kind == TileCapital {
		old.Kind = TileCity
	}
	if t, ok := g.tiles[dest]; ok {
		t.Kind = TileCapital
	}
	p.Capital = dest
}

// hostilePresence reports a stationary army of a different owner on the tile.
func (g *Game) hostilePresence(playerID string, pos hexgrid.Hex) bool {
	for _, a := range g.armies {
		if a.OwnerID != playerID && a.Stationary() && a.Pos == pos && len(a.Units) > 0 {
			return true
		}
	}
	return false
}
