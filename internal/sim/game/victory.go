package game

import (
	"hexfront.gg/internal/protocol"
)

// systemVictory eliminates players whose capital changed hands or whose
// debt crossed the floor, then ends the game once a single player remains.
func (g *Game) systemVictory(nowTick uint64) {
	for _, id := range g.order {
		p := g.players[id]
		if p.Eliminated() {
			continue
		}
		if t, ok := g.tiles[p.Capital]; !ok || t.OwnerID != p.ID {
			g.eliminate(p, ReasonCapitalCaptured, nowTick)
			continue
		}
		if p.Gold <= float64(g.cfg.Tuning.Economy.DebtFloorGold) {
			g.eliminate(p, ReasonDebt, nowTick)
		}
	}
}

// eliminate removes a player from play. finishPosition is the count of
// active players before this elimination, so the first player out of an
// N-player game finishes Nth. Elimination is final; repeated calls no-op.
func (g *Game) eliminate(p *Player, reason EliminationReason, nowTick uint64) {
	if p.Eliminated() || g.status != StatusInProgress {
		return
	}
	active := g.activePlayers()
	p.EliminatedAt = g.now
	p.EliminationReason = reason
	p.FinishPosition = len(active)

	// The fallen player's holdings revert to neutral and their forces
	// disband.
	for _, k := range g.sortedTileKeys() {
		t := g.tiles[k]
		if t.OwnerID == p.ID {
			t.OwnerID = ""
			if t.Kind == TileCapital {
				t.Kind = TileCity
			}
		} else if t.Kind == TileCapital && k == p.Capital {
			// Captured capital keeps its new owner but demotes to a city.
			t.Kind = TileCity
		}
	}
	for _, id := range g.sortedArmyIDs() {
		if g.armies[id].OwnerID == p.ID {
			delete(g.armies, id)
		}
	}
	for _, id := range g.sortedSpyIDs() {
		if g.spies[id].OwnerID == p.ID {
			delete(g.spies, id)
		}
	}
	for _, id := range g.sortedAllianceIDs() {
		if al, ok := g.alliances[id]; ok && al.Involves(p.ID) {
			g.dissolveAlliance(al, nowTick)
		}
	}

	e := protocol.Event{
		"t":        nowTick,
		"type":     protocol.EventPlayerEliminated,
		"player":   p.ID,
		"reason":   string(reason),
		"position": p.FinishPosition,
	}
	g.broadcast(e)
	p.AddEvent(e) // the fallen player still gets their own notice
	if g.resultSink != nil {
		_ = g.resultSink.RecordElimination(g.cfg.ID, p.ID, string(reason), p.FinishPosition, g.now.Sub(g.startedAt))
	}

	g.checkGameEnd(nowTick)
}

// checkGameEnd finishes the game the moment a single active player remains.
// The survivor's win is committed immediately alongside the elimination that
// caused it.
func (g *Game) checkGameEnd(nowTick uint64) {
	if g.status != StatusInProgress {
		return
	}
	active := g.activePlayers()
	if len(active) > 1 {
		return
	}
	g.status = StatusFinished

	var winnerID string
	if len(active) == 1 {
		winner := g.players[active[0]]
		winner.FinishPosition = 1
		winnerID = winner.ID
		if g.resultSink != nil {
			_ = g.resultSink.RecordWin(g.cfg.ID, winner.ID, g.now.Sub(g.startedAt))
		}
	}
	e := protocol.Event{
		"t":      nowTick,
		"type":   protocol.EventGameEnded,
		"winner": winnerID,
	}
	for _, id := range g.order {
		g.players[id].AddEvent(e)
	}
}
