package game

import (
	"time"

	"hexfront.gg/internal/protocol"
)

// pauseBudgetLeft is the player's unused share of the lifetime pause budget.
func (g *Game) pauseBudgetLeft(p *Player) time.Duration {
	budget := time.Duration(g.cfg.Tuning.Pause.BudgetMs) * time.Millisecond
	left := budget - time.Duration(p.PauseUsedMs)*time.Millisecond
	if left < 0 {
		return 0
	}
	return left
}

// pause suspends the simulation on playerID's budget. Callers must have
// checked the budget and the not-already-paused invariant.
func (g *Game) pause(playerID string) {
	g.paused = true
	g.pausedBy = playerID
	g.pausedAtWall = g.nowFn()
	g.broadcast(protocol.Event{
		"t":      g.tick.Load(),
		"type":   protocol.EventGamePaused,
		"player": playerID,
	})
}

// unpause resumes the simulation and debits the pauser's budget by the wall
// time actually spent paused. forced marks the scheduler's own privileged
// unpause once the budget ran out.
func (g *Game) unpause(playerID string, forced bool) {
	if !g.paused {
		return
	}
	elapsed := g.nowFn().Sub(g.pausedAtWall)
	if elapsed < 0 {
		elapsed = 0
	}
	p := g.players[g.pausedBy]
	if p != nil {
		p.PauseUsedMs += elapsed.Milliseconds()
		budget := int64(g.cfg.Tuning.Pause.BudgetMs)
		if p.PauseUsedMs > budget {
			p.PauseUsedMs = budget
		}
	}
	g.paused = false
	g.pausedBy = ""
	g.pausedAtWall = time.Time{}
	g.broadcast(protocol.Event{
		"t":      g.tick.Load(),
		"type":   protocol.EventGameUnpaused,
		"player": playerID,
		"forced": forced,
	})
}

// enforcePauseBudget force-unpauses once the current pause has consumed the
// pausing player's remaining budget. Runs every scheduler tick, paused or
// not.
func (g *Game) enforcePauseBudget() {
	if !g.paused {
		return
	}
	p := g.players[g.pausedBy]
	if p == nil {
		g.unpause(g.pausedBy, true)
		return
	}
	elapsed := g.nowFn().Sub(g.pausedAtWall)
	if elapsed >= g.pauseBudgetLeft(p) {
		g.unpause(g.pausedBy, true)
	}
}
