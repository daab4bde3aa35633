package game

import "hexfront.gg/internal/protocol"

func (g *Game) applyPause(p *Player, in protocol.IntentMsg, nowTick uint64) {
	if g.paused {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrConflict, "game is already paused"))
		return
	}
	if g.pauseBudgetLeft(p) <= 0 {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrPauseBudget, "pause budget exhausted"))
		return
	}
	g.pause(p.ID)
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
}

// applyUnpause resumes the game. Only the player who paused may unpause;
// the forced unpause on budget exhaustion is the scheduler's own action.
func (g *Game) applyUnpause(p *Player, in protocol.IntentMsg, nowTick uint64) {
	if !g.paused {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrConflict, "game is not paused"))
		return
	}
	if g.pausedBy != p.ID {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrNotOwner, "only the pausing player may unpause"))
		return
	}
	g.unpause(p.ID, false)
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
}
