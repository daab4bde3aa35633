package game

import "hexfront.gg/internal/protocol"

// applyIntent validates and applies one player intent. Rejections queue an
// INTENT_RESULT with a reason and commit nothing. While the game is paused
// only pause-related intents are accepted; anything else is a wrong-status
// rejection so a paused game cannot be mutated from the outside.
func (g *Game) applyIntent(p *Player, in protocol.IntentMsg, nowTick uint64) {
	if g.status == StatusFinished {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrWrongStatus, "game is finished"))
		return
	}
	if p.Eliminated() {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrNotInGame, "player is eliminated"))
		return
	}
	if g.paused && in.Kind != protocol.IntentPause && in.Kind != protocol.IntentUnpause {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrWrongStatus, "game is paused"))
		return
	}

	switch in.Kind {
	case protocol.IntentMoveArmy:
		g.applyMoveArmy(p, in, nowTick)
	case protocol.IntentSplitMoveArmy:
		g.applySplitMoveArmy(p, in, nowTick)
	case protocol.IntentRetreatArmy:
		g.applyRetreatArmy(p, in, nowTick)
	case protocol.IntentCancelMove:
		g.applyCancelMove(p, in, nowTick)
	case protocol.IntentMoveSpy:
		g.applyMoveSpy(p, in, nowTick)
	case protocol.IntentRelocateCapital:
		g.applyRelocateCapital(p, in, nowTick)
	case protocol.IntentSetRatios:
		g.applySetRatios(p, in, nowTick)
	case protocol.IntentSetRallyPoint:
		g.applySetRallyPoint(p, in, nowTick)
	case protocol.IntentBuildCity:
		g.applyBuildCity(p, in, nowTick)
	case protocol.IntentBuyUpgrade:
		g.applyBuyUpgrade(p, in, nowTick)
	case protocol.IntentProposeAlliance:
		g.applyProposeAlliance(p, in, nowTick)
	case protocol.IntentAcceptAlliance:
		g.applyAcceptAlliance(p, in, nowTick)
	case protocol.IntentBreakAlliance:
		g.applyBreakAlliance(p, in, nowTick)
	case protocol.IntentSetSharing:
		g.applySetSharing(p, in, nowTick)
	case protocol.IntentPause:
		g.applyPause(p, in, nowTick)
	case protocol.IntentUnpause:
		g.applyUnpause(p, in, nowTick)
	case protocol.IntentForfeit:
		g.applyForfeit(p, in, nowTick)
	default:
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrBadRequest, "unknown intent kind"))
	}
}
