package game

import "hexfront.gg/internal/protocol"

// allianceBetween finds any alliance (pending or active) involving both
// players, in deterministic id order.
func (g *Game) allianceBetween(a, b string) *Alliance {
	for _, id := range g.sortedAllianceIDs() {
		al := g.alliances[id]
		if al.Involves(a) && al.Involves(b) {
			return al
		}
	}
	return nil
}

func (g *Game) applyProposeAlliance(p *Player, in protocol.IntentMsg, nowTick uint64) {
	target := g.players[in.PlayerID]
	if target == nil || target.ID == p.ID || target.Eliminated() {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "no such player"))
		return
	}
	if g.allianceBetween(p.ID, target.ID) != nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrConflict, "alliance already exists"))
		return
	}
	al := &Alliance{
		ID:      g.newAllianceID(),
		Player1: p.ID,
		Player2: target.ID,
		Status:  AlliancePending,
		Sharing: map[string]map[string]bool{
			p.ID:      {},
			target.ID: {},
		},
	}
	g.alliances[al.ID] = al
	target.AddEvent(protocol.Event{
		"t":      nowTick,
		"type":   protocol.EventAllianceProposed,
		"player": p.ID,
	})
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
}

func (g *Game) applyAcceptAlliance(p *Player, in protocol.IntentMsg, nowTick uint64) {
	al := g.allianceBetween(p.ID, in.PlayerID)
	if al == nil || al.Status != AlliancePending || al.Player2 != p.ID {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "no pending proposal from that player"))
		return
	}
	al.Status = AllianceActive
	e := protocol.Event{
		"t":       nowTick,
		"type":    protocol.EventAllianceAccepted,
		"players": []string{al.Player1, al.Player2},
	}
	g.players[al.Player1].AddEvent(e)
	g.players[al.Player2].AddEvent(e)
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
}

// applyBreakAlliance dissolves an alliance in any state. A pending proposal
// broken by its receiver is a decline. Sharing rows live inside the alliance
// record, so deleting it drops them atomically.
func (g *Game) applyBreakAlliance(p *Player, in protocol.IntentMsg, nowTick uint64) {
	al := g.allianceBetween(p.ID, in.PlayerID)
	if al == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "no alliance with that player"))
		return
	}
	g.dissolveAlliance(al, nowTick)
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
}

func (g *Game) dissolveAlliance(al *Alliance, nowTick uint64) {
	delete(g.alliances, al.ID)
	e := protocol.Event{
		"t":       nowTick,
		"type":    protocol.EventAllianceBroken,
		"players": []string{al.Player1, al.Player2},
	}
	for _, id := range []string{al.Player1, al.Player2} {
		if other := g.players[id]; other != nil && !other.Eliminated() {
			other.AddEvent(e)
		}
	}
}

var knownSharingCategories = map[string]bool{
	protocol.SharingVision:        true,
	protocol.SharingGold:          true,
	protocol.SharingUpgrades:      true,
	protocol.SharingArmyPositions: true,
	protocol.SharingSpyIntel:      true,
}

// applySetSharing toggles what the issuer exposes to the named ally. The
// sharer's own toggle controls the flow; the viewer opts in separately for
// the reverse direction.
func (g *Game) applySetSharing(p *Player, in protocol.IntentMsg, nowTick uint64) {
	if in.Sharing == nil {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrBadRequest, "sharing payload required"))
		return
	}
	if !knownSharingCategories[in.Sharing.Category] {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrBadRequest, "unknown sharing category"))
		return
	}
	al := g.allianceBetween(p.ID, in.PlayerID)
	if al == nil || al.Status != AllianceActive {
		p.AddEvent(intentResult(nowTick, in.ID, false, protocol.ErrInvalidTarget, "no active alliance with that player"))
		return
	}
	if al.Sharing[p.ID] == nil {
		al.Sharing[p.ID] = map[string]bool{}
	}
	al.Sharing[p.ID][in.Sharing.Category] = in.Sharing.Enabled
	p.AddEvent(intentResult(nowTick, in.ID, true, "", ""))
}
