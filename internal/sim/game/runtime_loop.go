package game

import (
	"context"
	"time"
)

// Run drives the game at the configured tick cadence until the context is
// canceled, Stop is called, or the game finishes. Joins, leaves, and intents
// are buffered between ticks and applied at the tick boundary.
func (g *Game) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.tickInterval())
	defer ticker.Stop()
	defer g.doneOnce.Do(func() { close(g.done) })

	var pendingIntents []IntentEnvelope
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.stop:
			return nil
		case req := <-g.attach:
			g.handleAttach(req)
		case id := <-g.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-g.inbox:
			pendingIntents = append(pendingIntents, env)
		case <-ticker.C:
			g.step(pendingLeaves, pendingIntents)
			pendingIntents = pendingIntents[:0]
			pendingLeaves = pendingLeaves[:0]
			if g.status == StatusFinished {
				return nil
			}
		}
	}
}

func (g *Game) Stop() { close(g.stop) }

// handleAttach binds a connection to a seat. Reconnecting as the player who
// paused the game resumes it, debiting their budget for the time paused.
func (g *Game) handleAttach(req AttachRequest) {
	var p *Player
	if req.Token != "" {
		p = g.playerByToken(req.Token)
	} else if req.PlayerName != "" {
		for _, id := range g.order {
			if g.players[id].Name == req.PlayerName {
				p = g.players[id]
				break
			}
		}
	}
	if p == nil {
		if req.Resp != nil {
			req.Resp <- AttachResponse{Err: "no such player seat"}
		}
		return
	}

	g.clients[p.ID] = &clientState{Out: req.Out}
	if g.paused && g.pausedBy == p.ID {
		g.unpause(p.ID, false)
	}

	if req.Resp != nil {
		req.Resp <- AttachResponse{Welcome: g.welcomeFor(p)}
	}
}

func (g *Game) handleLeave(playerID string) {
	if _, ok := g.clients[playerID]; !ok {
		return
	}
	delete(g.clients, playerID)

	// A dropped connection auto-pauses on the leaver's remaining budget.
	p := g.players[playerID]
	if p == nil || p.Eliminated() || g.paused || g.status != StatusInProgress {
		return
	}
	if g.pauseBudgetLeft(p) > 0 {
		g.pause(playerID)
	}
}

func (g *Game) playerByToken(token string) *Player {
	for _, id := range g.order {
		if g.resumeToken(id) == token {
			return g.players[id]
		}
	}
	return nil
}

func (g *Game) resumeToken(playerID string) string {
	return "resume_" + g.cfg.ID + "_" + playerID
}
