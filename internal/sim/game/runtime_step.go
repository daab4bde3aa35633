package game

import (
	"encoding/json"
	"time"
)

// StepOnce executes one tick synchronously and reports the tick number and
// resulting state digest. The replay verifier drives games through it.
func (g *Game) StepOnce(leaves []string, intents []IntentEnvelope) (uint64, string) {
	tick := g.tick.Load()
	return tick, g.step(leaves, intents)
}

// step executes one scheduler tick and returns the post-tick state digest.
// While paused, only pause mutations and the budget enforcement run; the
// simulation clock does not advance. The simulation order within a tick is
// fixed: arrivals, combat, economy, espionage, victory.
func (g *Game) step(leaves []string, intents []IntentEnvelope) string {
	stepStart := time.Now()

	for _, id := range leaves {
		g.handleLeave(id)
	}

	g.enforcePauseBudget()

	nowTick := g.tick.Load()
	recorded := make([]RecordedIntent, 0, len(intents))
	for _, env := range intents {
		p := g.players[env.PlayerID]
		if p == nil {
			continue
		}
		recorded = append(recorded, RecordedIntent{PlayerID: env.PlayerID, Intent: env.Intent})
		g.applyIntent(p, env.Intent, nowTick)
	}

	if !g.paused && g.status == StatusInProgress {
		g.now = g.now.Add(g.tickInterval())
		g.rng = g.tickRNG(nowTick)

		g.systemArrivals(nowTick)
		g.systemCombat(nowTick)
		g.systemEconomy(nowTick)
		g.systemEspionage(nowTick)
		g.systemVictory(nowTick)
	}

	// Build and send a VIEW for each connected player.
	for id, cl := range g.clients {
		p := g.players[id]
		if p == nil || cl.Out == nil {
			continue
		}
		view := g.buildView(p, nowTick)
		b, err := json.Marshal(view)
		if err != nil {
			continue
		}
		sendLatest(cl.Out, b)
	}
	// Event queues drain into views; drop what nobody is connected to read
	// only after it was offered once.
	for _, id := range g.order {
		g.players[id].events = nil
	}

	digest := g.stateDigest(nowTick)
	if g.tickLogger != nil && !g.paused {
		_ = g.tickLogger.WriteTick(TickLogEntry{
			GameID:  g.cfg.ID,
			Tick:    nowTick,
			Intents: recorded,
			Digest:  digest,
		})
	}

	if g.snapshotSink != nil && !g.paused && nowTick != 0 && g.cfg.Tuning.SnapshotEveryTicks > 0 {
		every := uint64(g.cfg.Tuning.SnapshotEveryTicks)
		if nowTick%every == 0 {
			select {
			case g.snapshotSink <- g.ExportSnapshot(nowTick):
			default:
				// Drop snapshot if the sink is backed up.
			}
		}
	}

	if !g.paused && g.status == StatusInProgress {
		g.tick.Add(1)
	}

	g.metrics.Store(Metrics{
		Tick:       g.tick.Load(),
		Players:    len(g.activePlayers()),
		Clients:    len(g.clients),
		Armies:     len(g.armies),
		Spies:      len(g.spies),
		Paused:     g.paused,
		StepMS:     float64(time.Since(stepStart).Microseconds()) / 1000.0,
		InboxDepth: len(g.inbox),
	})

	return digest
}
