package game

import "hexfront.gg/internal/protocol"

// broadcast queues an event for every non-eliminated player.
func (g *Game) broadcast(e protocol.Event) {
	for _, id := range g.order {
		p := g.players[id]
		if !p.Eliminated() {
			p.AddEvent(e)
		}
	}
}

// intentResult is the synchronous accept/reject answer to one intent,
// delivered inside the issuer's next VIEW.
func intentResult(tick uint64, ref string, ok bool, code string, message string) protocol.Event {
	if !protocol.IsKnownCode(code) {
		code = protocol.ErrInternal
		if message == "" {
			message = "unknown error code"
		}
	}
	e := protocol.Event{
		"t":    tick,
		"type": protocol.EventIntentResult,
		"ref":  ref,
		"ok":   ok,
	}
	if code != "" {
		e["code"] = code
	}
	if message != "" {
		e["message"] = message
	}
	return e
}
