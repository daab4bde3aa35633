package protocol

// Event is a discrete notification delivered inside a VIEW. Kept as an open
// map so the client can render payloads it does not model.
type Event map[string]any

// Event types surfaced to clients.
const (
	EventIntentResult     = "INTENT_RESULT"
	EventCityFlipped      = "cityFlipped"
	EventCityUnderAttack  = "cityUnderAttack"
	EventSpyDetected      = "spyDetected"
	EventBorderContact    = "borderContact"
	EventAllianceProposed = "allianceProposed"
	EventAllianceAccepted = "allianceAccepted"
	EventAllianceBroken   = "allianceBroken"
	EventPlayerEliminated = "playerEliminated"
	EventGameEnded        = "gameEnded"
	EventGamePaused       = "gamePaused"
	EventGameUnpaused     = "gameUnpaused"
)
