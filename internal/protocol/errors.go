package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Intent validation. Rejections carry one of these plus a human-readable
	// message and commit no state.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrNotInGame     = "E_NOT_IN_GAME"
	ErrNotOwner      = "E_NOT_OWNER"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrNoGold        = "E_NO_GOLD"
	ErrNoPopulation  = "E_NO_POPULATION"
	ErrWrongStatus   = "E_WRONG_STATUS"
	ErrCapitalMoving = "E_CAPITAL_MOVING"
	ErrNoPath        = "E_NO_PATH"
	ErrConflict      = "E_CONFLICT"
	ErrPauseBudget   = "E_PAUSE_BUDGET"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrNotInGame:       {},
	ErrNotOwner:        {},
	ErrInvalidTarget:   {},
	ErrNoGold:          {},
	ErrNoPopulation:    {},
	ErrWrongStatus:     {},
	ErrCapitalMoving:   {},
	ErrNoPath:          {},
	ErrConflict:        {},
	ErrPauseBudget:     {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
