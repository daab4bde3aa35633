package game

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// stateDigest is a sha256 over a canonical JSON rendering of the committed
// state. Two runs from the same seed and intent stream must produce the same
// digest at every tick; the replay tool compares these. Pause budget usage
// is debited from the wall clock, so it is zeroed out of the hashed form.
func (g *Game) stateDigest(nowTick uint64) string {
	snap := g.ExportSnapshot(nowTick)
	for i := range snap.Players {
		snap.Players[i].PauseUsedMs = 0
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
