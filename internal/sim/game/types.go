package game

import (
	"time"

	"hexfront.gg/internal/protocol"
	"hexfront.gg/internal/sim/catalogs"
	"hexfront.gg/internal/sim/game/logic/hexgrid"
)

// Status is the game lifecycle.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusStarting   Status = "starting"
	StatusInProgress Status = "inProgress"
	StatusFinished   Status = "finished"
)

// TileKind classifies a map tile.
type TileKind string

const (
	TileEmpty   TileKind = "empty"
	TileCity    TileKind = "city"
	TileCapital TileKind = "capital"
)

type Tile struct {
	Pos     hexgrid.Hex
	OwnerID string // empty = neutral
	Kind    TileKind

	// Allegiance scores per contesting team, only meaningful for city and
	// capital tiles. Owner starts at 100, everyone else at 0; unowned NPC
	// cities start all at 0.
	Allegiance map[string]float64
}

// Move is the explicit in-transit state for armies, spies, and relocating
// capitals. A nil *Move means stationary; a non-nil Move always has a full
// path and both timestamps.
type Move struct {
	Target    hexgrid.Hex
	Path      []hexgrid.Hex // excludes origin, includes target
	Origin    hexgrid.Hex
	Departure time.Time
	Arrival   time.Time
}

type Army struct {
	ID      string
	OwnerID string
	Pos     hexgrid.Hex
	Units   []float64 // per-unit HP
	Move    *Move
}

func (a *Army) Stationary() bool { return a.Move == nil }

type Spy struct {
	ID       string
	OwnerID  string
	Pos      hexgrid.Hex
	Revealed bool // permanent once set
	Move     *Move
}

func (s *Spy) Stationary() bool { return s.Move == nil }

// EliminationReason enumerates why a player left the game.
type EliminationReason string

const (
	ReasonCapitalCaptured EliminationReason = "capitalCaptured"
	ReasonDebt            EliminationReason = "debt"
	ReasonForfeit         EliminationReason = "forfeit"
)

type Ratios struct {
	Labour   int
	Military int
	Spy      int
}

type Player struct {
	ID   string
	Name string

	Gold       float64
	Population int
	Ratios     Ratios
	growthAcc  float64 // fractional population growth carry

	Capital     hexgrid.Hex // origin tile while relocation is pending
	RallyPoint  hexgrid.Hex
	CapitalMove *Move

	Upgrades    []string
	effects     catalogs.Effects // cached sum of purchased upgrade effects
	PauseUsedMs int64

	EliminatedAt      time.Time // zero = active; immutable once set
	EliminationReason EliminationReason
	FinishPosition    int

	// Fog-of-war memory: last-known owner/kind per tile, written only while
	// the tile is visible, never deleted.
	TileMemory map[hexgrid.Hex]TileMemory

	// KnownEnemyUpgrades[targetID][upgradeID] = reveal source.
	KnownEnemyUpgrades map[string]map[string]string

	// Capital-intel dwell accumulators per enemy target.
	Intel map[string]*IntelProgress

	events []protocol.Event
}

func (p *Player) Eliminated() bool { return !p.EliminatedAt.IsZero() }

func (p *Player) AddEvent(e protocol.Event) {
	p.events = append(p.events, e)
}

type TileMemory struct {
	OwnerID string
	Kind    TileKind
}

type IntelProgress struct {
	Accumulated time.Duration
}

// Reveal sources for KnownEnemyUpgrades.
const (
	RevealCapitalIntel = "capitalIntel"
	RevealCombat       = "combat"
)

// AllianceStatus tracks the proposal handshake.
type AllianceStatus string

const (
	AlliancePending AllianceStatus = "pending"
	AllianceActive  AllianceStatus = "active"
)

// Alliance is undirected but keyed by the (sender, receiver) pair. Sharing
// is asymmetric: Sharing[playerID][category] is what that player exposes to
// the other side.
type Alliance struct {
	ID      string
	Player1 string // sender
	Player2 string // receiver
	Status  AllianceStatus
	Sharing map[string]map[string]bool
}

func (al *Alliance) Involves(playerID string) bool {
	return al.Player1 == playerID || al.Player2 == playerID
}

func (al *Alliance) Other(playerID string) string {
	if al.Player1 == playerID {
		return al.Player2
	}
	return al.Player1
}
