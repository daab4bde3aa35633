package game

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"hexfront.gg/internal/protocol"
	"hexfront.gg/internal/sim/catalogs"
	"hexfront.gg/internal/sim/game/logic/hexgrid"
	"hexfront.gg/internal/sim/tuning"
)

type Config struct {
	ID          string
	Seed        int64
	PlayerNames []string
	Tuning      tuning.Tuning
}

// AttachRequest binds a connection to an existing player seat, by resume
// token or (first connect) by player name.
type AttachRequest struct {
	Token      string
	PlayerName string
	Out        chan []byte
	Resp       chan AttachResponse
}

type AttachResponse struct {
	Welcome protocol.WelcomeMsg
	Err     string
}

type IntentEnvelope struct {
	PlayerID string
	Intent   protocol.IntentMsg
}

// TickLogger receives one entry per executed tick.
type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type TickLogEntry struct {
	GameID  string           `json:"game_id"`
	Tick    uint64           `json:"tick"`
	Intents []RecordedIntent `json:"intents,omitempty"`
	Digest  string           `json:"digest"`
}

type RecordedIntent struct {
	PlayerID string             `json:"player_id"`
	Intent   protocol.IntentMsg `json:"intent"`
}

// ResultSink receives elimination and victory records for lifetime stats.
type ResultSink interface {
	RecordElimination(gameID, playerID string, reason string, finishPosition int, playedFor time.Duration) error
	RecordWin(gameID, playerID string, playedFor time.Duration) error
}

// Game is a single-threaded authoritative simulation of one match. All
// state must be accessed only from the game loop goroutine.
type Game struct {
	cfg  Config
	cats *catalogs.Catalogs

	tick   atomic.Uint64
	status Status

	// Simulation clock: advances one tick interval per executed tick and
	// freezes while the game is paused. Movement timestamps live on this
	// clock so pausing stalls every army in place.
	now       time.Time
	startedAt time.Time
	nowFn     func() time.Time // wall clock, stubbed in tests

	rng *rand.Rand

	tiles   map[hexgrid.Hex]*Tile
	players map[string]*Player
	order   []string // player ids in seat order
	armies  map[string]*Army
	spies   map[string]*Spy

	alliances map[string]*Alliance

	// Pause gate.
	paused       bool
	pausedBy     string
	pausedAtWall time.Time

	// borderContact dedup, keyed "viewer|other".
	contacts map[string]bool

	clients map[string]*clientState

	inbox    chan IntentEnvelope
	attach   chan AttachRequest
	leave    chan string
	stop     chan struct{}
	done     chan struct{}
	doneOnce sync.Once

	nextArmyNum     atomic.Uint64
	nextSpyNum      atomic.Uint64
	nextAllianceNum atomic.Uint64

	tickLogger TickLogger
	resultSink ResultSink

	snapshotSink chan<- Snapshot

	metrics atomic.Value // Metrics
}

type clientState struct {
	Out chan []byte
}

type Metrics struct {
	Tick       uint64  `json:"tick"`
	Players    int     `json:"players"`
	Clients    int     `json:"clients"`
	Armies     int     `json:"armies"`
	Spies      int     `json:"spies"`
	Paused     bool    `json:"paused"`
	StepMS     float64 `json:"step_ms"`
	InboxDepth int     `json:"inbox_depth"`
}

func New(cfg Config, cats *catalogs.Catalogs) (*Game, error) {
	if len(cfg.PlayerNames) < 2 || len(cfg.PlayerNames) > 8 {
		return nil, fmt.Errorf("game needs 2-8 players, got %d", len(cfg.PlayerNames))
	}
	if cfg.Tuning.TickIntervalMs <= 0 {
		return nil, fmt.Errorf("tick interval must be positive")
	}
	g := &Game{
		cfg:       cfg,
		cats:      cats,
		status:    StatusStarting,
		nowFn:     time.Now,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		tiles:     map[hexgrid.Hex]*Tile{},
		players:   map[string]*Player{},
		armies:    map[string]*Army{},
		spies:     map[string]*Spy{},
		alliances: map[string]*Alliance{},
		contacts:  map[string]bool{},
		clients:   map[string]*clientState{},
		inbox:     make(chan IntentEnvelope, 256),
		attach:    make(chan AttachRequest, 16),
		leave:     make(chan string, 16),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	g.now = time.UnixMilli(0)
	g.startedAt = g.now
	if err := g.generateMap(); err != nil {
		return nil, err
	}
	g.status = StatusInProgress
	return g, nil
}

func (g *Game) ID() string { return g.cfg.ID }

func (g *Game) CurrentTick() uint64 { return g.tick.Load() }

func (g *Game) Status() Status { return g.status }

func (g *Game) Inbox() chan<- IntentEnvelope { return g.inbox }

func (g *Game) Attach() chan<- AttachRequest { return g.attach }

func (g *Game) Leave() chan<- string { return g.leave }

// Done is closed when the scheduler loop has exited and nobody drains the
// game's channels anymore. Senders must select on it to avoid blocking on a
// finished game.
func (g *Game) Done() <-chan struct{} { return g.done }

func (g *Game) SetTickLogger(l TickLogger) { g.tickLogger = l }

func (g *Game) SetResultSink(s ResultSink) { g.resultSink = s }

func (g *Game) SetSnapshotSink(ch chan<- Snapshot) { g.snapshotSink = ch }

func (g *Game) Metrics() Metrics {
	if v := g.metrics.Load(); v != nil {
		return v.(Metrics)
	}
	return Metrics{}
}

func (g *Game) tickInterval() time.Duration {
	return time.Duration(g.cfg.Tuning.TickIntervalMs) * time.Millisecond
}

func (g *Game) newArmyID() string {
	return fmt.Sprintf("A%06d", g.nextArmyNum.Add(1))
}

func (g *Game) newSpyID() string {
	return fmt.Sprintf("S%06d", g.nextSpyNum.Add(1))
}

func (g *Game) newAllianceID() string {
	return fmt.Sprintf("AL%04d", g.nextAllianceNum.Add(1))
}

// sortedArmyIDs returns army ids in lexical order; ids are zero-padded so
// this matches creation order and keeps tick processing deterministic.
func (g *Game) sortedArmyIDs() []string {
	ids := make([]string, 0, len(g.armies))
	for id := range g.armies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (g *Game) sortedSpyIDs() []string {
	ids := make([]string, 0, len(g.spies))
	for id := range g.spies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (g *Game) sortedAllianceIDs() []string {
	ids := make([]string, 0, len(g.alliances))
	for id := range g.alliances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (g *Game) sortedTileKeys() []hexgrid.Hex {
	keys := make([]hexgrid.Hex, 0, len(g.tiles))
	for k := range g.tiles {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Q != keys[j].Q {
			return keys[i].Q < keys[j].Q
		}
		return keys[i].R < keys[j].R
	})
	return keys
}

// activePlayers returns non-eliminated player ids in seat order.
func (g *Game) activePlayers() []string {
	out := make([]string, 0, len(g.order))
	for _, id := range g.order {
		if !g.players[id].Eliminated() {
			out = append(out, id)
		}
	}
	return out
}

// ownedTiles lists a player's tiles in deterministic order.
func (g *Game) ownedTiles(playerID string) []hexgrid.Hex {
	var out []hexgrid.Hex
	for _, k := range g.sortedTileKeys() {
		if g.tiles[k].OwnerID == playerID {
			out = append(out, k)
		}
	}
	return out
}

// allied reports whether two players are in an active alliance.
func (g *Game) allied(a, b string) bool {
	if a == b {
		return false
	}
	for _, al := range g.alliances {
		if al.Status == AllianceActive && al.Involves(a) && al.Involves(b) {
			return true
		}
	}
	return false
}

func (g *Game) militaryUnitCount(playerID string) int {
	n := 0
	for _, a := range g.armies {
		if a.OwnerID == playerID {
			n += len(a.Units)
		}
	}
	return n
}

func (g *Game) spyCount(playerID string) int {
	n := 0
	for _, s := range g.spies {
		if s.OwnerID == playerID {
			n++
		}
	}
	return n
}

func (g *Game) cityCount(playerID string) int {
	n := 0
	for _, t := range g.tiles {
		if t.OwnerID == playerID && (t.Kind == TileCity || t.Kind == TileCapital) {
			n++
		}
	}
	return n
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
