// Package multigame runs many independent matches inside one server
// process. Each game owns its state on a single goroutine; the manager only
// routes connections and watches lifecycles, so one game failing or
// finishing never disturbs the others.
package multigame

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	gamelog "hexfront.gg/internal/persistence/log"
	"hexfront.gg/internal/persistence/snapshot"
	"hexfront.gg/internal/sim/catalogs"
	"hexfront.gg/internal/sim/game"
	"hexfront.gg/internal/sim/tuning"
)

// Index is the slice of the sqlite indexer the manager needs. Nil-able.
type Index interface {
	game.ResultSink
	game.TickLogger
	RecordGame(gameID string, seed int64, players int)
	RecordSnapshot(path string, snap game.Snapshot)
}

type Manager struct {
	log     *log.Logger
	cats    *catalogs.Catalogs
	tune    tuning.Tuning
	dataDir string
	index   Index

	mu    sync.RWMutex
	games map[string]*entry

	wg sync.WaitGroup
}

type entry struct {
	game       *game.Game
	tickLog    *gamelog.TickLogger
	snapshotCh chan game.Snapshot
	cancel     context.CancelFunc
}

func NewManager(logger *log.Logger, cats *catalogs.Catalogs, tune tuning.Tuning, dataDir string, index Index) *Manager {
	return &Manager{
		log:     logger,
		cats:    cats,
		tune:    tune,
		dataDir: dataDir,
		index:   index,
		games:   map[string]*entry{},
	}
}

// CreateGame seats the named players in a fresh match and starts its loop.
func (m *Manager) CreateGame(ctx context.Context, playerNames []string, seed int64) (*game.Game, error) {
	id := uuid.NewString()
	cfg := game.Config{
		ID:          id,
		Seed:        seed,
		PlayerNames: playerNames,
		Tuning:      m.tune,
	}
	g, err := game.New(cfg, m.cats)
	if err != nil {
		return nil, err
	}

	e := &entry{game: g}

	var sinks multiTickLogger
	if m.dataDir != "" {
		e.tickLog = gamelog.NewTickLogger(filepath.Join(m.dataDir, "games", id))
		sinks = append(sinks, e.tickLog)
	}
	if m.index != nil {
		sinks = append(sinks, m.index)
		g.SetResultSink(m.index)
		m.index.RecordGame(id, seed, len(playerNames))
	}
	if len(sinks) > 0 {
		g.SetTickLogger(sinks)
	}

	if m.dataDir != "" {
		e.snapshotCh = make(chan game.Snapshot, 4)
		g.SetSnapshotSink(e.snapshotCh)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.snapshotLoop(id, e.snapshotCh)
		}()
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	m.mu.Lock()
	m.games[id] = e
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runGame(runCtx, e)
	}()

	m.log.Printf("game created id=%s players=%d seed=%d", id, len(playerNames), seed)
	return g, nil
}

// ResumeGame rebuilds a match from a snapshot and starts its loop where the
// old process left off.
func (m *Manager) ResumeGame(ctx context.Context, snap game.Snapshot, seed int64) (*game.Game, error) {
	names := make([]string, 0, len(snap.Players))
	for _, p := range snap.Players {
		names = append(names, p.Name)
	}
	cfg := game.Config{
		ID:          snap.GameID,
		Seed:        seed,
		PlayerNames: names,
		Tuning:      m.tune,
	}
	g, err := game.New(cfg, m.cats)
	if err != nil {
		return nil, err
	}
	g.ImportSnapshot(snap)

	e := &entry{game: g}

	var sinks multiTickLogger
	if m.dataDir != "" {
		e.tickLog = gamelog.NewTickLogger(filepath.Join(m.dataDir, "games", snap.GameID))
		sinks = append(sinks, e.tickLog)
	}
	if m.index != nil {
		sinks = append(sinks, m.index)
		g.SetResultSink(m.index)
	}
	if len(sinks) > 0 {
		g.SetTickLogger(sinks)
	}
	if m.dataDir != "" {
		e.snapshotCh = make(chan game.Snapshot, 4)
		g.SetSnapshotSink(e.snapshotCh)
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.snapshotLoop(snap.GameID, e.snapshotCh)
		}()
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	m.mu.Lock()
	m.games[snap.GameID] = e
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runGame(runCtx, e)
	}()

	m.log.Printf("game resumed id=%s tick=%d", snap.GameID, snap.Tick)
	return g, nil
}

// runGame drives one game to completion, recovering from panics so a bug in
// one match cannot take the process down with it.
func (m *Manager) runGame(ctx context.Context, e *entry) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Printf("game %s panicked: %v\n%s", e.game.ID(), r, debug.Stack())
		}
		m.finishGame(e)
	}()

	if err := e.game.Run(ctx); err != nil && ctx.Err() == nil {
		m.log.Printf("game %s stopped: %v", e.game.ID(), err)
	} else {
		m.log.Printf("game %s finished at tick %d", e.game.ID(), e.game.CurrentTick())
	}
}

func (m *Manager) finishGame(e *entry) {
	if e.snapshotCh != nil {
		close(e.snapshotCh)
	}
	if e.tickLog != nil {
		_ = e.tickLog.Close()
	}
	m.mu.Lock()
	delete(m.games, e.game.ID())
	m.mu.Unlock()
}

func (m *Manager) snapshotLoop(gameID string, ch <-chan game.Snapshot) {
	for snap := range ch {
		path := snapshot.Path(m.dataDir, gameID, snap.Tick)
		if err := snapshot.Write(path, snap); err != nil {
			m.log.Printf("game %s snapshot tick=%d failed: %v", gameID, snap.Tick, err)
			continue
		}
		if m.index != nil {
			m.index.RecordSnapshot(path, snap)
		}
	}
}

// Get looks up a running game.
func (m *Manager) Get(gameID string) (*game.Game, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.games[gameID]
	if !ok {
		return nil, false
	}
	return e.game, true
}

// Resolve finds the game a connection should attach to: an explicit id, or
// the only running game when exactly one exists.
func (m *Manager) Resolve(gameID string) (*game.Game, error) {
	if gameID != "" {
		g, ok := m.Get(gameID)
		if !ok {
			return nil, fmt.Errorf("no such game %q", gameID)
		}
		return g, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.games) != 1 {
		return nil, fmt.Errorf("game_id required (%d games running)", len(m.games))
	}
	for _, e := range m.games {
		return e.game, nil
	}
	return nil, fmt.Errorf("no games running")
}

// GameMetrics is one game's row in the metrics listing.
type GameMetrics struct {
	GameID  string       `json:"game_id"`
	Status  string       `json:"status"`
	Metrics game.Metrics `json:"metrics"`
}

func (m *Manager) Snapshot() []GameMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]GameMetrics, 0, len(m.games))
	for id, e := range m.games {
		out = append(out, GameMetrics{
			GameID:  id,
			Status:  string(e.game.Status()),
			Metrics: e.game.Metrics(),
		})
	}
	return out
}

// Shutdown stops every running game and waits for their goroutines.
func (m *Manager) Shutdown(timeout time.Duration) {
	m.mu.RLock()
	for _, e := range m.games {
		e.cancel()
	}
	m.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		m.log.Printf("shutdown timed out waiting for games")
	}
}

// multiTickLogger fans one tick entry out to several sinks.
type multiTickLogger []game.TickLogger

func (m multiTickLogger) WriteTick(entry game.TickLogEntry) error {
	var first error
	for _, l := range m {
		if err := l.WriteTick(entry); err != nil && first == nil {
			first = err
		}
	}
	return first
}
