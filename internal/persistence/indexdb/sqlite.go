// Package indexdb maintains a queryable SQLite mirror of the append-only
// logs: tick digests, per-game results, and lifetime player stats. Writes
// are funneled through a single writer goroutine so the simulation loop
// never blocks on disk.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"hexfront.gg/internal/sim/catalogs"
	"hexfront.gg/internal/sim/game"
	"hexfront.gg/internal/sim/tuning"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqGame
	reqResult
	reqSnapshot
)

type req struct {
	kind reqKind

	tick     game.TickLogEntry
	game     gameRow
	result   resultRow
	snapshot snapshotRow
}

type gameRow struct {
	GameID    string
	Seed      int64
	Players   int
	CreatedAt string
}

type resultRow struct {
	GameID         string
	PlayerID       string
	Reason         string
	FinishPosition int
	PlayedMs       int64
	Won            bool
	RecordedAt     string
}

type snapshotRow struct {
	GameID  string
	Tick    uint64
	Path    string
	Players int
	Tiles   int
	Armies  int
	Spies   int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS games (
			game_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			players INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			game_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			intents INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (game_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			game_id TEXT NOT NULL,
			player_id TEXT NOT NULL,
			reason TEXT NOT NULL,
			finish_position INTEGER NOT NULL,
			played_ms INTEGER NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (game_id, player_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_player ON results(player_id);`,
		`CREATE TABLE IF NOT EXISTS player_stats (
			player_id TEXT PRIMARY KEY,
			games INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			played_ms INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			game_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			path TEXT NOT NULL,
			players INTEGER NOT NULL,
			tiles INTEGER NOT NULL,
			armies INTEGER NOT NULL,
			spies INTEGER NOT NULL,
			PRIMARY KEY (game_id, tick)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteTick implements game.TickLogger. Entries are dropped if the indexer
// falls behind; the JSONL tick logs remain the source of truth.
func (s *SQLiteIndex) WriteTick(entry game.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
	}
	return nil
}

// RecordGame registers a game at creation time.
func (s *SQLiteIndex) RecordGame(gameID string, seed int64, players int) {
	if s == nil || s.closed.Load() {
		return
	}
	r := gameRow{
		GameID:    gameID,
		Seed:      seed,
		Players:   players,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqGame, game: r}:
	default:
	}
}

// RecordElimination implements game.ResultSink.
func (s *SQLiteIndex) RecordElimination(gameID, playerID string, reason string, finishPosition int, playedFor time.Duration) error {
	s.enqueueResult(resultRow{
		GameID:         gameID,
		PlayerID:       playerID,
		Reason:         reason,
		FinishPosition: finishPosition,
		PlayedMs:       playedFor.Milliseconds(),
		RecordedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	})
	return nil
}

// RecordWin implements game.ResultSink.
func (s *SQLiteIndex) RecordWin(gameID, playerID string, playedFor time.Duration) error {
	s.enqueueResult(resultRow{
		GameID:         gameID,
		PlayerID:       playerID,
		Reason:         "won",
		FinishPosition: 1,
		PlayedMs:       playedFor.Milliseconds(),
		Won:            true,
		RecordedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	})
	return nil
}

func (s *SQLiteIndex) enqueueResult(r resultRow) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqResult, result: r}:
	default:
	}
}

// RecordSnapshot indexes a snapshot file written to disk.
func (s *SQLiteIndex) RecordSnapshot(path string, snap game.Snapshot) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		GameID:  snap.GameID,
		Tick:    snap.Tick,
		Path:    path,
		Players: len(snap.Players),
		Tiles:   len(snap.Tiles),
		Armies:  len(snap.Armies),
		Spies:   len(snap.Spies),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
	}
}

// PlayerStats is the lifetime aggregate for one player name.
type PlayerStats struct {
	PlayerID string `json:"player_id"`
	Games    int    `json:"games"`
	Wins     int    `json:"wins"`
	PlayedMs int64  `json:"played_ms"`
}

// QueryPlayerStats reads a player's lifetime record. Safe to call from any
// goroutine; reads go straight to the database, not through the writer.
func (s *SQLiteIndex) QueryPlayerStats(ctx context.Context, playerID string) (PlayerStats, error) {
	st := PlayerStats{PlayerID: playerID}
	row := s.db.QueryRowContext(ctx,
		`SELECT games, wins, played_ms FROM player_stats WHERE player_id = ?`, playerID)
	err := row.Scan(&st.Games, &st.Wins, &st.PlayedMs)
	if err == sql.ErrNoRows {
		return st, nil
	}
	return st, err
}

// UpsertCatalogs stores the upgrade catalog and applied tuning with their
// digests so operators can tell which balance a game ran under.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if configDir != "" {
		if b, err := os.ReadFile(filepath.Join(configDir, "upgrades.json")); err == nil && len(b) > 0 {
			rows = append(rows, kv{name: "upgrades", digest: cats.Upgrades.Digest, json: b})
		}
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(game_id,tick,digest,intents,raw_json) VALUES(?,?,?,?,?)`)
	insertGame, _ := s.db.Prepare(`INSERT OR REPLACE INTO games(game_id,seed,players,created_at) VALUES(?,?,?,?)`)
	insertResult, _ := s.db.Prepare(`INSERT OR REPLACE INTO results(game_id,player_id,reason,finish_position,played_ms,recorded_at) VALUES(?,?,?,?,?,?)`)
	upsertStats, _ := s.db.Prepare(`INSERT INTO player_stats(player_id,games,wins,played_ms) VALUES(?,1,?,?)
		ON CONFLICT(player_id) DO UPDATE SET
			games = games + 1,
			wins = wins + excluded.wins,
			played_ms = played_ms + excluded.played_ms`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(game_id,tick,path,players,tiles,armies,spies) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertGame, insertResult, upsertStats, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			if insertTick == nil {
				continue
			}
			b, _ := json.Marshal(r.tick)
			if _, err := tx.Stmt(insertTick).Exec(
				r.tick.GameID,
				int64(r.tick.Tick),
				r.tick.Digest,
				len(r.tick.Intents),
				string(b),
			); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqGame:
			if insertGame == nil {
				continue
			}
			gr := r.game
			if _, err := tx.Stmt(insertGame).Exec(gr.GameID, gr.Seed, gr.Players, gr.CreatedAt); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqResult:
			rr := r.result
			if insertResult != nil {
				if _, err := tx.Stmt(insertResult).Exec(
					rr.GameID, rr.PlayerID, rr.Reason, rr.FinishPosition, rr.PlayedMs, rr.RecordedAt,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			if upsertStats != nil {
				wins := 0
				if rr.Won {
					wins = 1
				}
				if _, err := tx.Stmt(upsertStats).Exec(rr.PlayerID, wins, rr.PlayedMs); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqSnapshot:
			if insertSnapshot == nil {
				continue
			}
			sn := r.snapshot
			if _, err := tx.Stmt(insertSnapshot).Exec(
				sn.GameID, int64(sn.Tick), sn.Path, sn.Players, sn.Tiles, sn.Armies, sn.Spies,
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		flushIfNeeded()
	}

	commit()
}
