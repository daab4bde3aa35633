// Command server runs the hexfront simulation server: it loads the upgrade
// catalog and tuning, opens the sqlite index, seats an initial match and
// serves the websocket endpoint plus a small loopback admin surface.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"hexfront.gg/internal/persistence/indexdb"
	"hexfront.gg/internal/persistence/snapshot"
	"hexfront.gg/internal/sim/catalogs"
	"hexfront.gg/internal/sim/multigame"
	"hexfront.gg/internal/sim/tuning"
	"hexfront.gg/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8420", "http listen address")
		configDir  = flag.String("configs", "configs", "directory with upgrades.json")
		tuningPath = flag.String("tuning", "", "tuning yaml (defaults apply when empty)")
		dataDir    = flag.String("data", "data", "directory for tick logs, snapshots and the index db")
		seed       = flag.Int64("seed", 0, "rng seed for the bootstrap game (0 = time-based)")
		players    = flag.String("players", "", "comma-separated player names for a bootstrap game")
		resumeID   = flag.String("resume_game", "", "game id to resume from its latest snapshot")
		disableDB  = flag.Bool("disable_db", false, "run without the sqlite index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	logger.Printf("catalogs loaded: %d upgrades digest=%s", len(cats.Upgrades.ByID), cats.Upgrades.Digest[:12])

	tune := tuning.Defaults()
	if *tuningPath != "" {
		tune, err = tuning.Load(*tuningPath)
		if err != nil {
			logger.Fatalf("load tuning %s: %v", *tuningPath, err)
		}
		logger.Printf("tuning loaded from %s", *tuningPath)
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("record catalogs: %v", err)
		}
	}

	var mgrIndex multigame.Index
	if idx != nil {
		mgrIndex = idx
	}
	mgr := multigame.NewManager(logger, cats, tune, *dataDir, mgrIndex)

	ctx, cancel := signalContext()
	defer cancel()

	bootSeed := *seed
	if bootSeed == 0 {
		bootSeed = time.Now().UnixNano()
	}

	switch {
	case *resumeID != "":
		path, err := snapshot.Latest(*dataDir, *resumeID)
		if err != nil || path == "" {
			logger.Fatalf("resume %s: no snapshot found (%v)", *resumeID, err)
		}
		snap, err := snapshot.Read(path)
		if err != nil {
			logger.Fatalf("resume %s: %v", *resumeID, err)
		}
		if _, err := mgr.ResumeGame(ctx, snap, bootSeed); err != nil {
			logger.Fatalf("resume %s: %v", *resumeID, err)
		}
	case *players != "":
		names := splitNames(*players)
		if _, err := mgr.CreateGame(ctx, names, bootSeed); err != nil {
			logger.Fatalf("bootstrap game: %v", err)
		}
	}

	wsSrv := ws.NewServer(mgr, logger, time.Duration(tune.Pause.HeartbeatTimeoutSec)*time.Second)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", wsSrv.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/metrics", metricsHandler(mgr))
	mux.HandleFunc("/admin/v1/games", adminGamesHandler(logger, mgr, bootSeed))
	mux.HandleFunc("/admin/v1/state", adminStateHandler(mgr))
	if idx != nil {
		mux.HandleFunc("/admin/v1/player_stats", adminStatsHandler(idx))
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	mgr.Shutdown(10 * time.Second)
	logger.Printf("bye")
}

// metricsHandler exposes per-game gauges in prometheus text format.
func metricsHandler(mgr *multigame.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		games := mgr.Snapshot()
		fmt.Fprintf(w, "# HELP hexfront_games Number of running games.\n# TYPE hexfront_games gauge\nhexfront_games %d\n", len(games))
		fmt.Fprintf(w, "# HELP hexfront_game_tick Current tick per game.\n# TYPE hexfront_game_tick gauge\n")
		for _, g := range games {
			fmt.Fprintf(w, "hexfront_game_tick{game=%q} %d\n", g.GameID, g.Metrics.Tick)
		}
		fmt.Fprintf(w, "# HELP hexfront_game_clients Connected clients per game.\n# TYPE hexfront_game_clients gauge\n")
		for _, g := range games {
			fmt.Fprintf(w, "hexfront_game_clients{game=%q} %d\n", g.GameID, g.Metrics.Clients)
		}
		fmt.Fprintf(w, "# HELP hexfront_game_armies Armies alive per game.\n# TYPE hexfront_game_armies gauge\n")
		for _, g := range games {
			fmt.Fprintf(w, "hexfront_game_armies{game=%q} %d\n", g.GameID, g.Metrics.Armies)
		}
		fmt.Fprintf(w, "# HELP hexfront_game_step_ms Last step duration per game.\n# TYPE hexfront_game_step_ms gauge\n")
		for _, g := range games {
			fmt.Fprintf(w, "hexfront_game_step_ms{game=%q} %g\n", g.GameID, g.Metrics.StepMS)
		}
		fmt.Fprintf(w, "# HELP hexfront_game_inbox_depth Pending intents per game.\n# TYPE hexfront_game_inbox_depth gauge\n")
		for _, g := range games {
			fmt.Fprintf(w, "hexfront_game_inbox_depth{game=%q} %d\n", g.GameID, g.Metrics.InboxDepth)
		}
	}
}

type createGameRequest struct {
	Players []string `json:"players"`
	Seed    int64    `json:"seed"`
}

// adminGamesHandler creates matches. POST {"players": [...], "seed": n}.
func adminGamesHandler(logger *log.Logger, mgr *multigame.Manager, defaultSeed int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req createGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		seed := req.Seed
		if seed == 0 {
			seed = defaultSeed
		}
		g, err := mgr.CreateGame(r.Context(), req.Players, seed)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Printf("admin created game %s", g.ID())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"game_id": g.ID()})
	}
}

func adminStateHandler(mgr *multigame.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(mgr.Snapshot())
	}
}

func adminStatsHandler(idx *indexdb.SQLiteIndex) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		playerID := r.URL.Query().Get("player_id")
		if playerID == "" {
			http.Error(w, "player_id required", http.StatusBadRequest)
			return
		}
		stats, err := idx.QueryPlayerStats(r.Context(), playerID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	}
}

func splitNames(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isLoopbackRemote(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
