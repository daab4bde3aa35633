// Command replay re-executes a game from its tick logs and verifies that
// every recomputed state digest matches the one recorded at capture time.
// It can start from scratch (seed plus player names) or from a snapshot.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"hexfront.gg/internal/persistence/snapshot"
	"hexfront.gg/internal/sim/catalogs"
	"hexfront.gg/internal/sim/game"
	"hexfront.gg/internal/sim/tuning"
)

func main() {
	var (
		ticksDir   = flag.String("ticks", "", "directory containing ticks-*.jsonl.zst")
		snapPath   = flag.String("snapshot", "", "snapshot to resume from (optional)")
		configDir  = flag.String("configs", "configs", "config directory")
		tuningPath = flag.String("tuning", "", "tuning yaml (defaults apply when empty)")
		seed       = flag.Int64("seed", 0, "game seed as recorded at creation")
		players    = flag.String("players", "", "comma-separated player names (fresh replay only)")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *ticksDir == "" {
		fmt.Fprintln(os.Stderr, "missing -ticks")
		os.Exit(2)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tune := tuning.Defaults()
	if *tuningPath != "" {
		if tune, err = tuning.Load(*tuningPath); err != nil {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
	}

	var g *game.Game
	switch {
	case *snapPath != "":
		snap, err := snapshot.Read(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		names := make([]string, 0, len(snap.Players))
		for _, p := range snap.Players {
			names = append(names, p.Name)
		}
		g, err = game.New(game.Config{
			ID:          snap.GameID,
			Seed:        *seed,
			PlayerNames: names,
			Tuning:      tune,
		}, cats)
		if err != nil {
			fmt.Fprintln(os.Stderr, "game:", err)
			os.Exit(1)
		}
		g.ImportSnapshot(snap)
		fmt.Printf("resuming game=%s from tick=%d (%d players)\n", snap.GameID, snap.Tick, len(names))
	case *players != "":
		names := strings.Split(*players, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		g, err = game.New(game.Config{
			ID:          "replay",
			Seed:        *seed,
			PlayerNames: names,
			Tuning:      tune,
		}, cats)
		if err != nil {
			fmt.Fprintln(os.Stderr, "game:", err)
			os.Exit(1)
		}
		fmt.Printf("fresh replay seed=%d (%d players)\n", *seed, len(names))
	default:
		fmt.Fprintln(os.Stderr, "need -snapshot or -players")
		os.Exit(2)
	}

	files, err := listTickFiles(*ticksDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list ticks:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no tick files found in", *ticksDir)
		os.Exit(1)
	}

	var checked uint64
	for _, path := range files {
		if err := replayFile(g, path, *toTick, &checked); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
		if *toTick != 0 && g.CurrentTick() > *toTick {
			break
		}
	}
	fmt.Printf("replay ok: checked=%d ticks, final tick=%d status=%s\n", checked, g.CurrentTick(), g.Status())
}

func listTickFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "ticks-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func replayFile(g *game.Game, path string, toTick uint64, checked *uint64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	for sc.Scan() {
		var entry game.TickLogEntry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if entry.Tick < g.CurrentTick() {
			continue
		}
		if toTick != 0 && entry.Tick > toTick {
			return nil
		}
		if entry.Tick != g.CurrentTick() {
			return fmt.Errorf("tick gap: want=%d got=%d (file=%s)", g.CurrentTick(), entry.Tick, filepath.Base(path))
		}

		intents := make([]game.IntentEnvelope, 0, len(entry.Intents))
		for _, ri := range entry.Intents {
			intents = append(intents, game.IntentEnvelope{PlayerID: ri.PlayerID, Intent: ri.Intent})
		}

		tick, digest := g.StepOnce(nil, intents)
		if tick != entry.Tick {
			return fmt.Errorf("stepped wrong tick: stepped=%d entry=%d", tick, entry.Tick)
		}
		*checked++
		if digest != entry.Digest {
			return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, digest, entry.Digest)
		}
	}
	return sc.Err()
}
