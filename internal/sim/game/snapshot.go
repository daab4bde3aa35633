package game

import (
	"time"

	"hexfront.gg/internal/sim/game/logic/hexgrid"
)

// Snapshot is a complete, JSON-serializable image of one game's committed
// state. It doubles as the digest input for determinism checks, so every
// slice is emitted in canonical order.
type Snapshot struct {
	GameID   string             `json:"game_id"`
	Tick     uint64             `json:"tick"`
	SimNowMs int64              `json:"sim_now_ms"`
	Status   Status             `json:"status"`
	Players  []PlayerSnapshot   `json:"players"`
	Tiles    []TileSnapshot     `json:"tiles"`
	Armies   []ArmySnapshot     `json:"armies"`
	Spies    []SpySnapshot      `json:"spies"`
	Allies   []AllianceSnapshot `json:"alliances,omitempty"`

	// ID counters so restored games keep minting unique entity ids.
	NextArmy     uint64 `json:"next_army"`
	NextSpy      uint64 `json:"next_spy"`
	NextAlliance uint64 `json:"next_alliance"`
}

type PlayerSnapshot struct {
	ID                string                       `json:"id"`
	Name              string                       `json:"name"`
	Gold              float64                      `json:"gold"`
	Population        int                          `json:"population"`
	Ratios            Ratios                       `json:"ratios"`
	GrowthAcc         float64                      `json:"growth_acc"`
	Capital           hexgrid.Hex                  `json:"capital"`
	RallyPoint        hexgrid.Hex                  `json:"rally_point"`
	CapitalMove       *MoveSnapshot                `json:"capital_move,omitempty"`
	Upgrades          []string                     `json:"upgrades,omitempty"`
	PauseUsedMs       int64                        `json:"pause_used_ms"`
	EliminatedAtMs    int64                        `json:"eliminated_at_ms,omitempty"`
	EliminationReason EliminationReason            `json:"elimination_reason,omitempty"`
	FinishPosition    int                          `json:"finish_position,omitempty"`
	IntelMs           map[string]int64             `json:"intel_ms,omitempty"`
	KnownUpgrades     map[string]map[string]string `json:"known_upgrades,omitempty"`
}

type TileSnapshot struct {
	Pos        hexgrid.Hex        `json:"pos"`
	OwnerID    string             `json:"owner_id,omitempty"`
	Kind       TileKind           `json:"kind"`
	Allegiance map[string]float64 `json:"allegiance,omitempty"`
}

type ArmySnapshot struct {
	ID      string        `json:"id"`
	OwnerID string        `json:"owner_id"`
	Pos     hexgrid.Hex   `json:"pos"`
	Units   []float64     `json:"units"`
	Move    *MoveSnapshot `json:"move,omitempty"`
}

type SpySnapshot struct {
	ID       string        `json:"id"`
	OwnerID  string        `json:"owner_id"`
	Pos      hexgrid.Hex   `json:"pos"`
	Revealed bool          `json:"revealed,omitempty"`
	Move     *MoveSnapshot `json:"move,omitempty"`
}

type MoveSnapshot struct {
	Target      hexgrid.Hex   `json:"target"`
	Path        []hexgrid.Hex `json:"path"`
	Origin      hexgrid.Hex   `json:"origin"`
	DepartureMs int64         `json:"departure_ms"`
	ArrivalMs   int64         `json:"arrival_ms"`
}

type AllianceSnapshot struct {
	ID      string                     `json:"id"`
	Player1 string                     `json:"player1"`
	Player2 string                     `json:"player2"`
	Status  AllianceStatus             `json:"status"`
	Sharing map[string]map[string]bool `json:"sharing,omitempty"`
}

func (g *Game) ExportSnapshot(nowTick uint64) Snapshot {
	snap := Snapshot{
		GameID:   g.cfg.ID,
		Tick:     nowTick,
		SimNowMs: g.now.UnixMilli(),
		Status:   g.status,

		NextArmy:     g.nextArmyNum.Load(),
		NextSpy:      g.nextSpyNum.Load(),
		NextAlliance: g.nextAllianceNum.Load(),
	}

	for _, id := range g.order {
		p := g.players[id]
		ps := PlayerSnapshot{
			ID:             p.ID,
			Name:           p.Name,
			Gold:           p.Gold,
			Population:     p.Population,
			Ratios:         p.Ratios,
			GrowthAcc:      p.growthAcc,
			Capital:        p.Capital,
			RallyPoint:     p.RallyPoint,
			CapitalMove:    moveSnapshot(p.CapitalMove),
			Upgrades:       append([]string(nil), p.Upgrades...),
			PauseUsedMs:    p.PauseUsedMs,
			FinishPosition: p.FinishPosition,
		}
		if p.Eliminated() {
			ps.EliminatedAtMs = p.EliminatedAt.UnixMilli()
			ps.EliminationReason = p.EliminationReason
		}
		if len(p.Intel) > 0 {
			ps.IntelMs = map[string]int64{}
			for tid, prog := range p.Intel {
				ps.IntelMs[tid] = prog.Accumulated.Milliseconds()
			}
		}
		if len(p.KnownEnemyUpgrades) > 0 {
			ps.KnownUpgrades = p.KnownEnemyUpgrades
		}
		snap.Players = append(snap.Players, ps)
	}

	for _, k := range g.sortedTileKeys() {
		t := g.tiles[k]
		snap.Tiles = append(snap.Tiles, TileSnapshot{
			Pos:        t.Pos,
			OwnerID:    t.OwnerID,
			Kind:       t.Kind,
			Allegiance: t.Allegiance,
		})
	}

	for _, id := range g.sortedArmyIDs() {
		a := g.armies[id]
		snap.Armies = append(snap.Armies, ArmySnapshot{
			ID:      a.ID,
			OwnerID: a.OwnerID,
			Pos:     a.Pos,
			Units:   append([]float64(nil), a.Units...),
			Move:    moveSnapshot(a.Move),
		})
	}

	for _, id := range g.sortedSpyIDs() {
		s := g.spies[id]
		snap.Spies = append(snap.Spies, SpySnapshot{
			ID:       s.ID,
			OwnerID:  s.OwnerID,
			Pos:      s.Pos,
			Revealed: s.Revealed,
			Move:     moveSnapshot(s.Move),
		})
	}

	for _, id := range g.sortedAllianceIDs() {
		al := g.alliances[id]
		snap.Allies = append(snap.Allies, AllianceSnapshot{
			ID:      al.ID,
			Player1: al.Player1,
			Player2: al.Player2,
			Status:  al.Status,
			Sharing: al.Sharing,
		})
	}

	return snap
}

// ImportSnapshot overwrites the game's committed state with snap. Intended
// for process restart recovery; the caller constructs the game with the same
// config and tuning, then restores on top before running.
func (g *Game) ImportSnapshot(snap Snapshot) {
	g.tick.Store(snap.Tick)
	g.now = time.UnixMilli(snap.SimNowMs)
	g.status = snap.Status
	g.nextArmyNum.Store(snap.NextArmy)
	g.nextSpyNum.Store(snap.NextSpy)
	g.nextAllianceNum.Store(snap.NextAlliance)

	g.players = map[string]*Player{}
	g.order = nil
	for _, ps := range snap.Players {
		p := &Player{
			ID:                 ps.ID,
			Name:               ps.Name,
			Gold:               ps.Gold,
			Population:         ps.Population,
			Ratios:             ps.Ratios,
			growthAcc:          ps.GrowthAcc,
			Capital:            ps.Capital,
			RallyPoint:         ps.RallyPoint,
			CapitalMove:        moveFromSnapshot(ps.CapitalMove),
			Upgrades:           append([]string(nil), ps.Upgrades...),
			PauseUsedMs:        ps.PauseUsedMs,
			FinishPosition:     ps.FinishPosition,
			TileMemory:         map[hexgrid.Hex]TileMemory{},
			KnownEnemyUpgrades: map[string]map[string]string{},
			Intel:              map[string]*IntelProgress{},
		}
		if ps.EliminatedAtMs != 0 {
			p.EliminatedAt = time.UnixMilli(ps.EliminatedAtMs)
			p.EliminationReason = ps.EliminationReason
		}
		for tid, ms := range ps.IntelMs {
			p.Intel[tid] = &IntelProgress{Accumulated: time.Duration(ms) * time.Millisecond}
		}
		if ps.KnownUpgrades != nil {
			p.KnownEnemyUpgrades = ps.KnownUpgrades
		}
		for _, u := range p.Upgrades {
			if def, ok := g.cats.Upgrades.ByID[u]; ok {
				p.effects = p.effects.Add(def.Effects)
			}
		}
		g.players[p.ID] = p
		g.order = append(g.order, p.ID)
	}

	g.tiles = map[hexgrid.Hex]*Tile{}
	for _, ts := range snap.Tiles {
		g.tiles[ts.Pos] = &Tile{
			Pos:        ts.Pos,
			OwnerID:    ts.OwnerID,
			Kind:       ts.Kind,
			Allegiance: ts.Allegiance,
		}
	}

	g.armies = map[string]*Army{}
	for _, as := range snap.Armies {
		g.armies[as.ID] = &Army{
			ID:      as.ID,
			OwnerID: as.OwnerID,
			Pos:     as.Pos,
			Units:   append([]float64(nil), as.Units...),
			Move:    moveFromSnapshot(as.Move),
		}
	}

	g.spies = map[string]*Spy{}
	for _, ss := range snap.Spies {
		g.spies[ss.ID] = &Spy{
			ID:       ss.ID,
			OwnerID:  ss.OwnerID,
			Pos:      ss.Pos,
			Revealed: ss.Revealed,
			Move:     moveFromSnapshot(ss.Move),
		}
	}

	g.alliances = map[string]*Alliance{}
	for _, als := range snap.Allies {
		g.alliances[als.ID] = &Alliance{
			ID:      als.ID,
			Player1: als.Player1,
			Player2: als.Player2,
			Status:  als.Status,
			Sharing: als.Sharing,
		}
	}
}

func moveSnapshot(m *Move) *MoveSnapshot {
	if m == nil {
		return nil
	}
	return &MoveSnapshot{
		Target:      m.Target,
		Path:        m.Path,
		Origin:      m.Origin,
		DepartureMs: m.Departure.UnixMilli(),
		ArrivalMs:   m.Arrival.UnixMilli(),
	}
}

func moveFromSnapshot(m *MoveSnapshot) *Move {
	if m == nil {
		return nil
	}
	return &Move{
		Target:    m.Target,
		Path:      m.Path,
		Origin:    m.Origin,
		Departure: time.UnixMilli(m.DepartureMs),
		Arrival:   time.UnixMilli(m.ArrivalMs),
	}
}
