package game

import (
	"fmt"

	"hexfront.gg/internal/sim/game/logic/hexgrid"
)

// generateMap builds the starting state: a hex disk of tiles, one capital
// per player spread around a ring, a starting army at each capital, and a
// handful of neutral cities. Deterministic for a fixed seed.
func (g *Game) generateMap() error {
	radius := g.cfg.Tuning.MapRadius
	if radius < 3 {
		return fmt.Errorf("map radius too small: %d", radius)
	}

	for _, h := range hexgrid.Disk(hexgrid.Hex{}, radius) {
		g.tiles[h] = &Tile{Pos: h, Kind: TileEmpty}
	}

	n := len(g.cfg.PlayerNames)
	capitals, err := capitalRing(radius-2, n)
	if err != nil {
		return err
	}

	for i, name := range g.cfg.PlayerNames {
		id := fmt.Sprintf("P%d", i+1)
		capPos := capitals[i]
		p := &Player{
			ID:                 id,
			Name:               name,
			Gold:               float64(g.cfg.Tuning.Economy.StartingGold),
			Population:         g.cfg.Tuning.Economy.StartingPopulation,
			Ratios:             Ratios{Labour: 60, Military: 30, Spy: 10},
			Capital:            capPos,
			RallyPoint:         capPos,
			TileMemory:         map[hexgrid.Hex]TileMemory{},
			KnownEnemyUpgrades: map[string]map[string]string{},
			Intel:              map[string]*IntelProgress{},
		}
		g.players[id] = p
		g.order = append(g.order, id)

		t := g.tiles[capPos]
		t.OwnerID = id
		t.Kind = TileCapital
		t.Allegiance = initialAllegiance(id, g.order)

		// Claim the capital's surroundings so every player starts with a
		// meaningful line of sight.
		for _, nb := range hexgrid.Neighbors(capPos) {
			if nt, ok := g.tiles[nb]; ok && nt.OwnerID == "" {
				nt.OwnerID = id
			}
		}

		units := make([]float64, 5)
		for j := range units {
			units[j] = float64(g.cfg.Tuning.Combat.UnitBaseHP)
		}
		army := &Army{ID: g.newArmyID(), OwnerID: id, Pos: capPos, Units: units}
		g.armies[army.ID] = army
	}

	// Allegiance rows must cover every seated team, including ones created
	// after a tile's row map. Re-init now that all players exist.
	for _, t := range g.tiles {
		if t.Kind == TileCapital {
			t.Allegiance = initialAllegiance(t.OwnerID, g.order)
		}
	}

	g.placeNeutralCities(radius)
	return nil
}

// capitalRing spreads n capitals over distinct hexes of the ring at the
// given radius. The ring holds 6*radius hexes, so a map must be large
// enough for its seat count.
func capitalRing(radius, n int) ([]hexgrid.Hex, error) {
	ring := hexgrid.Ring(hexgrid.Hex{}, radius)
	if n > len(ring) {
		return nil, fmt.Errorf("capital ring at radius %d seats %d players, need %d", radius, len(ring), n)
	}
	out := make([]hexgrid.Hex, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, ring[i*len(ring)/n])
	}
	return out, nil
}

func (g *Game) placeNeutralCities(radius int) {
	want := g.cfg.Tuning.NeutralCities
	placed := 0
	for attempts := 0; placed < want && attempts < want*50; attempts++ {
		h := hexgrid.Hex{
			Q: g.rng.Intn(2*radius+1) - radius,
			R: g.rng.Intn(2*radius+1) - radius,
		}
		t, ok := g.tiles[h]
		if !ok || t.Kind != TileEmpty || t.OwnerID != "" {
			continue
		}
		// Keep NPC cities away from capitals.
		tooClose := false
		for _, p := range g.players {
			if hexgrid.Distance(h, p.Capital) < 3 {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		t.Kind = TileCity
		t.Allegiance = initialAllegiance("", g.order)
		placed++
	}
}

// initialAllegiance builds the score row for a city/capital tile: owner at
// 100, every other seated team at 0. An empty owner (NPC city) starts all
// teams at 0.
func initialAllegiance(ownerID string, order []string) map[string]float64 {
	out := make(map[string]float64, len(order))
	for _, id := range order {
		if id == ownerID {
			out[id] = 100
		} else {
			out[id] = 0
		}
	}
	return out
}
