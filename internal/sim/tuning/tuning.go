package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickIntervalMs int `yaml:"tick_interval_ms"`
	MapRadius      int `yaml:"map_radius"`
	NeutralCities  int `yaml:"neutral_cities"`

	Movement  Movement  `yaml:"movement"`
	Economy   Economy   `yaml:"economy"`
	Combat    Combat    `yaml:"combat"`
	Espionage Espionage `yaml:"espionage"`
	Pause     Pause     `yaml:"pause"`

	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
}

type Movement struct {
	ArmyPerHexMs    int `yaml:"army_per_hex_ms"`
	SpyPerHexMs     int `yaml:"spy_per_hex_ms"`
	CapitalPerHexMs int `yaml:"capital_per_hex_ms"`
}

type Economy struct {
	StartingGold       int `yaml:"starting_gold"`
	StartingPopulation int `yaml:"starting_population"`
	CityCostGold       int `yaml:"city_cost_gold"`
	DebtFloorGold      int `yaml:"debt_floor_gold"`
}

type Combat struct {
	UnitBaseHP int `yaml:"unit_base_hp"`
}

type Espionage struct {
	IntelTierMs         int     `yaml:"intel_tier_ms"`
	AllegianceDriftSec  int     `yaml:"allegiance_drift_sec"`
	AllegianceFlipScore float64 `yaml:"allegiance_flip_score"`
}

type Pause struct {
	BudgetMs            int `yaml:"budget_ms"`
	HeartbeatTimeoutSec int `yaml:"heartbeat_timeout_sec"`
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Defaults are the balance constants the game ships with. Gameplay-critical
// values are bit-exact; changing them changes game outcomes.
func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		TickIntervalMs:  1000,
		MapRadius:       12,
		NeutralCities:   6,
		Movement: Movement{
			ArmyPerHexMs:    10000,
			SpyPerHexMs:     7000,
			CapitalPerHexMs: 20000,
		},
		Economy: Economy{
			StartingGold:       100,
			StartingPopulation: 50,
			CityCostGold:       50,
			DebtFloorGold:      -100,
		},
		Combat: Combat{
			UnitBaseHP: 100,
		},
		Espionage: Espionage{
			IntelTierMs:         180000,
			AllegianceDriftSec:  10,
			AllegianceFlipScore: 20,
		},
		Pause: Pause{
			BudgetMs:            30000,
			HeartbeatTimeoutSec: 15,
		},
		SnapshotEveryTicks: 300,
	}
}
