// Package catalogs loads the read-only upgrade definitions consumed by the
// simulation. The catalog is static for the lifetime of a server process; a
// sha256 digest over the raw file lets clients cache it.
package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Catalogs struct {
	Upgrades UpgradeCatalog
}

type UpgradeCatalog struct {
	ByID   map[string]UpgradeDef
	Order  []string
	Digest string
}

type UpgradeDef struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	GoldCost           int      `json:"gold_cost"`
	PopulationRequired int      `json:"population_required"`
	Prerequisites      []string `json:"prerequisites,omitempty"`
	Effects            Effects  `json:"effects"`
}

// Effects is the fixed set of numeric modifiers an upgrade can carry.
// Unset fields default to zero; purchased upgrades sum field-wise.
type Effects struct {
	StrengthBonus         float64 `json:"strength_bonus,omitempty"`
	DefenseBonus          float64 `json:"defense_bonus,omitempty"`
	SpyEvasionBonus       float64 `json:"spy_evasion_bonus,omitempty"`
	SpyDetectionBonus     float64 `json:"spy_detection_bonus,omitempty"`
	LabourEfficiencyBonus float64 `json:"labour_efficiency_bonus,omitempty"`
	PopGrowthBonus        float64 `json:"pop_growth_bonus,omitempty"`
	ArmySpeedBonus        float64 `json:"army_speed_bonus,omitempty"`
	SpySpeedBonus         float64 `json:"spy_speed_bonus,omitempty"`
}

// Add sums o into e field-wise.
func (e Effects) Add(o Effects) Effects {
	return Effects{
		StrengthBonus:         e.StrengthBonus + o.StrengthBonus,
		DefenseBonus:          e.DefenseBonus + o.DefenseBonus,
		SpyEvasionBonus:       e.SpyEvasionBonus + o.SpyEvasionBonus,
		SpyDetectionBonus:     e.SpyDetectionBonus + o.SpyDetectionBonus,
		LabourEfficiencyBonus: e.LabourEfficiencyBonus + o.LabourEfficiencyBonus,
		PopGrowthBonus:        e.PopGrowthBonus + o.PopGrowthBonus,
		ArmySpeedBonus:        e.ArmySpeedBonus + o.ArmySpeedBonus,
		SpySpeedBonus:         e.SpySpeedBonus + o.SpySpeedBonus,
	}
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadUpgrades(filepath.Join(configDir, "upgrades.json"), &c.Upgrades); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadUpgrades(path string, out *UpgradeCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []UpgradeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("upgrades.json: %w", err)
	}
	out.ByID = map[string]UpgradeDef{}
	out.Order = make([]string, 0, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("upgrades.json: empty id")
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("upgrades.json: duplicate id %q", d.ID)
		}
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	for _, d := range defs {
		for _, pre := range d.Prerequisites {
			if _, ok := out.ByID[pre]; !ok {
				return fmt.Errorf("upgrades.json: %s requires unknown upgrade %q", d.ID, pre)
			}
		}
	}
	return nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
