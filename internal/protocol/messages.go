package protocol

// HexRef is an axial tile coordinate on the wire.
type HexRef struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// HELLO (client -> server)
type HelloMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	PlayerName      string     `json:"player_name"`
	GameID          string     `json:"game_id,omitempty"`
	Auth            *HelloAuth `json:"auth,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	PlayerID        string     `json:"player_id"`
	GameID          string     `json:"game_id"`
	ResumeToken     string     `json:"resume_token"`
	GameParams      GameParams `json:"game_params"`
	UpgradesDigest  string     `json:"upgrades_digest"`
}

type GameParams struct {
	TickIntervalMs  int `json:"tick_interval_ms"`
	MapRadius       int `json:"map_radius"`
	ArmyPerHexMs    int `json:"army_per_hex_ms"`
	SpyPerHexMs     int `json:"spy_per_hex_ms"`
	CapitalPerHexMs int `json:"capital_per_hex_ms"`
	PauseBudgetMs   int `json:"pause_budget_ms"`
}

// Intent kinds.
const (
	IntentMoveArmy        = "MOVE_ARMY"
	IntentSplitMoveArmy   = "SPLIT_MOVE_ARMY"
	IntentRetreatArmy     = "RETREAT_ARMY"
	IntentCancelMove      = "CANCEL_MOVE"
	IntentMoveSpy         = "MOVE_SPY"
	IntentRelocateCapital = "RELOCATE_CAPITAL"
	IntentSetRatios       = "SET_RATIOS"
	IntentSetRallyPoint   = "SET_RALLY_POINT"
	IntentBuildCity       = "BUILD_CITY"
	IntentBuyUpgrade      = "BUY_UPGRADE"
	IntentProposeAlliance = "PROPOSE_ALLIANCE"
	IntentAcceptAlliance  = "ACCEPT_ALLIANCE"
	IntentBreakAlliance   = "BREAK_ALLIANCE"
	IntentSetSharing      = "SET_SHARING"
	IntentPause           = "PAUSE"
	IntentUnpause         = "UNPAUSE"
	IntentForfeit         = "FORFEIT"
)

// INTENT (client -> server). One flat message; fields beyond Kind are
// optional and interpreted per kind. ID is a client reference echoed back in
// the INTENT_RESULT event.
type IntentMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Kind            string `json:"kind"`

	ArmyID    string      `json:"army_id,omitempty"`
	SpyID     string      `json:"spy_id,omitempty"`
	Target    *HexRef     `json:"target,omitempty"`
	Units     int         `json:"units,omitempty"`
	Ratios    *Ratios     `json:"ratios,omitempty"`
	UpgradeID string      `json:"upgrade_id,omitempty"`
	PlayerID  string      `json:"player_id,omitempty"`
	Sharing   *SharingReq `json:"sharing,omitempty"`
}

type Ratios struct {
	Labour   int `json:"labour"`
	Military int `json:"military"`
	Spy      int `json:"spy"`
}

// Sharing categories an ally can opt into exposing.
const (
	SharingVision        = "vision"
	SharingGold          = "gold"
	SharingUpgrades      = "upgrades"
	SharingArmyPositions = "armyPositions"
	SharingSpyIntel      = "spyIntel"
)

type SharingReq struct {
	Category string `json:"category"`
	Enabled  bool   `json:"enabled"`
}

// VIEW (server -> client): the per-tick committed state visible to one
// player after the alliance-sharing gate is applied.
type ViewMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	GameID          string `json:"game_id"`
	PlayerID        string `json:"player_id"`
	Status          string `json:"status"`

	Paused *PauseView `json:"paused,omitempty"`

	Self    SelfView     `json:"self"`
	Tiles   []TileView   `json:"tiles"`
	Fogged  []TileView   `json:"fogged,omitempty"`
	Armies  []ArmyView   `json:"armies,omitempty"`
	Spies   []SpyView    `json:"spies,omitempty"`
	Shared  []SharedView `json:"shared,omitempty"`
	Intel   []IntelView  `json:"intel,omitempty"`
	Events  []Event      `json:"events,omitempty"`
	Horizon []HexRef     `json:"horizon,omitempty"`
}

type PauseView struct {
	ByPlayerID string `json:"by_player_id"`
	SinceMs    int64  `json:"since_ms"`
	BudgetMs   int64  `json:"budget_left_ms"`
}

type SelfView struct {
	Gold           float64   `json:"gold"`
	Population     int       `json:"population"`
	Labourers      int       `json:"labourers"`
	GoldPerSecond  float64   `json:"gold_per_second"`
	Ratios         Ratios    `json:"ratios"`
	RallyPoint     *HexRef   `json:"rally_point,omitempty"`
	Upgrades       []string  `json:"upgrades,omitempty"`
	PauseBudgetMs  int64     `json:"pause_budget_ms"`
	CapitalMove    *MoveView `json:"capital_move,omitempty"`
	EliminatedAt   int64     `json:"eliminated_at_ms,omitempty"`
	FinishPosition int       `json:"finish_position,omitempty"`
}

type TileView struct {
	Pos     HexRef `json:"pos"`
	OwnerID string `json:"owner_id,omitempty"`
	Kind    string `json:"kind"` // empty | city | capital
}

type MoveView struct {
	Target      HexRef   `json:"target"`
	Path        []HexRef `json:"path"`
	DepartureMs int64    `json:"departure_ms"`
	ArrivalMs   int64    `json:"arrival_ms"`
}

type ArmyView struct {
	ID      string    `json:"id"`
	OwnerID string    `json:"owner_id"`
	Pos     HexRef    `json:"pos"`
	Units   int       `json:"units"`
	HP      []float64 `json:"hp,omitempty"` // own armies only
	Move    *MoveView `json:"move,omitempty"`
}

type SpyView struct {
	ID       string    `json:"id"`
	OwnerID  string    `json:"owner_id"`
	Pos      HexRef    `json:"pos"`
	Revealed bool      `json:"revealed"`
	Move     *MoveView `json:"move,omitempty"` // own spies only
}

// SharedView carries one ally's opted-in state, tagged with the sharer so
// the client can color it.
type SharedView struct {
	PlayerID   string     `json:"player_id"`
	Vision     []HexRef   `json:"vision,omitempty"`
	Gold       *float64   `json:"gold,omitempty"`
	Population *int       `json:"population,omitempty"`
	Upgrades   []string   `json:"upgrades,omitempty"`
	Armies     []ArmyView `json:"armies,omitempty"`
}

// IntelView is the capital-intel readout for one enemy, fields populated
// progressively by tier.
type IntelView struct {
	TargetID   string   `json:"target_id"`
	Tier       int      `json:"tier"`
	Gold       *float64 `json:"gold,omitempty"`       // tier >= 1
	Population *int     `json:"population,omitempty"` // tier >= 2
	Upgrades   []string `json:"upgrades,omitempty"`   // tier >= 3
	ArmyUnits  *int     `json:"army_units,omitempty"` // tier >= 4
	Spies      *int     `json:"spies,omitempty"`      // tier >= 5
}
