package domain

import (
	"time"
)

// League tiers, lowest to highest.
const (
	LeagueBronze   = "bronze"
	LeagueSilver   = "silver"
	LeagueGold     = "gold"
	LeaguePlatinum = "platinum"
	LeagueDiamond  = "diamond"
	LeagueChampion = "champion"
)

// LeagueTiers lists all tiers in promotion order.
var LeagueTiers = []string{
	LeagueBronze,
	LeagueSilver,
	LeagueGold,
	LeaguePlatinum,
	LeagueDiamond,
	LeagueChampion,
}

// Match status values.
const (
	MatchStatusScheduled = "scheduled"
	MatchStatusCompleted = "completed"
	MatchStatusCancelled = "cancelled"
)

// Tag-out reasons.
const (
	TagOutReasonYield       = "yield"
	TagOutReasonDestruction = "destruction"
)

// Reserved ids for the synthetic bye team. Never persisted.
const (
	ByeTeamID         int64 = -1
	ByeStableID       int64 = -1
	ByeActiveRobotID  int64 = -1
	ByeReserveRobotID int64 = -2
	ByeRobotELO             = 1000
)

type Stable struct {
	ID        int64
	Name      string
	Currency  int64
	Prestige  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Robot struct {
	ID                  int64
	StableID            int64
	Name                string
	CurrentHP           int
	MaxHP               int
	CurrentShield       int
	MaxShield           int
	AttackPower         int
	YieldThreshold      int // percent of max HP at or below which the robot disengages
	MainWeaponID        *int64
	ELO                 int
	League              string
	TotalBattles        int
	Wins                int
	Losses              int
	Draws               int
	DamageDealtLifetime int
	DamageTakenLifetime int
	Fame                int
	TimesTaggedIn       int
	TimesTaggedOut      int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// YieldThresholdHP is the hit-point floor at or below which the robot is
// forced to disengage: floor(yieldThreshold% of max HP).
func (r *Robot) YieldThresholdHP() int {
	return r.YieldThreshold * r.MaxHP / 100
}

type TagTeam struct {
	ID               int64
	StableID         int64
	ActiveRobotID    int64
	ReserveRobotID   int64
	League           string
	LeagueInstanceID string
	LeaguePoints     int
	Wins             int
	Losses           int
	Draws            int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TeamWithRobots is a team with both member records joined in.
type TeamWithRobots struct {
	TagTeam
	ActiveRobot  Robot
	ReserveRobot Robot
}

// CombinedELO is the team rating used for matchmaking and settlement:
// the sum of both members' individual ratings.
func (t *TeamWithRobots) CombinedELO() int {
	return t.ActiveRobot.ELO + t.ReserveRobot.ELO
}

// IsBye reports whether this is the synthetic bye team.
func (t *TeamWithRobots) IsBye() bool {
	return t.ID == ByeTeamID
}

// NewByeTeam builds the synthetic bye opponent used when a pool has an odd
// team count. Both placeholder robots carry a fixed 1000 rating (combined
// 2000), full HP and shield, and reserved negative ids. The value lives only
// in memory; neither the team nor its robots are ever persisted.
func NewByeTeam(league, instanceID string) *TeamWithRobots {
	weaponID := int64(0)
	active := Robot{
		ID:             ByeActiveRobotID,
		StableID:       ByeStableID,
		Name:           "Bye Robot 1",
		CurrentHP:      100,
		MaxHP:          100,
		CurrentShield:  20,
		MaxShield:      20,
		AttackPower:    10,
		YieldThreshold: 10,
		MainWeaponID:   &weaponID,
		ELO:            ByeRobotELO,
		League:         LeagueBronze,
	}
	reserve := active
	reserve.ID = ByeReserveRobotID
	reserve.Name = "Bye Robot 2"

	return &TeamWithRobots{
		TagTeam: TagTeam{
			ID:               ByeTeamID,
			StableID:         ByeStableID,
			ActiveRobotID:    ByeActiveRobotID,
			ReserveRobotID:   ByeReserveRobotID,
			League:           league,
			LeagueInstanceID: instanceID,
		},
		ActiveRobot:  active,
		ReserveRobot: reserve,
	}
}

type Match struct {
	ID           int64
	Team1ID      int64
	Team2ID      *int64 // nil signals a bye match
	League       string
	ScheduledFor time.Time
	Status       string
	BattleID     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsBye reports whether the match was scheduled against the bye team.
func (m *Match) IsBye() bool {
	return m.Team2ID == nil
}

// BattleEvent is one entry in a battle's ordered event log. Combat events
// come from the bout resolver with phase-local timestamps and are offset to
// match-relative time before being appended; tag_out and tag_in events are
// emitted by the battle engine itself.
type BattleEvent struct {
	Timestamp  float64 `json:"timestamp"`
	Type       string  `json:"type"`
	TeamNumber int     `json:"teamNumber,omitempty"`
	RobotID    int64   `json:"robotId,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Attacker   string  `json:"attacker,omitempty"`
	Defender   string  `json:"defender,omitempty"`
	Damage     int     `json:"damage,omitempty"`
	Message    string  `json:"message"`
}

// BattleLog is the persisted battle-log shape. It must round-trip exactly
// for UI and audit consumers.
type BattleLog struct {
	Events          []BattleEvent `json:"events"`
	TagTeamBattle   bool          `json:"tagTeamBattle"`
	Team1TagOutTime *float64      `json:"team1TagOutTime"`
	Team2TagOutTime *float64      `json:"team2TagOutTime"`
}

// SlotStats carries one combatant slot's accumulators across battle phases.
type SlotStats struct {
	FinalHP      int
	DamageDealt  int
	SurvivalTime float64
}

// TagTeamBattleResult is the outcome of one tag-team battle. It is produced
// by the battle engine without side effects; persistence is the caller's
// responsibility.
type TagTeamBattleResult struct {
	WinnerTeamID     *int64 // nil on draw
	IsDraw           bool
	DurationSeconds  float64
	Team1TagOutTime  *float64
	Team2TagOutTime  *float64
	Team1Active      SlotStats
	Team1Reserve     SlotStats
	Team2Active      SlotStats
	Team2Reserve     SlotStats
	Team1UsedReserve bool
	Team2UsedReserve bool
	Events           []BattleEvent
}

type Battle struct {
	ID              string
	MatchID         int64
	League          string
	WinnerTeamID    *int64
	IsDraw          bool
	DurationSeconds float64
	Team1TagOutTime *float64
	Team2TagOutTime *float64
	Team1ELODelta   int
	Team2ELODelta   int
	Log             BattleLog
	CreatedAt       time.Time
}

// AuditEntry is one append-only audit-log record, keyed by the processing
// cycle it was written in.
type AuditEntry struct {
	ID        string
	Cycle     int64
	MatchID   int64
	BattleID  *string
	Detail    string
	CreatedAt time.Time
}
