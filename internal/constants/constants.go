package constants

import "time"

const (
	// BattleTimeLimit is the total simulated time budget for one tag-team
	// match across all phases, in seconds.
	BattleTimeLimit = 300.0

	// BattleReadinessHPPercent is the minimum HP percentage a robot needs
	// to be scheduled for or enter a battle.
	BattleReadinessHPPercent = 75

	ELOKFactor = 32

	TagTeamRewardMultiplier   = 2
	TagTeamPrestigeMultiplier = 1.6

	LeaguePointsWin  = 3
	LeaguePointsDraw = 1
	LeaguePointsLoss = -1
)

const (
	RecentOpponentLimit = 5

	// Matchmaking score penalties. Rating gap dominates; rematches and
	// same-stable pairings stay possible but only as a last resort.
	RecentOpponentPenalty = 400
	SameStablePenalty     = 10000
)

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)
