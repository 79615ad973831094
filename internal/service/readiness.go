package service

import (
	"fmt"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/constants"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"
)

// ReadinessStatus is the outcome of the battle-readiness gate for one
// robot. Reasons are collected, not short-circuited.
type ReadinessStatus struct {
	Ready   bool
	Reasons []string
}

// TeamReadiness reports readiness of both members of a team.
type TeamReadiness struct {
	Ready         bool
	ActiveStatus  ReadinessStatus
	ReserveStatus ReadinessStatus
}

// CheckBattleReadiness decides whether a robot may enter a battle: HP at
// least 75% of max, HP strictly above the yield-threshold floor, and a main
// weapon equipped. Pure; the caller re-evaluates at execution time because
// earlier matches in the same cycle may have reduced HP.
func CheckBattleReadiness(robot *domain.Robot) ReadinessStatus {
	if robot.MaxHP <= 0 {
		return ReadinessStatus{Reasons: []string{fmt.Sprintf("Invalid max HP (%d)", robot.MaxHP)}}
	}

	var reasons []string

	hpPercent := robot.CurrentHP * 100 / robot.MaxHP
	if hpPercent < constants.BattleReadinessHPPercent {
		reasons = append(reasons, fmt.Sprintf("HP too low (%d%%, need %d%%)",
			hpPercent, constants.BattleReadinessHPPercent))
	}

	if robot.CurrentHP <= robot.YieldThresholdHP() {
		reasons = append(reasons, fmt.Sprintf("HP at or below yield threshold (%d <= %d)",
			robot.CurrentHP, robot.YieldThresholdHP()))
	}

	if robot.MainWeaponID == nil {
		reasons = append(reasons, "No main weapon equipped")
	}

	return ReadinessStatus{Ready: len(reasons) == 0, Reasons: reasons}
}

// CheckTeamReadiness gates a team on both members being ready.
func CheckTeamReadiness(team *domain.TeamWithRobots) TeamReadiness {
	active := CheckBattleReadiness(&team.ActiveRobot)
	reserve := CheckBattleReadiness(&team.ReserveRobot)
	return TeamReadiness{
		Ready:         active.Ready && reserve.Ready,
		ActiveStatus:  active,
		ReserveStatus: reserve,
	}
}
