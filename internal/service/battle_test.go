package service

import (
	"fmt"
	"testing"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/combat"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedResolver replays a fixed sequence of bout results.
type scriptedResolver struct {
	bouts []combat.BoutResult
	calls int
}

func (r *scriptedResolver) SimulateBout(a, b *domain.Robot) (combat.BoutResult, error) {
	if r.calls >= len(r.bouts) {
		return combat.BoutResult{}, fmt.Errorf("unexpected bout %d between %s and %s", r.calls, a.Name, b.Name)
	}
	result := r.bouts[r.calls]
	r.calls++
	return result, nil
}

type plainMessages struct{}

func (plainMessages) TagOutMessage(robotName, teamLabel, reason string, finalHP int) string {
	return robotName + " tags out"
}

func (plainMessages) TagInMessage(robotName, teamLabel string, hp int) string {
	return robotName + " tags in"
}

func newScriptedBattleService(bouts ...combat.BoutResult) *BattleService {
	return NewBattleService(&scriptedResolver{bouts: bouts}, plainMessages{}, zerolog.Nop())
}

// battleTeam builds a team whose robots all have 100 max HP and a 20%
// yield threshold, so the tag-out floor sits at 20 HP.
func battleTeam(id int64) *domain.TeamWithRobots {
	team := makeTeam(id, id, 1000, 1000)
	team.ActiveRobot.YieldThreshold = 20
	team.ReserveRobot.YieldThreshold = 20
	team.ActiveRobot.Name = fmt.Sprintf("Active %d", id)
	team.ReserveRobot.Name = fmt.Sprintf("Reserve %d", id)
	return &team
}

func countEvents(events []domain.BattleEvent, eventType string) int {
	n := 0
	for _, e := range events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func attackAt(ts float64) domain.BattleEvent {
	return domain.BattleEvent{Timestamp: ts, Type: "attack", Message: "hit"}
}

func TestRunBattleStaggeredThreePhases(t *testing.T) {
	svc := newScriptedBattleService(
		// Phase 1: team1 active destroyed.
		combat.BoutResult{DurationSeconds: 60, AFinalHP: 0, BFinalHP: 80,
			ADamageDealt: 40, BDamageDealt: 120, Events: []domain.BattleEvent{attackAt(10)}},
		// Phase 2: team1 reserve drives team2 active to a yield (15 <= 20).
		combat.BoutResult{DurationSeconds: 60, AFinalHP: 90, BFinalHP: 15,
			ADamageDealt: 65, BDamageDealt: 10, Events: []domain.BattleEvent{attackAt(10)}},
		// Phase 3: reserves; team2 reserve destroyed.
		combat.BoutResult{DurationSeconds: 60, AFinalHP: 50, BFinalHP: 0,
			ADamageDealt: 100, BDamageDealt: 40, Events: []domain.BattleEvent{attackAt(10)}},
	)

	team1 := battleTeam(1)
	team2 := battleTeam(2)
	result, err := svc.RunBattle(team1, team2)
	require.NoError(t, err)

	require.NotNil(t, result.WinnerTeamID)
	assert.Equal(t, team1.ID, *result.WinnerTeamID)
	assert.False(t, result.IsDraw)
	assert.Equal(t, 180.0, result.DurationSeconds)

	require.NotNil(t, result.Team1TagOutTime)
	require.NotNil(t, result.Team2TagOutTime)
	assert.Equal(t, 60.0, *result.Team1TagOutTime)
	assert.Equal(t, 120.0, *result.Team2TagOutTime)
	assert.True(t, result.Team1UsedReserve)
	assert.True(t, result.Team2UsedReserve)

	// Slot accumulators span phases.
	assert.Equal(t, domain.SlotStats{FinalHP: 0, DamageDealt: 40, SurvivalTime: 60}, result.Team1Active)
	assert.Equal(t, domain.SlotStats{FinalHP: 50, DamageDealt: 165, SurvivalTime: 120}, result.Team1Reserve)
	assert.Equal(t, domain.SlotStats{FinalHP: 15, DamageDealt: 130, SurvivalTime: 120}, result.Team2Active)
	assert.Equal(t, domain.SlotStats{FinalHP: 0, DamageDealt: 40, SurvivalTime: 60}, result.Team2Reserve)

	// Bout events are offset onto the match clock.
	var attackTimes []float64
	for _, e := range result.Events {
		if e.Type == "attack" {
			attackTimes = append(attackTimes, e.Timestamp)
		}
	}
	assert.Equal(t, []float64{10, 70, 130}, attackTimes)

	assert.Equal(t, 2, countEvents(result.Events, "tag_out"))
	assert.Equal(t, 2, countEvents(result.Events, "tag_in"))

	for _, e := range result.Events {
		assert.GreaterOrEqual(t, e.Timestamp, 0.0)
		assert.NotEmpty(t, e.Message)
		if e.Type == "tag_out" {
			assert.Contains(t, []string{domain.TagOutReasonYield, domain.TagOutReasonDestruction}, e.Reason)
		}
	}
}

func TestRunBattleTagOutReasons(t *testing.T) {
	svc := newScriptedBattleService(
		// Team1 active at 15 HP: above zero but at most the 20 HP floor.
		combat.BoutResult{DurationSeconds: 50, AFinalHP: 15, BFinalHP: 70},
		combat.BoutResult{DurationSeconds: 50, AFinalHP: 80, BFinalHP: 0},
		combat.BoutResult{DurationSeconds: 30, AFinalHP: 80, BFinalHP: 10},
	)

	result, err := svc.RunBattle(battleTeam(1), battleTeam(2))
	require.NoError(t, err)

	var reasons []string
	for _, e := range result.Events {
		if e.Type == "tag_out" {
			reasons = append(reasons, e.Reason)
		}
	}
	require.Len(t, reasons, 2)
	assert.Equal(t, domain.TagOutReasonYield, reasons[0])
	assert.Equal(t, domain.TagOutReasonDestruction, reasons[1])
}

func TestRunBattleReserveRescuesAfterMutualPhaseTwoDown(t *testing.T) {
	svc := newScriptedBattleService(
		// Phase 1: team1 active destroyed.
		combat.BoutResult{DurationSeconds: 60, AFinalHP: 0, BFinalHP: 80},
		// Phase 2: team1's reserve and team2's active destroy each other.
		combat.BoutResult{DurationSeconds: 60, AFinalHP: 0, BFinalHP: 0},
		// Phase 3: team2's fresh reserve finishes the wreck.
		combat.BoutResult{DurationSeconds: 30, AFinalHP: 0, BFinalHP: 70},
	)

	team1 := battleTeam(1)
	team2 := battleTeam(2)
	result, err := svc.RunBattle(team1, team2)
	require.NoError(t, err)

	// Team2 still tags in its reserve even though team1 has no fighter
	// left standing after phase 2.
	require.NotNil(t, result.WinnerTeamID)
	assert.Equal(t, team2.ID, *result.WinnerTeamID)
	assert.False(t, result.IsDraw)
	assert.True(t, result.Team1UsedReserve)
	assert.True(t, result.Team2UsedReserve)
	require.NotNil(t, result.Team2TagOutTime)
	assert.Equal(t, 120.0, *result.Team2TagOutTime)
	assert.Equal(t, 2, countEvents(result.Events, "tag_out"))
	assert.Equal(t, 2, countEvents(result.Events, "tag_in"))
	assert.Equal(t, 150.0, result.DurationSeconds)
}

func TestRunBattleSimultaneousTagOutThenDraw(t *testing.T) {
	svc := newScriptedBattleService(
		// Both actives down at once: one yields, one is destroyed.
		combat.BoutResult{DurationSeconds: 50, AFinalHP: 10, BFinalHP: 0},
		// Reserves finish level on health.
		combat.BoutResult{DurationSeconds: 100, AFinalHP: 40, BFinalHP: 40},
	)

	result, err := svc.RunBattle(battleTeam(1), battleTeam(2))
	require.NoError(t, err)

	assert.True(t, result.IsDraw)
	assert.Nil(t, result.WinnerTeamID)
	assert.Equal(t, 150.0, result.DurationSeconds)
	require.NotNil(t, result.Team1TagOutTime)
	require.NotNil(t, result.Team2TagOutTime)
	assert.Equal(t, 50.0, *result.Team1TagOutTime)
	assert.Equal(t, 50.0, *result.Team2TagOutTime)
	assert.Equal(t, 2, countEvents(result.Events, "tag_out"))
	assert.Equal(t, 2, countEvents(result.Events, "tag_in"))
}

func TestRunBattleTimeoutIsDraw(t *testing.T) {
	svc := newScriptedBattleService(
		combat.BoutResult{DurationSeconds: 300, AFinalHP: 90, BFinalHP: 45},
	)

	result, err := svc.RunBattle(battleTeam(1), battleTeam(2))
	require.NoError(t, err)

	assert.True(t, result.IsDraw)
	assert.Nil(t, result.WinnerTeamID)
	assert.Equal(t, 300.0, result.DurationSeconds)
	assert.False(t, result.Team1UsedReserve)
	assert.False(t, result.Team2UsedReserve)
	assert.Nil(t, result.Team1TagOutTime)
	assert.Nil(t, result.Team2TagOutTime)
}

func TestRunBattleBudgetSpansPhases(t *testing.T) {
	svc := newScriptedBattleService(
		combat.BoutResult{DurationSeconds: 100, AFinalHP: 15, BFinalHP: 60},
		// Phase 2 would run 250s but only 200s remain in the budget.
		combat.BoutResult{DurationSeconds: 250, AFinalHP: 80, BFinalHP: 70,
			Events: []domain.BattleEvent{attackAt(150), attackAt(220)}},
	)

	result, err := svc.RunBattle(battleTeam(1), battleTeam(2))
	require.NoError(t, err)

	assert.True(t, result.IsDraw)
	assert.Equal(t, 300.0, result.DurationSeconds)

	// Both events survive the clamp; the one past the budget is pinned
	// to match time.
	var attackTimes []float64
	for _, e := range result.Events {
		if e.Type == "attack" {
			attackTimes = append(attackTimes, e.Timestamp)
		}
		assert.LessOrEqual(t, e.Timestamp, 300.0)
	}
	assert.Equal(t, []float64{250, 300}, attackTimes)
}

func TestRunBattleDecidedOnRemainingHealth(t *testing.T) {
	svc := newScriptedBattleService(
		combat.BoutResult{DurationSeconds: 40, AFinalHP: 70, BFinalHP: 10},
		// Team2 reserve survives the bout but ends lower on health.
		combat.BoutResult{DurationSeconds: 80, AFinalHP: 55, BFinalHP: 18},
	)

	team1 := battleTeam(1)
	team2 := battleTeam(2)
	result, err := svc.RunBattle(team1, team2)
	require.NoError(t, err)

	require.NotNil(t, result.WinnerTeamID)
	assert.Equal(t, team1.ID, *result.WinnerTeamID)
	assert.False(t, result.Team1UsedReserve)
	assert.True(t, result.Team2UsedReserve)
	assert.Nil(t, result.Team1TagOutTime)
	require.NotNil(t, result.Team2TagOutTime)
	assert.Equal(t, 40.0, *result.Team2TagOutTime)
}

func TestRunBattleResolverError(t *testing.T) {
	svc := NewBattleService(&scriptedResolver{}, plainMessages{}, zerolog.Nop())
	_, err := svc.RunBattle(battleTeam(1), battleTeam(2))
	assert.Error(t, err)
}
