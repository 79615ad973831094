package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/combat"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orchestratorFixture struct {
	db           *sql.DB
	teamRepo     *repository.TeamRepository
	matchRepo    *repository.MatchRepository
	cycleRepo    *repository.CycleRepository
	battleRepo   *repository.BattleRepository
	matchmaking  *MatchmakingService
	orchestrator *OrchestratorService
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	db := newTestDB(t)
	nop := zerolog.Nop()

	teamRepo := repository.NewTeamRepository(db, nop)
	matchRepo := repository.NewMatchRepository(db, nop)
	cycleRepo := repository.NewCycleRepository(db, nop)

	battles := NewBattleService(combat.NewSimulator(), combat.NewAnnouncer(), nop)
	settlement := NewSettlementService(repository.NewSettlementRepository(db, nop), nop)

	return &orchestratorFixture{
		db:           db,
		teamRepo:     teamRepo,
		matchRepo:    matchRepo,
		cycleRepo:    cycleRepo,
		battleRepo:   repository.NewBattleRepository(db, nop),
		matchmaking:  NewMatchmakingService(teamRepo, matchRepo, cycleRepo, nop),
		orchestrator: NewOrchestratorService(teamRepo, matchRepo, cycleRepo, battles, settlement, nop),
	}
}

func TestExecuteScheduledBattlesFullMatch(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	stable1 := seedStable(t, f.db, "Alpha Works")
	stable2 := seedStable(t, f.db, "Beta Forge")
	team1ID := seedTeam(t, f.db, stable1, "Hammer", "Anvil", 1000)
	team2ID := seedTeam(t, f.db, stable2, "Piston", "Gasket", 1000)

	created, err := f.matchmaking.RunMatchmaking(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, created)

	result, err := f.orchestrator.ExecuteScheduledBattles(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Wins+result.Draws+result.Losses)
	assert.Zero(t, result.SkippedUnready)

	// The deterministic simulator lets the first mover win through both
	// reserves.
	matches, err := f.matchRepo.DueScheduled(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, matches, "no matches left scheduled")

	team1, err := f.teamRepo.GetByID(ctx, team1ID)
	require.NoError(t, err)
	team2, err := f.teamRepo.GetByID(ctx, team2ID)
	require.NoError(t, err)

	// Equal combined ratings: winner takes 16 per robot, loser gives 16.
	assert.Equal(t, 1, result.Wins)
	assert.Equal(t, 1016, team1.ActiveRobot.ELO)
	assert.Equal(t, 1016, team1.ReserveRobot.ELO)
	assert.Equal(t, 984, team2.ActiveRobot.ELO)
	assert.Equal(t, 3, team1.LeaguePoints)
	assert.Equal(t, 0, team2.LeaguePoints)
	assert.Equal(t, 1, team1.TagTeam.Wins)
	assert.Equal(t, 1, team2.TagTeam.Losses)

	var currency1, currency2 int64
	var prestige1, prestige2 int
	require.NoError(t, f.db.QueryRow(`SELECT currency, prestige FROM stables WHERE id = ?`, stable1).Scan(&currency1, &prestige1))
	require.NoError(t, f.db.QueryRow(`SELECT currency, prestige FROM stables WHERE id = ?`, stable2).Scan(&currency2, &prestige2))
	assert.Equal(t, int64(18000), currency1)
	assert.Equal(t, 8, prestige1)
	assert.Equal(t, int64(3000), currency2)
	assert.Zero(t, prestige2)

	// Battle record and log are persisted and linked from the match.
	var battleID string
	require.NoError(t, f.db.QueryRow(`SELECT battle_id FROM tag_team_matches WHERE team1_id = ?`, team1ID).Scan(&battleID))
	battle, err := f.battleRepo.GetByID(ctx, battleID)
	require.NoError(t, err)
	require.NotNil(t, battle)
	assert.True(t, battle.Log.TagTeamBattle)
	assert.NotEmpty(t, battle.Log.Events)
	require.NotNil(t, battle.WinnerTeamID)
	assert.Equal(t, team1ID, *battle.WinnerTeamID)

	cycle, err := f.cycleRepo.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cycle)

	var auditCycle int64
	require.NoError(t, f.db.QueryRow(`SELECT cycle FROM audit_log`).Scan(&auditCycle))
	assert.Equal(t, int64(1), auditCycle)
}

func TestExecuteScheduledBattlesByeMatch(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	stableID := seedStable(t, f.db, "Solo Stable")
	teamID := seedTeam(t, f.db, stableID, "Loner", "Backup", 1000)

	created, err := f.matchmaking.RunMatchmaking(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, created)

	result, err := f.orchestrator.ExecuteScheduledBattles(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Wins, "a real team beats the placeholder opponent")

	team, err := f.teamRepo.GetByID(ctx, teamID)
	require.NoError(t, err)
	assert.Equal(t, 1016, team.ActiveRobot.ELO, "bye settles like a real 2000-rated opponent")
	assert.Equal(t, 3, team.LeaguePoints)

	var currency int64
	require.NoError(t, f.db.QueryRow(`SELECT currency FROM stables WHERE id = ?`, stableID).Scan(&currency))
	assert.Equal(t, int64(18000), currency, "full win rewards for a bye")

	// Only the real team's robots exist; the bye left no records behind.
	var robotCount int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM robots`).Scan(&robotCount))
	assert.Equal(t, 2, robotCount)
}

func TestExecuteScheduledBattlesSkipsUnreadyTeams(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	stable1 := seedStable(t, f.db, "Alpha Works")
	stable2 := seedStable(t, f.db, "Beta Forge")
	seedTeam(t, f.db, stable1, "Hammer", "Anvil", 1000)
	team2ID := seedTeam(t, f.db, stable2, "Piston", "Gasket", 1000)

	_, err := f.matchmaking.RunMatchmaking(ctx, time.Now())
	require.NoError(t, err)

	// Damage a robot after scheduling; the execution-time recheck must
	// catch it.
	team2, err := f.teamRepo.GetByID(ctx, team2ID)
	require.NoError(t, err)
	setRobotHP(t, f.db, team2.ActiveRobot.ID, 100)

	result, err := f.orchestrator.ExecuteScheduledBattles(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, result.Total)
	assert.Equal(t, 1, result.SkippedUnready)

	var status string
	require.NoError(t, f.db.QueryRow(`SELECT status FROM tag_team_matches`).Scan(&status))
	assert.Equal(t, domain.MatchStatusCancelled, status)

	var battles int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM battles`).Scan(&battles))
	assert.Zero(t, battles)
}

func TestExecuteScheduledBattlesHonorsDueTime(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	stable1 := seedStable(t, f.db, "Alpha Works")
	stable2 := seedStable(t, f.db, "Beta Forge")
	seedTeam(t, f.db, stable1, "Hammer", "Anvil", 1000)
	seedTeam(t, f.db, stable2, "Piston", "Gasket", 1000)

	future := time.Now().Add(time.Hour)
	_, err := f.matchmaking.RunMatchmaking(ctx, future)
	require.NoError(t, err)

	now := time.Now()
	result, err := f.orchestrator.ExecuteScheduledBattles(ctx, &now)
	require.NoError(t, err)
	assert.Zero(t, result.Total, "future matches stay scheduled")

	matches, err := f.matchRepo.DueScheduled(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestExecuteScheduledBattlesCancelsOnDisbandedTeam(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	stable1 := seedStable(t, f.db, "Alpha Works")
	stable2 := seedStable(t, f.db, "Beta Forge")
	seedTeam(t, f.db, stable1, "Hammer", "Anvil", 1000)
	team2ID := seedTeam(t, f.db, stable2, "Piston", "Gasket", 1000)

	_, err := f.matchmaking.RunMatchmaking(ctx, time.Now())
	require.NoError(t, err)

	require.NoError(t, f.teamRepo.Delete(ctx, team2ID))

	result, err := f.orchestrator.ExecuteScheduledBattles(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, result.Total)

	var status string
	require.NoError(t, f.db.QueryRow(`SELECT status FROM tag_team_matches`).Scan(&status))
	assert.Equal(t, domain.MatchStatusCancelled, status)
}
