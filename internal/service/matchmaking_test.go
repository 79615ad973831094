package service

import (
	"context"
	"testing"
	"time"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTeam(id, stableID int64, elo1, elo2 int) domain.TeamWithRobots {
	weaponID := int64(1)
	robot := func(robotID int64, elo int) domain.Robot {
		return domain.Robot{
			ID:             robotID,
			StableID:       stableID,
			CurrentHP:      100,
			MaxHP:          100,
			YieldThreshold: 10,
			MainWeaponID:   &weaponID,
			ELO:            elo,
			League:         domain.LeagueBronze,
		}
	}
	return domain.TeamWithRobots{
		TagTeam: domain.TagTeam{
			ID:               id,
			StableID:         stableID,
			League:           domain.LeagueBronze,
			LeagueInstanceID: "bronze_1",
		},
		ActiveRobot:  robot(id*10, elo1),
		ReserveRobot: robot(id*10+1, elo2),
	}
}

func TestPairTeamsPicksClosestRating(t *testing.T) {
	teams := []domain.TeamWithRobots{
		makeTeam(1, 1, 1000, 1000), // combined 2000
		makeTeam(2, 2, 1200, 1200), // combined 2400
		makeTeam(3, 3, 1025, 1025), // combined 2050
		makeTeam(4, 4, 1225, 1225), // combined 2450
	}

	pairs := PairTeams(teams, nil)
	require.Len(t, pairs, 2)

	assert.Equal(t, int64(1), pairs[0].Team1.ID)
	assert.Equal(t, int64(3), pairs[0].Team2.ID)
	assert.Equal(t, int64(2), pairs[1].Team1.ID)
	assert.Equal(t, int64(4), pairs[1].Team2.ID)
	assert.False(t, pairs[0].IsByeMatch)
	assert.False(t, pairs[1].IsByeMatch)
}

func TestPairTeamsAvoidsRecentOpponent(t *testing.T) {
	teams := []domain.TeamWithRobots{
		makeTeam(1, 1, 1000, 1000), // combined 2000
		makeTeam(2, 2, 1005, 1005), // combined 2010, closest but a rematch
		makeTeam(3, 3, 1050, 1050), // combined 2100
	}
	recent := map[int64][]int64{1: {2}}

	pairs := PairTeams(teams, recent)
	require.Len(t, pairs, 2)

	assert.Equal(t, int64(1), pairs[0].Team1.ID)
	assert.Equal(t, int64(3), pairs[0].Team2.ID)
	assert.Equal(t, int64(2), pairs[1].Team1.ID)
	assert.True(t, pairs[1].IsByeMatch)
}

func TestPairTeamsAvoidsSameStable(t *testing.T) {
	teams := []domain.TeamWithRobots{
		makeTeam(1, 7, 1000, 1000),
		makeTeam(2, 7, 1005, 1005), // same stable as team 1
		makeTeam(3, 8, 1250, 1250), // far away in rating
	}

	pairs := PairTeams(teams, nil)
	require.Len(t, pairs, 2)

	assert.Equal(t, int64(1), pairs[0].Team1.ID)
	assert.Equal(t, int64(3), pairs[0].Team2.ID)
}

func TestPairTeamsPrefersSameStableOverNothing(t *testing.T) {
	teams := []domain.TeamWithRobots{
		makeTeam(1, 7, 1000, 1000),
		makeTeam(2, 7, 1005, 1005),
	}

	pairs := PairTeams(teams, nil)
	require.Len(t, pairs, 1)
	assert.Equal(t, int64(2), pairs[0].Team2.ID)
	assert.False(t, pairs[0].IsByeMatch)
}

func TestPairTeamsOddPoolGetsBye(t *testing.T) {
	teams := []domain.TeamWithRobots{
		makeTeam(1, 1, 1000, 1000),
		makeTeam(2, 2, 1010, 1010),
		makeTeam(3, 3, 1500, 1500),
	}

	pairs := PairTeams(teams, nil)
	require.Len(t, pairs, 2)

	bye := pairs[1]
	assert.True(t, bye.IsByeMatch)
	assert.Equal(t, int64(3), bye.Team1.ID)
	assert.True(t, bye.Team2.IsBye())
	assert.Equal(t, 2*domain.ByeRobotELO, bye.Team2.CombinedELO())
	assert.Equal(t, domain.LeagueBronze, bye.Team2.League)
	assert.Equal(t, "bronze_1", bye.Team2.LeagueInstanceID)
}

func TestPairTeamsEmptyPool(t *testing.T) {
	assert.Nil(t, PairTeams(nil, nil))
}

func TestRunMatchmakingSchedulesAndExcludes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	nop := zerolog.Nop()

	teamRepo := repository.NewTeamRepository(db, nop)
	matchRepo := repository.NewMatchRepository(db, nop)
	cycleRepo := repository.NewCycleRepository(db, nop)
	svc := NewMatchmakingService(teamRepo, matchRepo, cycleRepo, nop)

	for i := 1; i <= 3; i++ {
		stableID := seedStable(t, db, "Stable")
		seedTeam(t, db, stableID, "Active", "Reserve", 1000+i*10)
	}

	created, err := svc.RunMatchmaking(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	scheduled, err := matchRepo.ScheduledTeamIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, scheduled, 3)

	// Everyone already has a scheduled match; nothing new to create.
	created, err = svc.RunMatchmaking(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestShouldRunMatchmakingOnOddCyclesOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	nop := zerolog.Nop()

	cycleRepo := repository.NewCycleRepository(db, nop)
	svc := NewMatchmakingService(
		repository.NewTeamRepository(db, nop),
		repository.NewMatchRepository(db, nop),
		cycleRepo, nop)

	run, err := svc.ShouldRunMatchmaking(ctx)
	require.NoError(t, err)
	assert.False(t, run, "cycle 0 belongs to 1v1 formats")

	_, err = cycleRepo.Increment(ctx)
	require.NoError(t, err)

	run, err = svc.ShouldRunMatchmaking(ctx)
	require.NoError(t, err)
	assert.True(t, run)
}
