package service

import (
	"context"
	"time"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// BatchResult summarizes one batch run. Wins and Losses are counted from
// the scheduled team1's side.
type BatchResult struct {
	Total          int
	Wins           int
	Draws          int
	Losses         int
	SkippedUnready int
}

// OrchestratorService drains the scheduled match queue: it re-checks
// readiness at execution time, runs each battle strictly in order, and
// settles the outcome before moving on. Sequential execution is what makes
// the dynamic readiness check meaningful, since a team damaged by an
// earlier match in the batch must not fight again.
type OrchestratorService struct {
	teamRepo   *repository.TeamRepository
	matchRepo  *repository.MatchRepository
	cycleRepo  *repository.CycleRepository
	battles    *BattleService
	settlement *SettlementService
	logger     zerolog.Logger
}

func NewOrchestratorService(teamRepo *repository.TeamRepository, matchRepo *repository.MatchRepository, cycleRepo *repository.CycleRepository, battles *BattleService, settlement *SettlementService, logger zerolog.Logger) *OrchestratorService {
	return &OrchestratorService{
		teamRepo:   teamRepo,
		matchRepo:  matchRepo,
		cycleRepo:  cycleRepo,
		battles:    battles,
		settlement: settlement,
		logger:     logger,
	}
}

// loadTeams fetches both sides of a match, the real ones in parallel. A bye
// match gets the synthetic opponent in team1's league partition. Either
// pointer is nil when the team no longer exists.
func (s *OrchestratorService) loadTeams(ctx context.Context, match *domain.Match) (*domain.TeamWithRobots, *domain.TeamWithRobots, error) {
	var team1, team2 *domain.TeamWithRobots

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		team1, err = s.teamRepo.GetByID(gctx, match.Team1ID)
		return err
	})
	if !match.IsBye() {
		g.Go(func() error {
			var err error
			team2, err = s.teamRepo.GetByID(gctx, *match.Team2ID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if match.IsBye() && team1 != nil {
		team2 = domain.NewByeTeam(team1.League, team1.LeagueInstanceID)
	}
	return team1, team2, nil
}

// ExecuteScheduledBattles runs every scheduled match due at or before the
// given time (all scheduled matches when before is nil). Each match is
// executed and settled sequentially; a match that fails readiness, lost a
// team, or errors is cancelled and the batch continues. The batch advances
// the processing cycle, which keys its audit entries.
func (s *OrchestratorService) ExecuteScheduledBattles(ctx context.Context, before *time.Time) (BatchResult, error) {
	var result BatchResult

	cycle, err := s.cycleRepo.Increment(ctx)
	if err != nil {
		return result, err
	}

	matches, err := s.matchRepo.DueScheduled(ctx, before)
	if err != nil {
		return result, err
	}

	s.logger.Info().
		Int64("cycle", cycle).
		Int("matches", len(matches)).
		Msg("executing scheduled battles")

	for i := range matches {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		match := &matches[i]

		team1, team2, err := s.loadTeams(ctx, match)
		if err != nil {
			s.logger.Error().Err(err).Int64("match_id", match.ID).Msg("failed to load teams")
			s.cancelMatch(ctx, match.ID)
			continue
		}
		if team1 == nil || team2 == nil {
			s.logger.Warn().Int64("match_id", match.ID).Msg("match references a disbanded team")
			s.cancelMatch(ctx, match.ID)
			continue
		}

		// Readiness is rechecked here because earlier matches in this
		// batch may have damaged the robots. The bye side is always ready.
		unready := !CheckTeamReadiness(team1).Ready ||
			(!team2.IsBye() && !CheckTeamReadiness(team2).Ready)
		if unready {
			s.logger.Info().
				Int64("match_id", match.ID).
				Int64("team1_id", team1.ID).
				Int64("team2_id", team2.ID).
				Msg("skipping match, team no longer battle ready")
			s.cancelMatch(ctx, match.ID)
			result.SkippedUnready++
			continue
		}

		battleResult, err := s.battles.RunBattle(team1, team2)
		if err != nil {
			s.logger.Error().Err(err).Int64("match_id", match.ID).Msg("battle failed")
			s.cancelMatch(ctx, match.ID)
			continue
		}

		if _, err := s.settlement.SettleMatch(ctx, match, team1, team2, &battleResult, cycle); err != nil {
			s.logger.Error().Err(err).Int64("match_id", match.ID).Msg("settlement failed")
			s.cancelMatch(ctx, match.ID)
			continue
		}

		result.Total++
		switch {
		case battleResult.IsDraw:
			result.Draws++
		case battleResult.WinnerTeamID != nil && *battleResult.WinnerTeamID == team1.ID:
			result.Wins++
		default:
			result.Losses++
		}
	}

	s.logger.Info().
		Int64("cycle", cycle).
		Int("total", result.Total).
		Int("wins", result.Wins).
		Int("draws", result.Draws).
		Int("losses", result.Losses).
		Int("skipped_unready", result.SkippedUnready).
		Msg("battle execution complete")

	return result, nil
}

func (s *OrchestratorService) cancelMatch(ctx context.Context, matchID int64) {
	if err := s.matchRepo.MarkCancelled(ctx, matchID); err != nil {
		s.logger.Error().Err(err).Int64("match_id", matchID).Msg("failed to mark match cancelled")
	}
}
