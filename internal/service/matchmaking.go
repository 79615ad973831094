package service

import (
	"context"
	"time"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/constants"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/repository"

	"github.com/rs/zerolog"
)

// MatchPair is one pairing produced by the matchmaker. Team2 points at the
// shared in-memory bye team for bye pairings.
type MatchPair struct {
	Team1      domain.TeamWithRobots
	Team2      domain.TeamWithRobots
	IsByeMatch bool
	League     string
}

// MatchmakingService forms scheduled matches from pools of eligible teams,
// one league tier and partition at a time.
type MatchmakingService struct {
	teamRepo  *repository.TeamRepository
	matchRepo *repository.MatchRepository
	cycleRepo *repository.CycleRepository
	logger    zerolog.Logger
}

func NewMatchmakingService(teamRepo *repository.TeamRepository, matchRepo *repository.MatchRepository, cycleRepo *repository.CycleRepository, logger zerolog.Logger) *MatchmakingService {
	return &MatchmakingService{teamRepo: teamRepo, matchRepo: matchRepo, cycleRepo: cycleRepo, logger: logger}
}

// ShouldRunMatchmaking gates tag-team matchmaking to odd processing
// cycles; 1v1 formats own the even ones.
func (s *MatchmakingService) ShouldRunMatchmaking(ctx context.Context) (bool, error) {
	cycle, err := s.cycleRepo.Current(ctx)
	if err != nil {
		return false, err
	}
	return cycle%2 == 1, nil
}

// EligibleTeams returns the teams in one tier+partition pool that pass the
// readiness gate and are not referenced by any scheduled match.
func (s *MatchmakingService) EligibleTeams(ctx context.Context, league, instanceID string) ([]domain.TeamWithRobots, error) {
	teams, err := s.teamRepo.ListByLeagueInstance(ctx, league, instanceID)
	if err != nil {
		return nil, err
	}

	scheduled, err := s.matchRepo.ScheduledTeamIDs(ctx)
	if err != nil {
		return nil, err
	}

	var eligible []domain.TeamWithRobots
	for _, team := range teams {
		if scheduled[team.ID] {
			continue
		}
		if CheckTeamReadiness(&team).Ready {
			eligible = append(eligible, team)
		}
	}

	s.logger.Debug().
		Str("league", league).
		Str("instance", instanceID).
		Int("total", len(teams)).
		Int("eligible", len(eligible)).
		Msg("eligible teams for matchmaking")

	return eligible, nil
}

// matchScore rates a candidate pairing; lower is better. The rating gap
// dominates, recent rematches cost 400 per direction, and a same-stable
// pairing costs 10000 so it stays a last resort without being forbidden.
func matchScore(team1, team2 *domain.TeamWithRobots, recent1, recent2 []int64) int {
	score := team1.CombinedELO() - team2.CombinedELO()
	if score < 0 {
		score = -score
	}

	for _, id := range recent1 {
		if id == team2.ID {
			score += constants.RecentOpponentPenalty
			break
		}
	}
	for _, id := range recent2 {
		if id == team1.ID {
			score += constants.RecentOpponentPenalty
			break
		}
	}

	if team1.StableID == team2.StableID {
		score += constants.SameStablePenalty
	}

	return score
}

// PairTeams greedily pairs a pool: the first remaining team takes its
// minimum-score opponent until fewer than two teams remain. A leftover team
// is paired against the synthetic bye team.
func PairTeams(teams []domain.TeamWithRobots, recentOpponents map[int64][]int64) []MatchPair {
	if len(teams) == 0 {
		return nil
	}

	var pairs []MatchPair
	pool := make([]domain.TeamWithRobots, len(teams))
	copy(pool, teams)

	for len(pool) > 1 {
		taker := pool[0]
		pool = pool[1:]

		best := 0
		bestScore := matchScore(&taker, &pool[0], recentOpponents[taker.ID], recentOpponents[pool[0].ID])
		for i := 1; i < len(pool); i++ {
			score := matchScore(&taker, &pool[i], recentOpponents[taker.ID], recentOpponents[pool[i].ID])
			if score < bestScore {
				best = i
				bestScore = score
			}
		}

		opponent := pool[best]
		pool = append(pool[:best], pool[best+1:]...)
		pairs = append(pairs, MatchPair{
			Team1:  taker,
			Team2:  opponent,
			League: taker.League,
		})
	}

	if len(pool) == 1 {
		last := pool[0]
		bye := domain.NewByeTeam(last.League, last.LeagueInstanceID)
		pairs = append(pairs, MatchPair{
			Team1:      last,
			Team2:      *bye,
			IsByeMatch: true,
			League:     last.League,
		})
	}

	return pairs
}

// ScheduleMatches persists one scheduled match per pair; bye matches store
// a null team2.
func (s *MatchmakingService) ScheduleMatches(ctx context.Context, pairs []MatchPair, scheduledFor time.Time) error {
	matches := make([]domain.Match, 0, len(pairs))
	for _, pair := range pairs {
		match := domain.Match{
			Team1ID:      pair.Team1.ID,
			League:       pair.League,
			ScheduledFor: scheduledFor,
		}
		if !pair.IsByeMatch {
			team2ID := pair.Team2.ID
			match.Team2ID = &team2ID
		}
		matches = append(matches, match)
	}

	if err := s.matchRepo.CreateScheduled(ctx, matches); err != nil {
		return err
	}

	s.logger.Info().Int("count", len(matches)).Time("scheduled_for", scheduledFor).Msg("matches scheduled")
	return nil
}

// RunMatchmaking walks every tier and partition, pairs the eligible teams,
// and persists the schedule. A failure in one tier is logged and does not
// stop the others. Returns the total number of matches created.
func (s *MatchmakingService) RunMatchmaking(ctx context.Context, scheduledFor time.Time) (int, error) {
	total := 0

	for _, tier := range domain.LeagueTiers {
		instances, err := s.teamRepo.DistinctInstances(ctx, tier)
		if err != nil {
			s.logger.Error().Err(err).Str("league", tier).Msg("failed to list league instances")
			continue
		}

		for _, instanceID := range instances {
			eligible, err := s.EligibleTeams(ctx, tier, instanceID)
			if err != nil {
				s.logger.Error().Err(err).Str("instance", instanceID).Msg("failed to load eligible teams")
				continue
			}
			if len(eligible) == 0 {
				continue
			}

			recent := make(map[int64][]int64, len(eligible))
			failed := false
			for _, team := range eligible {
				opponents, err := s.matchRepo.RecentOpponents(ctx, team.ID, constants.RecentOpponentLimit)
				if err != nil {
					s.logger.Error().Err(err).Int64("team_id", team.ID).Msg("failed to load recent opponents")
					failed = true
					break
				}
				recent[team.ID] = opponents
			}
			if failed {
				continue
			}

			pairs := PairTeams(eligible, recent)
			if len(pairs) == 0 {
				continue
			}

			if err := s.ScheduleMatches(ctx, pairs, scheduledFor); err != nil {
				s.logger.Error().Err(err).Str("instance", instanceID).Msg("failed to schedule matches")
				continue
			}

			total += len(pairs)
			s.logger.Info().
				Str("instance", instanceID).
				Int("matches", len(pairs)).
				Msg("matchmaking complete for instance")
		}
	}

	return total, nil
}
