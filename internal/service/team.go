package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/repository"

	"github.com/rs/zerolog"
)

// ValidationResult collects every team-formation rule violation; a failed
// validation is never partially applied.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

type TeamCreationResult struct {
	Success bool
	Team    *domain.TeamWithRobots
	Errors  []string
}

// TeamService is the team registry: it validates and persists two-robot
// team compositions and frees robots on disband.
type TeamService struct {
	robotRepo *repository.RobotRepository
	teamRepo  *repository.TeamRepository
	logger    zerolog.Logger
}

func NewTeamService(robotRepo *repository.RobotRepository, teamRepo *repository.TeamRepository, logger zerolog.Logger) *TeamService {
	return &TeamService{robotRepo: robotRepo, teamRepo: teamRepo, logger: logger}
}

// Validate checks whether two robots can form a team. All failures are
// collected: missing robots, split ownership, unready members, members
// already on a team, a duplicate pair, and the roster-derived team cap.
func (s *TeamService) Validate(ctx context.Context, activeRobotID, reserveRobotID int64) (ValidationResult, error) {
	var errs []string

	active, err := s.robotRepo.GetByID(ctx, activeRobotID)
	if err != nil {
		return ValidationResult{}, err
	}
	reserve, err := s.robotRepo.GetByID(ctx, reserveRobotID)
	if err != nil {
		return ValidationResult{}, err
	}

	if active == nil {
		errs = append(errs, "Active robot not found")
	}
	if reserve == nil {
		errs = append(errs, "Reserve robot not found")
	}
	if len(errs) > 0 {
		return ValidationResult{Valid: false, Errors: errs}, nil
	}

	if activeRobotID == reserveRobotID {
		errs = append(errs, "A team needs two distinct robots")
	}

	if active.StableID != reserve.StableID {
		errs = append(errs, "Robots must be from the same stable")
	}

	if st := CheckBattleReadiness(active); !st.Ready {
		errs = append(errs, fmt.Sprintf("Active robot not ready: %s", strings.Join(st.Reasons, ", ")))
	}
	if st := CheckBattleReadiness(reserve); !st.Ready {
		errs = append(errs, fmt.Sprintf("Reserve robot not ready: %s", strings.Join(st.Reasons, ", ")))
	}

	for _, robot := range []*domain.Robot{active, reserve} {
		team, err := s.teamRepo.TeamContainingRobot(ctx, robot.ID)
		if err != nil {
			return ValidationResult{}, err
		}
		if team != nil {
			errs = append(errs, fmt.Sprintf("%s is already in another tag team", robot.Name))
		}
	}

	existing, err := s.teamRepo.FindByPair(ctx, activeRobotID, reserveRobotID)
	if err != nil {
		return ValidationResult{}, err
	}
	if existing != nil {
		errs = append(errs, "A team with these robots already exists")
	}

	totalRobots, err := s.robotRepo.CountByStable(ctx, active.StableID)
	if err != nil {
		return ValidationResult{}, err
	}
	existingTeams, err := s.teamRepo.CountByStable(ctx, active.StableID)
	if err != nil {
		return ValidationResult{}, err
	}

	maxTeams := totalRobots / 2
	if existingTeams >= maxTeams {
		errs = append(errs, fmt.Sprintf("Maximum number of teams reached (%d teams for %d robots)",
			maxTeams, totalRobots))
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}, nil
}

// CreateTeam re-validates, verifies the stable owns the active robot, and
// persists a new team at the lowest tier with zeroed counters.
func (s *TeamService) CreateTeam(ctx context.Context, stableID, activeRobotID, reserveRobotID int64) (TeamCreationResult, error) {
	validation, err := s.Validate(ctx, activeRobotID, reserveRobotID)
	if err != nil {
		return TeamCreationResult{}, err
	}
	if !validation.Valid {
		return TeamCreationResult{Success: false, Errors: validation.Errors}, nil
	}

	active, err := s.robotRepo.GetByID(ctx, activeRobotID)
	if err != nil {
		return TeamCreationResult{}, err
	}
	if active == nil || active.StableID != stableID {
		return TeamCreationResult{Success: false, Errors: []string{"You do not own these robots"}}, nil
	}

	team := &domain.TagTeam{
		StableID:         stableID,
		ActiveRobotID:    activeRobotID,
		ReserveRobotID:   reserveRobotID,
		League:           domain.LeagueBronze,
		LeagueInstanceID: domain.LeagueBronze + "_1",
	}

	id, err := s.teamRepo.Create(ctx, team)
	if err != nil {
		s.logger.Error().Err(err).Int64("stable_id", stableID).Msg("failed to create team")
		return TeamCreationResult{Success: false, Errors: []string{"Failed to create team"}}, nil
	}

	created, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return TeamCreationResult{}, err
	}

	s.logger.Info().
		Int64("team_id", id).
		Int64("stable_id", stableID).
		Str("league_instance", team.LeagueInstanceID).
		Msg("team created")

	return TeamCreationResult{Success: true, Team: created}, nil
}

// DisbandTeam deletes the team and frees both robots. Returns false when
// the team does not exist or belongs to a different stable.
func (s *TeamService) DisbandTeam(ctx context.Context, teamID, stableID int64) (bool, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return false, err
	}
	if team == nil {
		s.logger.Warn().Int64("team_id", teamID).Msg("disband of unknown team")
		return false, nil
	}
	if team.StableID != stableID {
		s.logger.Warn().
			Int64("team_id", teamID).
			Int64("stable_id", stableID).
			Msg("disband denied, stable does not own team")
		return false, nil
	}

	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		s.logger.Error().Err(err).Int64("team_id", teamID).Msg("failed to disband team")
		return false, err
	}

	s.logger.Info().Int64("team_id", teamID).Msg("team disbanded")
	return true, nil
}

func (s *TeamService) GetTeamByID(ctx context.Context, teamID int64) (*domain.TeamWithRobots, error) {
	return s.teamRepo.GetByID(ctx, teamID)
}

func (s *TeamService) GetTeamsByStable(ctx context.Context, stableID int64) ([]domain.TeamWithRobots, error) {
	return s.teamRepo.ListByStable(ctx, stableID)
}
