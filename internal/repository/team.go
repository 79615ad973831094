package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"

	"github.com/rs/zerolog"
)

type TeamRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewTeamRepository(sqlDB *sql.DB, logger zerolog.Logger) *TeamRepository {
	return &TeamRepository{db: sqlDB, logger: logger}
}

// teamJoinQuery selects a team plus both member robots in one explicit join.
// Column order must match scanTeamWithRobots.
const teamJoinQuery = `
SELECT t.id, t.stable_id, t.active_robot_id, t.reserve_robot_id,
       t.league, t.league_instance_id, t.league_points, t.wins, t.losses, t.draws,
       t.created_at, t.updated_at,
       a.id, a.stable_id, a.name, a.current_hp, a.max_hp, a.current_shield, a.max_shield,
       a.attack_power, a.yield_threshold, a.main_weapon_id, a.elo, a.league,
       a.total_battles, a.wins, a.losses, a.draws,
       a.damage_dealt_lifetime, a.damage_taken_lifetime, a.fame,
       a.times_tagged_in, a.times_tagged_out, a.created_at, a.updated_at,
       b.id, b.stable_id, b.name, b.current_hp, b.max_hp, b.current_shield, b.max_shield,
       b.attack_power, b.yield_threshold, b.main_weapon_id, b.elo, b.league,
       b.total_battles, b.wins, b.losses, b.draws,
       b.damage_dealt_lifetime, b.damage_taken_lifetime, b.fame,
       b.times_tagged_in, b.times_tagged_out, b.created_at, b.updated_at
FROM tag_teams t
JOIN robots a ON a.id = t.active_robot_id
JOIN robots b ON b.id = t.reserve_robot_id`

func scanTeamWithRobots(row interface{ Scan(...any) error }) (*domain.TeamWithRobots, error) {
	var t domain.TeamWithRobots
	a := &t.ActiveRobot
	b := &t.ReserveRobot
	err := row.Scan(
		&t.ID, &t.StableID, &t.ActiveRobotID, &t.ReserveRobotID,
		&t.League, &t.LeagueInstanceID, &t.LeaguePoints, &t.TagTeam.Wins, &t.TagTeam.Losses, &t.TagTeam.Draws,
		&t.TagTeam.CreatedAt, &t.TagTeam.UpdatedAt,
		&a.ID, &a.StableID, &a.Name, &a.CurrentHP, &a.MaxHP, &a.CurrentShield, &a.MaxShield,
		&a.AttackPower, &a.YieldThreshold, &a.MainWeaponID, &a.ELO, &a.League,
		&a.TotalBattles, &a.Wins, &a.Losses, &a.Draws,
		&a.DamageDealtLifetime, &a.DamageTakenLifetime, &a.Fame,
		&a.TimesTaggedIn, &a.TimesTaggedOut, &a.CreatedAt, &a.UpdatedAt,
		&b.ID, &b.StableID, &b.Name, &b.CurrentHP, &b.MaxHP, &b.CurrentShield, &b.MaxShield,
		&b.AttackPower, &b.YieldThreshold, &b.MainWeaponID, &b.ELO, &b.League,
		&b.TotalBattles, &b.Wins, &b.Losses, &b.Draws,
		&b.DamageDealtLifetime, &b.DamageTakenLifetime, &b.Fame,
		&b.TimesTaggedIn, &b.TimesTaggedOut, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID returns the team with both robots joined, or (nil, nil) when the
// team does not exist.
func (r *TeamRepository) GetByID(ctx context.Context, id int64) (*domain.TeamWithRobots, error) {
	row := r.db.QueryRowContext(ctx, teamJoinQuery+` WHERE t.id = ?`, id)
	team, err := scanTeamWithRobots(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Int64("team_id", id).Msg("failed to load team")
		return nil, err
	}
	return team, nil
}

func (r *TeamRepository) queryTeams(ctx context.Context, query string, args ...any) ([]domain.TeamWithRobots, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []domain.TeamWithRobots
	for rows.Next() {
		team, err := scanTeamWithRobots(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *team)
	}
	return teams, rows.Err()
}

func (r *TeamRepository) ListByStable(ctx context.Context, stableID int64) ([]domain.TeamWithRobots, error) {
	return r.queryTeams(ctx, teamJoinQuery+` WHERE t.stable_id = ? ORDER BY t.created_at DESC`, stableID)
}

func (r *TeamRepository) ListByLeagueInstance(ctx context.Context, league, instanceID string) ([]domain.TeamWithRobots, error) {
	return r.queryTeams(ctx,
		teamJoinQuery+` WHERE t.league = ? AND t.league_instance_id = ? ORDER BY t.id`,
		league, instanceID)
}

// DistinctInstances lists the league partition ids that currently hold at
// least one team in the given tier.
func (r *TeamRepository) DistinctInstances(ctx context.Context, league string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT league_instance_id FROM tag_teams WHERE league = ? ORDER BY league_instance_id`,
		league)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		instances = append(instances, id)
	}
	return instances, rows.Err()
}

func (r *TeamRepository) CountByStable(ctx context.Context, stableID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tag_teams WHERE stable_id = ?`, stableID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// TeamContainingRobot returns the team the robot belongs to in either slot,
// or (nil, nil) when the robot is free.
func (r *TeamRepository) TeamContainingRobot(ctx context.Context, robotID int64) (*domain.TagTeam, error) {
	return r.findOne(ctx, `active_robot_id = ? OR reserve_robot_id = ?`, robotID, robotID)
}

// FindByPair returns an existing team made of exactly these two robots, in
// either slot order, or (nil, nil).
func (r *TeamRepository) FindByPair(ctx context.Context, robotA, robotB int64) (*domain.TagTeam, error) {
	return r.findOne(ctx,
		`(active_robot_id = ? AND reserve_robot_id = ?) OR (active_robot_id = ? AND reserve_robot_id = ?)`,
		robotA, robotB, robotB, robotA)
}

func (r *TeamRepository) findOne(ctx context.Context, where string, args ...any) (*domain.TagTeam, error) {
	var t domain.TagTeam
	err := r.db.QueryRowContext(ctx, `
		SELECT id, stable_id, active_robot_id, reserve_robot_id, league, league_instance_id,
		       league_points, wins, losses, draws, created_at, updated_at
		FROM tag_teams WHERE `+where+` LIMIT 1`, args...).
		Scan(&t.ID, &t.StableID, &t.ActiveRobotID, &t.ReserveRobotID, &t.League,
			&t.LeagueInstanceID, &t.LeaguePoints, &t.Wins, &t.Losses, &t.Draws,
			&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TeamRepository) Create(ctx context.Context, team *domain.TagTeam) (int64, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO tag_teams (stable_id, active_robot_id, reserve_robot_id, league,
			league_instance_id, league_points, wins, losses, draws, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, 0, 0, 0, ?, ?)`,
		team.StableID, team.ActiveRobotID, team.ReserveRobotID,
		team.League, team.LeagueInstanceID, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to create team: %w", err)
	}
	return res.LastInsertId()
}

func (r *TeamRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tag_teams WHERE id = ?`, id)
	return err
}
