package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"

	"github.com/rs/zerolog"
)

const robotColumns = `id, stable_id, name, current_hp, max_hp, current_shield, max_shield,
attack_power, yield_threshold, main_weapon_id, elo, league, total_battles, wins, losses, draws,
damage_dealt_lifetime, damage_taken_lifetime, fame, times_tagged_in, times_tagged_out,
created_at, updated_at`

type RobotRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRobotRepository(sqlDB *sql.DB, logger zerolog.Logger) *RobotRepository {
	return &RobotRepository{db: sqlDB, logger: logger}
}

func scanRobot(row interface{ Scan(...any) error }) (*domain.Robot, error) {
	var r domain.Robot
	err := row.Scan(
		&r.ID, &r.StableID, &r.Name, &r.CurrentHP, &r.MaxHP, &r.CurrentShield, &r.MaxShield,
		&r.AttackPower, &r.YieldThreshold, &r.MainWeaponID, &r.ELO, &r.League,
		&r.TotalBattles, &r.Wins, &r.Losses, &r.Draws,
		&r.DamageDealtLifetime, &r.DamageTakenLifetime, &r.Fame,
		&r.TimesTaggedIn, &r.TimesTaggedOut,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetByID returns the robot, or (nil, nil) when no such robot exists.
func (r *RobotRepository) GetByID(ctx context.Context, id int64) (*domain.Robot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+robotColumns+` FROM robots WHERE id = ?`, id)
	robot, err := scanRobot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Int64("robot_id", id).Msg("failed to load robot")
		return nil, err
	}
	return robot, nil
}

func (r *RobotRepository) CountByStable(ctx context.Context, stableID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM robots WHERE stable_id = ?`, stableID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a robot record. Roster management is owned by an external
// system; this exists for seeding and tests.
func (r *RobotRepository) Create(ctx context.Context, robot *domain.Robot) (int64, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO robots (stable_id, name, current_hp, max_hp, current_shield, max_shield,
			attack_power, yield_threshold, main_weapon_id, elo, league, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		robot.StableID, robot.Name, robot.CurrentHP, robot.MaxHP,
		robot.CurrentShield, robot.MaxShield, robot.AttackPower,
		robot.YieldThreshold, robot.MainWeaponID, robot.ELO, robot.League, now, now,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
