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

type MatchRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{db: sqlDB, logger: logger}
}

const matchColumns = `id, team1_id, team2_id, league, scheduled_for, status, battle_id, created_at, updated_at`

func scanMatch(row interface{ Scan(...any) error }) (*domain.Match, error) {
	var m domain.Match
	err := row.Scan(&m.ID, &m.Team1ID, &m.Team2ID, &m.League, &m.ScheduledFor,
		&m.Status, &m.BattleID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByID returns the match, or (nil, nil) when it does not exist.
func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*domain.Match, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM tag_team_matches WHERE id = ?`, id)
	match, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return match, nil
}

// CreateScheduled persists one scheduled match per pair in a single
// transaction. Bye matches carry a NULL team2_id.
func (r *MatchRepository) CreateScheduled(ctx context.Context, matches []domain.Match) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, m := range matches {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tag_team_matches (team1_id, team2_id, league, scheduled_for, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			m.Team1ID, m.Team2ID, m.League, m.ScheduledFor, domain.MatchStatusScheduled, now, now)
		if err != nil {
			return fmt.Errorf("failed to schedule match for team %d: %w", m.Team1ID, err)
		}
	}

	return tx.Commit()
}

// ScheduledTeamIDs returns the ids of every team referenced by a match that
// is still in the scheduled state.
func (r *MatchRepository) ScheduledTeamIDs(ctx context.Context) (map[int64]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT team1_id, team2_id FROM tag_team_matches WHERE status = ?`,
		domain.MatchStatusScheduled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scheduled := make(map[int64]bool)
	for rows.Next() {
		var team1 int64
		var team2 *int64
		if err := rows.Scan(&team1, &team2); err != nil {
			return nil, err
		}
		scheduled[team1] = true
		if team2 != nil {
			scheduled[*team2] = true
		}
	}
	return scheduled, rows.Err()
}

// RecentOpponents returns the opposing team ids from the team's most recent
// completed matches, newest first. Bye opponents are skipped.
func (r *MatchRepository) RecentOpponents(ctx context.Context, teamID int64, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT team1_id, team2_id FROM tag_team_matches
		WHERE status = ? AND (team1_id = ? OR team2_id = ?)
		ORDER BY created_at DESC LIMIT ?`,
		domain.MatchStatusCompleted, teamID, teamID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opponents []int64
	for rows.Next() {
		var team1 int64
		var team2 *int64
		if err := rows.Scan(&team1, &team2); err != nil {
			return nil, err
		}
		if team1 == teamID {
			if team2 != nil {
				opponents = append(opponents, *team2)
			}
		} else {
			opponents = append(opponents, team1)
		}
	}
	return opponents, rows.Err()
}

// DueScheduled lists scheduled matches, oldest first. When before is
// non-nil only matches scheduled at or before it are returned.
func (r *MatchRepository) DueScheduled(ctx context.Context, before *time.Time) ([]domain.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM tag_team_matches WHERE status = ?`
	args := []any{domain.MatchStatusScheduled}
	if before != nil {
		query += ` AND scheduled_for <= ?`
		args = append(args, *before)
	}
	query += ` ORDER BY scheduled_for ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

func (r *MatchRepository) MarkCancelled(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tag_team_matches SET status = ?, updated_at = ? WHERE id = ?`,
		domain.MatchStatusCancelled, time.Now(), id)
	if err != nil {
		r.logger.Error().Err(err).Int64("match_id", id).Msg("failed to cancel match")
	}
	return err
}
