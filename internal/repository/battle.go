package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"

	"github.com/rs/zerolog"
)

type BattleRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewBattleRepository(sqlDB *sql.DB, logger zerolog.Logger) *BattleRepository {
	return &BattleRepository{db: sqlDB, logger: logger}
}

// GetByID returns the battle with its log decoded, or (nil, nil) when no
// such battle exists.
func (r *BattleRepository) GetByID(ctx context.Context, id string) (*domain.Battle, error) {
	var b domain.Battle
	var logJSON string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, match_id, league, winner_team_id, is_draw, duration_seconds,
		       team1_tag_out_time, team2_tag_out_time, team1_elo_delta, team2_elo_delta,
		       battle_log, created_at
		FROM battles WHERE id = ?`, id).
		Scan(&b.ID, &b.MatchID, &b.League, &b.WinnerTeamID, &b.IsDraw, &b.DurationSeconds,
			&b.Team1TagOutTime, &b.Team2TagOutTime, &b.Team1ELODelta, &b.Team2ELODelta,
			&logJSON, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("battle_id", id).Msg("failed to load battle")
		return nil, err
	}

	if err := json.Unmarshal([]byte(logJSON), &b.Log); err != nil {
		return nil, fmt.Errorf("failed to decode battle log %s: %w", id, err)
	}
	return &b, nil
}
