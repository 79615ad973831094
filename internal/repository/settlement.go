package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// SlotUpdate is one combatant slot's settlement: rating movement, applied
// damage, counters, and the fame award.
type SlotUpdate struct {
	RobotID     int64
	ELODelta    int
	FinalHP     int
	DamageTaken int
	DamageDealt int
	Fame        int
	Won         bool
	Lost        bool
	Drew        bool
	TaggedOut   bool
	TaggedIn    bool
}

type TeamUpdate struct {
	TeamID            int64
	LeaguePointsDelta int
	Won               bool
	Lost              bool
	Drew              bool
}

type StableUpdate struct {
	StableID      int64
	CurrencyDelta int64
	PrestigeDelta int
}

// MatchSettlement is everything a completed match writes: the battle
// record, the match transition, the per-slot/team/stable mutations, and an
// audit entry keyed by cycle. A bye side contributes no updates.
type MatchSettlement struct {
	MatchID int64
	Battle  domain.Battle
	Robots  []SlotUpdate
	Teams   []TeamUpdate
	Stables []StableUpdate
	Cycle   int64
	Detail  any
}

type SettlementRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSettlementRepository(sqlDB *sql.DB, logger zerolog.Logger) *SettlementRepository {
	return &SettlementRepository{db: sqlDB, logger: logger}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Apply writes the whole settlement in one transaction so a match is either
// fully settled or not settled at all. Stable balances may go negative;
// team league points are floored at zero.
func (r *SettlementRepository) Apply(ctx context.Context, s *MatchSettlement) error {
	logJSON, err := json.Marshal(s.Battle.Log)
	if err != nil {
		return fmt.Errorf("failed to encode battle log: %w", err)
	}

	detailJSON, err := json.Marshal(s.Detail)
	if err != nil {
		return fmt.Errorf("failed to encode audit detail: %w", err)
	}

	auditID, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate audit id: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO battles (id, match_id, league, winner_team_id, is_draw, duration_seconds,
			team1_tag_out_time, team2_tag_out_time, team1_elo_delta, team2_elo_delta,
			battle_log, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Battle.ID, s.MatchID, s.Battle.League, s.Battle.WinnerTeamID, s.Battle.IsDraw,
		s.Battle.DurationSeconds, s.Battle.Team1TagOutTime, s.Battle.Team2TagOutTime,
		s.Battle.Team1ELODelta, s.Battle.Team2ELODelta, string(logJSON), now)
	if err != nil {
		return fmt.Errorf("failed to insert battle: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE tag_team_matches SET status = ?, battle_id = ?, updated_at = ? WHERE id = ?`,
		domain.MatchStatusCompleted, s.Battle.ID, now, s.MatchID)
	if err != nil {
		return fmt.Errorf("failed to complete match %d: %w", s.MatchID, err)
	}

	for _, slot := range s.Robots {
		_, err = tx.ExecContext(ctx, `
			UPDATE robots SET
				elo = elo + ?,
				current_hp = ?,
				total_battles = total_battles + 1,
				wins = wins + ?,
				losses = losses + ?,
				draws = draws + ?,
				damage_dealt_lifetime = damage_dealt_lifetime + ?,
				damage_taken_lifetime = damage_taken_lifetime + ?,
				fame = fame + ?,
				times_tagged_out = times_tagged_out + ?,
				times_tagged_in = times_tagged_in + ?,
				updated_at = ?
			WHERE id = ?`,
			slot.ELODelta, slot.FinalHP,
			boolToInt(slot.Won), boolToInt(slot.Lost), boolToInt(slot.Drew),
			slot.DamageDealt, slot.DamageTaken, slot.Fame,
			boolToInt(slot.TaggedOut), boolToInt(slot.TaggedIn),
			now, slot.RobotID)
		if err != nil {
			return fmt.Errorf("failed to update robot %d: %w", slot.RobotID, err)
		}
	}

	for _, team := range s.Teams {
		_, err = tx.ExecContext(ctx, `
			UPDATE tag_teams SET
				league_points = MAX(0, league_points + ?),
				wins = wins + ?,
				losses = losses + ?,
				draws = draws + ?,
				updated_at = ?
			WHERE id = ?`,
			team.LeaguePointsDelta,
			boolToInt(team.Won), boolToInt(team.Lost), boolToInt(team.Drew),
			now, team.TeamID)
		if err != nil {
			return fmt.Errorf("failed to update team %d: %w", team.TeamID, err)
		}
	}

	for _, stable := range s.Stables {
		_, err = tx.ExecContext(ctx, `
			UPDATE stables SET
				currency = currency + ?,
				prestige = prestige + ?,
				updated_at = ?
			WHERE id = ?`,
			stable.CurrencyDelta, stable.PrestigeDelta, now, stable.StableID)
		if err != nil {
			return fmt.Errorf("failed to update stable %d: %w", stable.StableID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_log (id, cycle, match_id, battle_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		auditID, s.Cycle, s.MatchID, s.Battle.ID, string(detailJSON), now)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement for match %d: %w", s.MatchID, err)
	}

	r.logger.Debug().
		Int64("match_id", s.MatchID).
		Str("battle_id", s.Battle.ID).
		Int("team1_elo_delta", s.Battle.Team1ELODelta).
		Int("team2_elo_delta", s.Battle.Team2ELODelta).
		Msg("settlement applied")
	return nil
}
