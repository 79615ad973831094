package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/constants"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/economy"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/repository"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// ExpectedScore is the logistic expectation for a rating against an
// opponent rating.
func ExpectedScore(rating, opponentRating int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(opponentRating-rating)/400.0))
}

// RatingDelta converts an achieved score (1 win, 0.5 draw, 0 loss) into a
// rounded rating adjustment. Opposing deltas sum to zero within one point
// of rounding slack.
func RatingDelta(rating, opponentRating int, score float64) int {
	return int(math.Round(constants.ELOKFactor * (score - ExpectedScore(rating, opponentRating))))
}

func outcomeScore(won, isDraw bool) float64 {
	switch {
	case won:
		return 1.0
	case isDraw:
		return 0.5
	default:
		return 0.0
	}
}

// MatchReward is the currency paid to a team's stable for one tag-team
// match: base midpoint plus participation for a win, participation alone
// otherwise, doubled because two robots fought.
func MatchReward(league string, won bool) int64 {
	reward := economy.ParticipationReward(league)
	if won {
		reward += economy.BaseRewardMidpoint(league)
	}
	return int64(reward * constants.TagTeamRewardMultiplier)
}

// PrestigeAward is the stable prestige for winning a tag-team match in the
// given league. Losers and draws earn none.
func PrestigeAward(league string) int {
	return int(math.Round(float64(economy.PrestigeBase(league)) * constants.TagTeamPrestigeMultiplier))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// FameAward is one winning robot's fame, keyed by the robot's own league
// tier. A robot that never entered the arena keeps the flat base; a robot
// that fought scales it by damage output and time survived.
func FameAward(league string, damageDealt int, survivalTime, totalDuration float64) int {
	base := float64(economy.FameBase(league))
	if survivalTime <= 0 || totalDuration <= 0 {
		return int(math.Round(base))
	}

	damageFactor := clamp(float64(damageDealt)/100.0, 0.5, 1.5)
	survivalFactor := clamp(survivalTime/totalDuration, 0.5, 1.5)
	return int(math.Round(base * damageFactor * survivalFactor))
}

// settlementDetail is the audit-log payload for one settled match.
type settlementDetail struct {
	MatchID       int64  `json:"matchId"`
	BattleID      string `json:"battleId"`
	League        string `json:"league"`
	WinnerTeamID  *int64 `json:"winnerTeamId"`
	IsDraw        bool   `json:"isDraw"`
	ByeMatch      bool   `json:"byeMatch"`
	Team1ELODelta int    `json:"team1EloDelta"`
	Team2ELODelta int    `json:"team2EloDelta"`
	Team1Reward   int64  `json:"team1Reward"`
	Team2Reward   int64  `json:"team2Reward"`
}

// SettlementService turns battle results into persisted outcomes: rating
// movement, league points, stable currency and prestige, robot fame and
// counters, the battle record, and an audit entry.
type SettlementService struct {
	repo   *repository.SettlementRepository
	logger zerolog.Logger
}

func NewSettlementService(repo *repository.SettlementRepository, logger zerolog.Logger) *SettlementService {
	return &SettlementService{repo: repo, logger: logger}
}

// BuildSettlement computes every mutation a completed match implies. The
// bye side of a bye match contributes rating context only; nothing about
// it is written.
func (s *SettlementService) BuildSettlement(match *domain.Match, team1, team2 *domain.TeamWithRobots, result *domain.TagTeamBattleResult, cycle int64) (*repository.MatchSettlement, error) {
	battleID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate battle id: %w", err)
	}

	team1Won := result.WinnerTeamID != nil && *result.WinnerTeamID == team1.ID
	team2Won := result.WinnerTeamID != nil && *result.WinnerTeamID == team2.ID

	rating1 := team1.CombinedELO()
	rating2 := team2.CombinedELO()
	delta1 := RatingDelta(rating1, rating2, outcomeScore(team1Won, result.IsDraw))
	delta2 := RatingDelta(rating2, rating1, outcomeScore(team2Won, result.IsDraw))

	reward1 := MatchReward(match.League, team1Won)
	reward2 := MatchReward(match.League, team2Won)

	// A synthetic winner is never referenced by the battle record.
	winnerID := result.WinnerTeamID
	if winnerID != nil && *winnerID == domain.ByeTeamID {
		winnerID = nil
	}

	settlement := &repository.MatchSettlement{
		MatchID: match.ID,
		Battle: domain.Battle{
			ID:              battleID,
			MatchID:         match.ID,
			League:          match.League,
			WinnerTeamID:    winnerID,
			IsDraw:          result.IsDraw,
			DurationSeconds: result.DurationSeconds,
			Team1TagOutTime: result.Team1TagOutTime,
			Team2TagOutTime: result.Team2TagOutTime,
			Team1ELODelta:   delta1,
			Team2ELODelta:   delta2,
			Log: domain.BattleLog{
				Events:          result.Events,
				TagTeamBattle:   true,
				Team1TagOutTime: result.Team1TagOutTime,
				Team2TagOutTime: result.Team2TagOutTime,
			},
			CreatedAt: time.Now(),
		},
		Cycle: cycle,
		Detail: settlementDetail{
			MatchID:       match.ID,
			BattleID:      battleID,
			League:        match.League,
			WinnerTeamID:  winnerID,
			IsDraw:        result.IsDraw,
			ByeMatch:      match.IsBye(),
			Team1ELODelta: delta1,
			Team2ELODelta: delta2,
			Team1Reward:   reward1,
			Team2Reward:   reward2,
		},
	}

	appendSide(settlement, team1, delta1, reward1, team1Won, result.IsDraw,
		result.Team1Active, result.Team1Reserve, result.Team1UsedReserve, result.DurationSeconds)
	if !team2.IsBye() {
		appendSide(settlement, team2, delta2, reward2, team2Won, result.IsDraw,
			result.Team2Active, result.Team2Reserve, result.Team2UsedReserve, result.DurationSeconds)
	}

	return settlement, nil
}

// appendSide adds one real team's robot, team, and stable mutations to the
// settlement.
func appendSide(settlement *repository.MatchSettlement, team *domain.TeamWithRobots, eloDelta int, reward int64, won, isDraw bool, activeStats, reserveStats domain.SlotStats, usedReserve bool, totalDuration float64) {
	slots := []struct {
		robot     *domain.Robot
		stats     domain.SlotStats
		taggedOut bool
		taggedIn  bool
	}{
		{robot: &team.ActiveRobot, stats: activeStats, taggedOut: usedReserve},
		{robot: &team.ReserveRobot, stats: reserveStats, taggedIn: usedReserve},
	}

	for _, slot := range slots {
		fame := 0
		if won {
			fame = FameAward(slot.robot.League, slot.stats.DamageDealt, slot.stats.SurvivalTime, totalDuration)
		}

		damageTaken := slot.robot.MaxHP - slot.stats.FinalHP
		if damageTaken < 0 {
			damageTaken = 0
		}

		settlement.Robots = append(settlement.Robots, repository.SlotUpdate{
			RobotID:     slot.robot.ID,
			ELODelta:    eloDelta,
			FinalHP:     slot.stats.FinalHP,
			DamageTaken: damageTaken,
			DamageDealt: slot.stats.DamageDealt,
			Fame:        fame,
			Won:         won,
			Lost:        !won && !isDraw,
			Drew:        isDraw,
			TaggedOut:   slot.taggedOut,
			TaggedIn:    slot.taggedIn,
		})
	}

	points := constants.LeaguePointsLoss
	switch {
	case won:
		points = constants.LeaguePointsWin
	case isDraw:
		points = constants.LeaguePointsDraw
	}
	settlement.Teams = append(settlement.Teams, repository.TeamUpdate{
		TeamID:            team.ID,
		LeaguePointsDelta: points,
		Won:               won,
		Lost:              !won && !isDraw,
		Drew:              isDraw,
	})

	prestige := 0
	if won {
		prestige = PrestigeAward(team.League)
	}
	settlement.Stables = append(settlement.Stables, repository.StableUpdate{
		StableID:      team.StableID,
		CurrencyDelta: reward,
		PrestigeDelta: prestige,
	})
}

// SettleMatch builds and atomically applies the settlement for one
// completed match, returning the persisted battle record.
func (s *SettlementService) SettleMatch(ctx context.Context, match *domain.Match, team1, team2 *domain.TeamWithRobots, result *domain.TagTeamBattleResult, cycle int64) (*domain.Battle, error) {
	settlement, err := s.BuildSettlement(match, team1, team2, result, cycle)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Apply(ctx, settlement); err != nil {
		return nil, fmt.Errorf("failed to settle match %d: %w", match.ID, err)
	}

	s.logger.Info().
		Int64("match_id", match.ID).
		Str("battle_id", settlement.Battle.ID).
		Bool("is_draw", result.IsDraw).
		Int("team1_elo_delta", settlement.Battle.Team1ELODelta).
		Int("team2_elo_delta", settlement.Battle.Team2ELODelta).
		Msg("match settled")

	return &settlement.Battle, nil
}
