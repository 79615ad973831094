package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/repository"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ArenaServer exposes the team registry, matchmaker, and battle
// orchestrator over JSON HTTP.
type ArenaServer struct {
	teams        *service.TeamService
	matchmaking  *service.MatchmakingService
	orchestrator *service.OrchestratorService
	battleRepo   *repository.BattleRepository
	stableRepo   *repository.StableRepository
	logger       zerolog.Logger
}

func NewArenaServer(teams *service.TeamService, matchmaking *service.MatchmakingService, orchestrator *service.OrchestratorService, battleRepo *repository.BattleRepository, stableRepo *repository.StableRepository, logger zerolog.Logger) *ArenaServer {
	return &ArenaServer{
		teams:        teams,
		matchmaking:  matchmaking,
		orchestrator: orchestrator,
		battleRepo:   battleRepo,
		stableRepo:   stableRepo,
		logger:       logger,
	}
}

// Routes mounts every API route on a fresh chi router.
func (s *ArenaServer) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/teams", s.handleCreateTeam)
		r.Get("/teams/{teamID}", s.handleGetTeam)
		r.Delete("/teams/{teamID}", s.handleDisbandTeam)
		r.Get("/stables/{stableID}", s.handleGetStable)
		r.Get("/stables/{stableID}/teams", s.handleStableTeams)
		r.Post("/matchmaking/run", s.handleRunMatchmaking)
		r.Post("/battles/execute", s.handleExecuteBattles)
		r.Get("/battles/{battleID}/log", s.handleBattleLog)
	})

	return r
}

type robotResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CurrentHP int    `json:"currentHp"`
	MaxHP     int    `json:"maxHp"`
	ELO       int    `json:"elo"`
	League    string `json:"league"`
	Fame      int    `json:"fame"`
}

type teamResponse struct {
	ID               int64         `json:"id"`
	StableID         int64         `json:"stableId"`
	ActiveRobot      robotResponse `json:"activeRobot"`
	ReserveRobot     robotResponse `json:"reserveRobot"`
	League           string        `json:"league"`
	LeagueInstanceID string        `json:"leagueInstanceId"`
	LeaguePoints     int           `json:"leaguePoints"`
	CombinedELO      int           `json:"combinedElo"`
	Wins             int           `json:"wins"`
	Losses           int           `json:"losses"`
	Draws            int           `json:"draws"`
}

func toRobotResponse(r *domain.Robot) robotResponse {
	return robotResponse{
		ID:        r.ID,
		Name:      r.Name,
		CurrentHP: r.CurrentHP,
		MaxHP:     r.MaxHP,
		ELO:       r.ELO,
		League:    r.League,
		Fame:      r.Fame,
	}
}

func toTeamResponse(t *domain.TeamWithRobots) teamResponse {
	return teamResponse{
		ID:               t.ID,
		StableID:         t.StableID,
		ActiveRobot:      toRobotResponse(&t.ActiveRobot),
		ReserveRobot:     toRobotResponse(&t.ReserveRobot),
		League:           t.League,
		LeagueInstanceID: t.LeagueInstanceID,
		LeaguePoints:     t.LeaguePoints,
		CombinedELO:      t.CombinedELO(),
		Wins:             t.Wins,
		Losses:           t.Losses,
		Draws:            t.Draws,
	}
}

func (s *ArenaServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *ArenaServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func parseID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

type createTeamRequest struct {
	StableID       int64 `json:"stableId"`
	ActiveRobotID  int64 `json:"activeRobotId"`
	ReserveRobotID int64 `json:"reserveRobotId"`
}

func (s *ArenaServer) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.teams.CreateTeam(r.Context(), req.StableID, req.ActiveRobotID, req.ReserveRobotID)
	if err != nil {
		s.logger.Error().Err(err).Msg("create team failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !result.Success {
		s.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": result.Errors})
		return
	}

	s.writeJSON(w, http.StatusCreated, toTeamResponse(result.Team))
}

func (s *ArenaServer) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	teamID, ok := parseID(r, "teamID")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}

	team, err := s.teams.GetTeamByID(r.Context(), teamID)
	if err != nil {
		s.logger.Error().Err(err).Int64("team_id", teamID).Msg("get team failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if team == nil {
		s.writeError(w, http.StatusNotFound, "team not found")
		return
	}

	s.writeJSON(w, http.StatusOK, toTeamResponse(team))
}

type disbandTeamRequest struct {
	StableID int64 `json:"stableId"`
}

func (s *ArenaServer) handleDisbandTeam(w http.ResponseWriter, r *http.Request) {
	teamID, ok := parseID(r, "teamID")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}

	var req disbandTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	disbanded, err := s.teams.DisbandTeam(r.Context(), teamID, req.StableID)
	if err != nil {
		s.logger.Error().Err(err).Int64("team_id", teamID).Msg("disband team failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !disbanded {
		s.writeError(w, http.StatusNotFound, "team not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *ArenaServer) handleGetStable(w http.ResponseWriter, r *http.Request) {
	stableID, ok := parseID(r, "stableID")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid stable id")
		return
	}

	stable, err := s.stableRepo.GetByID(r.Context(), stableID)
	if err != nil {
		s.logger.Error().Err(err).Int64("stable_id", stableID).Msg("get stable failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if stable == nil {
		s.writeError(w, http.StatusNotFound, "stable not found")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"id":       stable.ID,
		"name":     stable.Name,
		"currency": stable.Currency,
		"prestige": stable.Prestige,
	})
}

func (s *ArenaServer) handleStableTeams(w http.ResponseWriter, r *http.Request) {
	stableID, ok := parseID(r, "stableID")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid stable id")
		return
	}

	teams, err := s.teams.GetTeamsByStable(r.Context(), stableID)
	if err != nil {
		s.logger.Error().Err(err).Int64("stable_id", stableID).Msg("list teams failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	responses := make([]teamResponse, 0, len(teams))
	for i := range teams {
		responses = append(responses, toTeamResponse(&teams[i]))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"teams": responses})
}

func (s *ArenaServer) handleRunMatchmaking(w http.ResponseWriter, r *http.Request) {
	shouldRun, err := s.matchmaking.ShouldRunMatchmaking(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("matchmaking gate check failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !shouldRun {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"skipped": true,
			"reason":  "tag-team matchmaking only runs on odd cycles",
		})
		return
	}

	created, err := s.matchmaking.RunMatchmaking(r.Context(), time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("matchmaking run failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"matchesCreated": created})
}

func (s *ArenaServer) handleExecuteBattles(w http.ResponseWriter, r *http.Request) {
	result, err := s.orchestrator.ExecuteScheduledBattles(r.Context(), nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("battle execution failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"totalBattles":   result.Total,
		"wins":           result.Wins,
		"draws":          result.Draws,
		"losses":         result.Losses,
		"skippedUnready": result.SkippedUnready,
	})
}

func (s *ArenaServer) handleBattleLog(w http.ResponseWriter, r *http.Request) {
	battleID := chi.URLParam(r, "battleID")
	if battleID == "" {
		s.writeError(w, http.StatusBadRequest, "invalid battle id")
		return
	}

	battle, err := s.battleRepo.GetByID(r.Context(), battleID)
	if err != nil {
		s.logger.Error().Err(err).Str("battle_id", battleID).Msg("get battle failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if battle == nil {
		s.writeError(w, http.StatusNotFound, "battle not found")
		return
	}

	s.writeJSON(w, http.StatusOK, battle.Log)
}
