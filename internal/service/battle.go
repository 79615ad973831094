package service

import (
	"fmt"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/combat"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/constants"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"

	"github.com/rs/zerolog"
)

// BattleService runs tag-team battles as a phase state machine: actives
// fight first, a side whose fighter is destroyed or driven to its yield
// threshold tags in its reserve, and the match ends when a side runs out of
// robots or the simulated time budget is spent. It has no persistence side
// effects; bout resolution and commentary are injected.
type BattleService struct {
	resolver combat.BoutResolver
	messages combat.MessageGenerator
	logger   zerolog.Logger
}

func NewBattleService(resolver combat.BoutResolver, messages combat.MessageGenerator, logger zerolog.Logger) *BattleService {
	return &BattleService{resolver: resolver, messages: messages, logger: logger}
}

// combatant is a snapshot of one robot for the duration of a battle. Every
// robot enters the arena repaired to full hull; phases mutate the snapshot,
// never the source record.
type combatant struct {
	robot        domain.Robot
	hp           int
	damageDealt  int
	survivalTime float64
	taggedOut    bool
	taggedIn     bool
}

func newCombatant(robot domain.Robot) *combatant {
	return &combatant{robot: robot, hp: robot.MaxHP}
}

// down reports whether the combatant can no longer fight: destroyed, or at
// or below its yield-threshold floor.
func (c *combatant) down() bool {
	return c.hp <= 0 || c.hp <= c.robot.YieldThresholdHP()
}

func (c *combatant) stats() domain.SlotStats {
	return domain.SlotStats{
		FinalHP:      c.hp,
		DamageDealt:  c.damageDealt,
		SurvivalTime: c.survivalTime,
	}
}

// battleSide is one team's half of the battle state.
type battleSide struct {
	teamNumber int
	team       *domain.TeamWithRobots
	active     *combatant
	reserve    *combatant
	current    *combatant
	tagOutTime *float64
}

func newBattleSide(teamNumber int, team *domain.TeamWithRobots) *battleSide {
	side := &battleSide{
		teamNumber: teamNumber,
		team:       team,
		active:     newCombatant(team.ActiveRobot),
		reserve:    newCombatant(team.ReserveRobot),
	}
	side.current = side.active
	return side
}

func (s *battleSide) label() string {
	return fmt.Sprintf("Team %d", s.teamNumber)
}

type battleState struct {
	team1    *battleSide
	team2    *battleSide
	elapsed  float64
	timedOut bool
	events   []domain.BattleEvent
}

// RunBattle simulates one tag-team match between two teams and returns its
// full result, including the ordered event log and per-slot accumulators.
func (svc *BattleService) RunBattle(team1, team2 *domain.TeamWithRobots) (domain.TagTeamBattleResult, error) {
	state := &battleState{
		team1: newBattleSide(1, team1),
		team2: newBattleSide(2, team2),
	}

	// Phase 1: active vs active.
	if err := svc.runPhase(state); err != nil {
		return domain.TagTeamBattleResult{}, err
	}

	if !state.timedOut {
		down1 := state.team1.current.down()
		down2 := state.team2.current.down()

		switch {
		case down1 && down2:
			// Simultaneous tag-outs; both reserves settle it in phase 2.
			svc.tagOut(state, state.team1)
			svc.tagOut(state, state.team2)
			if err := svc.runPhase(state); err != nil {
				return domain.TagTeamBattleResult{}, err
			}
		case down1:
			if err := svc.staggeredPhases(state, state.team1, state.team2); err != nil {
				return domain.TagTeamBattleResult{}, err
			}
		case down2:
			if err := svc.staggeredPhases(state, state.team2, state.team1); err != nil {
				return domain.TagTeamBattleResult{}, err
			}
		}
	}

	winner, isDraw := state.outcome()

	result := domain.TagTeamBattleResult{
		WinnerTeamID:     winner,
		IsDraw:           isDraw,
		DurationSeconds:  state.elapsed,
		Team1TagOutTime:  state.team1.tagOutTime,
		Team2TagOutTime:  state.team2.tagOutTime,
		Team1Active:      state.team1.active.stats(),
		Team1Reserve:     state.team1.reserve.stats(),
		Team2Active:      state.team2.active.stats(),
		Team2Reserve:     state.team2.reserve.stats(),
		Team1UsedReserve: state.team1.active.taggedOut,
		Team2UsedReserve: state.team2.active.taggedOut,
		Events:           state.events,
	}

	event := svc.logger.Debug().
		Int64("team1_id", team1.ID).
		Int64("team2_id", team2.ID).
		Bool("is_draw", isDraw).
		Float64("duration_seconds", state.elapsed).
		Int("events", len(state.events))
	if winner != nil {
		event = event.Int64("winner_team_id", *winner)
	}
	event.Msg("battle resolved")

	return result, nil
}

// staggeredPhases handles one side tagging out first: its reserve fights the
// survivor in phase 2, and if that drops the survivor too, the remaining
// reserves meet in phase 3.
func (svc *BattleService) staggeredPhases(state *battleState, tagged, surviving *battleSide) error {
	svc.tagOut(state, tagged)
	if err := svc.runPhase(state); err != nil {
		return err
	}

	if !state.timedOut && surviving.current.down() {
		svc.tagOut(state, surviving)
		if err := svc.runPhase(state); err != nil {
			return err
		}
	}
	return nil
}

// runPhase resolves one bout between the current fighters, offsets its
// events onto the match clock, and charges the time spent against the
// shared budget. Reaching the budget ends the match as timed out.
func (svc *BattleService) runPhase(state *battleState) error {
	remaining := constants.BattleTimeLimit - state.elapsed
	if remaining <= 0 {
		state.timedOut = true
		return nil
	}

	c1, c2 := state.team1.current, state.team2.current

	// Hull damage carries across phases; shields recharge between them.
	robot1 := c1.robot
	robot1.CurrentHP = c1.hp
	robot1.CurrentShield = robot1.MaxShield
	robot2 := c2.robot
	robot2.CurrentHP = c2.hp
	robot2.CurrentShield = robot2.MaxShield

	bout, err := svc.resolver.SimulateBout(&robot1, &robot2)
	if err != nil {
		return fmt.Errorf("bout between %s and %s failed: %w", robot1.Name, robot2.Name, err)
	}

	duration := bout.DurationSeconds
	if duration >= remaining {
		duration = remaining
		state.timedOut = true
	}

	// Every bout event is kept, even in a clamped phase; timestamps past
	// the budget are pinned to it so the log stays within match time.
	for _, event := range bout.Events {
		event.Timestamp += state.elapsed
		if event.Timestamp > constants.BattleTimeLimit {
			event.Timestamp = constants.BattleTimeLimit
		}
		state.events = append(state.events, event)
	}

	c1.hp = bout.AFinalHP
	c1.damageDealt += bout.ADamageDealt
	c1.survivalTime += duration

	c2.hp = bout.BFinalHP
	c2.damageDealt += bout.BDamageDealt
	c2.survivalTime += duration

	state.elapsed += duration
	return nil
}

// tagOut retires the side's current fighter and brings in its reserve,
// recording the side's tag-out time and both log events.
func (svc *BattleService) tagOut(state *battleState, side *battleSide) {
	out := side.current
	out.taggedOut = true

	reason := domain.TagOutReasonYield
	if out.hp <= 0 {
		reason = domain.TagOutReasonDestruction
	}

	when := state.elapsed
	if side.tagOutTime == nil {
		side.tagOutTime = &when
	}

	state.events = append(state.events, domain.BattleEvent{
		Timestamp:  state.elapsed,
		Type:       "tag_out",
		TeamNumber: side.teamNumber,
		RobotID:    out.robot.ID,
		Reason:     reason,
		Message:    svc.messages.TagOutMessage(out.robot.Name, side.label(), reason, out.hp),
	})

	side.current = side.reserve
	side.current.taggedIn = true

	state.events = append(state.events, domain.BattleEvent{
		Timestamp:  state.elapsed,
		Type:       "tag_in",
		TeamNumber: side.teamNumber,
		RobotID:    side.current.robot.ID,
		Message:    svc.messages.TagInMessage(side.current.robot.Name, side.label(), side.current.hp),
	})
}

// outcome decides the final standing. Exhausting the time budget is always
// a draw; otherwise mutual destruction draws, a sole destruction loses, and
// surviving fighters are compared on remaining health.
func (s *battleState) outcome() (*int64, bool) {
	if s.timedOut {
		return nil, true
	}

	hp1 := s.team1.current.hp
	hp2 := s.team2.current.hp

	switch {
	case hp1 <= 0 && hp2 <= 0:
		return nil, true
	case hp1 <= 0:
		id := s.team2.team.ID
		return &id, false
	case hp2 <= 0:
		id := s.team1.team.ID
		return &id, false
	case hp1 > hp2:
		id := s.team1.team.ID
		return &id, false
	case hp2 > hp1:
		id := s.team2.team.ID
		return &id, false
	default:
		return nil, true
	}
}
