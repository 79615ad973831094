package combat

import (
	"fmt"
	"math"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"
)

const (
	// Simulated seconds between exchanges. Both robots strike once per
	// exchange; the bout runs until a yield, a destruction, or the phase
	// time cap.
	exchangeInterval = 5.0

	// A single phase never runs longer than the full match budget.
	phaseTimeCap = 300.0
)

// Simulator is the default bout resolver: a deterministic exchange loop
// where shields absorb damage before hull and a robot disengages at its
// yield threshold.
type Simulator struct{}

func NewSimulator() *Simulator {
	return &Simulator{}
}

type fighter struct {
	robot       *domain.Robot
	hp          int
	shield      int
	damageDealt int
}

func (f *fighter) down() bool {
	return f.hp <= 0 || f.hp <= f.robot.YieldThresholdHP()
}

// strike applies one attack from f against target and returns the total
// damage dealt across shield and hull.
func (f *fighter) strike(target *fighter) int {
	damage := f.robot.AttackPower
	if damage < 1 {
		damage = 1
	}

	absorbed := damage
	if absorbed > target.shield {
		absorbed = target.shield
	}
	target.shield -= absorbed
	target.hp -= damage - absorbed

	if target.hp < 0 {
		target.hp = 0
	}
	f.damageDealt += damage
	return damage
}

func (s *Simulator) SimulateBout(a, b *domain.Robot) (BoutResult, error) {
	if a.MaxHP <= 0 || b.MaxHP <= 0 {
		return BoutResult{}, fmt.Errorf("robot with non-positive max HP: %d vs %d", a.MaxHP, b.MaxHP)
	}

	fa := &fighter{robot: a, hp: a.CurrentHP, shield: a.CurrentShield}
	fb := &fighter{robot: b, hp: b.CurrentHP, shield: b.CurrentShield}

	var events []domain.BattleEvent
	elapsed := 0.0

	for !fa.down() && !fb.down() && elapsed < phaseTimeCap {
		elapsed = math.Min(elapsed+exchangeInterval, phaseTimeCap)

		dmgA := fa.strike(fb)
		events = append(events, domain.BattleEvent{
			Timestamp: elapsed,
			Type:      "attack",
			Attacker:  a.Name,
			Defender:  b.Name,
			Damage:    dmgA,
			Message:   fmt.Sprintf("%s hits %s for %d damage", a.Name, b.Name, dmgA),
		})
		if fb.down() {
			break
		}

		dmgB := fb.strike(fa)
		events = append(events, domain.BattleEvent{
			Timestamp: elapsed,
			Type:      "attack",
			Attacker:  b.Name,
			Defender:  a.Name,
			Damage:    dmgB,
			Message:   fmt.Sprintf("%s hits %s for %d damage", b.Name, a.Name, dmgB),
		})
	}

	for _, f := range []*fighter{fa, fb} {
		if f.hp <= 0 {
			events = append(events, domain.BattleEvent{
				Timestamp: elapsed,
				Type:      "destroyed",
				Message:   fmt.Sprintf("%s has been destroyed", f.robot.Name),
			})
		} else if f.down() {
			events = append(events, domain.BattleEvent{
				Timestamp: elapsed,
				Type:      "yield",
				Message:   fmt.Sprintf("%s yields the bout", f.robot.Name),
			})
		}
	}

	return BoutResult{
		DurationSeconds: elapsed,
		AFinalHP:        fa.hp,
		BFinalHP:        fb.hp,
		ADamageDealt:    fa.damageDealt,
		BDamageDealt:    fb.damageDealt,
		Events:          events,
	}, nil
}
