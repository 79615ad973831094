// Package combat defines the single-bout resolution boundary consumed by
// the tag-team battle engine, plus default in-process implementations. The
// engine depends only on the interfaces so tests can inject deterministic
// fakes.
package combat

import (
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"
)

// BoutResult is the outcome of one single-phase bout between two robots.
// Event timestamps are phase-local; the caller must offset them by the
// cumulative elapsed time before appending to a match-level log.
type BoutResult struct {
	DurationSeconds float64
	AFinalHP        int
	BFinalHP        int
	ADamageDealt    int
	BDamageDealt    int
	Events          []domain.BattleEvent
}

// BoutResolver resolves a single combat phase between two robots. It must
// not mutate the supplied robots; final state is reported in the result.
type BoutResolver interface {
	SimulateBout(a, b *domain.Robot) (BoutResult, error)
}

// MessageGenerator produces the human-readable text attached to tag-out and
// tag-in events. Purely cosmetic.
type MessageGenerator interface {
	TagOutMessage(robotName, teamLabel, reason string, finalHP int) string
	TagInMessage(robotName, teamLabel string, hp int) string
}
