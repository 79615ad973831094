// Package economy holds the league rate tables consumed by outcome
// settlement. The tables are fixed per tier; settlement combines them with
// the tag-team multipliers.
package economy

import (
	"math"

	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/domain"
)

type rewardRange struct {
	min int
	max int
}

var leagueRewards = map[string]rewardRange{
	domain.LeagueBronze:   {min: 5000, max: 10000},
	domain.LeagueSilver:   {min: 10000, max: 20000},
	domain.LeagueGold:     {min: 20000, max: 40000},
	domain.LeaguePlatinum: {min: 40000, max: 80000},
	domain.LeagueDiamond:  {min: 80000, max: 150000},
	domain.LeagueChampion: {min: 150000, max: 300000},
}

var leaguePrestige = map[string]int{
	domain.LeagueBronze:   5,
	domain.LeagueSilver:   10,
	domain.LeagueGold:     20,
	domain.LeaguePlatinum: 30,
	domain.LeagueDiamond:  50,
	domain.LeagueChampion: 75,
}

var leagueBaseFame = map[string]int{
	domain.LeagueBronze:   2,
	domain.LeagueSilver:   5,
	domain.LeagueGold:     10,
	domain.LeaguePlatinum: 15,
	domain.LeagueDiamond:  25,
	domain.LeagueChampion: 40,
}

func rewardsFor(league string) rewardRange {
	if r, ok := leagueRewards[league]; ok {
		return r
	}
	return leagueRewards[domain.LeagueBronze]
}

// BaseRewardMidpoint is the midpoint of the league's base reward range.
func BaseRewardMidpoint(league string) int {
	r := rewardsFor(league)
	return int(math.Round(float64(r.min+r.max) / 2))
}

// ParticipationReward is paid to every side that fights a match,
// win or lose: 30% of the league's base minimum.
func ParticipationReward(league string) int {
	return int(math.Round(float64(rewardsFor(league).min) * 0.3))
}

// PrestigeBase is the standard single-combat prestige award for a win in
// the given league.
func PrestigeBase(league string) int {
	return leaguePrestige[league]
}

// FameBase is the per-robot base fame award, keyed by the robot's own
// league tier.
func FameBase(league string) int {
	return leagueBaseFame[league]
}
