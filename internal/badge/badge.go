// Package badge defines the achievement badges and decides which ones a
// writer newly qualifies for.
//
// Badges are a one-way ratchet: once earned they are never revoked, even if
// the counter that unlocked them later goes down (for example when a story is
// unpublished and its coins are taken back).
package badge

// Category groups badges for display.
type Category string

const (
	CategoryWriting     Category = "writing"
	CategoryCompetition Category = "competition"
	CategoryAchievement Category = "achievement"
)

// Metric names the counter a badge is measured against.
type Metric string

const (
	MetricStoriesCompleted         Metric = "stories_completed"
	MetricBonusChallengesCompleted Metric = "bonus_challenges_completed"
	MetricCompetitionsEntered      Metric = "competitions_entered"
	MetricCompetitionsWon          Metric = "competitions_won"
	MetricTotalCoins               Metric = "total_coins"
)

// Definition is a static badge template.
type Definition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Metric      Metric   `json:"metric"`
	Requirement int      `json:"requirement"`
}

// Counters is the subset of a writer's aggregates that badges look at.
type Counters struct {
	TotalCoins               int
	StoriesCompleted         int
	BonusChallengesCompleted int
	CompetitionsEntered      int
	CompetitionsWon          int
}

// Value returns the counter a metric refers to. Unknown metrics read as zero,
// so a badge with an unknown metric never qualifies.
func (c Counters) Value(m Metric) int {
	switch m {
	case MetricStoriesCompleted:
		return c.StoriesCompleted
	case MetricBonusChallengesCompleted:
		return c.BonusChallengesCompleted
	case MetricCompetitionsEntered:
		return c.CompetitionsEntered
	case MetricCompetitionsWon:
		return c.CompetitionsWon
	case MetricTotalCoins:
		return c.TotalCoins
	default:
		return 0
	}
}

// Qualifies reports whether c meets the badge requirement.
func (d Definition) Qualifies(c Counters) bool {
	return d.Requirement > 0 && c.Value(d.Metric) >= d.Requirement
}

// IDs stay stable: clients and stored badge lists refer to them.
var definitions = []Definition{
	{ID: "first-story", Name: "First Words", Description: "Complete your first story.", Category: CategoryWriting, Metric: MetricStoriesCompleted, Requirement: 1},
	{ID: "five-stories", Name: "Finding Your Voice", Description: "Complete five stories.", Category: CategoryWriting, Metric: MetricStoriesCompleted, Requirement: 5},
	{ID: "twenty-five-stories", Name: "Prolific", Description: "Complete twenty-five stories.", Category: CategoryWriting, Metric: MetricStoriesCompleted, Requirement: 25},
	{ID: "hundred-stories", Name: "Centurion", Description: "Complete one hundred stories.", Category: CategoryWriting, Metric: MetricStoriesCompleted, Requirement: 100},
	{ID: "first-bonus", Name: "Extra Mile", Description: "Complete a bonus challenge.", Category: CategoryWriting, Metric: MetricBonusChallengesCompleted, Requirement: 1},
	{ID: "ten-bonus", Name: "Challenge Seeker", Description: "Complete ten bonus challenges.", Category: CategoryWriting, Metric: MetricBonusChallengesCompleted, Requirement: 10},
	{ID: "first-competition", Name: "Contender", Description: "Enter your first competition.", Category: CategoryCompetition, Metric: MetricCompetitionsEntered, Requirement: 1},
	{ID: "ten-competitions", Name: "Regular", Description: "Enter ten competitions.", Category: CategoryCompetition, Metric: MetricCompetitionsEntered, Requirement: 10},
	{ID: "first-win", Name: "Winner", Description: "Win a competition.", Category: CategoryCompetition, Metric: MetricCompetitionsWon, Requirement: 1},
	{ID: "five-wins", Name: "Champion", Description: "Win five competitions.", Category: CategoryCompetition, Metric: MetricCompetitionsWon, Requirement: 5},
	{ID: "coins-100", Name: "Pocket Change", Description: "Earn 100 coins.", Category: CategoryAchievement, Metric: MetricTotalCoins, Requirement: 100},
	{ID: "coins-500", Name: "Treasure Chest", Description: "Earn 500 coins.", Category: CategoryAchievement, Metric: MetricTotalCoins, Requirement: 500},
	{ID: "coins-1000", Name: "Golden Quill", Description: "Earn 1000 coins.", Category: CategoryAchievement, Metric: MetricTotalCoins, Requirement: 1000},
}

// Definitions returns a copy of every badge definition.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup finds a definition by id.
func Lookup(id string) (Definition, bool) {
	for _, d := range definitions {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// Evaluate returns the badges c qualifies for that are not already in earned,
// in definition order. It is pure: persisting the result is the caller's job.
func Evaluate(c Counters, earned map[string]bool) []Definition {
	return evaluate(definitions, c, earned)
}

func evaluate(defs []Definition, c Counters, earned map[string]bool) []Definition {
	var out []Definition
	for _, d := range defs {
		if earned[d.ID] {
			continue
		}
		if d.Qualifies(c) {
			out = append(out, d)
		}
	}
	return out
}
