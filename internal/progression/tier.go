// Package progression maps cumulative coins to writer tiers.
package progression

import "math"

// Tier is one bracket of the static progression table.
type Tier struct {
	Level        int    `json:"level"`
	Title        string `json:"title"`
	MinPoints    int    `json:"min_points"`
	MaxPoints    int    `json:"max_points"`
	PointsNeeded int    `json:"points_needed"`
}

// Terminal reports whether the tier has no successor.
func (t Tier) Terminal() bool { return t.MaxPoints == math.MaxInt }

// Progress is the position of a point total within its tier.
type Progress struct {
	Level              int     `json:"level"`
	Title              string  `json:"title"`
	TotalPoints        int     `json:"total_points"`
	PointsInTier       int     `json:"points_in_tier"`
	PointsToNextTier   int     `json:"points_to_next_tier"`
	ProgressPercentage float64 `json:"progress_percentage"`
	Terminal           bool    `json:"terminal"`
}

// tiers must stay contiguous: each MinPoints is the previous MaxPoints+1.
var tiers = []Tier{
	{Level: 1, Title: "Novice Scribe", MinPoints: 0, MaxPoints: 49, PointsNeeded: 50},
	{Level: 2, Title: "Apprentice Writer", MinPoints: 50, MaxPoints: 124, PointsNeeded: 75},
	{Level: 3, Title: "Storyteller", MinPoints: 125, MaxPoints: 249, PointsNeeded: 125},
	{Level: 4, Title: "Wordsmith", MinPoints: 250, MaxPoints: 449, PointsNeeded: 200},
	{Level: 5, Title: "Author", MinPoints: 450, MaxPoints: 749, PointsNeeded: 300},
	{Level: 6, Title: "Novelist", MinPoints: 750, MaxPoints: 1199, PointsNeeded: 450},
	{Level: 7, Title: "Master Storyteller", MinPoints: 1200, MaxPoints: 1799, PointsNeeded: 600},
	{Level: 8, Title: "Literary Legend", MinPoints: 1800, MaxPoints: math.MaxInt, PointsNeeded: 0},
}

// Tiers returns a copy of the progression table.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// TierFor locates total within the table. Totals outside every range (negative
// input) fall back to the first tier.
func TierFor(total int) Progress {
	return tierFor(tiers, total)
}

func tierFor(table []Tier, total int) Progress {
	tier := table[0]
	for _, t := range table {
		if total >= t.MinPoints && total <= t.MaxPoints {
			tier = t
			break
		}
	}

	inTier := total - tier.MinPoints
	if inTier < 0 {
		inTier = 0
	}

	p := Progress{
		Level:        tier.Level,
		Title:        tier.Title,
		TotalPoints:  total,
		PointsInTier: inTier,
		Terminal:     tier.Terminal(),
	}
	if p.Terminal || tier.PointsNeeded <= 0 {
		p.ProgressPercentage = 100
		return p
	}

	p.PointsToNextTier = max(tier.PointsNeeded-inTier, 0)
	p.ProgressPercentage = math.Min(100, float64(inTier)/float64(tier.PointsNeeded)*100)
	return p
}
