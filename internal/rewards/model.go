package rewards

import (
	"context"
	"errors"
	"time"

	"github.com/fd-kn/daily-prompts-sub000/internal/badge"
	"github.com/fd-kn/daily-prompts-sub000/internal/progression"
)

// Counters is the per-user aggregate stored in coins/{userID}. It is created on
// first write and only ever changed through Delta.
type Counters struct {
	UserID                   string    `json:"user_id" firestore:"user_id"`
	TotalCoins               int       `json:"total_coins" firestore:"total_coins"`
	StoriesCompleted         int       `json:"stories_completed" firestore:"stories_completed"`
	BonusChallengesCompleted int       `json:"bonus_challenges_completed" firestore:"bonus_challenges_completed"`
	CompetitionsEntered      int       `json:"competitions_entered" firestore:"competitions_entered"`
	CompetitionsWon          int       `json:"competitions_won" firestore:"competitions_won"`
	UpdatedAt                time.Time `json:"updated_at,omitempty" firestore:"updated_at"`
}

func (c Counters) badgeCounters() badge.Counters {
	return badge.Counters{
		TotalCoins:               c.TotalCoins,
		StoriesCompleted:         c.StoriesCompleted,
		BonusChallengesCompleted: c.BonusChallengesCompleted,
		CompetitionsEntered:      c.CompetitionsEntered,
		CompetitionsWon:          c.CompetitionsWon,
	}
}

// Delta is an additive change to Counters. Results are clamped at zero.
type Delta struct {
	Coins                    int
	StoriesCompleted         int
	BonusChallengesCompleted int
	CompetitionsEntered      int
	CompetitionsWon          int
}

// IsZero reports whether applying d would change nothing.
func (d Delta) IsZero() bool {
	return d == Delta{}
}

// Apply returns c with d added, never letting a counter drop below zero.
func (d Delta) Apply(c Counters) Counters {
	c.TotalCoins = max(c.TotalCoins+d.Coins, 0)
	c.StoriesCompleted = max(c.StoriesCompleted+d.StoriesCompleted, 0)
	c.BonusChallengesCompleted = max(c.BonusChallengesCompleted+d.BonusChallengesCompleted, 0)
	c.CompetitionsEntered = max(c.CompetitionsEntered+d.CompetitionsEntered, 0)
	c.CompetitionsWon = max(c.CompetitionsWon+d.CompetitionsWon, 0)
	return c
}

// BadgeRecord is one entry of the per-user badge list. EarnedAt is written once.
type BadgeRecord struct {
	BadgeID  string    `json:"badge_id" firestore:"badge_id"`
	Earned   bool      `json:"earned" firestore:"earned"`
	EarnedAt time.Time `json:"earned_at" firestore:"earned_at"`
}

// Repository persists counters and badges.
type Repository interface {
	GetCounters(ctx context.Context, userID string) (Counters, error)
	ApplyDelta(ctx context.Context, userID string, d Delta) (Counters, error)
	ListBadges(ctx context.Context, userID string) ([]BadgeRecord, error)
	// AwardBadges marks ids earned at the given time, skipping ids already
	// earned, and returns the ids it actually changed.
	AwardBadges(ctx context.Context, userID string, ids []string, at time.Time) ([]string, error)
}

// Event names a reward-relevant action.
type Event string

const (
	EventStorySubmitted   Event = "story_submitted"
	EventStoryPublished   Event = "story_published"
	EventStoryUnpublished Event = "story_unpublished"
	EventCompetitionWon   Event = "competition_won"
)

// Status is the outcome of a reward event.
type Status string

const (
	// StatusGranted means the daily reward was claimed and persisted.
	StatusGranted Status = "granted"
	// StatusAlreadyClaimed means today's reward was taken earlier; counters may still have moved.
	StatusAlreadyClaimed Status = "already_claimed"
	// StatusRecorded means counters changed without a gated reward (penalties, wins).
	StatusRecorded Status = "recorded"
	// StatusUnconfirmed means a store call failed and the reward may not have been applied.
	StatusUnconfirmed Status = "unconfirmed"
)

// StoryEvent carries the story fields rewards look at.
type StoryEvent struct {
	StoryID          string
	BonusChallengeID string
	CompetitionID    string
	// EntryCounted is set once the story's competition entry reached the counters.
	EntryCounted bool
	// PublishRewarded is set while the story holds unreturned publish coins.
	PublishRewarded bool
}

// Result reports what an event did to the writer's rewards. EntryCounted is
// true when this event added the story's competition entry to the counters.
type Result struct {
	Event         Event                `json:"event"`
	Status        Status               `json:"status"`
	Day           string               `json:"day"`
	CoinsAwarded  int                  `json:"coins_awarded"`
	CoinsDeducted int                  `json:"coins_deducted,omitempty"`
	BonusAwarded  bool                 `json:"bonus_awarded"`
	EntryCounted  bool                 `json:"entry_counted,omitempty"`
	Counters      Counters             `json:"counters"`
	Tier          progression.Progress `json:"tier"`
	NewBadges     []badge.Definition   `json:"new_badges"`
	Err           error                `json:"-"`
}

// Confirmed reports whether every store write behind the result succeeded.
func (r Result) Confirmed() bool {
	return r.Status != StatusUnconfirmed
}

// Amounts configures coin values.
type Amounts struct {
	Submission       int
	Publish          int
	UnpublishPenalty int
	CompetitionWin   int
}

// DefaultAmounts are the production coin values.
var DefaultAmounts = Amounts{
	Submission:       10,
	Publish:          5,
	UnpublishPenalty: 5,
	CompetitionWin:   50,
}

// BadgeStatus pairs a definition with the writer's record.
type BadgeStatus struct {
	badge.Definition
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

// ProgressResponse is returned by GET /v1/me/progress.
type ProgressResponse struct {
	Counters Counters             `json:"counters"`
	Tier     progression.Progress `json:"tier"`
	Badges   []BadgeStatus        `json:"badges"`
}

// ErrMissingUserID indicates a required user id was absent.
var ErrMissingUserID = errors.New("user id is required")
