// Package rewards turns story events into coins, counters and badges.
//
// The daily gate decides whether an event pays out. Counters always move, so a
// second story on the same day still counts toward story badges. Store failures
// are reported on the Result and never fail the story write that caused them.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fd-kn/daily-prompts-sub000/internal/badge"
	"github.com/fd-kn/daily-prompts-sub000/internal/daily"
	"github.com/fd-kn/daily-prompts-sub000/internal/gate"
	"github.com/fd-kn/daily-prompts-sub000/internal/metrics"
	"github.com/fd-kn/daily-prompts-sub000/internal/progression"
)

// Config wires a Service. Repo, Gate and Catalog are required.
type Config struct {
	Repo     Repository
	Gate     *gate.Gate
	Catalog  *daily.Catalog
	Clock    daily.Clock
	Location *time.Location
	Amounts  Amounts
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// Service applies reward rules.
type Service struct {
	repo    Repository
	gate    *gate.Gate
	catalog *daily.Catalog
	clock   daily.Clock
	loc     *time.Location
	amounts Amounts
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewService validates cfg and fills defaults for the optional fields.
func NewService(cfg Config) (*Service, error) {
	if cfg.Repo == nil {
		return nil, errors.New("rewards repository is required")
	}
	if cfg.Gate == nil {
		return nil, errors.New("rewards gate is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("rewards catalog is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = daily.NewSystemClock()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Amounts == (Amounts{}) {
		cfg.Amounts = DefaultAmounts
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Service{
		repo:    cfg.Repo,
		gate:    cfg.Gate,
		catalog: cfg.Catalog,
		clock:   cfg.Clock,
		loc:     cfg.Location,
		amounts: cfg.Amounts,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// StorySubmitted counts a completed story and pays the daily submission reward
// once per day, plus today's bonus challenge when the story answers it.
func (s *Service) StorySubmitted(ctx context.Context, userID string, ev StoryEvent) Result {
	now := s.clock.Now()
	res := Result{Event: EventStorySubmitted, Day: gate.Day(now)}
	delta := Delta{StoriesCompleted: 1}

	claimed, err := s.gate.RecordSubmission(ctx, userID, res.Day)
	switch {
	case err != nil:
		s.fail(ctx, &res, "gate", userID, err)
	case claimed:
		res.Status = StatusGranted
		delta.Coins = s.amounts.Submission
		if bonus, ok := s.todaysBonus(ev.BonusChallengeID, now); ok {
			delta.Coins += bonus.Points
			delta.BonusChallengesCompleted = 1
			res.BonusAwarded = true
		}
	default:
		res.Status = StatusAlreadyClaimed
	}

	return s.finish(ctx, userID, res, delta, now)
}

// StoryPublished pays the daily publish reward once per day. A competition
// entry is counted on the story's first publish, whether or not the reward was paid.
func (s *Service) StoryPublished(ctx context.Context, userID string, ev StoryEvent) Result {
	now := s.clock.Now()
	res := Result{Event: EventStoryPublished, Day: gate.Day(now)}
	var delta Delta
	if ev.CompetitionID != "" && !ev.EntryCounted {
		delta.CompetitionsEntered = 1
	}

	claimed, err := s.gate.RecordPublish(ctx, userID, res.Day)
	switch {
	case err != nil:
		s.fail(ctx, &res, "gate", userID, err)
	case claimed:
		res.Status = StatusGranted
		delta.Coins = s.amounts.Publish
	default:
		res.Status = StatusAlreadyClaimed
	}

	return s.finish(ctx, userID, res, delta, now)
}

// StoryUnpublished takes back the publish coins, if the story's publish paid
// any. Badges already earned stay.
func (s *Service) StoryUnpublished(ctx context.Context, userID string, ev StoryEvent) Result {
	now := s.clock.Now()
	res := Result{Event: EventStoryUnpublished, Day: gate.Day(now), Status: StatusRecorded}
	var delta Delta
	if ev.PublishRewarded {
		delta.Coins = -s.amounts.UnpublishPenalty
	}
	return s.finish(ctx, userID, res, delta, now)
}

// CompetitionWon credits the winner of a competition.
func (s *Service) CompetitionWon(ctx context.Context, userID string, _ StoryEvent) Result {
	now := s.clock.Now()
	res := Result{Event: EventCompetitionWon, Day: gate.Day(now), Status: StatusRecorded}
	return s.finish(ctx, userID, res, Delta{CompetitionsWon: 1, Coins: s.amounts.CompetitionWin}, now)
}

// Progress returns counters, tier and every badge with the writer's earned state.
func (s *Service) Progress(ctx context.Context, userID string) (*ProgressResponse, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	var (
		counters Counters
		records  []BadgeRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counters, err = s.repo.GetCounters(gctx, userID)
		if err != nil {
			return fmt.Errorf("get counters: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = s.repo.ListBadges(gctx, userID)
		if err != nil {
			return fmt.Errorf("list badges: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]BadgeRecord, len(records))
	for _, rec := range records {
		byID[rec.BadgeID] = rec
	}

	defs := badge.Definitions()
	statuses := make([]BadgeStatus, 0, len(defs))
	for _, def := range defs {
		st := BadgeStatus{Definition: def}
		if rec, ok := byID[def.ID]; ok && rec.Earned {
			earnedAt := rec.EarnedAt
			st.Earned = true
			st.EarnedAt = &earnedAt
		}
		statuses = append(statuses, st)
	}

	return &ProgressResponse{
		Counters: counters,
		Tier:     progression.TierFor(counters.TotalCoins),
		Badges:   statuses,
	}, nil
}

// GateStatus reports both daily gates. An empty day means today (UTC).
func (s *Service) GateStatus(ctx context.Context, userID, day string) (gate.Status, error) {
	if day == "" {
		day = gate.Day(s.clock.Now())
	}
	return s.gate.Status(ctx, userID, day)
}

func (s *Service) todaysBonus(challengeID string, now time.Time) (daily.Item, bool) {
	if challengeID == "" {
		return daily.Item{}, false
	}
	// The bonus follows the prompt calendar in s.loc while the gate counts UTC
	// days, so near local midnight the two can name different dates.
	item, err := s.catalog.Today(daily.PoolBonus, now.In(s.loc))
	if err != nil || item.ID != challengeID {
		return daily.Item{}, false
	}
	return item, true
}

func (s *Service) finish(ctx context.Context, userID string, res Result, delta Delta, now time.Time) Result {
	if res.Status == StatusUnconfirmed {
		// The gate outcome is unknown, so only the unconditional part of the delta applies.
		delta.Coins = 0
		delta.BonusChallengesCompleted = 0
	}

	var (
		counters Counters
		err      error
	)
	if delta.IsZero() {
		counters, err = s.repo.GetCounters(ctx, userID)
	} else {
		counters, err = s.repo.ApplyDelta(ctx, userID, delta)
	}
	if err != nil {
		s.fail(ctx, &res, "counters", userID, err)
		s.observe(res)
		return res
	}

	res.Counters = counters
	res.Tier = progression.TierFor(counters.TotalCoins)
	if delta.Coins > 0 {
		res.CoinsAwarded = delta.Coins
	} else {
		res.CoinsDeducted = -delta.Coins
	}
	res.EntryCounted = delta.CompetitionsEntered > 0

	if delta.IsZero() {
		s.observe(res)
		return res
	}
	res.NewBadges = s.awardBadges(ctx, &res, userID, counters, now)
	s.observe(res)
	return res
}

func (s *Service) awardBadges(ctx context.Context, res *Result, userID string, counters Counters, now time.Time) []badge.Definition {
	records, err := s.repo.ListBadges(ctx, userID)
	if err != nil {
		s.fail(ctx, res, "badges", userID, err)
		return nil
	}
	earned := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.Earned {
			earned[rec.BadgeID] = true
		}
	}

	candidates := badge.Evaluate(counters.badgeCounters(), earned)
	if len(candidates) == 0 {
		return nil
	}
	ids := make([]string, len(candidates))
	for i, def := range candidates {
		ids[i] = def.ID
	}

	awarded, err := s.repo.AwardBadges(ctx, userID, ids, now)
	if err != nil {
		s.fail(ctx, res, "badges", userID, err)
		return nil
	}

	out := make([]badge.Definition, 0, len(awarded))
	for _, id := range awarded {
		if def, ok := badge.Lookup(id); ok {
			out = append(out, def)
			s.metrics.ObserveBadge(id)
		}
	}
	if len(out) > 0 {
		s.logger.InfoContext(ctx, "badges awarded",
			slog.String("userId", userID),
			slog.Any("badges", awarded),
		)
	}
	return out
}

func (s *Service) fail(ctx context.Context, res *Result, op, userID string, err error) {
	res.Status = StatusUnconfirmed
	res.Err = errors.Join(res.Err, err)
	s.metrics.ObserveStoreError(op)
	s.logger.WarnContext(ctx, "reward not confirmed",
		slog.String("event", string(res.Event)),
		slog.String("op", op),
		slog.String("userId", userID),
		slog.Any("error", err),
	)
}

func (s *Service) observe(res Result) {
	s.metrics.ObserveReward(string(res.Event), string(res.Status), res.CoinsAwarded)
}
