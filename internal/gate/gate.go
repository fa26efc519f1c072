// Package gate limits rewards to one submission and one publish per writer per
// calendar day (UTC).
//
// Recording goes through Store.CompareAndSwap so two concurrent requests for
// the same day cannot both claim the reward.
package gate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DayLayout is the stored day format.
const DayLayout = "2006-01-02"

// Kind selects which stamp of the record an operation touches.
type Kind string

const (
	KindSubmission Kind = "submission"
	KindPublish    Kind = "publish"
)

var (
	// ErrInvalidDay indicates a day string that is not YYYY-MM-DD.
	ErrInvalidDay = errors.New("day must be formatted as YYYY-MM-DD")
	// ErrMissingUserID indicates a required user id was absent.
	ErrMissingUserID = errors.New("user id is required")
	// ErrUnknownKind indicates a stamp kind the store does not know.
	ErrUnknownKind = errors.New("unknown gate kind")
)

// Record is a writer's gate document. Empty stamps mean "never".
type Record struct {
	UserID             string    `json:"user_id" firestore:"user_id"`
	LastSubmissionDate string    `json:"last_submission_date" firestore:"last_submission_date"`
	LastPublishDate    string    `json:"last_publish_date" firestore:"last_publish_date"`
	UpdatedAt          time.Time `json:"updated_at" firestore:"updated_at"`
}

// Stamp returns the stored day for kind.
func (r Record) Stamp(kind Kind) string {
	switch kind {
	case KindSubmission:
		return r.LastSubmissionDate
	case KindPublish:
		return r.LastPublishDate
	default:
		return ""
	}
}

// Store persists gate records.
type Store interface {
	// Get returns the record for userID, or a zero Record when none exists.
	Get(ctx context.Context, userID string) (Record, error)
	// CompareAndSwap sets the kind stamp to day unless it already equals day,
	// atomically. It reports whether the stamp changed.
	CompareAndSwap(ctx context.Context, userID string, kind Kind, day string) (bool, error)
}

// Gate answers and records daily reward eligibility.
type Gate struct {
	store Store
}

// New wraps a Store.
func New(store Store) *Gate {
	return &Gate{store: store}
}

// Day normalizes t to the UTC calendar day used for stamps.
func Day(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// ParseDay validates a day string and returns it in canonical form.
func ParseDay(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse(DayLayout, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDay, raw)
	}
	return t.Format(DayLayout), nil
}

// Status is a read-only view of both gates for a day.
type Status struct {
	Day                string `json:"day"`
	CanEarnSubmission  bool   `json:"can_earn_submission_reward"`
	CanEarnPublish     bool   `json:"can_earn_publish_reward"`
	LastSubmissionDate string `json:"last_submission_date,omitempty"`
	LastPublishDate    string `json:"last_publish_date,omitempty"`
}

// CanEarnDailyReward reports whether a submission on day would still be rewarded.
// A store failure is returned as an error, never read as "not yet submitted".
func (g *Gate) CanEarnDailyReward(ctx context.Context, userID, day string) (bool, error) {
	return g.canEarn(ctx, userID, KindSubmission, day)
}

// CanEarnPublishReward is CanEarnDailyReward for publishing.
func (g *Gate) CanEarnPublishReward(ctx context.Context, userID, day string) (bool, error) {
	return g.canEarn(ctx, userID, KindPublish, day)
}

// Status reads both gates at once.
func (g *Gate) Status(ctx context.Context, userID, day string) (Status, error) {
	rec, day, err := g.load(ctx, userID, day)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Day:                day,
		CanEarnSubmission:  rec.LastSubmissionDate != day,
		CanEarnPublish:     rec.LastPublishDate != day,
		LastSubmissionDate: rec.LastSubmissionDate,
		LastPublishDate:    rec.LastPublishDate,
	}, nil
}

// RecordSubmission claims the day's submission reward. claimed is false when
// the reward was already taken for day; writing itself is never blocked.
func (g *Gate) RecordSubmission(ctx context.Context, userID, day string) (claimed bool, err error) {
	return g.record(ctx, userID, KindSubmission, day)
}

// RecordPublish claims the day's publish reward.
func (g *Gate) RecordPublish(ctx context.Context, userID, day string) (claimed bool, err error) {
	return g.record(ctx, userID, KindPublish, day)
}

func (g *Gate) canEarn(ctx context.Context, userID string, kind Kind, day string) (bool, error) {
	rec, day, err := g.load(ctx, userID, day)
	if err != nil {
		return false, err
	}
	return rec.Stamp(kind) != day, nil
}

func (g *Gate) load(ctx context.Context, userID, day string) (Record, string, error) {
	if strings.TrimSpace(userID) == "" {
		return Record{}, "", ErrMissingUserID
	}
	day, err := ParseDay(day)
	if err != nil {
		return Record{}, "", err
	}
	rec, err := g.store.Get(ctx, userID)
	if err != nil {
		return Record{}, "", fmt.Errorf("read gate: %w", err)
	}
	return rec, day, nil
}

func (g *Gate) record(ctx context.Context, userID string, kind Kind, day string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, ErrMissingUserID
	}
	day, err := ParseDay(day)
	if err != nil {
		return false, err
	}
	claimed, err := g.store.CompareAndSwap(ctx, userID, kind, day)
	if err != nil {
		return false, fmt.Errorf("record %s gate: %w", kind, err)
	}
	return claimed, nil
}

func checkKind(kind Kind) error {
	switch kind {
	case KindSubmission, KindPublish:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}
