// Package story stores writers' stories and the community activity around them.
package story

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fd-kn/daily-prompts-sub000/internal/rewards"
)

// Options tunes a Service.
type Options struct {
	Limits Limits
	// Admins may declare competition winners.
	Admins []string
}

// Service orchestrates the domain operations for stories.
type Service struct {
	repo    Repository
	rewards Rewarder
	clock   Clock
	ids     IDGenerator
	limits  Limits
	admins  map[string]bool
}

// NewService constructs a Service instance with the provided collaborators.
func NewService(repo Repository, rewarder Rewarder, clock Clock, ids IDGenerator, opts Options) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if rewarder == nil {
		return nil, errors.New("rewarder is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if ids == nil {
		return nil, errors.New("id generator is required")
	}

	limits := opts.Limits
	if limits == (Limits{}) {
		limits = DefaultLimits
	}
	if limits.MaxWords > 0 && limits.MinWords > limits.MaxWords {
		return nil, fmt.Errorf("min words %d exceeds max words %d", limits.MinWords, limits.MaxWords)
	}

	admins := make(map[string]bool, len(opts.Admins))
	for _, id := range opts.Admins {
		if id = strings.TrimSpace(id); id != "" {
			admins[id] = true
		}
	}

	return &Service{
		repo:    repo,
		rewards: rewarder,
		clock:   clock,
		ids:     ids,
		limits:  limits,
		admins:  admins,
	}, nil
}

// Limits reports the word bounds in force.
func (s *Service) Limits() Limits {
	return s.limits
}

// IsAdmin reports whether userID may declare winners.
func (s *Service) IsAdmin(userID string) bool {
	return s.admins[userID]
}

// Create stores a new story. A story created as completed counts as the day's
// submission.
func (s *Service) Create(ctx context.Context, input CreateInput) (Outcome, error) {
	input.normalize()
	if err := input.Validate(s.limits); err != nil {
		return Outcome{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	now := s.clock.Now().UTC()
	story := Story{
		ID:               s.ids.NewID(),
		AuthorID:         input.AuthorID,
		AuthorName:       input.AuthorName,
		Title:            input.Title,
		Body:             input.Body,
		WordCount:        CountWords(input.Body),
		PromptID:         input.PromptID,
		BonusChallengeID: input.BonusChallengeID,
		Mode:             input.Mode,
		CompetitionID:    input.CompetitionID,
		Status:           input.Status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if story.AuthorName == "" {
		story.AuthorName = defaultAuthor
	}
	if story.Status == StatusCompleted {
		story.CompletedAt = &now
	}

	if err := s.repo.Create(ctx, story); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Story: story}
	if story.Status == StatusCompleted {
		out.Reward = s.reward(ctx, s.rewards.StorySubmitted, story)
	}
	return out, nil
}

// Get returns a story. Unpublished stories are only visible to their author.
func (s *Service) Get(ctx context.Context, viewerID, storyID string) (Story, error) {
	if storyID == "" {
		return Story{}, ErrNotFound
	}

	var (
		story Story
		liked bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		story, err = s.repo.Get(gctx, storyID)
		return err
	})
	if viewerID != "" {
		g.Go(func() error {
			var err error
			liked, err = s.repo.HasLiked(gctx, storyID, viewerID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Story{}, err
	}

	if !story.Published && story.AuthorID != viewerID {
		return Story{}, ErrNotFound
	}
	story.LikedByViewer = liked
	return story, nil
}

// Update applies author edits. Finishing a draft counts as the day's submission;
// a completed story cannot go back to draft.
func (s *Service) Update(ctx context.Context, userID, storyID string, input UpdateInput) (Outcome, error) {
	input.normalize()
	if input.Empty() {
		return Outcome{}, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	if err := input.Validate(); err != nil {
		return Outcome{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	story, err := s.owned(ctx, userID, storyID)
	if err != nil {
		return Outcome{}, err
	}
	wasCompleted := story.Status == StatusCompleted

	if input.Status != nil && *input.Status == StatusDraft && wasCompleted {
		return Outcome{}, fmt.Errorf("%w: completed stories cannot return to draft", ErrInvalidInput)
	}
	if story.Published && (input.PromptID != nil || input.BonusChallengeID != nil) {
		return Outcome{}, fmt.Errorf("%w: prompt and bonus challenge are fixed once published", ErrInvalidInput)
	}

	if input.Title != nil {
		story.Title = *input.Title
	}
	if input.Body != nil {
		story.Body = *input.Body
		story.WordCount = CountWords(story.Body)
	}
	if input.PromptID != nil {
		story.PromptID = *input.PromptID
	}
	if input.BonusChallengeID != nil {
		story.BonusChallengeID = *input.BonusChallengeID
	}
	if input.Status != nil {
		story.Status = *input.Status
	}
	if problems := checkWords(story.Body, story.Status, s.limits); len(problems) > 0 {
		return Outcome{}, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}

	now := s.clock.Now().UTC()
	story.UpdatedAt = now
	completedNow := !wasCompleted && story.Status == StatusCompleted
	if completedNow {
		story.CompletedAt = &now
	}

	if err := s.repo.Update(ctx, story); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Story: story}
	if completedNow {
		out.Reward = s.reward(ctx, s.rewards.StorySubmitted, story)
	}
	return out, nil
}

// Delete soft-deletes a story. Deleting a published story costs the publish
// coins the same way unpublishing does.
func (s *Service) Delete(ctx context.Context, userID, storyID string) (*rewards.Result, error) {
	story, err := s.owned(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, storyID, s.clock.Now().UTC()); err != nil {
		return nil, err
	}
	if story.Published {
		return s.reward(ctx, s.rewards.StoryUnpublished, story), nil
	}
	return nil, nil
}

// ListMine returns the caller's stories, newest first.
func (s *Service) ListMine(ctx context.Context, userID string, pagination Pagination) ([]Story, PageInfo, error) {
	if userID == "" {
		return nil, PageInfo{}, ErrNotFound
	}
	return s.repo.ListByAuthor(ctx, userID, pagination)
}

// ListPublished returns the community feed, most recently published first.
func (s *Service) ListPublished(ctx context.Context, filter PublishedFilter, pagination Pagination) ([]Story, PageInfo, error) {
	switch filter.Mode {
	case "", ModeDaily, ModeFree, ModeCompetition:
	default:
		return nil, PageInfo{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, filter.Mode)
	}
	return s.repo.ListPublished(ctx, filter, pagination)
}

// Publish makes a completed story public and claims the daily publish reward.
func (s *Service) Publish(ctx context.Context, userID, storyID string) (Outcome, error) {
	story, err := s.owned(ctx, userID, storyID)
	if err != nil {
		return Outcome{}, err
	}
	if story.Status != StatusCompleted {
		return Outcome{}, fmt.Errorf("%w: only completed stories can be published", ErrInvalidInput)
	}
	if story.Published {
		return Outcome{}, fmt.Errorf("%w: story is already published", ErrConflict)
	}

	now := s.clock.Now().UTC()
	story.Published = true
	story.PublishedAt = &now
	story.UpdatedAt = now
	if err := s.repo.Update(ctx, story); err != nil {
		return Outcome{}, err
	}

	res := s.reward(ctx, s.rewards.StoryPublished, story)
	changed := false
	if res.Status == rewards.StatusGranted {
		story.PublishRewarded = true
		changed = true
	}
	if res.EntryCounted {
		story.EntryCounted = true
		changed = true
	}
	if changed {
		if err := s.repo.Update(ctx, story); err != nil {
			// The story is public and the reward applied; only the bookkeeping is lost.
			res.Err = errors.Join(res.Err, fmt.Errorf("record publish reward: %w", err))
		}
	}
	return Outcome{Story: story, Reward: res}, nil
}

// Unpublish hides a story again and takes back the coins its publish paid.
func (s *Service) Unpublish(ctx context.Context, userID, storyID string) (Outcome, error) {
	story, err := s.owned(ctx, userID, storyID)
	if err != nil {
		return Outcome{}, err
	}
	if !story.Published {
		return Outcome{}, fmt.Errorf("%w: story is not published", ErrConflict)
	}
	if story.Winner {
		return Outcome{}, fmt.Errorf("%w: winning entries stay published", ErrConflict)
	}

	before := story
	story.Published = false
	story.PublishedAt = nil
	story.PublishRewarded = false
	story.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, story); err != nil {
		return Outcome{}, err
	}

	return Outcome{Story: story, Reward: s.reward(ctx, s.rewards.StoryUnpublished, before)}, nil
}

// Like records userID's like on a published story and returns the new count.
func (s *Service) Like(ctx context.Context, userID, storyID string) (int, error) {
	return s.setLike(ctx, userID, storyID, true)
}

// Unlike removes userID's like.
func (s *Service) Unlike(ctx context.Context, userID, storyID string) (int, error) {
	return s.setLike(ctx, userID, storyID, false)
}

func (s *Service) setLike(ctx context.Context, userID, storyID string, liked bool) (int, error) {
	if userID == "" {
		return 0, ErrForbidden
	}
	if _, err := s.visible(ctx, userID, storyID); err != nil {
		return 0, err
	}
	return s.repo.SetLike(ctx, storyID, userID, liked, s.clock.Now().UTC())
}

// AddComment leaves a comment on a published story.
func (s *Service) AddComment(ctx context.Context, input CommentInput) (Comment, error) {
	input.normalize()
	if err := input.Validate(); err != nil {
		return Comment{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	if _, err := s.visible(ctx, input.AuthorID, input.StoryID); err != nil {
		return Comment{}, err
	}

	comment := Comment{
		ID:         s.ids.NewID(),
		StoryID:    input.StoryID,
		AuthorID:   input.AuthorID,
		AuthorName: input.AuthorName,
		Body:       input.Body,
		CreatedAt:  s.clock.Now().UTC(),
	}
	if comment.AuthorName == "" {
		comment.AuthorName = defaultAuthor
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return Comment{}, err
	}
	return comment, nil
}

// ListComments returns a story's comments, oldest first.
func (s *Service) ListComments(ctx context.Context, viewerID, storyID string, pagination Pagination) ([]Comment, PageInfo, error) {
	if _, err := s.Get(ctx, viewerID, storyID); err != nil {
		return nil, PageInfo{}, err
	}
	return s.repo.ListComments(ctx, storyID, pagination)
}

// DeleteComment removes a comment. The comment's author and the story's author may do this.
func (s *Service) DeleteComment(ctx context.Context, userID, storyID, commentID string) error {
	if userID == "" {
		return ErrForbidden
	}
	story, err := s.repo.Get(ctx, storyID)
	if err != nil {
		return err
	}
	comment, err := s.repo.GetComment(ctx, storyID, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != userID && story.AuthorID != userID {
		return ErrForbidden
	}
	return s.repo.DeleteComment(ctx, storyID, commentID)
}

// DeclareWinner marks a published competition entry as the winner and credits its author.
func (s *Service) DeclareWinner(ctx context.Context, adminID, competitionID, storyID string) (Outcome, error) {
	if !s.IsAdmin(adminID) {
		return Outcome{}, ErrForbidden
	}
	story, err := s.repo.Get(ctx, storyID)
	if err != nil {
		return Outcome{}, err
	}
	if story.Mode != ModeCompetition || story.CompetitionID != competitionID {
		return Outcome{}, fmt.Errorf("%w: story is not an entry of competition %q", ErrInvalidInput, competitionID)
	}
	if !story.Published {
		return Outcome{}, fmt.Errorf("%w: only published entries can win", ErrInvalidInput)
	}
	if story.Winner {
		return Outcome{}, fmt.Errorf("%w: story already won", ErrConflict)
	}

	story.Winner = true
	story.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, story); err != nil {
		return Outcome{}, err
	}

	return Outcome{Story: story, Reward: s.reward(ctx, s.rewards.CompetitionWon, story)}, nil
}

// owned loads a story the caller is allowed to change.
func (s *Service) owned(ctx context.Context, userID, storyID string) (Story, error) {
	if userID == "" || storyID == "" {
		return Story{}, ErrNotFound
	}
	story, err := s.repo.Get(ctx, storyID)
	if err != nil {
		return Story{}, err
	}
	if story.AuthorID != userID {
		if !story.Published {
			return Story{}, ErrNotFound
		}
		return Story{}, ErrForbidden
	}
	return story, nil
}

// visible loads a story that is published, or owned by the caller.
func (s *Service) visible(ctx context.Context, userID, storyID string) (Story, error) {
	story, err := s.repo.Get(ctx, storyID)
	if err != nil {
		return Story{}, err
	}
	if !story.Published && story.AuthorID != userID {
		return Story{}, ErrNotFound
	}
	return story, nil
}

type rewardFunc func(ctx context.Context, userID string, ev rewards.StoryEvent) rewards.Result

func (s *Service) reward(ctx context.Context, fn rewardFunc, story Story) *rewards.Result {
	res := fn(ctx, story.AuthorID, rewards.StoryEvent{
		StoryID:          story.ID,
		BonusChallengeID: story.BonusChallengeID,
		CompetitionID:    story.CompetitionID,
		EntryCounted:     story.EntryCounted,
		PublishRewarded:  story.PublishRewarded,
	})
	return &res
}
