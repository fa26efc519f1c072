package story

import (
	"context"
	"errors"
	"time"

	"github.com/fd-kn/daily-prompts-sub000/internal/rewards"
)

// Mode is the kind of writing session a story came from.
type Mode string

const (
	ModeDaily       Mode = "daily"
	ModeFree        Mode = "free"
	ModeCompetition Mode = "competition"
)

// Status tracks whether the writer finished the story.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusCompleted Status = "completed"
)

// Story is a piece of writing. Published stories are visible to everyone,
// everything else only to the author.
//
// EntryCounted and PublishRewarded remember what rewards the story already
// produced, so publishing the same story again never counts a second
// competition entry and unpublishing only returns coins a publish paid.
type Story struct {
	ID               string     `json:"id" firestore:"-"`
	AuthorID         string     `json:"author_id" firestore:"author_id"`
	AuthorName       string     `json:"author_name" firestore:"author_name"`
	Title            string     `json:"title" firestore:"title"`
	Body             string     `json:"body" firestore:"body"`
	WordCount        int        `json:"word_count" firestore:"word_count"`
	PromptID         string     `json:"prompt_id,omitempty" firestore:"prompt_id"`
	BonusChallengeID string     `json:"bonus_challenge_id,omitempty" firestore:"bonus_challenge_id"`
	Mode             Mode       `json:"mode" firestore:"mode"`
	CompetitionID    string     `json:"competition_id,omitempty" firestore:"competition_id"`
	Status           Status     `json:"status" firestore:"status"`
	Published        bool       `json:"published" firestore:"published"`
	Winner           bool       `json:"winner,omitempty" firestore:"winner"`
	EntryCounted     bool       `json:"-" firestore:"entry_counted"`
	PublishRewarded  bool       `json:"-" firestore:"publish_rewarded"`
	LikeCount        int        `json:"like_count" firestore:"like_count"`
	CommentCount     int        `json:"comment_count" firestore:"comment_count"`
	LikedByViewer    bool       `json:"liked_by_me" firestore:"-"`
	CreatedAt        time.Time  `json:"created_at" firestore:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" firestore:"updated_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" firestore:"completed_at"`
	PublishedAt      *time.Time `json:"published_at,omitempty" firestore:"published_at"`
	Deleted          bool       `json:"-" firestore:"deleted"`
	DeletedAt        *time.Time `json:"-" firestore:"deleted_at"`
}

// Comment is left on a published story.
type Comment struct {
	ID         string    `json:"id" firestore:"-"`
	StoryID    string    `json:"story_id" firestore:"story_id"`
	AuthorID   string    `json:"author_id" firestore:"author_id"`
	AuthorName string    `json:"author_name" firestore:"author_name"`
	Body       string    `json:"body" firestore:"body"`
	CreatedAt  time.Time `json:"created_at" firestore:"created_at"`
}

// Pagination describes paging preferences for list queries.
type Pagination struct {
	Page     int
	PageSize int
}

// PageInfo summarizes pagination metadata for responses.
type PageInfo struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	TotalPages int  `json:"totalPages"`
	TotalItems int  `json:"totalItems"`
	HasNext    bool `json:"hasNext"`
}

// PublishedFilter narrows the community feed.
type PublishedFilter struct {
	Mode          Mode
	CompetitionID string
}

// Repository encapsulates persistence for stories, likes and comments.
type Repository interface {
	Create(ctx context.Context, story Story) error
	Get(ctx context.Context, storyID string) (Story, error)
	// Update writes the author-editable and lifecycle fields. Like and comment
	// counts are owned by the like and comment operations.
	Update(ctx context.Context, story Story) error
	Delete(ctx context.Context, storyID string, deletedAt time.Time) error
	ListByAuthor(ctx context.Context, authorID string, pagination Pagination) ([]Story, PageInfo, error)
	ListPublished(ctx context.Context, filter PublishedFilter, pagination Pagination) ([]Story, PageInfo, error)

	// SetLike adds or removes userID's like and returns the story's like count.
	// Repeating the current state changes nothing.
	SetLike(ctx context.Context, storyID, userID string, liked bool, at time.Time) (int, error)
	HasLiked(ctx context.Context, storyID, userID string) (bool, error)

	AddComment(ctx context.Context, comment Comment) error
	GetComment(ctx context.Context, storyID, commentID string) (Comment, error)
	DeleteComment(ctx context.Context, storyID, commentID string) error
	ListComments(ctx context.Context, storyID string, pagination Pagination) ([]Comment, PageInfo, error)
}

// Rewarder receives the story events that can pay out coins and badges.
type Rewarder interface {
	StorySubmitted(ctx context.Context, userID string, ev rewards.StoryEvent) rewards.Result
	StoryPublished(ctx context.Context, userID string, ev rewards.StoryEvent) rewards.Result
	StoryUnpublished(ctx context.Context, userID string, ev rewards.StoryEvent) rewards.Result
	CompetitionWon(ctx context.Context, userID string, ev rewards.StoryEvent) rewards.Result
}

// Outcome is a story write together with the reward it triggered, if any.
type Outcome struct {
	Story  Story           `json:"story"`
	Reward *rewards.Result `json:"reward,omitempty"`
}

// ErrNotFound indicates the story or comment does not exist or is not visible to the caller.
var ErrNotFound = errors.New("story not found")

// ErrForbidden indicates the caller may not change the resource.
var ErrForbidden = errors.New("not allowed")

// ErrConflict indicates the operation clashes with the current state.
var ErrConflict = errors.New("story state conflict")

// ErrInvalidInput indicates the provided data failed validation.
var ErrInvalidInput = errors.New("invalid input")

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces unique identifiers for new stories and comments.
type IDGenerator interface {
	NewID() string
}
