package story

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	stories  map[string]Story
	likes    map[string]map[string]time.Time // storyID -> userID -> likedAt
	comments map[string]map[string]Comment   // storyID -> commentID -> Comment
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		stories:  make(map[string]Story),
		likes:    make(map[string]map[string]time.Time),
		comments: make(map[string]map[string]Comment),
	}
}

func (r *memoryRepository) Create(_ context.Context, story Story) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stories[story.ID]; exists {
		return ErrConflict
	}
	r.stories[story.ID] = story
	return nil
}

func (r *memoryRepository) Get(_ context.Context, storyID string) (Story, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.live(storyID)
}

// live must be called with the lock held.
func (r *memoryRepository) live(storyID string) (Story, error) {
	story, ok := r.stories[storyID]
	if !ok || story.Deleted {
		return Story{}, ErrNotFound
	}
	return story, nil
}

func (r *memoryRepository) Update(_ context.Context, story Story) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.live(story.ID)
	if err != nil {
		return err
	}
	story.LikeCount = current.LikeCount
	story.CommentCount = current.CommentCount
	story.LikedByViewer = false
	r.stories[story.ID] = story
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, storyID string, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	story, err := r.live(storyID)
	if err != nil {
		return err
	}
	story.Deleted = true
	story.DeletedAt = &deletedAt
	story.UpdatedAt = deletedAt
	r.stories[storyID] = story
	return nil
}

func (r *memoryRepository) ListByAuthor(_ context.Context, authorID string, pagination Pagination) ([]Story, PageInfo, error) {
	r.mu.RLock()
	snapshot := make([]Story, 0)
	for _, story := range r.stories {
		if !story.Deleted && story.AuthorID == authorID {
			snapshot = append(snapshot, story)
		}
	}
	r.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].CreatedAt.After(snapshot[j].CreatedAt)
	})

	items, info := paginate(snapshot, pagination)
	return items, info, nil
}

func (r *memoryRepository) ListPublished(_ context.Context, filter PublishedFilter, pagination Pagination) ([]Story, PageInfo, error) {
	r.mu.RLock()
	snapshot := make([]Story, 0)
	for _, story := range r.stories {
		if story.Deleted || !story.Published {
			continue
		}
		if filter.Mode != "" && story.Mode != filter.Mode {
			continue
		}
		if filter.CompetitionID != "" && story.CompetitionID != filter.CompetitionID {
			continue
		}
		snapshot = append(snapshot, story)
	}
	r.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		return publishedAt(snapshot[i]).After(publishedAt(snapshot[j]))
	})

	items, info := paginate(snapshot, pagination)
	return items, info, nil
}

func publishedAt(s Story) time.Time {
	if s.PublishedAt != nil {
		return *s.PublishedAt
	}
	return s.CreatedAt
}

func (r *memoryRepository) SetLike(_ context.Context, storyID, userID string, liked bool, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	story, err := r.live(storyID)
	if err != nil {
		return 0, err
	}

	likes, ok := r.likes[storyID]
	if !ok {
		likes = make(map[string]time.Time)
		r.likes[storyID] = likes
	}

	_, has := likes[userID]
	switch {
	case liked && !has:
		likes[userID] = at
		story.LikeCount++
	case !liked && has:
		delete(likes, userID)
		story.LikeCount = max(story.LikeCount-1, 0)
	default:
		return story.LikeCount, nil
	}
	r.stories[storyID] = story
	return story.LikeCount, nil
}

func (r *memoryRepository) HasLiked(_ context.Context, storyID, userID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.likes[storyID][userID]
	return ok, nil
}

func (r *memoryRepository) AddComment(_ context.Context, comment Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	story, err := r.live(comment.StoryID)
	if err != nil {
		return err
	}

	comments, ok := r.comments[comment.StoryID]
	if !ok {
		comments = make(map[string]Comment)
		r.comments[comment.StoryID] = comments
	}
	if _, exists := comments[comment.ID]; exists {
		return ErrConflict
	}
	comments[comment.ID] = comment
	story.CommentCount++
	r.stories[story.ID] = story
	return nil
}

func (r *memoryRepository) GetComment(_ context.Context, storyID, commentID string) (Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	comment, ok := r.comments[storyID][commentID]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return comment, nil
}

func (r *memoryRepository) DeleteComment(_ context.Context, storyID, commentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.comments[storyID][commentID]; !ok {
		return ErrNotFound
	}
	delete(r.comments[storyID], commentID)

	if story, ok := r.stories[storyID]; ok {
		story.CommentCount = max(story.CommentCount-1, 0)
		r.stories[storyID] = story
	}
	return nil
}

func (r *memoryRepository) ListComments(_ context.Context, storyID string, pagination Pagination) ([]Comment, PageInfo, error) {
	r.mu.RLock()
	snapshot := make([]Comment, 0, len(r.comments[storyID]))
	for _, comment := range r.comments[storyID] {
		snapshot = append(snapshot, comment)
	}
	r.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].CreatedAt.Equal(snapshot[j].CreatedAt) {
			return snapshot[i].ID < snapshot[j].ID
		}
		return snapshot[i].CreatedAt.Before(snapshot[j].CreatedAt)
	})

	items, info := paginate(snapshot, pagination)
	return items, info, nil
}
