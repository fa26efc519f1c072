package story

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	storiesCollection  = "stories"
	likesCollection    = "likes"
	commentsCollection = "comments"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository stores stories in stories/{id} with likes and
// comments as subcollections.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) stories() *firestore.CollectionRef {
	return r.client.Collection(storiesCollection)
}

func (r *firestoreRepository) Create(ctx context.Context, story Story) error {
	_, err := r.stories().Doc(story.ID).Create(ctx, story)
	if status.Code(err) == codes.AlreadyExists {
		return ErrConflict
	}
	return err
}

func (r *firestoreRepository) Get(ctx context.Context, storyID string) (Story, error) {
	doc, err := r.stories().Doc(storyID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Story{}, ErrNotFound
	}
	if err != nil {
		return Story{}, err
	}
	story, err := snapshotToStory(doc)
	if err != nil {
		return Story{}, err
	}
	if story.Deleted {
		return Story{}, ErrNotFound
	}
	return story, nil
}

func (r *firestoreRepository) Update(ctx context.Context, story Story) error {
	_, err := r.stories().Doc(story.ID).Update(ctx, []firestore.Update{
		{Path: "title", Value: story.Title},
		{Path: "body", Value: story.Body},
		{Path: "word_count", Value: story.WordCount},
		{Path: "prompt_id", Value: story.PromptID},
		{Path: "bonus_challenge_id", Value: story.BonusChallengeID},
		{Path: "status", Value: story.Status},
		{Path: "completed_at", Value: story.CompletedAt},
		{Path: "published", Value: story.Published},
		{Path: "published_at", Value: story.PublishedAt},
		{Path: "winner", Value: story.Winner},
		{Path: "entry_counted", Value: story.EntryCounted},
		{Path: "publish_rewarded", Value: story.PublishRewarded},
		{Path: "updated_at", Value: story.UpdatedAt},
	})
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func (r *firestoreRepository) Delete(ctx context.Context, storyID string, deletedAt time.Time) error {
	ref := r.stories().Doc(storyID)
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if deleted, ok := doc.Data()["deleted"].(bool); ok && deleted {
			return ErrNotFound
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "deleted", Value: true},
			{Path: "published", Value: false},
			{Path: "deleted_at", Value: deletedAt},
			{Path: "updated_at", Value: deletedAt},
		})
	})
}

func (r *firestoreRepository) ListByAuthor(ctx context.Context, authorID string, pagination Pagination) ([]Story, PageInfo, error) {
	base := r.stories().
		Where("author_id", "==", authorID).
		Where("deleted", "==", false)
	return r.list(ctx, base, base.OrderBy("created_at", firestore.Desc), pagination)
}

func (r *firestoreRepository) ListPublished(ctx context.Context, filter PublishedFilter, pagination Pagination) ([]Story, PageInfo, error) {
	base := r.stories().
		Where("published", "==", true).
		Where("deleted", "==", false)
	if filter.Mode != "" {
		base = base.Where("mode", "==", filter.Mode)
	}
	if filter.CompetitionID != "" {
		base = base.Where("competition_id", "==", filter.CompetitionID)
	}
	return r.list(ctx, base, base.OrderBy("published_at", firestore.Desc), pagination)
}

func (r *firestoreRepository) list(ctx context.Context, base, ordered firestore.Query, pagination Pagination) ([]Story, PageInfo, error) {
	pagination = pagination.normalized()

	query := ordered
	if offset := (pagination.Page - 1) * pagination.PageSize; offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Limit(pagination.PageSize + 1).Documents(ctx)
	defer iter.Stop()

	stories := make([]Story, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, PageInfo{}, err
		}
		story, err := snapshotToStory(doc)
		if err != nil {
			return nil, PageInfo{}, err
		}
		stories = append(stories, story)
	}

	hasNext := len(stories) > pagination.PageSize
	if hasNext {
		stories = stories[:pagination.PageSize]
	}

	total, err := count(ctx, base)
	if err != nil {
		return nil, PageInfo{}, err
	}

	return stories, PageInfo{
		Page:       pagination.Page,
		PageSize:   pagination.PageSize,
		TotalPages: totalPages(total, pagination.PageSize),
		TotalItems: total,
		HasNext:    hasNext,
	}, nil
}

func count(ctx context.Context, query firestore.Query) (int, error) {
	results, err := query.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	value, ok := results["total"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("count query returned %T", results["total"])
	}
	return int(value.GetIntegerValue()), nil
}

// SetLike keeps the like marker and like_count in step inside one transaction.
func (r *firestoreRepository) SetLike(ctx context.Context, storyID, userID string, liked bool, at time.Time) (int, error) {
	storyRef := r.stories().Doc(storyID)
	likeRef := storyRef.Collection(likesCollection).Doc(userID)

	var likeCount int
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(storyRef)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		story, err := snapshotToStory(doc)
		if err != nil {
			return err
		}
		if story.Deleted {
			return ErrNotFound
		}

		_, err = tx.Get(likeRef)
		has := err == nil
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		likeCount = story.LikeCount
		switch {
		case liked && !has:
			likeCount++
			if err := tx.Create(likeRef, map[string]any{"user_id": userID, "created_at": at}); err != nil {
				return err
			}
			return tx.Update(storyRef, []firestore.Update{{Path: "like_count", Value: firestore.Increment(1)}})
		case !liked && has:
			likeCount = max(likeCount-1, 0)
			if err := tx.Delete(likeRef); err != nil {
				return err
			}
			return tx.Update(storyRef, []firestore.Update{{Path: "like_count", Value: firestore.Increment(-1)}})
		default:
			return nil
		}
	})
	if err != nil {
		return 0, err
	}
	return likeCount, nil
}

func (r *firestoreRepository) HasLiked(ctx context.Context, storyID, userID string) (bool, error) {
	_, err := r.stories().Doc(storyID).Collection(likesCollection).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *firestoreRepository) AddComment(ctx context.Context, comment Comment) error {
	storyRef := r.stories().Doc(comment.StoryID)
	commentRef := storyRef.Collection(commentsCollection).Doc(comment.ID)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(storyRef)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if deleted, ok := doc.Data()["deleted"].(bool); ok && deleted {
			return ErrNotFound
		}

		if err := tx.Create(commentRef, comment); err != nil {
			return err
		}
		return tx.Update(storyRef, []firestore.Update{{Path: "comment_count", Value: firestore.Increment(1)}})
	})
}

func (r *firestoreRepository) GetComment(ctx context.Context, storyID, commentID string) (Comment, error) {
	doc, err := r.stories().Doc(storyID).Collection(commentsCollection).Doc(commentID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Comment{}, ErrNotFound
	}
	if err != nil {
		return Comment{}, err
	}
	return snapshotToComment(doc)
}

func (r *firestoreRepository) DeleteComment(ctx context.Context, storyID, commentID string) error {
	storyRef := r.stories().Doc(storyID)
	commentRef := storyRef.Collection(commentsCollection).Doc(commentID)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(commentRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Delete(commentRef); err != nil {
			return err
		}
		return tx.Update(storyRef, []firestore.Update{{Path: "comment_count", Value: firestore.Increment(-1)}})
	})
}

func (r *firestoreRepository) ListComments(ctx context.Context, storyID string, pagination Pagination) ([]Comment, PageInfo, error) {
	pagination = pagination.normalized()
	base := r.stories().Doc(storyID).Collection(commentsCollection).Query

	query := base.OrderBy("created_at", firestore.Asc)
	if offset := (pagination.Page - 1) * pagination.PageSize; offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Limit(pagination.PageSize + 1).Documents(ctx)
	defer iter.Stop()

	comments := make([]Comment, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, PageInfo{}, err
		}
		comment, err := snapshotToComment(doc)
		if err != nil {
			return nil, PageInfo{}, err
		}
		comments = append(comments, comment)
	}

	hasNext := len(comments) > pagination.PageSize
	if hasNext {
		comments = comments[:pagination.PageSize]
	}

	total, err := count(ctx, base)
	if err != nil {
		return nil, PageInfo{}, err
	}

	return comments, PageInfo{
		Page:       pagination.Page,
		PageSize:   pagination.PageSize,
		TotalPages: totalPages(total, pagination.PageSize),
		TotalItems: total,
		HasNext:    hasNext,
	}, nil
}

func snapshotToStory(doc *firestore.DocumentSnapshot) (Story, error) {
	var story Story
	if err := doc.DataTo(&story); err != nil {
		return Story{}, fmt.Errorf("unmarshal story: %w", err)
	}
	story.ID = doc.Ref.ID
	return story, nil
}

func snapshotToComment(doc *firestore.DocumentSnapshot) (Comment, error) {
	var comment Comment
	if err := doc.DataTo(&comment); err != nil {
		return Comment{}, fmt.Errorf("unmarshal comment: %w", err)
	}
	comment.ID = doc.Ref.ID
	return comment, nil
}
