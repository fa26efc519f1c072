package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fd-kn/daily-prompts-sub000/internal/story"
	"github.com/fd-kn/daily-prompts-sub000/pkg/apierror"
)

type createStoryRequest struct {
	AuthorName       string       `json:"author_name"`
	Title            string       `json:"title"`
	Body             string       `json:"body"`
	PromptID         string       `json:"prompt_id"`
	BonusChallengeID string       `json:"bonus_challenge_id"`
	Mode             story.Mode   `json:"mode"`
	CompetitionID    string       `json:"competition_id"`
	Status           story.Status `json:"status"`
}

type updateStoryRequest struct {
	Title            *string       `json:"title"`
	Body             *string       `json:"body"`
	PromptID         *string       `json:"prompt_id"`
	BonusChallengeID *string       `json:"bonus_challenge_id"`
	Status           *story.Status `json:"status"`
}

type commentRequest struct {
	AuthorName string `json:"author_name"`
	Body       string `json:"body"`
}

type winnerRequest struct {
	StoryID string `json:"story_id"`
}

func listPublished(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := story.PublishedFilter{
			Mode:          story.Mode(strings.TrimSpace(r.URL.Query().Get("mode"))),
			CompetitionID: strings.TrimSpace(queryFirst(r, "competition_id", "competitionId")),
		}

		ctx, cancel := withTimeout(r)
		defer cancel()

		items, info, err := deps.Stories.ListPublished(ctx, filter, pagination(r))
		if err != nil {
			respondServiceError(w, r, deps.Logger, "failed to list stories", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "page_info": info})
	}
}

func listMine(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(r)
		if !ok {
			writeUnauthorized(w, r)
			return
		}

		ctx, cancel := withTimeout(r)
		defer cancel()

		items, info, err := deps.Stories.ListMine(ctx, user.UserID, pagination(r))
		if err != nil {
			respondServiceError(w, r, deps.Logger, "failed to list stories", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "page_info": info})
	}
}

func createStory(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(r)
		if !ok {
			writeUnauthorized(w, r)
			return
		}

		var req createStoryRequest
		if !decodeBody(w, r, &req) {
			return
		}

		ctx, cancel := withTimeout(r)
		defer cancel()

		out, err := deps.Stories.Create(ctx, story.CreateInput{
			AuthorID:         user.UserID,
			AuthorName:       req.AuthorName,
			Title:            req.Title,
			Body:             req.Body,
			PromptID:         req.PromptID,
			BonusChallengeID: req.BonusChallengeID,
			Mode:             req.Mode,
			CompetitionID:    req.CompetitionID,
			Status:           req.Status,
		})
		if err != nil {
			respondServiceError(w, r, deps.Logger, "failed to create story", err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func getStory(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := withTimeout(r)
		defer cancel()

		s, err := deps.Stories.Get(ctx, viewerID(r), chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, r, deps.Logger, "failed to load story", err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func updateStory(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(r)
		if !ok {
			writeUnauthorized(w, r)
			return
		}

		var req updateStoryRequest
		if !decodeBody(w, r, &req) {
			return
		}

		ctx, cancel := withTimeout(r)
		defer cancel()

		out, err := deps.Stories.Update(ctx, user.UserID, chi.URLParam(r, "id"), story.UpdateInput{
			Title:            req.Title,
			Body:             req.Body,
			PromptID:         req.PromptID,
			BonusChallengeID: req.BonusChallengeID,
			Status:           req.Status,
		})
		if err != nil {
			respondServiceError(w, r, deps.Logger, "failed to update story", err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func deleteStory(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(r)
		if !ok {
			writeUnauthorized(w, r)
			return
		}

		ctx, cancel := withTimeout(r)
		defer cancel()

		reward, err := deps.Stories.Delete(ctx, user.UserID, chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, r, deps.Logger, "failed to delete story", err)
			return
		}
		if reward == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reward": reward})
	}
}

func publishStory(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(r)
		if !ok {
			writeUnauthorized(w, r)
			return
		}

		ctx, cancel := withTimeout(r)
		defer cancel()

		out, err := deps.Stories.Publish(ctx, user.UserID, chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, r, deps.Logger, "failed to publish story", err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func unpublishStory(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(r)
		if !ok {
			writeUnauthorized(w, r)
			return
		}

		ctx, cancel := withTimeout(r)
		defer cancel()

		out, err := deps.Stories.Unpublish(ctx, user.UserID, chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, r, deps.Logger, "failed to unpublish story", err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func likeStory(deps Dependencies, liked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(r)
		if !ok {
			writeUnauthorized(w, r)
			return
		}

		ctx, cancel := withTimeout(r)
		defer cancel()

		storyID := chi.URLParam(r, "id")
		like := deps.Stories.Unlike
		if liked {
			like = deps.Stories.Like
		}
		count, err := like(ctx, user.UserID, storyID)
		if err != nil {
			respondServiceError(w, r, deps.Logger, "failed to update like", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"story_id":    storyID,
			"liked_by_me": liked,
			"like_count":  count,
		})
	}
}

func listComments(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := withTimeout(r)
		defer cancel()

		items, info, err := deps.Stories.ListComments(ctx, viewerID(r), chi.URLParam(r, "id"), pagination(r))
		if err != nil {
			respondServiceError(w, r, deps.Logger, "failed to list comments", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "page_info": info})
	}
}

func addComment(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(r)
		if !ok {
			writeUnauthorized(w, r)
			return
		}

		var req commentRequest
		if !decodeBody(w, r, &req) {
			return
		}

		ctx, cancel := withTimeout(r)
		defer cancel()

		comment, err := deps.Stories.AddComment(ctx, story.CommentInput{
			StoryID:    chi.URLParam(r, "id"),
			AuthorID:   user.UserID,
			AuthorName: req.AuthorName,
			Body:       req.Body,
		})
		if err != nil {
			respondServiceError(w, r, deps.Logger, "failed to add comment", err)
			return
		}
		writeJSON(w, http.StatusCreated, comment)
	}
}

func deleteComment(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(r)
		if !ok {
			writeUnauthorized(w, r)
			return
		}

		ctx, cancel := withTimeout(r)
		defer cancel()

		if err := deps.Stories.DeleteComment(ctx, user.UserID, chi.URLParam(r, "id"), chi.URLParam(r, "commentID")); err != nil {
			respondServiceError(w, r, deps.Logger, "failed to delete comment", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func declareWinner(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(r)
		if !ok {
			writeUnauthorized(w, r)
			return
		}
		if user.Anonymous || !deps.Stories.IsAdmin(user.UserID) {
			writeError(w, r, http.StatusForbidden, apierror.CodeForbidden, "admin access required")
			return
		}

		var req winnerRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.StoryID) == "" {
			writeError(w, r, http.StatusBadRequest, apierror.CodeBadRequest, "story_id is required")
			return
		}

		ctx, cancel := withTimeout(r)
		defer cancel()

		out, err := deps.Stories.DeclareWinner(ctx, user.UserID, chi.URLParam(r, "id"), req.StoryID)
		if err != nil {
			respondServiceError(w, r, deps.Logger, "failed to declare winner", err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
