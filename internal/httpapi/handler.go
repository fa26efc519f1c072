package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fd-kn/daily-prompts-sub000/internal/daily"
	"github.com/fd-kn/daily-prompts-sub000/internal/gate"
	"github.com/fd-kn/daily-prompts-sub000/internal/rewards"
	"github.com/fd-kn/daily-prompts-sub000/internal/story"
	"github.com/fd-kn/daily-prompts-sub000/pkg/apierror"
	sharedauth "github.com/fd-kn/daily-prompts-sub000/pkg/auth"
	"github.com/fd-kn/daily-prompts-sub000/pkg/logging"
)

const (
	serviceTimeout  = 8 * time.Second
	maxBodyBytes    = 256 * 1024 // a 5000-word story is well under this
	defaultPageSize = 20
	maxPageSize     = 100
)

// Dependencies are the services the routes call into.
type Dependencies struct {
	Catalog  *daily.Catalog
	Clock    daily.Clock
	Location *time.Location
	Stories  *story.Service
	Rewards  *rewards.Service
	Logger   *slog.Logger
}

// RegisterRoutes registers every authenticated route.
func RegisterRoutes(r chi.Router, deps Dependencies) {
	if deps.Clock == nil {
		deps.Clock = daily.NewSystemClock()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r.Get("/v1/prompts/today", todaysItem(deps, daily.PoolPrompts, "prompt"))
	r.Get("/v1/challenges/today", todaysItem(deps, daily.PoolBonus, "challenge"))
	r.Get("/v1/pools/{name}", getPool(deps))
	r.Get("/v1/tiers", listTiers())
	r.Get("/v1/badges", listBadges())

	r.Route("/v1/me", func(r chi.Router) {
		r.Get("/progress", getProgress(deps))
		r.Get("/gate", getGate(deps))
	})

	r.Route("/v1/stories", func(r chi.Router) {
		r.Get("/", listPublished(deps))
		r.Post("/", createStory(deps))
		r.Get("/mine", listMine(deps))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getStory(deps))
			r.Patch("/", updateStory(deps))
			r.Delete("/", deleteStory(deps))
			r.Post("/publish", publishStory(deps))
			r.Post("/unpublish", unpublishStory(deps))
			r.Post("/like", likeStory(deps, true))
			r.Delete("/like", likeStory(deps, false))
			r.Get("/comments", listComments(deps))
			r.Post("/comments", addComment(deps))
			r.Delete("/comments/{commentID}", deleteComment(deps))
		})
	})

	r.Post("/v1/competitions/{id}/winner", declareWinner(deps))
}

// RegisterPublicRoutes registers routes that must work before the caller has any identity.
func RegisterPublicRoutes(r chi.Router) {
	r.Post("/v1/anonymous", issueAnonymousID())
}

func issueAnonymousID() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]string{
			"anonymous_id": sharedauth.NewAnonymousID(),
			"header":       sharedauth.AnonymousHeader,
		})
	}
}

func requestUser(r *http.Request) (sharedauth.AuthenticatedUser, bool) {
	user, ok := sharedauth.UserFromContext(r.Context())
	if !ok || user.UserID == "" {
		return sharedauth.AuthenticatedUser{}, false
	}
	return user, true
}

// viewerID returns the caller's id, or "" for unauthenticated reads.
func viewerID(r *http.Request) string {
	user, _ := requestUser(r)
	return user.UserID
}

func withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), serviceTimeout)
}

var errInvalidPayload = errors.New("invalid request body")

// decodeBody reads exactly one JSON object into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(dst)
	if err == nil && decoder.Decode(&struct{}{}) != io.EOF {
		err = errInvalidPayload
	}
	if err == nil {
		return true
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, r, http.StatusRequestEntityTooLarge, apierror.CodeBadRequest, "payload too large")
		return false
	}
	writeError(w, r, http.StatusBadRequest, apierror.CodeBadRequest, errInvalidPayload.Error())
	return false
}

func pagination(r *http.Request) story.Pagination {
	q := r.URL.Query()
	pageSize := parsePositiveInt(queryFirst(r, "page_size", "pageSize"), defaultPageSize)
	return story.Pagination{
		Page:     parsePositiveInt(q.Get("page"), 1),
		PageSize: min(pageSize, maxPageSize),
	}
}

func queryFirst(r *http.Request, keys ...string) string {
	q := r.URL.Query()
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return ""
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, apierror.ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusUnauthorized, apierror.CodeUnauthorized, "missing user ID")
}

// respondServiceError maps domain errors onto the error envelope. Anything
// unrecognised is logged and reported as internal.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string, err error) {
	code := apierror.CodeInternal
	switch {
	case errors.Is(err, story.ErrNotFound), errors.Is(err, daily.ErrUnknownPool):
		code = apierror.CodeNotFound
	case errors.Is(err, story.ErrForbidden):
		code = apierror.CodeForbidden
	case errors.Is(err, story.ErrConflict):
		code = apierror.CodeConflict
	case errors.Is(err, story.ErrInvalidInput), errors.Is(err, gate.ErrInvalidDay):
		code = apierror.CodeBadRequest
	case errors.Is(err, rewards.ErrMissingUserID), errors.Is(err, gate.ErrMissingUserID):
		code = apierror.CodeUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		logRequestError(r.Context(), logger, message, err, viewerID(r))
		writeError(w, r, http.StatusGatewayTimeout, apierror.CodeInternal, "request timed out")
		return
	}

	if code == apierror.CodeInternal {
		logRequestError(r.Context(), logger, message, err, viewerID(r))
		writeError(w, r, http.StatusInternalServerError, code, message)
		return
	}
	writeError(w, r, apierror.ToStatusCode(code), code, err.Error())
}

func logRequestError(ctx context.Context, logger *slog.Logger, message string, err error, userID string) {
	if logger == nil || err == nil {
		return
	}
	logging.FromRequest(ctx, logger).ErrorContext(ctx, message,
		slog.String("userId", userID),
		slog.Any("error", err),
	)
}
