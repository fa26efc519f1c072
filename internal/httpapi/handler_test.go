package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd-kn/daily-prompts-sub000/internal/daily"
	"github.com/fd-kn/daily-prompts-sub000/internal/gate"
	"github.com/fd-kn/daily-prompts-sub000/internal/rewards"
	"github.com/fd-kn/daily-prompts-sub000/internal/story"
	"github.com/fd-kn/daily-prompts-sub000/pkg/apierror"
	sharedauth "github.com/fd-kn/daily-prompts-sub000/pkg/auth"
	"github.com/fd-kn/daily-prompts-sub000/pkg/logging"
)

var testNow = time.Date(2024, time.January, 4, 12, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	clock := daily.FixedClock(testNow)
	catalog := daily.MustLoad()
	logger := logging.Discard()

	rewardSvc, err := rewards.NewService(rewards.Config{
		Repo:    rewards.NewMemoryRepository(),
		Gate:    gate.New(gate.NewMemoryStore()),
		Catalog: catalog,
		Clock:   clock,
		Logger:  logger,
	})
	require.NoError(t, err)

	storySvc, err := story.NewService(story.NewMemoryRepository(), rewardSvc, clock, story.NewUUIDGenerator(), story.Options{
		Limits: story.Limits{MinWords: 3, MaxWords: 100},
		Admins: []string{"admin"},
	})
	require.NoError(t, err)

	verifier, err := sharedauth.NewVerifier(sharedauth.Config{Mode: sharedauth.ModeNoop})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	RegisterPublicRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(sharedauth.Middleware(verifier, sharedauth.WithAnonymous(true)))
		RegisterRoutes(r, Dependencies{
			Catalog: catalog,
			Clock:   clock,
			Stories: storySvc,
			Rewards: rewardSvc,
			Logger:  logger,
		})
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type todayPrompt struct {
	Date      string     `json:"date"`
	DayOfYear int        `json:"day_of_year"`
	Prompt    daily.Item `json:"prompt"`
}

func TestTodayRoutes(t *testing.T) {
	h := newTestRouter(t)
	catalog := daily.MustLoad()

	rec := do(t, h, http.MethodGet, "/v1/prompts/today", "writer", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[todayPrompt](t, rec)
	want, err := catalog.Today(daily.PoolPrompts, testNow)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-04", body.Date)
	assert.Equal(t, 4, body.DayOfYear)
	assert.Equal(t, want.ID, body.Prompt.ID)

	rec = do(t, h, http.MethodGet, "/v1/challenges/today?date=2024-02-29", "writer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"challenge"`)
	assert.Contains(t, rec.Body.String(), `"day_of_year":60`)

	rec = do(t, h, http.MethodGet, "/v1/prompts/today?date=yesterday", "writer", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decode[apierror.ErrorResponse](t, rec)
	assert.Equal(t, apierror.CodeBadRequest, errBody.Code)
	assert.NotEmpty(t, errBody.RequestID)
}

func TestCatalogRoutes(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/v1/pools/bonus", "writer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	pool := decode[daily.Pool](t, rec)
	assert.Equal(t, "bonus", pool.Name)
	assert.NotEmpty(t, pool.Items)

	rec = do(t, h, http.MethodGet, "/v1/pools/limericks", "writer", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/tiers", "writer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Literary Legend")

	rec = do(t, h, http.MethodGet, "/v1/badges", "writer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "first-story")
}

func TestRequiresIdentity(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/v1/me/progress", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAnonymousFlow(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/v1/anonymous", "", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	issued := decode[map[string]string](t, rec)
	anonID := issued["anonymous_id"]
	require.NotEmpty(t, anonID)
	assert.Equal(t, sharedauth.AnonymousHeader, issued["header"])

	req := httptest.NewRequest(http.MethodGet, "/v1/me/gate", nil)
	req.Header.Set(sharedauth.AnonymousHeader, anonID)
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	status := decode[gate.Status](t, res)
	assert.Equal(t, "2024-01-04", status.Day)
	assert.True(t, status.CanEarnSubmission)

	req = httptest.NewRequest(http.MethodGet, "/v1/me/gate", nil)
	req.Header.Set(sharedauth.AnonymousHeader, "not-a-uuid")
	res = httptest.NewRecorder()
	h.ServeHTTP(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestStoryRewardFlow(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/v1/stories", "writer",
		`{"title":"Night Shift","body":"the static whispered back","status":"completed"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[story.Outcome](t, rec)
	require.NotNil(t, created.Reward)
	assert.Equal(t, rewards.StatusGranted, created.Reward.Status)
	assert.Equal(t, 10, created.Reward.CoinsAwarded)
	id := created.Story.ID

	rec = do(t, h, http.MethodPost, "/v1/stories", "writer",
		`{"title":"Again","body":"a second story today","status":"completed"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[story.Outcome](t, rec)
	assert.Equal(t, rewards.StatusAlreadyClaimed, second.Reward.Status)

	rec = do(t, h, http.MethodGet, "/v1/stories/"+id, "reader", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/stories/"+id+"/publish", "writer", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	published := decode[story.Outcome](t, rec)
	assert.Equal(t, 5, published.Reward.CoinsAwarded)

	rec = do(t, h, http.MethodPost, "/v1/stories/"+id+"/publish", "writer", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/stories/"+id+"/like", "reader", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"like_count":1`)

	rec = do(t, h, http.MethodPost, "/v1/stories/"+id+"/comments", "reader", `{"body":"Chilling."}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/stories/"+id+"/comments", "reader", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Chilling.")

	rec = do(t, h, http.MethodGet, "/v1/stories?page_size=10", "reader", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	rec = do(t, h, http.MethodGet, "/v1/me/progress", "writer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decode[rewards.ProgressResponse](t, rec)
	assert.Equal(t, 15, progress.Counters.TotalCoins)
	assert.Equal(t, 2, progress.Counters.StoriesCompleted)

	rec = do(t, h, http.MethodGet, "/v1/stories/mine", "writer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalItems":2`)
}

func TestStoryErrors(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/v1/stories", "writer", `{"title":"","body":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "title is required")

	rec = do(t, h, http.MethodPost, "/v1/stories", "writer", `{"title":"t","body":"x","unknown":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/stories", "writer", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/stories", "writer", `{"title":"t","body":"one two three"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[story.Outcome](t, rec).Story.ID

	rec = do(t, h, http.MethodPatch, "/v1/stories/"+id, "writer", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"reward"`)

	rec = do(t, h, http.MethodDelete, "/v1/stories/"+id, "intruder", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/v1/stories/"+id, "writer", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/stories?mode=poetry", "writer", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeclareWinnerRoute(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/v1/stories", "writer",
		`{"title":"Entry","body":"one two three four","mode":"competition","competition_id":"spring","status":"completed"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[story.Outcome](t, rec).Story.ID

	rec = do(t, h, http.MethodPost, "/v1/stories/"+id+"/publish", "writer", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/competitions/spring/winner", "writer", `{"story_id":"`+id+`"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/competitions/spring/winner", "admin", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/competitions/spring/winner", "admin", `{"story_id":"`+id+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	won := decode[story.Outcome](t, rec)
	assert.True(t, won.Story.Winner)
	assert.Equal(t, rewards.EventCompetitionWon, won.Reward.Event)
}
