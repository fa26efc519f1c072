package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fd-kn/daily-prompts-sub000/internal/badge"
	"github.com/fd-kn/daily-prompts-sub000/internal/daily"
	"github.com/fd-kn/daily-prompts-sub000/internal/gate"
	"github.com/fd-kn/daily-prompts-sub000/internal/progression"
	"github.com/fd-kn/daily-prompts-sub000/pkg/apierror"
)

// referenceTime resolves ?date=YYYY-MM-DD in the prompt location, defaulting to now.
func referenceTime(r *http.Request, deps Dependencies) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return deps.Clock.Now().In(deps.Location), nil
	}
	t, err := time.ParseInLocation(gate.DayLayout, raw, deps.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", gate.ErrInvalidDay, raw)
	}
	return t, nil
}

func todaysItem(deps Dependencies, pool, key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := referenceTime(r, deps)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, apierror.CodeBadRequest, err.Error())
			return
		}

		item, err := deps.Catalog.Today(pool, ref)
		if err != nil {
			respondServiceError(w, r, deps.Logger, "failed to select "+key, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"date":        ref.Format(gate.DayLayout),
			"day_of_year": daily.DayOfYear(ref),
			key:           item,
		})
	}
}

func getPool(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pool, err := deps.Catalog.Pool(chi.URLParam(r, "name"))
		if err != nil {
			respondServiceError(w, r, deps.Logger, "failed to load pool", err)
			return
		}
		writeJSON(w, http.StatusOK, pool)
	}
}

func listTiers() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"tiers": progression.Tiers()})
	}
}

func listBadges() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"badges": badge.Definitions()})
	}
}

func getProgress(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(r)
		if !ok {
			writeUnauthorized(w, r)
			return
		}

		ctx, cancel := withTimeout(r)
		defer cancel()

		resp, err := deps.Rewards.Progress(ctx, user.UserID)
		if err != nil {
			respondServiceError(w, r, deps.Logger, "failed to load progress", err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// getGate reports the UTC-day reward gates. ?date= is a UTC day, unlike the prompt routes.
func getGate(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requestUser(r)
		if !ok {
			writeUnauthorized(w, r)
			return
		}

		ctx, cancel := withTimeout(r)
		defer cancel()

		status, err := deps.Rewards.GateStatus(ctx, user.UserID, strings.TrimSpace(r.URL.Query().Get("date")))
		if err != nil {
			respondServiceError(w, r, deps.Logger, "failed to load reward gate", err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}
