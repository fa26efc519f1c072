package rewards

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	counters map[string]Counters
	badges   map[string]map[string]BadgeRecord
	now      func() time.Time
}

// NewMemoryRepository returns an in-process Repository for local runs and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		counters: make(map[string]Counters),
		badges:   make(map[string]map[string]BadgeRecord),
		now:      time.Now,
	}
}

func (r *memoryRepository) GetCounters(_ context.Context, userID string) (Counters, error) {
	if userID == "" {
		return Counters{}, ErrMissingUserID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.counters[userID]
	if !ok {
		return Counters{UserID: userID}, nil
	}
	return c, nil
}

func (r *memoryRepository) ApplyDelta(_ context.Context, userID string, d Delta) (Counters, error) {
	if userID == "" {
		return Counters{}, ErrMissingUserID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c := d.Apply(r.counters[userID])
	c.UserID = userID
	c.UpdatedAt = r.now().UTC()
	r.counters[userID] = c
	return c, nil
}

func (r *memoryRepository) ListBadges(_ context.Context, userID string) ([]BadgeRecord, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]BadgeRecord, 0, len(r.badges[userID]))
	for _, rec := range r.badges[userID] {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].BadgeID < records[j].BadgeID })
	return records, nil
}

func (r *memoryRepository) AwardBadges(_ context.Context, userID string, ids []string, at time.Time) ([]string, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	earned, ok := r.badges[userID]
	if !ok {
		earned = make(map[string]BadgeRecord)
		r.badges[userID] = earned
	}

	var awarded []string
	for _, id := range ids {
		if rec, ok := earned[id]; ok && rec.Earned {
			continue
		}
		earned[id] = BadgeRecord{BadgeID: id, Earned: true, EarnedAt: at.UTC()}
		awarded = append(awarded, id)
	}
	return awarded, nil
}
