package gate

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	now     func() time.Time
}

// NewMemoryStore returns an in-memory store intended for local development and tests.
func NewMemoryStore() Store {
	return &memoryStore{records: make(map[string]Record), now: time.Now}
}

func (s *memoryStore) Get(_ context.Context, userID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return Record{UserID: userID}, nil
	}
	return rec, nil
}

func (s *memoryStore) CompareAndSwap(_ context.Context, userID string, kind Kind, day string) (bool, error) {
	if err := checkKind(kind); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.records[userID]
	rec.UserID = userID
	if rec.Stamp(kind) == day {
		return false, nil
	}
	switch kind {
	case KindSubmission:
		rec.LastSubmissionDate = day
	case KindPublish:
		rec.LastPublishDate = day
	}
	rec.UpdatedAt = s.now().UTC()
	s.records[userID] = rec
	return true, nil
}
