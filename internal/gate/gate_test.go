package gate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (Record, error) { return Record{}, f.err }

func (f failingStore) CompareAndSwap(context.Context, string, Kind, string) (bool, error) {
	return false, f.err
}

func TestGate_SubmissionScenario(t *testing.T) {
	ctx := context.Background()
	g := New(NewMemoryStore())

	ok, err := g.CanEarnDailyReward(ctx, "writer-1", "2024-01-01")
	require.NoError(t, err)
	assert.True(t, ok)

	claimed, err := g.RecordSubmission(ctx, "writer-1", "2024-01-01")
	require.NoError(t, err)
	assert.True(t, claimed)

	ok, err = g.CanEarnDailyReward(ctx, "writer-1", "2024-01-01")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = g.CanEarnDailyReward(ctx, "writer-1", "2024-01-02")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGate_SecondClaimSameDayDenied(t *testing.T) {
	ctx := context.Background()
	g := New(NewMemoryStore())

	first, err := g.RecordSubmission(ctx, "u", "2024-03-10")
	require.NoError(t, err)
	second, err := g.RecordSubmission(ctx, "u", "2024-03-10")
	require.NoError(t, err)
	next, err := g.RecordSubmission(ctx, "u", "2024-03-11")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	assert.True(t, next)
}

func TestGate_SubmissionAndPublishAreIndependent(t *testing.T) {
	ctx := context.Background()
	g := New(NewMemoryStore())

	_, err := g.RecordSubmission(ctx, "u", "2024-03-10")
	require.NoError(t, err)

	ok, err := g.CanEarnPublishReward(ctx, "u", "2024-03-10")
	require.NoError(t, err)
	assert.True(t, ok)

	claimed, err := g.RecordPublish(ctx, "u", "2024-03-10")
	require.NoError(t, err)
	assert.True(t, claimed)

	st, err := g.Status(ctx, "u", "2024-03-10")
	require.NoError(t, err)
	assert.False(t, st.CanEarnSubmission)
	assert.False(t, st.CanEarnPublish)
	assert.Equal(t, "2024-03-10", st.LastPublishDate)
}

func TestGate_UsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	g := New(NewMemoryStore())

	_, err := g.RecordSubmission(ctx, "alice", "2024-01-01")
	require.NoError(t, err)

	ok, err := g.CanEarnDailyReward(ctx, "bob", "2024-01-01")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGate_ConcurrentClaimsGrantOnce(t *testing.T) {
	ctx := context.Background()
	g := New(NewMemoryStore())

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := g.RecordSubmission(ctx, "tabs", "2024-06-01")
			if err == nil && claimed {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestGate_InvalidInput(t *testing.T) {
	ctx := context.Background()
	g := New(NewMemoryStore())

	_, err := g.RecordSubmission(ctx, "u", "01/02/2024")
	assert.True(t, errors.Is(err, ErrInvalidDay))

	_, err = g.CanEarnDailyReward(ctx, "", "2024-01-01")
	assert.True(t, errors.Is(err, ErrMissingUserID))

	_, err = NewMemoryStore().CompareAndSwap(ctx, "u", Kind("bonus"), "2024-01-01")
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestGate_ReadFailureIsReported(t *testing.T) {
	boom := errors.New("store unreachable")
	g := New(failingStore{err: boom})

	ok, err := g.CanEarnDailyReward(context.Background(), "u", "2024-01-01")
	assert.False(t, ok)
	assert.True(t, errors.Is(err, boom))

	claimed, err := g.RecordSubmission(context.Background(), "u", "2024-01-01")
	assert.False(t, claimed)
	assert.True(t, errors.Is(err, boom))
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	// 22:00 local on Jan 1 is 03:00 UTC on Jan 2.
	assert.Equal(t, "2024-01-02", Day(time.Date(2024, 1, 1, 22, 0, 0, 0, loc)))

	day, err := ParseDay(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", day)

	_, err = ParseDay("2023-02-29")
	assert.Error(t, err)
}
