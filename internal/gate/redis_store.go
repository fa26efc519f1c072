package gate

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// claimScript sets the hash field to ARGV[1] unless it already holds it.
// Returns 1 when the field changed, 0 when the day was already claimed.
var claimScript = redis.NewScript(`
local current = redis.call("HGET", KEYS[1], ARGV[2])
if current == ARGV[1] then
  return 0
end
redis.call("HSET", KEYS[1], ARGV[2], ARGV[1], "user_id", ARGV[3])
return 1
`)

type redisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore keeps gate records as hashes under "<prefix><userID>".
func NewRedisStore(client redis.UniversalClient, prefix string) Store {
	if prefix == "" {
		prefix = "gate:"
	}
	return &redisStore{client: client, prefix: prefix}
}

func (s *redisStore) key(userID string) string {
	// Braces keep each user's hash on one cluster slot.
	return fmt.Sprintf("%s{%s}", s.prefix, userID)
}

func (s *redisStore) Get(ctx context.Context, userID string) (Record, error) {
	values, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return Record{}, err
	}
	return Record{
		UserID:             userID,
		LastSubmissionDate: values[fieldFor(KindSubmission)],
		LastPublishDate:    values[fieldFor(KindPublish)],
	}, nil
}

func (s *redisStore) CompareAndSwap(ctx context.Context, userID string, kind Kind, day string) (bool, error) {
	if err := checkKind(kind); err != nil {
		return false, err
	}
	res, err := claimScript.Run(ctx, s.client, []string{s.key(userID)}, day, fieldFor(kind), userID).Int64()
	if err != nil {
		return false, fmt.Errorf("run claim script: %w", err)
	}
	switch res {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected claim script result: %d", res)
	}
}
