package gate

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const gatesCollection = "daily_gates"

type firestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore keeps one gate document per user in daily_gates/{userID}.
func NewFirestoreStore(client *firestore.Client) Store {
	return &firestoreStore{client: client}
}

func (s *firestoreStore) Get(ctx context.Context, userID string) (Record, error) {
	doc, err := s.client.Collection(gatesCollection).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Record{UserID: userID}, nil
	}
	if err != nil {
		return Record{}, err
	}

	var rec Record
	if err := doc.DataTo(&rec); err != nil {
		return Record{}, err
	}
	rec.UserID = userID
	return rec, nil
}

func fieldFor(kind Kind) string {
	if kind == KindPublish {
		return "last_publish_date"
	}
	return "last_submission_date"
}

// CompareAndSwap runs inside a transaction; Firestore retries it on contention,
// so the read of the stamp and the write happen as one unit.
func (s *firestoreStore) CompareAndSwap(ctx context.Context, userID string, kind Kind, day string) (bool, error) {
	if err := checkKind(kind); err != nil {
		return false, err
	}

	ref := s.client.Collection(gatesCollection).Doc(userID)
	field := fieldFor(kind)

	var swapped bool
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		swapped = false

		doc, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil {
			if current, _ := doc.Data()[field].(string); current == day {
				return nil
			}
		}

		swapped = true
		return tx.Set(ref, map[string]any{
			"user_id":    userID,
			field:        day,
			"updated_at": time.Now().UTC(),
		}, firestore.MergeAll)
	})
	if err != nil {
		return false, err
	}
	return swapped, nil
}
