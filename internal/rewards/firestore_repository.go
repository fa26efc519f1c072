package rewards

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	coinsCollection  = "coins"
	badgesCollection = "badges"
)

// badgeDocument is the per-user badge list stored in badges/{userID}.
type badgeDocument struct {
	UserID    string                 `firestore:"user_id"`
	Badges    map[string]BadgeRecord `firestore:"badges"`
	UpdatedAt time.Time              `firestore:"updated_at"`
}

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository stores counters in coins/{userID} and the badge list in badges/{userID}.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) GetCounters(ctx context.Context, userID string) (Counters, error) {
	if userID == "" {
		return Counters{}, ErrMissingUserID
	}
	doc, err := r.client.Collection(coinsCollection).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Counters{UserID: userID}, nil
	}
	if err != nil {
		return Counters{}, err
	}

	var c Counters
	if err := doc.DataTo(&c); err != nil {
		return Counters{}, err
	}
	c.UserID = userID
	return c, nil
}

// ApplyDelta reads and rewrites the counters document in one transaction so
// the clamp at zero sees the committed value.
func (r *firestoreRepository) ApplyDelta(ctx context.Context, userID string, d Delta) (Counters, error) {
	if userID == "" {
		return Counters{}, ErrMissingUserID
	}
	ref := r.client.Collection(coinsCollection).Doc(userID)

	var out Counters
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current := Counters{}
		doc, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			if err := doc.DataTo(&current); err != nil {
				return err
			}
		}

		out = d.Apply(current)
		out.UserID = userID
		out.UpdatedAt = time.Now().UTC()
		return tx.Set(ref, out)
	})
	if err != nil {
		return Counters{}, err
	}
	return out, nil
}

func (r *firestoreRepository) ListBadges(ctx context.Context, userID string) ([]BadgeRecord, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	doc, err := r.client.Collection(badgesCollection).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return []BadgeRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	var stored badgeDocument
	if err := doc.DataTo(&stored); err != nil {
		return nil, err
	}
	return sortedRecords(stored.Badges), nil
}

// AwardBadges only writes entries that are not yet earned, so EarnedAt keeps
// the time of the first award.
func (r *firestoreRepository) AwardBadges(ctx context.Context, userID string, ids []string, at time.Time) ([]string, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if len(ids) == 0 {
		return nil, nil
	}
	ref := r.client.Collection(badgesCollection).Doc(userID)

	var awarded []string
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		awarded = nil

		stored := badgeDocument{Badges: map[string]BadgeRecord{}}
		exists := false
		doc, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			exists = true
			if err := doc.DataTo(&stored); err != nil {
				return err
			}
			if stored.Badges == nil {
				stored.Badges = map[string]BadgeRecord{}
			}
		}

		updates := make([]firestore.Update, 0, len(ids)+2)
		for _, id := range ids {
			if rec, ok := stored.Badges[id]; ok && rec.Earned {
				continue
			}
			awarded = append(awarded, id)
			updates = append(updates, firestore.Update{
				FieldPath: firestore.FieldPath{"badges", id},
				Value:     BadgeRecord{BadgeID: id, Earned: true, EarnedAt: at.UTC()},
			})
		}
		if len(awarded) == 0 {
			return nil
		}

		if !exists {
			badges := make(map[string]BadgeRecord, len(awarded))
			for _, id := range awarded {
				badges[id] = BadgeRecord{BadgeID: id, Earned: true, EarnedAt: at.UTC()}
			}
			return tx.Set(ref, badgeDocument{UserID: userID, Badges: badges, UpdatedAt: at.UTC()})
		}

		updates = append(updates, firestore.Update{Path: "updated_at", Value: at.UTC()})
		return tx.Update(ref, updates)
	})
	if err != nil {
		return nil, err
	}
	return awarded, nil
}

func sortedRecords(badges map[string]BadgeRecord) []BadgeRecord {
	records := make([]BadgeRecord, 0, len(badges))
	for id, rec := range badges {
		if rec.BadgeID == "" {
			rec.BadgeID = id
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].BadgeID < records[j].BadgeID })
	return records
}
