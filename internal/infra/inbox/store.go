// Package inbox deduplicates consumed Kafka messages in MongoDB.
package inbox

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collection = "calendar_inbox"
	// Retention must outlive the longest redelivery window of the closure feeds.
	Retention = 30 * 24 * time.Hour
)

type claimDoc struct {
	EventID   string    `bson:"event_id"`
	Consumer  string    `bson:"consumer"`
	ClaimedAt time.Time `bson:"claimed_at"`
}

// Store keeps one claim per (message id, consumer group).
type Store struct {
	col      *mongo.Collection
	consumer string
	now      func() time.Time
}

func NewStore(db *mongo.Database, consumer string) *Store {
	col := db.Collection(collection)
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "consumer", Value: 1}, {Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("consumer_event"),
		},
		{
			Keys:    bson.D{{Key: "claimed_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(Retention.Seconds())).SetName("claimed_ttl"),
		},
	})
	return &Store{col: col, consumer: consumer, now: time.Now}
}

// Claim inserts the claim; a duplicate key means another attempt got there first.
func (s *Store) Claim(ctx context.Context, eventID string) (bool, error) {
	_, err := s.col.InsertOne(ctx, claimDoc{EventID: eventID, Consumer: s.consumer, ClaimedAt: s.now().UTC()})
	switch {
	case err == nil:
		return true, nil
	case mongo.IsDuplicateKeyError(err):
		return false, nil
	default:
		return false, err
	}
}

func (s *Store) Release(ctx context.Context, eventID string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"consumer": s.consumer, "event_id": eventID})
	return err
}
