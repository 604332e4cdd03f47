package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentcal/internal/app/middleware"
)

// DefaultIdempotencyTTL is how long Mongo keeps stored results before its TTL
// monitor removes them.
const DefaultIdempotencyTTL = 7 * 24 * time.Hour

const idempotencyCollection = "command_results"

// IdempotencyStore keeps one result per command key. The first stored result
// wins: a concurrent retry that also succeeded does not replace it.
type IdempotencyStore struct {
	col *mongo.Collection
}

func NewIdempotencyStore(db *mongo.Database, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	col := db.Collection(idempotencyCollection)
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "command", Value: 1}, {Key: "stored_at", Value: -1}},
			Options: options.Index().SetName("command_recent"),
		},
		{
			Keys:    bson.D{{Key: "stored_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())).SetName("stored_ttl"),
		},
	})
	return &IdempotencyStore{col: col}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc commandResultDocument
	err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return middleware.IdempotencyRecord{}, false, nil
	case err != nil:
		return middleware.IdempotencyRecord{}, false, err
	}
	return middleware.IdempotencyRecord{
		Key:        doc.Key,
		Command:    doc.Command,
		Payload:    doc.Payload,
		OccurredAt: doc.OccurredAt,
	}, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	insert := bson.M{
		"command":     rec.Command,
		"payload":     rec.Payload,
		"occurred_at": rec.OccurredAt,
		"stored_at":   time.Now().UTC(),
	}
	_, err := s.col.UpdateByID(ctx, rec.Key, bson.M{"$setOnInsert": insert}, options.Update().SetUpsert(true))
	return err
}

type commandResultDocument struct {
	Key        string    `bson:"_id"`
	Command    string    `bson:"command"`
	Payload    []byte    `bson:"payload,omitempty"`
	OccurredAt time.Time `bson:"occurred_at"`
	StoredAt   time.Time `bson:"stored_at"`
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
