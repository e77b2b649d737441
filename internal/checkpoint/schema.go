package checkpoint

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const progressCollection = "sweep_progress"

// EnsureIndexes creates the idempotent unique index identifying one
// triple's progress document.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	model := mongo.IndexModel{
		Keys: bson.D{
			{Key: "zone", Value: 1},
			{Key: "instance", Value: 1},
			{Key: "num_jobs", Value: 1},
			{Key: "bid_ratio", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	if _, err := db.Collection(progressCollection).Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("checkpoint: create index on %s: %w", progressCollection, err)
	}
	log.Println("checkpoint: sweep_progress index ensured")
	return nil
}
