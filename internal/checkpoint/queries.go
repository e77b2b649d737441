package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// progressDoc is one triple's completion record.
type progressDoc struct {
	Zone       string    `bson:"zone"`
	Instance   string    `bson:"instance"`
	NumJobs    int       `bson:"num_jobs"`
	BidRatio   float64   `bson:"bid_ratio"`
	Complete   bool      `bson:"complete"`
	StartedAt  time.Time `bson:"started_at"`
	FinishedAt time.Time `bson:"finished_at,omitempty"`
}

func tripleFilter(zone, instance string, numJobs int, bidRatio float64) bson.M {
	return bson.M{
		"zone":      zone,
		"instance":  instance,
		"num_jobs":  numJobs,
		"bid_ratio": bidRatio,
	}
}

// IsComplete reports whether a triple has a completion record.
func (s *Store) IsComplete(ctx context.Context, zone, instance string, numJobs int, bidRatio float64) (bool, error) {
	var doc progressDoc
	err := s.db.Collection(progressCollection).FindOne(ctx, tripleFilter(zone, instance, numJobs, bidRatio)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("checkpoint: querying progress: %w", err)
	}
	return doc.Complete, nil
}

// MarkStarted records that a worker has begun a triple, so a crashed
// run can be distinguished from one that was never attempted.
func (s *Store) MarkStarted(ctx context.Context, zone, instance string, numJobs int, bidRatio float64) error {
	filter := tripleFilter(zone, instance, numJobs, bidRatio)
	update := bson.M{
		"$setOnInsert": bson.M{
			"zone":       zone,
			"instance":   instance,
			"num_jobs":   numJobs,
			"bid_ratio":  bidRatio,
			"started_at": time.Now(),
			"complete":   false,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.db.Collection(progressCollection).UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("checkpoint: marking triple started: %w", err)
	}
	return nil
}

// MarkComplete records that a triple's output frames have been
// written successfully.
func (s *Store) MarkComplete(ctx context.Context, zone, instance string, numJobs int, bidRatio float64) error {
	filter := tripleFilter(zone, instance, numJobs, bidRatio)
	update := bson.M{
		"$set": bson.M{
			"complete":    true,
			"finished_at": time.Now(),
		},
		"$setOnInsert": bson.M{
			"zone":      zone,
			"instance":  instance,
			"num_jobs":  numJobs,
			"bid_ratio": bidRatio,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.db.Collection(progressCollection).UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("checkpoint: marking triple complete: %w", err)
	}
	return nil
}
