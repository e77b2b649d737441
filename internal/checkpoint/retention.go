package checkpoint

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// staleAfter is how long a "started but never completed" progress
// document is trusted before it's assumed to belong to a crashed
// worker and is pruned so the triple can be retried.
const staleAfter = 6 * time.Hour

// RunStaleLockPruner periodically deletes progress documents that were
// started but never marked complete within staleAfter. Blocks until
// ctx is cancelled.
func RunStaleLockPruner(ctx context.Context, store *Store) {
	interval := 30 * time.Minute
	log.Printf("checkpoint: pruning stale locks older than %v every %v", staleAfter, interval)

	pruneStaleLocks(ctx, store)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneStaleLocks(ctx, store)
		}
	}
}

func pruneStaleLocks(ctx context.Context, store *Store) {
	cutoff := time.Now().Add(-staleAfter)

	result, err := store.db.Collection(progressCollection).DeleteMany(ctx, bson.M{
		"complete":   false,
		"started_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		log.Printf("checkpoint: stale lock prune error: %v", err)
		return
	}
	if result.DeletedCount > 0 {
		log.Printf("checkpoint: pruned %d stale triple locks older than %s", result.DeletedCount, cutoff.Format(time.RFC3339))
	}
}
