// Command fetch-spot-history populates a local price archive from
// AWS's live spot price history, so a subsequent sweep run has data
// to replay against. It is a thin, optional companion to the sweep
// binary: the sweep never calls AWS directly.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/ndrandal/spot-sim/internal/fetch"
	"github.com/ndrandal/spot-sim/internal/pricehistory"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime)

	var (
		region       = flag.String("region", envStr("AWS_REGION", "us-east-1"), "AWS region to fetch from")
		instanceType = flag.String("instance-type", "", "EC2 instance type to fetch (required)")
		product      = flag.String("product", "Linux/UNIX", "product description to fetch")
		archiveDir   = flag.String("archive", envStr("ARCHIVE_DIR", "./archive"), "archive base directory")
		period       = flag.String("period", "", "archive period label (default: current year-month)")
		lookback     = flag.Duration("lookback", 24*time.Hour, "how far back to fetch")
	)
	flag.Parse()

	if *instanceType == "" {
		log.Fatal("fetch-spot-history: -instance-type is required")
	}

	archivePeriod := *period
	if archivePeriod == "" {
		archivePeriod = time.Now().UTC().Format("2006-01")
	}

	ctx := context.Background()
	f := fetch.New(ctx, *region, log.New(os.Stderr, "fetch: ", log.LstdFlags))
	if !f.IsAvailable() {
		log.Fatal("fetch-spot-history: AWS credentials unavailable, nothing fetched")
	}

	archive := pricehistory.New(*archiveDir, nil)
	n, err := f.FetchAndArchive(ctx, archive, *instanceType, *product, archivePeriod, *lookback)
	if err != nil {
		log.Fatalf("fetch-spot-history: %v", err)
	}
	log.Printf("fetch-spot-history: archived %d samples for %s/%s", n, *instanceType, *product)
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
