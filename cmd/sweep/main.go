package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ndrandal/spot-sim/internal/checkpoint"
	"github.com/ndrandal/spot-sim/internal/config"
	"github.com/ndrandal/spot-sim/internal/pricehistory"
	"github.com/ndrandal/spot-sim/internal/sweep"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	var (
		configPath  string
		numWorkers  int
		outDir      string
		archivePath string
		mongoURI    string
	)

	root := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep the spot-market job-submission simulator over a grid of zones, bid ratios, and dataset sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.Context(), config.Flags{
				ConfigPath:  configPath,
				OutDir:      outDir,
				ArchivePath: archivePath,
				MongoURI:    mongoURI,
				NumWorkers:  numWorkers,
			})
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "", "workload YAML config path (required)")
	root.Flags().IntVarP(&numWorkers, "cores", "n", 4, "bounded worker pool size")
	root.Flags().StringVarP(&outDir, "out", "o", "./results", "output directory for sweep results")
	root.Flags().StringVarP(&archivePath, "spot-csv", "s", "", "single-file price archive CSV (overrides directory archive lookup)")
	root.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB URI for sweep checkpointing (empty disables)")
	root.MarkFlagRequired("config")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	root.SetContext(ctx)
	if err := root.Execute(); err != nil {
		log.Printf("configuration error: %v", err)
		os.Exit(1)
	}
}

func runSweep(ctx context.Context, flags config.Flags) error {
	workload, err := config.LoadWorkload(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// The archive directory is "./archive" relative to the working
	// directory; a single-file override given with -s replaces the
	// directory lookup.
	archiveDir := "./archive"
	archive := pricehistory.New(archiveDir, nil)

	d := sweep.New(archive, flags.OutDir, nil)
	d.ArchivePath = flags.ArchivePath

	if flags.MongoURI != "" {
		store, err := checkpoint.NewStore(ctx, flags.MongoURI)
		if err != nil {
			log.Printf("checkpoint store unavailable, continuing without it: %v", err)
		} else {
			defer store.Close(context.Background())
			if err := store.Migrate(ctx); err != nil {
				log.Printf("checkpoint migration failed, continuing without it: %v", err)
			} else {
				d.Checkpoint = store
				go checkpoint.RunStaleLockPruner(ctx, store)
			}
		}
	}

	log.Printf("sweep starting: instance=%s product=%s zones=%v bid_ratios=%v datasets=%v",
		workload.InstanceType, workload.Product, workload.AvZone, workload.BidRatio, workload.NumJobs)

	if err := d.Run(ctx, workload, flags.NumWorkers); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	log.Println("sweep complete")
	return nil
}
