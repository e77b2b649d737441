// Package sweep drives the parameter sweep: it cross-products zone,
// bid ratio, and dataset-count into triples, replays the simulator and
// roll-up across a stride of start instants for each, and persists the
// resulting frames, skipping any triple whose output already exists.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ndrandal/spot-sim/internal/config"
	"github.com/ndrandal/spot-sim/internal/pricehistory"
	"github.com/ndrandal/spot-sim/internal/pricing"
	"github.com/ndrandal/spot-sim/internal/rollup"
	"github.com/ndrandal/spot-sim/internal/simulator"
)

// stride is the fixed interval between sweep start instants.
const stride = 20 * time.Minute

// CheckpointStore records and queries completed triples so a resumed
// sweep can skip work that another run already finished. Satisfied by
// internal/checkpoint.Store; nil disables checkpointing entirely.
type CheckpointStore interface {
	IsComplete(ctx context.Context, zone, instance string, numJobs int, bidRatio float64) (bool, error)
	MarkStarted(ctx context.Context, zone, instance string, numJobs int, bidRatio float64) error
	MarkComplete(ctx context.Context, zone, instance string, numJobs int, bidRatio float64) error
}

// Driver owns the archive and output directory for one sweep run.
type Driver struct {
	Archive     *pricehistory.Archive
	ArchivePath string // optional: single-CSV override, bypasses directory archive lookup
	OutDir      string
	Logger      *log.Logger
	Checkpoint  CheckpointStore
}

// New constructs a Driver with a default stderr logger if none given.
func New(archive *pricehistory.Archive, outDir string, logger *log.Logger) *Driver {
	if logger == nil {
		logger = log.New(os.Stderr, "sweep: ", log.LstdFlags)
	}
	return &Driver{Archive: archive, OutDir: outDir, Logger: logger}
}

// Run expands the workload into triples and evaluates them concurrently,
// bounded by numWorkers in flight at once. A single triple's failure
// never aborts the sweep: it is logged and the driver moves to the next.
func (d *Driver) Run(ctx context.Context, w config.Workload, numWorkers int) error {
	triples := Expand(w)
	if len(triples) == 0 {
		return fmt.Errorf("sweep: workload expands to zero triples")
	}

	g := new(errgroup.Group)
	g.SetLimit(numWorkers)

	for _, triple := range triples {
		triple := triple
		g.Go(func() error {
			if err := d.runTriple(ctx, triple, w); err != nil {
				d.Logger.Printf("triple %s/%s/%d-jobs failed: %v", triple.Zone, formatRatio(triple.BidRatio), triple.NumJobs, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (d *Driver) runTriple(ctx context.Context, triple Triple, w config.Workload) error {
	logger := log.New(d.Logger.Writer(),
		fmt.Sprintf("sweep %s %s %d-jobs %s-bid: ", triple.Zone, w.InstanceType, triple.NumJobs, formatRatio(triple.BidRatio)),
		d.Logger.Flags())

	simOut := simPath(d.OutDir, w.InstanceType, triple.Zone, triple.NumJobs, triple.BidRatio)
	if exists(simOut) {
		logger.Printf("skipping %s: output already present", simOut)
		return nil
	}

	if d.Checkpoint != nil {
		done, err := d.Checkpoint.IsComplete(ctx, triple.Zone, w.InstanceType, triple.NumJobs, triple.BidRatio)
		if err != nil {
			logger.Printf("checkpoint lookup failed for %s/%d/%s: %v", triple.Zone, triple.NumJobs, formatRatio(triple.BidRatio), err)
		} else if done {
			logger.Printf("skipping %s/%d/%s: checkpoint marks complete", triple.Zone, triple.NumJobs, formatRatio(triple.BidRatio))
			return nil
		}
		if err := d.Checkpoint.MarkStarted(ctx, triple.Zone, w.InstanceType, triple.NumJobs, triple.BidRatio); err != nil {
			logger.Printf("checkpoint mark-started failed for %s/%d/%s: %v", triple.Zone, triple.NumJobs, formatRatio(triple.BidRatio), err)
		}
	}

	key := pricehistory.Key{InstanceType: w.InstanceType, Product: w.Product, Zone: triple.Zone}

	series, err := d.loadSeries(key)
	if err != nil {
		return fmt.Errorf("loading series for %s: %w", key, err)
	}

	rates, err := pricing.Lookup(triple.Zone)
	if err != nil {
		return fmt.Errorf("pricing lookup for %s: %w", triple.Zone, err)
	}

	shape := DeriveShape(triple.NumJobs, w.JobsPer)
	bidPrice := triple.BidRatio * series.Mean()
	interp := pricehistory.NewInterpolated(series)
	procTime := time.Duration(w.ProcTimeSec * float64(time.Second))

	points := make([]Point, 0)
	totals := make([]rollup.Totals, 0)

	for _, start := range series.Stride(stride) {
		result, err := simulator.Run(simulator.Params{
			StartTime: start.Time,
			Series:    series,
			Interp:    interp,
			ProcTime:  procTime,
			NumIter:   shape.NumIter,
			BidPrice:  bidPrice,
		})
		if err != nil {
			if errors.Is(err, simulator.ErrInsufficientRunway) {
				continue
			}
			return fmt.Errorf("simulating start=%s: %w", start.Time, err)
		}

		points = append(points, Point{
			StartTime:     start.Time,
			SpotHistCSV:   d.sourceLabel(key),
			ProcTimeSec:   w.ProcTimeSec,
			NumDatasets:   triple.NumJobs,
			JobsPerNode:   w.JobsPer,
			NumJobsIter:   shape.NumIter,
			BidRatio:      triple.BidRatio,
			BidPrice:      bidPrice,
			MedianHistory: series.Median(),
			MeanHistory:   series.Mean(),
			StdevHistory:  series.Stdev(),
			ComputeTime:   result.RunTime.Seconds(),
			WaitTime:      result.WaitTime.Seconds(),
			PerNodeCost:   result.NodeCost,
			NumInterrupts: result.NumInterrupts,
			FirstIterTime: result.FirstWaveTime.Seconds(),
		})

		totals = append(totals, rollup.Compute(rollup.NodeResult{
			RunTime:       result.RunTime,
			WaitTime:      result.WaitTime,
			NodeCost:      result.NodeCost,
			FirstWaveTime: result.FirstWaveTime,
		}, rollup.Workload{
			NumJobs:    triple.NumJobs,
			NumNodes:   shape.NumNodes,
			JobsPer:    w.JobsPer,
			Zone:       triple.Zone,
			InGB:       w.InGB,
			OutGB:      w.OutGB,
			OutGBDL:    w.OutGBDL,
			UpRateMb:   w.UpRateMb,
			DownRateMb: w.DownRateMb,
		}, rates))
	}

	if len(points) == 0 {
		return fmt.Errorf("no start instant in %s produced sufficient runway", key)
	}

	if err := writeSimFrame(simOut, points); err != nil {
		return err
	}
	if err := writeStatsFrame(statsPath(d.OutDir, w.InstanceType, triple.Zone, triple.NumJobs, triple.BidRatio), totals); err != nil {
		return err
	}
	params := map[string]any{
		"proc_time":     w.ProcTimeSec,
		"num_jobs":      triple.NumJobs,
		"jobs_per":      w.JobsPer,
		"in_gb":         w.InGB,
		"out_gb":        w.OutGB,
		"out_gb_dl":     w.OutGBDL,
		"up_rate":       w.UpRateMb,
		"down_rate":     w.DownRateMb,
		"bid_ratio":     triple.BidRatio,
		"instance_type": w.InstanceType,
		"av_zone":       triple.Zone,
		"product":       w.Product,
		"num_nodes":     shape.NumNodes,
	}
	if err := writeParamsSidecar(paramsPath(d.OutDir, w.InstanceType, triple.Zone, triple.NumJobs, triple.BidRatio), params); err != nil {
		return err
	}

	if d.Checkpoint != nil {
		if err := d.Checkpoint.MarkComplete(ctx, triple.Zone, w.InstanceType, triple.NumJobs, triple.BidRatio); err != nil {
			logger.Printf("checkpoint write failed for %s/%d/%s: %v", triple.Zone, triple.NumJobs, formatRatio(triple.BidRatio), err)
		}
	}

	return nil
}

func (d *Driver) loadSeries(key pricehistory.Key) (pricehistory.Series, error) {
	if d.ArchivePath != "" {
		return d.Archive.LoadCSV(d.ArchivePath, key)
	}
	return d.Archive.Load(key)
}

func (d *Driver) sourceLabel(key pricehistory.Key) string {
	if d.ArchivePath != "" {
		return d.ArchivePath
	}
	return d.Archive.Path("archive", key)
}
