package sweep

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ndrandal/spot-sim/internal/rollup"
)

// Point is one row of the raw-simulator frame: a single start instant
// within a triple's sweep, plus the derived workload shape and the
// simulator's raw output.
type Point struct {
	StartTime     time.Time
	SpotHistCSV   string
	ProcTimeSec   float64
	NumDatasets   int
	JobsPerNode   int
	NumJobsIter   int
	BidRatio      float64
	BidPrice      float64
	MedianHistory float64
	MeanHistory   float64
	StdevHistory  float64
	ComputeTime   float64
	WaitTime      float64
	PerNodeCost   float64
	NumInterrupts int
	FirstIterTime float64
}

var simHeader = []string{
	"start_time", "spot_hist_csv", "proc_time", "num_datasets", "jobs_per_node",
	"num_jobs_iter", "bid_ratio", "bid_price", "median_history", "mean_history",
	"stdev_history", "compute_time", "wait_time", "per_node_cost", "num_interrupts",
	"first_iter_time",
}

// statsHeader preserves the wire-format-frozen "Tranfer" spelling for
// downstream compatibility with existing result consumers.
var statsHeader = []string{
	"Total cost", "Instance cost", "Storage cost", "Tranfer cost",
	"Total time", "Run time", "Wait time", "Upload time", "Download time",
}

// resultDir returns the per-zone output directory for a triple.
func resultDir(outDir, zone string) string {
	return filepath.Join(outDir, zone)
}

// simPath returns the raw-simulator frame path for a triple.
func simPath(outDir, instance, zone string, numJobs int, bidRatio float64) string {
	return filepath.Join(resultDir(outDir, zone), fmt.Sprintf("%s_%d-jobs_%s-bid_sim.csv", instance, numJobs, formatRatio(bidRatio)))
}

// statsPath returns the roll-up frame path for a triple.
func statsPath(outDir, instance, zone string, numJobs int, bidRatio float64) string {
	return filepath.Join(resultDir(outDir, zone), fmt.Sprintf("%s_%d-jobs_%s-bid_stats.csv", instance, numJobs, formatRatio(bidRatio)))
}

// paramsPath returns the reproducibility sidecar path for a triple.
func paramsPath(outDir, instance, zone string, numJobs int, bidRatio float64) string {
	return filepath.Join(resultDir(outDir, zone), fmt.Sprintf("%s_%d-jobs_%s-bid_params.yml", instance, numJobs, formatRatio(bidRatio)))
}

func formatRatio(r float64) string {
	return strconv.FormatFloat(r, 'g', -1, 64)
}

// exists reports whether path already exists, per the driver's
// skip-if-already-swept policy.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeSimFrame(path string, points []Point) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("sweep: creating output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sweep: creating sim frame %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(simHeader); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			p.StartTime.UTC().Format(time.RFC3339),
			p.SpotHistCSV,
			formatFloat(p.ProcTimeSec),
			strconv.Itoa(p.NumDatasets),
			strconv.Itoa(p.JobsPerNode),
			strconv.Itoa(p.NumJobsIter),
			formatFloat(p.BidRatio),
			formatFloat(p.BidPrice),
			formatFloat(p.MedianHistory),
			formatFloat(p.MeanHistory),
			formatFloat(p.StdevHistory),
			formatFloat(p.ComputeTime),
			formatFloat(p.WaitTime),
			formatFloat(p.PerNodeCost),
			strconv.Itoa(p.NumInterrupts),
			formatFloat(p.FirstIterTime),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeStatsFrame(path string, totals []rollup.Totals) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("sweep: creating output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sweep: creating stats frame %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(statsHeader); err != nil {
		return err
	}
	for _, t := range totals {
		row := []string{
			formatFloat(t.TotalCost),
			formatFloat(t.InstanceCost),
			formatFloat(t.StorageCost),
			formatFloat(t.XferCost),
			formatFloat(t.TotalTime.Minutes()),
			formatFloat(t.RunTime.Minutes()),
			formatFloat(t.WaitTime.Minutes()),
			formatFloat(t.XferUpTime.Minutes()),
			formatFloat(t.XferDownTime.Minutes()),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeParamsSidecar(path string, params map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("sweep: creating output dir: %w", err)
	}
	data, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("sweep: marshalling params sidecar: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("sweep: writing params sidecar %s: %w", path, err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
