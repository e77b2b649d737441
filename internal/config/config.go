// Package config loads the sweep's workload parameters from YAML. The
// sweep binary's command-line flags are parsed by cobra in cmd/sweep
// and passed around as the Flags struct defined here.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfig is returned when a workload file is malformed or missing a
// required key. Callers check it with errors.Is; the sweep binary
// treats it as fatal.
var ErrConfig = errors.New("config: invalid workload")

// Workload is the YAML-sourced description of the job submission to
// sweep over: how big the work is, how it's split across nodes, and
// the AWS placement/instance parameters to hold fixed while the sweep
// varies zone, bid ratio, and dataset size.
type Workload struct {
	ProcTimeSec  float64   `yaml:"proc_time"`
	NumJobs      []int     `yaml:"num_jobs"`
	JobsPer      int       `yaml:"jobs_per"`
	InGB         float64   `yaml:"in_gb"`
	OutGB        float64   `yaml:"out_gb"`
	OutGBDL      float64   `yaml:"out_gb_dl"`
	UpRateMb     float64   `yaml:"up_rate"`
	DownRateMb   float64   `yaml:"down_rate"`
	BidRatio     []float64 `yaml:"bid_ratio"`
	InstanceType string    `yaml:"instance_type"`
	AvZone       []string  `yaml:"av_zone"`
	Product      string    `yaml:"product"`
}

// LoadWorkload reads, parses, and validates a sweep workload YAML file.
func LoadWorkload(path string) (Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Workload{}, fmt.Errorf("config: reading workload file: %w", err)
	}
	var w Workload
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Workload{}, fmt.Errorf("config: parsing workload file %s: %w", path, err)
	}
	if err := w.Validate(); err != nil {
		return Workload{}, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// Validate checks that every required key is present and, for numeric
// fields, positive. A zero value left by a missing YAML key would
// otherwise pass through silently: proc_time: 0 makes the simulator
// return all-zero results, and up_rate: 0 or down_rate: 0 divides by
// zero in rollup.Compute.
func (w Workload) Validate() error {
	switch {
	case w.ProcTimeSec <= 0:
		return fmt.Errorf("%w: proc_time must be positive", ErrConfig)
	case w.JobsPer <= 0:
		return fmt.Errorf("%w: jobs_per must be positive", ErrConfig)
	case w.InGB <= 0:
		return fmt.Errorf("%w: in_gb must be positive", ErrConfig)
	case w.OutGB <= 0:
		return fmt.Errorf("%w: out_gb must be positive", ErrConfig)
	case w.OutGBDL <= 0:
		return fmt.Errorf("%w: out_gb_dl must be positive", ErrConfig)
	case w.UpRateMb <= 0:
		return fmt.Errorf("%w: up_rate must be positive", ErrConfig)
	case w.DownRateMb <= 0:
		return fmt.Errorf("%w: down_rate must be positive", ErrConfig)
	case w.InstanceType == "":
		return fmt.Errorf("%w: instance_type is required", ErrConfig)
	case w.Product == "":
		return fmt.Errorf("%w: product is required", ErrConfig)
	case len(w.NumJobs) == 0:
		return fmt.Errorf("%w: num_jobs must have at least one entry", ErrConfig)
	case len(w.BidRatio) == 0:
		return fmt.Errorf("%w: bid_ratio must have at least one entry", ErrConfig)
	case len(w.AvZone) == 0:
		return fmt.Errorf("%w: av_zone must have at least one entry", ErrConfig)
	}
	for _, n := range w.NumJobs {
		if n <= 0 {
			return fmt.Errorf("%w: num_jobs entries must be positive", ErrConfig)
		}
	}
	for _, r := range w.BidRatio {
		if r <= 0 {
			return fmt.Errorf("%w: bid_ratio entries must be positive", ErrConfig)
		}
	}
	return nil
}

// Flags holds the sweep binary's command-line configuration. Node
// count per cluster is not configured here: it's derived per-triple
// from the workload's dataset count (see sweep.DeriveShape).
type Flags struct {
	ConfigPath  string // -c/--config: workload YAML path
	OutDir      string // -o/--out: output directory for sweep results
	ArchivePath string // -s/--spot-csv: single-file price archive CSV (optional override)
	MongoURI    string // --mongo-uri: checkpoint store (optional, empty disables)
	NumWorkers  int    // -n/--cores: bounded worker pool size
}
