package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWorkloadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workload.yml")
	raw := `
proc_time: 3600
num_jobs: [60, 100]
jobs_per: 5
in_gb: 2.5
out_gb: 1.0
out_gb_dl: 1.0
up_rate: 100
down_rate: 100
bid_ratio: [0.5, 2.0]
instance_type: c4.2xlarge
av_zone: [us-east-1b, us-west-2a]
product: Linux/UNIX
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := LoadWorkload(path)
	if err != nil {
		t.Fatalf("LoadWorkload: %v", err)
	}
	if len(w.NumJobs) != 2 || w.NumJobs[1] != 100 || w.JobsPer != 5 {
		t.Errorf("NumJobs/JobsPer = %v/%d, want [60 100]/5", w.NumJobs, w.JobsPer)
	}
	if w.InstanceType != "c4.2xlarge" {
		t.Errorf("InstanceType = %q, want c4.2xlarge", w.InstanceType)
	}
	if len(w.BidRatio) != 2 || w.BidRatio[0] != 0.5 {
		t.Errorf("BidRatio = %v, want [0.5 2.0]", w.BidRatio)
	}
	if len(w.AvZone) != 2 || w.AvZone[1] != "us-west-2a" {
		t.Errorf("AvZone = %v, want [us-east-1b us-west-2a]", w.AvZone)
	}
}

func TestLoadWorkloadMissingFile(t *testing.T) {
	if _, err := LoadWorkload("/nonexistent/workload.yml"); err == nil {
		t.Error("LoadWorkload on missing file: want error, got nil")
	}
}

func TestLoadWorkloadMissingRequiredKeyIsErrConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workload.yml")
	// proc_time omitted entirely: unmarshals to 0, which must be
	// rejected rather than silently producing an all-zero simulation.
	raw := `
num_jobs: [60]
jobs_per: 5
in_gb: 2.5
out_gb: 1.0
out_gb_dl: 1.0
up_rate: 100
down_rate: 100
bid_ratio: [0.5]
instance_type: c4.2xlarge
av_zone: [us-east-1b]
product: Linux/UNIX
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadWorkload(path)
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("LoadWorkload with missing proc_time: err = %v, want ErrConfig", err)
	}
}

func TestValidateRejectsZeroRate(t *testing.T) {
	w := Workload{
		ProcTimeSec: 3600, JobsPer: 5, InGB: 1, OutGB: 1, OutGBDL: 1,
		UpRateMb: 0, DownRateMb: 100,
		NumJobs: []int{60}, BidRatio: []float64{0.5}, AvZone: []string{"us-east-1b"},
		InstanceType: "c4.2xlarge", Product: "Linux/UNIX",
	}
	if err := w.Validate(); !errors.Is(err, ErrConfig) {
		t.Fatalf("Validate with up_rate=0: err = %v, want ErrConfig", err)
	}
}

func TestValidateAcceptsWellFormedWorkload(t *testing.T) {
	w := Workload{
		ProcTimeSec: 3600, JobsPer: 5, InGB: 1, OutGB: 1, OutGBDL: 1,
		UpRateMb: 100, DownRateMb: 100,
		NumJobs: []int{60}, BidRatio: []float64{0.5}, AvZone: []string{"us-east-1b"},
		InstanceType: "c4.2xlarge", Product: "Linux/UNIX",
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("Validate on well-formed workload: %v", err)
	}
}

