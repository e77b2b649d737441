package simulator

import (
	"testing"
	"time"

	"github.com/ndrandal/spot-sim/internal/pricehistory"
)

func mustSeries(t *testing.T, samples []pricehistory.Sample) pricehistory.Series {
	t.Helper()
	key := pricehistory.Key{InstanceType: "c4.2xlarge", Product: "Linux/UNIX", Zone: "us-east-1b"}
	for i := range samples {
		samples[i].InstanceType = key.InstanceType
		samples[i].Product = key.Product
		samples[i].Zone = key.Zone
	}
	s, err := pricehistory.NewSeries(key, samples)
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}
	return s
}

func mustT(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// A flat, cheap series never interrupts: the job runs to completion in
// exactly ProcTime*NumIter with no wait.
func TestRunFlatCheapSeriesNeverInterrupts(t *testing.T) {
	series := mustSeries(t, []pricehistory.Sample{
		{Price: 0.01, Timestamp: mustT("2020-01-01T00:00:00Z")},
		{Price: 0.01, Timestamp: mustT("2020-01-02T00:00:00Z")},
	})
	params := Params{
		StartTime: mustT("2020-01-01T00:00:00Z"),
		Series:    series,
		Interp:    pricehistory.NewInterpolated(series),
		ProcTime:  time.Hour,
		NumIter:   3,
		BidPrice:  1.00,
	}
	result, err := Run(params)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.RunTime != 3*time.Hour {
		t.Errorf("RunTime = %v, want 3h", result.RunTime)
	}
	if result.NumInterrupts != 0 {
		t.Errorf("NumInterrupts = %d, want 0", result.NumInterrupts)
	}
	if result.WaitTime != 0 {
		t.Errorf("WaitTime = %v, want 0", result.WaitTime)
	}
}

// If the price at the chosen start instant already meets or exceeds
// the bid, the run is interrupted immediately with zero uptime and
// zero cost charged for that attempt; only the resumed run is billed.
func TestRunZeroChargeOnImmediateInterrupt(t *testing.T) {
	series := mustSeries(t, []pricehistory.Sample{
		{Price: 5.00, Timestamp: mustT("2020-01-01T00:00:00Z")},
		{Price: 0.01, Timestamp: mustT("2020-01-01T01:00:00Z")},
		{Price: 0.01, Timestamp: mustT("2020-01-02T00:00:00Z")},
	})
	params := Params{
		StartTime: mustT("2020-01-01T00:00:00Z"),
		Series:    series,
		Interp:    pricehistory.NewInterpolated(series),
		ProcTime:  time.Hour,
		NumIter:   1,
		BidPrice:  1.00,
	}
	result, err := Run(params)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.NumInterrupts != 0 {
		t.Errorf("NumInterrupts = %d, want 0 (immediate interrupt doesn't count as a preemption)", result.NumInterrupts)
	}
	if result.NodeCost != 0.01 {
		t.Errorf("NodeCost = %v, want 0.01 (uptime-0 attempt free, resumed 1h run billed one hour at 0.01)", result.NodeCost)
	}
	if result.WaitTime != time.Hour {
		t.Errorf("WaitTime = %v, want 1h (wait until price drops back below bid)", result.WaitTime)
	}
}

// A single spike above the bid mid-run causes exactly one interruption
// and redoes the in-progress wave from scratch on resume.
func TestRunSingleSpikeInterruptsOnce(t *testing.T) {
	series := mustSeries(t, []pricehistory.Sample{
		{Price: 0.01, Timestamp: mustT("2020-01-01T00:00:00Z")},
		{Price: 5.00, Timestamp: mustT("2020-01-01T00:30:00Z")}, // spike mid-wave
		{Price: 0.01, Timestamp: mustT("2020-01-01T01:00:00Z")}, // resumes
		{Price: 0.01, Timestamp: mustT("2020-01-02T00:00:00Z")},
	})
	params := Params{
		StartTime: mustT("2020-01-01T00:00:00Z"),
		Series:    series,
		Interp:    pricehistory.NewInterpolated(series),
		ProcTime:  time.Hour,
		NumIter:   1,
		BidPrice:  1.00,
	}
	result, err := Run(params)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.NumInterrupts != 1 {
		t.Fatalf("NumInterrupts = %d, want 1", result.NumInterrupts)
	}
	if result.WaitTime != 30*time.Minute {
		t.Errorf("WaitTime = %v, want 30m", result.WaitTime)
	}
	// Redone wave: 30m run before interrupt, discarded, then full 1h
	// wave resumed and completed.
	if result.RunTime != 90*time.Minute {
		t.Errorf("RunTime = %v, want 1h30m (30m discarded wave + full 1h redo)", result.RunTime)
	}
}

// When the series runs out before the workload completes and no
// resume point can be found, Run reports ErrInsufficientRunway.
func TestRunInsufficientRunway(t *testing.T) {
	series := mustSeries(t, []pricehistory.Sample{
		{Price: 5.00, Timestamp: mustT("2020-01-01T00:00:00Z")},
		{Price: 5.00, Timestamp: mustT("2020-01-01T01:00:00Z")},
	})
	params := Params{
		StartTime: mustT("2020-01-01T00:00:00Z"),
		Series:    series,
		Interp:    pricehistory.NewInterpolated(series),
		ProcTime:  time.Hour,
		NumIter:   1,
		BidPrice:  1.00,
	}
	_, err := Run(params)
	if err != ErrInsufficientRunway {
		t.Errorf("Run = %v, want ErrInsufficientRunway", err)
	}
}

// FirstWaveTime is set once, the first time a full wave's worth of
// run time has accrued, to ProcTime plus whatever wait preceded it.
func TestRunFirstWaveTimeIncludesPriorWait(t *testing.T) {
	series := mustSeries(t, []pricehistory.Sample{
		{Price: 5.00, Timestamp: mustT("2020-01-01T00:00:00Z")}, // immediate interrupt
		{Price: 0.01, Timestamp: mustT("2020-01-01T00:15:00Z")}, // resumes after 15m wait
		{Price: 0.01, Timestamp: mustT("2020-01-02T00:00:00Z")},
	})
	params := Params{
		StartTime: mustT("2020-01-01T00:00:00Z"),
		Series:    series,
		Interp:    pricehistory.NewInterpolated(series),
		ProcTime:  time.Hour,
		NumIter:   1,
		BidPrice:  1.00,
	}
	result, err := Run(params)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := time.Hour + 15*time.Minute
	if result.FirstWaveTime != want {
		t.Errorf("FirstWaveTime = %v, want %v", result.FirstWaveTime, want)
	}
}
