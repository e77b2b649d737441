// Package simulator replays a spot price series against a bid to
// estimate one worker node's run time, wait time, cost, and
// interruption count for a sequential work-wave workload. Run is a
// pure, deterministic function: no goroutines, no I/O, no randomness.
package simulator

import (
	"errors"
	"math"
	"time"

	"github.com/ndrandal/spot-sim/internal/pricehistory"
)

// ErrInsufficientRunway is returned when the simulation runs off the
// end of the price history before the workload completes. The sweep
// driver treats this as non-fatal: it skips the current start instant
// and continues.
var ErrInsufficientRunway = errors.New("simulator: insufficient runway in price history")

// Params describes one simulation run.
type Params struct {
	StartTime time.Time
	Series    pricehistory.Series
	Interp    pricehistory.Interpolated
	ProcTime  time.Duration // time to complete one work wave
	NumIter   int           // number of sequential waves
	BidPrice  float64       // $/hour
}

// Result holds the outcome of one simulation run.
type Result struct {
	RunTime       time.Duration
	WaitTime      time.Duration
	NodeCost      float64
	NumInterrupts int
	FirstWaveTime time.Duration
}

// Run replays price from params.StartTime forward, billing and
// interrupting per the market's preemption model, until the workload
// (ProcTime * NumIter of work) completes or the price history runs out.
func Run(p Params) (Result, error) {
	remaining := p.ProcTime * time.Duration(p.NumIter)

	var (
		run, wait     time.Duration
		cost          float64
		interrupts    int
		firstWave     time.Duration
		firstWaveSeen bool
	)

	startTime := p.StartTime

	for remaining > 0 {
		startPrice, err := p.Interp.At(startTime)
		if err != nil {
			return Result{}, err
		}

		var uptime time.Duration
		var interruptTime time.Time

		if startPrice >= p.BidPrice {
			uptime = 0
			interruptTime = startTime
		} else {
			interruptTime = findInterrupt(p.Series, startTime, p.BidPrice)
			uptime = interruptTime.Sub(startTime)
		}

		if uptime >= remaining {
			cost += billedCost(p.Series, startTime, remaining, false)
			run += remaining
			remaining = 0
			if !firstWaveSeen && run >= p.ProcTime {
				firstWave = p.ProcTime + wait
				firstWaveSeen = true
			}
			break
		}

		if uptime > 0 {
			interrupts++
		}
		run += uptime
		cost += billedCost(p.Series, startTime, uptime, true)

		remaining = remaining - uptime + (uptime % p.ProcTime)

		resumeTime, ok := findResume(p.Series, interruptTime, p.BidPrice)
		if !ok {
			return Result{}, ErrInsufficientRunway
		}

		wait += resumeTime.Sub(interruptTime)
		startTime = resumeTime

		if !firstWaveSeen && run >= p.ProcTime {
			firstWave = p.ProcTime + wait
			firstWaveSeen = true
		}
	}

	return Result{
		RunTime:       run,
		WaitTime:      wait,
		NodeCost:      cost,
		NumInterrupts: interrupts,
		FirstWaveTime: firstWave,
	}, nil
}

// findInterrupt returns the first stored timestamp at or after start
// whose raw price is >= bid. If none exists, returns the series' last
// timestamp (the caller's uptime computation will then exceed whatever
// work remains, or the caller finds no resume point and fails).
func findInterrupt(series pricehistory.Series, start time.Time, bid float64) time.Time {
	for _, tp := range series.RawFrom(start) {
		if tp.Price >= bid {
			return tp.Time
		}
	}
	return series.Last()
}

// findResume returns the first stored timestamp strictly after
// interruptTime whose raw price is < bid (resume is strict to avoid
// oscillation at equality). Returns ok=false if no such point exists
// before the series ends, including when the only candidate is the
// series' final timestamp (no further room to run).
func findResume(series pricehistory.Series, interruptTime time.Time, bid float64) (time.Time, bool) {
	last := series.Last()
	for _, tp := range series.RawAfter(interruptTime) {
		if tp.Price < bid {
			if tp.Time.Equal(last) {
				return time.Time{}, false
			}
			return tp.Time, true
		}
	}
	return time.Time{}, false
}

// billedCost sums the per-hour prices in effect at launch+0h, +1h, ...
// for a run of length uptime starting at start. If interrupted, the
// in-progress final hour is dropped from the sum (not billed); if the
// run ended naturally, the partial final hour is billed in full at the
// price in effect at its start.
func billedCost(series pricehistory.Series, start time.Time, uptime time.Duration, interrupted bool) float64 {
	if uptime <= 0 {
		return 0
	}
	interp := pricehistory.NewInterpolated(series)

	payPeriods := int(math.Ceil(uptime.Seconds() / 3600.0))
	if payPeriods < 1 {
		payPeriods = 1
	}

	total := 0.0
	periods := payPeriods
	if interrupted {
		periods = payPeriods - 1
	}
	for i := 0; i < periods; i++ {
		hourStart := start.Add(time.Duration(i) * time.Hour)
		price, err := interp.At(hourStart)
		if err != nil {
			continue
		}
		total += price
	}
	return total
}
