package rollup

import (
	"testing"
	"time"

	"github.com/ndrandal/spot-sim/internal/pricing"
)

func testRates(t *testing.T) pricing.Rates {
	t.Helper()
	r, err := pricing.Lookup("us-east-1b")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	return r
}

func TestComputeSingleNodeSingleIterArithmetic(t *testing.T) {
	rates := testRates(t)
	node := NodeResult{
		RunTime:       time.Hour,
		WaitTime:      0,
		NodeCost:      0.05,
		FirstWaveTime: time.Hour,
	}
	w := Workload{
		NumJobs:    1,
		NumNodes:   1,
		JobsPer:    1,
		Zone:       "us-east-1b",
		InGB:       1,
		OutGB:      1,
		OutGBDL:    1,
		UpRateMb:   100,
		DownRateMb: 100,
	}
	totals := Compute(node, w, rates)

	if totals.InstanceCost <= 0 {
		t.Errorf("InstanceCost = %v, want > 0", totals.InstanceCost)
	}
	if totals.TotalCost < totals.InstanceCost {
		t.Errorf("TotalCost = %v should be >= InstanceCost = %v", totals.TotalCost, totals.InstanceCost)
	}
	// Single node, single iteration: node cost contributes directly.
	wantNodesCost := node.NodeCost * float64(w.NumNodes)
	if totals.InstanceCost < wantNodesCost {
		t.Errorf("InstanceCost = %v should be >= raw node cost %v", totals.InstanceCost, wantNodesCost)
	}
}

func TestComputeZeroJobsIsFree(t *testing.T) {
	rates := testRates(t)
	node := NodeResult{}
	w := Workload{
		NumJobs:    0,
		NumNodes:   1,
		JobsPer:    1,
		Zone:       "us-east-1b",
		UpRateMb:   100,
		DownRateMb: 100,
	}
	totals := Compute(node, w, rates)
	if totals.XferCost != 0 {
		t.Errorf("XferCost = %v, want 0 for zero jobs", totals.XferCost)
	}
	if totals.TotalCost != 0 {
		t.Errorf("TotalCost = %v, want 0 for zero jobs", totals.TotalCost)
	}
}

func TestComputeScalesWithNodeCount(t *testing.T) {
	rates := testRates(t)
	node := NodeResult{
		RunTime:       time.Hour,
		FirstWaveTime: time.Hour,
		NodeCost:      0.10,
	}
	base := Workload{
		NumJobs: 10, JobsPer: 5, Zone: "us-east-1b",
		InGB: 1, OutGB: 1, OutGBDL: 1, UpRateMb: 100, DownRateMb: 100,
	}

	oneNode := base
	oneNode.NumNodes = 1
	twoNodes := base
	twoNodes.NumNodes = 2

	totalsOne := Compute(node, oneNode, rates)
	totalsTwo := Compute(node, twoNodes, rates)

	if totalsTwo.InstanceCost <= totalsOne.InstanceCost {
		t.Errorf("doubling nodes should increase instance cost: one=%v two=%v", totalsOne.InstanceCost, totalsTwo.InstanceCost)
	}
}
