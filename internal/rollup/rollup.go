// Package rollup turns one node's simulated run/wait/cost numbers into
// the full job-submission cost and wall-clock estimate: master-node
// compute, EBS storage for staged inputs/outputs, and EC2 egress for
// downloaded results.
package rollup

import (
	"math"
	"time"

	"github.com/ndrandal/spot-sim/internal/pricing"
)

// amiStorageGB is the fixed size of the cluster AMI charged against
// every node's EBS volume, independent of workload data.
const amiStorageGB = 30

const secsPerAvgMonth = (365 / 12.0) * 24 * 3600

// Workload describes the job submission being costed: how much work
// there is, how it's spread across nodes, and how fast data moves.
type Workload struct {
	NumJobs    int
	NumNodes   int
	JobsPer    int
	Zone       string
	InGB       float64
	OutGB      float64
	OutGBDL    float64
	UpRateMb   float64 // Mb/s
	DownRateMb float64 // Mb/s
}

// NodeResult is the per-node simulation outcome this package rolls up.
type NodeResult struct {
	RunTime       time.Duration
	WaitTime      time.Duration
	NodeCost      float64
	FirstWaveTime time.Duration
}

// Totals is the full cost/time breakdown for one job submission.
type Totals struct {
	TotalCost    float64
	InstanceCost float64
	StorageCost  float64
	XferCost     float64
	TotalTime    time.Duration
	RunTime      time.Duration
	WaitTime     time.Duration
	XferUpTime   time.Duration
	XferDownTime time.Duration
}

// Compute rolls up one node's simulated run into total cost and
// wall-clock time for the full job submission, including master-node
// compute, EBS storage, and data egress.
func Compute(node NodeResult, w Workload, rates pricing.Rates) Totals {
	execTime := node.RunTime + node.WaitTime

	upGBPerSec := w.UpRateMb / 8.0 / 1000.0
	downGBPerSec := w.DownRateMb / 8.0 / 1000.0

	xferUpTime := secondsToDuration(float64(w.NumJobs) * (w.InGB / upGBPerSec))

	numIter := math.Ceil(float64(w.NumJobs) / (float64(w.JobsPer) * float64(w.NumNodes)))
	numJobsN1 := (numIter - 1) * float64(w.NumNodes) * float64(w.JobsPer)
	residualJobs := float64(w.NumJobs) - numJobsN1

	xferDownTimeN1 := secondsToDuration(numJobsN1 * (w.OutGBDL / downGBPerSec))
	execTimeN1 := execTime - node.FirstWaveTime
	residualXferTime := secondsToDuration(residualJobs * (w.OutGBDL / downGBPerSec))

	masterUpTime := xferUpTime + node.FirstWaveTime + maxDuration(execTimeN1, xferDownTimeN1) + residualXferTime
	xferDownTime := xferDownTimeN1 + residualXferTime

	ebsNFSGB := float64(w.NumJobs) * (w.InGB + w.OutGB)
	masterGBMonths := (ebsNFSGB + amiStorageGB) * (3600.0 * math.Ceil(masterUpTime.Seconds()/3600.0) / secsPerAvgMonth)
	nodesGBMonths := float64(w.NumNodes) * amiStorageGB * (3600.0 * math.Ceil(node.RunTime.Seconds()/3600.0) / secsPerAvgMonth)
	storageCost := rates.BlockStoreGBMonth * (masterGBMonths + nodesGBMonths)

	masterCost := rates.HeadHourly * math.Ceil(masterUpTime.Hours())
	nodesCost := node.NodeCost * float64(w.NumNodes)
	instanceCost := masterCost + nodesCost

	xferCost := rates.Egress * (float64(w.NumJobs) * w.OutGBDL)

	totalCost := instanceCost + storageCost + xferCost

	return Totals{
		TotalCost:    totalCost,
		InstanceCost: instanceCost,
		StorageCost:  storageCost,
		XferCost:     xferCost,
		TotalTime:    masterUpTime,
		RunTime:      node.RunTime,
		WaitTime:     node.WaitTime,
		XferUpTime:   xferUpTime,
		XferDownTime: xferDownTime,
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
