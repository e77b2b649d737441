package sweep

import (
	"math"

	"github.com/ndrandal/spot-sim/internal/config"
)

// workerCap is the maximum node count a cluster will scale to,
// regardless of how many datasets the workload calls for.
const workerCap = 20

// Triple is one (zone, bid ratio, dataset count) point in the sweep.
type Triple struct {
	Zone     string
	BidRatio float64
	NumJobs  int
}

// Expand cross-products the workload's zone, bid ratio, and job-count
// lists into the full set of triples the sweep must evaluate.
func Expand(w config.Workload) []Triple {
	triples := make([]Triple, 0, len(w.AvZone)*len(w.BidRatio)*len(w.NumJobs))
	for _, zone := range w.AvZone {
		for _, bid := range w.BidRatio {
			for _, n := range w.NumJobs {
				triples = append(triples, Triple{Zone: zone, BidRatio: bid, NumJobs: n})
			}
		}
	}
	return triples
}

// ClusterShape derives the node count and per-node wave count for a
// given dataset count and jobs-per-node, capped at workerCap nodes.
type ClusterShape struct {
	NumNodes int
	NumIter  int
}

func DeriveShape(numJobs, jobsPer int) ClusterShape {
	numNodes := int(math.Ceil(float64(numJobs) / float64(jobsPer)))
	if numNodes > workerCap {
		numNodes = workerCap
	}
	if numNodes < 1 {
		numNodes = 1
	}
	numIter := int(math.Ceil(float64(numJobs) / (float64(jobsPer) * float64(numNodes))))
	if numIter < 1 {
		numIter = 1
	}
	return ClusterShape{NumNodes: numNodes, NumIter: numIter}
}
