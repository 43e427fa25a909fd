package routingalgorithm

import (
	"lintang/campusnav/pkg/concurrent"
	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/engine/cost"
)

type legResult struct {
	leg    datastructure.Leg
	result RouteResult
}

// ShortestPathManyToMany runs A* for every leg on numWorkers goroutines. Searches only
// read the network, so the caller needs shared (not exclusive) access while this runs.
// Duplicate legs and legs with From == To are searched once.
func (rt *RouteAlgorithm) ShortestPathManyToMany(legs []datastructure.Leg, mode datastructure.TravelMode,
	traffic cost.TrafficCondition, numWorkers int) map[datastructure.Leg]RouteResult {
	unique := make([]datastructure.Leg, 0, len(legs))
	seen := make(map[datastructure.Leg]struct{}, len(legs))
	for _, l := range legs {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		unique = append(unique, l)
	}

	results := make(map[datastructure.Leg]RouteResult, len(unique))
	if len(unique) == 0 {
		return results
	}

	workers := concurrent.NewWorkerPool[concurrent.LegJobItem, legResult](numWorkers, len(unique))
	for _, l := range unique {
		workers.AddJob(concurrent.LegJobItem{From: l.From, To: l.To})
	}
	workers.Close()

	workers.Start(func(job concurrent.LegJobItem) legResult {
		return legResult{
			leg:    datastructure.Leg{From: job.From, To: job.To},
			result: rt.AStar(job.From, job.To, mode, traffic),
		}
	})
	workers.Wait()

	for r := range workers.CollectResults() {
		results[r.leg] = r.result
	}
	return results
}
