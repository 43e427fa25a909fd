package routingalgorithm

import (
	"math"
	"strconv"
	"strings"

	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/engine/cost"
)

const firstPassPenalty = 10.0

// pathSignature sample kira-kira tiap 10% node dari path, buat deteksi path yang hampir sama.
func pathSignature(path []int64) string {
	step := len(path) / 10
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < len(path); i += step {
		sb.WriteString(strconv.FormatInt(path[i], 10))
		sb.WriteByte(',')
	}
	return sb.String()
}

// KShortestPaths runs A* up to k times, penalizing the edges of every accepted path
// (and their reverse edges) so the next run finds a different route. The first accepted
// path scales its edges by 10, later ones forbid them. A path whose signature was already
// seen is not returned, its edges are forbidden instead.
//
// All weight changes happen inside one WeightTxn and are rolled back before returning.
// Returned costs are re-evaluated on the restored weights. Paths are in discovery order,
// the first one is always the unpenalized shortest path.
//
// The caller must hold exclusive access to the network for the duration of the call.
func (rt *RouteAlgorithm) KShortestPaths(from, to int64, k int, mode datastructure.TravelMode,
	traffic cost.TrafficCondition) ([]RouteResult, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	txn := rt.g.BeginWeightTxn()
	defer txn.Rollback()

	found := make([]RouteResult, 0, k)
	seen := make(map[string]struct{})

	for iteration := 0; iteration < k; iteration++ {
		res := rt.AStar(from, to, mode, traffic)
		if !res.Found {
			break
		}

		sig := pathSignature(res.Path)
		if _, dup := seen[sig]; dup {
			for i := 0; i+1 < len(res.Path); i++ {
				txn.Forbid(res.Path[i], res.Path[i+1])
			}
			continue
		}
		seen[sig] = struct{}{}
		found = append(found, res)

		penalty := firstPassPenalty
		if iteration > 0 {
			penalty = math.Inf(1)
		}
		for i := 0; i+1 < len(res.Path); i++ {
			u, v := res.Path[i], res.Path[i+1]
			txn.Scale(u, v, penalty)
			txn.Scale(v, u, penalty)
		}
	}

	txn.Rollback()

	for i := range found {
		if c, ok := rt.PathCost(found[i].Path, mode, traffic); ok {
			found[i].Cost = c
		}
	}
	return found, nil
}
