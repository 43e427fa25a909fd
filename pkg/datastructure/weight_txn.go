package datastructure

import "math"

type edgeRef struct {
	from int64
	idx  int
}

// WeightTxn scopes temporary edge weight changes. The first time an edge is touched its
// original weight is recorded; Rollback writes every recorded weight back. Callers
// defer Rollback right after Begin so the network is restored on every exit path.
type WeightTxn struct {
	g        *RoadNetwork
	original map[edgeRef]float64
	touched  []edgeRef
	closed   bool
}

func (g *RoadNetwork) BeginWeightTxn() *WeightTxn {
	return &WeightTxn{
		g:        g,
		original: make(map[edgeRef]float64),
	}
}

func (t *WeightTxn) record(ref edgeRef) {
	if _, ok := t.original[ref]; ok {
		return
	}
	t.original[ref] = t.g.adj[ref.from][ref.idx].Weight
	t.touched = append(t.touched, ref)
}

// SetWeight overwrites every parallel edge from->to and returns how many were changed.
func (t *WeightTxn) SetWeight(from, to int64, weight float64) int {
	if t.closed {
		return 0
	}
	n := 0
	for _, i := range t.g.edgeIndexes(from, to) {
		ref := edgeRef{from, i}
		t.record(ref)
		t.g.adj[from][i].Weight = weight
		n++
	}
	return n
}

// Scale multiplies the current weight of every finite from->to edge by factor.
// A factor of +Inf forbids the edge.
func (t *WeightTxn) Scale(from, to int64, factor float64) int {
	if t.closed {
		return 0
	}
	n := 0
	for _, i := range t.g.edgeIndexes(from, to) {
		w := t.g.adj[from][i].Weight
		if math.IsInf(w, 1) {
			continue
		}
		ref := edgeRef{from, i}
		t.record(ref)
		if math.IsInf(factor, 1) {
			t.g.adj[from][i].Weight = math.Inf(1)
		} else {
			t.g.adj[from][i].Weight = w * factor
		}
		n++
	}
	return n
}

func (t *WeightTxn) Forbid(from, to int64) int {
	return t.Scale(from, to, math.Inf(1))
}

// Modified is the number of distinct edges changed so far.
func (t *WeightTxn) Modified() int {
	return len(t.touched)
}

// Rollback restores every touched edge to its original weight. Safe to call twice.
func (t *WeightTxn) Rollback() {
	if t.closed {
		return
	}
	for i := len(t.touched) - 1; i >= 0; i-- {
		ref := t.touched[i]
		t.g.adj[ref.from][ref.idx].Weight = t.original[ref]
	}
	t.closed = true
}

// Commit keeps the modified weights, used by explicitly committed toggles.
func (t *WeightTxn) Commit() {
	t.closed = true
}
