package datastructure

import "math"

// RoadNetwork owns every node and the per-source adjacency lists.
// Nodes are immutable after insertion. Edge weights are only changed through a WeightTxn.
type RoadNetwork struct {
	nodes     map[int64]Node
	nodeOrder []int64
	adj       map[int64][]Edge
	edgeCount int

	// nodes that touch at least one edge valid for the mode, in insertion order
	modeNodes   map[TravelMode][]int64
	modeNodeSet map[TravelMode]map[int64]struct{}
}

func NewRoadNetwork() *RoadNetwork {
	return &RoadNetwork{
		nodes:     make(map[int64]Node),
		nodeOrder: make([]int64, 0),
		adj:       make(map[int64][]Edge),
		modeNodes: make(map[TravelMode][]int64),
		modeNodeSet: map[TravelMode]map[int64]struct{}{
			ModeCar:  {},
			ModeWalk: {},
		},
	}
}

// AddNode inserts n. The first insertion of an id wins, later ones return false.
func (g *RoadNetwork) AddNode(n Node) bool {
	if _, ok := g.nodes[n.ID]; ok {
		return false
	}
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	return true
}

// AddEdge appends e to the adjacency list of from. Edges touching unknown nodes,
// or carrying a negative/NaN weight, are dropped and AddEdge returns false.
func (g *RoadNetwork) AddEdge(from int64, e Edge) bool {
	if _, ok := g.nodes[from]; !ok {
		return false
	}
	if _, ok := g.nodes[e.ToNodeID]; !ok {
		return false
	}
	if math.IsNaN(e.Weight) || e.Weight < 0 {
		return false
	}

	g.adj[from] = append(g.adj[from], e)
	g.edgeCount++

	if e.Drivable {
		g.markModeNode(ModeCar, from)
		g.markModeNode(ModeCar, e.ToNodeID)
	}
	if e.Walkable {
		g.markModeNode(ModeWalk, from)
		g.markModeNode(ModeWalk, e.ToNodeID)
	}
	return true
}

func (g *RoadNetwork) markModeNode(mode TravelMode, id int64) {
	set := g.modeNodeSet[mode]
	if _, ok := set[id]; ok {
		return
	}
	set[id] = struct{}{}
	g.modeNodes[mode] = append(g.modeNodes[mode], id)
}

// Node returns the node with the given id. ok is false for unknown ids.
func (g *RoadNetwork) Node(id int64) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

func (g *RoadNetwork) HasNode(id int64) bool {
	_, ok := g.nodes[id]
	return ok
}

// Neighbors returns the outgoing edges of id. The slice is owned by the network,
// callers must not modify it. Order is stable between weight transactions.
func (g *RoadNetwork) Neighbors(id int64) []Edge {
	return g.adj[id]
}

// NodeIDs returns all node ids in insertion order.
func (g *RoadNetwork) NodeIDs() []int64 {
	ids := make([]int64, len(g.nodeOrder))
	copy(ids, g.nodeOrder)
	return ids
}

// ModeNodeIDs returns the ids of nodes incident to an edge usable by mode.
func (g *RoadNetwork) ModeNodeIDs(mode TravelMode) []int64 {
	ids := make([]int64, len(g.modeNodes[mode]))
	copy(ids, g.modeNodes[mode])
	return ids
}

func (g *RoadNetwork) NumNodes() int {
	return len(g.nodes)
}

func (g *RoadNetwork) NumEdges() int {
	return g.edgeCount
}

// HasRoadClass reports whether any outgoing edge of id satisfies pred.
func (g *RoadNetwork) HasRoadClass(id int64, pred func(roadClass string) bool) bool {
	for _, e := range g.adj[id] {
		if pred(e.RoadClass) {
			return true
		}
	}
	return false
}

// SnapshotWeights copies every edge weight keyed by source node, in adjacency order.
func (g *RoadNetwork) SnapshotWeights() map[int64][]float64 {
	snap := make(map[int64][]float64, len(g.adj))
	for from, edges := range g.adj {
		ws := make([]float64, len(edges))
		for i, e := range edges {
			ws[i] = e.Weight
		}
		snap[from] = ws
	}
	return snap
}

func (g *RoadNetwork) edgeIndexes(from, to int64) []int {
	idx := []int{}
	for i, e := range g.adj[from] {
		if e.ToNodeID == to {
			idx = append(idx, i)
		}
	}
	return idx
}
