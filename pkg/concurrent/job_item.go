package concurrent

import "lintang/campusnav/pkg/datastructure"

// LegJobItem satu pasangan (from, to) yang dicari shortest path-nya.
type LegJobItem struct {
	From int64
	To   int64
}

// SaveNodeJobItem batch node yang ditulis ke kv store.
type SaveNodeJobItem struct {
	Nodes []datastructure.Node
}

type JobI interface {
	LegJobItem | SaveNodeJobItem
}

type Job[T JobI] struct {
	ID      int
	JobItem T
}

type JobFunc[T JobI, G any] func(job T) G
