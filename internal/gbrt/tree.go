// Package gbrt implements gradient-boosted regression trees minimizing
// squared error, with shrinkage, row/column subsampling, L1/L2 leaf
// regularization and validation-based early stopping. Models serialize to
// JSON and predictions are pure reads, safe for concurrent callers.
package gbrt

import "sort"

// Node is one split or leaf of a regression tree. Children are indices into
// the owning tree's node slice.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
	Gain      float64 `json:"g"`
	Leaf      bool    `json:"leaf"`
}

// Tree is a single regression tree over positional feature vectors.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict routes a feature vector to its leaf value. Samples with a feature
// below the threshold go left.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for !t.Nodes[i].Leaf {
		n := t.Nodes[i]
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value
}

// treeBuilder grows one tree on the current residuals.
type treeBuilder struct {
	x        [][]float64
	grad     []float64 // residuals of the boosted ensemble
	features []int     // column-sampled candidate features
	maxDepth int
	minChild float64
	alpha    float64
	lambda   float64
	nodes    []Node
}

func (tb *treeBuilder) build(samples []int) Tree {
	tb.nodes = tb.nodes[:0]
	tb.grow(samples, 0)
	return Tree{Nodes: append([]Node(nil), tb.nodes...)}
}

// grow appends the subtree for the given samples and returns its root index.
func (tb *treeBuilder) grow(samples []int, depth int) int {
	idx := len(tb.nodes)
	tb.nodes = append(tb.nodes, Node{})

	if depth >= tb.maxDepth || float64(len(samples)) < 2*tb.minChild {
		tb.nodes[idx] = Node{Leaf: true, Value: tb.leafValue(samples)}
		return idx
	}

	feature, threshold, gain, ok := tb.bestSplit(samples)
	if !ok {
		tb.nodes[idx] = Node{Leaf: true, Value: tb.leafValue(samples)}
		return idx
	}

	left := make([]int, 0, len(samples))
	right := make([]int, 0, len(samples))
	for _, s := range samples {
		if tb.x[s][feature] < threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	leftIdx := tb.grow(left, depth+1)
	rightIdx := tb.grow(right, depth+1)
	tb.nodes[idx] = Node{Feature: feature, Threshold: threshold, Gain: gain, Left: leftIdx, Right: rightIdx}
	return idx
}

// bestSplit runs exact greedy split search over the sampled features.
func (tb *treeBuilder) bestSplit(samples []int) (feature int, threshold, gain float64, ok bool) {
	var (
		totalG float64
		totalN = float64(len(samples))
	)
	for _, s := range samples {
		totalG += tb.grad[s]
	}
	parentScore := totalG * totalG / (totalN + tb.lambda)

	type pair struct {
		v float64
		g float64
	}
	pairs := make([]pair, len(samples))

	bestGain := 0.0
	for _, f := range tb.features {
		for i, s := range samples {
			pairs[i] = pair{v: tb.x[s][f], g: tb.grad[s]}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })

		var leftG, leftN float64
		for i := 0; i < len(pairs)-1; i++ {
			leftG += pairs[i].g
			leftN++
			if pairs[i].v == pairs[i+1].v {
				continue
			}
			rightG := totalG - leftG
			rightN := totalN - leftN
			if leftN < tb.minChild || rightN < tb.minChild {
				continue
			}
			split := leftG*leftG/(leftN+tb.lambda) + rightG*rightG/(rightN+tb.lambda) - parentScore
			if split > bestGain {
				bestGain = split
				feature = f
				threshold = (pairs[i].v + pairs[i+1].v) / 2
			}
		}
	}

	if bestGain <= 0 {
		return 0, 0, 0, false
	}
	return feature, threshold, bestGain, true
}

// leafValue is the regularized optimal leaf weight for squared error:
// soft-thresholded residual sum over count plus L2.
func (tb *treeBuilder) leafValue(samples []int) float64 {
	var g float64
	for _, s := range samples {
		g += tb.grad[s]
	}
	n := float64(len(samples))
	switch {
	case g > tb.alpha:
		g -= tb.alpha
	case g < -tb.alpha:
		g += tb.alpha
	default:
		return 0
	}
	return g / (n + tb.lambda)
}
