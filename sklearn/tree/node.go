package tree

import (
	"github.com/YuminosukeSato/survtree/core/dataset"
	"github.com/YuminosukeSato/survtree/pkg/errors"
)

// Node is one node of a binary decision tree. A leaf carries Prediction;
// an internal node carries Split and both children. Samples and Positives
// are the training counts that reached the node.
type Node struct {
	Leaf       bool
	Prediction int
	Split      Split
	Left       *Node // Split.Feature <= Split.Threshold
	Right      *Node

	Samples   int
	Positives int
}

func newLeaf(samples, positives int) *Node {
	return &Node{
		Leaf:       true,
		Prediction: majority(samples, positives),
		Samples:    samples,
		Positives:  positives,
	}
}

// majority returns 1 when positives are strictly more than half of n.
// Ties and empty sets give 0.
func majority(n, positives int) int {
	if 2*positives > n {
		return 1
	}
	return 0
}

// leafFor walks from n to the leaf that r falls into.
func (n *Node) leafFor(r *dataset.Record) (*Node, error) {
	if n == nil {
		return nil, errors.NewNotFittedError("Tree", "Predict")
	}
	cur := n
	for !cur.Leaf {
		next := cur.Right
		if cur.Split.GoesLeft(r) {
			next = cur.Left
		}
		if next == nil {
			return nil, errors.NewModelError("Predict", "malformed tree", errors.ErrNilTree)
		}
		cur = next
	}
	return cur, nil
}

// Predict returns the label of the leaf that r falls into.
func (n *Node) Predict(r *dataset.Record) (int, error) {
	leaf, err := n.leafFor(r)
	if err != nil {
		return 0, err
	}
	return leaf.Prediction, nil
}

// Proba returns the fraction of positive training samples in the leaf
// that r falls into. Leaves without samples report their prediction.
func (n *Node) Proba(r *dataset.Record) (float64, error) {
	leaf, err := n.leafFor(r)
	if err != nil {
		return 0, err
	}
	if leaf.Samples == 0 {
		return float64(leaf.Prediction), nil
	}
	return float64(leaf.Positives) / float64(leaf.Samples), nil
}

// Walk visits the subtree rooted at n in pre-order, left before right.
// depth is 0 at n.
func (n *Node) Walk(fn func(node *Node, depth int)) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int), depth int) {
	if n == nil {
		return
	}
	fn(n, depth)
	if !n.Leaf {
		n.Left.walk(fn, depth+1)
		n.Right.walk(fn, depth+1)
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (n *Node) Depth() int {
	depth := 0
	n.Walk(func(node *Node, d int) {
		if d > depth {
			depth = d
		}
	})
	return depth
}

// Leaves returns the number of leaf nodes.
func (n *Node) Leaves() int {
	count := 0
	n.Walk(func(node *Node, _ int) {
		if node.Leaf {
			count++
		}
	})
	return count
}

// Nodes returns the total number of nodes.
func (n *Node) Nodes() int {
	count := 0
	n.Walk(func(*Node, int) { count++ })
	return count
}

// Validate checks that every internal node has two children and every
// prediction is 0 or 1.
func (n *Node) Validate() error {
	if n == nil {
		return errors.NewModelError("Validate", "empty tree", errors.ErrNilTree)
	}
	var err error
	n.Walk(func(node *Node, depth int) {
		if err != nil {
			return
		}
		switch {
		case node.Leaf && node.Prediction != 0 && node.Prediction != 1:
			err = errors.NewModelError("Validate", "malformed tree",
				errors.Newf("leaf at depth %d predicts %d", depth, node.Prediction))
		case !node.Leaf && (node.Left == nil || node.Right == nil):
			err = errors.NewModelError("Validate", "malformed tree",
				errors.Newf("internal node at depth %d is missing a child", depth))
		case !node.Leaf && !node.Split.Feature.Valid():
			err = errors.NewModelError("Validate", "malformed tree",
				errors.Newf("internal node at depth %d splits on unknown feature %d", depth, int(node.Split.Feature)))
		}
	})
	return err
}

// String renders the tree, see Render.
func (n *Node) String() string {
	return Render(n)
}
