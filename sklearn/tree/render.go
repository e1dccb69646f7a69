package tree

import (
	"fmt"
	"strings"
)

// Render returns a depth-first, pre-order text rendering of the tree, one
// node per line, children indented by one tab:
//
//	Age <= 22.00 (samples=3)
//		Left -> Leaf: prediction = 0 (samples=1)
//		Right -> Leaf: prediction = 1 (samples=2)
//
// A nil tree renders as the empty string.
func Render(root *Node) string {
	var b strings.Builder
	renderNode(&b, root, 0, "")
	return b.String()
}

func renderNode(b *strings.Builder, n *Node, depth int, prefix string) {
	if n == nil {
		return
	}
	b.WriteString(strings.Repeat("\t", depth))
	b.WriteString(prefix)
	if n.Leaf {
		fmt.Fprintf(b, "Leaf: prediction = %d (samples=%d)\n", n.Prediction, n.Samples)
		return
	}
	fmt.Fprintf(b, "%s <= %.2f (samples=%d)\n", n.Split.Feature, n.Split.Threshold, n.Samples)
	renderNode(b, n.Left, depth+1, "Left -> ")
	renderNode(b, n.Right, depth+1, "Right -> ")
}
