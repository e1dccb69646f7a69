package tree

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/YuminosukeSato/survtree/pkg/errors"
)

// graphFormats maps output names accepted by RenderGraph to graphviz formats.
var graphFormats = map[string]graphviz.Format{
	"dot": graphviz.XDOT,
	"svg": graphviz.SVG,
	"png": graphviz.PNG,
	"jpg": graphviz.JPG,
}

// GraphFormat resolves a format name such as "svg" or a file extension
// such as ".png".
func GraphFormat(name string) (graphviz.Format, error) {
	f, ok := graphFormats[strings.ToLower(strings.TrimPrefix(name, "."))]
	if !ok {
		return "", errors.NewValidationError("format", "unsupported graph format", name)
	}
	return f, nil
}

// WriteDOT writes the tree as a Graphviz DOT document.
func WriteDOT(root *Node, w io.Writer) error {
	return RenderGraph(root, graphviz.XDOT, w)
}

// RenderGraph draws the tree with Graphviz and writes it to w in format.
// Internal nodes show their split, leaves their prediction and sample
// counts; edges are labeled with the side of the split.
func RenderGraph(root *Node, format graphviz.Format, w io.Writer) (err error) {
	if root == nil {
		return errors.NewNotFittedError("Tree", "RenderGraph")
	}
	gv := graphviz.New()
	defer func() {
		if cerr := gv.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "failed to close graphviz")
		}
	}()

	graph, err := gv.Graph()
	if err != nil {
		return errors.Wrap(err, "failed to create graph")
	}
	defer func() {
		if cerr := graph.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "failed to close graph")
		}
	}()

	d := &drawer{graph: graph}
	if _, err := d.draw(root); err != nil {
		return err
	}
	if err := gv.Render(graph, format, w); err != nil {
		return errors.Wrapf(err, "failed to render graph as %s", format)
	}
	return nil
}

type drawer struct {
	graph *cgraph.Graph
	next  int
}

func (d *drawer) draw(n *Node) (*cgraph.Node, error) {
	gn, err := d.graph.CreateNode(fmt.Sprintf("n%d", d.next))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create graph node")
	}
	d.next++

	if n.Leaf {
		gn.Set("label", fmt.Sprintf("prediction = %d\nsamples = %d\npositives = %d", n.Prediction, n.Samples, n.Positives))
		gn.Set("shape", "box")
		return gn, nil
	}
	gn.Set("label", fmt.Sprintf("%s <= %.2f\nsamples = %d", n.Split.Feature, n.Split.Threshold, n.Samples))

	for _, child := range []struct {
		node  *Node
		label string
	}{{n.Left, "yes"}, {n.Right, "no"}} {
		if child.node == nil {
			return nil, errors.NewModelError("RenderGraph", "malformed tree", errors.ErrNilTree)
		}
		cn, err := d.draw(child.node)
		if err != nil {
			return nil, err
		}
		e, err := d.graph.CreateEdge("", gn, cn)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create graph edge")
		}
		e.SetLabel(child.label)
	}
	return gn, nil
}
