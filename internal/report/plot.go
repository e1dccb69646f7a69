package report

import (
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/survtree/core/dataset"
	"github.com/YuminosukeSato/survtree/pkg/errors"
	"github.com/YuminosukeSato/survtree/sklearn/tree"
)

const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 4 * vg.Inch

	// splits deeper than this are not drawn
	maxLineDepth = 2
)

var (
	survivedColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	diedColor     = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	splitColor    = color.Gray{Y: 64}
)

var plotFormats = map[string]bool{"png": true, "svg": true, "pdf": true, "jpg": true, "jpeg": true}

// PlotSplits draws ds on the Age/Fare plane coloured by label, with the
// splits of the top levels of root drawn as lines, and saves it to path.
// The image format follows the file extension.
func PlotSplits(ds dataset.Dataset, root *tree.Node, path string) error {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !plotFormats[format] {
		return errors.NewValidationError("plot_format", "must be one of png, svg, pdf, jpg", format)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	if err := WritePlot(f, ds, root, format); err != nil {
		return err
	}
	return f.Close()
}

// WritePlot is PlotSplits writing to w in the named format
// (png, svg, pdf, jpg).
func WritePlot(w io.Writer, ds dataset.Dataset, root *tree.Node, format string) error {
	if !plotFormats[format] {
		return errors.NewValidationError("plot_format", "must be one of png, svg, pdf, jpg", format)
	}
	p, err := newSplitPlot(ds, root)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, format)
	if err != nil {
		return errors.Wrap(err, "failed to render plot")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write plot")
	}
	return nil
}

// box is the region of the plane a subtree covers.
type box struct {
	minX, maxX, minY, maxY float64
}

// segment is one split line in data coordinates.
type segment struct {
	from, to plotter.XY
	depth    int
}

func newSplitPlot(ds dataset.Dataset, root *tree.Node) (*plot.Plot, error) {
	if len(ds) == 0 {
		return nil, errors.NewEmptyDatasetError("PlotSplits")
	}

	var survived, died plotter.XYs
	bounds := box{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for i := range ds {
		pt := plotter.XY{X: dataset.FeatureAge.Value(&ds[i]), Y: dataset.FeatureFare.Value(&ds[i])}
		bounds.minX, bounds.maxX = math.Min(bounds.minX, pt.X), math.Max(bounds.maxX, pt.X)
		bounds.minY, bounds.maxY = math.Min(bounds.minY, pt.Y), math.Max(bounds.maxY, pt.Y)
		if ds[i].Survived == 1 {
			survived = append(survived, pt)
		} else {
			died = append(died, pt)
		}
	}

	p := plot.New()
	p.Title.Text = "Passengers and splits"
	p.X.Label.Text = dataset.FeatureAge.String()
	p.Y.Label.Text = dataset.FeatureFare.String()
	p.Add(plotter.NewGrid())

	for _, group := range []struct {
		name  string
		pts   plotter.XYs
		color color.Color
		shape draw.GlyphDrawer
	}{
		{"died", died, diedColor, draw.CrossGlyph{}},
		{"survived", survived, survivedColor, draw.CircleGlyph{}},
	} {
		if len(group.pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(group.pts)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to plot %s", group.name)
		}
		s.GlyphStyle.Color = group.color
		s.GlyphStyle.Shape = group.shape
		s.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(s)
		p.Legend.Add(group.name, s)
	}

	for _, seg := range splitSegments(root, bounds, 0, nil) {
		l, err := plotter.NewLine(plotter.XYs{seg.from, seg.to})
		if err != nil {
			return nil, errors.Wrap(err, "failed to plot split")
		}
		l.LineStyle.Color = splitColor
		l.LineStyle.Width = vg.Points(1.5)
		if seg.depth > 0 {
			l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		}
		p.Add(l)
	}
	p.Legend.Top = true
	return p, nil
}

// splitSegments collects the Age and Fare splits of the first maxLineDepth
// levels, each clipped to the region its node covers. Splits on other
// features have no line on this plane but their children are still
// visited.
func splitSegments(n *tree.Node, b box, depth int, out []segment) []segment {
	if n == nil || n.Leaf || depth >= maxLineDepth {
		return out
	}
	left, right := b, b
	t := n.Split.Threshold
	switch n.Split.Feature {
	case dataset.FeatureAge:
		out = append(out, segment{plotter.XY{X: t, Y: b.minY}, plotter.XY{X: t, Y: b.maxY}, depth})
		left.maxX, right.minX = t, t
	case dataset.FeatureFare:
		out = append(out, segment{plotter.XY{X: b.minX, Y: t}, plotter.XY{X: b.maxX, Y: t}, depth})
		left.maxY, right.minY = t, t
	}
	out = splitSegments(n.Left, left, depth+1, out)
	return splitSegments(n.Right, right, depth+1, out)
}
