package tree

import (
	"bytes"
	"testing"

	"github.com/goccy/go-graphviz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/survtree/pkg/errors"
)

func TestWriteDOT(t *testing.T) {
	root, err := Build(exampleDataset())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(root, &buf))

	out := buf.String()
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "Age <= 22.00")
	assert.Contains(t, out, "prediction = 0")
	assert.Contains(t, out, "prediction = 1")
	assert.Contains(t, out, "n0 -> n1")
	assert.Contains(t, out, "n0 -> n2")
}

func TestRenderGraphSVG(t *testing.T) {
	root, err := Build(exampleDataset())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderGraph(root, graphviz.SVG, &buf))
	assert.Contains(t, buf.String(), "<svg")

	var nfErr *errors.NotFittedError
	assert.True(t, errors.As(RenderGraph(nil, graphviz.SVG, &buf), &nfErr))
}

func TestGraphFormat(t *testing.T) {
	for name, want := range map[string]graphviz.Format{
		"dot":  graphviz.XDOT,
		".svg": graphviz.SVG,
		"PNG":  graphviz.PNG,
		"jpg":  graphviz.JPG,
	} {
		got, err := GraphFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := GraphFormat("pdf")
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}
