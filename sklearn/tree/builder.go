package tree

import (
	"time"

	"github.com/YuminosukeSato/survtree/core/dataset"
	"github.com/YuminosukeSato/survtree/core/parallel"
	"github.com/YuminosukeSato/survtree/pkg/errors"
	"github.com/YuminosukeSato/survtree/pkg/log"
)

const (
	// DefaultMaxDepth is the depth cap used when none is configured.
	DefaultMaxDepth = 10

	// defaultParallelMinSamples is the node size below which subtrees are
	// grown on the calling goroutine even when parallel build is enabled.
	defaultParallelMinSamples = 256
)

// Option configures a Builder or a DecisionTreeClassifier.
type Option func(*config)

type config struct {
	maxDepth           int
	features           []dataset.FeatureID
	parallel           bool
	parallelMinSamples int
	logger             log.Logger
}

func defaultConfig() config {
	return config{
		maxDepth:           DefaultMaxDepth,
		features:           dataset.DefaultFeatures(),
		parallelMinSamples: defaultParallelMinSamples,
	}
}

func (c config) validate() error {
	if c.maxDepth < 0 {
		return errors.NewValidationError("max_depth", "must be non-negative", c.maxDepth)
	}
	if c.parallelMinSamples < 1 {
		return errors.NewValidationError("parallel_min_samples", "must be at least 1", c.parallelMinSamples)
	}
	return dataset.ValidateFeatures(c.features)
}

// WithMaxDepth caps the depth of the tree. A depth of 0 yields a single leaf.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		c.maxDepth = depth
	}
}

// WithFeatures sets the features searched for splits, in tie-break order.
func WithFeatures(features ...dataset.FeatureID) Option {
	return func(c *config) {
		c.features = append([]dataset.FeatureID(nil), features...)
	}
}

// WithParallelBuild grows the two subtrees of large nodes concurrently.
// The resulting tree is identical to a sequential build.
func WithParallelBuild(enabled bool) Option {
	return func(c *config) {
		c.parallel = enabled
	}
}

// WithParallelMinSamples sets the node size from which subtrees are grown
// concurrently when parallel build is enabled.
func WithParallelMinSamples(n int) Option {
	return func(c *config) {
		c.parallelMinSamples = n
	}
}

// WithLogger sets the logger used for build and fit diagnostics.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Builder grows a decision tree by greedy recursive partitioning.
type Builder struct {
	cfg      config
	splitter *Splitter
	logger   log.Logger
}

// NewBuilder creates a Builder. Options are validated by Build.
func NewBuilder(opts ...Option) *Builder {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newBuilder(cfg)
}

func newBuilder(cfg config) *Builder {
	logger := cfg.logger
	if logger == nil {
		logger = log.GetLoggerWithName("tree.builder")
	}
	return &Builder{
		cfg:      cfg,
		splitter: NewSplitter(cfg.features, logger),
		logger:   logger,
	}
}

// Build grows a tree from ds using the given options.
func Build(ds dataset.Dataset, opts ...Option) (*Node, error) {
	return NewBuilder(opts...).Build(ds)
}

// Build grows a tree from ds. It fails with an EmptyDatasetError when ds
// has no records.
//
// At each node, in order: an empty set or exhausted depth becomes a
// majority leaf; a pure set becomes a leaf with its label; otherwise the
// best split is searched and the records partitioned. When no split is
// found, or the split leaves one side empty, the node becomes a majority
// leaf.
func (b *Builder) Build(ds dataset.Dataset) (*Node, error) {
	if err := b.cfg.validate(); err != nil {
		return nil, err
	}
	if len(ds) == 0 {
		return nil, errors.NewEmptyDatasetError("Build")
	}

	start := time.Now()
	root := b.grow(ds, allIndices(len(ds)), 0)

	b.logger.Debug("tree built",
		log.SamplesKey, len(ds),
		log.MaxDepthKey, b.cfg.maxDepth,
		log.TreeDepthKey, root.Depth(),
		log.TreeLeavesKey, root.Leaves(),
		log.TreeNodesKey, root.Nodes(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return root, nil
}

func (b *Builder) grow(ds dataset.Dataset, idx []int, depth int) *Node {
	n := len(idx)
	positives := countPositives(ds, idx)

	if n == 0 || depth >= b.cfg.maxDepth {
		return newLeaf(n, positives)
	}
	if positives == 0 || positives == n {
		return newLeaf(n, positives)
	}

	split, _, ok := b.splitter.Best(ds, idx)
	if !ok {
		return newLeaf(n, positives)
	}
	left, right := partition(ds, idx, split)
	if len(left) == 0 || len(right) == 0 {
		return newLeaf(n, positives)
	}

	node := &Node{Split: split, Samples: n, Positives: positives}
	growLeft := func() { node.Left = b.grow(ds, left, depth+1) }
	growRight := func() { node.Right = b.grow(ds, right, depth+1) }
	if b.cfg.parallel && n >= b.cfg.parallelMinSamples {
		parallel.Both(growLeft, growRight)
	} else {
		growLeft()
		growRight()
	}
	return node
}
