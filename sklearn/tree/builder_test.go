package tree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/survtree/core/dataset"
	"github.com/YuminosukeSato/survtree/pkg/errors"
	"github.com/YuminosukeSato/survtree/pkg/log"
)

func exampleDataset() dataset.Dataset {
	return dataset.Dataset{
		{PassengerID: 1, Age: 22, AgeKnown: true, Fare: 7.25, Survived: 0},
		{PassengerID: 2, Age: 38, AgeKnown: true, Fare: 71.3, Survived: 1},
		{PassengerID: 3, Age: 26, AgeKnown: true, Fare: 7.9, Survived: 1},
	}
}

// randomDataset returns n records with distinct ages and random fares and labels.
func randomDataset(n int, seed int64) dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	ages := rng.Perm(n)
	ds := make(dataset.Dataset, n)
	for i := range ds {
		ds[i] = dataset.Record{
			PassengerID: i + 1,
			Age:         float64(ages[i]) + 0.5,
			AgeKnown:    true,
			Fare:        float64(rng.Intn(50)),
			Survived:    rng.Intn(2),
		}
	}
	return ds
}

func TestGini(t *testing.T) {
	ds := exampleDataset()

	tests := []struct {
		name  string
		split Split
		want  float64
	}{
		{"fare isolates the negative", Split{dataset.FeatureFare, 7.25}, 0},
		{"age isolates the negative", Split{dataset.FeatureAge, 22}, 0},
		{"everything left", Split{dataset.FeatureAge, 38}, 4.0 / 9.0},
		{"everything right", Split{dataset.FeatureFare, 0}, 4.0 / 9.0},
		{"one mixed side", Split{dataset.FeatureAge, 26}, 1.0 / 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Gini(ds, tt.split)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	_, err := Gini(nil, Split{dataset.FeatureAge, 1})
	var emptyErr *errors.EmptyDatasetError
	require.True(t, errors.As(err, &emptyErr))
	assert.Equal(t, "Gini", emptyErr.Op)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	_, err = Gini(ds, Split{Feature: dataset.FeatureID(42)})
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestGiniBounds(t *testing.T) {
	ds := randomDataset(30, 1)
	for _, f := range dataset.AllFeatures() {
		for i := range ds {
			g, err := Gini(ds, Split{f, f.Value(&ds[i])})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, g, 0.0)
			assert.LessOrEqual(t, g, 0.5)
		}
	}
}

func TestFindBestSplit(t *testing.T) {
	ds := exampleDataset()

	split, ok, err := FindBestSplit(ds, dataset.DefaultFeatures())
	require.NoError(t, err)
	require.True(t, ok)
	// Age <= 22 and Fare <= 7.25 both score 0; Age is searched first
	assert.Equal(t, Split{dataset.FeatureAge, 22}, split)

	split, ok, err = FindBestSplit(ds, []dataset.FeatureID{dataset.FeatureFare, dataset.FeatureAge})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Split{dataset.FeatureFare, 7.25}, split)

	_, ok, err = FindBestSplit(nil, dataset.DefaultFeatures())
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = FindBestSplit(ds, nil)
	assert.Error(t, err)
}

func TestFindBestSplit_FirstMinimumWins(t *testing.T) {
	// Age <= 3 and Age <= 1 both score 1/3; the record seen first wins
	ds := dataset.Dataset{
		{Age: 3, Fare: 1, Survived: 1},
		{Age: 1, Fare: 1, Survived: 0},
		{Age: 2, Fare: 1, Survived: 1},
		{Age: 4, Fare: 1, Survived: 0},
	}
	low, err := Gini(ds, Split{dataset.FeatureAge, 1})
	require.NoError(t, err)
	high, err := Gini(ds, Split{dataset.FeatureAge, 3})
	require.NoError(t, err)
	require.Equal(t, low, high)

	split, ok, err := FindBestSplit(ds, dataset.DefaultFeatures())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Split{dataset.FeatureAge, 3}, split)
}

func TestSplitterLogsChosenSplit(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	ds := exampleDataset()

	_, impurity, ok := NewSplitter(dataset.DefaultFeatures(), logger).Best(ds, allIndices(len(ds)))
	require.True(t, ok)
	assert.Zero(t, impurity)

	entries := logger.EntriesWithMessage("best split")
	require.Len(t, entries, 1)
	assert.Equal(t, "Age", entries[0][log.SplitFeatureKey])
	assert.Equal(t, 22.0, entries[0][log.SplitThresholdKey])
	assert.Equal(t, 0.0, entries[0][log.SplitImpurityKey])
}

func TestBuild_Example(t *testing.T) {
	root, err := Build(exampleDataset(), WithMaxDepth(1))
	require.NoError(t, err)

	require.False(t, root.Leaf)
	assert.Equal(t, Split{dataset.FeatureAge, 22}, root.Split)
	require.True(t, root.Left.Leaf)
	require.True(t, root.Right.Leaf)
	assert.Equal(t, 0, root.Left.Prediction)
	assert.Equal(t, 1, root.Right.Prediction)
	assert.Equal(t, 1, root.Depth())
	assert.Equal(t, 3, root.Nodes())

	got, err := Predict(root, dataset.Record{Age: 38, Fare: 71.3})
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = Predict(root, dataset.Record{Age: 22, Fare: 7.25})
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestBuild_PurityConvergence(t *testing.T) {
	for _, label := range []int{0, 1} {
		for _, depth := range []int{0, 1, DefaultMaxDepth} {
			ds := dataset.Dataset{
				{PassengerID: 1, Survived: label, Age: 22, AgeKnown: true, Fare: 7.25},
				{PassengerID: 2, Survived: label, Age: 38, AgeKnown: true, Fare: 71.28},
				{PassengerID: 3, Survived: label, Age: 26, AgeKnown: true, Fare: 7.92},
			}
			root, err := Build(ds, WithMaxDepth(depth))
			require.NoError(t, err)
			assert.True(t, root.Leaf, "label=%d depth=%d", label, depth)
			assert.Equal(t, label, root.Prediction, "label=%d depth=%d", label, depth)
			assert.Equal(t, 3, root.Samples)
		}
	}
}

func TestBuild_FitsDistinctRecords(t *testing.T) {
	ds := randomDataset(24, 3)
	root, err := Build(ds, WithMaxDepth(len(ds)))
	require.NoError(t, err)

	for i := range ds {
		got, err := root.Predict(&ds[i])
		require.NoError(t, err)
		assert.Equal(t, ds[i].Survived, got, "record %d", i)
	}
	root.Walk(func(n *Node, _ int) {
		if n.Leaf {
			assert.True(t, n.Positives == 0 || n.Positives == n.Samples, "impure leaf %+v", n)
		}
	})
}

func TestBuild_Coverage(t *testing.T) {
	ds := randomDataset(50, 11)
	root, err := Build(ds, WithMaxDepth(3))
	require.NoError(t, err)

	leafSamples, leafPositives := 0, 0
	root.Walk(func(n *Node, _ int) {
		if n.Leaf {
			leafSamples += n.Samples
			leafPositives += n.Positives
			return
		}
		assert.Equal(t, n.Samples, n.Left.Samples+n.Right.Samples)
		assert.Positive(t, n.Left.Samples)
		assert.Positive(t, n.Right.Samples)
	})
	assert.Equal(t, len(ds), leafSamples)
	assert.Equal(t, ds.Positives(), leafPositives)
	assert.NoError(t, root.Validate())
}

func TestBuild_DepthBound(t *testing.T) {
	ds := randomDataset(60, 5)
	for _, depth := range []int{0, 1, 2, 4, DefaultMaxDepth} {
		root, err := Build(ds, WithMaxDepth(depth))
		require.NoError(t, err)
		assert.LessOrEqual(t, root.Depth(), depth)
	}

	root, err := Build(ds, WithMaxDepth(0))
	require.NoError(t, err)
	assert.True(t, root.Leaf)
	assert.Equal(t, majority(len(ds), ds.Positives()), root.Prediction)
}

func TestBuild_MajorityFallback(t *testing.T) {
	tests := []struct {
		name   string
		labels []int
		want   int
	}{
		{"tie goes to 0", []int{1, 0}, 0},
		{"two to one", []int{1, 1, 0}, 1},
		{"one to two", []int{0, 1, 0}, 0},
		{"even split of four", []int{1, 0, 1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := make(dataset.Dataset, len(tt.labels))
			for i, l := range tt.labels {
				ds[i] = dataset.Record{Age: 40, Fare: 15, Survived: l}
			}
			root, err := Build(ds)
			require.NoError(t, err)
			require.True(t, root.Leaf)
			assert.Equal(t, tt.want, root.Prediction)
			assert.Equal(t, len(ds), root.Samples)
		})
	}
}

func TestBuild_Determinism(t *testing.T) {
	ds := randomDataset(80, 9)
	a, err := Build(ds)
	require.NoError(t, err)
	b, err := Build(ds)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, Render(a), Render(b))
}

func TestBuild_ParallelMatchesSequential(t *testing.T) {
	ds := randomDataset(300, 13)
	seq, err := Build(ds)
	require.NoError(t, err)
	par, err := Build(ds, WithParallelBuild(true), WithParallelMinSamples(1))
	require.NoError(t, err)
	assert.Equal(t, seq, par)
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(nil)
	var emptyErr *errors.EmptyDatasetError
	require.True(t, errors.As(err, &emptyErr))
	assert.Equal(t, "Build", emptyErr.Op)

	_, err = Build(exampleDataset(), WithMaxDepth(-1))
	var valErr *errors.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "max_depth", valErr.ParamName)

	_, err = Build(exampleDataset(), WithFeatures())
	assert.True(t, errors.As(err, &valErr))

	_, err = Build(exampleDataset(), WithFeatures(dataset.FeatureAge, dataset.FeatureAge))
	assert.True(t, errors.As(err, &valErr))
}

func TestBuild_Logging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	_, err := Build(exampleDataset(), WithLogger(logger))
	require.NoError(t, err)

	entries := logger.EntriesWithMessage("tree built")
	require.Len(t, entries, 1)
	assert.Equal(t, 3.0, entries[0][log.SamplesKey])
	assert.Equal(t, 2.0, entries[0][log.TreeLeavesKey])
}

func TestPredict_Totality(t *testing.T) {
	root, err := Build(randomDataset(40, 21), WithMaxDepth(6))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 200; i++ {
		r := dataset.Record{Age: rng.Float64()*100 - 10, Fare: rng.Float64() * 600}
		got, err := Predict(root, r)
		require.NoError(t, err)
		assert.Contains(t, []int{0, 1}, got)
	}
}

func TestPredict_Errors(t *testing.T) {
	_, err := Predict(nil, dataset.Record{})
	var nfErr *errors.NotFittedError
	assert.True(t, errors.As(err, &nfErr))

	_, err = PredictAll(nil, exampleDataset())
	assert.True(t, errors.As(err, &nfErr))

	broken := &Node{Split: Split{dataset.FeatureAge, 30}, Left: &Node{Leaf: true}}
	_, err = Predict(broken, dataset.Record{Age: 50})
	var modelErr *errors.ModelError
	require.True(t, errors.As(err, &modelErr))
	assert.True(t, errors.Is(err, errors.ErrNilTree))
	assert.Error(t, broken.Validate())

	// the left side is intact
	got, err := Predict(broken, dataset.Record{Age: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestPredictAll(t *testing.T) {
	ds := randomDataset(1500, 17)
	root, err := Build(ds, WithMaxDepth(5))
	require.NoError(t, err)

	got, err := PredictAll(root, ds)
	require.NoError(t, err)
	require.Len(t, got, len(ds))
	for i := range ds {
		want, err := root.Predict(&ds[i])
		require.NoError(t, err)
		assert.Equal(t, want, got[i])
	}
}

func TestRender(t *testing.T) {
	root, err := Build(exampleDataset())
	require.NoError(t, err)

	want := "Age <= 22.00 (samples=3)\n" +
		"\tLeft -> Leaf: prediction = 0 (samples=1)\n" +
		"\tRight -> Leaf: prediction = 1 (samples=2)\n"
	assert.Equal(t, want, Render(root))
	assert.Equal(t, want, root.String())
	assert.Empty(t, Render(nil))
}

func TestNodeValidate(t *testing.T) {
	assert.Error(t, (*Node)(nil).Validate())
	assert.Error(t, (&Node{Leaf: true, Prediction: 2}).Validate())
	assert.Error(t, (&Node{Split: Split{Feature: dataset.FeatureID(9)}, Left: &Node{Leaf: true}, Right: &Node{Leaf: true}}).Validate())
	assert.NoError(t, (&Node{Leaf: true, Prediction: 1}).Validate())
}

func BenchmarkGini(b *testing.B) {
	ds := randomDataset(1000, 1)
	split := Split{dataset.FeatureFare, 25}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Gini(ds, split)
	}
}

func BenchmarkBuild(b *testing.B) {
	ds := randomDataset(500, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Build(ds)
	}
}
