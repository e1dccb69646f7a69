package runstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/survtree/pkg/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Memory)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc := 0.75
	run := &Run{
		TrainPath:      "train.csv",
		ValidationPath: "validation.csv",
		MaxDepth:       10,
		Features:       []string{"Age", "Fare"},
		TrainSamples:   3,
		Depth:          1,
		Leaves:         2,
		Nodes:          3,
		Tree:           "Age <= 22.00 (samples=3)\n",
		Accuracy:       &acc,
		Predictions: []Prediction{
			{PassengerID: 4, Label: 1, Proba: 1},
			{PassengerID: 5, Label: 0, Proba: 0},
		},
	}
	require.NoError(t, s.SaveRun(ctx, run))
	require.NotEmpty(t, run.ID)
	require.False(t, run.CreatedAt.IsZero())

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, []string{"Age", "Fare"}, got.Features)
	assert.Equal(t, run.Tree, got.Tree)
	require.NotNil(t, got.Accuracy)
	assert.Equal(t, 0.75, *got.Accuracy)
	assert.Equal(t, run.Predictions, got.Predictions)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		require.NoError(t, s.SaveRun(ctx, &Run{ID: id, MaxDepth: 10, Features: []string{"Age"}}))
	}

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "third", runs[0].ID)
	assert.Equal(t, "first", runs[2].ID)
	assert.Nil(t, runs[0].Accuracy, "unlabeled runs store no accuracy")
	assert.Empty(t, runs[0].Predictions)
}

func TestSaveRunErrors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.Error(t, s.SaveRun(ctx, nil))

	require.NoError(t, s.SaveRun(ctx, &Run{ID: "dup"}))
	require.Error(t, s.SaveRun(ctx, &Run{ID: "dup"}))

	bad := &Run{ID: "bad-label", Predictions: []Prediction{{PassengerID: 1, Label: 2}}}
	require.Error(t, s.SaveRun(ctx, bad))
	_, err := s.GetRun(ctx, "bad-label")
	assert.True(t, errors.Is(err, ErrRunNotFound), "failed runs are rolled back")
}

func TestOpenFileReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveRun(context.Background(), &Run{ID: "kept"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "kept", runs[0].ID)
}
