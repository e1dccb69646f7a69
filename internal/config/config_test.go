package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/survtree/core/dataset"
	"github.com/YuminosukeSato/survtree/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "survtree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10, cfg.MaxDepth)
	assert.Equal(t, []string{"Age", "Fare"}, cfg.Features)
	assert.Equal(t, "train.csv", cfg.Train)
	assert.Equal(t, "validation.csv", cfg.Validation)
	require.NoError(t, cfg.Validate())

	ids, err := cfg.FeatureIDs()
	require.NoError(t, err)
	assert.Equal(t, dataset.DefaultFeatures(), ids)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
train: data/train.csv
max_depth: 4
features: [fare, age, pclass]
parallel_build: true
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/train.csv", cfg.Train)
	assert.Equal(t, "validation.csv", cfg.Validation, "unset keys keep defaults")
	assert.Equal(t, 4, cfg.MaxDepth)
	assert.True(t, cfg.ParallelBuild)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.Validate())

	ids, err := cfg.FeatureIDs()
	require.NoError(t, err)
	assert.Equal(t, []dataset.FeatureID{dataset.FeatureFare, dataset.FeatureAge, dataset.FeaturePclass}, ids)

	opts, err := cfg.TreeOptions(nil)
	require.NoError(t, err)
	assert.Len(t, opts, 3)
}

func TestLoadEmptyPathAndEmptyFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "max_dept: 3\n"))
	require.Error(t, err, "unknown keys are rejected")
	assert.Contains(t, err.Error(), "max_dept")

	_, err = Load(writeConfig(t, "max_depth: [1\n"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{
		"SURVTREE_TRAIN":          "t.csv",
		"SURVTREE_MAX_DEPTH":      " 3 ",
		"SURVTREE_FEATURES":       "fare, ,age",
		"SURVTREE_PARALLEL_BUILD": "true",
		"SURVTREE_DB":             "runs.db",
		"SURVTREE_LOG_FORMAT":     "json",
	})))
	assert.Equal(t, "t.csv", cfg.Train)
	assert.Equal(t, 3, cfg.MaxDepth)
	assert.Equal(t, []string{"fare", "age"}, cfg.Features)
	assert.True(t, cfg.ParallelBuild)
	assert.Equal(t, "runs.db", cfg.DB)
	assert.Equal(t, "json", cfg.Log.Format)

	var valErr *errors.ValidationError
	err := cfg.ApplyEnv(env(map[string]string{"SURVTREE_MAX_DEPTH": "deep"}))
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "SURVTREE_MAX_DEPTH", valErr.ParamName)

	err = cfg.ApplyEnv(env(map[string]string{"SURVTREE_PARALLEL_BUILD": "maybe"}))
	require.True(t, errors.As(err, &valErr))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		param  string
	}{
		{"zero depth", func(c *Config) { c.MaxDepth = 0 }, "max_depth"},
		{"unknown feature", func(c *Config) { c.Features = []string{"height"} }, "features"},
		{"no features", func(c *Config) { c.Features = nil }, "features"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log_level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			var valErr *errors.ValidationError
			require.True(t, errors.As(cfg.Validate(), &valErr))
			assert.Equal(t, tt.param, valErr.ParamName)
		})
	}
}

func TestFlagsPrecedence(t *testing.T) {
	path := writeConfig(t, "max_depth: 4\ntrain: from-file.csv\nvalidation: from-file-val.csv\n")

	fs := pflag.NewFlagSet("train", pflag.ContinueOnError)
	flags := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--max-depth", "2", "--features", "fare", "--dot", "tree.dot"}))

	cfg, err := flags.Resolve(path, env(map[string]string{
		"SURVTREE_MAX_DEPTH":  "3",
		"SURVTREE_VALIDATION": "from-env.csv",
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MaxDepth, "flags beat env and file")
	assert.Equal(t, "from-env.csv", cfg.Validation, "env beats file")
	assert.Equal(t, "from-file.csv", cfg.Train, "unset flag does not override")
	assert.Equal(t, []string{"fare"}, cfg.Features)
	assert.Equal(t, "tree.dot", cfg.DOT)
}

func TestFlagsResolveInvalid(t *testing.T) {
	fs := pflag.NewFlagSet("train", pflag.ContinueOnError)
	flags := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--max-depth", "0"}))

	_, err := flags.Resolve("", env(nil))
	var valErr *errors.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "max_depth", valErr.ParamName)
}

func TestLogFlags(t *testing.T) {
	fs := pflag.NewFlagSet("render", pflag.ContinueOnError)
	flags := NewLogFlags(fs)
	require.NoError(t, fs.Parse([]string{"--log-level", "debug"}))
	assert.Nil(t, fs.Lookup(FlagMaxDepth))

	cfg := Default()
	flags.Apply(&cfg)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.LogSetup(nil).Format)
}
