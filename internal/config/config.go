// Package config loads the settings of the survtree command: defaults,
// then a YAML file, then SURVTREE_* environment variables, then flags.
package config

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/survtree/core/dataset"
	"github.com/YuminosukeSato/survtree/pkg/errors"
	"github.com/YuminosukeSato/survtree/pkg/log"
	"github.com/YuminosukeSato/survtree/sklearn/tree"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "SURVTREE_"

// Config holds the training run settings.
type Config struct {
	Train         string   `yaml:"train"`
	Validation    string   `yaml:"validation"`
	MaxDepth      int      `yaml:"max_depth"`
	Features      []string `yaml:"features"`
	ParallelBuild bool     `yaml:"parallel_build"`

	SaveModel string `yaml:"save_model"`
	DOT       string `yaml:"dot"`
	Plot      string `yaml:"plot"`
	DB        string `yaml:"db"`

	Log LogConfig `yaml:"log"`
}

// LogConfig selects log verbosity and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Train:      "train.csv",
		Validation: "validation.csv",
		MaxDepth:   tree.DefaultMaxDepth,
		Features:   dataset.FeatureNames(dataset.DefaultFeatures()),
		Log: LogConfig{
			Level:  "info",
			Format: log.FormatConsole,
		},
	}
}

// Load returns Default overlaid with the YAML file at path. An empty path
// skips the file. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := cfg.decode(b); err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse config %s", path)
	}
	return cfg, nil
}

func (c *Config) decode(b []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from SURVTREE_* variables found by lookup,
// typically os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("TRAIN", &c.Train)
	str("VALIDATION", &c.Validation)
	str("SAVE_MODEL", &c.SaveModel)
	str("DOT", &c.DOT)
	str("PLOT", &c.Plot)
	str("DB", &c.DB)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup(EnvPrefix + "MAX_DEPTH"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.NewValidationError(EnvPrefix+"MAX_DEPTH", "must be an integer", v)
		}
		c.MaxDepth = n
	}
	if v, ok := lookup(EnvPrefix + "FEATURES"); ok {
		c.Features = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "PARALLEL_BUILD"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.NewValidationError(EnvPrefix+"PARALLEL_BUILD", "must be a boolean", v)
		}
		c.ParallelBuild = b
	}
	return nil
}

// Validate checks ranges and names.
func (c Config) Validate() error {
	if c.MaxDepth < 1 {
		return errors.NewValidationError("max_depth", "must be at least 1", c.MaxDepth)
	}
	if _, err := c.FeatureIDs(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case log.FormatConsole, log.FormatJSON:
	default:
		return errors.NewValidationError("log_format", "must be one of console, json", c.Log.Format)
	}
	return nil
}

// FeatureIDs resolves the configured feature names.
func (c Config) FeatureIDs() ([]dataset.FeatureID, error) {
	return dataset.ParseFeatures(c.Features)
}

// TreeOptions returns the builder options for this configuration.
func (c Config) TreeOptions(logger log.Logger) ([]tree.Option, error) {
	features, err := c.FeatureIDs()
	if err != nil {
		return nil, err
	}
	opts := []tree.Option{
		tree.WithMaxDepth(c.MaxDepth),
		tree.WithFeatures(features...),
		tree.WithParallelBuild(c.ParallelBuild),
	}
	if logger != nil {
		opts = append(opts, tree.WithLogger(logger))
	}
	return opts, nil
}

// LogSetup returns the pkg/log configuration writing to w.
func (c Config) LogSetup(w io.Writer) log.Config {
	return log.Config{Level: c.Log.Level, Format: strings.ToLower(c.Log.Format), Output: w}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
