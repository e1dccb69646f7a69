package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared by the commands that train a tree.
const (
	FlagTrain         = "train"
	FlagValidation    = "validation"
	FlagMaxDepth      = "max-depth"
	FlagFeatures      = "features"
	FlagParallelBuild = "parallel-build"
	FlagSaveModel     = "save-model"
	FlagDOT           = "dot"
	FlagPlot          = "plot"
	FlagDB            = "db"
	FlagLogLevel      = "log-level"
	FlagLogFormat     = "log-format"
)

// Flags holds the command-line overrides bound to a flag set.
type Flags struct {
	fs  *pflag.FlagSet
	val Config
}

// RegisterFlags defines the override flags on fs. Defaults shown in help
// come from Default.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	d := Default()
	f := &Flags{fs: fs}
	fs.StringVar(&f.val.Train, FlagTrain, d.Train, "training CSV file")
	fs.StringVar(&f.val.Validation, FlagValidation, d.Validation, "validation CSV file")
	fs.IntVar(&f.val.MaxDepth, FlagMaxDepth, d.MaxDepth, "maximum tree depth")
	fs.StringSliceVar(&f.val.Features, FlagFeatures, d.Features, "features searched for splits, in tie-break order")
	fs.BoolVar(&f.val.ParallelBuild, FlagParallelBuild, false, "grow large subtrees concurrently")
	fs.StringVar(&f.val.SaveModel, FlagSaveModel, "", "write the fitted model to this file")
	fs.StringVar(&f.val.DOT, FlagDOT, "", "write the tree as Graphviz DOT to this file")
	fs.StringVar(&f.val.Plot, FlagPlot, "", "write a scatter plot of the training set to this PNG/SVG file")
	fs.StringVar(&f.val.DB, FlagDB, "", "record the run in this SQLite database")
	f.RegisterLogFlags(fs)
	return f
}

// RegisterLogFlags defines only the logging flags, for commands that do
// not train.
func (f *Flags) RegisterLogFlags(fs *pflag.FlagSet) {
	d := Default()
	if f.fs == nil {
		f.fs = fs
	}
	fs.StringVar(&f.val.Log.Level, FlagLogLevel, d.Log.Level, "log level: debug, info, warn, error")
	fs.StringVar(&f.val.Log.Format, FlagLogFormat, d.Log.Format, "log format: console or json")
}

// NewLogFlags defines the logging flags on fs.
func NewLogFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	f.RegisterLogFlags(fs)
	return f
}

// Apply copies every flag the user set explicitly into cfg.
func (f *Flags) Apply(cfg *Config) {
	changed := func(name string) bool {
		fl := f.fs.Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed(FlagTrain) {
		cfg.Train = f.val.Train
	}
	if changed(FlagValidation) {
		cfg.Validation = f.val.Validation
	}
	if changed(FlagMaxDepth) {
		cfg.MaxDepth = f.val.MaxDepth
	}
	if changed(FlagFeatures) {
		cfg.Features = append([]string(nil), f.val.Features...)
	}
	if changed(FlagParallelBuild) {
		cfg.ParallelBuild = f.val.ParallelBuild
	}
	if changed(FlagSaveModel) {
		cfg.SaveModel = f.val.SaveModel
	}
	if changed(FlagDOT) {
		cfg.DOT = f.val.DOT
	}
	if changed(FlagPlot) {
		cfg.Plot = f.val.Plot
	}
	if changed(FlagDB) {
		cfg.DB = f.val.DB
	}
	if changed(FlagLogLevel) {
		cfg.Log.Level = f.val.Log.Level
	}
	if changed(FlagLogFormat) {
		cfg.Log.Format = f.val.Log.Format
	}
}

// Resolve loads path, applies the environment and the changed flags, and
// validates the result.
func (f *Flags) Resolve(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return Config{}, err
	}
	f.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
