package dataset

import (
	"strconv"
	"strings"

	"github.com/YuminosukeSato/survtree/pkg/errors"
)

// FeatureID identifies an ordered numeric feature of a Record.
type FeatureID int

const (
	FeatureAge FeatureID = iota
	FeatureFare
	FeaturePclass
	FeatureSibSp
	FeatureParch
)

type featureSpec struct {
	name string
	get  func(*Record) float64
	set  func(*Record, float64)
}

var featureTable = [...]featureSpec{
	FeatureAge: {
		name: "Age",
		get:  func(r *Record) float64 { return r.Age },
		set: func(r *Record, v float64) {
			r.Age = v
			r.AgeKnown = true
		},
	},
	FeatureFare: {
		name: "Fare",
		get:  func(r *Record) float64 { return r.Fare },
		set:  func(r *Record, v float64) { r.Fare = v },
	},
	FeaturePclass: {
		name: "Pclass",
		get:  func(r *Record) float64 { return float64(r.Pclass) },
		set:  func(r *Record, v float64) { r.Pclass = int(v) },
	},
	FeatureSibSp: {
		name: "SibSp",
		get:  func(r *Record) float64 { return float64(r.SibSp) },
		set:  func(r *Record, v float64) { r.SibSp = int(v) },
	},
	FeatureParch: {
		name: "Parch",
		get:  func(r *Record) float64 { return float64(r.Parch) },
		set:  func(r *Record, v float64) { r.Parch = int(v) },
	},
}

// DefaultFeatures returns the features searched when none are configured:
// Age, then Fare. The order is the split-search tie-break order.
func DefaultFeatures() []FeatureID {
	return []FeatureID{FeatureAge, FeatureFare}
}

// AllFeatures returns every known feature in declaration order.
func AllFeatures() []FeatureID {
	all := make([]FeatureID, len(featureTable))
	for i := range featureTable {
		all[i] = FeatureID(i)
	}
	return all
}

// Valid reports whether f is a known feature.
func (f FeatureID) Valid() bool {
	return f >= 0 && int(f) < len(featureTable)
}

// String returns the display name, e.g. "Age".
func (f FeatureID) String() string {
	if !f.Valid() {
		return "Feature(" + strconv.Itoa(int(f)) + ")"
	}
	return featureTable[f].name
}

// Value reads the feature from r. f must be valid.
func (f FeatureID) Value(r *Record) float64 {
	return featureTable[f].get(r)
}

// SetValue writes v into the field backing f.
func (f FeatureID) SetValue(r *Record, v float64) {
	featureTable[f].set(r, v)
}

// ParseFeature resolves a case-insensitive feature name.
func ParseFeature(name string) (FeatureID, error) {
	want := strings.TrimSpace(name)
	for i, spec := range featureTable {
		if strings.EqualFold(spec.name, want) {
			return FeatureID(i), nil
		}
	}
	return -1, errors.NewValidationError("features", "unknown feature", name)
}

// ParseFeatures resolves a list of names, rejecting unknown and repeated ones.
func ParseFeatures(names []string) ([]FeatureID, error) {
	if len(names) == 0 {
		return nil, errors.NewValidationError("features", "at least one feature is required", names)
	}
	seen := make(map[FeatureID]bool, len(names))
	out := make([]FeatureID, 0, len(names))
	for _, name := range names {
		f, err := ParseFeature(name)
		if err != nil {
			return nil, err
		}
		if seen[f] {
			return nil, errors.NewValidationError("features", "feature listed twice", name)
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// ValidateFeatures checks that features is non-empty, known and unique.
func ValidateFeatures(features []FeatureID) error {
	if len(features) == 0 {
		return errors.NewValidationError("features", "at least one feature is required", features)
	}
	seen := make(map[FeatureID]bool, len(features))
	for _, f := range features {
		if !f.Valid() {
			return errors.NewValidationError("features", "unknown feature", int(f))
		}
		if seen[f] {
			return errors.NewValidationError("features", "feature listed twice", f.String())
		}
		seen[f] = true
	}
	return nil
}

// FeatureNames returns the display names of features.
func FeatureNames(features []FeatureID) []string {
	names := make([]string, len(features))
	for i, f := range features {
		names[i] = f.String()
	}
	return names
}
