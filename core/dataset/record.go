// Package dataset holds the passenger record model, the feature table used
// for splitting, and the CSV ingestion that feeds the tree builder.
package dataset

// Record is one passenger. Only the feature fields listed in the feature
// table and Survived are read by the tree; the rest is carried as payload.
type Record struct {
	PassengerID int
	Survived    int // label, 0 or 1
	Pclass      int
	Name        string
	Sex         string
	Age         float64 // 0 when the source had no age; see AgeKnown
	AgeKnown    bool
	SibSp       int
	Parch       int
	Ticket      string
	Fare        float64
	Cabin       string
	Embarked    string

	// Unlabeled is set by ingestion when the source file has no Survived
	// column. Survived is then 0 and must not be used for scoring.
	Unlabeled bool
}

// Dataset is an ordered sequence of records. Order does not change the
// induced tree except through tie-breaking, which follows this order.
type Dataset []Record

// Len returns the number of records.
func (d Dataset) Len() int { return len(d) }

// Positives returns the number of records labeled 1.
func (d Dataset) Positives() int {
	n := 0
	for i := range d {
		n += d[i].Survived
	}
	return n
}

// Labels returns the Survived column in record order.
func (d Dataset) Labels() []int {
	labels := make([]int, len(d))
	for i := range d {
		labels[i] = d[i].Survived
	}
	return labels
}

// Labeled reports whether every record carries a label.
func (d Dataset) Labeled() bool {
	for i := range d {
		if d[i].Unlabeled {
			return false
		}
	}
	return true
}
