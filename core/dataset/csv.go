package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/survtree/pkg/errors"
)

// Column names of the passenger file. Matching is case-insensitive.
const (
	ColPassengerID = "PassengerId"
	ColSurvived    = "Survived"
	ColPclass      = "Pclass"
	ColName        = "Name"
	ColSex         = "Sex"
	ColAge         = "Age"
	ColSibSp       = "SibSp"
	ColParch       = "Parch"
	ColTicket      = "Ticket"
	ColFare        = "Fare"
	ColCabin       = "Cabin"
	ColEmbarked    = "Embarked"
)

var requiredColumns = []string{ColPassengerID, ColAge, ColFare}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return ds, nil
}

// ReadCSV parses a passenger file with a header row. Columns are located by
// name, so their order and any extra columns do not matter. PassengerId,
// Age and Fare are required. When Survived is absent every record is
// marked Unlabeled. Empty Age cells leave AgeKnown false and Age 0; other
// empty numeric cells read as 0. Quoted fields may contain commas.
func ReadCSV(r io.Reader) (Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewMalformedRecordError(1, "", "", errors.New("missing header row"))
	}
	if err != nil {
		return nil, csvError(err)
	}
	cols := indexColumns(header)
	for _, name := range requiredColumns {
		if _, ok := cols[strings.ToLower(name)]; !ok {
			return nil, errors.NewMalformedRecordError(1, name, "", errors.New("required column missing from header"))
		}
	}
	_, labeled := cols[strings.ToLower(ColSurvived)]

	var ds Dataset
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := cr.FieldPos(0)
		if blankRow(row) {
			continue
		}
		rec, err := parseRow(row, cols, line)
		if err != nil {
			return nil, err
		}
		rec.Unlabeled = !labeled
		ds = append(ds, rec)
	}
	return ds, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type rowParser struct {
	row  []string
	cols map[string]int
	line int
	err  error
}

func (p *rowParser) text(name string) string {
	i, ok := p.cols[strings.ToLower(name)]
	if !ok || i >= len(p.row) {
		return ""
	}
	return strings.TrimSpace(p.row[i])
}

func (p *rowParser) integer(name string) int {
	v := p.text(name)
	if v == "" || p.err != nil {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = errors.NewMalformedRecordError(p.line, name, v, err)
	}
	return n
}

func (p *rowParser) number(name string) (float64, bool) {
	v := p.text(name)
	if v == "" || p.err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err == nil {
		err = errors.CheckScalar(name, f, p.line)
	}
	if err != nil {
		p.err = errors.NewMalformedRecordError(p.line, name, v, err)
		return 0, false
	}
	return f, true
}

func parseRow(row []string, cols map[string]int, line int) (Record, error) {
	p := &rowParser{row: row, cols: cols, line: line}

	var rec Record
	if p.text(ColPassengerID) == "" {
		return rec, errors.NewMalformedRecordError(line, ColPassengerID, "", errors.New("value is required"))
	}
	if _, labeled := cols[strings.ToLower(ColSurvived)]; labeled && p.text(ColSurvived) == "" {
		return rec, errors.NewMalformedRecordError(line, ColSurvived, "", errors.New("value is required"))
	}
	rec.PassengerID = p.integer(ColPassengerID)
	rec.Survived = p.integer(ColSurvived)
	rec.Pclass = p.integer(ColPclass)
	rec.Name = p.text(ColName)
	rec.Sex = p.text(ColSex)
	rec.Age, rec.AgeKnown = p.number(ColAge)
	rec.SibSp = p.integer(ColSibSp)
	rec.Parch = p.integer(ColParch)
	rec.Ticket = p.text(ColTicket)
	rec.Fare, _ = p.number(ColFare)
	rec.Cabin = p.text(ColCabin)
	rec.Embarked = p.text(ColEmbarked)
	if p.err != nil {
		return Record{}, p.err
	}
	if rec.Survived != 0 && rec.Survived != 1 {
		return Record{}, errors.NewMalformedRecordError(line, ColSurvived, p.text(ColSurvived), errors.New("label must be 0 or 1"))
	}
	return rec, nil
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return errors.NewMalformedRecordError(pe.Line, "", "", pe.Err)
	}
	return errors.Wrap(err, "failed to read csv")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
