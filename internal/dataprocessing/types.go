package dataprocessing

import (
	"errors"
	"fmt"
	"strings"
)

// Required column names, in the order they are reported when missing.
const (
	ColumnState     = "state"
	ColumnYear      = "year"
	ColumnIndicator = "indicator"
	ColumnValue     = "value"
)

// RequiredColumns lists the header names every input must carry.
var RequiredColumns = []string{ColumnState, ColumnYear, ColumnIndicator, ColumnValue}

var (
	// ErrEmptyResult signals that there are no records to summarize.
	ErrEmptyResult = errors.New("no rows to display")

	// ErrUnknownGroupKey is returned for group keys other than state or year.
	ErrUnknownGroupKey = errors.New("unknown group key")
)

// Record is one validated row of the dataset.
type Record struct {
	State     string  `json:"state"`
	Year      int     `json:"year"`
	Indicator string  `json:"indicator"`
	Value     float64 `json:"value"`
}

// GroupKey selects the record field used to partition records.
type GroupKey string

const (
	GroupByState GroupKey = "state"
	GroupByYear  GroupKey = "year"
)

// ParseGroupKey validates a group key coming from a query string or flag.
func ParseGroupKey(s string) (GroupKey, error) {
	switch GroupKey(strings.ToLower(strings.TrimSpace(s))) {
	case GroupByState:
		return GroupByState, nil
	case GroupByYear:
		return GroupByYear, nil
	default:
		return "", fmt.Errorf("%w: %q (expected state or year)", ErrUnknownGroupKey, s)
	}
}

// AggregatePair is the mean of Value within one group.
type AggregatePair struct {
	Label   string  `json:"label"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Summary holds the dashboard KPIs for a record sequence.
// Empty is set instead of computing a mean over zero records.
type Summary struct {
	Rows         int     `json:"rows"`
	States       int     `json:"states"`
	Years        int     `json:"years"`
	Indicators   int     `json:"indicators"`
	AverageValue float64 `json:"average_value"`
	Empty        bool    `json:"empty"`
}

// ParseStats describes how the tolerant row filter treated the input.
type ParseStats struct {
	DataLines int `json:"data_lines"`
	Accepted  int `json:"accepted"`
	Dropped   int `json:"dropped"`
}

// SchemaError reports required columns absent from the header line.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "CSV missing required columns: " + strings.Join(e.Missing, ", ")
}
