package sources

import (
	_ "embed"
)

// SampleLabel names the built-in dataset in the dashboard status line
const SampleLabel = "built-in NDAP sample dataset"

//go:embed sample_literacy.csv
var sampleCSV string

// Sample returns the built-in literacy dataset and its label
func Sample() (text, label string) {
	return sampleCSV, SampleLabel
}
