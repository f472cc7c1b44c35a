package dataprocessing

import (
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"
)

type accumulator struct {
	sum   float64
	count int
}

// GroupAverage averages Value per distinct key and orders the groups by descending
// average. Groups with equal averages keep the order in which they were first seen.
// An unknown key yields no groups.
func GroupAverage(records []Record, key GroupKey) []AggregatePair {
	order := make([]string, 0)
	groups := make(map[string]*accumulator)

	for _, r := range records {
		label, ok := groupLabel(r, key)
		if !ok {
			return []AggregatePair{}
		}
		acc, seen := groups[label]
		if !seen {
			acc = &accumulator{}
			groups[label] = acc
			order = append(order, label)
		}
		acc.sum += r.Value
		acc.count++
	}

	pairs := make([]AggregatePair, 0, len(order))
	for _, label := range order {
		acc := groups[label]
		pairs = append(pairs, AggregatePair{
			Label:   label,
			Average: acc.sum / float64(acc.count),
			Count:   acc.count,
		})
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Average > pairs[j].Average
	})

	return pairs
}

func groupLabel(r Record, key GroupKey) (string, bool) {
	switch key {
	case GroupByState:
		return r.State, true
	case GroupByYear:
		return strconv.Itoa(r.Year), true
	default:
		return "", false
	}
}

// Summarize computes the dashboard KPIs. With no records it returns ErrEmptyResult and a
// Summary flagged Empty rather than a NaN average.
func Summarize(records []Record) (Summary, error) {
	if len(records) == 0 {
		return Summary{Empty: true}, ErrEmptyResult
	}

	states := make(map[string]struct{})
	years := make(map[int]struct{})
	indicators := make(map[string]struct{})
	values := make(stats.Float64Data, 0, len(records))

	for _, r := range records {
		states[r.State] = struct{}{}
		years[r.Year] = struct{}{}
		indicators[r.Indicator] = struct{}{}
		values = append(values, r.Value)
	}

	mean, err := values.Mean()
	if err != nil {
		return Summary{Empty: true}, ErrEmptyResult
	}

	return Summary{
		Rows:         len(records),
		States:       len(states),
		Years:        len(years),
		Indicators:   len(indicators),
		AverageValue: mean,
	}, nil
}
