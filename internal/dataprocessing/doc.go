// Package dataprocessing turns raw state indicator CSV text into typed records and
// reduces those records into the aggregates the dashboard displays.
//
// # Architecture
//
// The package has two components with no dependency between them beyond data flow:
//
// 1. Parser: converts delimited text into a sequence of Record values
// 2. Aggregator: computes grouped averages and summary statistics over records
//
// Neither component performs I/O, logs or keeps state between calls. Fetching text from a
// URL, reading files and formatting numbers for display live in the sources and render
// packages.
//
// # Usage
//
// Parsing:
//
//	records, err := dataprocessing.Parse(text)
//	var schemaErr *dataprocessing.SchemaError
//	if errors.As(err, &schemaErr) {
//	    log.Printf("missing columns: %v", schemaErr.Missing)
//	}
//
// Aggregating:
//
//	byState := dataprocessing.GroupAverage(records, dataprocessing.GroupByState)
//	summary, err := dataprocessing.Summarize(records)
//	if errors.Is(err, dataprocessing.ErrEmptyResult) {
//	    // render the "no rows to display" state
//	}
//
// # Data Flow
//
//	CSV text → Parse → []Record → GroupAverage / Summarize → render.View
//
// # Tolerant Parsing
//
// The header must contain state, year, indicator and value (any case, any order, extra
// columns allowed). Data rows whose state is blank or whose year or value is not a finite
// number are dropped silently; they shrink the result instead of failing the load. A blank
// year or value reads as 0.
// ParseWithStats reports how many rows were dropped. Fields are split on bare commas, there
// is no quoting support.
//
// # Error Handling
//
//   - SchemaError: the header lacks required columns, nothing is parsed
//   - ErrEmptyResult: Summarize was given no records
//   - ErrUnknownGroupKey: ParseGroupKey received something other than state or year
//
// # Testing
//
// Table-driven tests cover the parser edge cases and the aggregation ordering rules.
package dataprocessing
