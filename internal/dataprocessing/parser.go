package dataprocessing

import (
	"math"
	"strconv"
	"strings"
)

// Parse converts CSV text into records. It fails with *SchemaError when the header lacks
// a required column; malformed data rows are dropped without error.
func Parse(text string) ([]Record, error) {
	records, _, err := ParseWithStats(text)
	return records, err
}

// ParseWithStats is Parse plus a count of the data lines that were accepted and dropped.
func ParseWithStats(text string) ([]Record, ParseStats, error) {
	lines := splitLines(text)

	var header string
	if len(lines) > 0 {
		header = lines[0]
	}
	columns := headerIndex(header)

	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, ParseStats{}, &SchemaError{Missing: missing}
	}

	stats := ParseStats{}
	records := make([]Record, 0, len(lines))
	if len(lines) > 1 {
		stats.DataLines = len(lines) - 1
		for _, line := range lines[1:] {
			cells := splitCells(line)
			record, ok := buildRecord(cells, columns)
			if !ok {
				stats.Dropped++
				continue
			}
			records = append(records, record)
		}
	}
	stats.Accepted = len(records)

	return records, stats, nil
}

// splitLines trims the whole input, splits on \n or \r\n and drops empty lines.
func splitLines(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// headerIndex maps canonical column names to positions. A repeated name keeps its last
// position.
func headerIndex(header string) map[string]int {
	index := make(map[string]int)
	if header == "" {
		return index
	}
	for i, cell := range splitCells(header) {
		index[strings.ToLower(cell)] = i
	}
	return index
}

func splitCells(line string) []string {
	cells := strings.Split(line, ",")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func cell(cells []string, columns map[string]int, name string) string {
	i := columns[name]
	if i >= len(cells) {
		return ""
	}
	return cells[i]
}

func buildRecord(cells []string, columns map[string]int) (Record, bool) {
	state := cell(cells, columns, ColumnState)
	if state == "" {
		return Record{}, false
	}

	year, ok := parseYear(cell(cells, columns, ColumnYear))
	if !ok {
		return Record{}, false
	}

	value, ok := parseFinite(cell(cells, columns, ColumnValue))
	if !ok {
		return Record{}, false
	}

	return Record{
		State:     state,
		Year:      year,
		Indicator: cell(cells, columns, ColumnIndicator),
		Value:     value,
	}, true
}

// maxYear is 2^63, the first magnitude that does not fit in an int.
const maxYear = 1 << 63

// parseFinite accepts any decimal text that converts to a finite float64.
// Empty text converts to zero.
func parseFinite(s string) (float64, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseYear accepts finite numbers representable as an int and truncates fractions.
func parseYear(s string) (int, bool) {
	v, ok := parseFinite(s)
	if !ok || v >= maxYear || v <= -maxYear {
		return 0, false
	}
	return int(math.Trunc(v)), true
}
