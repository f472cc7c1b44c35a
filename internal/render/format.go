package render

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumber formats v the way the en-IN locale does: the last three integer
// digits form one group and the remaining digits are grouped in pairs
// (12,34,567). At most maxFractionDigits decimals are kept, rounding half away
// from zero on the shortest decimal form of v, and trailing zeros are dropped.
// A value that rounds to zero is printed without a sign.
func FormatNumber(v float64, maxFractionDigits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	}
	if maxFractionDigits < 0 {
		maxFractionDigits = 0
	}

	intPart, fracPart := roundDecimal(math.Abs(v), maxFractionDigits)
	fracPart = strings.TrimRight(fracPart, "0")

	var sb strings.Builder
	if v < 0 && (strings.Trim(intPart, "0") != "" || fracPart != "") {
		sb.WriteByte('-')
	}
	sb.WriteString(groupIndian(intPart))
	if fracPart != "" {
		sb.WriteByte('.')
		sb.WriteString(fracPart)
	}
	return sb.String()
}

// roundDecimal returns the integer and fraction digits of abs rounded to digits places
func roundDecimal(abs float64, digits int) (string, string) {
	shortest := strconv.FormatFloat(abs, 'f', -1, 64)
	intPart, fracPart, _ := strings.Cut(shortest, ".")
	if len(fracPart) < digits {
		fracPart += strings.Repeat("0", digits-len(fracPart))
	}

	roundUp := len(fracPart) > digits && fracPart[digits] >= '5'
	fracPart = fracPart[:digits]
	if !roundUp {
		return intPart, fracPart
	}

	combined := []byte(intPart + fracPart)
	i := len(combined) - 1
	for ; i >= 0; i-- {
		if combined[i] == '9' {
			combined[i] = '0'
			continue
		}
		combined[i]++
		break
	}
	if i < 0 {
		combined = append([]byte{'1'}, combined...)
	}

	split := len(combined) - digits
	return string(combined[:split]), string(combined[split:])
}

// groupIndian inserts separators into a run of integer digits
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)

	return strings.Join(groups, ",") + "," + tail
}

// FormatCount formats an integer count without fraction digits
func FormatCount(n int) string {
	return FormatNumber(float64(n), 0)
}
