package ingest

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var errEmptyValue = errors.New("empty value")

// LastField returns the text after the final sep, trimmed of blanks and
// quotes. Returns the whole line if sep does not occur.
func LastField(line string, sep byte) string {
	idx := strings.LastIndexByte(line, sep)
	return Clean(line[idx+1:])
}

// Clean trims surrounding whitespace and double quotes.
func Clean(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// IsVehicleID reports whether s looks like a vehicle number: non-empty,
// shorter than 10 characters and a plain decimal number. NaN, Inf, hex
// floats, exponents and digit separators are rejected.
func IsVehicleID(s string) bool {
	if s == "" || len(s) >= 10 || !isDecimal(s) {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// isDecimal matches [+-]?digits[.digits] with at least one digit
func isDecimal(s string) bool {
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	digits, dot := 0, false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
}

// ParseTimestamp converts a timestamp to epoch milliseconds. Accepted are
// ISO-8601 variants (no zone means UTC) and plain epoch milliseconds.
func ParseTimestamp(s string) (int64, error) {
	s = Clean(s)
	if s == "" {
		return 0, errEmptyValue
	}
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(ms), nil
	}
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UnixMilli(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return 0, firstErr
}

// ParseSeconds converts a duration value to seconds. Accepted are plain
// seconds ("95.2"), clock strings ("1:35.200", "0:01:35.2") and millisecond
// numbers above 5000 ("95200").
func ParseSeconds(s string) (float64, error) {
	s = Clean(s)
	if s == "" {
		return 0, errEmptyValue
	}
	if !strings.Contains(s, ":") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		if v > 5000 {
			return v / 1000.0, nil
		}
		return v, nil
	}
	parts := strings.Split(s, ":")
	total := 0.0
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, err
		}
		total = total*60 + v
	}
	return total, nil
}

// ParseFloat parses a numeric cell, tolerating blanks, quotes and a decimal
// comma.
func ParseFloat(s string) (float64, error) {
	s = Clean(s)
	if s == "" {
		return 0, errEmptyValue
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && strings.Contains(s, ",") {
		return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	}
	return v, err
}
