package etl

// convert.go holds the string-to-typed coercions the Transformer applies.
// The Reader never types cells, so whole-file and chunked paths both funnel
// through these. Nil means the cell was null or unparseable; the Writer
// turns nil into SQL NULL (or a column default where the schema requires
// NOT NULL).

import (
	"strconv"
	"strings"
)

// toText returns the trimmed cell, or "" for null sentinels.
func toText(s string) string {
	if IsNull(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

// toIntPtr parses an integer cell. Values like "35.0" that survey extracts
// sometimes carry for integer codes are accepted when integral.
func toIntPtr(s string) *int {
	s = toText(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return nil
	}
	n := int(f)
	return &n
}

// toFloatPtr parses a numeric cell.
func toFloatPtr(s string) *float64 {
	s = toText(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// toBoolPtr parses the raw representations the source uses for boolean
// flags (numeric 0/1 plus the usual true/false spellings).
func toBoolPtr(s string) *bool {
	switch strings.ToLower(toText(s)) {
	case "":
		return nil
	case "1", "true", "t", "yes", "y":
		v := true
		return &v
	case "0", "false", "f", "no", "n":
		v := false
		return &v
	default:
		// Some extracts encode the flag as a float
		if f, err := strconv.ParseFloat(toText(s), 64); err == nil {
			v := f != 0
			return &v
		}
		return nil
	}
}
