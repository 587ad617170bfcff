package core

// convert.go turns raw field strings into pgtype values.
//
// Blank input always yields a value with Valid=false so sinks store NULL.
// Non-blank input that does not parse yields an error; conversion never
// guesses silently.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex matches integers, decimals and scientific notation after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// timestampLayouts are tried in order. Layouts without a zone are read in
// the converter's location.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

var (
	errNotInteger   = errors.New("not a valid integer")
	errOutOfRange   = errors.New("integer out of range")
	errNotDecimal   = errors.New("not a valid decimal number")
	errNotTimestamp = errors.New("unrecognized date/time format")
)

// ParseText trims s.
func ParseText(s string) string {
	return strings.TrimSpace(s)
}

// ParseInteger converts s to pgtype.Int4. Whole floats such as "10.0" are accepted.
func ParseInteger(s string) (pgtype.Int4, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Int4{}, nil
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return pgtype.Int4{}, errNotInteger
		}
		if f < math.MinInt32 || f > math.MaxInt32 {
			return pgtype.Int4{}, errOutOfRange
		}
		i = int64(f)
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return pgtype.Int4{}, errOutOfRange
	}
	return pgtype.Int4{Int32: int32(i), Valid: true}, nil
}

// ParseDecimal converts s to pgtype.Numeric. Currency symbols, thousands
// separators and accounting parentheses for negatives are stripped first.
func ParseDecimal(s string) (pgtype.Numeric, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Numeric{}, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)
	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return pgtype.Numeric{}, errNotDecimal
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{}, errNotDecimal
	}
	return n, nil
}

// ParseTimestamp converts s to pgtype.Timestamptz using timestampLayouts.
func ParseTimestamp(s string, loc *time.Location) (pgtype.Timestamptz, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Timestamptz{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return pgtype.Timestamptz{Time: t, Valid: true}, nil
		}
	}
	return pgtype.Timestamptz{}, errNotTimestamp
}

// ParseDiscontinued is ParseTimestamp with "yes" (any case) meaning now.
func ParseDiscontinued(s string, loc *time.Location, now func() time.Time) (pgtype.Timestamptz, error) {
	if strings.EqualFold(strings.TrimSpace(s), "yes") {
		return pgtype.Timestamptz{Time: now(), Valid: true}, nil
	}
	return ParseTimestamp(s, loc)
}

// NumericFloat returns n as a float64 and whether it holds a value.
func NumericFloat(n pgtype.Numeric) (float64, bool) {
	if !n.Valid || n.NaN {
		return 0, false
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return 0, false
	}
	return f.Float64, true
}
