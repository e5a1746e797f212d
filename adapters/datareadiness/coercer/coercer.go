package coercer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"healthinsights/domain/core"
)

// Outcome classifies what happened to one raw cell.
type Outcome int

const (
	// Parsed means the cell held a valid value.
	Parsed Outcome = iota
	// Empty means the cell was blank and is missing in the source.
	Empty
	// Coerced means the cell held text that failed to parse and was
	// replaced by the missing marker.
	Coerced
)

func (o Outcome) String() string {
	switch o {
	case Parsed:
		return "parsed"
	case Empty:
		return "empty"
	case Coerced:
		return "coerced"
	}
	return "unknown"
}

// DefaultDateLayouts are tried in order until one parses.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// TypeCoercer converts raw cell text into typed values, substituting the
// missing marker instead of failing.
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion rules
type CoercionConfig struct {
	DateLayouts     []string `json:"date_layouts"`
	CurrencySymbols []string `json:"currency_symbols"`
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		DateLayouts:     append([]string(nil), DefaultDateLayouts...),
		CurrencySymbols: []string{"$", "€", "£", "¥", "USD", "EUR", "GBP"},
	}
}

// WithExtraDateLayouts returns a copy of c that also tries layouts after the
// configured ones.
func (c CoercionConfig) WithExtraDateLayouts(layouts ...string) CoercionConfig {
	c.DateLayouts = append(append([]string(nil), c.DateLayouts...), layouts...)
	return c
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	if len(config.DateLayouts) == 0 {
		config.DateLayouts = DefaultDateLayouts
	}
	return &TypeCoercer{config: config}
}

// ParseDate parses a calendar date. Unparseable text yields a missing value
// with outcome Coerced.
func (c *TypeCoercer) ParseDate(raw string) (core.Optional[time.Time], Outcome) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return core.None[time.Time](), Empty
	}
	for _, layout := range c.config.DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.Some(t), Parsed
		}
	}
	return core.None[time.Time](), Coerced
}

// ParseNumber parses a numeric cell. It accepts thousands separators,
// currency symbols and accounting negatives such as "(12.50)".
func (c *TypeCoercer) ParseNumber(raw string) (core.Optional[float64], Outcome) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return core.None[float64](), Empty
	}
	if v, ok := c.tryParseNumeric(s); ok {
		return core.Some(v), Parsed
	}
	return core.None[float64](), Coerced
}

// tryParseNumeric attempts to parse as numeric with strict rules
func (c *TypeCoercer) tryParseNumeric(cleanVal string) (float64, bool) {
	// Handle parentheses for negative numbers: (123) -> -123
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range c.config.CurrencySymbols {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(cleanVal)
	cleanVal = strings.ReplaceAll(cleanVal, ",", "")

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}
