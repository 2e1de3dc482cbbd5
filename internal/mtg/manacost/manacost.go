// Package manacost parses mana cost strings and holds the small card rule
// helpers shared by deck analysis and statistics.
package manacost

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CurveMode selects how a mana cost is turned into a curve bucket.
type CurveMode string

const (
	// CurveModeDigits strips every non-digit from the cost and parses what is left,
	// so "{2/W}{10}" reads as 210. This matches what existing clients expect.
	CurveModeDigits CurveMode = "digits"

	// CurveModeSymbols sums the value of each {...} symbol independently.
	CurveModeSymbols CurveMode = "symbols"
)

// Curve bucket labels in display order.
var Buckets = []string{"0", "1", "2", "3", "4", "5+"}

// Curve maps a bucket label to a summed quantity.
type Curve map[string]int

// NewCurve returns a curve with every bucket present and zeroed.
func NewCurve() Curve {
	c := make(Curve, len(Buckets))
	for _, b := range Buckets {
		c[b] = 0
	}
	return c
}

// ParseCurveMode validates a configured curve mode. Empty means digits.
func ParseCurveMode(s string) (CurveMode, error) {
	switch CurveMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", CurveModeDigits:
		return CurveModeDigits, nil
	case CurveModeSymbols:
		return CurveModeSymbols, nil
	default:
		return "", fmt.Errorf("unknown curve mode %q (want %q or %q)", s, CurveModeDigits, CurveModeSymbols)
	}
}

// DigitValue concatenates the digits of cost and parses them.
// A nil cost or a cost without digits yields 0. A number too large for an
// int saturates at math.MaxInt so it still sorts into the top bucket.
func DigitValue(cost *string) int {
	if cost == nil {
		return 0
	}

	var digits strings.Builder
	for _, ch := range *cost {
		if ch >= '0' && ch <= '9' {
			digits.WriteRune(ch)
		}
	}
	if digits.Len() == 0 {
		return 0
	}

	v, err := strconv.Atoi(digits.String())
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt
	}
	if err != nil {
		return 0
	}
	return v
}

// Value returns the mana value of cost by summing its symbols.
// X, Y and Z count as zero. Hybrid and Phyrexian symbols count once,
// except generic hybrids like {2/W} which count their number.
func Value(cost *string) int {
	if cost == nil {
		return 0
	}

	total := 0
	for _, sym := range Symbols(*cost) {
		total += symbolValue(sym)
	}
	return total
}

// Symbols extracts the contents of each {...} group in cost, in order.
func Symbols(cost string) []string {
	var symbols []string
	var current strings.Builder
	inBraces := false

	for _, ch := range cost {
		switch {
		case ch == '{':
			inBraces = true
			current.Reset()
		case ch == '}':
			if inBraces {
				symbols = append(symbols, current.String())
			}
			inBraces = false
		case inBraces:
			current.WriteRune(ch)
		}
	}
	return symbols
}

func symbolValue(sym string) int {
	s := strings.ToUpper(strings.TrimSpace(sym))
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}

	switch s {
	case "X", "Y", "Z":
		return 0
	}

	if first, _, ok := strings.Cut(s, "/"); ok {
		if n, err := strconv.Atoi(first); err == nil {
			return n
		}
	}
	return 1
}

// CostValue returns the value of cost under mode.
func CostValue(cost *string, mode CurveMode) int {
	if mode == CurveModeSymbols {
		return Value(cost)
	}
	return DigitValue(cost)
}

// CurveBucket returns the curve bucket label for cost under mode.
func CurveBucket(cost *string, mode CurveMode) string {
	v := CostValue(cost, mode)
	if v >= 5 {
		return "5+"
	}
	if v < 0 {
		return "0"
	}
	return strconv.Itoa(v)
}
