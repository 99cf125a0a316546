// Package core holds the ledger domain model and the pure computation
// engine: VAT arithmetic, report aggregations and journal quality checks.
//
// This file contains amount parsing and rounding helpers. Amounts coming
// from spreadsheets arrive with currency symbols, thousands separators and
// locale decimal commas; everything is normalized to a plain decimal here.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Round2 rounds to 2 decimal places, half up. All report outputs pass
// through this before leaving the engine.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseAmount converts a raw cell value to a decimal amount.
//
// Tolerated input: currency symbols and codes (€, $, £, "EUR"), plain and
// non-breaking spaces, thousands separators, and decimal-comma notation.
// A lone separator followed by exactly three digits is read as a thousands
// mark, never as a decimal point: currency cells carry at most two
// fractional digits.
//
// Examples:
//
//	ParseAmount("1.234,56 €") -> 1234.56
//	ParseAmount("1,234.56")   -> 1234.56
//	ParseAmount("12,34")      -> 12.34
//	ParseAmount("1.234")      -> 1234
func ParseAmount(s string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',', r == '-', r == '+':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero, ErrInvalidAmountFormat
	}

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// European notation: 1.234,56
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			// Anglo notation: 1,234.56
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		cleaned = normalizeSingleSeparator(cleaned, ",")
	case lastDot >= 0:
		cleaned = normalizeSingleSeparator(cleaned, ".")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrInvalidAmountFormat
	}
	return d, nil
}

// normalizeSingleSeparator resolves the ambiguity of one separator kind.
// Repeated separators are thousands marks; a lone separator followed by
// exactly three digits is a thousands mark too (currency carries two
// fractional digits at most), otherwise it is the decimal point.
func normalizeSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	idx := strings.LastIndex(s, sep)
	if len(s)-idx-1 == 3 && idx > 0 {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}
