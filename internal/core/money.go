// Package core holds the domain model of the cash-flow ledger: accounts,
// categories, movements and money handling.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and real representations.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is a monetary magnitude in cents. Calculations are integer-only;
// floating point is used for display purposes exclusively.
type Money struct {
	Cents int64
}

// Validate rejects non-positive amounts. User-entered movements must carry a
// strictly positive magnitude.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return &ValidationError{Fields: []string{"amount"}, Msg: "amount must be positive"}
	}
	return nil
}

// Reais returns the value in currency units as a float64 for display.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// Format renders the amount in pt-BR style (R$ 1234,56), with a leading
// minus for negative values.
func (m Money) Format() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := fmt.Sprintf("R$ %d,%02d", cents/100, cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// ParseCents converts a decimal string to cents with half-up rounding on the
// third decimal place. Both dot and comma decimal separators are accepted.
// The result is always a positive magnitude; signs, zero and malformed input
// are rejected.
//
// Examples:
//
//	ParseCents("12.34") -> 1234, nil
//	ParseCents("12,34") -> 1234, nil
//	ParseCents("12.346") -> 1235, nil (rounds up)
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Fields: []string{"amount"}, Msg: "amount is required"}
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only unsigned magnitudes; the sign comes from the account type.
		return 0, &ValidationError{Fields: []string{"amount"}, Msg: "amount must be an unsigned magnitude"}
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, &ValidationError{Fields: []string{"amount"}, Msg: "malformed amount"}
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, &ValidationError{Fields: []string{"amount"}, Msg: "malformed amount"}
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, &ValidationError{Fields: []string{"amount"}, Msg: "amount out of range"}
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, &ValidationError{Fields: []string{"amount"}, Msg: "amount out of range"}
	}
	// First two fractional digits, half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, &ValidationError{Fields: []string{"amount"}, Msg: "amount must be positive"}
	}
	return cents, nil
}
