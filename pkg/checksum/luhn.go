// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package checksum holds pure validation functions for number-shaped
// candidates. Nothing in here allocates or touches shared state, so the
// functions are safe for concurrent use.
package checksum

import (
	"strconv"
	"strings"
)

// CardResult describes the outcome of card-number validation.
type CardResult struct {
	Valid  bool
	Brand  string
	Reason string
}

// binRange represents a range of issuer identification numbers for a brand.
type binRange struct {
	start, end int
	brand      string
}

var binRanges = []binRange{
	{400000, 499999, "visa"},
	{510000, 559999, "mastercard"},
	{222100, 272099, "mastercard"},
	{340000, 349999, "amex"},
	{370000, 379999, "amex"},
	{601100, 601199, "discover"},
	{644000, 649999, "discover"},
	{650000, 659999, "discover"},
	{350000, 359999, "jcb"},
	{300000, 309999, "diners"},
	{360000, 369999, "diners"},
	{380000, 389999, "diners"},
	{620000, 629999, "unionpay"},
	{500000, 509999, "maestro"},
	{560000, 589999, "maestro"},
}

// Luhn reports whether digits (a string of ASCII digits, no separators)
// passes the Luhn checksum. Any non-digit byte fails the check.
func Luhn(digits string) bool {
	if digits == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// StripSeparators removes spaces and hyphens from a card-shaped token.
func StripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, s)
}

// ValidateCard gates a card-shaped candidate: strip separators, require
// 13-19 digits, require the Luhn checksum to pass. The brand is looked up
// from the leading six digits when available.
func ValidateCard(raw string) CardResult {
	digits := StripSeparators(raw)
	if len(digits) < 13 || len(digits) > 19 {
		return CardResult{Reason: "card_length"}
	}
	if !Luhn(digits) {
		return CardResult{Reason: "luhn_failed"}
	}
	return CardResult{Valid: true, Brand: CardBrand(digits), Reason: "luhn_ok"}
}

// CardBrand returns the issuer brand for a digit string, or "unknown".
func CardBrand(digits string) string {
	if len(digits) < 6 {
		return "unknown"
	}
	bin, err := strconv.Atoi(digits[:6])
	if err != nil {
		return "unknown"
	}
	for _, r := range binRanges {
		if bin >= r.start && bin <= r.end {
			return r.brand
		}
	}
	return "unknown"
}

// IsTestCard reports whether digits is a well-known test or placeholder
// number (payment-gateway documentation numbers and trivial patterns).
// These still pass Luhn, so the scorer uses this to push confidence down.
func IsTestCard(digits string) bool {
	switch digits {
	case "4111111111111111", "5555555555554444", "4000000000000002",
		"5105105105105100", "378282246310005", "371449635398431",
		"6011111111111117", "30569309025904":
		return true
	}
	return repeatedDigits(digits) || sequentialDigits(digits)
}

// repeatedDigits reports whether the string is one digit repeated throughout.
func repeatedDigits(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return len(s) > 0
}

// sequentialDigits reports whether each digit follows the previous one mod 10,
// e.g. 1234567890123456.
func sequentialDigits(s string) bool {
	for i := 1; i < len(s); i++ {
		if int(s[i]-'0') != (int(s[i-1]-'0')+1)%10 {
			return false
		}
	}
	return len(s) > 1
}
