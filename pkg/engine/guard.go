// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"strings"
)

// Guard bounds the work a single Detect call may do. A rejected document is
// skipped entirely and reported with an empty hit set; callers degrade to
// "no redaction possible" instead of crashing or stalling.
type Guard struct {
	// MaxDocumentLength is the hard input ceiling in bytes.
	MaxDocumentLength int
	// MaxMatchesPerPattern caps matches processed per pattern family.
	MaxMatchesPerPattern int
	// MaxComplexityScore rejects inputs likely to trigger pathological
	// matcher behavior before the matcher runs.
	MaxComplexityScore int
}

// DefaultGuard returns the limits used when the caller supplies none.
func DefaultGuard() Guard {
	return Guard{
		MaxDocumentLength:    4 << 20, // 4 MiB
		MaxMatchesPerPattern: 10000,
		MaxComplexityScore:   100,
	}
}

// GuardReason explains why a document was refused. Empty means accepted.
type GuardReason string

const (
	GuardOK         GuardReason = ""
	GuardTooLong    GuardReason = "input_too_long"
	GuardTooComplex GuardReason = "input_too_complex"
)

// Check inspects text against the guard limits.
func (g Guard) Check(text string) GuardReason {
	if g.MaxDocumentLength > 0 && len(text) > g.MaxDocumentLength {
		return GuardTooLong
	}
	if g.MaxComplexityScore > 0 && complexityScore(text) > g.MaxComplexityScore {
		return GuardTooComplex
	}
	return GuardOK
}

// complexityScore is a cheap estimate of how hostile the input is to a regex
// matcher: long repeated-character runs, deep bracket nesting, and a high
// density of alternation/quantifier metacharacters all add to the score.
func complexityScore(text string) int {
	score := 0

	// Long repeated-character runs.
	run := 1
	for i := 1; i < len(text); i++ {
		if text[i] == text[i-1] {
			run++
			if run == 64 {
				score += 10
			}
			if run == 512 {
				score += 40
			}
		} else {
			run = 1
		}
	}

	// Deep bracket nesting.
	depth, maxDepth := 0, 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(', '[', '{':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		}
	}
	if maxDepth > 32 {
		score += 20
	}
	if maxDepth > 128 {
		score += 40
	}

	// Alternation and quantifier density. Normal prose has very few of these;
	// regex-bomb payloads are saturated with them.
	if len(text) > 0 {
		meta := strings.Count(text, "|") + strings.Count(text, "*") +
			strings.Count(text, "+") + strings.Count(text, "?")
		if meta*20 > len(text) { // above 5% density
			score += 30
		}
		if meta*5 > len(text) { // above 20% density
			score += 40
		}
	}

	return score
}
