// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package normalize canonicalizes raw input text before detection. All hit
// offsets produced by the engine refer to the normalized text, so callers
// must keep the normalized form if they want to map hits back to content.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes text for detection:
//   - Unicode NFKC compatibility folding
//   - visually-equivalent dash variants fold to ASCII '-'
//   - ideographic space and runs of spaces/tabs fold to one ASCII space
//   - leading/trailing whitespace is trimmed, except that a whitespace-only
//     input yields a single space rather than an empty string
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	if isCanonicalASCII(text) {
		return text
	}

	t := text
	if !norm.NFKC.IsNormalString(t) {
		t = norm.NFKC.String(t)
	}

	var b strings.Builder
	b.Grow(len(t))
	prevSpace := false
	for _, r := range t {
		switch {
		case isDashVariant(r):
			r = '-'
		case r == '　' || r == '\t':
			r = ' '
		}
		if r == ' ' {
			if prevSpace {
				continue
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
		b.WriteRune(r)
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		// Input was whitespace-only; keep one space so the document is not erased.
		return " "
	}
	return out
}

// isCanonicalASCII reports whether text is already in normalized form: pure
// 7-bit, no tabs, no doubled spaces, no leading/trailing whitespace. This is
// the common case for machine-generated text and skips the full pass.
func isCanonicalASCII(s string) bool {
	if isSpaceByte(s[0]) || isSpaceByte(s[len(s)-1]) {
		return false
	}
	prevSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x80 || c == '\t' {
			return false
		}
		if c == ' ' {
			if prevSpace {
				return false
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
	}
	return true
}

func isSpaceByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// isDashVariant reports whether r is a dash lookalike that callers commonly
// paste in place of a plain hyphen (hyphens, en/em dashes, minus sign).
// Fullwidth forms are already folded to '-' by NFKC.
func isDashVariant(r rune) bool {
	switch r {
	case '‐', '‑', '‒', '–', '—', '―', '−', '﹘', '﹣':
		return true
	}
	return false
}
