// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package confidence implements the first stage of the two-stage confidence
// model: type priors, keyword context around the span, and type-specific
// checks. Every adjustment appends a machine-readable reason tag so an
// auditor can reconstruct how a score landed where it did. The second stage
// lives in pkg/rules.
package confidence

import (
	"strings"

	"piiscrub/pkg/checksum"
	"piiscrub/pkg/detector"
)

const (
	// ContextWindow is the number of bytes inspected on each side of a span.
	ContextWindow = 50

	neutralPrior = 0.5

	// MaxConfidence reserves 1.0; no heuristic detector is ever certain.
	MaxConfidence = 0.99
)

var typePriors = map[detector.Type]float64{
	detector.TypeCreditCard: 0.25,
	detector.TypeEmail:      0.10,
	detector.TypePhone:      0.05,
	detector.TypeMAC:        0.0,
	detector.TypeIPv4:       0.0,
	detector.TypeIPv6:       0.0,
}

var testVocab = []string{
	"test", "example", "dummy", "sample", "fake", "mock", "placeholder",
	"lorem", "beispiel", "muster", "platzhalter",
}

var testEmailDomains = map[string]bool{
	"example.com": true, "example.org": true, "example.net": true,
	"test.com": true, "email.com": true, "domain.com": true,
	"localhost": true, "invalid": true,
}

var commentPrefixes = []string{"//", "#", "--", ";;", "/*", "*"}

// Scorer computes base confidence for hits. It is stateless and safe to
// share across pipeline instances.
type Scorer struct{}

// NewScorer returns a Scorer.
func NewScorer() *Scorer { return &Scorer{} }

// Score assigns hit.Confidence from the neutral prior, the type prior,
// context adjustments, and type-specific checks, clamped to [0, 0.99].
// Reasons are appended in application order.
func (s *Scorer) Score(h *detector.Hit, text string) {
	c := neutralPrior

	if p, ok := typePriors[h.Type]; ok && p != 0 {
		c += p
		h.AddReason("prior:" + string(h.Type))
	}

	c += s.contextAdjust(h, text)
	c += s.typeAdjust(h)

	if c < 0 {
		c = 0
		h.AddReason("clamp:floor")
	}
	if c > MaxConfidence {
		c = MaxConfidence
		h.AddReason("clamp:ceiling")
	}
	h.Confidence = c
}

// contextAdjust inspects a fixed window around the span.
func (s *Scorer) contextAdjust(h *detector.Hit, text string) float64 {
	lo := h.Start - ContextWindow
	if lo < 0 {
		lo = 0
	}
	hi := h.End + ContextWindow
	if hi > len(text) {
		hi = len(text)
	}
	window := strings.ToLower(text[lo:hi])

	adj := 0.0
	for _, w := range testVocab {
		if strings.Contains(window, w) {
			adj -= 0.20
			h.AddReason("context:test_vocab")
			break
		}
	}

	// Inside a markdown-fenced block: odd count of ``` before the span.
	if strings.Count(text[:h.Start], "```")%2 == 1 {
		adj -= 0.15
		h.AddReason("context:code_fence")
	}

	if lineHasCommentPrefix(text, h.Start) {
		adj -= 0.10
		h.AddReason("context:comment_line")
	}

	switch n := h.End - h.Start; {
	case n < 6:
		adj -= 0.05
		h.AddReason("context:short_match")
	case n >= 20:
		adj += 0.05
		h.AddReason("context:long_match")
	}

	return adj
}

func lineHasCommentPrefix(text string, pos int) bool {
	lineStart := strings.LastIndexByte(text[:pos], '\n') + 1
	line := strings.TrimLeft(text[lineStart:pos], " \t")
	for _, p := range commentPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// typeAdjust applies the per-type checks.
func (s *Scorer) typeAdjust(h *detector.Hit) float64 {
	switch h.Type {
	case detector.TypeEmail:
		return s.emailAdjust(h)
	case detector.TypeIPv4, detector.TypeIPv6:
		return s.ipAdjust(h)
	case detector.TypePhone:
		return s.phoneAdjust(h)
	case detector.TypeCreditCard:
		return s.cardAdjust(h)
	case detector.TypeMAC:
		return s.macAdjust(h)
	}
	return 0
}

func (s *Scorer) emailAdjust(h *detector.Hit) float64 {
	at := strings.LastIndexByte(h.Value, '@')
	if at < 0 {
		return 0
	}
	local := strings.ToLower(h.Value[:at])
	domain := strings.ToLower(h.Value[at+1:])

	adj := 0.0
	if testEmailDomains[domain] {
		adj -= 0.25
		h.AddReason("email:test_domain")
	}
	switch {
	case strings.HasPrefix(local, "noreply"), strings.HasPrefix(local, "no-reply"),
		strings.HasPrefix(local, "donotreply"), strings.HasPrefix(local, "do-not-reply"):
		adj -= 0.15
		h.AddReason("email:noreply_local")
	}
	if plausibleTLD(domain) {
		adj += 0.05
		h.AddReason("email:plausible_tld")
	}
	return adj
}

func plausibleTLD(domain string) bool {
	dot := strings.LastIndexByte(domain, '.')
	if dot < 0 {
		return false
	}
	tld := domain[dot+1:]
	if len(tld) < 2 || len(tld) > 12 {
		return false
	}
	for i := 0; i < len(tld); i++ {
		if tld[i] < 'a' || tld[i] > 'z' {
			return false
		}
	}
	return true
}

func (s *Scorer) ipAdjust(h *detector.Hit) float64 {
	switch h.Features.AddressClass {
	case "public":
		h.AddReason("ip:public_range")
		return 0.10
	case "", "invalid":
		return 0
	default:
		// private, loopback, link_local, unique_local, documentation,
		// multicast, reserved, unspecified
		h.AddReason("ip:" + h.Features.AddressClass + "_range")
		return -0.20
	}
}

var testPhonePrefixes = []string{
	"55501",   // north american fictional block
	"7700900", // uk ofcom drama range
	"1234567", // keyboard walk
}

func (s *Scorer) phoneAdjust(h *detector.Hit) float64 {
	digits := keepDigits(h.Value)

	same := true
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			same = false
			break
		}
	}
	if same && len(digits) > 0 {
		h.AddReason("phone:repeated_digits")
		return -0.30
	}
	for _, p := range testPhonePrefixes {
		if strings.Contains(digits, p) {
			h.AddReason("phone:test_range")
			return -0.30
		}
	}
	return 0
}

func keepDigits(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func (s *Scorer) cardAdjust(h *detector.Hit) float64 {
	digits := checksum.StripSeparators(h.Value)
	adj := 0.0
	// Known test numbers rank below real cards but must stay redactable.
	if checksum.IsTestCard(digits) {
		adj -= 0.05
		h.AddReason("card:test_number")
	}
	if h.Features.Brand != "" && h.Features.Brand != "unknown" {
		adj += 0.05
		h.AddReason("card:known_brand")
	} else {
		adj -= 0.10
		h.AddReason("card:unknown_brand")
	}
	return adj
}

func (s *Scorer) macAdjust(h *detector.Hit) float64 {
	lower := strings.ToLower(h.Value)
	if lower == "ff:ff:ff:ff:ff:ff" || lower == "00:00:00:00:00:00" {
		h.AddReason("mac:broadcast_or_zero")
		return -0.25
	}
	// Locally administered bit set in the first octet.
	if len(lower) >= 2 {
		switch lower[1] {
		case '2', '6', 'a', 'e':
			h.AddReason("mac:locally_administered")
			return -0.10
		}
	}
	return 0
}
