// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package detector defines the data model shared by the detection pipeline:
// the Hit record, the Detector and Masker extension capabilities, and the
// pooled allocator that owns Hit records during a scan.
package detector

import (
	"piiscrub/pkg/security"
)

// Type tags the pattern family a hit belongs to. External detectors may use
// their own tags; the built-in engine emits the constants below.
type Type string

const (
	TypeEmail      Type = "email"
	TypeIPv4       Type = "ipv4"
	TypeIPv6       Type = "ipv6"
	TypeMAC        Type = "mac"
	TypePhone      Type = "phone"
	TypeCreditCard Type = "credit_card"
)

// Risk is a coarse severity label assigned at detection time, independent of
// the calibrated confidence score.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// RuleEffect records one contextual rule application for audit.
type RuleEffect struct {
	RuleID         string  `json:"rule_id"`
	Direction      string  `json:"direction"` // "boost" or "suppress"
	Weight         float64 `json:"weight"`
	MarkerDistance int     `json:"marker_distance"` // -1 when no marker was involved
}

// Features is the fixed-schema feature record attached to a hit. It replaces
// an open-ended map so downstream consumers get a stable shape.
type Features struct {
	Brand          string       `json:"brand,omitempty"`         // card brand, when known
	AddressClass   string       `json:"address_class,omitempty"` // ip range classification
	MarkerDistance int          `json:"marker_distance"`         // -1 when no marker nearby
	RuleEffects    []RuleEffect `json:"rule_effects,omitempty"`
}

// Hit is a detected candidate span. Start and End are half-open offsets into
// the normalized text; Value equals normalizedText[Start:End] at creation.
//
// Hits are pool-owned: a pipeline that acquires one must either keep it in
// the emitted result set or release it back to the pool. Confidence stays in
// [0, 0.99]; exactly 1.0 is reserved.
type Hit struct {
	Type       Type     `json:"type"`
	Start      int      `json:"start"`
	End        int      `json:"end"`
	Value      string   `json:"value"`
	Risk       Risk     `json:"risk"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons,omitempty"`
	Features   Features `json:"features"`

	// secure holds the pool-owned mutable copy of Value so the release path
	// has bytes it can actually wipe.
	secure *security.SecureString
}

// AddReason appends a machine-readable reason tag to the audit trail.
func (h *Hit) AddReason(tag string) {
	h.Reasons = append(h.Reasons, tag)
}

// clear scrubs the sensitive payload and resets the record for reuse.
func (h *Hit) clear() {
	h.Value = ""
	if h.secure != nil {
		h.secure.Clear()
		h.secure = nil
	}
	h.Type = ""
	h.Start, h.End = 0, 0
	h.Risk = ""
	h.Confidence = 0
	h.Reasons = nil
	h.Features = Features{MarkerDistance: -1}
}

// MatchUtils is the surface handed to Detector implementations. It exposes
// the normalized text, context-hint checks, and a validated hit sink.
type MatchUtils interface {
	// Text returns the normalized document text.
	Text() string
	// HasHint reports whether word was supplied as a context hint for this scan.
	HasHint(word string) bool
	// Emit submits a candidate hit. Malformed hits (inverted or out-of-bounds
	// spans, value mismatch) are rejected with an error and never reach the
	// overlap resolver.
	Emit(h Hit) error
}

// Detector is the extension capability for external pattern sources.
// Implementations scan u.Text() and push candidates through u.Emit.
type Detector interface {
	ID() string
	Priority() int
	Match(u MatchUtils)
}

// Masker produces a replacement string for a hit under the mask action.
// Registering one per type overrides the built-in type-aware masks.
type Masker interface {
	Mask(h *Hit) string
}

// MaskerFunc adapts a plain function to the Masker capability.
type MaskerFunc func(h *Hit) string

// Mask implements Masker.
func (f MaskerFunc) Mask(h *Hit) string { return f(h) }
