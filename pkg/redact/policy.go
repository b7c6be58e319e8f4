// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package redact turns detection hits into redacted output under a policy.
// A policy picks an action per finding type, a confidence threshold via a
// named sensitivity level, and the key material for tokenization.
package redact

import (
	"errors"
	"fmt"
	"sort"

	"piiscrub/pkg/detector"
)

// Action is what happens to a finding's span in the output.
type Action string

const (
	ActionMask     Action = "mask"
	ActionRemove   Action = "remove"
	ActionTokenize Action = "tokenize"
	ActionIgnore   Action = "ignore"
)

// Sensitivity names a confidence threshold. Strict redacts aggressively,
// relaxed only acts on high-confidence findings.
type Sensitivity string

const (
	SensitivityStrict   Sensitivity = "strict"
	SensitivityBalanced Sensitivity = "balanced"
	SensitivityRelaxed  Sensitivity = "relaxed"
)

var sensitivityThresholds = map[Sensitivity]float64{
	SensitivityStrict:   0.5,
	SensitivityBalanced: 0.7,
	SensitivityRelaxed:  0.85,
}

// MinTokenKeyLen is the smallest accepted HMAC key, in bytes.
const MinTokenKeyLen = 32

// ErrTokenKeyTooShort is returned when a tokenize action would run with a key
// shorter than MinTokenKeyLen. It is raised before any output is produced.
var ErrTokenKeyTooShort = errors.New("redact: tokenization key must be at least 32 bytes")

// TypePolicy overrides the default action for one finding type.
type TypePolicy struct {
	Action Action

	// PreserveLast4 keeps the final four digits visible under ActionMask.
	// It only affects digit-bearing types.
	PreserveLast4 bool
}

// Policy is the full redaction configuration. The zero value is not usable;
// start from DefaultPolicy.
type Policy struct {
	DefaultAction Action
	Types         map[detector.Type]TypePolicy

	Sensitivity Sensitivity
	// Threshold, when non-zero, overrides the sensitivity level's threshold.
	Threshold float64

	// ContextHints are caller-supplied substrings that prime detection, made
	// available to detectors through MatchUtils.
	ContextHints []string

	// HMACKey feeds tokenization. Required when any effective action is
	// ActionTokenize.
	HMACKey []byte

	// Maskers substitute custom mask rendering per type.
	Maskers map[detector.Type]detector.Masker
}

// DefaultPolicy masks everything at balanced sensitivity with last-4
// preservation for cards.
func DefaultPolicy() Policy {
	return Policy{
		DefaultAction: ActionMask,
		Types: map[detector.Type]TypePolicy{
			detector.TypeCreditCard: {Action: ActionMask, PreserveLast4: true},
		},
		Sensitivity: SensitivityBalanced,
	}
}

// EffectiveThreshold resolves the confidence cutoff: an explicit numeric
// threshold wins, then the named sensitivity, then balanced.
func (p Policy) EffectiveThreshold() float64 {
	if p.Threshold > 0 {
		return p.Threshold
	}
	if t, ok := sensitivityThresholds[p.Sensitivity]; ok {
		return t
	}
	return sensitivityThresholds[SensitivityBalanced]
}

// ActionFor returns the effective action and last-4 flag for a type.
func (p Policy) ActionFor(t detector.Type) (Action, bool) {
	if tp, ok := p.Types[t]; ok {
		return tp.Action, tp.PreserveLast4
	}
	return p.DefaultAction, false
}

// Validate rejects unusable policies. Token key length is checked here and
// again at apply time against the actions actually taken.
func (p Policy) Validate() error {
	switch p.DefaultAction {
	case ActionMask, ActionRemove, ActionTokenize, ActionIgnore:
	default:
		return fmt.Errorf("redact: unknown default action %q", p.DefaultAction)
	}
	for t, tp := range p.Types {
		switch tp.Action {
		case ActionMask, ActionRemove, ActionTokenize, ActionIgnore:
		default:
			return fmt.Errorf("redact: unknown action %q for type %s", tp.Action, t)
		}
	}
	if p.Threshold < 0 || p.Threshold > 0.99 {
		return fmt.Errorf("redact: threshold %v out of range", p.Threshold)
	}
	if p.usesTokenize() && len(p.HMACKey) < MinTokenKeyLen {
		return ErrTokenKeyTooShort
	}
	return nil
}

func (p Policy) usesTokenize() bool {
	if p.DefaultAction == ActionTokenize {
		return true
	}
	for _, tp := range p.Types {
		if tp.Action == ActionTokenize {
			return true
		}
	}
	return false
}

// ResolveOverlaps picks a non-overlapping subset of hits. Hits are ordered by
// start position, with the longer span winning a tie, and kept greedily; a
// hit overlapping an already kept one is discarded. Confidence is not
// consulted.
func ResolveOverlaps(hits []*detector.Hit) (kept, discarded []*detector.Hit) {
	if len(hits) == 0 {
		return nil, nil
	}
	ordered := make([]*detector.Hit, len(hits))
	copy(ordered, hits)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Start != ordered[j].Start {
			return ordered[i].Start < ordered[j].Start
		}
		return ordered[i].End-ordered[i].Start > ordered[j].End-ordered[j].Start
	})

	kept = make([]*detector.Hit, 0, len(ordered))
	lastEnd := -1
	for _, h := range ordered {
		if h.Start < lastEnd {
			discarded = append(discarded, h)
			continue
		}
		kept = append(kept, h)
		lastEnd = h.End
	}
	return kept, discarded
}
