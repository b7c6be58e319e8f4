// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package rules implements the second stage of the confidence model: a
// priority-ordered contextual rule engine with explicit conflict resolution.
// Rules are declarative records evaluated against extracted features; the
// engine decides which of several applicable rules in the same priority tier
// and category actually fires.
package rules

import (
	"sort"

	"piiscrub/pkg/detector"
	"piiscrub/pkg/textcontext"
)

// Category buckets rules for conflict resolution. Precedence within a
// priority tier is fixed: format-specific beats locale-specific beats
// marker-based beats structural.
type Category int

const (
	CategoryFormat Category = iota
	CategoryLocale
	CategoryMarker
	CategoryStructural
)

func (c Category) String() string {
	switch c {
	case CategoryFormat:
		return "format"
	case CategoryLocale:
		return "locale"
	case CategoryMarker:
		return "marker"
	case CategoryStructural:
		return "structural"
	}
	return "unknown"
}

// Condition decides whether a rule applies to a hit in context.
type Condition func(f textcontext.Features, h *detector.Hit) bool

// Rule is one declarative confidence adjustment. A multiplier below 1.0 (or a
// negative offset with multiplier 1.0) makes it a suppression rule; above 1.0
// a boost rule. Priority ties across categories resolve by category
// precedence; ties within a category resolve by the strongest effect.
type Rule struct {
	ID         string
	Priority   int
	Category   Category
	Condition  Condition
	Multiplier float64
	Offset     float64
}

func (r Rule) suppression() bool {
	return r.Multiplier < 1.0 || (r.Multiplier == 1.0 && r.Offset < 0)
}

func (r Rule) boost() bool {
	return r.Multiplier > 1.0 || (r.Multiplier == 1.0 && r.Offset > 0)
}

// Config controls the rule engine. Boost and suppression halves can be
// disabled independently without touching rule definitions.
type Config struct {
	SuppressionEnabled bool
	BoostEnabled       bool

	// MinConfidenceFloor scales the base confidence to form the lower clamp:
	// floor = max(0.01, base*MinConfidenceFloor).
	MinConfidenceFloor float64
	// MaxConfidenceCeiling is the upper clamp.
	MaxConfidenceCeiling float64
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		SuppressionEnabled:   true,
		BoostEnabled:         true,
		MinConfidenceFloor:   0.10,
		MaxConfidenceCeiling: 0.99,
	}
}

// Engine evaluates rules against hits. The rule table is immutable after
// construction and safe to share across pipeline instances.
type Engine struct {
	rules []Rule
	cfg   Config
}

// NewEngine builds an engine over the built-in rule table.
func NewEngine(cfg Config) *Engine {
	return NewEngineWithRules(cfg, builtinRules())
}

// NewEngineWithRules builds an engine over a caller-supplied rule table.
func NewEngineWithRules(cfg Config, rules []Rule) *Engine {
	return &Engine{rules: rules, cfg: cfg}
}

// Adjust re-scores base confidence using the extracted features. The winning
// rule from each (priority tier, category) cell is applied: multipliers
// compound multiplicatively, offsets additively, and the result is clamped to
// [max(0.01, base*floor), ceiling]. Applied rules are returned for audit and
// also appended to the hit's feature record.
func (e *Engine) Adjust(base float64, f textcontext.Features, h *detector.Hit) (float64, []detector.RuleEffect) {
	applicable := make([]Rule, 0, 8)
	for _, r := range e.rules {
		if r.suppression() && !e.cfg.SuppressionEnabled {
			continue
		}
		if r.boost() && !e.cfg.BoostEnabled {
			continue
		}
		if r.Condition(f, h) {
			applicable = append(applicable, r)
		}
	}
	if len(applicable) == 0 {
		return clamp(base, base, e.cfg), nil
	}

	winners := resolveConflicts(applicable)

	multiplier := 1.0
	offset := 0.0
	effects := make([]detector.RuleEffect, 0, len(winners))
	for _, r := range winners {
		multiplier *= r.Multiplier
		offset += r.Offset
		direction := "boost"
		if r.suppression() {
			direction = "suppress"
		}
		dist := -1
		if r.Category == CategoryMarker {
			dist = f.MarkerDistance
		}
		effects = append(effects, detector.RuleEffect{
			RuleID:         r.ID,
			Direction:      direction,
			Weight:         r.Multiplier,
			MarkerDistance: dist,
		})
	}

	final := clamp(base*multiplier+offset, base, e.cfg)
	h.Features.RuleEffects = append(h.Features.RuleEffects, effects...)
	return final, effects
}

// resolveConflicts picks one winner per (priority tier, category) cell.
// Within a cell: the strongest suppression (lowest multiplier) if any
// suppression rule applies, else the strongest boost (highest multiplier),
// else the first rule in table order.
func resolveConflicts(applicable []Rule) []Rule {
	type cell struct {
		priority int
		category Category
	}
	cells := make(map[cell][]Rule)
	for _, r := range applicable {
		k := cell{r.Priority, r.Category}
		cells[k] = append(cells[k], r)
	}

	keys := make([]cell, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].priority != keys[j].priority {
			return keys[i].priority > keys[j].priority
		}
		return keys[i].category < keys[j].category
	})

	winners := make([]Rule, 0, len(keys))
	for _, k := range keys {
		winners = append(winners, pickWinner(cells[k]))
	}
	return winners
}

func pickWinner(group []Rule) Rule {
	var bestSuppress *Rule
	var bestBoost *Rule
	for i := range group {
		r := &group[i]
		switch {
		case r.suppression():
			if bestSuppress == nil || r.Multiplier < bestSuppress.Multiplier {
				bestSuppress = r
			}
		case r.boost():
			if bestBoost == nil || r.Multiplier > bestBoost.Multiplier {
				bestBoost = r
			}
		}
	}
	if bestSuppress != nil {
		return *bestSuppress
	}
	if bestBoost != nil {
		return *bestBoost
	}
	return group[0]
}

func clamp(v, base float64, cfg Config) float64 {
	floor := base * cfg.MinConfidenceFloor
	if floor < 0.01 {
		floor = 0.01
	}
	if v < floor {
		v = floor
	}
	if v > cfg.MaxConfidenceCeiling {
		v = cfg.MaxConfidenceCeiling
	}
	return v
}

// builtinRules is the standard table. IDs are stable; auditors depend on them.
func builtinRules() []Rule {
	isIP := func(h *detector.Hit) bool {
		return h.Type == detector.TypeIPv4 || h.Type == detector.TypeIPv6
	}
	return []Rule{
		// Format-specific.
		{
			ID: "format:csv_data_row", Priority: 10, Category: CategoryFormat,
			Condition: func(f textcontext.Features, h *detector.Hit) bool {
				return f.CSVLike && !f.HeaderRow
			},
			Multiplier: 1.15,
		},
		{
			ID: "format:csv_header_row", Priority: 10, Category: CategoryFormat,
			Condition: func(f textcontext.Features, h *detector.Hit) bool {
				return f.CSVLike && f.HeaderRow
			},
			Multiplier: 0.9,
		},
		{
			ID: "format:json_value", Priority: 10, Category: CategoryFormat,
			Condition: func(f textcontext.Features, h *detector.Hit) bool {
				return f.JSONLike
			},
			Multiplier: 1.1,
		},
		{
			ID: "format:xml_value", Priority: 10, Category: CategoryFormat,
			Condition: func(f textcontext.Features, h *detector.Hit) bool {
				return f.XMLLike
			},
			Multiplier: 1.05,
		},

		// Locale-specific.
		{
			ID: "locale:bilingual_document", Priority: 10, Category: CategoryLocale,
			Condition: func(f textcontext.Features, h *detector.Hit) bool {
				return f.Language == "de" && h.Type == detector.TypePhone
			},
			Multiplier: 1.05,
		},

		// Marker-based.
		{
			ID: "marker:same_line", Priority: 20, Category: CategoryMarker,
			Condition: func(f textcontext.Features, h *detector.Hit) bool {
				return f.MarkerDistance == 0
			},
			Multiplier: 0.5,
		},
		{
			ID: "marker:nearby", Priority: 20, Category: CategoryMarker,
			Condition: func(f textcontext.Features, h *detector.Hit) bool {
				return f.MarkerDistance > 0
			},
			Multiplier: 0.7,
		},

		// Structural.
		{
			ID: "structural:code_block", Priority: 10, Category: CategoryStructural,
			Condition: func(f textcontext.Features, h *detector.Hit) bool {
				return f.InsideCode
			},
			Multiplier: 0.6,
		},
		{
			ID: "structural:template_placeholder", Priority: 20, Category: CategoryStructural,
			Condition: func(f textcontext.Features, h *detector.Hit) bool {
				return f.InsideTemplate
			},
			Multiplier: 0.5,
		},
		{
			ID: "structural:log_address", Priority: 10, Category: CategoryStructural,
			Condition: func(f textcontext.Features, h *detector.Hit) bool {
				return f.LogLike && isIP(h)
			},
			Multiplier: 1.2,
		},
		{
			ID: "structural:high_entropy_window", Priority: 5, Category: CategoryStructural,
			Condition: func(f textcontext.Features, h *detector.Hit) bool {
				return f.HighEntropy
			},
			Multiplier: 0.8,
		},
		{
			ID: "structural:repetitive_window", Priority: 5, Category: CategoryStructural,
			Condition: func(f textcontext.Features, h *detector.Hit) bool {
				return f.Repetitive
			},
			Multiplier: 0.85,
		},
	}
}
