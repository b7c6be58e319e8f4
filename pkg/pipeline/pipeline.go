// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package pipeline wires normalization, detection, context analysis,
// confidence scoring, and redaction into the two top-level operations:
// Detect and Redact.
package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"piiscrub/pkg/confidence"
	"piiscrub/pkg/detector"
	"piiscrub/pkg/engine"
	"piiscrub/pkg/normalize"
	"piiscrub/pkg/observability"
	"piiscrub/pkg/redact"
	"piiscrub/pkg/rules"
	"piiscrub/pkg/textcontext"
)

// ErrInputRejected wraps a guard refusal when the caller asked for a
// transformed output and none can be produced.
type ErrInputRejected struct {
	Reason engine.GuardReason
}

func (e *ErrInputRejected) Error() string {
	return fmt.Sprintf("pipeline: input rejected by guard: %s", e.Reason)
}

// Result is one detection run. Hit offsets refer to Normalized, not the
// caller's original text; Normalized is also what Redact rewrites.
type Result struct {
	Normalized  string
	Hits        []*detector.Hit
	GuardReason engine.GuardReason
}

// Rejected reports whether the guard refused the input.
func (r *Result) Rejected() bool { return r.GuardReason != engine.GuardOK }

// Pipeline owns one pool and one pass through every stage. It is not safe
// for concurrent use; create one per goroutine or serialize access.
type Pipeline struct {
	pool     *detector.Pool
	engine   *engine.Engine
	scorer   *confidence.Scorer
	rules    *rules.Engine
	extra    []detector.Detector
	observer observability.Observer
}

// Option configures pipeline construction.
type Option func(*Pipeline)

// WithGuard replaces the default detection guard.
func WithGuard(g engine.Guard) Option {
	return func(p *Pipeline) { p.engine = engine.New(p.pool, g) }
}

// WithRules replaces the built-in contextual rule engine.
func WithRules(r *rules.Engine) Option {
	return func(p *Pipeline) { p.rules = r }
}

// WithDetectors registers external detectors. They run after the built-in
// patterns, highest priority first.
func WithDetectors(ds ...detector.Detector) Option {
	return func(p *Pipeline) { p.extra = append(p.extra, ds...) }
}

// WithObserver attaches stage instrumentation.
func WithObserver(o observability.Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// New builds a pipeline with the default pool, guard, scorer, and rule set.
func New(opts ...Option) *Pipeline {
	pool := detector.NewPool(0)
	p := &Pipeline{
		pool:     pool,
		engine:   engine.New(pool, engine.DefaultGuard()),
		scorer:   confidence.NewScorer(),
		rules:    rules.NewEngine(rules.DefaultConfig()),
		observer: observability.NopObserver{},
	}
	for _, o := range opts {
		o(p)
	}
	sort.SliceStable(p.extra, func(i, j int) bool {
		return p.extra[i].Priority() > p.extra[j].Priority()
	})
	return p
}

// Detect runs the full detection chain: normalize, built-in patterns,
// external detectors, context features, two-stage confidence, overlap
// resolution. Hits the resolver discards go straight back to the pool.
func (p *Pipeline) Detect(text string, hints ...string) *Result {
	done := p.observer.StartTiming("pipeline", "detect")

	norm := normalize.Normalize(text)
	hits, reason := p.engine.Detect(norm)
	if reason != engine.GuardOK {
		done(false, map[string]any{"guard_reason": string(reason)})
		return &Result{Normalized: norm, GuardReason: reason}
	}

	builtin := len(hits)
	hits = append(hits, p.runExternal(norm, hints)...)

	doc := textcontext.Analyze(norm)
	for i, h := range hits {
		// External detectors may ship their own base confidence; the scorer
		// only fills in hits that arrive unscored.
		if i < builtin || h.Confidence == 0 {
			p.scorer.Score(h, norm)
		}
		f := doc.FeaturesAt(h.Start)
		h.Features.MarkerDistance = f.MarkerDistance
		h.Confidence, _ = p.rules.Adjust(h.Confidence, f, h)
	}

	kept, discarded := redact.ResolveOverlaps(hits)
	p.pool.Release(discarded...)

	done(true, map[string]any{"hits": len(kept), "content_length": len(norm)})
	return &Result{Normalized: norm, Hits: kept}
}

// Redact detects and rewrites in one call. The returned string is the
// redacted normalized text. All hits are released before returning; callers
// needing the hit details should use Detect and ReleaseHits themselves.
func (p *Pipeline) Redact(text string, policy redact.Policy) (string, []redact.Applied, error) {
	if err := policy.Validate(); err != nil {
		return "", nil, err
	}

	res := p.Detect(text, policy.ContextHints...)
	defer p.ReleaseHits(res)
	if res.Rejected() {
		return "", nil, &ErrInputRejected{Reason: res.GuardReason}
	}

	return redact.New(policy).Apply(res.Normalized, res.Hits)
}

// ReleaseHits returns a result's hits to the pool and clears the slice.
// After this the hit values are scrubbed; a result must not be read again.
func (p *Pipeline) ReleaseHits(res *Result) {
	if res == nil || len(res.Hits) == 0 {
		return
	}
	p.pool.Release(res.Hits...)
	res.Hits = nil
}

// runExternal executes registered detectors in priority order, collecting
// validated emissions.
func (p *Pipeline) runExternal(norm string, hints []string) []*detector.Hit {
	if len(p.extra) == 0 {
		return nil
	}
	sink := &matchSink{pipeline: p, text: norm, hints: hints}
	for _, d := range p.extra {
		done := p.observer.StartTiming("detector:"+d.ID(), "match")
		before := len(sink.hits)
		d.Match(sink)
		done(true, map[string]any{"hits": len(sink.hits) - before})
	}
	return sink.hits
}

// matchSink is the MatchUtils implementation handed to external detectors.
// Emit validates spans before a pool hit is acquired, so a buggy detector
// cannot smuggle an inconsistent hit into overlap resolution.
type matchSink struct {
	pipeline *Pipeline
	text     string
	hints    []string
	hits     []*detector.Hit
}

func (s *matchSink) Text() string { return s.text }

func (s *matchSink) HasHint(word string) bool {
	for _, h := range s.hints {
		if strings.EqualFold(h, word) {
			return true
		}
	}
	return false
}

func (s *matchSink) Emit(h detector.Hit) error {
	if h.Start < 0 || h.End > len(s.text) || h.Start >= h.End {
		return fmt.Errorf("pipeline: emit rejected: span [%d,%d) out of bounds for text length %d",
			h.Start, h.End, len(s.text))
	}
	if h.Value != s.text[h.Start:h.End] {
		return fmt.Errorf("pipeline: emit rejected: value does not match span [%d,%d)", h.Start, h.End)
	}
	if h.Type == "" {
		return fmt.Errorf("pipeline: emit rejected: missing type")
	}

	hit := s.pipeline.pool.Acquire(h.Type, h.Start, h.End, h.Value, h.Risk)
	hit.Confidence = h.Confidence
	for _, r := range h.Reasons {
		hit.AddReason(r)
	}
	s.hits = append(s.hits, hit)
	return nil
}
