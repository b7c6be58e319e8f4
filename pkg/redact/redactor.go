// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package redact

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"piiscrub/pkg/checksum"
	"piiscrub/pkg/detector"
)

// Applied records one redaction decision for audit output. Offsets refer to
// the input text, not the redacted result.
type Applied struct {
	Type        detector.Type `json:"type"`
	Start       int           `json:"start"`
	End         int           `json:"end"`
	Action      Action        `json:"action"`
	Replacement string        `json:"replacement,omitempty"`
	Confidence  float64       `json:"confidence"`
}

// Redactor applies a policy to detection hits. It is stateless apart from the
// policy and safe for concurrent use.
type Redactor struct {
	policy Policy
}

// New builds a redactor. The policy must have passed Validate.
func New(policy Policy) *Redactor {
	return &Redactor{policy: policy}
}

// Apply rewrites text according to the policy. Hits below the confidence
// threshold are left intact; the rest are masked, removed, or tokenized.
// Overlapping hits must already be resolved; hits are assumed sorted by start
// after ResolveOverlaps. The token key is checked before any output is built
// so a short key never yields partially redacted text.
func (r *Redactor) Apply(text string, hits []*detector.Hit) (string, []Applied, error) {
	threshold := r.policy.EffectiveThreshold()

	type planned struct {
		hit         *detector.Hit
		action      Action
		replacement string
	}
	plan := make([]planned, 0, len(hits))
	needsKey := false
	for _, h := range hits {
		action, _ := r.policy.ActionFor(h.Type)
		if h.Confidence < threshold {
			action = ActionIgnore
		}
		if action == ActionTokenize {
			needsKey = true
		}
		plan = append(plan, planned{hit: h, action: action})
	}
	if needsKey && len(r.policy.HMACKey) < MinTokenKeyLen {
		return "", nil, ErrTokenKeyTooShort
	}

	var out strings.Builder
	out.Grow(len(text))
	applied := make([]Applied, 0, len(plan))
	cursor := 0
	for i := range plan {
		p := &plan[i]
		h := p.hit
		if h.Start < cursor || h.End > len(text) {
			continue
		}
		out.WriteString(text[cursor:h.Start])

		switch p.action {
		case ActionIgnore:
			out.WriteString(text[h.Start:h.End])
		case ActionRemove:
			p.replacement = ""
		case ActionTokenize:
			p.replacement = r.token(h)
			out.WriteString(p.replacement)
		case ActionMask:
			p.replacement = r.mask(h)
			out.WriteString(p.replacement)
		}
		cursor = h.End

		applied = append(applied, Applied{
			Type:        h.Type,
			Start:       h.Start,
			End:         h.End,
			Action:      p.action,
			Replacement: p.replacement,
			Confidence:  h.Confidence,
		})
	}
	out.WriteString(text[cursor:])
	return out.String(), applied, nil
}

// token derives a stable pseudonym from the hit value: the first 6 bytes of
// HMAC-SHA256 over the raw value, rendered as TYPE:hex12. Equal values map to
// equal tokens under the same key.
func (r *Redactor) token(h *detector.Hit) string {
	mac := hmac.New(sha256.New, r.policy.HMACKey)
	mac.Write([]byte(h.Value))
	sum := mac.Sum(nil)
	return strings.ToUpper(string(h.Type)) + ":" + hex.EncodeToString(sum[:6])
}

func (r *Redactor) mask(h *detector.Hit) string {
	if m, ok := r.policy.Maskers[h.Type]; ok {
		return m.Mask(h)
	}
	_, preserveLast4 := r.policy.ActionFor(h.Type)
	switch h.Type {
	case detector.TypeCreditCard:
		return maskCard(h.Value, preserveLast4)
	case detector.TypePhone:
		return maskDigits(h.Value, '•', preserveLast4)
	default:
		return "[REDACTED:" + string(h.Type) + "]"
	}
}

// maskCard renders a card number in canonical four-digit grouping regardless
// of how the input was separated, optionally leaving the last four digits
// visible. A bare 16-digit value masks to "**** **** **** 1111".
func maskCard(value string, preserveLast4 bool) string {
	digits := checksum.StripSeparators(value)
	keep := 0
	if preserveLast4 && len(digits) > 4 {
		keep = 4
	}
	var b strings.Builder
	b.Grow(len(digits) + len(digits)/4)
	for i := 0; i < len(digits); i++ {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		if i < len(digits)-keep {
			b.WriteByte('*')
		} else {
			b.WriteByte(digits[i])
		}
	}
	return b.String()
}

// maskDigits replaces digits with the filler rune while keeping separators,
// optionally leaving the last four digits visible.
func maskDigits(value string, filler rune, preserveLast4 bool) string {
	total := 0
	for _, c := range value {
		if c >= '0' && c <= '9' {
			total++
		}
	}
	keep := 0
	if preserveLast4 && total > 4 {
		keep = 4
	}

	var b strings.Builder
	b.Grow(len(value))
	seen := 0
	for _, c := range value {
		if c >= '0' && c <= '9' {
			seen++
			if seen > total-keep {
				b.WriteRune(c)
			} else {
				b.WriteRune(filler)
			}
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
