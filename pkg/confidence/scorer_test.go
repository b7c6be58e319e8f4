// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package confidence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"piiscrub/pkg/detector"
)

func hitFor(text, value string, typ detector.Type) *detector.Hit {
	start := strings.Index(text, value)
	return &detector.Hit{
		Type:  typ,
		Start: start,
		End:   start + len(value),
		Value: value,
	}
}

func TestScore_EmailPlausibleBeatsTestDomain(t *testing.T) {
	s := NewScorer()

	real := "reach me at alice.smith@acmecorp.io for details"
	hReal := hitFor(real, "alice.smith@acmecorp.io", detector.TypeEmail)
	s.Score(hReal, real)

	testy := "a test account is user@example.com for the suite"
	hTest := hitFor(testy, "user@example.com", detector.TypeEmail)
	s.Score(hTest, testy)

	assert.Greater(t, hReal.Confidence, hTest.Confidence)
	assert.Contains(t, hTest.Reasons, "email:test_domain")
	assert.Contains(t, hTest.Reasons, "context:test_vocab")
}

func TestScore_NoreplyLocalPart(t *testing.T) {
	s := NewScorer()
	text := "sent from noreply@acmecorp.io automatically"
	h := hitFor(text, "noreply@acmecorp.io", detector.TypeEmail)
	s.Score(h, text)
	assert.Contains(t, h.Reasons, "email:noreply_local")
}

func TestScore_IPRanges(t *testing.T) {
	s := NewScorer()

	text := "upstream peer 203.0.114.25 responded slowly"
	pub := hitFor(text, "203.0.114.25", detector.TypeIPv4)
	pub.Features.AddressClass = "public"
	s.Score(pub, text)

	priv := hitFor("gateway 192.168.0.1 is local", "192.168.0.1", detector.TypeIPv4)
	priv.Features.AddressClass = "private"
	s.Score(priv, "gateway 192.168.0.1 is local")

	assert.Greater(t, pub.Confidence, priv.Confidence)
	assert.Contains(t, pub.Reasons, "ip:public_range")
	assert.Contains(t, priv.Reasons, "ip:private_range")
}

func TestScore_CodeFencePenalty(t *testing.T) {
	s := NewScorer()
	text := "```\nserver 52.95.110.1\n```"
	h := hitFor(text, "52.95.110.1", detector.TypeIPv4)
	h.Features.AddressClass = "public"
	s.Score(h, text)
	assert.Contains(t, h.Reasons, "context:code_fence")
}

func TestScore_CommentLinePenalty(t *testing.T) {
	s := NewScorer()
	text := "code\n// contact bob@acmecorp.io please\nmore"
	h := hitFor(text, "bob@acmecorp.io", detector.TypeEmail)
	s.Score(h, text)
	assert.Contains(t, h.Reasons, "context:comment_line")
}

func TestScore_PhoneTestRange(t *testing.T) {
	s := NewScorer()
	text := "call +1 415 555 0134 now"
	h := hitFor(text, "+1 415 555 0134", detector.TypePhone)
	s.Score(h, text)
	assert.Contains(t, h.Reasons, "phone:test_range")
}

func TestScore_TestCardRanksBelowRealCardButRedactable(t *testing.T) {
	s := NewScorer()
	text := "card 4111111111111111 charged"
	h := hitFor(text, "4111111111111111", detector.TypeCreditCard)
	h.Features.Brand = "visa"
	s.Score(h, text)
	assert.Contains(t, h.Reasons, "card:test_number")
	assert.GreaterOrEqual(t, h.Confidence, 0.7)

	real := "card 4532015112830366 charged"
	h2 := hitFor(real, "4532015112830366", detector.TypeCreditCard)
	h2.Features.Brand = "visa"
	s.Score(h2, real)
	assert.NotContains(t, h2.Reasons, "card:test_number")
	assert.Greater(t, h2.Confidence, h.Confidence)
}

func TestScore_BoundsProperty(t *testing.T) {
	s := NewScorer()
	types := []detector.Type{
		detector.TypeEmail, detector.TypeIPv4, detector.TypeIPv6,
		detector.TypeMAC, detector.TypePhone, detector.TypeCreditCard,
	}
	classes := []string{"", "public", "private", "loopback", "documentation"}

	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringN(0, 200, 400).Draw(t, "text")
		if len(text) == 0 {
			return
		}
		start := rapid.IntRange(0, len(text)-1).Draw(t, "start")
		end := rapid.IntRange(start, len(text)).Draw(t, "end")
		h := &detector.Hit{
			Type:  rapid.SampledFrom(types).Draw(t, "type"),
			Start: start,
			End:   end,
			Value: text[start:end],
		}
		h.Features.AddressClass = rapid.SampledFrom(classes).Draw(t, "class")
		s.Score(h, text)
		if h.Confidence < 0 || h.Confidence > MaxConfidence {
			t.Fatalf("confidence out of bounds: %v", h.Confidence)
		}
	})
}
