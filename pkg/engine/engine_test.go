// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piiscrub/pkg/detector"
)

func detect(t *testing.T, text string) []*detector.Hit {
	t.Helper()
	e := New(detector.NewPool(0), DefaultGuard())
	hits, reason := e.Detect(text)
	require.Equal(t, GuardOK, reason)
	return hits
}

func findType(hits []*detector.Hit, typ detector.Type) *detector.Hit {
	for _, h := range hits {
		if h.Type == typ {
			return h
		}
	}
	return nil
}

func TestDetect_Email(t *testing.T) {
	hits := detect(t, "reach me at alice.smith@acmecorp.io today")

	h := findType(hits, detector.TypeEmail)
	require.NotNil(t, h)
	assert.Equal(t, "alice.smith@acmecorp.io", h.Value)
	assert.Equal(t, detector.RiskMedium, h.Risk)
}

func TestDetect_CardLuhnGate(t *testing.T) {
	hits := detect(t, "valid 4111111111111111 here")
	h := findType(hits, detector.TypeCreditCard)
	require.NotNil(t, h)
	assert.Equal(t, "4111111111111111", h.Value)
	assert.Equal(t, "visa", h.Features.Brand)
	assert.Equal(t, detector.RiskHigh, h.Risk)

	// One digit off fails Luhn and must not surface as any hit type.
	hits = detect(t, "invalid 4111111111111112 here")
	assert.Empty(t, hits)
}

func TestDetect_CardWithSeparators(t *testing.T) {
	hits := detect(t, "card: 4111 1111 1111 1111")

	h := findType(hits, detector.TypeCreditCard)
	require.NotNil(t, h)
	assert.Equal(t, "4111 1111 1111 1111", h.Value)
}

func TestDetect_IPv6Compressed(t *testing.T) {
	hits := detect(t, "server at 2001:db8::1 responded")

	h := findType(hits, detector.TypeIPv6)
	require.NotNil(t, h)
	assert.Equal(t, "2001:db8::1", h.Value)
	assert.Equal(t, "documentation", h.Features.AddressClass)
}

func TestDetect_IPv6Full(t *testing.T) {
	hits := detect(t, "fe80:0000:0000:0000:0202:b3ff:fe1e:8329 is link local")

	h := findType(hits, detector.TypeIPv6)
	require.NotNil(t, h)
	assert.Equal(t, "link_local", h.Features.AddressClass)
}

func TestDetect_IPv6Mixed(t *testing.T) {
	hits := detect(t, "mapped ::ffff:192.168.1.1 via translator")

	h := findType(hits, detector.TypeIPv6)
	require.NotNil(t, h)
	assert.Equal(t, "::ffff:192.168.1.1", h.Value)
}

func TestDetect_IPv6MalformedRejected(t *testing.T) {
	// Nine groups fail the structural parser even though the shape is hexy.
	hits := detect(t, "bad 1:2:3:4:5:6:7:8:9 address")
	assert.Nil(t, findType(hits, detector.TypeIPv6))
}

func TestDetect_ScopeOperatorNotIPv6(t *testing.T) {
	hits := detect(t, "resource AWS::EC2::Instance created")
	assert.Empty(t, hits)
}

func TestDetect_IPv4Classes(t *testing.T) {
	cases := []struct {
		addr  string
		class string
	}{
		{"8.8.8.8", "public"},
		{"10.1.2.3", "private"},
		{"192.168.1.10", "private"},
		{"127.0.0.1", "loopback"},
		{"169.254.0.5", "link_local"},
		{"203.0.113.9", "documentation"},
	}
	for _, tc := range cases {
		hits := detect(t, "host "+tc.addr+" up")
		h := findType(hits, detector.TypeIPv4)
		require.NotNil(t, h, tc.addr)
		assert.Equal(t, tc.class, h.Features.AddressClass, tc.addr)
	}
}

func TestDetect_MAC(t *testing.T) {
	for _, addr := range []string{"00:1A:2B:3C:4D:5E", "00-1a-2b-3c-4d-5e", "001a.2b3c.4d5e"} {
		hits := detect(t, "nic "+addr+" seen")
		h := findType(hits, detector.TypeMAC)
		require.NotNil(t, h, addr)
		assert.Equal(t, addr, h.Value)
	}
}

func TestDetect_PhoneDigitGates(t *testing.T) {
	hits := detect(t, "call +1 415 867 5309 anytime")
	h := findType(hits, detector.TypePhone)
	require.NotNil(t, h)
	assert.Equal(t, "+1 415 867 5309", h.Value)

	// Too few digits for an international number.
	hits = detect(t, "extension 863-5309 today")
	assert.Nil(t, findType(hits, detector.TypePhone))
}

func TestDetect_CardNotDoubleReportedAsPhone(t *testing.T) {
	hits := detect(t, "pay with 4111111111111111 now")

	require.Len(t, hits, 1)
	assert.Equal(t, detector.TypeCreditCard, hits[0].Type)
}

func TestDetect_SpanMatchesValue(t *testing.T) {
	text := "alice@test.com then 10.0.0.1 then +1 415 867 5309 end"
	hits := detect(t, text)

	require.NotEmpty(t, hits)
	for _, h := range hits {
		assert.Equal(t, text[h.Start:h.End], h.Value)
	}
}

func TestDetect_GuardTooLong(t *testing.T) {
	e := New(detector.NewPool(0), Guard{MaxDocumentLength: 10})

	hits, reason := e.Detect("this is longer than ten bytes a@test.com")

	assert.Nil(t, hits)
	assert.Equal(t, GuardTooLong, reason)
}

func TestDetect_GuardTooComplex(t *testing.T) {
	hostile := strings.Repeat("(", 40) + strings.Repeat("a", 600) + strings.Repeat("|*+?", 300)
	e := New(detector.NewPool(0), DefaultGuard())

	hits, reason := e.Detect(hostile)

	assert.Nil(t, hits)
	assert.Equal(t, GuardTooComplex, reason)
}

func TestDetect_PerPatternCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("user@test.com ")
	}
	e := New(detector.NewPool(0), Guard{MaxMatchesPerPattern: 3})

	hits, reason := e.Detect(b.String())

	require.Equal(t, GuardOK, reason)
	assert.Len(t, hits, 3)
}

func TestDetect_EmptyAndPlainText(t *testing.T) {
	assert.Empty(t, detect(t, ""))
	assert.Empty(t, detect(t, "nothing sensitive in this sentence at all"))
}
