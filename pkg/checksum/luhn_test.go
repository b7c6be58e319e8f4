// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLuhn(t *testing.T) {
	cases := []struct {
		digits string
		want   bool
	}{
		{"4111111111111111", true},
		{"4111111111111112", false},
		{"5555555555554444", true},
		{"378282246310005", true}, // 15-digit amex
		{"", false},
		{"abcd", false},
		{"0", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Luhn(tc.digits), "Luhn(%q)", tc.digits)
	}
}

func TestValidateCard(t *testing.T) {
	t.Run("valid visa with separators", func(t *testing.T) {
		res := ValidateCard("4111-1111-1111-1111")
		assert.True(t, res.Valid)
		assert.Equal(t, "visa", res.Brand)
	})

	t.Run("luhn failure rejected", func(t *testing.T) {
		res := ValidateCard("4111111111111112")
		assert.False(t, res.Valid)
		assert.Equal(t, "luhn_failed", res.Reason)
	})

	t.Run("too short rejected", func(t *testing.T) {
		res := ValidateCard("411111111111")
		assert.False(t, res.Valid)
		assert.Equal(t, "card_length", res.Reason)
	})

	t.Run("amex brand", func(t *testing.T) {
		res := ValidateCard("3782 822463 10005")
		assert.True(t, res.Valid)
		assert.Equal(t, "amex", res.Brand)
	})
}

func TestIsTestCard(t *testing.T) {
	assert.True(t, IsTestCard("4111111111111111"))
	assert.True(t, IsTestCard("4444444444444444"))  // repeated digit
	assert.True(t, IsTestCard("1234567890123456"))  // sequential run
	assert.False(t, IsTestCard("4532015112830366")) // ordinary Luhn-valid number
}
