// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNormalize_Basic(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain ascii untouched", "contact me at a@b.com", "contact me at a@b.com"},
		{"tabs collapse", "a\tb", "a b"},
		{"space runs collapse", "a   b", "a b"},
		{"ideographic space", "a　b", "a b"},
		{"en dash folds", "555–1234", "555-1234"},
		{"em dash folds", "555—1234", "555-1234"},
		{"minus sign folds", "555−1234", "555-1234"},
		{"fullwidth digits fold", "４１１１", "4111"},
		{"trims edges", "  hello  ", "hello"},
		{"whitespace only keeps one space", "   \t  ", " "},
		{"single space survives", " ", " "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		once := Normalize(s)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("not idempotent: %q -> %q -> %q", s, once, twice)
		}
	})
}

func TestNormalize_NoDoubleSpacesInOutput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		out := Normalize(s)
		for i := 1; i < len(out); i++ {
			if out[i] == ' ' && out[i-1] == ' ' {
				t.Fatalf("doubled space in %q (from %q)", out, s)
			}
		}
	})
}
