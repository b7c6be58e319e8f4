// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_AcquireSetsFields(t *testing.T) {
	p := NewPool(4)
	h := p.Acquire(TypeEmail, 3, 10, "a@b.com", RiskMedium)
	assert.Equal(t, TypeEmail, h.Type)
	assert.Equal(t, 3, h.Start)
	assert.Equal(t, 10, h.End)
	assert.Equal(t, "a@b.com", h.Value)
	assert.Equal(t, RiskMedium, h.Risk)
	assert.Equal(t, -1, h.Features.MarkerDistance)
}

func TestPool_ReleaseScrubsValue(t *testing.T) {
	p := NewPool(4)
	h := p.Acquire(TypeCreditCard, 0, 16, "4111111111111111", RiskHigh)
	p.Release(h)

	// The released record must not expose the previous caller's value.
	assert.Empty(t, h.Value)
	assert.Nil(t, h.secure)
	assert.Empty(t, h.Reasons)
	assert.Zero(t, h.Confidence)
}

func TestPool_ReuseAfterRelease(t *testing.T) {
	p := NewPool(4)
	h1 := p.Acquire(TypeEmail, 0, 5, "first", RiskLow)
	p.Release(h1)
	require.Equal(t, 1, p.FreeCount())

	h2 := p.Acquire(TypePhone, 1, 6, "second", RiskLow)
	assert.Same(t, h1, h2)
	assert.Equal(t, "second", h2.Value)
	assert.Equal(t, 0, p.FreeCount())
}

func TestPool_BoundedFreeList(t *testing.T) {
	p := NewPool(2)
	hits := make([]*Hit, 5)
	for i := range hits {
		hits[i] = p.Acquire(TypeEmail, 0, 1, "x", RiskLow)
	}
	p.Release(hits...)
	assert.Equal(t, 2, p.FreeCount())
}

func TestPool_ReleaseNilTolerated(t *testing.T) {
	p := NewPool(2)
	p.Release(nil)
	assert.Equal(t, 0, p.FreeCount())
}
