// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piiscrub/pkg/detector"
	"piiscrub/pkg/engine"
	"piiscrub/pkg/pipeline"
	"piiscrub/pkg/redact"
)

func TestRunner_DetectOnly(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(4, nil)
	r.Start(ctx)

	go func() {
		for i := 0; i < 20; i++ {
			r.Submit(ctx, Job{
				ID:   fmt.Sprintf("doc-%d", i),
				Text: fmt.Sprintf("user%d alice.smith@acmecorp.io end", i),
			})
		}
		r.Close()
	}()

	got := make(map[string]Result)
	for res := range r.Results() {
		got[res.ID] = res
	}

	require.Len(t, got, 20)
	for id, res := range got {
		require.NoError(t, res.Err, id)
		require.Len(t, res.Findings, 1, id)
		assert.Equal(t, detector.TypeEmail, res.Findings[0].Type)
		assert.Greater(t, res.Findings[0].Confidence, 0.5)
	}
}

func TestRunner_RedactPolicy(t *testing.T) {
	ctx := context.Background()
	policy := redact.DefaultPolicy()
	policy.Sensitivity = redact.SensitivityStrict
	r := NewRunner(2, &policy)
	r.Start(ctx)

	go func() {
		r.Submit(ctx, Job{ID: "a", Text: "card 4532 0151 1283 0366 on file"})
		r.Close()
	}()

	var results []Result
	for res := range r.Results() {
		results = append(results, res)
	}

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "card **** **** **** 0366 on file", results[0].Output)
	require.Len(t, results[0].Findings, 1)
	assert.Equal(t, detector.TypeCreditCard, results[0].Findings[0].Type)
}

func TestRunner_GuardReasonSurfaces(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(1, nil, pipeline.WithGuard(engine.Guard{MaxDocumentLength: 4}))
	r.Start(ctx)

	go func() {
		r.Submit(ctx, Job{ID: "big", Text: "longer than four bytes"})
		r.Close()
	}()

	var results []Result
	for res := range r.Results() {
		results = append(results, res)
	}

	require.Len(t, results, 1)
	assert.Equal(t, engine.GuardTooLong, results[0].GuardReason)
	assert.Empty(t, results[0].Findings)
}

func TestRunner_SubmitAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(1, nil)
	r.Start(ctx)
	cancel()

	// The jobs channel may still accept a buffered submit; once the buffer is
	// full, cancelled submits return false instead of blocking.
	for i := 0; i < 10; i++ {
		if !r.Submit(ctx, Job{ID: "x", Text: "y"}) {
			return
		}
	}
	t.Fatal("submit never observed cancellation")
}
