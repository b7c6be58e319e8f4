// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package batch runs many documents through the scanner concurrently. Each
// worker owns a private pipeline, so the hit pools are never shared across
// goroutines; results carry detached finding summaries with the pooled hits
// already released and scrubbed.
package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"piiscrub/pkg/detector"
	"piiscrub/pkg/engine"
	"piiscrub/pkg/pipeline"
	"piiscrub/pkg/redact"
)

// Job is one document to process.
type Job struct {
	ID   string
	Text string
}

// Finding is a detached summary of a hit. It holds the span and scores but
// not the matched value, so results can outlive the pool scrub.
type Finding struct {
	Type       detector.Type `json:"type"`
	Start      int           `json:"start"`
	End        int           `json:"end"`
	Risk       detector.Risk `json:"risk"`
	Confidence float64       `json:"confidence"`
}

// Result is the outcome for one job.
type Result struct {
	ID          string
	Output      string // redacted text when the runner has a policy
	Findings    []Finding
	GuardReason engine.GuardReason
	Err         error
	Duration    time.Duration
}

// Runner fans jobs out to a fixed set of workers.
type Runner struct {
	workers int
	policy  *redact.Policy
	opts    []pipeline.Option

	jobs    chan Job
	results chan Result
	wg      sync.WaitGroup
}

// NewRunner creates a runner with the given concurrency. A nil policy means
// detect-only: results carry findings but no rewritten output. Pipeline
// options are applied to every worker's private pipeline.
func NewRunner(workers int, policy *redact.Policy, opts ...pipeline.Option) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		workers: workers,
		policy:  policy,
		opts:    opts,
		jobs:    make(chan Job, workers*2),
		results: make(chan Result, workers*2),
	}
}

// Start launches the workers. Results must be drained by the caller;
// cancelling ctx stops workers after their current job.
func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx)
	}
}

// Submit queues a job, returning false once ctx is cancelled.
func (r *Runner) Submit(ctx context.Context, job Job) bool {
	select {
	case r.jobs <- job:
		return true
	case <-ctx.Done():
		return false
	}
}

// Results returns the output channel. It closes after Close.
func (r *Runner) Results() <-chan Result {
	return r.results
}

// Close signals no more jobs, waits for workers to finish, and closes the
// results channel.
func (r *Runner) Close() {
	close(r.jobs)
	r.wg.Wait()
	close(r.results)
}

func (r *Runner) worker(ctx context.Context) {
	defer r.wg.Done()
	p := pipeline.New(r.opts...)

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-r.jobs:
			if !ok {
				return
			}
			res := r.process(p, job)
			select {
			case r.results <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (r *Runner) process(p *pipeline.Pipeline, job Job) Result {
	start := time.Now()
	res := Result{ID: job.ID}

	if r.policy != nil {
		out, applied, err := p.Redact(job.Text, *r.policy)
		res.Output = out
		res.Err = err
		res.Findings = make([]Finding, 0, len(applied))
		for _, a := range applied {
			res.Findings = append(res.Findings, Finding{
				Type: a.Type, Start: a.Start, End: a.End, Confidence: a.Confidence,
			})
		}
		var rejected *pipeline.ErrInputRejected
		if errors.As(err, &rejected) {
			res.GuardReason = rejected.Reason
		}
	} else {
		dr := p.Detect(job.Text)
		res.GuardReason = dr.GuardReason
		res.Findings = make([]Finding, 0, len(dr.Hits))
		for _, h := range dr.Hits {
			res.Findings = append(res.Findings, Finding{
				Type: h.Type, Start: h.Start, End: h.End,
				Risk: h.Risk, Confidence: h.Confidence,
			})
		}
		p.ReleaseHits(dr)
	}

	res.Duration = time.Since(start)
	return res
}
