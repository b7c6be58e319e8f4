// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"piiscrub/pkg/security"
)

const (
	// DefaultPoolSize bounds how many released Hit records are kept for reuse.
	DefaultPoolSize = 256

	// forceClearInterval is the release count after which the whole freelist
	// is re-scrubbed.
	forceClearInterval = 1024
)

// Pool hands out reusable Hit records to avoid per-match allocation under
// high-volume scanning. It is not safe for concurrent use; give each pipeline
// instance its own pool or guard a shared one externally.
type Pool struct {
	free     []*Hit
	maxFree  int
	releases int
}

// NewPool creates a pool that retains at most size released records.
// size <= 0 selects DefaultPoolSize.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &Pool{maxFree: size}
}

// Acquire returns a Hit with the given fields set, reusing a free slot when
// one is available. The pool keeps a mutable copy of value so Release has
// backing storage it can wipe.
func (p *Pool) Acquire(t Type, start, end int, value string, risk Risk) *Hit {
	var h *Hit
	if n := len(p.free); n > 0 {
		h = p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
	} else {
		h = &Hit{}
	}
	h.Type = t
	h.Start = start
	h.End = end
	h.Value = value
	h.secure = security.NewSecureString(value)
	h.Risk = risk
	h.Confidence = 0
	h.Reasons = nil
	h.Features = Features{MarkerDistance: -1}
	return h
}

// Release scrubs each hit's value storage and returns the slot to the free
// list. Slots beyond the pool bound are scrubbed and dropped. Every
// forceClearInterval releases the entire freelist is scrubbed again.
func (p *Pool) Release(hits ...*Hit) {
	for _, h := range hits {
		if h == nil {
			continue
		}
		h.clear()
		if len(p.free) < p.maxFree {
			p.free = append(p.free, h)
		}
		p.releases++
		if p.releases%forceClearInterval == 0 {
			p.ForceClear()
		}
	}
}

// ForceClear re-scrubs every resident slot, catching records mutated after
// release by a caller holding a stale pointer.
func (p *Pool) ForceClear() {
	for _, h := range p.free {
		if h.secure != nil {
			h.secure.Clear()
			h.secure = nil
		}
		h.Value = ""
	}
}

// FreeCount reports how many slots are available for reuse.
func (p *Pool) FreeCount() int { return len(p.free) }
