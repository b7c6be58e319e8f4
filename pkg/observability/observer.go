// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package observability reports per-stage timings and counters for scans.
// The pipeline calls it on every run; at the default level it is free.
package observability

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
)

// Level selects how much the observer records.
type Level int

const (
	LevelOff     Level = 0
	LevelMetrics Level = 1
	LevelDebug   Level = 2
)

// StageData is one recorded pipeline stage.
type StageData struct {
	ScanID        string         `json:"scan_id"`
	Component     string         `json:"component"`
	Operation     string         `json:"operation"`
	DurationMs    int64          `json:"duration_ms,omitempty"`
	Success       bool           `json:"success"`
	Error         string         `json:"error,omitempty"`
	ContentLength int            `json:"content_length,omitempty"`
	HitCount      int            `json:"hit_count,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Observer receives stage records. Implementations must tolerate concurrent
// calls when the owning pipeline is shared.
type Observer interface {
	// StartTiming opens a timed stage; the returned func closes it.
	StartTiming(component, operation string) func(success bool, metadata map[string]any)
	// Record logs one already-assembled stage record.
	Record(data StageData)
}

// StandardObserver writes JSON stage records to a writer. Each observer
// carries one scan id so records from a run correlate.
type StandardObserver struct {
	level  Level
	writer io.Writer
	scanID string
}

// NewStandardObserver creates an observer at the given level. A fresh scan id
// is minted per observer.
func NewStandardObserver(level Level, writer io.Writer) *StandardObserver {
	return &StandardObserver{
		level:  level,
		writer: writer,
		scanID: uuid.NewString(),
	}
}

// ScanID returns the id stamped on every record.
func (o *StandardObserver) ScanID() string { return o.scanID }

// StartTiming returns a completion func that records the stage duration.
func (o *StandardObserver) StartTiming(component, operation string) func(success bool, metadata map[string]any) {
	start := time.Now()

	return func(success bool, metadata map[string]any) {
		if o.level == LevelOff {
			return
		}
		o.Record(StageData{
			Component:  component,
			Operation:  operation,
			DurationMs: time.Since(start).Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		})
	}
}

// Record logs the stage record. Below debug level only failures are written.
func (o *StandardObserver) Record(data StageData) {
	if o.level == LevelOff || o.writer == nil {
		return
	}
	if o.level == LevelMetrics && data.Success {
		return
	}
	data.ScanID = o.scanID
	json.NewEncoder(o.writer).Encode(data)
}

// NopObserver discards everything. It is the pipeline default.
type NopObserver struct{}

func (NopObserver) StartTiming(component, operation string) func(success bool, metadata map[string]any) {
	return func(bool, map[string]any) {}
}

func (NopObserver) Record(StageData) {}
