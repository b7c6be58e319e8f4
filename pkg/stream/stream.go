// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package stream adapts whole-text redaction to chunked io. A tail window is
// held back on every write so a value split across chunk boundaries is always
// transformed as one piece. Each chunk is checked for binary content on its
// own; a binary chunk bypasses the transform and passes through untouched
// after any pending text has been flushed.
package stream

import (
	"bytes"
	"io"
)

// DefaultWindow is the hold-back size in bytes. It must exceed the longest
// value any detector can match; the widest built-in pattern (a fully spelled
// out mixed-notation IPv6 address or a separator-heavy card number) stays
// well under this.
const DefaultWindow = 96

// sniffLen bounds how many leading bytes of a chunk the binary check
// inspects.
const sniffLen = 512

// TransformFunc rewrites one complete text segment. The pipeline's Redact is
// the usual implementation.
type TransformFunc func(text string) (string, error)

// Option adjusts writer construction.
type Option func(*Writer)

// WithWindow overrides the hold-back size. Values below 1 keep the default.
func WithWindow(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.window = n
		}
	}
}

// WithoutBinaryCheck disables the per-chunk binary check, forcing every
// chunk through the transform.
func WithoutBinaryCheck() Option {
	return func(w *Writer) { w.skipSniff = true }
}

// Writer redacts a byte stream incrementally. All but the last window bytes
// of buffered input are transformed and forwarded on each write, cutting at a
// line boundary when one is close; Close flushes the remainder. Not safe for
// concurrent use.
type Writer struct {
	dst       io.Writer
	transform TransformFunc
	window    int

	buf       []byte
	skipSniff bool
	closed    bool
}

// NewWriter wraps dst. Output is produced lazily; callers must Close to
// flush the tail window.
func NewWriter(dst io.Writer, transform TransformFunc, opts ...Option) *Writer {
	w := &Writer{dst: dst, transform: transform, window: DefaultWindow}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Write buffers p and forwards the transformed safe prefix. A chunk judged
// binary is written to dst unmodified once the pending text tail has been
// flushed; buffering resumes with the next text chunk. The returned count
// covers all of p even when bytes remain buffered, per io.Writer convention
// for buffering writers.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, io.ErrClosedPipe
	}

	if !w.skipSniff && chunkLooksBinary(p) {
		if err := w.flushThrough(len(w.buf)); err != nil {
			return 0, err
		}
		if _, err := w.dst.Write(p); err != nil {
			return 0, err
		}
		return len(p), nil
	}

	w.buf = append(w.buf, p...)
	if len(w.buf) <= w.window {
		return len(p), nil
	}
	if c := w.cut(); c > 0 {
		if err := w.flushThrough(c); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Close flushes everything still buffered through the transform and marks
// the writer unusable. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.flushThrough(len(w.buf))
}

// maxHold caps how much a single unbroken line can buffer before the writer
// cuts anyway.
const maxHold = 64 << 10

// cut picks how much of the buffer is safe to transform now. Values never
// contain newlines, so cutting after the last full line outside the tail
// window cannot split one. A line longer than maxHold is cut at the window
// boundary regardless; holding it forever would be unbounded buffering.
func (w *Writer) cut() int {
	limit := len(w.buf) - w.window
	if nl := bytes.LastIndexByte(w.buf[:limit], '\n'); nl >= 0 {
		return nl + 1
	}
	if len(w.buf) >= maxHold {
		return limit
	}
	return 0
}

func (w *Writer) flushThrough(n int) error {
	if n <= 0 {
		return nil
	}
	out, err := w.transform(string(w.buf[:n]))
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w.dst, out); err != nil {
		return err
	}
	w.buf = w.buf[:copy(w.buf, w.buf[n:])]
	return nil
}

// chunkLooksBinary samples the head of one chunk.
func chunkLooksBinary(p []byte) bool {
	if len(p) > sniffLen {
		p = p[:sniffLen]
	}
	return looksBinary(p)
}

// looksBinary reports whether the sample is not text: any NUL byte, or more
// than 30 percent non-printable control bytes.
func looksBinary(sample []byte) bool {
	if len(sample) == 0 {
		return false
	}
	control := 0
	for _, c := range sample {
		if c == 0 {
			return true
		}
		if c < 0x20 && c != '\n' && c != '\r' && c != '\t' {
			control++
		}
	}
	return control*10 > len(sample)*3
}

// Copy runs src through a redacting writer into dst, closing the writer to
// flush the tail. It is the convenience form for callers that already hold
// both ends.
func Copy(dst io.Writer, src io.Reader, transform TransformFunc, opts ...Option) error {
	w := NewWriter(dst, transform, opts...)
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}
