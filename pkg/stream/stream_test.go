// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upperEmails is a stand-in transform with an easily verified effect.
func upperEmails(text string) (string, error) {
	return strings.ReplaceAll(text, "a@test.com", "[EMAIL]"), nil
}

func TestWriter_SplitValueAcrossChunks(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, upperEmails)

	// The value straddles the chunk boundary; the tail window must keep the
	// pieces together until Close.
	_, err := w.Write([]byte("contact a@te"))
	require.NoError(t, err)
	_, err = w.Write([]byte("st.com today"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, "contact [EMAIL] today", out.String())
}

func TestWriter_FlushesCompleteLines(t *testing.T) {
	var calls []string
	transform := func(text string) (string, error) {
		calls = append(calls, text)
		return text, nil
	}
	var out bytes.Buffer
	w := NewWriter(&out, transform, WithoutBinaryCheck(), WithWindow(8))

	line := strings.Repeat("x", 40) + "\n"
	_, err := w.Write([]byte(line + "partial line two"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.Len(t, calls, 2)
	assert.Equal(t, line, calls[0])
	assert.Equal(t, "partial line two", calls[1])
	assert.Equal(t, line+"partial line two", out.String())
}

func TestWriter_NoFlushBeforeWindowFills(t *testing.T) {
	called := false
	transform := func(text string) (string, error) {
		called = true
		return text, nil
	}
	var out bytes.Buffer
	w := NewWriter(&out, transform, WithoutBinaryCheck())

	_, err := w.Write([]byte("short\n"))
	require.NoError(t, err)

	assert.False(t, called)
	assert.Empty(t, out.String())
}

func TestWriter_BinaryPassthrough(t *testing.T) {
	transform := func(text string) (string, error) {
		t.Fatal("transform must not run on binary input")
		return "", nil
	}
	payload := append([]byte{0x89, 'P', 'N', 'G', 0x00}, bytes.Repeat([]byte{0x01}, 600)...)
	var out bytes.Buffer
	w := NewWriter(&out, transform)

	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, payload, out.Bytes())
}

func TestWriter_SmallBinaryChunkPassesThrough(t *testing.T) {
	payload := []byte{0x00, 0x01, 0x02, 0x03}
	var out bytes.Buffer
	w := NewWriter(&out, upperEmails)

	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, payload, out.Bytes())
}

func TestWriter_BinaryChunkMidStream(t *testing.T) {
	var seen []string
	transform := func(text string) (string, error) {
		seen = append(seen, text)
		return text, nil
	}
	prefix := strings.Repeat("t", 640)
	binChunk := append([]byte{0x89, 0x00}, bytes.Repeat([]byte{0x02}, 64)...)
	var out bytes.Buffer
	w := NewWriter(&out, transform)

	_, err := w.Write([]byte(prefix))
	require.NoError(t, err)
	_, err = w.Write(binChunk)
	require.NoError(t, err)
	_, err = w.Write([]byte("trailing a@test.com text"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// The buffered text flushes ahead of the binary chunk, the binary bytes
	// never reach the transform, and text handling resumes afterwards.
	for _, s := range seen {
		assert.NotContains(t, s, "\x00")
		assert.NotContains(t, s, "\x02")
	}
	want := prefix + string(binChunk) + "trailing a@test.com text"
	assert.Equal(t, want, out.String())
}

func TestWriter_TransformErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	transform := func(text string) (string, error) { return "", boom }
	w := NewWriter(io.Discard, transform, WithoutBinaryCheck())

	_, err := w.Write([]byte("some text\n"))
	require.NoError(t, err)

	assert.ErrorIs(t, w.Close(), boom)
}

func TestWriter_WriteAfterClose(t *testing.T) {
	w := NewWriter(io.Discard, upperEmails)
	require.NoError(t, w.Close())

	_, err := w.Write([]byte("more"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestWriter_CloseIdempotent(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, upperEmails)
	_, err := w.Write([]byte("a@test.com"))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.Equal(t, "[EMAIL]", out.String())
}

func TestWriter_UnbrokenLineForcedCut(t *testing.T) {
	var calls int
	transform := func(text string) (string, error) {
		calls++
		return text, nil
	}
	var out bytes.Buffer
	w := NewWriter(&out, transform, WithoutBinaryCheck())

	huge := strings.Repeat("y", maxHold+1000)
	_, err := w.Write([]byte(huge))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.GreaterOrEqual(t, calls, 2)
	assert.Equal(t, huge, out.String())
}

func TestLooksBinary(t *testing.T) {
	assert.False(t, looksBinary([]byte("ordinary text\nwith lines\tand tabs\r\n")))
	assert.True(t, looksBinary([]byte{'a', 0x00, 'b'}))
	assert.True(t, looksBinary([]byte{0x01, 0x02, 0x03, 'a'}))
	assert.False(t, looksBinary(nil))
}

func TestCopy(t *testing.T) {
	var out bytes.Buffer

	err := Copy(&out, strings.NewReader("mail a@test.com now"), upperEmails)

	require.NoError(t, err)
	assert.Equal(t, "mail [EMAIL] now", out.String())
}
