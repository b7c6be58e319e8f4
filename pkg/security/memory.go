// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package security

// WipeBytes overwrites every byte of b with zeros. It is the single scrub
// primitive used by the hit pool's release path; callers must not hold other
// references to b that they expect to keep readable.
//
// Limitations: Go's garbage collector may move or copy memory at any time, and
// string conversions create immutable copies that cannot be zeroed. Wiping the
// mutable backing slice reduces the window of exposure but cannot guarantee
// that no copies exist elsewhere in the heap. Do not rely on this for
// cryptographic-strength memory protection.
func WipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// SecureString wraps sensitive data with best-effort memory scrubbing on Clear.
type SecureString struct {
	data []byte
}

// NewSecureString creates a new SecureString by copying s into a mutable byte slice.
func NewSecureString(s string) *SecureString {
	data := make([]byte, len(s))
	copy(data, s)
	return &SecureString{data: data}
}

// String returns the string value. Use sparingly; each call creates an
// immutable copy that cannot be zeroed by Clear.
func (ss *SecureString) String() string {
	return string(ss.data)
}

// Clear overwrites the internal byte slice with zeros and releases it.
func (ss *SecureString) Clear() {
	if ss.data != nil {
		WipeBytes(ss.data)
		ss.data = nil
	}
}
