// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package ipv6 implements a structural IPv6 parser used to re-validate
// candidates produced by the pattern engine. The combined regex is loose by
// design (it has to share one scan with four other pattern families), so
// every IPv6-shaped match passes through Parse before a hit is emitted.
package ipv6

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Class labels the address range an IPv6 address falls into.
type Class string

const (
	ClassLoopback      Class = "loopback"
	ClassUnspecified   Class = "unspecified"
	ClassLinkLocal     Class = "link_local"
	ClassUniqueLocal   Class = "unique_local"
	ClassDocumentation Class = "documentation"
	ClassPublic        Class = "public"
)

// Address is the result of a successful structural parse.
type Address struct {
	Hextets [8]uint16
	Class   Class
}

var (
	errEmpty           = errors.New("empty address")
	errBadCharacter    = errors.New("bad character in hextet")
	errHextetWidth     = errors.New("hextet wider than 4 hex digits")
	errMultipleDouble  = errors.New("more than one :: compression marker")
	errHextetCount     = errors.New("wrong hextet count")
	errEmptyHextet     = errors.New("empty hextet")
	errBadEmbeddedIPv4 = errors.New("malformed embedded IPv4 suffix")
)

// Parse validates s as an IPv6 address and classifies it. It accepts full and
// ::-compressed forms, optionally with a trailing embedded IPv4 suffix. Zone
// identifiers and CIDR masks are structural failures here; the engine strips
// neither.
func Parse(s string) (Address, error) {
	if s == "" {
		return Address{}, errEmpty
	}
	lower := strings.ToLower(s)

	var left, right string
	hasComp := false
	if i := strings.Index(lower, "::"); i >= 0 {
		if strings.Contains(lower[i+2:], "::") {
			return Address{}, errMultipleDouble
		}
		hasComp = true
		left, right = lower[:i], lower[i+2:]
	} else {
		left = lower
	}

	leftGroups, err := parseGroups(left, !hasComp)
	if err != nil {
		return Address{}, err
	}
	rightGroups, err := parseGroups(right, hasComp)
	if err != nil {
		return Address{}, err
	}

	var hextets [8]uint16
	if hasComp {
		total := len(leftGroups) + len(rightGroups)
		if total > 7 {
			return Address{}, errHextetCount
		}
		copy(hextets[:], leftGroups)
		copy(hextets[8-len(rightGroups):], rightGroups)
	} else {
		if len(leftGroups) != 8 {
			return Address{}, errHextetCount
		}
		copy(hextets[:], leftGroups)
	}

	return Address{Hextets: hextets, Class: classify(hextets)}, nil
}

// parseGroups parses one side of a ::-split address. An embedded IPv4 suffix
// is only legal in the final group of the address, which is the right side
// when compression is present and the left side otherwise.
func parseGroups(side string, allowV4 bool) ([]uint16, error) {
	if side == "" {
		return nil, nil
	}
	parts := strings.Split(side, ":")
	out := make([]uint16, 0, len(parts)+1)
	for i, p := range parts {
		if p == "" {
			return nil, errEmptyHextet
		}
		if strings.Contains(p, ".") {
			if !allowV4 || i != len(parts)-1 {
				return nil, errBadEmbeddedIPv4
			}
			hi, lo, err := parseEmbeddedIPv4(p)
			if err != nil {
				return nil, err
			}
			out = append(out, hi, lo)
			continue
		}
		if len(p) > 4 {
			return nil, errHextetWidth
		}
		v, err := strconv.ParseUint(p, 16, 16)
		if err != nil {
			return nil, errBadCharacter
		}
		out = append(out, uint16(v))
	}
	return out, nil
}

func parseEmbeddedIPv4(s string) (hi, lo uint16, err error) {
	octets := strings.Split(s, ".")
	if len(octets) != 4 {
		return 0, 0, errBadEmbeddedIPv4
	}
	var vals [4]uint16
	for i, o := range octets {
		if o == "" || len(o) > 3 {
			return 0, 0, errBadEmbeddedIPv4
		}
		n, convErr := strconv.ParseUint(o, 10, 16)
		if convErr != nil || n > 255 {
			return 0, 0, errBadEmbeddedIPv4
		}
		vals[i] = uint16(n)
	}
	return vals[0]<<8 | vals[1], vals[2]<<8 | vals[3], nil
}

func classify(h [8]uint16) Class {
	allZero := true
	for i := 0; i < 7; i++ {
		if h[i] != 0 {
			allZero = false
			break
		}
	}
	switch {
	case allZero && h[7] == 1:
		return ClassLoopback
	case allZero && h[7] == 0:
		return ClassUnspecified
	case h[0]&0xffc0 == 0xfe80:
		return ClassLinkLocal
	case h[0]&0xfe00 == 0xfc00:
		return ClassUniqueLocal
	case h[0] == 0x2001 && h[1] == 0x0db8:
		return ClassDocumentation
	default:
		return ClassPublic
	}
}

// Canonical returns the fully-expanded, zero-padded, lowercase form,
// e.g. "0000:0000:0000:0000:0000:0000:0000:0001" for ::1.
func (a Address) Canonical() string {
	var b strings.Builder
	b.Grow(39)
	for i, h := range a.Hextets {
		if i > 0 {
			b.WriteByte(':')
		}
		fmt.Fprintf(&b, "%04x", h)
	}
	return b.String()
}

// Private reports whether the address is non-routable or locally scoped:
// loopback, unspecified, link-local, or unique-local.
func (a Address) Private() bool {
	switch a.Class {
	case ClassLoopback, ClassUnspecified, ClassLinkLocal, ClassUniqueLocal:
		return true
	}
	return false
}
