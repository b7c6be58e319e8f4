// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package engine runs normalized text through the built-in pattern matchers
// and emits validated, pool-owned hits. One combined pattern covers email,
// IPv4, IPv6, MAC, and card-shaped tokens in a single scan; international
// phone numbers get a second dedicated pass because their grammar (optional
// leading +, loose grouping separators) does not compose into the combined
// alternation without ambiguity.
package engine

import (
	"net"
	"regexp"
	"strings"

	"piiscrub/pkg/checksum"
	"piiscrub/pkg/detector"
	"piiscrub/pkg/ipv6"
)

const (
	emailPat = `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`

	// Loose on purpose: every IPv6-shaped match is re-validated by the
	// structural parser before a hit is emitted.
	ipv6Pat = `(?:[0-9A-Fa-f]{1,4}:){7}[0-9A-Fa-f]{1,4}` +
		`|(?:[0-9A-Fa-f]{1,4}:){6}(?:\d{1,3}\.){3}\d{1,3}` +
		`|(?:[0-9A-Fa-f]{1,4}(?::[0-9A-Fa-f]{1,4}){0,6})?::` +
		`(?:(?:[0-9A-Fa-f]{1,4}:){0,5}(?:\d{1,3}\.){3}\d{1,3}|[0-9A-Fa-f]{1,4}(?::[0-9A-Fa-f]{1,4}){0,6})?`

	ipv4Pat = `(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)`

	macPat = `(?:[0-9A-Fa-f]{2}[:\-]){5}[0-9A-Fa-f]{2}|(?:[0-9A-Fa-f]{4}\.){2}[0-9A-Fa-f]{4}`

	// Generic card-shaped token: 12-19 digits with optional single
	// space/hyphen separators. The Luhn gate rejects the noise.
	cardPat = `\d(?:[ \-]?\d){11,18}`

	phonePat = `\+?\d[\d \-.()/]{5,18}\d`
)

// Alternative order is significant: the first capturing alternative that
// matches at a position wins, later alternatives at the same position are not
// evaluated. Longest-match arbitration across distinct hits happens later in
// overlap resolution.
var combinedGroups = []detector.Type{
	detector.TypeEmail,
	detector.TypeIPv6,
	detector.TypeIPv4,
	detector.TypeMAC,
	detector.TypeCreditCard,
}

var (
	combinedRe = regexp.MustCompile(
		`(` + emailPat + `)|(` + ipv6Pat + `)|(` + ipv4Pat + `)|(` + macPat + `)|(` + cardPat + `)`)
	phoneRe = regexp.MustCompile(phonePat)
)

var riskByType = map[detector.Type]detector.Risk{
	detector.TypeEmail:      detector.RiskMedium,
	detector.TypePhone:      detector.RiskMedium,
	detector.TypeCreditCard: detector.RiskHigh,
	detector.TypeIPv4:       detector.RiskLow,
	detector.TypeIPv6:       detector.RiskLow,
	detector.TypeMAC:        detector.RiskLow,
}

// Engine scans normalized text for the built-in pattern families.
// It is not safe for concurrent use because it allocates from a shared pool.
type Engine struct {
	pool  *detector.Pool
	guard Guard
}

// New creates an engine drawing hits from pool under the given guard.
func New(pool *detector.Pool, guard Guard) *Engine {
	if pool == nil {
		pool = detector.NewPool(0)
	}
	return &Engine{pool: pool, guard: guard}
}

// Pool returns the engine's hit pool so the pipeline can release hits it
// discards during overlap resolution.
func (e *Engine) Pool() *detector.Pool { return e.pool }

// Detect runs both passes over normalized text. When the guard refuses the
// input, the hit slice is nil and the reason is non-empty; this is not an
// error condition.
func (e *Engine) Detect(text string) ([]*detector.Hit, GuardReason) {
	if reason := e.guard.Check(text); reason != GuardOK {
		return nil, reason
	}

	var hits []*detector.Hit
	perType := make(map[detector.Type]int)

	for _, m := range combinedRe.FindAllStringSubmatchIndex(text, -1) {
		typ, start, end := matchedGroup(m)
		if typ == "" {
			continue
		}
		if e.guard.MaxMatchesPerPattern > 0 && perType[typ] >= e.guard.MaxMatchesPerPattern {
			continue
		}
		if embeddedInWord(text, start, end) {
			continue
		}
		if h := e.gate(typ, text, start, end); h != nil {
			hits = append(hits, h)
			perType[typ]++
		}
	}

	for _, m := range phoneRe.FindAllStringIndex(text, -1) {
		start, end := m[0], m[1]
		if e.guard.MaxMatchesPerPattern > 0 && perType[detector.TypePhone] >= e.guard.MaxMatchesPerPattern {
			break
		}
		if embeddedInWord(text, start, end) {
			continue
		}
		if h := e.gate(detector.TypePhone, text, start, end); h != nil {
			hits = append(hits, h)
			perType[detector.TypePhone]++
		}
	}

	return hits, GuardOK
}

// matchedGroup maps a submatch index vector to the winning alternative.
func matchedGroup(m []int) (detector.Type, int, int) {
	for i, typ := range combinedGroups {
		lo, hi := m[2*(i+1)], m[2*(i+1)+1]
		if lo >= 0 {
			return typ, lo, hi
		}
	}
	return "", 0, 0
}

// embeddedInWord rejects matches glued to surrounding alphanumerics, e.g. the
// "::Instance" inside "AWS::EC2::Instance" or digits inside a longer number.
func embeddedInWord(text string, start, end int) bool {
	if start > 0 && isWordByte(text[start-1]) {
		return true
	}
	if end < len(text) && isWordByte(text[end]) {
		return true
	}
	return false
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isHexByte(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

// gate applies the per-type validation gates and acquires a hit when the
// candidate survives. Failed validation is an expected outcome and drops the
// match silently.
func (e *Engine) gate(typ detector.Type, text string, start, end int) *detector.Hit {
	value := text[start:end]

	switch typ {
	case detector.TypeCreditCard:
		res := checksum.ValidateCard(value)
		if !res.Valid {
			return nil
		}
		h := e.pool.Acquire(typ, start, end, value, riskByType[typ])
		h.Features.Brand = res.Brand
		return h

	case detector.TypeIPv6:
		// A colon plus hex digit right after the match means the candidate is
		// a truncated slice of a longer malformed address, not an address
		// followed by punctuation.
		if end+1 < len(text) && text[end] == ':' && isHexByte(text[end+1]) {
			return nil
		}
		addr, err := ipv6.Parse(value)
		if err != nil {
			return nil
		}
		h := e.pool.Acquire(typ, start, end, value, riskByType[typ])
		h.Features.AddressClass = string(addr.Class)
		return h

	case detector.TypeIPv4:
		h := e.pool.Acquire(typ, start, end, value, riskByType[typ])
		h.Features.AddressClass = classifyIPv4(value)
		return h

	case detector.TypePhone:
		digits := countDigits(value)
		if digits < 10 || digits > 15 {
			return nil
		}
		return e.pool.Acquire(typ, start, end, value, riskByType[typ])

	default:
		return e.pool.Acquire(typ, start, end, value, riskByType[typ])
	}
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}

var ipv4Classes = []struct {
	cidr  string
	class string
}{
	{"127.0.0.0/8", "loopback"},
	{"10.0.0.0/8", "private"},
	{"172.16.0.0/12", "private"},
	{"192.168.0.0/16", "private"},
	{"169.254.0.0/16", "link_local"},
	{"192.0.2.0/24", "documentation"},
	{"198.51.100.0/24", "documentation"},
	{"203.0.113.0/24", "documentation"},
	{"224.0.0.0/4", "multicast"},
	{"0.0.0.0/8", "reserved"},
	{"240.0.0.0/4", "reserved"},
}

var ipv4Networks = func() []*net.IPNet {
	nets := make([]*net.IPNet, len(ipv4Classes))
	for i, c := range ipv4Classes {
		_, n, err := net.ParseCIDR(c.cidr)
		if err != nil {
			panic(err)
		}
		nets[i] = n
	}
	return nets
}()

// classifyIPv4 labels the address range, mirroring the IPv6 classifier.
func classifyIPv4(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return "invalid"
	}
	for i, n := range ipv4Networks {
		if n.Contains(ip) {
			return ipv4Classes[i].class
		}
	}
	return "public"
}
