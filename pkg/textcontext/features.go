// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package textcontext computes structural and vocabulary features around a
// candidate span, independent of any hit type. Document-level structure is
// sniffed from samples (head, tail, a few representative lines) rather than
// the whole document, which keeps large inputs cheap.
package textcontext

import (
	"regexp"
	"strings"
)

// Features is a read-only snapshot for one candidate position.
type Features struct {
	JSONLike       bool
	XMLLike        bool
	CSVLike        bool
	MarkdownLike   bool
	LogLike        bool
	InsideCode     bool
	HeaderRow      bool
	InsideTemplate bool

	// MarkerDistance is the distance in bytes to the nearest example/test
	// marker word, 0 for a same-line marker, -1 when none is near.
	MarkerDistance int
	MarkerLanguage string

	HighEntropy bool
	Repetitive  bool

	Language string // "en", "de", or "unknown"
}

const (
	headSampleLen = 2048
	tailSampleLen = 1024
	markerWindow  = 64
	entropyWindow = 32
	repeatWindow  = 50
	logLineFrac   = 0.30
)

// markerVocab is the bilingual example/test/dummy/placeholder vocabulary.
// Iteration must use markerLangs so ties resolve deterministically.
var markerLangs = []string{"en", "de"}

var markerVocab = map[string][]string{
	"en": {"example", "test", "dummy", "placeholder", "sample", "mock", "fake", "lorem"},
	"de": {"beispiel", "testdaten", "muster", "platzhalter", "attrappe"},
}

var (
	logLineRe = regexp.MustCompile(`^\s*(?:\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}|(?:DEBUG|INFO|WARN|WARNING|ERROR|FATAL|TRACE)\b|(?:GET|POST|PUT|DELETE|PATCH|HEAD)\s+/|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b)`)
	xmlTagRe  = regexp.MustCompile(`<(/?[A-Za-z][A-Za-z0-9:_.\-]*)(?:\s[^<>]*)?/?>`)
	jsonKeyRe = regexp.MustCompile(`"[^"\n]{1,64}"\s*:`)
	hexRunRe  = regexp.MustCompile(`[0-9a-fA-F]{32,}`)
	b64RunRe  = regexp.MustCompile(`[A-Za-z0-9+/=]{40,}`)
	mdRe      = regexp.MustCompile("(?m)^(#{1,6}\\s|[-*+]\\s|```)|\\]\\(")
	tmplRe    = regexp.MustCompile(`\{\{[^{}]*\}\}|\{%[^%]*%\}|\$\{[^{}]*\}|\[\[[^\[\]]*\]\]`)

	deStopwords = []string{" der ", " die ", " das ", " und ", " nicht ", " ist ", " ein "}
	enStopwords = []string{" the ", " and ", " for ", " with ", " that ", " this ", " is "}
)

type docFlags struct {
	jsonLike  bool
	xmlLike   bool
	csvLike   bool
	mdLike    bool
	logLike   bool
	headerRow bool
	language  string
}

// Document carries the sampled structural analysis for one text so repeated
// FeaturesAt calls do not re-sniff the document.
type Document struct {
	text  string
	flags docFlags
}

// Analyze sniffs document structure from samples and returns a Document for
// per-position feature extraction.
func Analyze(text string) *Document {
	return &Document{text: text, flags: sniff(text)}
}

func sniff(text string) docFlags {
	var f docFlags

	head := text
	if len(head) > headSampleLen {
		head = head[:headSampleLen]
	}
	tail := text
	if len(tail) > tailSampleLen {
		tail = tail[len(tail)-tailSampleLen:]
	}

	lines := sampleLines(text)

	f.jsonLike = sniffJSON(head, tail)
	f.xmlLike = sniffXML(head)
	f.csvLike, f.headerRow = sniffCSV(lines)
	f.mdLike = mdRe.MatchString(head)
	f.logLike = sniffLog(lines)
	f.language = sniffLanguage(head)
	return f
}

// sampleLines picks a handful of representative lines: a few from the start,
// one from the middle, one from the end.
func sampleLines(text string) []string {
	all := strings.Split(text, "\n")
	if len(all) <= 8 {
		return all
	}
	picked := make([]string, 0, 8)
	picked = append(picked, all[0], all[1], all[2])
	picked = append(picked, all[len(all)/2])
	picked = append(picked, all[len(all)-2], all[len(all)-1])
	return picked
}

func sniffJSON(head, tail string) bool {
	trimmed := strings.TrimSpace(head)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return false
	}
	// A JSON-ish document has quoted-key colons at meaningful density.
	keys := len(jsonKeyRe.FindAllString(head, -1))
	opens := strings.Count(head, "{") + strings.Count(head, "[")
	closes := strings.Count(tail, "}") + strings.Count(tail, "]")
	return keys >= 1 && opens >= 1 && closes >= 1
}

func sniffXML(head string) bool {
	tags := xmlTagRe.FindAllStringSubmatch(head, -1)
	if len(tags) < 2 {
		return false
	}
	opens, closes := 0, 0
	for _, t := range tags {
		if strings.HasPrefix(t[1], "/") {
			closes++
		} else {
			opens++
		}
	}
	selfClosing := strings.Count(head, "/>")
	return closes > 0 || selfClosing > 0 || opens >= 3
}

// sniffCSV looks for a consistent low-variance delimiter count across the
// sampled lines, and flags a header-shaped first row over a data-shaped second.
func sniffCSV(lines []string) (csvLike, headerRow bool) {
	if len(lines) < 2 {
		return false, false
	}
	for _, delim := range []string{",", ";", "\t", "|"} {
		counts := make([]int, 0, len(lines))
		for _, l := range lines {
			if strings.TrimSpace(l) == "" {
				continue
			}
			counts = append(counts, strings.Count(l, delim))
		}
		if len(counts) < 2 || counts[0] < 1 {
			continue
		}
		consistent := true
		for _, c := range counts[1:] {
			if c != counts[0] {
				consistent = false
				break
			}
		}
		if consistent {
			csvLike = true
			headerRow = looksHeaderShaped(lines[0]) && looksDataShaped(lines[1])
			return
		}
	}
	return false, false
}

func looksHeaderShaped(line string) bool {
	if line == "" {
		return false
	}
	digits := 0
	for i := 0; i < len(line); i++ {
		if line[i] >= '0' && line[i] <= '9' {
			digits++
		}
	}
	return digits*10 < len(line) // under 10% digits
}

func looksDataShaped(line string) bool {
	for i := 0; i < len(line); i++ {
		if line[i] >= '0' && line[i] <= '9' {
			return true
		}
	}
	return false
}

func sniffLog(lines []string) bool {
	if len(lines) == 0 {
		return false
	}
	matched := 0
	for _, l := range lines {
		if logLineRe.MatchString(l) {
			matched++
		}
	}
	return float64(matched) > logLineFrac*float64(len(lines))
}

func sniffLanguage(head string) string {
	lower := " " + strings.ToLower(head) + " "
	en, de := 0, 0
	for _, w := range enStopwords {
		en += strings.Count(lower, w)
	}
	for _, w := range deStopwords {
		de += strings.Count(lower, w)
	}
	switch {
	case en == 0 && de == 0:
		return "unknown"
	case de > en:
		return "de"
	default:
		return "en"
	}
}

// FeaturesAt extracts the feature snapshot for one candidate position.
func (d *Document) FeaturesAt(pos int) Features {
	if pos < 0 {
		pos = 0
	}
	if pos > len(d.text) {
		pos = len(d.text)
	}

	f := Features{
		JSONLike:     d.flags.jsonLike,
		XMLLike:      d.flags.xmlLike,
		CSVLike:      d.flags.csvLike,
		MarkdownLike: d.flags.mdLike,
		LogLike:      d.flags.logLike,
		HeaderRow:    d.flags.headerRow,
		Language:     d.flags.language,
	}

	f.InsideCode = d.insideCode(pos)
	f.InsideTemplate = d.insideTemplate(pos)
	f.MarkerDistance, f.MarkerLanguage = d.nearestMarker(pos)
	f.HighEntropy = d.highEntropy(pos)
	f.Repetitive = d.repetitive(pos)
	return f
}

// insideCode reports whether pos is inside a fenced block (odd number of ```
// markers before it), an indented code line, or an HTML pre/code element.
func (d *Document) insideCode(pos int) bool {
	before := d.text[:pos]
	if strings.Count(before, "```")%2 == 1 {
		return true
	}
	lineStart := strings.LastIndexByte(before, '\n') + 1
	line := d.text[lineStart:]
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
		return true
	}
	lowBefore := strings.ToLower(before)
	for _, tag := range []string{"<pre", "<code"} {
		open := strings.LastIndex(lowBefore, tag)
		if open == -1 {
			continue
		}
		closeTag := "</" + tag[1:]
		if strings.LastIndex(lowBefore, closeTag) < open {
			return true
		}
	}
	return false
}

func (d *Document) insideTemplate(pos int) bool {
	lo := pos - markerWindow
	if lo < 0 {
		lo = 0
	}
	hi := pos + markerWindow
	if hi > len(d.text) {
		hi = len(d.text)
	}
	for _, m := range tmplRe.FindAllStringIndex(d.text[lo:hi], -1) {
		if lo+m[0] <= pos && pos <= lo+m[1] {
			return true
		}
	}
	return false
}

// nearestMarker searches the current line and a ±64 byte window for the
// bilingual marker vocabulary. A same-line marker always wins as distance 0.
func (d *Document) nearestMarker(pos int) (int, string) {
	lineStart := strings.LastIndexByte(d.text[:pos], '\n') + 1
	lineEnd := len(d.text)
	if i := strings.IndexByte(d.text[pos:], '\n'); i >= 0 {
		lineEnd = pos + i
	}
	line := strings.ToLower(d.text[lineStart:lineEnd])
	for _, lang := range markerLangs {
		for _, w := range markerVocab[lang] {
			if strings.Contains(line, w) {
				return 0, lang
			}
		}
	}

	lo := pos - markerWindow
	if lo < 0 {
		lo = 0
	}
	hi := pos + markerWindow
	if hi > len(d.text) {
		hi = len(d.text)
	}
	window := strings.ToLower(d.text[lo:hi])

	best, bestLang := -1, ""
	for _, lang := range markerLangs {
		for _, w := range markerVocab[lang] {
			idx := strings.Index(window, w)
			for idx >= 0 {
				abs := lo + idx
				dist := abs - pos
				if dist < 0 {
					dist = pos - (abs + len(w))
					if dist < 0 {
						dist = 0
					}
				}
				if best == -1 || dist < best {
					best, bestLang = dist, lang
				}
				next := strings.Index(window[idx+1:], w)
				if next < 0 {
					break
				}
				idx += 1 + next
			}
		}
	}
	return best, bestLang
}

// highEntropy flags positions surrounded by random-looking data: a high
// unique-character ratio, long hex or base64 runs, or PEM headers.
func (d *Document) highEntropy(pos int) bool {
	lo := pos - entropyWindow
	if lo < 0 {
		lo = 0
	}
	hi := pos + entropyWindow
	if hi > len(d.text) {
		hi = len(d.text)
	}
	window := d.text[lo:hi]
	if len(window) < 16 {
		return false
	}
	if strings.Contains(window, "-----BEGIN ") {
		return true
	}
	if hexRunRe.MatchString(window) || b64RunRe.MatchString(window) {
		return true
	}
	seen := make(map[byte]struct{}, len(window))
	for i := 0; i < len(window); i++ {
		seen[window[i]] = struct{}{}
	}
	return float64(len(seen)) > 0.65*float64(len(window))
}

// repetitive flags positions where one word dominates the surrounding window.
func (d *Document) repetitive(pos int) bool {
	lo := pos - repeatWindow
	if lo < 0 {
		lo = 0
	}
	hi := pos + repeatWindow
	if hi > len(d.text) {
		hi = len(d.text)
	}
	words := strings.Fields(strings.ToLower(d.text[lo:hi]))
	if len(words) < 6 {
		return false
	}
	counts := make(map[string]int, len(words))
	top := 0
	for _, w := range words {
		counts[w]++
		if counts[w] > top {
			top = counts[w]
		}
	}
	return float64(top) > 0.5*float64(len(words))
}
