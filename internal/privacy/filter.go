// Package privacy implements §4.N: pattern-based detection and redaction
// of sensitive content before it crosses a trust boundary (a provider
// call, a persisted artifact, a log line).
//
// Grounded on the teacher's internal/observability.Logger redaction path
// (redactString/redactMap: a slice of compiled regexes applied in order,
// a sensitive-key map for structured fields), generalized from "replace
// with a fixed tag" to the three redaction styles spec §4.N names.
package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sync"
)

// Style selects how a match is rewritten.
type Style string

const (
	StyleFull    Style = "full"    // replace the whole match with a tag
	StylePartial Style = "partial" // keep first/last characters, mask the middle
	StyleHash    Style = "hash"    // replace with a short hash of the match
)

// Pattern is one named entry in the pattern library.
type Pattern struct {
	Name string
	Re   *regexp.Regexp
}

// defaultPatterns covers the categories named in spec §4.N: emails, IPs,
// credit cards, API-key prefixes, SSNs.
func defaultPatterns() []Pattern {
	return []Pattern{
		{Name: "email", Re: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)},
		{Name: "ipv4", Re: regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`)},
		{Name: "credit_card", Re: regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`)},
		{Name: "ssn", Re: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
		{Name: "api_key", Re: regexp.MustCompile(`\b(?:sk|pk|api|key)[-_][A-Za-z0-9]{16,}\b`)},
		{Name: "aws_key", Re: regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	}
}

// Filter applies the pattern library to text, concurrency-safe for shared
// use across executors.
type Filter struct {
	mu       sync.RWMutex
	patterns []Pattern
	style    Style
}

// New returns a Filter seeded with the default pattern library plus any
// caller-supplied additions, per the "configurable additions" contract.
func New(style Style, extra ...Pattern) *Filter {
	if style == "" {
		style = StyleFull
	}
	f := &Filter{style: style}
	f.patterns = append(f.patterns, defaultPatterns()...)
	f.patterns = append(f.patterns, extra...)
	return f
}

// AddPattern registers an additional pattern at runtime.
func (f *Filter) AddPattern(p Pattern) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns = append(f.patterns, p)
}

// FindMatches returns, for each pattern name with at least one hit, every
// matched substring in text. Monotone under concatenation: FindMatches(T)
// is always a subset of FindMatches(T+T), since appending text can only add
// occurrences, never remove one found in the first half (spec §8 invariant 6).
func (f *Filter) FindMatches(text string) map[string][]string {
	f.mu.RLock()
	patterns := append([]Pattern(nil), f.patterns...)
	f.mu.RUnlock()

	out := make(map[string][]string)
	for _, p := range patterns {
		matches := p.Re.FindAllString(text, -1)
		if len(matches) > 0 {
			out[p.Name] = matches
		}
	}
	return out
}

// Redact rewrites every match in text according to style, returning the
// redacted text and the number of values replaced.
func (f *Filter) Redact(text string) (string, int) {
	f.mu.RLock()
	patterns := append([]Pattern(nil), f.patterns...)
	style := f.style
	f.mu.RUnlock()

	count := 0
	for _, p := range patterns {
		text = p.Re.ReplaceAllStringFunc(text, func(match string) string {
			count++
			return redactOne(match, style, p.Name)
		})
	}
	return text, count
}

func redactOne(match string, style Style, patternName string) string {
	switch style {
	case StylePartial:
		return partialMask(match)
	case StyleHash:
		sum := sha256.Sum256([]byte(match))
		return "[" + hex.EncodeToString(sum[:])[:8] + "]"
	default:
		return fmt.Sprintf("[REDACTED:%s]", patternName)
	}
}

// partialMask keeps the first and last visible character of each
// "word"-like segment and masks the rest, e.g. alice@example.com ->
// a***@example.com, matching the scenario in spec §8 end-to-end scenario 5.
func partialMask(s string) string {
	if len(s) <= 2 {
		return s
	}
	runes := []rune(s)
	// Special-case emails: mask only the local part, keep the domain.
	at := -1
	for i, r := range runes {
		if r == '@' {
			at = i
			break
		}
	}
	if at > 1 {
		local := runes[:at]
		masked := string(local[0]) + "***"
		return masked + string(runes[at:])
	}
	if len(runes) <= 4 {
		return string(runes[0]) + "***"
	}
	return string(runes[0]) + "***" + string(runes[len(runes)-1])
}
