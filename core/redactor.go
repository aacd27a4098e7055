package core

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"sort"
	"strings"
)

// PIICategory identifies a class of personally identifiable information
// the redactor knows how to detect.
type PIICategory string

const (
	// PIIEmail represents email addresses
	PIIEmail PIICategory = "email"

	// PIIPhone represents US phone numbers
	PIIPhone PIICategory = "phone"

	// PIITaxID represents tax identifiers (SSN or EIN shaped)
	PIITaxID PIICategory = "tax_id"
)

// ErrEmptyInput is returned when redaction is attempted on empty or
// whitespace-only text.
var ErrEmptyInput = errors.New("input text is empty")

// PIIMatch records one detected sensitive span. Offsets are byte offsets
// into the original, unmodified text. The literal value is never stored;
// only its SHA-256 digest survives for audit correlation.
type PIIMatch struct {
	Category   PIICategory `json:"category"`
	Digest     string      `json:"digest"`
	StartIndex int         `json:"start_index"`
	EndIndex   int         `json:"end_index"`
}

// RedactionResult holds the de-identified text together with the audit
// trail of matches, ordered ascending by original start offset.
type RedactionResult struct {
	Text    string     `json:"text"`
	Matches []PIIMatch `json:"matches"`
	Count   int        `json:"count"`
}

// piiPattern stores metadata about a detection pattern
type piiPattern struct {
	Category    PIICategory
	Regex       *regexp.Regexp
	Placeholder string
	Description string
}

// Detection patterns, run independently per category over the original
// text. Placeholders contain no digits or '@' so redacted output never
// re-matches any pattern.
var piiPatterns = []piiPattern{
	{
		Category:    PIIEmail,
		Regex:       regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`),
		Placeholder: "[EMAIL REDACTED]",
		Description: "Email address",
	},
	{
		Category:    PIIPhone,
		Regex:       regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
		Placeholder: "[PHONE REDACTED]",
		Description: "US phone number",
	},
	{
		Category:    PIITaxID,
		Regex:       regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b|\b\d{2}-\d{7}\b`),
		Placeholder: "[TAX-ID REDACTED]",
		Description: "Tax identifier (SSN/EIN shaped)",
	},
}

// rawMatch carries the literal value during a single redaction pass.
// It never leaves this file.
type rawMatch struct {
	Category   PIICategory
	Value      string
	StartIndex int
	EndIndex   int
}

// hashValue produces the one-way digest recorded in place of a literal.
func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// scanPII collects matches from every category over the original text.
// Categories are independent; a span matched by two categories yields
// two matches (documented policy: both fire, both are redacted).
func scanPII(text string) []rawMatch {
	var matches []rawMatch
	for _, p := range piiPatterns {
		for _, loc := range p.Regex.FindAllStringIndex(text, -1) {
			matches = append(matches, rawMatch{
				Category:   p.Category,
				Value:      text[loc[0]:loc[1]],
				StartIndex: loc[0],
				EndIndex:   loc[1],
			})
		}
	}
	return matches
}

// Redact scans text for PII and returns the de-identified text plus a
// position-accurate audit trail. The rebuild happens in a single pass
// over matches sorted by original start offset, so replacement never
// shifts the offsets being recorded. Redact is a pure function of its
// input; it never fails on unmatched PII-like substrings.
func Redact(text string) (*RedactionResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	raw := scanPII(text)

	// Ascending by start; on equal starts the longer span first, so an
	// overlapping shorter span is absorbed by the cursor clamp below.
	sort.SliceStable(raw, func(i, j int) bool {
		if raw[i].StartIndex != raw[j].StartIndex {
			return raw[i].StartIndex < raw[j].StartIndex
		}
		return raw[i].EndIndex > raw[j].EndIndex
	})

	var builder strings.Builder
	cursor := 0
	for _, m := range raw {
		if m.StartIndex > cursor {
			builder.WriteString(text[cursor:m.StartIndex])
		}
		switch {
		case m.StartIndex >= cursor:
			builder.WriteString(placeholderFor(m.Category))
			cursor = m.EndIndex
		case m.EndIndex > cursor:
			// Overlaps the previous replacement: emit this category's
			// placeholder too, but never re-emit covered original bytes.
			builder.WriteString(placeholderFor(m.Category))
			cursor = m.EndIndex
		default:
			// Fully covered by a previous replacement. The match is
			// still recorded for audit.
		}
	}
	if cursor < len(text) {
		builder.WriteString(text[cursor:])
	}

	matches := make([]PIIMatch, 0, len(raw))
	for _, m := range raw {
		matches = append(matches, PIIMatch{
			Category:   m.Category,
			Digest:     hashValue(m.Value),
			StartIndex: m.StartIndex,
			EndIndex:   m.EndIndex,
		})
	}

	return &RedactionResult{
		Text:    builder.String(),
		Matches: matches,
		Count:   len(matches),
	}, nil
}

// placeholderFor returns the category-specific replacement token.
func placeholderFor(category PIICategory) string {
	for _, p := range piiPatterns {
		if p.Category == category {
			return p.Placeholder
		}
	}
	return "[REDACTED]"
}

// ContainsPII reports whether text still contains any matchable PII.
// Used to verify redacted output independently of Redact.
func ContainsPII(text string) bool {
	for _, p := range piiPatterns {
		if p.Regex.MatchString(text) {
			return true
		}
	}
	return false
}

// Stats returns per-category match counts without performing any
// replacement. Categories with zero matches are omitted.
func Stats(text string) map[PIICategory]int {
	stats := make(map[PIICategory]int)
	for _, p := range piiPatterns {
		if n := len(p.Regex.FindAllStringIndex(text, -1)); n > 0 {
			stats[p.Category] = n
		}
	}
	return stats
}
