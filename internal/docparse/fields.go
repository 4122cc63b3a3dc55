package docparse

import (
	"regexp"
	"strings"
)

const (
	maxScanLines    = 500
	maxPreviewLines = 40
	maxFullTextLen  = 5000
)

// Summary holds the weakly-structured fields recovered from raw text. Each
// field is independently nullable; absence of one does not block the others.
type Summary struct {
	Total   *string `json:"total"`
	Date    *string `json:"date"`
	Vendor  *string `json:"vendor"`
	Account *string `json:"account"`
}

// Parsed is the first-pass structured view of a document's text.
type Parsed struct {
	Type     string   `json:"type"`
	Summary  Summary  `json:"summary"`
	Preview  []string `json:"preview"`
	FullText string   `json:"fullText"`
}

var (
	totalRe   = regexp.MustCompile(`(?i)\btotal(?:\s+amount)?\s*[:-]?\s*\$?\s*([0-9][0-9,]*\.?[0-9]{0,2})`)
	dateRe    = regexp.MustCompile(`\b(20\d{2}[-/.]\d{1,2}[-/.]\d{1,2}|\d{1,2}[-/.]\d{1,2}[-/.]20\d{2})\b`)
	vendorRe  = regexp.MustCompile(`(?i)\b(?:from|vendor|merchant|payee)[:\s]+([A-Za-z0-9&., -]{3,40})`)
	accountRe = regexp.MustCompile(`(?i)\b(?:account|acct)(?:\s+#|:|\s+number)?\s*([0-9X*]{4,})`)
	lineRe    = regexp.MustCompile(`\r?\n`)
)

// Parse classifies the text and extracts summary fields, a bounded preview,
// and a bounded copy of the raw text.
func Parse(text, fileName string) Parsed {
	return Parsed{
		Type:     Classify(text, fileName),
		Summary:  ParseFields(text),
		Preview:  preview(text),
		FullText: truncate(text, maxFullTextLen),
	}
}

// ParseFields applies bounded single-pass patterns for total, date, vendor,
// and account. Fields that do not match stay nil.
func ParseFields(text string) Summary {
	var s Summary
	if m := totalRe.FindStringSubmatch(text); m != nil {
		s.Total = ptr(m[1])
	}
	if m := dateRe.FindStringSubmatch(text); m != nil {
		s.Date = ptr(m[1])
	}
	if m := vendorRe.FindStringSubmatch(text); m != nil {
		s.Vendor = ptr(strings.TrimSpace(m[1]))
	}
	if m := accountRe.FindStringSubmatch(text); m != nil {
		s.Account = ptr(m[1])
	}
	return s
}

// preview returns the first non-blank trimmed lines, capping total processed
// lines to bound cost on pathological inputs.
func preview(text string) []string {
	lines := splitLines(text)
	if len(lines) > maxPreviewLines {
		lines = lines[:maxPreviewLines]
	}
	return lines
}

// SplitLines exposes the bounded non-blank line view used for previews and
// line-level scans.
func SplitLines(text string) []string {
	return splitLines(text)
}

func splitLines(text string) []string {
	raw := lineRe.Split(text, -1)
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
		if len(out) >= maxScanLines {
			break
		}
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func ptr(s string) *string {
	return &s
}
