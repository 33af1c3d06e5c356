package search

import (
	"sort"
	"strings"
	"unicode"
)

const (
	// how far before a phrase hit the window starts, so the match has lead-in
	phraseLookbehind = 1000
	// lead-in before the densest keyword cluster
	densityLookbehind = 500
)

// ExtractContext returns the most query-relevant contiguous window of content,
// at most maxLength characters plus ellipsis markers on truncated edges.
//
// Matching is case-insensitive but the returned text keeps the original case.
// An empty query returns the head of the content verbatim. The search runs in
// two phases: an exact-phrase probe over the cleaned query, then a
// keyword-density scan that slides a maxLength window over every keyword
// occurrence and keeps the densest one.
func ExtractContext(content, query string, maxLength int) string {
	if content == "" {
		return ""
	}
	if query == "" {
		return head(content, maxLength)
	}

	lowerContent := strings.ToLower(content)
	clean := cleanQuery(strings.ToLower(query))

	// Phase 1: exact phrase.
	if clean != "" {
		if idx := strings.Index(lowerContent, clean); idx >= 0 {
			return window(content, max(0, idx-phraseLookbehind), maxLength)
		}
	}

	// Phase 2: keyword density. Single-character tokens are noise; anything
	// longer counts, including short numbers like "42".
	var keywords []string
	for _, w := range strings.Fields(clean) {
		if len(w) > 1 {
			keywords = append(keywords, w)
		}
	}
	if len(keywords) == 0 {
		return head(content, maxLength)
	}

	matches := keywordOffsets(lowerContent, keywords)
	if len(matches) == 0 {
		return head(content, maxLength)
	}
	sort.Ints(matches)

	// Slide a virtual window of width maxLength anchored at each match and
	// keep the start covering the most matches. Strictly-greater comparison:
	// on ties the earliest window wins.
	bestStart := 0
	maxMatchCount := 0
	for i, start := range matches {
		count := 0
		for j := i; j < len(matches); j++ {
			if matches[j]-start >= maxLength {
				break
			}
			count++
		}
		if count > maxMatchCount {
			maxMatchCount = count
			bestStart = start
		}
	}

	return window(content, max(0, bestStart-densityLookbehind), maxLength)
}

// keywordOffsets collects every non-overlapping occurrence offset of every
// keyword across the whole content.
func keywordOffsets(lowerContent string, keywords []string) []int {
	var offsets []int
	for _, kw := range keywords {
		for from := 0; ; {
			i := strings.Index(lowerContent[from:], kw)
			if i < 0 {
				break
			}
			offsets = append(offsets, from+i)
			from += i + len(kw)
		}
	}
	return offsets
}

// cleanQuery strips everything except word characters and whitespace, the
// probe used for exact-phrase matching. Content is never cleaned.
func cleanQuery(q string) string {
	var b strings.Builder
	b.Grow(len(q))
	for _, r := range q {
		if r == '_' || r == ' ' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// window cuts maxLength characters starting at start, clamped to the content,
// and marks truncated edges with ellipses.
func window(content string, start, maxLength int) string {
	end := min(len(content), start+maxLength)
	out := content[start:end]
	if start > 0 {
		out = "..." + out
	}
	if end < len(content) {
		out = out + "..."
	}
	return out
}

func head(content string, maxLength int) string {
	if len(content) <= maxLength {
		return content
	}
	return content[:maxLength]
}
