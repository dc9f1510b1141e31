// Package textutil provides small text and vector helpers shared across the
// pipeline.
package textutil

import (
	"crypto/md5"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 for mismatched lengths or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// NormalizeCosine maps cosine similarity from [-1,1] to [0,1].
func NormalizeCosine(sim float64) float64 {
	return (sim + 1) / 2
}

// HashString returns the md5 hex digest of s.
func HashString(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// TruncateString shortens s to at most maxLen runes, appending "..." when
// truncated.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	pageMarker   = regexp.MustCompile(`(?m)^\s*(?:Page\s+\d+(?:\s+of\s+\d+)?|-+\s*\d+\s*-+)\s*$`)
)

// CleanText normalises extracted document text: drops standalone page
// markers and collapses runs of blank lines.
func CleanText(s string) string {
	s = pageMarker.ReplaceAllString(s, "")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
