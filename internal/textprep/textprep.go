// Package textprep prepares extracted document text for storage and
// retrieval: a notes-line filter and fixed-window chunking.
package textprep

import (
	"regexp"
	"strings"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var notesLine = regexp.MustCompile(`(?i)^(note|notes)[:\s]`)

// FilterNotes drops lines that open a "Note:"/"Notes:" aside. Applying it
// twice yields the same result as applying it once.
func FilterNotes(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if notesLine.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// Chunk splits text into windows of at most size runes, each overlapping the
// previous one by overlap runes. The window start advances by size-overlap,
// so overlap must be smaller than size. Empty windows are dropped.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}

	runes := []rune(text)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := string(runes[start:end])
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
		start = end - overlap
	}
	return chunks
}
