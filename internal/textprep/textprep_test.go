package textprep

import (
	"strings"
	"testing"
)

func TestFilterNotes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "drops note lines",
			input: "Intro line\nNote: skip this\nBody line",
			want:  "Intro line\nBody line",
		},
		{
			name:  "case insensitive",
			input: "NOTES: internal\nnote: lowercase\nKept",
			want:  "Kept",
		},
		{
			name:  "note without separator kept",
			input: "Notebook entries\nNoteworthy point",
			want:  "Notebook entries\nNoteworthy point",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterNotes(tt.input)
			if got != tt.want {
				t.Errorf("FilterNotes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilterNotesIdempotent(t *testing.T) {
	input := "Header\nNote: one\nBody\nNotes: two\nTail"
	once := FilterNotes(input)
	twice := FilterNotes(once)
	if once != twice {
		t.Errorf("second pass changed output: %q vs %q", once, twice)
	}
}

func TestChunk(t *testing.T) {
	text := strings.Repeat("a", 2500)
	chunks := Chunk(text, 1000, 200)

	// Windows: [0,1000) [800,1800) [1600,2500)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 1000 || len(chunks[1]) != 1000 {
		t.Errorf("full windows should be 1000 runes, got %d and %d", len(chunks[0]), len(chunks[1]))
	}
	if len(chunks[2]) != 900 {
		t.Errorf("last window should be 900 runes, got %d", len(chunks[2]))
	}
}

func TestChunkCoverage(t *testing.T) {
	// Every rune of the input must appear in at least one chunk window.
	text := "The quick brown fox jumps over the lazy dog. " + strings.Repeat("x", 300)
	chunks := Chunk(text, 100, 20)

	var rebuilt strings.Builder
	for i, c := range chunks {
		r := []rune(c)
		if i == 0 {
			rebuilt.WriteString(c)
			continue
		}
		// Drop the 20-rune overlapping prefix when reassembling.
		rebuilt.WriteString(string(r[20:]))
	}
	if rebuilt.String() != text {
		t.Error("chunks do not cover the input exactly")
	}
}

func TestChunkShorterThanWindow(t *testing.T) {
	chunks := Chunk("short text", 1000, 200)
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Errorf("expected single chunk with full text, got %v", chunks)
	}
}

func TestChunkEmptyInput(t *testing.T) {
	if got := Chunk("", 1000, 200); len(got) != 0 {
		t.Errorf("expected no chunks, got %v", got)
	}
	if got := Chunk("   \n\t  ", 1000, 200); len(got) != 0 {
		t.Errorf("whitespace-only input should yield no chunks, got %v", got)
	}
}

func TestChunkMultibyte(t *testing.T) {
	// Rune windows must never split a codepoint.
	text := strings.Repeat("日本語テキスト", 50) // 300 runes
	chunks := Chunk(text, 100, 20)
	for i, c := range chunks {
		if strings.ContainsRune(c, '�') {
			t.Errorf("chunk %d contains replacement character", i)
		}
		if n := len([]rune(c)); n > 100 {
			t.Errorf("chunk %d has %d runes, want <= 100", i, n)
		}
	}
}
