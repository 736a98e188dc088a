package chunks_test

import (
	"strings"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/modernice/hakim/internal/chunks"
)

func TestSplit(t *testing.T) {
	paragraphs := strings.TrimSpace(heredoc.Doc(`
		First paragraph.

		Second paragraph.

		Third.
	`))

	tests := []struct {
		name     string
		source   string
		maxRunes int
		expected []chunks.Chunk
	}{
		{
			name: "empty",
		},
		{
			name:     "no limit",
			source:   paragraphs,
			expected: []chunks.Chunk{{Text: paragraphs}},
		},
		{
			name:     "fits",
			source:   "Hello. World.",
			maxRunes: 100,
			expected: []chunks.Chunk{{Text: "Hello. World."}},
		},
		{
			name:     "paragraphs",
			source:   paragraphs,
			maxRunes: 20,
			expected: []chunks.Chunk{
				{Text: "First paragraph.", Sep: "\n\n"},
				{Text: "Second paragraph.", Sep: "\n\n"},
				{Text: "Third."},
			},
		},
		{
			name:     "sentences",
			source:   "One two. Three four. Five six.",
			maxRunes: 12,
			expected: []chunks.Chunk{
				{Text: "One two.", Sep: " "},
				{Text: "Three four.", Sep: " "},
				{Text: "Five six."},
			},
		},
		{
			name:     "short sentences are merged",
			source:   "A. B. C.",
			maxRunes: 5,
			expected: []chunks.Chunk{
				{Text: "A. B.", Sep: " "},
				{Text: "C."},
			},
		},
		{
			name:     "ethiopic punctuation",
			source:   "ራስ ምታት አለኝ። ምን ላድርግ፧",
			maxRunes: 12,
			expected: []chunks.Chunk{
				{Text: "ራስ ምታት አለኝ።", Sep: " "},
				{Text: "ምን ላድርግ፧"},
			},
		},
		{
			name:     "cut at whitespace",
			source:   "aaa bbb ccc",
			maxRunes: 5,
			expected: []chunks.Chunk{
				{Text: "aaa", Sep: " "},
				{Text: "bbb", Sep: " "},
				{Text: "ccc"},
			},
		},
		{
			name:     "hard cut",
			source:   "abcdefghij",
			maxRunes: 4,
			expected: []chunks.Chunk{
				{Text: "abcd"},
				{Text: "efgh"},
				{Text: "ij"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := chunks.Split(tt.source, tt.maxRunes)

			if !cmp.Equal(tt.expected, result) {
				t.Fatalf("unexpected chunks:\n%s", cmp.Diff(tt.expected, result))
			}

			if joined := chunks.Join(result); joined != tt.source {
				t.Fatalf("Join() should reproduce the source\n\nwant:\n%q\n\ngot:\n%q", tt.source, joined)
			}
		})
	}
}

func TestSplit_maxRunes(t *testing.T) {
	source := strings.Repeat("The patient reports a mild headache since yesterday. ", 40)

	for _, c := range chunks.Split(source, 120) {
		if n := len([]rune(c.Text)); n > 120 {
			t.Fatalf("chunk has %d runes; want at most 120\n\n%s", n, c.Text)
		}
	}
}
