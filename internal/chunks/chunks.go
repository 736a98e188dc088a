// Package chunks splits text into pieces that fit into the input window of a
// translation model.
package chunks

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	paragraphRE = regexp.MustCompile(`\n\s*\n\s*`)

	// sentence terminators, including the Ethiopic full stop and question mark
	sentenceRE = regexp.MustCompile(`[.!?።፧]+(\s+)`)
)

// Chunk is a piece of text together with the separator that followed it in
// the source. Joining all chunks reproduces the source.
type Chunk struct {
	Text string
	Sep  string
}

// Join concatenates chunks and their separators.
func Join(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
		b.WriteString(c.Sep)
	}
	return b.String()
}

// Split splits source into chunks of at most maxRunes runes. Text that fits
// is returned as a single chunk. Otherwise it is split into paragraphs, long
// paragraphs into sentences (consecutive short sentences are merged back
// together), and sentences that are still too long are cut at the last
// whitespace before the limit, or at the limit itself.
//
// A maxRunes <= 0 disables splitting.
func Split(source string, maxRunes int) []Chunk {
	if source == "" {
		return nil
	}

	if maxRunes <= 0 || utf8.RuneCountInString(source) <= maxRunes {
		return []Chunk{{Text: source}}
	}

	var out []Chunk
	for _, para := range splitAfter(source, paragraphRE) {
		if utf8.RuneCountInString(para.Text) <= maxRunes {
			out = append(out, para)
			continue
		}

		packed := pack(splitAfter(para.Text, sentenceRE), maxRunes)
		packed[len(packed)-1].Sep += para.Sep
		out = append(out, packed...)
	}

	return out
}

// splitAfter cuts s at every match of expr. If expr has a capture group, only
// the group is used as the separator and the rest of the match stays with the
// preceding text.
func splitAfter(s string, expr *regexp.Regexp) []Chunk {
	var out []Chunk
	var start int
	for _, m := range expr.FindAllStringSubmatchIndex(s, -1) {
		sepStart, sepEnd := m[0], m[1]
		if len(m) >= 4 && m[2] >= 0 {
			sepStart, sepEnd = m[2], m[3]
		}
		out = append(out, Chunk{Text: s[start:sepStart], Sep: s[sepStart:sepEnd]})
		start = sepEnd
	}
	return append(out, Chunk{Text: s[start:]})
}

func pack(parts []Chunk, maxRunes int) []Chunk {
	var (
		out  []Chunk
		cur  Chunk
		open bool
	)

	flush := func() {
		if open {
			out = append(out, cur)
		}
		cur, open = Chunk{}, false
	}

	for _, part := range parts {
		n := utf8.RuneCountInString(part.Text)

		if n > maxRunes {
			flush()
			out = append(out, cut(part, maxRunes)...)
			continue
		}

		if open && utf8.RuneCountInString(cur.Text)+utf8.RuneCountInString(cur.Sep)+n > maxRunes {
			flush()
		}

		if !open {
			cur, open = part, true
			continue
		}

		cur.Text += cur.Sep + part.Text
		cur.Sep = part.Sep
	}
	flush()

	return out
}

func cut(c Chunk, maxRunes int) []Chunk {
	var out []Chunk
	runes := []rune(c.Text)

	for len(runes) > maxRunes {
		at, skip := maxRunes, 0
		for i := maxRunes; i > 0; i-- {
			if unicode.IsSpace(runes[i]) {
				at, skip = i, 1
				break
			}
		}

		out = append(out, Chunk{
			Text: string(runes[:at]),
			Sep:  string(runes[at : at+skip]),
		})
		runes = runes[at+skip:]
	}

	return append(out, Chunk{Text: string(runes), Sep: c.Sep})
}
