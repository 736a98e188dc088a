// Package preserve cuts protected substrings (dosages, drug codes, ...) out of
// a text so that only the remaining parts are sent to a translation backend.
package preserve

import (
	"regexp"
	"sort"
	"strings"
)

// Item is a protected substring and the index of the part it precedes.
type Item struct {
	Text  string
	Index int
}

// Cut removes every match of exprs from text. Overlapping matches are merged.
//
//	parts, items := preserve.Cut("Take 500 mg twice a day.", regexp.MustCompile(`\d+ ?mg`))
//	// parts: ["Take ", " twice a day."]
//	// items: [{"500 mg" 1}]
//
// [Join] puts the text back together after parts have been translated.
func Cut(text string, exprs ...*regexp.Regexp) (parts []string, items []Item) {
	matches := matchRanges(text, exprs)
	if len(matches) == 0 {
		return []string{text}, nil
	}

	var start int
	for _, m := range matches {
		if before := text[start:m[0]]; before != "" {
			parts = append(parts, before)
		}
		items = append(items, Item{Text: text[m[0]:m[1]], Index: len(parts)})
		start = m[1]
	}

	if start < len(text) {
		parts = append(parts, text[start:])
	}

	return parts, items
}

// Join reinserts items into parts. Items with an index >= len(parts) are
// appended at the end.
func Join(parts []string, items []Item) string {
	var b strings.Builder
	next := 0
	for i, part := range parts {
		for next < len(items) && items[next].Index == i {
			b.WriteString(items[next].Text)
			next++
		}
		b.WriteString(part)
	}
	for ; next < len(items); next++ {
		b.WriteString(items[next].Text)
	}
	return b.String()
}

func matchRanges(text string, exprs []*regexp.Regexp) [][2]int {
	var ranges [][2]int
	for _, expr := range exprs {
		if expr == nil {
			continue
		}
		for _, m := range expr.FindAllStringIndex(text, -1) {
			if m[0] == m[1] {
				continue
			}
			ranges = append(ranges, [2]int{m[0], m[1]})
		}
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })

	var merged [][2]int
	for _, r := range ranges {
		if n := len(merged); n > 0 && r[0] <= merged[n-1][1] {
			if r[1] > merged[n-1][1] {
				merged[n-1][1] = r[1]
			}
			continue
		}
		merged = append(merged, r)
	}

	return merged
}
