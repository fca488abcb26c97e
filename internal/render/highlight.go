package render

import (
	"html"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Segment is a run of text that either matches the search term or not.
type Segment struct {
	Text  string
	Match bool
}

// Highlight splits text into segments marking every case-insensitive,
// non-overlapping occurrence of term. Both are NFC normalized first.
func Highlight(text, term string) []Segment {
	text = norm.NFC.String(text)
	term = strings.TrimSpace(norm.NFC.String(term))
	if term == "" || text == "" {
		if text == "" {
			return nil
		}
		return []Segment{{Text: text}}
	}

	src := []rune(text)
	folded := foldRunes(src)
	needle := foldRunes([]rune(term))

	var segs []Segment
	start := 0
	for i := 0; i+len(needle) <= len(folded); {
		if !hasPrefixAt(folded, needle, i) {
			i++
			continue
		}
		if i > start {
			segs = append(segs, Segment{Text: string(src[start:i])})
		}
		segs = append(segs, Segment{Text: string(src[i : i+len(needle)]), Match: true})
		i += len(needle)
		start = i
	}
	if start < len(src) {
		segs = append(segs, Segment{Text: string(src[start:])})
	}
	return segs
}

// HighlightHTML escapes text and wraps matches of term in <mark>. Matching
// happens on the raw text so a term never matches inside an entity.
func HighlightHTML(text, term string) string {
	var b strings.Builder
	for _, seg := range Highlight(text, term) {
		if seg.Match {
			b.WriteString("<mark>")
			b.WriteString(html.EscapeString(seg.Text))
			b.WriteString("</mark>")
			continue
		}
		b.WriteString(html.EscapeString(seg.Text))
	}
	return b.String()
}

// foldRunes lower-cases rune by rune so indices stay aligned with the source.
func foldRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func hasPrefixAt(s, prefix []rune, at int) bool {
	for j, r := range prefix {
		if s[at+j] != r {
			return false
		}
	}
	return true
}
