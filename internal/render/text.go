package render

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// SanitizeText replaces control and bidi formatting runes so row text cannot
// inject terminal escape sequences.
func SanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return '�'
		}
		return r
	}, s)
}

// Truncate shortens s to width display columns, ending with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// StatsLine is the one-line summary of a card below its name.
func StatsLine(c Card) string {
	line := fmt.Sprintf("%s GB  S: %d  L: %d", c.SizeGB, c.Seeders, c.Leechers)
	if c.ShowCompleted() {
		line += fmt.Sprintf("  C: %d", c.Completed)
	}
	return line
}

// WriteText renders v as plain terminal text, names cut to width columns.
// Matches are wrapped in [ ].
func WriteText(w io.Writer, v View, width int) error {
	if width <= 0 {
		width = 80
	}
	var b strings.Builder
	if v.Empty {
		b.WriteString(EmptyText)
		b.WriteByte('\n')
		_, err := io.WriteString(w, b.String())
		return err
	}
	b.WriteString(v.Meta)
	b.WriteString("\n\n")
	for _, c := range v.Cards {
		var name strings.Builder
		for _, seg := range c.Segments {
			text := SanitizeText(seg.Text)
			if seg.Match {
				name.WriteString("[" + text + "]")
			} else {
				name.WriteString(text)
			}
		}
		b.WriteString(Truncate(name.String(), width))
		b.WriteByte('\n')
		b.WriteString("  ")
		b.WriteString(StatsLine(c))
		b.WriteByte('\n')
		b.WriteString("  ")
		b.WriteString(c.Magnet)
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
