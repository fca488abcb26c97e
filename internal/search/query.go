// Package search turns keystrokes into data source queries: the result cache,
// the dispatcher, the debouncer and the pipeline that feeds the renderer.
package search

import (
	"strings"

	"ducktorrents/internal/models"

	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultLimit bounds the "top torrents" view shown for empty input.
	DefaultLimit = 5
	// SearchLimit bounds the rows returned for a search term.
	SearchLimit = 50
)

// Query is a normalized search request.
type Query struct {
	// Term is the trimmed input as typed, used for highlighting.
	Term string
	// Key is the folded term; it keys the result cache and feeds the matcher.
	Key string
}

// IsDefault reports whether the query selects the default view.
func (q Query) IsDefault() bool {
	return q.Key == ""
}

// ParseQuery normalizes raw input.
func ParseQuery(text string) Query {
	term := strings.TrimSpace(norm.NFC.String(text))
	return Query{Term: term, Key: models.FoldName(term)}
}

// NormalizeKey returns the result cache key for raw input.
func NormalizeKey(text string) string {
	return ParseQuery(text).Key
}
