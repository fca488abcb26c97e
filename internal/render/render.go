// Package render projects result rows and the active search term into view
// models, and writes them as HTML fragments or terminal text.
package render

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"ducktorrents/internal/models"
)

// EmptyText is shown in place of cards when there are no rows.
const EmptyText = "No torrents found"

// Card is the view model of one result row.
type Card struct {
	Name      string
	Segments  []Segment
	InfoHash  string
	SizeGB    string
	Seeders   int64
	Leechers  int64
	Completed int64
	Magnet    string
}

// ShowCompleted reports whether the completed count is worth displaying.
func (c Card) ShowCompleted() bool {
	return c.Completed > 0
}

// View replaces whatever was rendered before.
type View struct {
	Empty bool
	Meta  string
	Term  string
	Cards []Card
}

// Build derives the view for rows. Meta text is empty for an empty row-set.
func Build(rows []models.Torrent, duration time.Duration, isDefaultView bool, term string) View {
	v := View{Term: term}
	if len(rows) == 0 {
		v.Empty = true
		return v
	}
	v.Meta = MetaText(len(rows), duration, isDefaultView)

	// the default view is unfiltered, nothing to highlight
	if isDefaultView {
		term = ""
	}
	v.Cards = make([]Card, len(rows))
	for i, t := range rows {
		v.Cards[i] = Card{
			Name:      t.Name,
			Segments:  Highlight(t.Name, term),
			InfoHash:  t.InfoHash,
			SizeGB:    FormatGB(t.SizeBytes),
			Seeders:   t.Seeders,
			Leechers:  t.Leechers,
			Completed: t.Completed,
			Magnet:    MagnetLink(t.InfoHash, t.Name),
		}
	}
	return v
}

// MetaText is the summary line shown above the cards.
func MetaText(count int, duration time.Duration, isDefaultView bool) string {
	if isDefaultView {
		return fmt.Sprintf("Top %d most downloaded torrents", count)
	}
	ms := float64(duration) / float64(time.Millisecond)
	return fmt.Sprintf("%d results found in %.2fms", count, ms)
}

// FormatGB converts bytes to gigabytes (1024^3) with two decimals.
func FormatGB(sizeBytes uint64) string {
	return fmt.Sprintf("%.2f", float64(sizeBytes)/(1<<30))
}

// url.QueryEscape differs from encodeURIComponent in these sequences only.
var componentFixer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent escapes s like a URI component: spaces become %20 and only
// A-Z a-z 0-9 - _ . ! ~ * ' ( ) stay literal.
func EncodeComponent(s string) string {
	return componentFixer.Replace(url.QueryEscape(s))
}

// MagnetLink builds magnet:?xt=urn:btih:<infohash>&dn=<name>.
func MagnetLink(infoHash, name string) string {
	return "magnet:?xt=urn:btih:" + infoHash + "&dn=" + EncodeComponent(name)
}
