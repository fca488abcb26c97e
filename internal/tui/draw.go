package tui

import (
	"ducktorrents/internal/render"
	"ducktorrents/internal/session"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const (
	title       = " DuckTorrents "
	searchLabel = "Search: "
	cardsTop    = 4
	cardHeight  = 4
)

var (
	titleStyle  = tcell.StyleDefault.Bold(true)
	labelStyle  = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	metaStyle   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	matchStyle  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	magnetStyle = tcell.StyleDefault.Foreground(tcell.ColorBlue)
)

func badgeStyle(status string) tcell.Style {
	switch status {
	case session.StatusIndexLoaded:
		return tcell.StyleDefault.Background(tcell.ColorGreen).Foreground(tcell.ColorBlack)
	case session.StatusCSVFallback, session.StatusInitializing:
		return tcell.StyleDefault.Background(tcell.ColorYellow).Foreground(tcell.ColorBlack)
	}
	return tcell.StyleDefault.Background(tcell.ColorRed).Foreground(tcell.ColorWhite)
}

func (a *App) draw() {
	a.screen.Clear()
	w, h := a.screen.Size()

	x := drawText(a.screen, 0, 0, w, title, titleStyle)
	status := a.status
	if a.session != nil {
		status = a.session.Status()
	}
	if status != "" {
		badge := " " + status + " "
		bx := w - runewidth.StringWidth(badge)
		if bx > x {
			drawText(a.screen, bx, 0, w, badge, badgeStyle(status))
		}
	}

	x = drawText(a.screen, 0, 1, w, searchLabel, labelStyle)
	x = drawText(a.screen, x, 1, w, render.SanitizeText(a.Query()), tcell.StyleDefault)
	if x < w {
		a.screen.ShowCursor(x, 1)
	}

	if a.notice != "" {
		drawText(a.screen, 0, 2, w, render.Truncate(a.notice, w), metaStyle)
	}

	if !a.shown {
		a.screen.Show()
		return
	}
	if a.view.Empty {
		drawText(a.screen, 0, cardsTop, w, render.EmptyText, tcell.StyleDefault)
		a.screen.Show()
		return
	}
	drawText(a.screen, 0, 3, w, a.view.Meta, metaStyle)
	for i, c := range a.view.Cards {
		y := cardsTop + i*cardHeight
		if y+2 >= h {
			break
		}
		drawCard(a.screen, y, w, c)
	}
	a.screen.Show()
}

func drawCard(s tcell.Screen, y, w int, c render.Card) {
	x := 0
	for _, seg := range c.Segments {
		style := tcell.StyleDefault
		if seg.Match {
			style = matchStyle
		}
		x = drawText(s, x, y, w, render.SanitizeText(seg.Text), style)
	}
	drawText(s, 2, y+1, w, render.StatsLine(c), metaStyle)
	drawText(s, 2, y+2, w, render.Truncate(c.Magnet, w-2), magnetStyle)
}

// drawText writes text from x, stopping at maxX, and returns the next column.
func drawText(s tcell.Screen, x, y, maxX int, text string, style tcell.Style) int {
	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if rw <= 0 {
			continue
		}
		if x+rw > maxX {
			break
		}
		s.SetContent(x, y, r, nil, style)
		x += rw
	}
	return x
}
