// Package tui is the terminal page of the search front end.
package tui

import (
	"context"
	"fmt"
	"sync"

	"ducktorrents/internal/assetcache"
	"ducktorrents/internal/render"
	"ducktorrents/internal/search"

	"github.com/gdamore/tcell/v2"
)

// Session is what the page drives.
type Session interface {
	Input(text string)
	Commit(text string)
	Status() string
	Reload(ctx context.Context) error
	Maintenance(ctx context.Context, action string) (*assetcache.Reply, error)
}

// events posted to the screen from other goroutines
type (
	resultEvent  struct{ res search.Result }
	failureEvent struct {
		term string
		err  error
	}
	noticeEvent struct {
		text    string
		refresh bool
	}
	quitEvent struct{}
)

// App owns the screen. Everything but Render, Failed and Notify runs on the
// event loop goroutine.
type App struct {
	screen  tcell.Screen
	session Session
	ctx     context.Context

	query  []rune
	view   render.View
	shown  bool
	notice string
	// status is shown while there is no session to ask
	status string

	bg sync.WaitGroup
}

// New creates the page on an initialized screen.
func New(screen tcell.Screen) *App {
	return &App{screen: screen, ctx: context.Background()}
}

// Render implements search.Sink.
func (a *App) Render(res search.Result) {
	a.post(resultEvent{res: res})
}

// Failed implements search.Sink.
func (a *App) Failed(term string, err error) {
	a.post(failureEvent{term: term, err: err})
}

// Notify shows text in the notice line. With refresh set the current query
// is searched again, which is what a replaced snapshot needs.
func (a *App) Notify(text string, refresh bool) {
	a.post(noticeEvent{text: text, refresh: refresh})
}

func (a *App) post(data interface{}) {
	_ = a.screen.PostEvent(tcell.NewEventInterrupt(data))
}

// ShowStatus draws the page with status and no session, while one is being set up.
func (a *App) ShowStatus(status string) {
	a.status = status
	a.draw()
}

// RunFailed shows a failed initialization. Search stays disabled; the page
// only waits for the user to quit.
func (a *App) RunFailed(ctx context.Context, status string, err error) error {
	a.status = status
	a.notice = "Search is disabled: " + err.Error()
	stop := context.AfterFunc(ctx, func() { a.post(quitEvent{}) })
	defer stop()

	a.draw()
	for {
		switch ev := a.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				return nil
			}
		case *tcell.EventInterrupt:
			if _, ok := ev.Data().(quitEvent); ok {
				return ctx.Err()
			}
		case *tcell.EventResize:
			a.screen.Sync()
		}
		a.draw()
	}
}

// Query returns the text in the search box.
func (a *App) Query() string {
	return string(a.query)
}

// Run shows the default view and handles events until the user quits or ctx
// is done. The caller keeps ownership of the screen.
func (a *App) Run(ctx context.Context, s Session) error {
	a.ctx = ctx
	a.session = s
	stop := context.AfterFunc(ctx, func() { a.post(quitEvent{}) })
	defer stop()
	defer a.bg.Wait()

	s.Commit(a.Query())
	a.draw()
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if a.handleEvent(ev) {
			return ctx.Err()
		}
		a.draw()
	}
}

// handleEvent applies one event and reports whether the page should close.
func (a *App) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventKey:
		return a.handleKey(ev)
	case *tcell.EventInterrupt:
		switch data := ev.Data().(type) {
		case resultEvent:
			a.view = render.Build(data.res.Rows, data.res.Duration, data.res.IsDefaultView, data.res.Term)
			a.shown = true
		case failureEvent:
			a.notice = fmt.Sprintf("Search for %q failed: %v", data.term, data.err)
		case noticeEvent:
			a.notice = data.text
			if data.refresh {
				a.session.Commit(a.Query())
			}
		case quitEvent:
			return true
		}
	}
	return false
}

func (a *App) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyEnter:
		a.session.Commit(a.Query())
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(a.query) > 0 {
			a.query = a.query[:len(a.query)-1]
			a.session.Input(a.Query())
		}
	case tcell.KeyCtrlU:
		if len(a.query) > 0 {
			a.query = a.query[:0]
			a.session.Input("")
		}
	case tcell.KeyCtrlR:
		a.notice = "Reloading snapshot..."
		a.background(func(ctx context.Context) {
			if err := a.session.Reload(ctx); err != nil {
				a.Notify("Reload failed: "+err.Error(), false)
				return
			}
			a.Notify("Snapshot reloaded", true)
		})
	case tcell.KeyCtrlX:
		a.background(func(ctx context.Context) {
			reply, err := a.session.Maintenance(ctx, assetcache.ActionClearCache)
			if err != nil || reply == nil || reply.Success == nil || !*reply.Success {
				a.Notify(fmt.Sprintf("Clearing caches failed: %v", err), false)
				return
			}
			a.Notify("Caches cleared", false)
		})
	case tcell.KeyCtrlS:
		a.background(func(ctx context.Context) {
			reply, err := a.session.Maintenance(ctx, assetcache.ActionGetCacheSize)
			if err != nil || reply == nil || reply.CacheSize == nil {
				a.Notify(fmt.Sprintf("Reading cache size failed: %v", err), false)
				return
			}
			a.Notify(fmt.Sprintf("%s holds %d file(s)", reply.CacheName, *reply.CacheSize), false)
		})
	case tcell.KeyRune:
		a.query = append(a.query, ev.Rune())
		a.session.Input(a.Query())
	}
	return false
}

// background runs slow session calls off the event loop.
func (a *App) background(fn func(ctx context.Context)) {
	a.bg.Add(1)
	go func() {
		defer a.bg.Done()
		fn(a.ctx)
	}()
}
