package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Sink receives the outcome of the most recent search.
type Sink interface {
	Render(res Result)
	Failed(term string, err error)
}

// Pipeline connects input events to the dispatcher and the sink. Every dispatch
// gets a sequence number; a result that arrives after a newer dispatch started
// is dropped instead of overwriting what is shown.
type Pipeline struct {
	dispatcher *Dispatcher
	sink       Sink
	debouncer  *Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool

	seq       atomic.Uint64
	deliverMu sync.Mutex
	discarded atomic.Int64
}

// NewPipeline creates a pipeline with the given debounce delay.
func NewPipeline(ctx context.Context, d *Dispatcher, sink Sink, delay time.Duration) *Pipeline {
	ctx, cancel := context.WithCancel(ctx)
	p := &Pipeline{dispatcher: d, sink: sink, ctx: ctx, cancel: cancel}
	p.debouncer = NewDebouncer(delay, p.dispatch)
	return p
}

// Input handles a keystroke that changed the query text.
func (p *Pipeline) Input(text string) {
	p.debouncer.Input(text)
}

// Commit searches text now, bypassing the debounce.
func (p *Pipeline) Commit(text string) {
	p.debouncer.Commit(text)
}

// Debouncer exposes the input state machine.
func (p *Pipeline) Debouncer() *Debouncer {
	return p.debouncer
}

// Discarded counts results dropped because a newer search had started.
func (p *Pipeline) Discarded() int64 {
	return p.discarded.Load()
}

// Wait blocks until every dispatched search has been delivered or dropped.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Close stops accepting input and waits for in-flight searches.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.debouncer.Stop()
	p.cancel()
	p.wg.Wait()
}

func (p *Pipeline) dispatch(text string) {
	// a commit racing Close must not Add once Wait has started
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	n := p.seq.Add(1)
	p.wg.Add(1)
	p.mu.Unlock()
	go func() {
		defer p.wg.Done()
		res, err := p.dispatcher.Search(p.ctx, text)

		p.deliverMu.Lock()
		defer p.deliverMu.Unlock()
		if n != p.seq.Load() {
			p.discarded.Add(1)
			return
		}
		if err != nil {
			if errors.Is(err, context.Canceled) && p.ctx.Err() != nil {
				return
			}
			p.sink.Failed(ParseQuery(text).Term, err)
			return
		}
		p.sink.Render(res)
	}()
}
