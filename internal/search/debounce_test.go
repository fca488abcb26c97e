package search

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fired struct {
	mu    sync.Mutex
	texts []string
}

func (f *fired) add(text string) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
}

func (f *fired) get() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	var got fired
	d := NewDebouncer(40*time.Millisecond, got.add)

	d.Input("u")
	d.Input("ub")
	d.Input("ubu")
	require.Equal(t, StatePending, d.State())

	require.Eventually(t, func() bool { return len(got.get()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	require.Equal(t, []string{"ubu"}, got.get())
	require.Equal(t, StateIdle, d.State())
}

func TestDebouncer_CommitBypassesDelay(t *testing.T) {
	var got fired
	d := NewDebouncer(time.Hour, got.add)

	d.Input("deb")
	d.Commit("debian")

	require.Equal(t, []string{"debian"}, got.get())
	require.Equal(t, StateIdle, d.State())
}

func TestDebouncer_CommitCancelsPending(t *testing.T) {
	var got fired
	d := NewDebouncer(30*time.Millisecond, got.add)

	d.Input("fed")
	d.Commit("fedora")
	time.Sleep(80 * time.Millisecond)

	require.Equal(t, []string{"fedora"}, got.get())
}

func TestDebouncer_StopDropsPendingAndLaterInput(t *testing.T) {
	var got fired
	d := NewDebouncer(20*time.Millisecond, got.add)

	d.Input("arch")
	d.Stop()
	d.Input("mint")
	d.Commit("mint")
	time.Sleep(60 * time.Millisecond)

	require.Empty(t, got.get())
	require.Equal(t, StateIdle, d.State())
}
