package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerFiresAfterWindow(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "a.md", Operation: OpModify})

	select {
	case evt := <-d.Output():
		assert.Equal(t, "a.md", evt.Path)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("debouncer never fired")
	}
}

func TestDebouncerResetsTimerOnRepeatedAdd(t *testing.T) {
	d := NewDebouncer(40 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "a.md", Operation: OpModify, Timestamp: time.Unix(1, 0)})
	time.Sleep(20 * time.Millisecond)
	d.Add(FileEvent{Path: "a.md", Operation: OpModify, Timestamp: time.Unix(2, 0)})

	select {
	case evt := <-d.Output():
		assert.Equal(t, time.Unix(2, 0), evt.Timestamp, "last-write-wins: the later event should fire")
	case <-time.After(300 * time.Millisecond):
		t.Fatal("debouncer never fired")
	}
}

func TestDebouncerStopClosesOutputAndDropsPending(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	d.Add(FileEvent{Path: "a.md"})
	d.Stop()

	_, ok := <-d.Output()
	require.False(t, ok, "output channel should be closed after Stop")
}

func TestDebouncerStopIsIdempotent(t *testing.T) {
	d := NewDebouncer(time.Millisecond)
	d.Stop()
	require.NotPanics(t, d.Stop)
}
