package vfs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatcherReceivesMatchingEvent(t *testing.T) {
	bus := newWatcherBus()
	w := bus.subscribe("/a")
	bus.emitChange(EventChange, "/a/b")

	ev, ok := w.Next()
	assert.True(t, ok)
	assert.Equal(t, EventChange, ev.EventType)
	assert.Equal(t, "/a/b", ev.Filename)
}

func TestWatcherIgnoresNonMatchingPrefix(t *testing.T) {
	bus := newWatcherBus()
	w := bus.subscribe("/a")
	bus.emitChange(EventChange, "/b/c")

	select {
	case <-w.events:
		t.Fatal("received event for a non-matching prefix")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestWatcherRootPrefixMatchesEverything(t *testing.T) {
	bus := newWatcherBus()
	w := bus.subscribe("/")
	bus.emitChange(EventRename, "/deeply/nested/path")

	ev, ok := w.Next()
	assert.True(t, ok)
	assert.Equal(t, "/deeply/nested/path", ev.Filename)
}

func TestWatcherCloseUnblocksNext(t *testing.T) {
	bus := newWatcherBus()
	w := bus.subscribe("/a")
	bus.unsubscribe("/a", w)

	_, ok := w.Next()
	assert.False(t, ok)
}

func TestPathMatchesWatch(t *testing.T) {
	assert.True(t, pathMatchesWatch("/a", "/a"))
	assert.True(t, pathMatchesWatch("/a", "/a/b"))
	assert.False(t, pathMatchesWatch("/a", "/ab"))
	assert.True(t, pathMatchesWatch("/", "/anything"))
}
