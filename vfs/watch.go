package vfs

import (
	"strings"
	"sync"
)

// WatchEventType is the event kind delivered to watchers, per spec.md §6's
// watch event shape.
type WatchEventType string

const (
	EventRename WatchEventType = "rename"
	EventChange WatchEventType = "change"
)

// WatchEvent is delivered to every subscriber whose watched prefix matches
// the event's path.
type WatchEvent struct {
	EventType WatchEventType
	Filename  string
}

// Watcher is the async-iterator-shaped subscription handle returned by
// Watch. There is no real inotify/kqueue backing this -- the VFS is a
// virtual namespace, so "watching" means subscribing to this process's own
// emitted change events, not asking the OS for real ones. This is why no
// fsnotify-style library is wired here even though the teacher uses one
// (backend/local's changenotify_windows.go) for its real, OS-backed
// counterpart: fsnotify needs a live kernel fd, which a virtual mount point
// does not have.
type Watcher struct {
	events chan WatchEvent
	done   chan struct{}
	once   sync.Once
}

// Next blocks until the next event arrives or the watcher is closed,
// mirroring the async-iterator protocol's next() -> {value, done}.
func (w *Watcher) Next() (WatchEvent, bool) {
	select {
	case ev, ok := <-w.events:
		if !ok {
			return WatchEvent{}, false
		}
		return ev, true
	case <-w.done:
		return WatchEvent{}, false
	}
}

// Close implements the async iterator's return()/throw(): it unblocks any
// waiter on Next with done=true. Idempotent.
func (w *Watcher) Close() {
	w.once.Do(func() { close(w.done) })
}

// watcherBus is the process-wide map from watched path prefix to its
// subscribers.
type watcherBus struct {
	mu          sync.Mutex
	subscribers map[string][]*Watcher
}

func newWatcherBus() *watcherBus {
	return &watcherBus{subscribers: make(map[string][]*Watcher)}
}

// subscribe registers a new Watcher for prefix and returns it.
func (b *watcherBus) subscribe(prefix string) *Watcher {
	w := &Watcher{events: make(chan WatchEvent, 16), done: make(chan struct{})}
	b.mu.Lock()
	b.subscribers[prefix] = append(b.subscribers[prefix], w)
	b.mu.Unlock()
	return w
}

// unsubscribe removes w from prefix's subscriber list and closes it.
func (b *watcherBus) unsubscribe(prefix string, w *Watcher) {
	b.mu.Lock()
	list := b.subscribers[prefix]
	for i, s := range list {
		if s == w {
			b.subscribers[prefix] = append(list[:i], list[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	w.Close()
}

// emitChange delivers {eventType, filename} to every subscriber whose
// watched prefix matches path, per spec.md §4.8. A non-blocking send is
// used so a slow or abandoned watcher can never stall the dispatcher; the
// channel's buffer absorbs ordinary bursts and a full buffer just drops
// the event for that one subscriber, same trade-off the teacher's own
// change-notify callback model makes (best-effort delivery, not a queue
// with backpressure).
func (b *watcherBus) emitChange(eventType WatchEventType, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for prefix, list := range b.subscribers {
		if !pathMatchesWatch(prefix, path) {
			continue
		}
		for _, w := range list {
			select {
			case w.events <- WatchEvent{EventType: eventType, Filename: path}:
			default:
			}
		}
	}
}

func pathMatchesWatch(prefix, path string) bool {
	if prefix == path {
		return true
	}
	if prefix == "/" {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}
