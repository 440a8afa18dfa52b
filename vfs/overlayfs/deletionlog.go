package overlayfs

import (
	"context"
	"strings"
	"sync"

	"github.com/keelfs/keelfs/vfs"
)

const deletionLogPath = "/.deleted"

// deletionLog is the in-memory view of upper's /.deleted file, per
// spec.md §3's "Deletion log (overlay)". Writes are coalesced: a flush
// already in flight sets pendingNeedsUpdate instead of starting a second
// one; the in-flight flush re-runs once more when it finishes if that
// flag got set. An error from a flush is latched; the next public Fs call
// takes it and logs it at error level, and that call then proceeds
// without returning it.
type deletionLog struct {
	mu      sync.Mutex
	deleted map[string]bool

	flushing           bool
	pendingNeedsUpdate bool
	latchedErr         error
}

// loadDeletionLog parses upper's /.deleted file. A missing file is
// treated as an empty log, per spec.md §4.7.
func loadDeletionLog(ctx context.Context, upper vfs.Backend) (*deletionLog, error) {
	dl := &deletionLog{deleted: make(map[string]bool)}
	exists, err := upper.Exists(ctx, deletionLogPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		return dl, nil
	}
	st, err := upper.Stat(ctx, deletionLogPath)
	if err != nil {
		return nil, err
	}
	data, err := readLowerFile(ctx, upper, deletionLogPath, st.Size)
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "d") {
			dl.deleted[line[1:]] = true
		}
	}
	return dl, nil
}

func (dl *deletionLog) has(path string) bool {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.deleted[path]
}

func (dl *deletionLog) add(path string) {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.deleted[path] = true
}

func (dl *deletionLog) remove(path string) {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	delete(dl.deleted, path)
}

// takeLatchedError returns and clears any error latched by a previous
// flush. Its only caller, Fs.drainLoggerError, logs the error and does not
// return it to the Fs caller.
func (dl *deletionLog) takeLatchedError() error {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	err := dl.latchedErr
	dl.latchedErr = nil
	return err
}

// scheduleFlush serializes the log onto upper. If a flush is already in
// flight it marks pendingNeedsUpdate and returns immediately; the
// in-flight flush will notice the flag and re-run once it completes.
func (dl *deletionLog) scheduleFlush(ctx context.Context, upper vfs.Backend) error {
	dl.mu.Lock()
	if dl.flushing {
		dl.pendingNeedsUpdate = true
		dl.mu.Unlock()
		return nil
	}
	dl.flushing = true
	dl.mu.Unlock()

	go dl.runFlushLoop(ctx, upper)
	return nil
}

func (dl *deletionLog) runFlushLoop(ctx context.Context, upper vfs.Backend) {
	for {
		dl.mu.Lock()
		snapshot := dl.serializeLocked()
		dl.mu.Unlock()

		err := upper.Sync(ctx, deletionLogPath, snapshot, nil)

		dl.mu.Lock()
		if err != nil {
			dl.latchedErr = err
		}
		if dl.pendingNeedsUpdate {
			dl.pendingNeedsUpdate = false
			dl.mu.Unlock()
			continue
		}
		dl.flushing = false
		dl.mu.Unlock()
		return
	}
}

func (dl *deletionLog) serializeLocked() []byte {
	var b strings.Builder
	for path := range dl.deleted {
		b.WriteByte('d')
		b.WriteString(path)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
