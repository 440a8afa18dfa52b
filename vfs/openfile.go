package vfs

import (
	"context"
	"sync"

	"github.com/keelfs/keelfs/vfs/vfserrors"
)

// handleState is the file-handle state machine of spec.md §4.8: Open
// (created by open/create) transitions to Closed (after close); every
// operation other than close fails EBADF once Closed, and close itself is
// idempotent from Closed.
type handleState int

const (
	stateOpen handleState = iota
	stateClosed
)

// OpenFile is a single open-file entry: a path, its parsed flags, a
// per-handle cursor position, and the backend Handle it wraps, per
// spec.md §3. Position is mutated by reads/writes that pass NoPosition
// as the explicit position (and by every write on an Appendable file).
type OpenFile struct {
	Path    string
	Flags   OpenFlags
	handle  Handle

	mu       sync.Mutex
	position int64
	state    handleState
}

// NoPosition is the "use and advance the cursor" sentinel passed as an
// explicit position to Read/Write.
const NoPosition int64 = -1

func newOpenFile(path string, flags OpenFlags, handle Handle) *OpenFile {
	return &OpenFile{Path: path, Flags: flags, handle: handle, state: stateOpen}
}

func (f *OpenFile) checkOpen() error {
	if f.state == stateClosed {
		return vfserrors.New(vfserrors.EBADF, f.Path).WithMessage("operation on closed handle")
	}
	return nil
}

// Read reads into buf at position (or the cursor, if position ==
// NoPosition), advancing the cursor when the cursor was used.
func (f *OpenFile) Read(ctx context.Context, buf []byte, position int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	if !f.Flags.Readable {
		return 0, vfserrors.New(vfserrors.EBADF, f.Path).WithMessage("file not opened for reading")
	}
	useCursor := position == NoPosition
	pos := position
	if useCursor {
		pos = f.position
	}
	n, err := f.handle.Read(ctx, buf, pos)
	if useCursor {
		f.position += int64(n)
	}
	return n, err
}

// Write writes data at position (or the cursor, appending instead if the
// handle is Appendable), advancing the cursor when the cursor was used.
func (f *OpenFile) Write(ctx context.Context, data []byte, position int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	if !f.Flags.Writable {
		return 0, vfserrors.New(vfserrors.EBADF, f.Path).WithMessage("file not opened for writing")
	}
	useCursor := position == NoPosition
	pos := position
	if f.Flags.Appendable {
		st, err := f.handle.Stat(ctx)
		if err != nil {
			return 0, err
		}
		pos = int64(st.Size)
	} else if useCursor {
		pos = f.position
	}
	n, err := f.handle.Write(ctx, data, pos)
	if useCursor || f.Flags.Appendable {
		f.position = pos + int64(n)
	}
	return n, err
}

// Stat, Chmod, Chown, Utimes, Truncate, Sync, Datasync all require the
// handle to still be Open, and otherwise pass straight through.

func (f *OpenFile) Stat(ctx context.Context) (*Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	return f.handle.Stat(ctx)
}

func (f *OpenFile) Chmod(ctx context.Context, mode uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return err
	}
	return f.handle.Chmod(ctx, mode)
}

func (f *OpenFile) Chown(ctx context.Context, uid, gid uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return err
	}
	return f.handle.Chown(ctx, uid, gid)
}

func (f *OpenFile) Utimes(ctx context.Context, atime, mtime int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return err
	}
	return f.handle.Utimes(ctx, atime, mtime)
}

func (f *OpenFile) Truncate(ctx context.Context, size int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return err
	}
	return f.handle.Truncate(ctx, size)
}

func (f *OpenFile) Sync(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return err
	}
	return f.handle.Sync(ctx)
}

func (f *OpenFile) Datasync(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return err
	}
	return f.handle.Datasync(ctx)
}

// Close is idempotent: closing an already-Closed handle is a no-op,
// matching the state machine's terminal-state semantics.
func (f *OpenFile) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == stateClosed {
		return nil
	}
	f.state = stateClosed
	return f.handle.Close(ctx)
}
