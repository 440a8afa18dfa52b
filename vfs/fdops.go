package vfs

import "context"

// Close releases fd. Idempotent at the VFS level only in the sense that a
// second Close on the same fd fails EBADF (the fd was freed); the
// underlying Handle's own Close is idempotent (spec.md §4.8 state
// machine), it's the FD table slot that is single-use.
func (v *VFS) Close(ctx context.Context, fd int32) error {
	of, err := v.fds.get(fd)
	if err != nil {
		return err
	}
	v.fds.remove(fd)
	return of.Close(ctx)
}

// Read reads up to len(buf) bytes from fd at position (NoPosition to use
// and advance the per-handle cursor).
func (v *VFS) Read(ctx context.Context, fd int32, buf []byte, position int64) (int, error) {
	of, err := v.fds.get(fd)
	if err != nil {
		return 0, err
	}
	return of.Read(ctx, buf, position)
}

// Write writes data to fd at position (NoPosition to use and advance the
// per-handle cursor, or to append when fd was opened with an appendable
// flag).
func (v *VFS) Write(ctx context.Context, fd int32, data []byte, position int64) (int, error) {
	of, err := v.fds.get(fd)
	if err != nil {
		return 0, err
	}
	n, err := of.Write(ctx, data, position)
	if err == nil {
		v.watchers.emitChange(EventChange, of.Path)
	}
	return n, err
}

// Readv reads into each buffer in bufs in turn, starting at position (or
// the cursor), returning the total bytes read.
func (v *VFS) Readv(ctx context.Context, fd int32, bufs [][]byte, position int64) (int, error) {
	of, err := v.fds.get(fd)
	if err != nil {
		return 0, err
	}
	total := 0
	pos := position
	for _, buf := range bufs {
		n, err := of.Read(ctx, buf, pos)
		total += n
		if pos != NoPosition {
			pos += int64(n)
		}
		if err != nil {
			return total, err
		}
		if n < len(buf) {
			break
		}
	}
	return total, nil
}

// Writev writes each buffer in bufs in turn, starting at position (or the
// cursor), returning the total bytes written.
func (v *VFS) Writev(ctx context.Context, fd int32, bufs [][]byte, position int64) (int, error) {
	of, err := v.fds.get(fd)
	if err != nil {
		return 0, err
	}
	total := 0
	pos := position
	for _, buf := range bufs {
		n, err := of.Write(ctx, buf, pos)
		total += n
		if pos != NoPosition {
			pos += int64(n)
		}
		if err != nil {
			return total, err
		}
	}
	if total > 0 {
		v.watchers.emitChange(EventChange, of.Path)
	}
	return total, nil
}

// Fstat returns the status of the file backing fd.
func (v *VFS) Fstat(ctx context.Context, fd int32) (*Stat, error) {
	of, err := v.fds.get(fd)
	if err != nil {
		return nil, err
	}
	return of.Stat(ctx)
}

// Ftruncate truncates the file backing fd to size.
func (v *VFS) Ftruncate(ctx context.Context, fd int32, size int64) error {
	of, err := v.fds.get(fd)
	if err != nil {
		return err
	}
	err = of.Truncate(ctx, size)
	if err == nil {
		v.watchers.emitChange(EventChange, of.Path)
	}
	return err
}

// Fsync flushes fd's content and metadata to the backend.
func (v *VFS) Fsync(ctx context.Context, fd int32) error {
	of, err := v.fds.get(fd)
	if err != nil {
		return err
	}
	return of.Sync(ctx)
}

// Fdatasync flushes fd's content, but not necessarily its metadata.
func (v *VFS) Fdatasync(ctx context.Context, fd int32) error {
	of, err := v.fds.get(fd)
	if err != nil {
		return err
	}
	return of.Datasync(ctx)
}

// Fchown sets fd's owning uid/gid.
func (v *VFS) Fchown(ctx context.Context, fd int32, uid, gid uint32) error {
	of, err := v.fds.get(fd)
	if err != nil {
		return err
	}
	return of.Chown(ctx, uid, gid)
}

// Fchmod sets fd's permission bits.
func (v *VFS) Fchmod(ctx context.Context, fd int32, mode uint32) error {
	of, err := v.fds.get(fd)
	if err != nil {
		return err
	}
	return of.Chmod(ctx, mode)
}

// Futimes sets fd's access/modification times.
func (v *VFS) Futimes(ctx context.Context, fd int32, atime, mtime int64) error {
	of, err := v.fds.get(fd)
	if err != nil {
		return err
	}
	return of.Utimes(ctx, atime, mtime)
}
