// Package memfs is an in-memory reference implementation of vfs.Backend,
// grounded on backend/local.go's permission/mode/time handling but backed
// by a node tree instead of real syscalls, since concrete leaf backends
// are this module's named non-goal (spec.md §1) -- the VFS and overlay
// still need at least one concrete backend to dispatch to, for tests and
// the CLI demo.
package memfs

import (
	"context"
	"sync"

	"github.com/keelfs/keelfs/vfs"
	"github.com/keelfs/keelfs/vfs/vfserrors"
)

// Options configures a Fs.
type Options struct {
	// Name identifies this backend instance in Metadata().
	Name string
}

// Validate fills in defaults.
func (o *Options) Validate() error {
	if o.Name == "" {
		o.Name = "memfs"
	}
	return nil
}

type node struct {
	stat    vfs.Stat
	data    []byte // regular files
	target  string // symlinks
	entries map[string]*node
}

func newDirNode(mode uint32, info vfs.CreateInfo, now int64) *node {
	return &node{
		stat: vfs.Stat{
			Mode: vfs.S_IFDIR | mode, UID: info.UID, GID: info.GID,
			Atime: now, Mtime: now, Ctime: now, Birthtime: now, Nlink: 2,
		},
		entries: make(map[string]*node),
	}
}

// Fs is an in-memory Backend.
type Fs struct {
	opt Options

	mu    sync.RWMutex
	root  *node
	inode uint64
	clock func() int64
}

// New constructs an empty in-memory Fs rooted at "/". clock supplies the
// current time in milliseconds since epoch for every stat/timestamp
// field; pass a fixed function in tests for deterministic output.
func New(opt Options, clock func() int64) (*Fs, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	now := clock()
	f := &Fs{opt: opt, clock: clock}
	f.root = newDirNode(0o777, vfs.CreateInfo{}, now)
	f.root.stat.Ino = f.nextIno()
	return f, nil
}

func (f *Fs) nextIno() uint64 {
	f.inode++
	return f.inode
}

var _ vfs.Backend = (*Fs)(nil)

func (f *Fs) Ready(ctx context.Context) error { return nil }

func (f *Fs) Metadata() vfs.Metadata {
	return vfs.Metadata{Name: f.opt.Name}
}

// splitPath returns the path's segments, e.g. "/a/b" -> ["a", "b"],
// "/" -> nil.
func splitPath(path string) []string {
	if path == "/" || path == "" {
		return nil
	}
	segs := []string{}
	start := 1
	for i := 1; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			segs = append(segs, path[start:i])
			start = i + 1
		}
	}
	return segs
}

// lookup returns the node at path, or ENOENT.
func (f *Fs) lookup(path string) (*node, error) {
	n := f.root
	for _, seg := range splitPath(path) {
		if n.entries == nil {
			return nil, vfserrors.New(vfserrors.ENOTDIR, path)
		}
		child, ok := n.entries[seg]
		if !ok {
			return nil, vfserrors.New(vfserrors.ENOENT, path)
		}
		n = child
	}
	return n, nil
}

// lookupParent returns the parent node and base name of path. path must
// not be "/".
func (f *Fs) lookupParent(path string) (*node, string, error) {
	segs := splitPath(path)
	base := segs[len(segs)-1]
	n := f.root
	for _, seg := range segs[:len(segs)-1] {
		if n.entries == nil {
			return nil, "", vfserrors.New(vfserrors.ENOTDIR, path)
		}
		child, ok := n.entries[seg]
		if !ok {
			return nil, "", vfserrors.New(vfserrors.ENOENT, path)
		}
		n = child
	}
	return n, base, nil
}

func statCopy(n *node) *vfs.Stat {
	st := n.stat
	st.Size = uint64(len(n.data))
	if n.entries != nil {
		st.Size = uint64(len(n.entries))
	}
	return &st
}

func (f *Fs) Stat(ctx context.Context, path string) (*vfs.Stat, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n, err := f.lookup(path)
	if err != nil {
		return nil, err
	}
	return statCopy(n), nil
}

func (f *Fs) Exists(ctx context.Context, path string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, err := f.lookup(path)
	if err != nil {
		if vfserrors.Is(err, vfserrors.ENOENT) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (f *Fs) Readdir(ctx context.Context, path string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n, err := f.lookup(path)
	if err != nil {
		return nil, err
	}
	if n.entries == nil {
		return nil, vfserrors.New(vfserrors.ENOTDIR, path)
	}
	names := make([]string, 0, len(n.entries))
	for name := range n.entries {
		names = append(names, name)
	}
	return names, nil
}

func (f *Fs) Mkdir(ctx context.Context, path string, mode uint32, info vfs.CreateInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent, base, err := f.lookupParent(path)
	if err != nil {
		return err
	}
	if parent.entries == nil {
		return vfserrors.New(vfserrors.ENOTDIR, path)
	}
	if _, exists := parent.entries[base]; exists {
		return vfserrors.New(vfserrors.EEXIST, path)
	}
	child := newDirNode(mode&vfs.PermMask, info, f.clock())
	child.stat.Ino = f.nextIno()
	parent.entries[base] = child
	return nil
}

func (f *Fs) Rmdir(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if path == "/" {
		return vfserrors.New(vfserrors.EBUSY, path)
	}
	parent, base, err := f.lookupParent(path)
	if err != nil {
		return err
	}
	n, ok := parent.entries[base]
	if !ok {
		return vfserrors.New(vfserrors.ENOENT, path)
	}
	if n.entries == nil {
		return vfserrors.New(vfserrors.ENOTDIR, path)
	}
	if len(n.entries) > 0 {
		return vfserrors.New(vfserrors.ENOTEMPTY, path)
	}
	delete(parent.entries, base)
	return nil
}

func (f *Fs) Unlink(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent, base, err := f.lookupParent(path)
	if err != nil {
		return err
	}
	n, ok := parent.entries[base]
	if !ok {
		return vfserrors.New(vfserrors.ENOENT, path)
	}
	if n.entries != nil {
		return vfserrors.New(vfserrors.EISDIR, path)
	}
	delete(parent.entries, base)
	return nil
}

func (f *Fs) Rename(ctx context.Context, oldPath, newPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	oldParent, oldBase, err := f.lookupParent(oldPath)
	if err != nil {
		return err
	}
	n, ok := oldParent.entries[oldBase]
	if !ok {
		return vfserrors.New(vfserrors.ENOENT, oldPath)
	}
	newParent, newBase, err := f.lookupParent(newPath)
	if err != nil {
		return err
	}
	if newParent.entries == nil {
		return vfserrors.New(vfserrors.ENOTDIR, newPath)
	}
	delete(oldParent.entries, oldBase)
	newParent.entries[newBase] = n
	return nil
}

func (f *Fs) Link(ctx context.Context, src, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.lookup(src)
	if err != nil {
		return err
	}
	if n.entries != nil {
		return vfserrors.New(vfserrors.EPERM, src).WithMessage("cannot hard link a directory")
	}
	dstParent, dstBase, err := f.lookupParent(dst)
	if err != nil {
		return err
	}
	if _, exists := dstParent.entries[dstBase]; exists {
		return vfserrors.New(vfserrors.EEXIST, dst)
	}
	n.stat.Nlink++
	dstParent.entries[dstBase] = n
	return nil
}

func (f *Fs) Symlink(ctx context.Context, target, linkPath string, info vfs.CreateInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parent, base, err := f.lookupParent(linkPath)
	if err != nil {
		return err
	}
	if _, exists := parent.entries[base]; exists {
		return vfserrors.New(vfserrors.EEXIST, linkPath)
	}
	now := f.clock()
	n := &node{
		stat: vfs.Stat{
			Mode: vfs.DefaultSymlinkMode, UID: info.UID, GID: info.GID,
			Atime: now, Mtime: now, Ctime: now, Birthtime: now, Nlink: 1,
			Size: uint64(len(target)),
		},
		target: target,
	}
	n.stat.Ino = f.nextIno()
	parent.entries[base] = n
	return nil
}

func (f *Fs) Readlink(ctx context.Context, path string) (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n, err := f.lookup(path)
	if err != nil {
		return "", err
	}
	if n.stat.Mode&vfs.ModeTypeMask != vfs.S_IFLNK {
		return "", vfserrors.New(vfserrors.EINVAL, path).WithMessage("not a symbolic link")
	}
	return n.target, nil
}

func (f *Fs) Chmod(ctx context.Context, path string, mode uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.lookup(path)
	if err != nil {
		return err
	}
	n.stat.Mode = (n.stat.Mode &^ (vfs.PermMask | vfs.S_ISUID | vfs.S_ISGID | vfs.S_ISVTX)) | (mode & (vfs.PermMask | vfs.S_ISUID | vfs.S_ISGID | vfs.S_ISVTX))
	n.stat.Ctime = f.clock()
	return nil
}

func (f *Fs) Chown(ctx context.Context, path string, uid, gid uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.lookup(path)
	if err != nil {
		return err
	}
	n.stat.UID, n.stat.GID = uid, gid
	n.stat.Ctime = f.clock()
	return nil
}

func (f *Fs) Utimes(ctx context.Context, path string, atime, mtime int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.lookup(path)
	if err != nil {
		return err
	}
	n.stat.Atime, n.stat.Mtime = atime, mtime
	return nil
}

func (f *Fs) Sync(ctx context.Context, path string, data []byte, stats *vfs.Stat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.getOrCreateRegular(path)
	if err != nil {
		return err
	}
	if data != nil {
		n.data = append([]byte(nil), data...)
	}
	if stats != nil {
		n.stat.Mode = stats.Mode
		n.stat.UID, n.stat.GID = stats.UID, stats.GID
	}
	n.stat.Mtime = f.clock()
	return nil
}

func (f *Fs) getOrCreateRegular(path string) (*node, error) {
	n, err := f.lookup(path)
	if err == nil {
		return n, nil
	}
	if !vfserrors.Is(err, vfserrors.ENOENT) {
		return nil, err
	}
	parent, base, perr := f.lookupParent(path)
	if perr != nil {
		return nil, perr
	}
	now := f.clock()
	child := &node{stat: vfs.Stat{Mode: vfs.DefaultFileMode, Atime: now, Mtime: now, Ctime: now, Birthtime: now, Nlink: 1}}
	child.stat.Ino = f.nextIno()
	parent.entries[base] = child
	return child, nil
}

func (f *Fs) Statfs(ctx context.Context) (vfs.Statfs, error) {
	return vfs.Statfs{TotalBytes: 1 << 34, FreeBytes: 1 << 33, TotalNodes: 1 << 20, FreeNodes: 1 << 19}, nil
}

func (f *Fs) OpenFile(ctx context.Context, path string, flags vfs.OpenFlags) (vfs.Handle, error) {
	f.mu.RLock()
	n, err := f.lookup(path)
	f.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if n.entries != nil {
		return nil, vfserrors.New(vfserrors.EISDIR, path)
	}
	return &handle{f: f, path: path, node: n}, nil
}

func (f *Fs) CreateFile(ctx context.Context, path string, flags vfs.OpenFlags, mode uint32, info vfs.CreateInfo) (vfs.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.lookup(path)
	if err == nil {
		if n.entries != nil {
			return nil, vfserrors.New(vfserrors.EISDIR, path)
		}
		return &handle{f: f, path: path, node: n}, nil
	}
	if !vfserrors.Is(err, vfserrors.ENOENT) {
		return nil, err
	}
	parent, base, perr := f.lookupParent(path)
	if perr != nil {
		return nil, perr
	}
	now := f.clock()
	child := &node{stat: vfs.Stat{
		Mode: vfs.S_IFREG | (mode & (vfs.PermMask | vfs.S_ISUID | vfs.S_ISGID | vfs.S_ISVTX)), UID: info.UID, GID: info.GID,
		Atime: now, Mtime: now, Ctime: now, Birthtime: now, Nlink: 1,
	}}
	child.stat.Ino = f.nextIno()
	parent.entries[base] = child
	return &handle{f: f, path: path, node: child}, nil
}

// handle is the per-open-file object for a memfs node. It reads and
// writes directly against the node's backing slice under the owning
// Fs's lock, mirroring backend/local.go's os.File-backed localOpenFile
// but without real file descriptors.
type handle struct {
	f    *Fs
	path string
	node *node
}

var _ vfs.Handle = (*handle)(nil)

func (h *handle) Read(ctx context.Context, buf []byte, offset int64) (int, error) {
	h.f.mu.RLock()
	defer h.f.mu.RUnlock()
	if offset >= int64(len(h.node.data)) {
		return 0, nil
	}
	n := copy(buf, h.node.data[offset:])
	return n, nil
}

func (h *handle) Write(ctx context.Context, data []byte, offset int64) (int, error) {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()
	end := offset + int64(len(data))
	if end > int64(len(h.node.data)) {
		grown := make([]byte, end)
		copy(grown, h.node.data)
		h.node.data = grown
	}
	n := copy(h.node.data[offset:end], data)
	h.node.stat.Mtime = h.f.clock()
	return n, nil
}

func (h *handle) Stat(ctx context.Context) (*vfs.Stat, error) {
	h.f.mu.RLock()
	defer h.f.mu.RUnlock()
	return statCopy(h.node), nil
}

func (h *handle) Chmod(ctx context.Context, mode uint32) error {
	return h.f.Chmod(ctx, h.path, mode)
}

func (h *handle) Chown(ctx context.Context, uid, gid uint32) error {
	return h.f.Chown(ctx, h.path, uid, gid)
}

func (h *handle) Utimes(ctx context.Context, atime, mtime int64) error {
	return h.f.Utimes(ctx, h.path, atime, mtime)
}

func (h *handle) Truncate(ctx context.Context, size int64) error {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()
	if size < 0 {
		return vfserrors.New(vfserrors.EINVAL, h.path).WithSyscall("truncate")
	}
	if int64(len(h.node.data)) == size {
		return nil
	}
	if size < int64(len(h.node.data)) {
		h.node.data = h.node.data[:size]
	} else {
		grown := make([]byte, size)
		copy(grown, h.node.data)
		h.node.data = grown
	}
	h.node.stat.Mtime = h.f.clock()
	return nil
}

func (h *handle) Sync(ctx context.Context) error     { return nil }
func (h *handle) Datasync(ctx context.Context) error { return nil }
func (h *handle) Close(ctx context.Context) error    { return nil }
