// Package vfs implements the in-process virtual file system: path
// normalization and realpath, the mount table, the FD/handle table and
// open-file protocol, cross-mount operations, and the watcher bus,
// dispatching each public call to the backend that owns the path.
package vfs

import (
	"context"

	"github.com/keelfs/keelfs/internal/logging"
	"github.com/keelfs/keelfs/vfs/vfserrors"
)

// VFS is a single process's namespace: one mount table, one FD table, and
// one watcher bus. Each process owns its own VFS; there is no
// multi-process coherency (spec.md §1 non-goals).
type VFS struct {
	mounts   *mountTable
	fds      *fdTable
	watchers *watcherBus
	log      *logging.Logger
	opts     Options
}

// New constructs a VFS with opts.Root mounted at "/".
func New(opts Options) (*VFS, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	log := logging.New("vfs")
	v := &VFS{
		mounts:   newMountTable(log),
		fds:      newFDTable(),
		watchers: newWatcherBus(),
		log:      log,
		opts:     opts,
	}
	if err := v.mounts.mount("/", opts.Root); err != nil {
		return nil, err
	}
	return v, nil
}

// Mount splices backend into the namespace at point. point's parent must
// already exist as a directory in the namespace (mounting does not create
// the mount point), per spec.md §3.
func (v *VFS) Mount(ctx context.Context, point string, backend Backend) error {
	point, err := Normalize(point)
	if err != nil {
		return err
	}
	if point != "/" {
		parent, _ := Split(point)
		st, err := v.Stat(ctx, parent)
		if err != nil {
			return err
		}
		if !st.IsDir() {
			return vfserrors.New(vfserrors.ENOTDIR, parent).WithSyscall("mount")
		}
	}
	return v.mounts.mount(point, backend)
}

// Umount removes the mount at point. Flushing the backend is the
// backend's own responsibility, not the VFS's (spec.md §3 lifecycle).
func (v *VFS) Umount(point string) error {
	point, err := Normalize(point)
	if err != nil {
		return err
	}
	return v.mounts.umount(point)
}

// Mounts returns an iterable view of the current mount points.
func (v *VFS) Mounts() []string {
	return v.mounts.mounts()
}

// resolveMount is the dispatch-boundary helper spec.md §2's data flow
// names: it finds the owning backend and rewrites path to backend-local
// form.
func (v *VFS) resolveMount(path string) (resolved, error) {
	return v.mounts.resolve(path)
}

// translateErr rewrites any path the backend error reports (its local
// form) back to the user-facing path, via the substitution computed at the
// dispatch site, logging the rewrite per SPEC_FULL.md §7. A nil err passes
// through unchanged.
func (v *VFS) translateErr(err error, localPath, userPath string) error {
	if err == nil {
		return nil
	}
	ve, ok := vfserrors.As(err)
	if !ok {
		return err
	}
	rewritten := ve
	if ve.Path == localPath {
		rewritten = ve.WithPath(userPath)
	}
	v.log.Debugf("%s -> %s failed: %v", userPath, localPath, rewritten)
	return rewritten
}
