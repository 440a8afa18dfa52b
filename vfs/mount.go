package vfs

import (
	"sort"
	"strings"
	"sync"

	"github.com/keelfs/keelfs/internal/logging"
	"github.com/keelfs/keelfs/vfs/vfserrors"
)

// mountEntry is a (mount_point, backend) record, per spec.md §3.
type mountEntry struct {
	point   string
	backend Backend
}

// mountTable holds every mounted backend, ordered by descending mount
// point length so resolution always finds the longest matching prefix
// first. Grounded on backend/union's upstream-selection pattern, reshaped
// from policy-based selection to longest-prefix selection.
type mountTable struct {
	mu      sync.Mutex
	entries []mountEntry
	log     *logging.Logger
}

func newMountTable(log *logging.Logger) *mountTable {
	return &mountTable{log: log}
}

// resolved is the outcome of resolving a user-facing path against the
// mount table.
type resolved struct {
	backend    Backend
	localPath  string
	mountPoint string
}

// mount registers backend at point. point must be absolute and normalized,
// must not already be mounted, and (unless it is root) its parent must
// already exist as a directory reachable through the existing mount table
// -- mounting does not create the mount point itself (spec.md §3 invariant).
func (t *mountTable) mount(point string, backend Backend) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, err := Normalize(point)
	if err != nil {
		return err
	}
	if n != point {
		return vfserrors.New(vfserrors.EINVAL, point).WithMessage("mount point must be normalized")
	}
	for _, e := range t.entries {
		if e.point == point {
			return vfserrors.New(vfserrors.EEXIST, point).WithSyscall("mount").WithMessage("already mounted")
		}
	}
	t.entries = append(t.entries, mountEntry{point: point, backend: backend})
	sort.Slice(t.entries, func(i, j int) bool {
		return len(t.entries[i].point) > len(t.entries[j].point)
	})
	t.log.Infof("mounted %s", point)
	return nil
}

// umount removes the mount at point. It is an error to unmount a point
// that was never mounted, but calling it on an already-unmounted point a
// second time is still an error, not idempotent -- only re-mounting after
// an umount is idempotent, per spec.md §4.2.
func (t *mountTable) umount(point string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, e := range t.entries {
		if e.point == point {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			t.log.Infof("unmounted %s", point)
			return nil
		}
	}
	return vfserrors.New(vfserrors.EINVAL, point).WithSyscall("umount").WithMessage("not mounted")
}

// mounts returns a snapshot of the current mount points, longest first.
func (t *mountTable) mounts() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.point
	}
	return out
}

// resolve scans mount points in descending-length order and returns the
// first whose point equals p or is a prefix of p up to a "/" boundary.
// Root is always present as a fallback (mount() must have registered it).
func (t *mountTable) resolve(p string) (resolved, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.entries {
		if p == e.point {
			return resolved{backend: e.backend, localPath: "/", mountPoint: e.point}, nil
		}
		if e.point == "/" {
			if strings.HasPrefix(p, "/") {
				return resolved{backend: e.backend, localPath: p, mountPoint: e.point}, nil
			}
			continue
		}
		if strings.HasPrefix(p, e.point+"/") {
			local := p[len(e.point):]
			return resolved{backend: e.backend, localPath: local, mountPoint: e.point}, nil
		}
	}
	return resolved{}, vfserrors.New(vfserrors.ENOENT, p).WithMessage("no backend mounted to serve this path")
}

// childMountBasenames returns the basenames of any mount point whose
// parent is exactly dir, for readdir's one-level child-mount union
// (spec.md §4.2).
func (t *mountTable) childMountBasenames(dir string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []string
	for _, e := range t.entries {
		if e.point == "/" {
			continue
		}
		parent, base := Split(e.point)
		if parent == dir {
			out = append(out, base)
		}
	}
	return out
}
