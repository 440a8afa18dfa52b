package vfs

import (
	"context"
	"testing"

	"github.com/keelfs/keelfs/internal/logging"
	"github.com/keelfs/keelfs/vfs/vfserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend is a minimal Backend used only to exercise the mount
// table's resolution logic, not any real filesystem semantics.
type stubBackend struct{ name string }

func (b *stubBackend) Ready(ctx context.Context) error { return nil }
func (b *stubBackend) Metadata() Metadata              { return Metadata{Name: b.name} }
func (b *stubBackend) Stat(ctx context.Context, path string) (*Stat, error) {
	return nil, vfserrors.New(vfserrors.ENOENT, path)
}
func (b *stubBackend) Exists(ctx context.Context, path string) (bool, error) { return false, nil }
func (b *stubBackend) OpenFile(ctx context.Context, path string, flags OpenFlags) (Handle, error) {
	return nil, vfserrors.New(vfserrors.ENOSYS, path)
}
func (b *stubBackend) CreateFile(ctx context.Context, path string, flags OpenFlags, mode uint32, info CreateInfo) (Handle, error) {
	return nil, vfserrors.New(vfserrors.ENOSYS, path)
}
func (b *stubBackend) Rename(ctx context.Context, oldPath, newPath string) error { return nil }
func (b *stubBackend) Unlink(ctx context.Context, path string) error            { return nil }
func (b *stubBackend) Rmdir(ctx context.Context, path string) error             { return nil }
func (b *stubBackend) Mkdir(ctx context.Context, path string, mode uint32, info CreateInfo) error {
	return nil
}
func (b *stubBackend) Readdir(ctx context.Context, path string) ([]string, error) { return nil, nil }
func (b *stubBackend) Link(ctx context.Context, src, dst string) error            { return nil }
func (b *stubBackend) Symlink(ctx context.Context, target, linkPath string, info CreateInfo) error {
	return nil
}
func (b *stubBackend) Readlink(ctx context.Context, path string) (string, error) { return "", nil }
func (b *stubBackend) Chmod(ctx context.Context, path string, mode uint32) error { return nil }
func (b *stubBackend) Chown(ctx context.Context, path string, uid, gid uint32) error {
	return nil
}
func (b *stubBackend) Utimes(ctx context.Context, path string, atime, mtime int64) error {
	return nil
}
func (b *stubBackend) Sync(ctx context.Context, path string, data []byte, stats *Stat) error {
	return nil
}
func (b *stubBackend) Statfs(ctx context.Context) (Statfs, error) { return Statfs{}, nil }

var _ Backend = (*stubBackend)(nil)

func newTestMountTable() *mountTable {
	return newMountTable(logging.New("test"))
}

func TestMountResolvesLongestPrefix(t *testing.T) {
	tbl := newTestMountTable()
	root := &stubBackend{name: "root"}
	child := &stubBackend{name: "child"}
	require.NoError(t, tbl.mount("/", root))
	require.NoError(t, tbl.mount("/a/b", child))

	r, err := tbl.resolve("/a/b/c")
	require.NoError(t, err)
	assert.Same(t, Backend(child), r.backend)
	assert.Equal(t, "/c", r.localPath)

	r, err = tbl.resolve("/a/x")
	require.NoError(t, err)
	assert.Same(t, Backend(root), r.backend)
	assert.Equal(t, "/a/x", r.localPath)
}

func TestMountRejectsDuplicatePoint(t *testing.T) {
	tbl := newTestMountTable()
	require.NoError(t, tbl.mount("/", &stubBackend{}))
	err := tbl.mount("/", &stubBackend{})
	assert.True(t, vfserrors.Is(err, vfserrors.EEXIST))
}

func TestUmountThenRemount(t *testing.T) {
	tbl := newTestMountTable()
	require.NoError(t, tbl.mount("/", &stubBackend{}))
	require.NoError(t, tbl.mount("/a", &stubBackend{}))
	require.NoError(t, tbl.umount("/a"))

	err := tbl.umount("/a")
	assert.True(t, vfserrors.Is(err, vfserrors.EINVAL))

	require.NoError(t, tbl.mount("/a", &stubBackend{}))
}

func TestChildMountBasenames(t *testing.T) {
	tbl := newTestMountTable()
	require.NoError(t, tbl.mount("/", &stubBackend{}))
	require.NoError(t, tbl.mount("/a/b", &stubBackend{}))
	require.NoError(t, tbl.mount("/a/c", &stubBackend{}))

	names := tbl.childMountBasenames("/a")
	assert.ElementsMatch(t, []string{"b", "c"}, names)
}
