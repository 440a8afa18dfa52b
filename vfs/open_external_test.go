package vfs_test

import (
	"context"
	"testing"

	"github.com/keelfs/keelfs/vfs"
	"github.com/keelfs/keelfs/vfs/vfserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesMissingFileWithWriteFlag(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	fd, err := v.Open(ctx, "/new", "w", vfs.OpenOptions{Mode: 0o644, ResolveSymlinks: true})
	require.NoError(t, err)
	defer v.Close(ctx, fd)

	st, err := v.Fstat(ctx, fd)
	require.NoError(t, err)
	assert.True(t, st.IsRegular())
}

func TestOpenReadOnlyMissingFileIsENOENT(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	_, err := v.Open(ctx, "/missing", "r", vfs.OpenOptions{ResolveSymlinks: true})
	assert.True(t, vfserrors.Is(err, vfserrors.ENOENT))
}

func TestOpenExclusiveOnExistingFileIsEEXIST(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	require.NoError(t, v.WriteFile(ctx, "/f", []byte("x"), vfs.WriteFileOptions{}))
	_, err := v.Open(ctx, "/f", "wx", vfs.OpenOptions{ResolveSymlinks: true})
	assert.True(t, vfserrors.Is(err, vfserrors.EEXIST))
}

func TestOpenTruncateFlagResetsSize(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	require.NoError(t, v.WriteFile(ctx, "/f", []byte("hello"), vfs.WriteFileOptions{}))
	fd, err := v.Open(ctx, "/f", "w", vfs.OpenOptions{ResolveSymlinks: true})
	require.NoError(t, err)
	defer v.Close(ctx, fd)

	st, err := v.Fstat(ctx, fd)
	require.NoError(t, err)
	assert.EqualValues(t, 0, st.Size)
}

func TestOpendirListsEntries(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	_, err := v.Mkdir(ctx, "/dir", 0o755, false, vfs.CreateInfo{})
	require.NoError(t, err)
	require.NoError(t, v.WriteFile(ctx, "/dir/a", []byte("x"), vfs.WriteFileOptions{}))

	d, err := v.Opendir(ctx, "/dir")
	require.NoError(t, err)
	e, ok := d.Read()
	require.True(t, ok)
	assert.Equal(t, "a", e.Name)

	_, ok = d.Read()
	assert.False(t, ok)
}
