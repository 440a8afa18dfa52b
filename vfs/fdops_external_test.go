package vfs_test

import (
	"context"
	"testing"

	"github.com/keelfs/keelfs/vfs"
	"github.com/keelfs/keelfs/vfs/vfserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenReadRoundTrips(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	fd, err := v.Open(ctx, "/f", "w+", vfs.OpenOptions{ResolveSymlinks: true})
	require.NoError(t, err)
	defer v.Close(ctx, fd)

	n, err := v.Write(ctx, fd, []byte("hello"), 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	buf := make([]byte, 5)
	n, err = v.Read(ctx, fd, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))
}

func TestFstatSizeGrowsMonotonicallyWithWrites(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	fd, err := v.Open(ctx, "/f", "w+", vfs.OpenOptions{ResolveSymlinks: true})
	require.NoError(t, err)
	defer v.Close(ctx, fd)

	_, err = v.Write(ctx, fd, []byte("abc"), vfs.NoPosition)
	require.NoError(t, err)
	st, err := v.Fstat(ctx, fd)
	require.NoError(t, err)
	assert.EqualValues(t, 3, st.Size)

	_, err = v.Write(ctx, fd, []byte("defgh"), vfs.NoPosition)
	require.NoError(t, err)
	st, err = v.Fstat(ctx, fd)
	require.NoError(t, err)
	assert.EqualValues(t, 8, st.Size)
}

func TestCloseThenOperateIsEBADF(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	fd, err := v.Open(ctx, "/f", "w", vfs.OpenOptions{ResolveSymlinks: true})
	require.NoError(t, err)
	require.NoError(t, v.Close(ctx, fd))

	_, err = v.Read(ctx, fd, make([]byte, 1), 0)
	assert.True(t, vfserrors.Is(err, vfserrors.EBADF))

	err = v.Close(ctx, fd)
	assert.True(t, vfserrors.Is(err, vfserrors.EBADF))
}

func TestFtruncateShrinksFile(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	fd, err := v.Open(ctx, "/f", "w+", vfs.OpenOptions{ResolveSymlinks: true})
	require.NoError(t, err)
	defer v.Close(ctx, fd)

	_, err = v.Write(ctx, fd, []byte("hello world"), 0)
	require.NoError(t, err)
	require.NoError(t, v.Ftruncate(ctx, fd, 5))

	st, err := v.Fstat(ctx, fd)
	require.NoError(t, err)
	assert.EqualValues(t, 5, st.Size)
}
