package vfs_test

import (
	"context"
	"testing"

	"github.com/keelfs/keelfs/vfs"
	"github.com/keelfs/keelfs/vfs/vfserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealpathFollowsSymlinkChain(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	require.NoError(t, v.WriteFile(ctx, "/target", []byte("x"), vfs.WriteFileOptions{}))
	require.NoError(t, v.Symlink(ctx, "/target", "/link1", vfs.CreateInfo{}))
	require.NoError(t, v.Symlink(ctx, "/link1", "/link2", vfs.CreateInfo{}))

	rp, err := v.Realpath(ctx, "/link2")
	require.NoError(t, err)
	assert.Equal(t, "/target", rp)
}

func TestRealpathMissingNodeReturnsInputUnchanged(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	rp, err := v.Realpath(ctx, "/does/not/exist")
	require.NoError(t, err)
	assert.Equal(t, "/does/not/exist", rp)
}

func TestRealpathDetectsLoop(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	require.NoError(t, v.Symlink(ctx, "/b", "/a", vfs.CreateInfo{}))
	require.NoError(t, v.Symlink(ctx, "/a", "/b", vfs.CreateInfo{}))

	_, err := v.Realpath(ctx, "/a")
	assert.True(t, vfserrors.Is(err, vfserrors.ELOOP))
}

func TestReadlinkOnNonSymlinkIsEINVAL(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	require.NoError(t, v.WriteFile(ctx, "/f", []byte("x"), vfs.WriteFileOptions{}))
	_, err := v.Readlink(ctx, "/f")
	assert.True(t, vfserrors.Is(err, vfserrors.EINVAL))
}
