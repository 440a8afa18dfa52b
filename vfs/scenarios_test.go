package vfs_test

import (
	"context"
	"testing"

	"github.com/keelfs/keelfs/vfs"
	"github.com/keelfs/keelfs/vfs/vfserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spec.md §8 scenario 1: mkdir recursive idempotence.
func TestScenarioMkdirRecursive(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	created, err := v.Mkdir(ctx, "/a/b/c", 0o755, true, vfs.CreateInfo{})
	require.NoError(t, err)
	assert.Equal(t, "/a", created)

	for _, p := range []string{"/a", "/a/b", "/a/b/c"} {
		st, err := v.Stat(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, uint32(vfs.S_IFDIR|0o755), st.Mode, p)
	}

	created, err = v.Mkdir(ctx, "/a/b/c", 0o755, true, vfs.CreateInfo{})
	require.NoError(t, err)
	assert.Equal(t, "", created)
}

// spec.md §8 scenario 6: exclusive create.
func TestScenarioExclusiveCreate(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	require.NoError(t, v.WriteFile(ctx, "/e", []byte("1"), vfs.WriteFileOptions{}))

	_, err := v.Open(ctx, "/e", "wx", vfs.OpenOptions{ResolveSymlinks: true})
	assert.True(t, vfserrors.Is(err, vfserrors.EEXIST))
}

// spec.md §8 property: write_file/read_file round-trips arbitrary bytes.
func TestPropertyWriteReadFileRoundTrips(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	payload := []byte{0, 1, 2, 255, 254, 0, 10, 13}
	require.NoError(t, v.WriteFile(ctx, "/p", payload, vfs.WriteFileOptions{}))

	got, err := v.ReadFile(ctx, "/p", vfs.ReadFileOptions{})
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

// spec.md §8 property: read_file(P, 'utf-8') succeeds iff B is valid UTF-8.
func TestPropertyReadFileStringRejectsInvalidUTF8(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	require.NoError(t, v.WriteFile(ctx, "/valid", []byte("hello"), vfs.WriteFileOptions{}))
	s, err := v.ReadFileString(ctx, "/valid", vfs.ReadFileOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	require.NoError(t, v.WriteFile(ctx, "/invalid", []byte{0xff, 0xfe, 0x00}, vfs.WriteFileOptions{}))
	_, err = v.ReadFileString(ctx, "/invalid", vfs.ReadFileOptions{})
	assert.True(t, vfserrors.Is(err, vfserrors.EINVAL))
}

// spec.md §8 property: permission-checked open fails EACCES for a caller
// outside every granted triad.
func TestPropertyOpenReadDeniedByPermissions(t *testing.T) {
	v := newTestVFS(t)
	ctx := context.Background()

	require.NoError(t, v.WriteFile(ctx, "/secret", []byte("x"), vfs.WriteFileOptions{Mode: 0o000}))

	_, err := v.Open(ctx, "/secret", "r", vfs.OpenOptions{
		Caller:          vfs.CallContext{UID: 1000, GID: 1000},
		ResolveSymlinks: true,
	})
	assert.True(t, vfserrors.Is(err, vfserrors.EACCES))
}

// spec.md §8 invariant: Normalize is idempotent.
func TestPropertyNormalizeIdempotentThroughVFS(t *testing.T) {
	first, err := vfs.Normalize("/a/./b/../c//d")
	require.NoError(t, err)
	second, err := vfs.Normalize(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
