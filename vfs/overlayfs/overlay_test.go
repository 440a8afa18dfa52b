package overlayfs

import (
	"context"
	"testing"
	"time"

	"github.com/keelfs/keelfs/vfs"
	"github.com/keelfs/keelfs/vfs/memfs"
	"github.com/keelfs/keelfs/vfs/vfserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clockAt(ms int64) func() int64 {
	return func() int64 { return ms }
}

func newMemBackend(t *testing.T) *memfs.Fs {
	t.Helper()
	f, err := memfs.New(memfs.Options{}, clockAt(time.Now().UnixMilli()))
	require.NoError(t, err)
	return f
}

func readAll(t *testing.T, ctx context.Context, b vfs.Backend, path string) string {
	t.Helper()
	st, err := b.Stat(ctx, path)
	require.NoError(t, err)
	h, err := b.OpenFile(ctx, path, vfs.OpenFlags{Readable: true})
	require.NoError(t, err)
	defer h.Close(ctx)
	buf := make([]byte, st.Size)
	n, err := h.Read(ctx, buf, 0)
	require.NoError(t, err)
	return string(buf[:n])
}

func writeAll(t *testing.T, ctx context.Context, b vfs.Backend, path, content string) {
	t.Helper()
	h, err := b.CreateFile(ctx, path, vfs.OpenFlags{Writable: true, Create: true, Truncate: true}, 0o644, vfs.CreateInfo{})
	require.NoError(t, err)
	defer h.Close(ctx)
	_, err = h.Write(ctx, []byte(content), 0)
	require.NoError(t, err)
}

// TestOverlayWriteOverReadOnlyFile reproduces spec.md §8 scenario 3.
func TestOverlayWriteOverReadOnlyFile(t *testing.T) {
	ctx := context.Background()
	lower := newMemBackend(t)
	upper := newMemBackend(t)
	writeAll(t, ctx, lower, "/f", "hello")

	ov, err := New(ctx, Options{Upper: upper, Lower: lower})
	require.NoError(t, err)

	assert.Equal(t, "hello", readOverlayFile(t, ctx, ov, "/f"))

	writeOverlayFile(t, ctx, ov, "/f", "HELLO")
	assert.Equal(t, "HELLO", readOverlayFile(t, ctx, ov, "/f"))

	assert.Equal(t, "hello", readAll(t, ctx, lower, "/f"))

	exists, err := upper.Exists(ctx, "/f")
	require.NoError(t, err)
	assert.True(t, exists)
}

// TestOverlayDeletePersists reproduces spec.md §8 scenario 4.
func TestOverlayDeletePersists(t *testing.T) {
	ctx := context.Background()
	lower := newMemBackend(t)
	upper := newMemBackend(t)
	writeAll(t, ctx, lower, "/f", "hello")

	ov, err := New(ctx, Options{Upper: upper, Lower: lower})
	require.NoError(t, err)

	require.NoError(t, ov.Unlink(ctx, "/f"))
	waitForFlush(t, ov)

	exists, err := ov.Exists(ctx, "/f")
	require.NoError(t, err)
	assert.False(t, exists)

	log := readAll(t, ctx, upper, deletionLogPath)
	assert.Equal(t, "d/f\n", log)

	ov2, err := New(ctx, Options{Upper: upper, Lower: lower})
	require.NoError(t, err)
	exists, err = ov2.Exists(ctx, "/f")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestOverlayStatMarksLowerOnlyWritable(t *testing.T) {
	ctx := context.Background()
	lower := newMemBackend(t)
	upper := newMemBackend(t)
	writeAll(t, ctx, lower, "/f", "x")

	ov, err := New(ctx, Options{Upper: upper, Lower: lower})
	require.NoError(t, err)

	st, err := ov.Stat(ctx, "/f")
	require.NoError(t, err)
	assert.NotZero(t, st.Perm()&0o222)
}

func TestOverlayMkdirFailsIfVisible(t *testing.T) {
	ctx := context.Background()
	lower := newMemBackend(t)
	upper := newMemBackend(t)
	require.NoError(t, lower.Mkdir(ctx, "/d", 0o755, vfs.CreateInfo{}))

	ov, err := New(ctx, Options{Upper: upper, Lower: lower})
	require.NoError(t, err)

	err = ov.Mkdir(ctx, "/d", 0o755, vfs.CreateInfo{})
	assert.True(t, vfserrors.Is(err, vfserrors.EEXIST))
}

func TestOverlayReaddirUnionsAndFiltersDeleted(t *testing.T) {
	ctx := context.Background()
	lower := newMemBackend(t)
	upper := newMemBackend(t)
	writeAll(t, ctx, lower, "/a", "1")
	writeAll(t, ctx, lower, "/b", "2")

	ov, err := New(ctx, Options{Upper: upper, Lower: lower})
	require.NoError(t, err)
	writeOverlayFile(t, ctx, ov, "/c", "3")

	names, err := ov.Readdir(ctx, "/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, names)

	require.NoError(t, ov.Unlink(ctx, "/b"))
	waitForFlush(t, ov)
	names, err = ov.Readdir(ctx, "/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c"}, names)
}

func readOverlayFile(t *testing.T, ctx context.Context, ov *Fs, path string) string {
	t.Helper()
	st, err := ov.Stat(ctx, path)
	require.NoError(t, err)
	h, err := ov.OpenFile(ctx, path, vfs.OpenFlags{Readable: true})
	require.NoError(t, err)
	defer h.Close(ctx)
	buf := make([]byte, st.Size)
	n, err := h.Read(ctx, buf, 0)
	require.NoError(t, err)
	return string(buf[:n])
}

func writeOverlayFile(t *testing.T, ctx context.Context, ov *Fs, path, content string) {
	t.Helper()
	exists, err := ov.Exists(ctx, path)
	require.NoError(t, err)

	var h vfs.Handle
	if exists {
		h, err = ov.OpenFile(ctx, path, vfs.OpenFlags{Writable: true, Truncate: true})
	} else {
		h, err = ov.CreateFile(ctx, path, vfs.OpenFlags{Writable: true, Create: true, Truncate: true}, 0o644, vfs.CreateInfo{})
	}
	require.NoError(t, err)
	defer h.Close(ctx)
	if exists {
		require.NoError(t, h.Truncate(ctx, 0))
	}
	_, err = h.Write(ctx, []byte(content), 0)
	require.NoError(t, err)
}

// waitForFlush gives the deletion log's background coalesced writer a
// moment to complete before the test reads /.deleted back.
func waitForFlush(t *testing.T, ov *Fs) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		ov.dl.mu.Lock()
		flushing := ov.dl.flushing
		ov.dl.mu.Unlock()
		if !flushing {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("deletion log flush did not complete in time")
}
