package vfs

import (
	"testing"

	"github.com/keelfs/keelfs/vfs/vfserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagsKnownSpellings(t *testing.T) {
	cases := []struct {
		flag string
		want OpenFlags
	}{
		{"r", OpenFlags{Readable: true}},
		{"rs", OpenFlags{Readable: true}},
		{"r+", OpenFlags{Readable: true, Writable: true}},
		{"w", OpenFlags{Writable: true, Truncate: true, Create: true}},
		{"wx", OpenFlags{Writable: true, Truncate: true, Create: true, Exclusive: true}},
		{"w+", OpenFlags{Readable: true, Writable: true, Truncate: true, Create: true}},
		{"wx+", OpenFlags{Readable: true, Writable: true, Truncate: true, Create: true, Exclusive: true}},
		{"a", OpenFlags{Writable: true, Appendable: true, Create: true}},
		{"ax", OpenFlags{Writable: true, Appendable: true, Create: true, Exclusive: true}},
		{"a+", OpenFlags{Readable: true, Writable: true, Appendable: true, Create: true}},
		{"ax+", OpenFlags{Readable: true, Writable: true, Appendable: true, Create: true, Exclusive: true}},
	}
	for _, c := range cases {
		got, err := ParseFlags(c.flag)
		require.NoError(t, err, c.flag)
		c.want.raw = c.flag
		assert.Equal(t, c.want, got, c.flag)
	}
}

func TestParseFlagsUnknownIsEINVAL(t *testing.T) {
	_, err := ParseFlags("bogus")
	assert.True(t, vfserrors.Is(err, vfserrors.EINVAL))
}

func TestOpenFlagsStringRoundTrips(t *testing.T) {
	f, err := ParseFlags("a+")
	require.NoError(t, err)
	assert.Equal(t, "a+", f.String())
}
