package compression

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNopRoundTrip(t *testing.T) {
	c := &Nop{}
	out, err := c.Compress([]byte("hello"))
	require.NoError(t, err)
	back, err := c.Decompress(out)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), back)
	require.EqualValues(t, None, c.Type())
}

func TestGzipRoundTrip(t *testing.T) {
	c := &GzipCodec{}
	in := []byte("the quick brown fox jumps over the lazy dog, repeated, repeated, repeated")
	out, err := c.Compress(in)
	require.NoError(t, err)
	require.NotEqual(t, in, out)
	back, err := c.Decompress(out)
	require.NoError(t, err)
	require.Equal(t, in, back)
	require.EqualValues(t, Gzip, c.Type())
}

func TestLz4RoundTrip(t *testing.T) {
	c := &Lz4Codec{}
	in := []byte("the quick brown fox jumps over the lazy dog, repeated, repeated, repeated")
	out, err := c.Compress(in)
	require.NoError(t, err)
	back, err := c.Decompress(out)
	require.NoError(t, err)
	require.Equal(t, in, back)
	require.EqualValues(t, Lz4, c.Type())
}
