package codec

import (
	"testing"

	"github.com/mkocikowski/corekafka"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	b := NewBuilder(0)
	b.AddInt8(53)
	b.AddInt16(3541)
	b.AddInt32(162534612)
	b.AddStringValue("dart-kafka")
	b.AddBytes([]byte{12, 43, 83})
	AddArray(b, []string{"one", "two"}, func(b *Builder, s string) { b.AddStringValue(s) })

	r := NewReader(b.TakeBytes())

	i8, err := r.ReadInt8()
	require.NoError(t, err)
	require.EqualValues(t, 53, i8)

	i16, err := r.ReadInt16()
	require.NoError(t, err)
	require.EqualValues(t, 3541, i16)

	i32, err := r.ReadInt32()
	require.NoError(t, err)
	require.EqualValues(t, 162534612, i32)

	s, err := r.ReadStringValue()
	require.NoError(t, err)
	require.Equal(t, "dart-kafka", s)

	bs, err := r.ReadBytes()
	require.NoError(t, err)
	require.Equal(t, []byte{12, 43, 83}, bs)

	arr, err := ReadArray(r, func(r *Reader) (string, error) { return r.ReadStringValue() })
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two"}, arr)

	require.True(t, r.EOF())
	_, err = r.ReadInt8()
	require.ErrorIs(t, err, corekafka.ErrTruncatedInput)
}

func TestNullBytesEncoding(t *testing.T) {
	b := NewBuilder(0)
	b.AddBytes(nil)
	out := b.TakeBytes()
	require.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, out)

	r := NewReader(out)
	v, err := r.ReadBytes()
	require.NoError(t, err)
	require.Nil(t, v)
	require.True(t, r.EOF())
}

func TestNullStringAndArray(t *testing.T) {
	b := NewBuilder(0)
	b.AddString(nil)
	AddArray[int32](b, nil, func(b *Builder, v int32) { b.AddInt32(v) })
	r := NewReader(b.TakeBytes())

	s, err := r.ReadString()
	require.NoError(t, err)
	require.Nil(t, s)

	arr, err := ReadArray(r, func(r *Reader) (int32, error) { return r.ReadInt32() })
	require.NoError(t, err)
	require.Nil(t, arr)
}

func TestMalformedLengthPrefix(t *testing.T) {
	b := NewBuilder(0)
	b.AddInt16(-2) // invalid string length
	r := NewReader(b.TakeBytes())
	_, err := r.ReadString()
	require.ErrorIs(t, err, corekafka.ErrMalformedInput)
}

func TestBuilderConsumed(t *testing.T) {
	b := NewBuilder(0)
	b.AddInt8(1)
	_ = b.TakeBytes()
	require.ErrorIs(t, b.Err(), corekafka.ErrBuilderConsumed)
	b.AddInt8(2) // no-op after consumption
	require.Equal(t, []byte{1}, b.TakeBytes())
}
