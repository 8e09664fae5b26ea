package codec

import (
	"unicode/utf8"

	"github.com/mkocikowski/corekafka"
)

// Reader reads primitive wire values from a borrowed byte slice, advancing a
// position cursor. It never allocates beyond the slice it was constructed
// with (reading bytes is zero-copy: the returned slice aliases the input).
// Reading past the end of the slice fails with ErrTruncatedInput. Reading a
// length-prefixed field whose length is less than -1, or a string whose
// bytes are not valid UTF-8, fails with ErrMalformedInput. A Reader is
// positional but non-destructive: the underlying slice is never mutated.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for positional reading starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Position returns the current read offset.
func (r *Reader) Position() int {
	return r.pos
}

// Length returns the total length of the underlying buffer.
func (r *Reader) Length() int {
	return len(r.buf)
}

// EOF reports whether the cursor has exactly reached the end of the buffer.
func (r *Reader) EOF() bool {
	return r.pos >= len(r.buf)
}

// Bytes returns the slice [start:end) of the underlying buffer, without
// moving the cursor or copying. Used by callers that need to checksum or
// re-inspect a span they already consumed.
func (r *Reader) Bytes(start, end int) []byte {
	return r.buf[start:end]
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, corekafka.ErrTruncatedInput
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadInt8 reads a single signed byte.
func (r *Reader) ReadInt8() (int8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

// ReadInt16 reads a big-endian signed 16-bit integer.
func (r *Reader) ReadInt16() (int16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return int16(order.Uint16(b)), nil
}

// ReadInt32 reads a big-endian signed 32-bit integer.
func (r *Reader) ReadInt32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(order.Uint32(b)), nil
}

// ReadInt64 reads a big-endian signed 64-bit integer.
func (r *Reader) ReadInt64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(order.Uint64(b)), nil
}

// ReadString reads an int16 length prefix followed by that many bytes of
// UTF-8. A length of -1 returns a nil *string (null). A length less than -1,
// a truncated body, or invalid UTF-8 is an error.
func (r *Reader) ReadString() (*string, error) {
	n, err := r.ReadInt16()
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return nil, nil
	}
	if n < -1 {
		return nil, corekafka.ErrMalformedInput
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(b) {
		return nil, corekafka.ErrMalformedInput
	}
	s := string(b)
	return &s, nil
}

// ReadStringValue is ReadString with the null case collapsed to "".
func (r *Reader) ReadStringValue() (string, error) {
	s, err := r.ReadString()
	if err != nil || s == nil {
		return "", err
	}
	return *s, nil
}

// ReadBytes reads an int32 length prefix followed by that many raw bytes. A
// length of -1 returns a nil slice (null). A length less than -1, or a
// truncated body, is an error. The returned slice aliases the Reader's
// underlying buffer.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return nil, nil
	}
	if n < -1 {
		return nil, corekafka.ErrMalformedInput
	}
	return r.take(int(n))
}

// ReadArray reads an int32 count prefix followed by count invocations of
// decode. A count of -1 returns a nil slice (null). A count less than -1 is
// an error.
func ReadArray[T any](r *Reader, decode func(*Reader) (T, error)) ([]T, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return nil, nil
	}
	if n < -1 {
		return nil, corekafka.ErrMalformedInput
	}
	items := make([]T, 0, n)
	for i := int32(0); i < n; i++ {
		item, err := decode(r)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
