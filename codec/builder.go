// Package codec implements the broker's length-delimited primitive wire
// types: fixed-width signed integers, length-prefixed strings and byte
// sequences (with -1 denoting null), and length-prefixed arrays. Every
// higher-level request and response schema in the api package is built by
// composing these ten operations, so correctness of the wire-level
// round-trip rests entirely on this package.
package codec

import (
	"encoding/binary"

	"github.com/mkocikowski/corekafka"
)

var order = binary.BigEndian

// Builder appends primitive wire values to a growable byte buffer. It is an
// append-only, write-once object: once TakeBytes has been called, further
// Add calls are no-ops and Err reports ErrBuilderConsumed. Builder is not
// safe for concurrent use.
type Builder struct {
	buf      []byte
	consumed bool
}

// NewBuilder returns an empty Builder. size is a hint for the initial
// capacity of the backing buffer; 0 is fine.
func NewBuilder(size int) *Builder {
	return &Builder{buf: make([]byte, 0, size)}
}

// Err reports whether the Builder has already been consumed by TakeBytes.
func (b *Builder) Err() error {
	if b.consumed {
		return corekafka.ErrBuilderConsumed
	}
	return nil
}

// AddInt8 appends a single signed byte.
func (b *Builder) AddInt8(v int8) *Builder {
	if b.consumed {
		return b
	}
	b.buf = append(b.buf, byte(v))
	return b
}

// AddInt16 appends a big-endian signed 16-bit integer.
func (b *Builder) AddInt16(v int16) *Builder {
	if b.consumed {
		return b
	}
	var tmp [2]byte
	order.PutUint16(tmp[:], uint16(v))
	b.buf = append(b.buf, tmp[:]...)
	return b
}

// AddInt32 appends a big-endian signed 32-bit integer.
func (b *Builder) AddInt32(v int32) *Builder {
	if b.consumed {
		return b
	}
	var tmp [4]byte
	order.PutUint32(tmp[:], uint32(v))
	b.buf = append(b.buf, tmp[:]...)
	return b
}

// AddInt64 appends a big-endian signed 64-bit integer.
func (b *Builder) AddInt64(v int64) *Builder {
	if b.consumed {
		return b
	}
	var tmp [8]byte
	order.PutUint64(tmp[:], uint64(v))
	b.buf = append(b.buf, tmp[:]...)
	return b
}

// AddString appends an int16 length prefix followed by the UTF-8 bytes of s.
// A nil *string appends length -1 (the null encoding).
func (b *Builder) AddString(s *string) *Builder {
	if b.consumed {
		return b
	}
	if s == nil {
		return b.AddInt16(-1)
	}
	b.AddInt16(int16(len(*s)))
	b.buf = append(b.buf, *s...)
	return b
}

// AddStringValue is a convenience for the common, non-null string case.
func (b *Builder) AddStringValue(s string) *Builder {
	return b.AddString(&s)
}

// AddBytes appends an int32 length prefix followed by the raw bytes of v. A
// nil slice appends length -1 (the null encoding), producing exactly
// 0xFF 0xFF 0xFF 0xFF.
func (b *Builder) AddBytes(v []byte) *Builder {
	if b.consumed {
		return b
	}
	if v == nil {
		return b.AddInt32(-1)
	}
	b.AddInt32(int32(len(v)))
	b.buf = append(b.buf, v...)
	return b
}

// AddArray appends an int32 count followed by encode(item) for each item in
// items. A nil items slice appends count -1 (the null encoding). encode is
// responsible for writing one item, typically with one of the Builder's
// primitive Add methods.
func AddArray[T any](b *Builder, items []T, encode func(*Builder, T)) *Builder {
	if b.consumed {
		return b
	}
	if items == nil {
		b.AddInt32(-1)
		return b
	}
	b.AddInt32(int32(len(items)))
	for _, item := range items {
		encode(b, item)
	}
	return b
}

// Len returns the number of bytes appended so far.
func (b *Builder) Len() int {
	return len(b.buf)
}

// TakeBytes consumes the Builder and returns its accumulated bytes. After
// TakeBytes, the Builder is dead: further Add calls are no-ops and Err
// returns ErrBuilderConsumed.
func (b *Builder) TakeBytes() []byte {
	buf := b.buf
	b.consumed = true
	return buf
}
