// Package compression implements the optional MessageSet-level compression
// codecs. The producer dispatch path in this module does not require
// compression — every Message is written with Attributes=0 — but the codec
// type constants and the Codec interface are real wire surface a caller can
// opt into before handing a MessageSet to the Produce request.
package compression

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

// Type values match the low three bits of the Message attributes byte, per
// https://kafka.apache.org/documentation/#recordbatch.
const (
	None = iota
	Gzip
	Snappy
	Lz4
	Zstd
)

// Codec compresses and decompresses a MessageSet's bytes and reports which
// Type value it implements.
type Codec interface {
	Compress(b []byte) ([]byte, error)
	Decompress(b []byte) ([]byte, error)
	Type() int16
}

// Nop is the identity Codec: Attributes=0, no compression. This is the only
// codec the producer path in this module uses by default.
type Nop struct{}

func (*Nop) Compress(b []byte) ([]byte, error)   { return b, nil }
func (*Nop) Decompress(b []byte) ([]byte, error) { return b, nil }
func (*Nop) Type() int16                         { return None }

// GzipCodec compresses with klauspost/compress's gzip implementation, a
// drop-in faster replacement for the standard library's compress/gzip.
type GzipCodec struct{}

func (*GzipCodec) Compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(b); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (*GzipCodec) Decompress(b []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (*GzipCodec) Type() int16 { return Gzip }

// Lz4Codec compresses with pierrec/lz4, the codec the broker's own
// production deployments favor over gzip for its speed/ratio tradeoff.
type Lz4Codec struct{}

func (*Lz4Codec) Compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(b); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (*Lz4Codec) Decompress(b []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(b))
	return io.ReadAll(r)
}

func (*Lz4Codec) Type() int16 { return Lz4 }
