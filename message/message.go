// Package message implements the producer record wire format: a CRC-32
// checked Message (magic=1) and the MessageSet that frames one or more of
// them for a Produce request. Building and parsing a MessageSet is separate
// from producing and fetching, the way the broader client separates batch
// construction from the wire call that carries it.
package message

import (
	"errors"
	"hash/crc32"

	"github.com/mkocikowski/corekafka/codec"
)

// MagicV1 is the only message format version this package writes.
const MagicV1 int8 = 1

// ErrCorruptMessage is returned by Unmarshal when the computed crc does not
// match the one carried on the wire.
var ErrCorruptMessage = errors.New("corrupt message: crc mismatch")

// Message is a single producer record on the wire:
// { crc, magic, attributes, timestamp, key, value }. crc is the CRC-32
// (IEEE polynomial) checksum of every byte following the crc field itself.
type Message struct {
	Magic      int8
	Attributes int8
	Timestamp  int64
	Key        []byte
	Value      []byte
}

// New builds a Message with Magic fixed at MagicV1 and Attributes at 0 (no
// compression, no special flags — this package's callers compress, if at
// all, at the MessageSet level before framing).
func New(key, value []byte, timestamp int64) *Message {
	return &Message{
		Magic:      MagicV1,
		Attributes: 0,
		Timestamp:  timestamp,
		Key:        key,
		Value:      value,
	}
}

func (m *Message) encodeBody(b *codec.Builder) {
	b.AddInt8(m.Magic)
	b.AddInt8(m.Attributes)
	b.AddInt64(m.Timestamp)
	b.AddBytes(m.Key)
	b.AddBytes(m.Value)
}

// Marshal encodes the message, computing and prefixing its crc.
func (m *Message) Marshal() []byte {
	body := codec.NewBuilder(32)
	m.encodeBody(body)
	bodyBytes := body.TakeBytes()
	crc := crc32.ChecksumIEEE(bodyBytes)

	out := codec.NewBuilder(4 + len(bodyBytes))
	out.AddInt32(int32(crc))
	return append(out.TakeBytes(), bodyBytes...)
}

// Unmarshal decodes a single Message from r and verifies its crc.
// ErrCorruptMessage is returned when the computed crc does not
// match the one on the wire.
func Unmarshal(r *codec.Reader) (*Message, error) {
	wantCRC, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	bodyStart := r.Position()

	m := &Message{}
	if m.Magic, err = r.ReadInt8(); err != nil {
		return nil, err
	}
	if m.Attributes, err = r.ReadInt8(); err != nil {
		return nil, err
	}
	if m.Timestamp, err = r.ReadInt64(); err != nil {
		return nil, err
	}
	if m.Key, err = r.ReadBytes(); err != nil {
		return nil, err
	}
	if m.Value, err = r.ReadBytes(); err != nil {
		return nil, err
	}
	bodyEnd := r.Position()

	gotCRC := int32(crc32.ChecksumIEEE(r.Bytes(bodyStart, bodyEnd)))
	if gotCRC != wantCRC {
		return nil, ErrCorruptMessage
	}
	return m, nil
}
