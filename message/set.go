package message

import "github.com/mkocikowski/corekafka/codec"

// Set is the framed container of one or more messages transmitted in a
// Produce request: a sequence of { offset int64, size int32, message
// Message } entries. On produce the client writes offset=0 placeholders;
// the broker assigns the real base offset and returns it in the response.
type Set []byte

// NewSet marshals messages into a single message set, each with an offset
// placeholder of 0.
func NewSet(messages ...*Message) Set {
	var out []byte
	for _, m := range messages {
		body := m.Marshal()
		entry := codec.NewBuilder(8 + 4 + len(body))
		entry.AddInt64(0)
		entry.AddInt32(int32(len(body)))
		out = append(out, entry.TakeBytes()...)
		out = append(out, body...)
	}
	return Set(out)
}

// Entry is one decoded element of a Set.
type Entry struct {
	Offset  int64
	Size    int32
	Message *Message
}

// Entries parses every entry in the set. A truncated final entry (the
// broker may return a record set whose last entry was cut off to respect a
// response size limit) is silently discarded, matching how fetch responses
// are expected to be handled.
func (s Set) Entries() ([]*Entry, error) {
	r := codec.NewReader(s)
	var entries []*Entry
	for !r.EOF() {
		start := r.Position()
		offset, err := r.ReadInt64()
		if err != nil {
			break // truncated trailing entry
		}
		size, err := r.ReadInt32()
		if err != nil {
			break
		}
		end := start + 8 + 4 + int(size)
		if end > r.Length() {
			break // truncated trailing entry
		}
		msg, err := Unmarshal(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &Entry{Offset: offset, Size: size, Message: msg})
	}
	return entries, nil
}
