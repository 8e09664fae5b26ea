// Package Produce implements ProduceRequest/Response v2.
package Produce

import (
	"github.com/mkocikowski/corekafka/api"
	"github.com/mkocikowski/corekafka/codec"
)

// NewRequest builds a v2 ProduceRequest carrying a single topic-partition's
// already-encoded message set. The client core sends one record per
// request; batching multiple topics/partitions into one call is supported
// by the schema but not exercised by the producer package.
func NewRequest(acks int16, timeoutMs int32, topic string, partition int32, messageSet []byte) *api.Request {
	return &api.Request{
		ApiKey:     api.Produce,
		ApiVersion: 2,
		Body: &Request{
			Acks:      acks,
			TimeoutMs: timeoutMs,
			Topics: []TopicData{{
				Topic: topic,
				Partitions: []PartitionData{{
					Partition:  partition,
					MessageSet: messageSet,
				}},
			}},
		},
	}
}

type Request struct {
	Acks      int16
	TimeoutMs int32
	Topics    []TopicData
}

type TopicData struct {
	Topic      string
	Partitions []PartitionData
}

type PartitionData struct {
	Partition  int32
	MessageSet []byte
}

func (r *Request) Encode(b *codec.Builder) {
	b.AddInt16(r.Acks)
	b.AddInt32(r.TimeoutMs)
	codec.AddArray(b, r.Topics, encodeTopicData)
}

func encodeTopicData(b *codec.Builder, t TopicData) {
	b.AddStringValue(t.Topic)
	codec.AddArray(b, t.Partitions, encodePartitionData)
}

func encodePartitionData(b *codec.Builder, p PartitionData) {
	b.AddInt32(p.Partition)
	b.AddBytes(p.MessageSet)
}
