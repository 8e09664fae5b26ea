// Package CreateTopics is used only by this module's own integration tests
// and its admin helper to provision topics before producing to them.
package CreateTopics

import (
	"github.com/mkocikowski/corekafka/api"
	"github.com/mkocikowski/corekafka/codec"
)

func NewRequest(topic string, numPartitions int32, replicationFactor int16) *api.Request {
	return &api.Request{
		ApiKey:     api.CreateTopics,
		ApiVersion: 2,
		Body: &Request{
			Topics: []Topic{{
				Name:              topic,
				NumPartitions:     numPartitions,
				ReplicationFactor: replicationFactor,
			}},
			TimeoutMs: 5000,
		},
	}
}

type Request struct {
	Topics    []Topic
	TimeoutMs int32
}

type Topic struct {
	Name              string
	NumPartitions     int32
	ReplicationFactor int16
}

func (r *Request) Encode(b *codec.Builder) {
	codec.AddArray(b, r.Topics, encodeTopic)
	b.AddInt32(r.TimeoutMs)
	b.AddInt8(0) // validateOnly=false
}

func encodeTopic(b *codec.Builder, t Topic) {
	b.AddStringValue(t.Name)
	b.AddInt32(t.NumPartitions)
	b.AddInt16(t.ReplicationFactor)
	codec.AddArray[int32](b, nil, func(b *codec.Builder, v int32) {}) // assignments: none
	codec.AddArray[int32](b, nil, func(b *codec.Builder, v int32) {}) // configs: none
}
