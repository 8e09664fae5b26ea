// Package Metadata implements MetadataRequest/Response v0: the call the
// metadata cache uses to discover brokers, topics, and partition leaders.
package Metadata

import (
	"github.com/mkocikowski/corekafka/api"
	"github.com/mkocikowski/corekafka/codec"
)

// NewRequest builds a v0 MetadataRequest for topics. An empty or nil slice
// means "all topics".
func NewRequest(topics []string) *api.Request {
	if topics == nil {
		topics = []string{}
	}
	return &api.Request{
		ApiKey:     api.Metadata,
		ApiVersion: 0,
		Body:       &Request{Topics: topics},
	}
}

type Request struct {
	Topics []string
}

func (r *Request) Encode(b *codec.Builder) {
	codec.AddArray(b, r.Topics, func(b *codec.Builder, s string) { b.AddStringValue(s) })
}
