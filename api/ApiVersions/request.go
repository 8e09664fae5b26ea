// Package ApiVersions implements the optional version-negotiation
// handshake that Session.NegotiateVersions sends on request. Off by
// default: this client's default request versions (Metadata v0, Produce
// v2) are fixed by the protocol this package targets, and do not need to
// be negotiated to talk to a broker that supports them.
package ApiVersions

import (
	"github.com/mkocikowski/corekafka/api"
	"github.com/mkocikowski/corekafka/codec"
)

func NewRequest() *api.Request {
	return &api.Request{
		ApiKey:     api.ApiVersions,
		ApiVersion: 0,
		Body:       &Request{},
	}
}

type Request struct{}

func (r *Request) Encode(b *codec.Builder) {}
