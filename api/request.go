package api

import "github.com/mkocikowski/corekafka/codec"

// Body is implemented by each API's request type (Metadata.Request,
// Produce.Request, ...). Encode writes the body's fields, in order, to b.
type Body interface {
	Encode(b *codec.Builder)
}

// Request is the envelope every API call is framed in:
// { size, apiKey, apiVersion, correlationId, clientId, body }, with size
// covering everything after itself.
type Request struct {
	ApiKey        int16
	ApiVersion    int16
	CorrelationId int32
	ClientId      string
	Body          Body
}

// Bytes encodes the full framed request, including the leading int32 size
// prefix.
func (r *Request) Bytes() []byte {
	b := codec.NewBuilder(256)
	b.AddInt16(r.ApiKey)
	b.AddInt16(r.ApiVersion)
	b.AddInt32(r.CorrelationId)
	b.AddStringValue(r.ClientId)
	if r.Body != nil {
		r.Body.Encode(b)
	}
	body := b.TakeBytes()

	out := codec.NewBuilder(4 + len(body))
	out.AddInt32(int32(len(body)))
	return append(out.TakeBytes(), body...)
}
