package api

import "github.com/mkocikowski/corekafka/codec"

// SplitCorrelationId reads the leading int32 correlation id off a response
// frame body (the bytes following the envelope's size prefix, which the
// Broker Connection has already consumed off the wire) and returns it along
// with the remaining bytes — the API-specific response body, ready to be
// handed to that API's own Decode function.
func SplitCorrelationId(frame []byte) (correlationId int32, body []byte, err error) {
	r := codec.NewReader(frame)
	correlationId, err = r.ReadInt32()
	if err != nil {
		return 0, nil, err
	}
	return correlationId, frame[r.Position():], nil
}
