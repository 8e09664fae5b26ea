package CreateTopics

import "github.com/mkocikowski/corekafka/codec"

type Response struct {
	Topics []TopicResponse
}

type TopicResponse struct {
	Name      string
	ErrorCode int16
}

func Decode(body []byte) (*Response, error) {
	r := codec.NewReader(body)
	resp := &Response{}
	var err error
	resp.Topics, err = codec.ReadArray(r, decodeTopicResponse)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func decodeTopicResponse(r *codec.Reader) (TopicResponse, error) {
	var t TopicResponse
	var err error
	if t.Name, err = r.ReadStringValue(); err != nil {
		return t, err
	}
	if t.ErrorCode, err = r.ReadInt16(); err != nil {
		return t, err
	}
	return t, nil
}

// Encode marshals the response body, the inverse of Decode. This module's
// test fake broker uses it to build canned CreateTopicsResponse fixtures.
func (r *Response) Encode() []byte {
	b := codec.NewBuilder(32)
	codec.AddArray(b, r.Topics, encodeTopicResponse)
	return b.TakeBytes()
}

func encodeTopicResponse(b *codec.Builder, t TopicResponse) {
	b.AddStringValue(t.Name)
	b.AddInt16(t.ErrorCode)
}
