package ApiVersions

import "github.com/mkocikowski/corekafka/codec"

type Response struct {
	ErrorCode int16
	ApiKeys   []ApiKeyVersion
}

type ApiKeyVersion struct {
	ApiKey     int16
	MinVersion int16
	MaxVersion int16
}

func Decode(body []byte) (*Response, error) {
	r := codec.NewReader(body)
	resp := &Response{}
	var err error
	if resp.ErrorCode, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	resp.ApiKeys, err = codec.ReadArray(r, decodeApiKeyVersion)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func decodeApiKeyVersion(r *codec.Reader) (ApiKeyVersion, error) {
	var v ApiKeyVersion
	var err error
	if v.ApiKey, err = r.ReadInt16(); err != nil {
		return v, err
	}
	if v.MinVersion, err = r.ReadInt16(); err != nil {
		return v, err
	}
	if v.MaxVersion, err = r.ReadInt16(); err != nil {
		return v, err
	}
	return v, nil
}

// Encode marshals the response body, the inverse of Decode. This module's
// test fake broker uses it to build canned ApiVersionsResponse fixtures.
func (r *Response) Encode() []byte {
	b := codec.NewBuilder(32)
	b.AddInt16(r.ErrorCode)
	codec.AddArray(b, r.ApiKeys, encodeApiKeyVersion)
	return b.TakeBytes()
}

func encodeApiKeyVersion(b *codec.Builder, v ApiKeyVersion) {
	b.AddInt16(v.ApiKey)
	b.AddInt16(v.MinVersion)
	b.AddInt16(v.MaxVersion)
}

// Max returns the max supported version for apiKey, or -1 if the broker
// didn't report one.
func (r *Response) Max(apiKey int16) int16 {
	for _, v := range r.ApiKeys {
		if v.ApiKey == apiKey {
			return v.MaxVersion
		}
	}
	return -1
}
