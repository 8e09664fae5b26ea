package Produce

import "github.com/mkocikowski/corekafka/codec"

// Response is ProduceResponse v2:
// array<{topic, partitions: array<{partition, errorCode, baseOffset,
// logAppendTime}>}>, throttleTimeMs.
type Response struct {
	Topics         []TopicResponse
	ThrottleTimeMs int32
}

type TopicResponse struct {
	Topic      string
	Partitions []PartitionResponse
}

type PartitionResponse struct {
	Partition     int32
	ErrorCode     int16
	BaseOffset    int64
	LogAppendTime int64
}

// Decode parses a ProduceResponse v2 body.
func Decode(body []byte) (*Response, error) {
	r := codec.NewReader(body)
	resp := &Response{}
	var err error
	resp.Topics, err = codec.ReadArray(r, decodeTopicResponse)
	if err != nil {
		return nil, err
	}
	resp.ThrottleTimeMs, err = r.ReadInt32()
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func decodeTopicResponse(r *codec.Reader) (TopicResponse, error) {
	var t TopicResponse
	var err error
	if t.Topic, err = r.ReadStringValue(); err != nil {
		return t, err
	}
	if t.Partitions, err = codec.ReadArray(r, decodePartitionResponse); err != nil {
		return t, err
	}
	return t, nil
}

func decodePartitionResponse(r *codec.Reader) (PartitionResponse, error) {
	var p PartitionResponse
	var err error
	if p.Partition, err = r.ReadInt32(); err != nil {
		return p, err
	}
	if p.ErrorCode, err = r.ReadInt16(); err != nil {
		return p, err
	}
	if p.BaseOffset, err = r.ReadInt64(); err != nil {
		return p, err
	}
	if p.LogAppendTime, err = r.ReadInt64(); err != nil {
		return p, err
	}
	return p, nil
}

// Encode marshals the response body, the inverse of Decode. This module's
// test fake broker uses it to build canned ProduceResponse fixtures.
func (r *Response) Encode() []byte {
	b := codec.NewBuilder(64)
	codec.AddArray(b, r.Topics, encodeTopicResponse)
	b.AddInt32(r.ThrottleTimeMs)
	return b.TakeBytes()
}

func encodeTopicResponse(b *codec.Builder, t TopicResponse) {
	b.AddStringValue(t.Topic)
	codec.AddArray(b, t.Partitions, encodePartitionResponse)
}

func encodePartitionResponse(b *codec.Builder, p PartitionResponse) {
	b.AddInt32(p.Partition)
	b.AddInt16(p.ErrorCode)
	b.AddInt64(p.BaseOffset)
	b.AddInt64(p.LogAppendTime)
}

// Single returns the lone topic/partition result this package's producer
// expects, erroring if the response doesn't have exactly one of each
// (which would indicate a broker or framing bug, not a normal error code).
func (r *Response) Single() (*PartitionResponse, error) {
	if len(r.Topics) != 1 {
		return nil, &UnexpectedShapeError{"topic", len(r.Topics)}
	}
	if len(r.Topics[0].Partitions) != 1 {
		return nil, &UnexpectedShapeError{"partition", len(r.Topics[0].Partitions)}
	}
	return &r.Topics[0].Partitions[0], nil
}

// UnexpectedShapeError is returned by Single when the response does not
// carry exactly one topic and one partition result.
type UnexpectedShapeError struct {
	What string
	N    int
}

func (e *UnexpectedShapeError) Error() string {
	return "unexpected number of " + e.What + " responses"
}
