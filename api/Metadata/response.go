package Metadata

import (
	"net"
	"strconv"

	"github.com/mkocikowski/corekafka/codec"
)

// Response is MetadataResponse v0: array<Broker>, array<TopicMetadata>.
type Response struct {
	Brokers       []Broker
	TopicMetadata []TopicMetadata
}

type Broker struct {
	NodeId int32
	Host   string
	Port   int32
}

// Addr returns the broker's host:port, ready to dial.
func (b *Broker) Addr() string {
	return net.JoinHostPort(b.Host, strconv.Itoa(int(b.Port)))
}

type TopicMetadata struct {
	ErrorCode         int16
	Topic             string
	PartitionMetadata []PartitionMetadata
}

type PartitionMetadata struct {
	ErrorCode int16
	Partition int32
	Leader    int32
	Replicas  []int32
	Isr       []int32
}

// Decode parses a MetadataResponse v0 body (the bytes after the response
// envelope's correlation id).
func Decode(body []byte) (*Response, error) {
	r := codec.NewReader(body)
	resp := &Response{}
	var err error
	resp.Brokers, err = codec.ReadArray(r, decodeBroker)
	if err != nil {
		return nil, err
	}
	resp.TopicMetadata, err = codec.ReadArray(r, decodeTopicMetadata)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func decodeBroker(r *codec.Reader) (Broker, error) {
	var b Broker
	var err error
	if b.NodeId, err = r.ReadInt32(); err != nil {
		return b, err
	}
	if b.Host, err = r.ReadStringValue(); err != nil {
		return b, err
	}
	if b.Port, err = r.ReadInt32(); err != nil {
		return b, err
	}
	return b, nil
}

func decodePartitionMetadata(r *codec.Reader) (PartitionMetadata, error) {
	var p PartitionMetadata
	var err error
	if p.ErrorCode, err = r.ReadInt16(); err != nil {
		return p, err
	}
	if p.Partition, err = r.ReadInt32(); err != nil {
		return p, err
	}
	if p.Leader, err = r.ReadInt32(); err != nil {
		return p, err
	}
	if p.Replicas, err = codec.ReadArray(r, func(r *codec.Reader) (int32, error) { return r.ReadInt32() }); err != nil {
		return p, err
	}
	if p.Isr, err = codec.ReadArray(r, func(r *codec.Reader) (int32, error) { return r.ReadInt32() }); err != nil {
		return p, err
	}
	return p, nil
}

func decodeTopicMetadata(r *codec.Reader) (TopicMetadata, error) {
	var t TopicMetadata
	var err error
	if t.ErrorCode, err = r.ReadInt16(); err != nil {
		return t, err
	}
	if t.Topic, err = r.ReadStringValue(); err != nil {
		return t, err
	}
	if t.PartitionMetadata, err = codec.ReadArray(r, decodePartitionMetadata); err != nil {
		return t, err
	}
	return t, nil
}

// Encode marshals the response body, the inverse of Decode. Real brokers
// are the only ones that normally need this; this module's test fake
// broker uses it to build canned MetadataResponse fixtures.
func (r *Response) Encode() []byte {
	b := codec.NewBuilder(128)
	codec.AddArray(b, r.Brokers, encodeBroker)
	codec.AddArray(b, r.TopicMetadata, encodeTopicMetadata)
	return b.TakeBytes()
}

func encodeBroker(b *codec.Builder, broker Broker) {
	b.AddInt32(broker.NodeId)
	b.AddStringValue(broker.Host)
	b.AddInt32(broker.Port)
}

func encodePartitionMetadata(b *codec.Builder, p PartitionMetadata) {
	b.AddInt16(p.ErrorCode)
	b.AddInt32(p.Partition)
	b.AddInt32(p.Leader)
	codec.AddArray(b, p.Replicas, func(b *codec.Builder, v int32) { b.AddInt32(v) })
	codec.AddArray(b, p.Isr, func(b *codec.Builder, v int32) { b.AddInt32(v) })
}

func encodeTopicMetadata(b *codec.Builder, t TopicMetadata) {
	b.AddInt16(t.ErrorCode)
	b.AddStringValue(t.Topic)
	codec.AddArray(b, t.PartitionMetadata, encodePartitionMetadata)
}

// Broker looks up a broker by node id, or nil if not present.
func (r *Response) Broker(id int32) *Broker {
	for i := range r.Brokers {
		if r.Brokers[i].NodeId == id {
			return &r.Brokers[i]
		}
	}
	return nil
}

// Topic looks up topic metadata by name, or nil if not present.
func (r *Response) Topic(name string) *TopicMetadata {
	for i := range r.TopicMetadata {
		if r.TopicMetadata[i].Topic == name {
			return &r.TopicMetadata[i]
		}
	}
	return nil
}
