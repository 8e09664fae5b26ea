// Package producer implements the single-partition producer dispatch path:
// serialize an application record, resolve its partition's leader through
// the metadata cache, send a ProduceRequest, and classify the result.
// Routes through a Session rather than a single fixed partition connection,
// since leadership can move mid-lifetime and a send must be able to
// refresh and retry against a new leader.
package producer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkocikowski/corekafka"
	"github.com/mkocikowski/corekafka/api/Produce"
	"github.com/mkocikowski/corekafka/message"
	"github.com/mkocikowski/corekafka/metadata"
	"github.com/mkocikowski/corekafka/metrics"
	"github.com/mkocikowski/corekafka/session"
)

// ProducerConfig holds the options listed in the external interface table.
// Construct with NewProducerConfig to get documented defaults; BootstrapServers
// still must be set by the caller.
type ProducerConfig struct {
	BootstrapServers                 []string
	Acks                             int16
	TimeoutMs                        int32
	Retries                          int
	ClientId                         string
	MaxRequestSize                   int
	MaxInFlightRequestsPerConnection int
}

// NewProducerConfig returns a ProducerConfig with every option at its
// documented default, per the external interfaces table: acks=1,
// timeoutMs=30000, retries=0, clientId="", maxRequestSize=1048576,
// maxInFlightRequestsPerConnection=5. BootstrapServers is left empty; the
// caller must supply it.
func NewProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		Acks:                             1,
		TimeoutMs:                        30000,
		Retries:                          0,
		ClientId:                         "",
		MaxRequestSize:                   1048576,
		MaxInFlightRequestsPerConnection: 5,
	}
}

// ProducerRecord is one record to send. Partition selects a fixed partition
// directly; this core does not implement a partitioner. Timestamp, if nil,
// defaults to send time.
type ProducerRecord struct {
	Topic     string
	Partition int32
	Key       []byte
	Value     []byte
	Timestamp *time.Time
}

// TopicPartition identifies the routing key a ProduceResult was delivered to.
type TopicPartition struct {
	Topic     string
	Partition int32
}

// ProduceResult is returned by a successful Send. Offset and Timestamp are
// -1 when Acks is 0, since no broker response is awaited in that case.
type ProduceResult struct {
	TopicPartition TopicPartition
	Offset         int64
	Timestamp      int64
}

// Producer turns ProducerRecords into wire-level ProduceRequests against a
// Session's metadata-resolved leaders, retrying retriable routing errors up
// to Config.Retries times with refreshed metadata in between.
type Producer struct {
	Config     *ProducerConfig
	InstanceId uuid.UUID

	session *session.Session
}

// New returns a Producer that resolves leaders and sends through a new
// Session bootstrapped from cfg.BootstrapServers.
func New(cfg *ProducerConfig) *Producer {
	return &Producer{
		Config:     cfg,
		InstanceId: uuid.New(),
		session:    session.New(cfg.BootstrapServers, cfg.ClientId),
	}
}

// Close closes the Producer's Session and every pooled connection it holds.
func (p *Producer) Close() error {
	return p.session.Close()
}

// Send implements the nine-step dispatch pipeline from the producer
// component design: build the message set, resolve the leader through the
// metadata cache, send, classify the result, and retry retriable routing
// errors with refreshed metadata.
func (p *Producer) Send(ctx context.Context, record *ProducerRecord) (*ProduceResult, error) {
	ts := time.Now()
	if record.Timestamp != nil {
		ts = *record.Timestamp
	}
	set := message.NewSet(message.New(record.Key, record.Value, ts.UnixMilli()))

	if err := p.checkSize(record.Topic, record.Partition, set); err != nil {
		return nil, err
	}

	tp := TopicPartition{Topic: record.Topic, Partition: record.Partition}

	start := time.Now()
	defer func() { metrics.SendLatency.Observe(time.Since(start).Seconds()) }()

	var lastErr error
	for attempt := 0; attempt <= p.Config.Retries; attempt++ {
		if attempt > 0 {
			metrics.RetriesTotal.Inc()
			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, retriable, err := p.sendOnce(ctx, record.Topic, record.Partition, set)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retriable {
			return nil, err
		}
		p.session.Cache.Invalidate(record.Topic)
	}
	return nil, fmt.Errorf("producer: send to %s/%d failed after %d retries: %w", tp.Topic, tp.Partition, p.Config.Retries, lastErr)
}

// checkSize pre-flight checks the fully framed request against
// Config.MaxRequestSize before any I/O, per the MessageTooLarge error kind.
func (p *Producer) checkSize(topic string, partition int32, set message.Set) error {
	req := Produce.NewRequest(p.Config.Acks, p.Config.TimeoutMs, topic, partition, []byte(set))
	if len(req.Bytes()) > p.Config.MaxRequestSize {
		return fmt.Errorf("producer: encoded request for %s/%d exceeds max request size %d: %w", topic, partition, p.Config.MaxRequestSize, corekafka.ErrMessageTooLarge)
	}
	return nil
}

// sendOnce resolves the leader and issues a single ProduceRequest. The
// returned bool reports whether a non-nil error is a retriable routing
// error (caller should invalidate and retry) as opposed to a terminal one.
func (p *Producer) sendOnce(ctx context.Context, topic string, partition int32, set message.Set) (*ProduceResult, bool, error) {
	meta, err := p.session.Cache.FetchTopics(ctx, []string{topic})
	if err != nil {
		return nil, true, fmt.Errorf("producer: error fetching metadata for %s: %w", topic, err)
	}

	tm, ok := meta.Topics[topic]
	if !ok {
		return nil, true, fmt.Errorf("producer: topic %s not found: %w", topic, corekafka.ErrNoLeader)
	}
	if tm.ErrorCode != 0 {
		return nil, corekafka.NewError(tm.ErrorCode).(*corekafka.Error).Retriable(), corekafka.NewError(tm.ErrorCode)
	}
	pm, ok := tm.Partitions[partition]
	if !ok {
		return nil, true, fmt.Errorf("producer: partition %s/%d not found: %w", topic, partition, corekafka.ErrNoLeader)
	}
	if pm.Leader < 0 {
		return nil, true, fmt.Errorf("producer: partition %s/%d has no leader: %w", topic, partition, corekafka.ErrNoLeader)
	}
	if pm.ErrorCode != 0 {
		cerr := corekafka.NewError(pm.ErrorCode).(*corekafka.Error)
		return nil, cerr.Retriable(), cerr
	}
	broker, ok := meta.Brokers[pm.Leader]
	if !ok {
		return nil, true, fmt.Errorf("producer: leader broker %d for %s/%d not in cluster metadata: %w", pm.Leader, topic, partition, corekafka.ErrNoLeader)
	}

	req := Produce.NewRequest(p.Config.Acks, p.Config.TimeoutMs, topic, partition, []byte(set))
	addr := brokerAddr(broker)

	tp := TopicPartition{Topic: topic, Partition: partition}

	if p.Config.Acks == 0 {
		if _, err := p.session.Send(ctx, addr, req, false); err != nil {
			return nil, true, fmt.Errorf("producer: error sending to %s: %w", addr, err)
		}
		return &ProduceResult{TopicPartition: tp, Offset: -1, Timestamp: -1}, false, nil
	}

	body, err := p.session.Send(ctx, addr, req, true)
	if err != nil {
		return nil, true, fmt.Errorf("producer: error sending to %s: %w", addr, err)
	}
	resp, err := Produce.Decode(body)
	if err != nil {
		return nil, false, fmt.Errorf("producer: error decoding response from %s: %w", addr, err)
	}
	pr, err := resp.Single()
	if err != nil {
		return nil, false, fmt.Errorf("producer: malformed response from %s: %w", addr, err)
	}
	if pr.ErrorCode != 0 {
		cerr := corekafka.NewError(pr.ErrorCode).(*corekafka.Error)
		return nil, cerr.Retriable(), cerr
	}
	return &ProduceResult{
		TopicPartition: tp,
		Offset:         pr.BaseOffset,
		Timestamp:      pr.LogAppendTime,
	}, false, nil
}

func brokerAddr(b metadata.Broker) string {
	return fmt.Sprintf("%s:%d", b.Host, b.Port)
}

// backoff implements the recommended 100ms-base, 1s-capped retry delay.
func backoff(attempt int) time.Duration {
	d := time.Duration(attempt) * 100 * time.Millisecond
	if d > time.Second {
		d = time.Second
	}
	return d
}
