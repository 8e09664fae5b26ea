// Package metadata implements the cluster topology cache: which brokers
// exist, which topic-partitions they host, and who currently leads each
// one. A Cache is owned by exactly one Session (see the session package)
// and never hands out a mutable reference into its internal state — every
// refresh builds a new snapshot and atomically swaps it in, so a caller
// mid-lookup on an old snapshot is unaffected by a concurrent refresh.
package metadata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mkocikowski/corekafka"
	"github.com/mkocikowski/corekafka/api"
	apimetadata "github.com/mkocikowski/corekafka/api/Metadata"
)

// Broker identifies one cluster node. Identity is NodeId: two Broker
// records with the same NodeId but a different (Host,Port) mean the
// topology changed and any cached entry for that id must be replaced.
type Broker struct {
	NodeId int32
	Host   string
	Port   int32
}

// PartitionMetadata describes one partition's replica set and leadership.
// Leader -1 means no leader is currently elected.
type PartitionMetadata struct {
	Partition int32
	Leader    int32
	Replicas  []int32
	Isr       []int32
	ErrorCode int16
}

// TopicMetadata describes one topic's partitions, keyed by partition id.
type TopicMetadata struct {
	Topic      string
	ErrorCode  int16
	Partitions map[int32]PartitionMetadata
}

// ClusterMetadata is an immutable snapshot of cluster topology, holding
// the brokers and topics exactly as the broker returned them. A Leader >= 0
// is not checked against Brokers: a snapshot can name a leader that has no
// entry there.
type ClusterMetadata struct {
	Brokers   map[int32]Broker
	Topics    map[string]TopicMetadata
	FetchedAt time.Time
}

// Sender is the subset of Session's contract the Cache needs: send a
// request to a specific broker address and get back the response body.
// Defined here (not imported from session) to keep metadata from
// depending on the package that owns it.
type Sender interface {
	Send(ctx context.Context, addr string, req *api.Request, expectResponse bool) ([]byte, error)
}

// Cache owns cluster topology for one Session. Safe for concurrent use.
type Cache struct {
	bootstrap []string
	sender    Sender
	ttl       time.Duration

	mu       sync.Mutex
	snapshot *ClusterMetadata
	stale    map[string]bool
	nextBoot int
	inflight *inflightFetch
}

type inflightFetch struct {
	done   chan struct{}
	result *ClusterMetadata
	err    error
}

// New returns a Cache that bootstraps metadata fetches by round-robining
// over bootstrap (a list of host:port strings) and sends them through
// sender. ttl of zero uses corekafka.MetadataTTL.
func New(bootstrap []string, sender Sender, ttl time.Duration) *Cache {
	return &Cache{
		bootstrap: bootstrap,
		sender:    sender,
		ttl:       ttl,
		stale:     make(map[string]bool),
	}
}

// Invalidate marks topics stale. The next FetchTopics call naming any of
// them is guaranteed to refresh rather than serve the cached snapshot.
func (c *Cache) Invalidate(topics ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		c.stale[t] = true
	}
}

// fresh reports whether the current snapshot can satisfy a request for
// topics without a refetch: populated within ttl, none of the requested
// topics marked stale, and every requested topic present with no error and
// every referenced partition leader elected.
func (c *Cache) fresh(topics []string) bool {
	if c.snapshot == nil {
		return false
	}
	ttl := c.ttl
	if ttl == 0 {
		ttl = corekafka.MetadataTTL
	}
	if time.Since(c.snapshot.FetchedAt) > ttl {
		return false
	}
	for _, t := range topics {
		if c.stale[t] {
			return false
		}
		tm, ok := c.snapshot.Topics[t]
		if !ok || tm.ErrorCode != 0 {
			return false
		}
		for _, pm := range tm.Partitions {
			if pm.Leader < 0 {
				return false
			}
		}
	}
	return true
}

// FetchTopics returns a snapshot covering at least topics. If the current
// snapshot is fresh for all of them it is returned as-is; otherwise a
// MetadataRequest is sent to a bootstrap broker and the cache is replaced
// wholesale with the result. Concurrent calls, regardless of which topics
// they name, join a single in-flight request; a caller whose topics are not
// all in that request's result then fetches again.
func (c *Cache) FetchTopics(ctx context.Context, topics []string) (*ClusterMetadata, error) {
	c.mu.Lock()
	if c.fresh(topics) {
		snap := c.snapshot
		c.mu.Unlock()
		return snap, nil
	}
	if f := c.inflight; f != nil {
		c.mu.Unlock()
		<-f.done
		if f.err == nil {
			for _, t := range topics {
				if _, ok := f.result.Topics[t]; !ok {
					return c.FetchTopics(ctx, topics)
				}
			}
		}
		return f.result, f.err
	}
	f := &inflightFetch{done: make(chan struct{})}
	c.inflight = f
	fetchSet := c.unionWithKnown(topics)
	c.mu.Unlock()

	snap, err := c.doFetch(ctx, fetchSet)

	c.mu.Lock()
	if err == nil {
		c.snapshot = snap
		for _, t := range fetchSet {
			delete(c.stale, t)
		}
	}
	c.inflight = nil
	c.mu.Unlock()

	f.result, f.err = snap, err
	close(f.done)
	return snap, err
}

func (c *Cache) unionWithKnown(topics []string) []string {
	set := make(map[string]struct{})
	for _, t := range topics {
		set[t] = struct{}{}
	}
	if c.snapshot != nil {
		for t := range c.snapshot.Topics {
			set[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	return out
}

func (c *Cache) doFetch(ctx context.Context, topics []string) (*ClusterMetadata, error) {
	c.mu.Lock()
	addr := c.bootstrap[c.nextBoot%len(c.bootstrap)]
	c.nextBoot++
	c.mu.Unlock()

	req := apimetadata.NewRequest(topics)
	body, err := c.sender.Send(ctx, addr, req, true)
	if err != nil {
		return nil, fmt.Errorf("error sending metadata request to %s: %w", addr, err)
	}
	resp, err := apimetadata.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("error decoding metadata response from %s: %w", addr, err)
	}
	return fromResponse(resp), nil
}

func fromResponse(resp *apimetadata.Response) *ClusterMetadata {
	cm := &ClusterMetadata{
		Brokers:   make(map[int32]Broker, len(resp.Brokers)),
		Topics:    make(map[string]TopicMetadata, len(resp.TopicMetadata)),
		FetchedAt: time.Now(),
	}
	for _, b := range resp.Brokers {
		cm.Brokers[b.NodeId] = Broker{NodeId: b.NodeId, Host: b.Host, Port: b.Port}
	}
	for _, t := range resp.TopicMetadata {
		tm := TopicMetadata{
			Topic:      t.Topic,
			ErrorCode:  t.ErrorCode,
			Partitions: make(map[int32]PartitionMetadata, len(t.PartitionMetadata)),
		}
		for _, p := range t.PartitionMetadata {
			tm.Partitions[p.Partition] = PartitionMetadata{
				Partition: p.Partition,
				Leader:    p.Leader,
				Replicas:  p.Replicas,
				Isr:       p.Isr,
				ErrorCode: p.ErrorCode,
			}
		}
		cm.Topics[t.Topic] = tm
	}
	return cm
}
