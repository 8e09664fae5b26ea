package metadata

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mkocikowski/corekafka/api"
	apimetadata "github.com/mkocikowski/corekafka/api/Metadata"
	"github.com/stretchr/testify/require"
)

// fakeSender is a mock Sender that answers every request with a canned
// MetadataResponse and counts how many times it was actually invoked, so
// tests can assert on wire-level call counts without a real broker.
type fakeSender struct {
	mu    sync.Mutex
	calls int32
	delay time.Duration
	resp  *apimetadata.Response
}

func (f *fakeSender) Send(ctx context.Context, addr string, req *api.Request, expectResponse bool) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	resp := f.resp
	f.mu.Unlock()
	return resp.Encode(), nil
}

func cannedResponse() *apimetadata.Response {
	return &apimetadata.Response{
		Brokers: []apimetadata.Broker{{NodeId: 1, Host: "localhost", Port: 9092}},
		TopicMetadata: []apimetadata.TopicMetadata{
			{
				Topic: "t1",
				PartitionMetadata: []apimetadata.PartitionMetadata{
					{Partition: 0, Leader: 1, Replicas: []int32{1}, Isr: []int32{1}},
				},
			},
		},
	}
}

func TestFetchTopicsFetchesOnEmptyCache(t *testing.T) {
	fs := &fakeSender{resp: cannedResponse()}
	c := New([]string{"b1:9092"}, fs, time.Minute)

	cm, err := c.FetchTopics(context.Background(), []string{"t1"})
	require.NoError(t, err)
	require.Contains(t, cm.Topics, "t1")
	require.EqualValues(t, 1, atomic.LoadInt32(&fs.calls))
}

func TestFetchTopicsServesFreshSnapshotWithoutRefetch(t *testing.T) {
	fs := &fakeSender{resp: cannedResponse()}
	c := New([]string{"b1:9092"}, fs, time.Minute)

	_, err := c.FetchTopics(context.Background(), []string{"t1"})
	require.NoError(t, err)
	_, err = c.FetchTopics(context.Background(), []string{"t1"})
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(&fs.calls))
}

func TestFetchTopicsRefetchesAfterTTLExpires(t *testing.T) {
	fs := &fakeSender{resp: cannedResponse()}
	c := New([]string{"b1:9092"}, fs, time.Millisecond)

	_, err := c.FetchTopics(context.Background(), []string{"t1"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = c.FetchTopics(context.Background(), []string{"t1"})
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&fs.calls))
}

func TestInvalidateForcesRefresh(t *testing.T) {
	fs := &fakeSender{resp: cannedResponse()}
	c := New([]string{"b1:9092"}, fs, time.Minute)

	_, err := c.FetchTopics(context.Background(), []string{"t1"})
	require.NoError(t, err)
	c.Invalidate("t1")
	_, err = c.FetchTopics(context.Background(), []string{"t1"})
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&fs.calls))
}

func TestUnknownLeaderTriggersRefetch(t *testing.T) {
	fs := &fakeSender{resp: &apimetadata.Response{
		Brokers: []apimetadata.Broker{{NodeId: 1, Host: "localhost", Port: 9092}},
		TopicMetadata: []apimetadata.TopicMetadata{
			{
				Topic: "t1",
				PartitionMetadata: []apimetadata.PartitionMetadata{
					{Partition: 0, Leader: -1},
				},
			},
		},
	}}
	c := New([]string{"b1:9092"}, fs, time.Minute)

	_, err := c.FetchTopics(context.Background(), []string{"t1"})
	require.NoError(t, err)
	_, err = c.FetchTopics(context.Background(), []string{"t1"})
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&fs.calls))
}

func TestTopicErrorCodeTriggersRefetch(t *testing.T) {
	fs := &fakeSender{resp: &apimetadata.Response{
		TopicMetadata: []apimetadata.TopicMetadata{
			{Topic: "t1", ErrorCode: 3}, // unknown topic or partition
		},
	}}
	c := New([]string{"b1:9092"}, fs, time.Minute)

	_, err := c.FetchTopics(context.Background(), []string{"t1"})
	require.NoError(t, err)
	_, err = c.FetchTopics(context.Background(), []string{"t1"})
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&fs.calls))
}

// TestConcurrentFetchesCoalesce asserts that N concurrent FetchTopics calls
// naming the same topic, issued against an empty cache, coalesce into
// exactly one MetadataRequest on the wire.
func TestConcurrentFetchesCoalesce(t *testing.T) {
	fs := &fakeSender{resp: cannedResponse(), delay: 20 * time.Millisecond}
	c := New([]string{"b1:9092"}, fs, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.FetchTopics(context.Background(), []string{"t1"})
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, atomic.LoadInt32(&fs.calls))
}

func TestUnionWithKnownPreservesPreviouslyCachedTopics(t *testing.T) {
	fs := &fakeSender{resp: &apimetadata.Response{
		TopicMetadata: []apimetadata.TopicMetadata{
			{
				Topic: "t1",
				PartitionMetadata: []apimetadata.PartitionMetadata{
					{Partition: 0, Leader: 1},
				},
			},
		},
	}}
	c := New([]string{"b1:9092"}, fs, time.Minute)
	_, err := c.FetchTopics(context.Background(), []string{"t1"})
	require.NoError(t, err)

	fs.mu.Lock()
	fs.resp = &apimetadata.Response{
		TopicMetadata: []apimetadata.TopicMetadata{
			{Topic: "t1", PartitionMetadata: []apimetadata.PartitionMetadata{{Partition: 0, Leader: 1}}},
			{Topic: "t2", PartitionMetadata: []apimetadata.PartitionMetadata{{Partition: 0, Leader: 1}}},
		},
	}
	fs.mu.Unlock()
	c.Invalidate("t2")

	cm, err := c.FetchTopics(context.Background(), []string{"t2"})
	require.NoError(t, err)
	require.Contains(t, cm.Topics, "t1")
	require.Contains(t, cm.Topics, "t2")
}
