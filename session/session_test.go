package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mkocikowski/corekafka/api"
	"github.com/mkocikowski/corekafka/api/ApiVersions"
	"github.com/mkocikowski/corekafka/api/Metadata"
	"github.com/mkocikowski/corekafka/internal/fakebroker"
	"github.com/stretchr/testify/require"
)

func TestSendConnectsAndRoundTrips(t *testing.T) {
	b, err := fakebroker.Start()
	require.NoError(t, err)
	defer b.Close()
	b.Handle(api.Metadata, func(apiVersion int16, body []byte) []byte {
		return (&Metadata.Response{Brokers: []Metadata.Broker{{NodeId: 1, Host: "localhost", Port: 9092}}}).Encode()
	})

	s := New([]string{b.Addr()}, "test-client")
	defer s.Close()

	body, err := s.Send(context.Background(), b.Addr(), Metadata.NewRequest([]string{"t1"}), true)
	require.NoError(t, err)
	resp, err := Metadata.Decode(body)
	require.NoError(t, err)
	require.Equal(t, int32(1), resp.Brokers[0].NodeId)
}

// TestConcurrentSendsDedupConnect asserts that N concurrent Send calls to a
// fresh Session's first-seen broker address result in exactly one TCP
// connect, not N.
func TestConcurrentSendsDedupConnect(t *testing.T) {
	b, err := fakebroker.Start()
	require.NoError(t, err)
	defer b.Close()

	b.Handle(api.Metadata, func(apiVersion int16, body []byte) []byte {
		return (&Metadata.Response{}).Encode()
	})

	s := New([]string{b.Addr()}, "test-client")
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Send(context.Background(), b.Addr(), Metadata.NewRequest([]string{"t1"}), true)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	s.mu.Lock()
	_, ok := s.conns[b.Addr()]
	s.mu.Unlock()
	require.True(t, ok)
	require.EqualValues(t, 1, b.Accepts())
}

func TestSendReusesPooledConnection(t *testing.T) {
	b, err := fakebroker.Start()
	require.NoError(t, err)
	defer b.Close()
	var calls int32
	b.Handle(api.Metadata, func(apiVersion int16, body []byte) []byte {
		atomic.AddInt32(&calls, 1)
		return (&Metadata.Response{}).Encode()
	})

	s := New([]string{b.Addr()}, "test-client")
	defer s.Close()

	_, err = s.Send(context.Background(), b.Addr(), Metadata.NewRequest([]string{"t1"}), true)
	require.NoError(t, err)
	s.mu.Lock()
	c1 := s.conns[b.Addr()]
	s.mu.Unlock()

	_, err = s.Send(context.Background(), b.Addr(), Metadata.NewRequest([]string{"t1"}), true)
	require.NoError(t, err)
	s.mu.Lock()
	c2 := s.conns[b.Addr()]
	s.mu.Unlock()

	require.Same(t, c1, c2)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCloseFailsFutureSends(t *testing.T) {
	b, err := fakebroker.Start()
	require.NoError(t, err)
	defer b.Close()
	b.Handle(api.Metadata, func(apiVersion int16, body []byte) []byte {
		return (&Metadata.Response{}).Encode()
	})

	s := New([]string{b.Addr()}, "test-client")
	_, err = s.Send(context.Background(), b.Addr(), Metadata.NewRequest([]string{"t1"}), true)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	_, err = s.Send(context.Background(), b.Addr(), Metadata.NewRequest([]string{"t1"}), true)
	require.Error(t, err)
}

func TestNegotiateVersions(t *testing.T) {
	b, err := fakebroker.Start()
	require.NoError(t, err)
	defer b.Close()
	b.Handle(api.ApiVersions, func(apiVersion int16, body []byte) []byte {
		return (&ApiVersions.Response{
			ApiKeys: []ApiVersions.ApiKeyVersion{
				{ApiKey: api.Produce, MinVersion: 0, MaxVersion: 2},
			},
		}).Encode()
	})

	s := New([]string{b.Addr()}, "test-client")
	defer s.Close()

	resp, err := s.NegotiateVersions(context.Background(), b.Addr())
	require.NoError(t, err)
	require.EqualValues(t, 2, resp.Max(api.Produce))
}

func TestSessionFeedsMetadataCache(t *testing.T) {
	b, err := fakebroker.Start()
	require.NoError(t, err)
	defer b.Close()
	b.Handle(api.Metadata, func(apiVersion int16, body []byte) []byte {
		return (&Metadata.Response{
			Brokers: []Metadata.Broker{{NodeId: 1, Host: "localhost", Port: 9092}},
			TopicMetadata: []Metadata.TopicMetadata{
				{Topic: "t1", PartitionMetadata: []Metadata.PartitionMetadata{{Partition: 0, Leader: 1}}},
			},
		}).Encode()
	})

	s := New([]string{b.Addr()}, "test-client")
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	cm, err := s.Cache.FetchTopics(ctx, []string{"t1"})
	require.NoError(t, err)
	require.Contains(t, cm.Topics, "t1")
}
