package conn

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mkocikowski/corekafka"
	"github.com/mkocikowski/corekafka/api"
	"github.com/mkocikowski/corekafka/api/Metadata"
	"github.com/mkocikowski/corekafka/internal/fakebroker"
	"github.com/stretchr/testify/require"
)

func echoMetadataHandler(calls *int32) fakebroker.Handler {
	return func(apiVersion int16, body []byte) []byte {
		atomic.AddInt32(calls, 1)
		return (&Metadata.Response{
			Brokers: []Metadata.Broker{{NodeId: 1, Host: "localhost", Port: 9092}},
		}).Encode()
	}
}

func TestSendReceive(t *testing.T) {
	b, err := fakebroker.Start()
	require.NoError(t, err)
	defer b.Close()

	var calls int32
	b.Handle(api.Metadata, echoMetadataHandler(&calls))

	c := New(b.Addr(), "test-client")
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	req := Metadata.NewRequest([]string{"t1"})
	body, err := c.Send(context.Background(), req, true)
	require.NoError(t, err)
	resp, err := Metadata.Decode(body)
	require.NoError(t, err)
	require.Equal(t, int32(1), resp.Brokers[0].NodeId)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCorrelationIdUniqueBeforeWraparound(t *testing.T) {
	b, err := fakebroker.Start()
	require.NoError(t, err)
	defer b.Close()
	b.Handle(api.Metadata, func(apiVersion int16, body []byte) []byte {
		return (&Metadata.Response{}).Encode()
	})

	c := New(b.Addr(), "test-client")
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	seen := make(map[int32]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := c.nextId()
			mu.Lock()
			require.False(t, seen[id])
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Len(t, seen, 50)
}

func TestNoResponseExpectedReturnsImmediately(t *testing.T) {
	b, err := fakebroker.Start()
	require.NoError(t, err)
	defer b.Close()
	// The frame still goes out on the wire; only the response waiter is
	// skipped, so the broker's reply is discarded as an unknown id.
	var calls int32
	b.Handle(api.Metadata, func(apiVersion int16, body []byte) []byte {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	c := New(b.Addr(), "test-client")
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	req := Metadata.NewRequest([]string{"t1"})
	body, err := c.Send(context.Background(), req, false)
	require.NoError(t, err)
	require.Nil(t, body)
	c.mu.Lock()
	require.Len(t, c.pending, 0)
	c.mu.Unlock()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
}

func TestRequestTimeout(t *testing.T) {
	b, err := fakebroker.Start()
	require.NoError(t, err)
	defer b.Close()
	b.Handle(api.Metadata, func(apiVersion int16, body []byte) []byte {
		return (&Metadata.Response{}).Encode()
	})
	b.DelayResponses(200 * time.Millisecond)

	c := New(b.Addr(), "test-client")
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Send(ctx, Metadata.NewRequest([]string{"t1"}), true)
	require.ErrorIs(t, err, corekafka.ErrRequestTimedOut)
	require.Equal(t, Ready, c.State())
}

func TestConnectionLostBreaksConnAndFailsPending(t *testing.T) {
	b, err := fakebroker.Start()
	require.NoError(t, err)
	defer b.Close()
	b.Handle(api.Metadata, func(apiVersion int16, body []byte) []byte {
		return (&Metadata.Response{}).Encode()
	})
	b.DropAfter(0)

	c := New(b.Addr(), "test-client")
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	_, err = c.Send(context.Background(), Metadata.NewRequest([]string{"t1"}), true)
	require.ErrorIs(t, err, corekafka.ErrConnectionLost)

	require.Eventually(t, func() bool { return c.State() == Broken }, time.Second, 5*time.Millisecond)

	_, err = c.Send(context.Background(), Metadata.NewRequest([]string{"t1"}), true)
	require.ErrorIs(t, err, corekafka.ErrConnectionLost)
}

func TestCloseCancelsPending(t *testing.T) {
	b, err := fakebroker.Start()
	require.NoError(t, err)
	defer b.Close()
	b.Handle(api.Metadata, func(apiVersion int16, body []byte) []byte {
		return (&Metadata.Response{}).Encode()
	})
	b.DelayResponses(time.Second)

	c := New(b.Addr(), "test-client")
	require.NoError(t, c.Connect(context.Background()))

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Send(context.Background(), Metadata.NewRequest([]string{"t1"}), true)
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.Close())
	err = <-errCh
	require.ErrorIs(t, err, corekafka.ErrSendCanceled)
	require.Equal(t, Closed, c.State())
}
