// Package fakebroker implements a minimal in-process broker that speaks
// just enough of the wire protocol (request envelope in, response envelope
// out) to drive the session, metadata, and producer test suites without a
// live cluster. None of this package's client tests could otherwise run in
// CI, since they would otherwise need a real broker listening on a known
// address.
package fakebroker

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mkocikowski/corekafka/codec"
)

// Handler produces a response body (NOT including the correlation id,
// which Broker adds itself) for one request of the given apiKey/apiVersion.
type Handler func(apiVersion int16, body []byte) []byte

// Broker is a same-process TCP server understanding the request/response
// envelope this module's codec defines.
type Broker struct {
	ln net.Listener

	mu       sync.Mutex
	handlers map[int16]Handler
	delay    time.Duration
	dropN    int // close the connection after dropN responses have been sent instead of sending the (dropN+1)th; negative means never
	sent     int

	wg      sync.WaitGroup
	closed  chan struct{}
	accepts int32
}

// Start listens on an ephemeral loopback port and begins serving.
func Start() (*Broker, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	b := &Broker{
		ln:       ln,
		handlers: make(map[int16]Handler),
		dropN:    -1,
		closed:   make(chan struct{}),
	}
	b.wg.Add(1)
	go b.serve()
	return b, nil
}

// Addr returns the host:port the broker is listening on.
func (b *Broker) Addr() string {
	return b.ln.Addr().String()
}

// Handle registers h as the handler for apiKey. Replaces any prior handler.
func (b *Broker) Handle(apiKey int16, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[apiKey] = h
}

// DelayResponses makes every future response wait d before being written,
// to exercise request-timeout behavior.
func (b *Broker) DelayResponses(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
}

// DropAfter closes the connection after n responses have been written
// instead of writing the (n+1)th, to exercise connection-lost behavior.
func (b *Broker) DropAfter(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dropN = n
}

func (b *Broker) serve() {
	defer b.wg.Done()
	for {
		c, err := b.ln.Accept()
		if err != nil {
			return
		}
		atomic.AddInt32(&b.accepts, 1)
		b.wg.Add(1)
		go b.handleConn(c)
	}
}

// Accepts reports how many TCP connections this broker has accepted so far.
func (b *Broker) Accepts() int32 {
	return atomic.LoadInt32(&b.accepts)
}

func (b *Broker) handleConn(c net.Conn) {
	defer b.wg.Done()
	defer c.Close()
	for {
		var sizeBuf [4]byte
		if _, err := io.ReadFull(c, sizeBuf[:]); err != nil {
			return
		}
		size := int32(binary.BigEndian.Uint32(sizeBuf[:]))
		frame := make([]byte, size)
		if _, err := io.ReadFull(c, frame); err != nil {
			return
		}

		r := codec.NewReader(frame)
		apiKey, err := r.ReadInt16()
		if err != nil {
			return
		}
		apiVersion, err := r.ReadInt16()
		if err != nil {
			return
		}
		correlationId, err := r.ReadInt32()
		if err != nil {
			return
		}
		if _, err := r.ReadString(); err != nil { // clientId
			return
		}
		body := frame[r.Position():]

		b.mu.Lock()
		h := b.handlers[apiKey]
		delay := b.delay
		b.mu.Unlock()
		if h == nil {
			continue // unknown api, drop silently like a real broker never would issue
		}
		respBody := h(apiVersion, body)

		if delay > 0 {
			time.Sleep(delay)
		}

		b.mu.Lock()
		drop := b.dropN >= 0 && b.sent >= b.dropN
		b.sent++
		b.mu.Unlock()
		if drop {
			return
		}

		out := codec.NewBuilder(8 + len(respBody))
		out.AddInt32(int32(4 + len(respBody)))
		out.AddInt32(correlationId)
		if _, err := c.Write(append(out.TakeBytes(), respBody...)); err != nil {
			return
		}
	}
}

// Close stops accepting new connections and waits for in-flight handlers
// to finish.
func (b *Broker) Close() error {
	err := b.ln.Close()
	b.wg.Wait()
	return err
}
