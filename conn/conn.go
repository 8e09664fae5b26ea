// Package conn implements a single TCP connection to a single broker: it
// frames outbound requests, demultiplexes inbound responses by correlation
// id, and exposes a small state machine (New -> Connecting -> Ready ->
// Broken -> Closed) that the session package drives. Grounded on the
// connect/disconnect/call lifecycle of a synchronous per-destination client
// connection, generalized here to support many concurrent in-flight
// requests on one connection, since broker responses are not guaranteed to
// arrive in request order.
package conn

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"github.com/mkocikowski/corekafka"
	"github.com/mkocikowski/corekafka/api"
	"github.com/mkocikowski/corekafka/metrics"
)

// State is a Conn's position in its lifecycle.
type State int32

const (
	StateNew State = iota
	Connecting
	Ready
	Broken
	Closed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "New"
	case Connecting:
		return "Connecting"
	case Ready:
		return "Ready"
	case Broken:
		return "Broken"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

type pendingCall struct {
	result chan callResult
}

type callResult struct {
	body []byte
	err  error
}

// Conn is one TCP connection to one broker. It is safe for concurrent use:
// multiple goroutines may call Send at once, and their frames will not
// interleave on the wire.
type Conn struct {
	Addr     string
	ClientId string

	mu                sync.Mutex
	state             State
	netConn           net.Conn
	nextCorrelationId int32
	pending           map[int32]*pendingCall

	writeMu sync.Mutex
}

// New returns a Conn in state New; call Connect before Send.
func New(addr, clientId string) *Conn {
	return &Conn{
		Addr:     addr,
		ClientId: clientId,
		pending:  make(map[int32]*pendingCall),
	}
}

// State reports the connection's current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the broker and starts the read loop. Calling Connect on an
// already-Ready connection is a no-op.
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == Ready {
		c.mu.Unlock()
		return nil
	}
	if c.state == Closed {
		c.mu.Unlock()
		return corekafka.ErrSessionClosed
	}
	c.state = Connecting
	c.mu.Unlock()

	d := net.Dialer{Timeout: corekafka.DialTimeout}
	nc, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		c.mu.Lock()
		c.state = Broken
		c.mu.Unlock()
		var ne net.Error
		if ctx.Err() != nil || (errors.As(err, &ne) && ne.Timeout()) {
			return fmt.Errorf("error connecting to %s: %w", c.Addr, corekafka.ErrConnectTimeout)
		}
		return fmt.Errorf("error connecting to %s: %w", c.Addr, err)
	}

	c.mu.Lock()
	c.netConn = nc
	c.state = Ready
	c.mu.Unlock()

	go c.readLoop(nc)
	return nil
}

func (c *Conn) nextId() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextCorrelationId
	if c.nextCorrelationId == int32(1<<31-1) {
		c.nextCorrelationId = 0
	} else {
		c.nextCorrelationId++
	}
	return id
}

// Send writes req, assigning it the next correlation id, and — if
// expectResponse is true — waits for the matching response body (with the
// leading correlation id already stripped) or for ctx to end. When
// expectResponse is false (acks=0 Produce) no entry is placed in the
// pending table and Send returns as soon as the bytes are handed to the
// transport.
func (c *Conn) Send(ctx context.Context, req *api.Request, expectResponse bool) ([]byte, error) {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state == Broken {
		return nil, corekafka.ErrConnectionLost
	}
	if state == Closed {
		return nil, corekafka.ErrSessionClosed
	}

	req.CorrelationId = c.nextId()
	req.ClientId = c.ClientId
	frame := req.Bytes()

	var call *pendingCall
	if expectResponse {
		call = &pendingCall{result: make(chan callResult, 1)}
		c.mu.Lock()
		c.pending[req.CorrelationId] = call
		c.mu.Unlock()
	}

	c.writeMu.Lock()
	_, err := c.netConn.Write(frame)
	c.writeMu.Unlock()
	if err != nil {
		c.breakConn(err)
		return nil, corekafka.ErrConnectionLost
	}

	if !expectResponse {
		return nil, nil
	}

	select {
	case res := <-call.result:
		return res.body, res.err
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, req.CorrelationId)
		c.mu.Unlock()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, corekafka.ErrRequestTimedOut
		}
		return nil, corekafka.ErrSendCanceled
	}
}

func (c *Conn) readLoop(nc net.Conn) {
	for {
		var sizeBuf [4]byte
		if _, err := io.ReadFull(nc, sizeBuf[:]); err != nil {
			c.breakConn(err)
			return
		}
		size := int32(binary.BigEndian.Uint32(sizeBuf[:]))
		frame := make([]byte, size)
		if _, err := io.ReadFull(nc, frame); err != nil {
			c.breakConn(err)
			return
		}
		correlationId, body, err := api.SplitCorrelationId(frame)
		if err != nil {
			c.breakConn(err)
			return
		}
		c.mu.Lock()
		call, ok := c.pending[correlationId]
		if ok {
			delete(c.pending, correlationId)
		}
		c.mu.Unlock()
		if !ok {
			log.Printf("corekafka: discarding response for unknown correlation id %d from %s", correlationId, c.Addr)
			continue
		}
		call.result <- callResult{body: body}
	}
}

// breakConn transitions the connection to Broken and fails every pending
// call with ErrConnectionLost. Safe to call more than once or concurrently.
func (c *Conn) breakConn(cause error) {
	c.mu.Lock()
	if c.state == Closed || c.state == Broken {
		c.mu.Unlock()
		return
	}
	c.state = Broken
	pending := c.pending
	c.pending = make(map[int32]*pendingCall)
	nc := c.netConn
	c.mu.Unlock()

	metrics.ConnectionsBrokenTotal.Inc()
	if nc != nil {
		nc.Close()
	}
	for _, call := range pending {
		call.result <- callResult{err: fmt.Errorf("%w: %v", corekafka.ErrConnectionLost, cause)}
	}
}

// Close drains every pending call with ErrSendCanceled, closes the
// underlying socket, and transitions to Closed. Safe to call from any
// state, including more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return nil
	}
	c.state = Closed
	pending := c.pending
	c.pending = make(map[int32]*pendingCall)
	nc := c.netConn
	c.mu.Unlock()

	for _, call := range pending {
		call.result <- callResult{err: corekafka.ErrSendCanceled}
	}
	if nc != nil {
		return nc.Close()
	}
	return nil
}
