// Package session owns the set of Broker Connections a client needs and the
// Metadata Cache built on top of them. It is the thing a Producer talks to:
// callers address brokers by host:port and never see a conn.Conn directly.
// Connections are persistent, pooled, and multiplexed per broker rather
// than dialed fresh for each request.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/mkocikowski/corekafka"
	"github.com/mkocikowski/corekafka/api"
	"github.com/mkocikowski/corekafka/api/ApiVersions"
	"github.com/mkocikowski/corekafka/conn"
	"github.com/mkocikowski/corekafka/metadata"
)

// connFuture coalesces concurrent dials to the same address into one.
type connFuture struct {
	done chan struct{}
	conn *conn.Conn
	err  error
}

// Session is a connection pool keyed by broker address, plus the Metadata
// Cache built on top of it. Safe for concurrent use.
type Session struct {
	ClientId string

	mu         sync.Mutex
	conns      map[string]*conn.Conn
	connecting map[string]*connFuture
	closed     bool

	Cache *metadata.Cache
}

// New returns a Session that bootstraps metadata from bootstrap (host:port
// strings) and identifies itself to brokers as clientId.
func New(bootstrap []string, clientId string) *Session {
	s := &Session{
		ClientId:   clientId,
		conns:      make(map[string]*conn.Conn),
		connecting: make(map[string]*connFuture),
	}
	s.Cache = metadata.New(bootstrap, s, corekafka.MetadataTTL)
	return s
}

// getConn returns the Ready connection for addr, dialing it if necessary.
// Concurrent calls for the same addr share one dial attempt.
func (s *Session) getConn(ctx context.Context, addr string) (*conn.Conn, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, corekafka.ErrSessionClosed
	}
	if c, ok := s.conns[addr]; ok && c.State() == conn.Ready {
		s.mu.Unlock()
		return c, nil
	}
	if f, ok := s.connecting[addr]; ok {
		s.mu.Unlock()
		<-f.done
		return f.conn, f.err
	}
	f := &connFuture{done: make(chan struct{})}
	s.connecting[addr] = f
	s.mu.Unlock()

	c := conn.New(addr, s.ClientId)
	err := c.Connect(ctx)

	s.mu.Lock()
	delete(s.connecting, addr)
	if err == nil {
		s.conns[addr] = c
	}
	s.mu.Unlock()

	f.conn, f.err = c, err
	close(f.done)
	return f.conn, f.err
}

// Send sends req to the broker at addr, dialing or reusing a pooled
// connection as needed, and satisfies the metadata package's Sender
// interface so the Cache can drive it directly.
func (s *Session) Send(ctx context.Context, addr string, req *api.Request, expectResponse bool) ([]byte, error) {
	c, err := s.getConn(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", addr, err)
	}
	body, err := c.Send(ctx, req, expectResponse)
	if err != nil {
		s.mu.Lock()
		if s.conns[addr] == c && c.State() != conn.Ready {
			delete(s.conns, addr)
		}
		s.mu.Unlock()
	}
	return body, err
}

// NegotiateVersions runs the optional ApiVersions handshake against addr
// and returns the broker's supported version range for every API key it
// reported. Not called automatically: this client's fixed request versions
// (Metadata v0, Produce v2) need no negotiation, but a caller talking to an
// unfamiliar broker can use this to confirm compatibility up front.
func (s *Session) NegotiateVersions(ctx context.Context, addr string) (*ApiVersions.Response, error) {
	body, err := s.Send(ctx, addr, ApiVersions.NewRequest(), true)
	if err != nil {
		return nil, fmt.Errorf("error negotiating api versions with %s: %w", addr, err)
	}
	return ApiVersions.Decode(body)
}

// Close closes every pooled connection and fails any future Send with
// ErrSessionClosed. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conns := s.conns
	s.conns = make(map[string]*conn.Conn)
	s.mu.Unlock()

	var firstErr error
	for _, c := range conns {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
