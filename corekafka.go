/*
Package corekafka is the core of a client library for a distributed,
partitioned, replicated commit-log message broker. It turns application level
produce calls into wire level exchanges with the right broker at the right
time.

Project Scope

The package focuses on the hard part of talking to the broker: a
length-delimited binary codec, a session layer that multiplexes many in-flight
requests over persistent connections to many brokers, a metadata cache that
tracks partition leadership, and a single-partition producer dispatch path.
Consumer group coordination, offset bookkeeping, compression codec
implementations (beyond the two provided for convenience), and SASL/SSL
handshakes are not part of this package.

Get Started

Read the documentation for the "session" and "producer" packages.

Design Decisions

1. Correlation id multiplexing. Unlike a model where each topic-partition owns
its own synchronous connection, corekafka shares one TCP connection per broker
across every topic-partition whose leader lives there, and multiplexes
concurrent in-flight requests on that connection using the protocol's
correlation id. This follows directly from the wire protocol design: broker
responses are not guaranteed to arrive in request order.

2. Explicit wire schemas. Requests and responses are not marshaled by walking
struct fields with reflection. Each supported API defines its own Encode and
Decode methods against the codec package. This makes versioning (and adding
new API versions later) a matter of adding a new type, not branching inside a
generic walker.

3. Copy-on-replace metadata. The metadata cache never hands out a mutable
reference into its internal state. Every refresh builds an entirely new
snapshot and atomically swaps it in; readers that are mid-lookup on an old
snapshot are unaffected.

4. Limited use of data hiding. The library is not intended to be child proof.
Most internal structures are exposed to make debugging and metrics collection
easier.
*/
package corekafka

import "time"

// DialTimeout bounds how long a Broker Connection will wait for the
// underlying TCP connect to complete.
var DialTimeout = 10 * time.Second

// ConnectionTTL is not read by any package in this module: Broker
// Connections are not recycled by age, whatever its value.
var ConnectionTTL time.Duration

// MetadataTTL is the default freshness window for the metadata cache (see
// the metadata package). The protocol does not specify a value; this is the
// recommended default from the broker's own documentation for its Java
// client.
var MetadataTTL = 5 * time.Minute
