package corekafka

import "errors"

// Transport and request-level errors. Unlike Error (a broker-returned error
// code), these never make it onto the wire: they describe a failure of the
// client's own plumbing.
var (
	// ErrConnectionLost is returned for any pending or new send after an
	// I/O failure put a Broker Connection into the Broken state.
	ErrConnectionLost = errors.New("connection lost")
	// ErrConnectTimeout is returned when the TCP connect itself does not
	// complete within DialTimeout, or before the context passed to Connect
	// ends.
	ErrConnectTimeout = errors.New("connect timeout")
	// ErrSendCanceled is returned to a caller whose request's context was
	// canceled while awaiting a response, and on Session/Connection Close
	// for every request still pending.
	ErrSendCanceled = errors.New("send canceled")
	// ErrSessionClosed is returned by Session.Send after Session.Close.
	ErrSessionClosed = errors.New("session closed")
	// ErrRequestTimedOut is returned when the context passed to a send
	// reaches its deadline while the response is still awaited. It does not
	// close the connection. ProducerConfig.TimeoutMs is sent to the broker
	// as its ack timeout and is not applied as a client-side deadline.
	ErrRequestTimedOut = errors.New("request timed out")
	// ErrMessageTooLarge is returned before any I/O when an encoded
	// request exceeds ProducerConfig.MaxRequestSize.
	ErrMessageTooLarge = errors.New("message too large")
	// ErrTruncatedInput is returned by the codec Reader when a read runs
	// past the end of the buffer.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrMalformedInput is returned by the codec Reader for a negative
	// length prefix other than the null sentinel, or invalid UTF-8.
	ErrMalformedInput = errors.New("malformed input")
	// ErrNoLeader is returned when cached metadata has no leader for the
	// requested topic-partition.
	ErrNoLeader = errors.New("no leader for partition")
	// ErrBuilderConsumed is reported by Builder.Err once TakeBytes has
	// been called; append calls made after that are no-ops.
	ErrBuilderConsumed = errors.New("builder already consumed")
)
