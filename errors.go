package corekafka

import "fmt"

// Broker error codes referenced by this package. Not an exhaustive list of
// the wire protocol's error code table: only the codes the produce/metadata
// path needs to classify.
const (
	ErrNone                    int16 = 0
	ErrUnknown                 int16 = -1
	ErrCorruptMessage          int16 = 2
	ErrUnknownTopicOrPartition int16 = 3
	ErrLeaderNotAvailable      int16 = 5
	ErrNotLeaderForPartition   int16 = 6
	ErrBrokerRequestTimedOut   int16 = 7
	ErrBrokerMessageTooLarge   int16 = 10 // broker-side "record too large"
	ErrInvalidTimestamp        int16 = 32
)

var descriptions = map[int16]string{
	ErrNone:                    "no error",
	ErrUnknown:                 "unknown server error",
	ErrCorruptMessage:          "corrupt message",
	ErrUnknownTopicOrPartition: "unknown topic or partition",
	ErrLeaderNotAvailable:      "leader not available",
	ErrNotLeaderForPartition:   "not leader for partition",
	ErrBrokerRequestTimedOut:   "request timed out",
	ErrBrokerMessageTooLarge:   "message too large",
	ErrInvalidTimestamp:        "invalid timestamp",
}

// Error wraps a broker-returned error code. It is returned whenever a
// request completed its round trip but the response body carries a non-zero
// error code.
type Error struct {
	Code int16
}

func (e *Error) Error() string {
	if d, ok := descriptions[e.Code]; ok {
		return fmt.Sprintf("%s (%d)", d, e.Code)
	}
	return fmt.Sprintf("unknown error code %d", e.Code)
}

// Retriable reports whether the client should invalidate the affected
// topic's metadata and retry the request with a refreshed leader, per the
// routing-error classification in §7.
func (e *Error) Retriable() bool {
	switch e.Code {
	case ErrLeaderNotAvailable, ErrNotLeaderForPartition, ErrUnknownTopicOrPartition:
		return true
	default:
		return false
	}
}

// NewError builds an *Error for code, or nil if code is ErrNone.
func NewError(code int16) error {
	if code == ErrNone {
		return nil
	}
	return &Error{Code: code}
}
