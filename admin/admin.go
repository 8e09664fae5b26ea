// Package admin implements the small set of provisioning calls this
// module's own tests and example binaries need to get a topic into
// existence before producing to it, routed through a Session instead of
// dialing and discarding a one-shot connection.
package admin

import (
	"context"
	"fmt"

	"github.com/mkocikowski/corekafka/api/CreateTopics"
	"github.com/mkocikowski/corekafka/session"
)

// CreateTopic sends a CreateTopicsRequest for a single topic through s,
// addressed to addr (normally a bootstrap broker, which forwards the
// request to the controller), and returns the broker's error code for that
// topic as a Go error, or nil on success.
func CreateTopic(ctx context.Context, s *session.Session, addr, topic string, numPartitions int32, replicationFactor int16) error {
	req := CreateTopics.NewRequest(topic, numPartitions, replicationFactor)
	body, err := s.Send(ctx, addr, req, true)
	if err != nil {
		return fmt.Errorf("admin: error sending CreateTopics for %s: %w", topic, err)
	}
	resp, err := CreateTopics.Decode(body)
	if err != nil {
		return fmt.Errorf("admin: error decoding CreateTopics response for %s: %w", topic, err)
	}
	for _, t := range resp.Topics {
		if t.Name == topic && t.ErrorCode != 0 {
			return fmt.Errorf("admin: broker rejected topic %s with error code %d", topic, t.ErrorCode)
		}
	}
	return nil
}
