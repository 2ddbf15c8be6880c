package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// EventSeenStore implements ports.EventSeenStore. It is a fast-path
// duplicate filter in front of the database guards: events are marked
// only after the database transaction commits, so a crash between the
// two leaves the event unmarked and the redelivery falls through to the
// conditional writes.
type EventSeenStore struct {
	client *goredis.Client
	prefix string
}

// NewEventSeenStore creates a new Redis-backed seen-event store.
func NewEventSeenStore(client *goredis.Client) *EventSeenStore {
	return &EventSeenStore{
		client: client,
		prefix: "webhook:seen:",
	}
}

// Seen reports whether the event ID was already processed.
func (s *EventSeenStore) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("redis seen check: %w", err)
	}
	return n > 0, nil
}

// MarkSeen records the event ID for the given window. Overwriting an
// existing mark just refreshes the TTL.
func (s *EventSeenStore) MarkSeen(ctx context.Context, eventID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+eventID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis seen mark: %w", err)
	}
	return nil
}
