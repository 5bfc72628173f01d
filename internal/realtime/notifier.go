// Package realtime publishes session lifecycle events to room channels over
// Redis PubSub. Delivery is at-most-once per subscriber with no guarantee
// across disconnects; clients reconcile through the GET session snapshot.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codeclash/arena-backend/internal/config"
)

// Notifier fans lifecycle events out to all subscribers of a room channel.
type Notifier struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(rdb *redis.Client, log zerolog.Logger) *Notifier {
	return &Notifier{
		rdb: rdb,
		log: log.With().Str("component", "notifier").Logger(),
	}
}

// Publish broadcasts an event to every current subscriber of the room.
// Events for a single room are published in commit order by the caller;
// a publish failure is logged and swallowed because the push channel is a
// latency optimization, not a durability mechanism.
func (n *Notifier) Publish(ctx context.Context, roomID uuid.UUID, event Event, payload interface{}) {
	n.publish(ctx, Envelope{Type: event, RoomID: roomID, Payload: payload})
}

// PublishTo broadcasts a sender-only event. Subscribed streams other than
// userID's drop it.
func (n *Notifier) PublishTo(ctx context.Context, roomID, userID uuid.UUID, event Event, payload interface{}) {
	n.publish(ctx, Envelope{Type: event, RoomID: roomID, UserID: &userID, Payload: payload})
}

func (n *Notifier) publish(ctx context.Context, env Envelope) {
	raw, err := json.Marshal(env)
	if err != nil {
		n.log.Error().Err(err).Str("event", string(env.Type)).Msg("Marshal event failed")
		return
	}

	channel := config.CacheKey.RoomChannel(env.RoomID.String())
	if err := n.rdb.Publish(ctx, channel, raw).Err(); err != nil {
		n.log.Warn().Err(err).
			Str("channel", channel).
			Str("event", string(env.Type)).
			Msg("Publish failed")
	}
}

// Subscribe opens a PubSub subscription for a room channel. The caller owns
// the returned subscription and must Close it.
func (n *Notifier) Subscribe(ctx context.Context, roomID uuid.UUID) *redis.PubSub {
	return n.rdb.Subscribe(ctx, config.CacheKey.RoomChannel(roomID.String()))
}

// DecodeEnvelope parses a raw published message back into an Envelope.
func DecodeEnvelope(raw string) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}

// ForUser reports whether an envelope should be delivered to the given
// subscriber: broadcast events go to everyone, sender-only events go to
// their addressee.
func (e *Envelope) ForUser(userID uuid.UUID) bool {
	return e.UserID == nil || *e.UserID == userID
}
