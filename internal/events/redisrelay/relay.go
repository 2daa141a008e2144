// Package redisrelay shares bus events between backend processes over a
// Redis pub/sub channel.
package redisrelay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"wildcafe-pos/internal/events"
	"wildcafe-pos/internal/logger"
)

type envelope struct {
	Origin string       `json:"origin"`
	Event  events.Event `json:"event"`
}

type Relay struct {
	Client  *redis.Client
	Channel string
	Local   events.Publisher
	Logger  *logger.Logger
	origin  string
}

func New(client *redis.Client, channel string, local events.Publisher, log *logger.Logger) *Relay {
	return &Relay{
		Client:  client,
		Channel: channel,
		Local:   local,
		Logger:  log,
		origin:  uuid.NewString(),
	}
}

// Publish forwards ev to the other processes. Failures are logged only.
func (r *Relay) Publish(ctx context.Context, ev events.Event) {
	payload, err := json.Marshal(envelope{Origin: r.origin, Event: ev})
	if err != nil {
		r.Logger.Error("REDIS", fmt.Sprintf("Failed to encode event: %v", err))
		return
	}
	if err := r.Client.Publish(ctx, r.Channel, payload).Err(); err != nil {
		r.Logger.Error("REDIS", fmt.Sprintf("Failed to relay %s: %v", ev.Topic, err))
	}
}

// Run delivers events published by other processes to the local bus until ctx ends.
// ready, if not nil, is closed once the subscription is active.
func (r *Relay) Run(ctx context.Context, ready chan<- struct{}) error {
	pubsub := r.Client.Subscribe(ctx, r.Channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.Channel, err)
	}
	if ready != nil {
		close(ready)
	}
	r.Logger.Info("REDIS", fmt.Sprintf("Relaying events on channel %s", r.Channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.Logger.Warn("REDIS", fmt.Sprintf("Ignoring malformed relay message: %v", err))
				continue
			}
			if env.Origin == r.origin || !env.Event.Topic.Valid() {
				continue
			}
			r.Local.Publish(ctx, env.Event)
		}
	}
}
