package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/milosbg/mbg-admin-backend/pkg/logger"
)

type channelBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func() error, error)
}

// RedisRelay publishes events on a Redis channel so every API instance
// delivers them to its own hub.
type RedisRelay struct {
	bus     channelBus
	channel string
	hub     *Hub
	logg    *logger.Logger
}

// NewRedisRelay wires a relay between bus and hub.
func NewRedisRelay(bus channelBus, channel string, hub *Hub, logg *logger.Logger) (*RedisRelay, error) {
	if bus == nil {
		return nil, errors.New("redis bus is required")
	}
	if hub == nil {
		return nil, errors.New("hub is required")
	}
	if channel == "" {
		return nil, errors.New("channel is required")
	}
	return &RedisRelay{bus: bus, channel: channel, hub: hub, logg: logg}, nil
}

// Publish sends the event to Redis; local delivery happens when it comes back.
func (r *RedisRelay) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return r.bus.Publish(ctx, r.channel, payload)
}

// Run forwards channel messages to the hub until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	messages, closeFn, err := r.bus.Subscribe(ctx, r.channel)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-messages:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal(payload, &event); err != nil {
				if r.logg != nil {
					r.logg.WarnErr(ctx, "dropping malformed product event", err)
				}
				continue
			}
			r.hub.Deliver(event)
		}
	}
}
