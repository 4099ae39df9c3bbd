package ranking

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/gokatarajesh/trabalho-quiz/pkg/http/ws"
)

// Fanout delivers a message to every live connection. *ws.Hub satisfies it.
type Fanout interface {
	BroadcastAll(msg ws.Message) error
}

// Broadcaster listens for Redis Pub/Sub ranking updates and forwards them to all clients.
type Broadcaster struct {
	redis   *redis.Client
	hub     Fanout
	channel string
	logger  zerolog.Logger
}

// NewBroadcaster creates a Pub/Sub powered ranking broadcaster.
func NewBroadcaster(client *redis.Client, hub Fanout, channel string, logger zerolog.Logger) *Broadcaster {
	if channel == "" {
		channel = defaultChannel
	}
	return &Broadcaster{
		redis:   client,
		hub:     hub,
		channel: channel,
		logger:  logger.With().Str("component", "ranking_broadcaster").Logger(),
	}
}

// Run subscribes to the update channel and blocks until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.redis == nil || b.hub == nil {
		return nil
	}

	sub := b.redis.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.forward(msg.Payload)
		}
	}
}

func (b *Broadcaster) forward(payload string) {
	var evt ws.RankingUpdatePayload
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		b.logger.Warn().Err(err).Msg("failed to decode ranking update payload")
		return
	}

	msg, err := ws.NewMessage(ws.TypeRankingUpdate, evt)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to marshal ranking WS payload")
		return
	}
	if err := b.hub.BroadcastAll(msg); err != nil {
		b.logger.Warn().Err(err).Msg("failed to broadcast ranking update")
	}
}
