package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisPort stores the collection under a fixed key and broadcasts writes
// on a pub/sub channel so every other context sharing the key re-fetches.
// Messages carry the writer's instance id; a subscriber skips its own.
type RedisPort struct {
	client     *redis.Client
	key        string
	channel    string
	instanceID string
	logger     *zerolog.Logger

	mu          sync.Mutex
	subscribers []func()
	pubsub      *redis.PubSub
	cancel      context.CancelFunc
}

// NewRedisPort connects to Redis and verifies the connection.
func NewRedisPort(ctx context.Context, opts *redis.Options, key string, logger *zerolog.Logger) (*RedisPort, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	p := &RedisPort{
		client:     client,
		key:        key,
		channel:    key + ":changed",
		instanceID: uuid.NewString(),
		logger:     logger,
	}
	logger.Info().Str("key", key).Str("channel", p.channel).Msg("redis storage initialized")
	return p, nil
}

func (p *RedisPort) Read(ctx context.Context) ([]byte, error) {
	val, err := p.client.Get(ctx, p.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.key, err)
	}
	return val, nil
}

func (p *RedisPort) Write(ctx context.Context, data []byte) error {
	if err := p.client.Set(ctx, p.key, data, 0).Err(); err != nil {
		return fmt.Errorf("write %s: %w", p.key, err)
	}
	// Fire-and-forget broadcast; a lost signal only delays a re-fetch.
	if err := p.client.Publish(ctx, p.channel, p.instanceID).Err(); err != nil {
		p.logger.Debug().Err(err).Msg("publish change signal failed")
	}
	return nil
}

// Subscribe starts the pub/sub listener on first use.
func (p *RedisPort) Subscribe(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)

	if p.pubsub != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.pubsub = p.client.Subscribe(ctx, p.channel)
	go p.listen(ctx, p.pubsub.Channel())
}

func (p *RedisPort) listen(ctx context.Context, ch <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg.Payload == p.instanceID {
				continue
			}
			p.mu.Lock()
			subs := make([]func(), len(p.subscribers))
			copy(subs, p.subscribers)
			p.mu.Unlock()
			for _, fn := range subs {
				fn()
			}
		}
	}
}

// Ping reports whether Redis is reachable.
func (p *RedisPort) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *RedisPort) Close() error {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	pubsub := p.pubsub
	p.pubsub = nil
	p.mu.Unlock()

	if pubsub != nil {
		_ = pubsub.Close()
	}
	return p.client.Close()
}
