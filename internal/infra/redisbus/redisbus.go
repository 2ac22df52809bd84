// Package redisbus fans delivered notifications out over Redis pub/sub so
// other processes (a second API replica, `irl watch`) can push them live.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sololeveling-irl/irl/internal/domain"
	"github.com/sololeveling-irl/irl/internal/logger"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "irl:notifications"

// Bus publishes notifications to one Redis channel.
type Bus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// New connects to addr and verifies the connection with a ping.
func New(addr, channel string, log *logger.Logger) (*Bus, error) {
	if log == nil {
		log = logger.Nop()
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("redis addr required")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Bus{
		log:     log.With("service", "RedisNotificationBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

// Channel returns the pub/sub channel name.
func (b *Bus) Channel() string { return b.channel }

// Publish sends n as JSON on the channel.
func (b *Bus) Publish(ctx context.Context, n domain.Notification) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis bus not initialized")
	}
	raw, err := Encode(n)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Subscribe calls onMsg for every notification published on the channel
// until ctx is done. It returns once the subscription is confirmed.
func (b *Bus) Subscribe(ctx context.Context, onMsg func(domain.Notification)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				n, err := Decode([]byte(m.Payload))
				if err != nil {
					b.log.Warn("bad notification payload", "error", err)
					continue
				}
				onMsg(n)
			}
		}
	}()
	return nil
}

// Ping checks the connection.
func (b *Bus) Ping(ctx context.Context) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis bus not initialized")
	}
	return b.rdb.Ping(ctx).Err()
}

// Close releases the client.
func (b *Bus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

// Encode serializes a notification for the channel.
func Encode(n domain.Notification) ([]byte, error) {
	raw, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	return raw, nil
}

// Decode parses a channel payload. A payload without a recipient is rejected.
func Decode(raw []byte) (domain.Notification, error) {
	var n domain.Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return n, fmt.Errorf("decode notification: %w", err)
	}
	if n.UserID == "" {
		return n, fmt.Errorf("decode notification: missing user_id")
	}
	return n, nil
}
