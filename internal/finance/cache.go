package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "finance:overview:version"
	// BumpChannel carries cache version bumps between instances.
	BumpChannel = "finance.records.bump"
)

// raiseVersion sets the version key to ARGV[1] only when that is newer, so a
// late bump message never rolls the version back.
var raiseVersion = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local incoming = tonumber(ARGV[1])
if incoming > current then
  redis.call("SET", KEYS[1], ARGV[1])
  return incoming
end
return current
`)

// Cache memoises aggregation results in Redis. Keys embed a global version so
// a single Bump invalidates every cached overview.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client or a non-positive ttl
// disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Version returns the current cache version, initialising it when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		ver = 0
	case err != nil:
		return 0, fmt.Errorf("finance/cache: version: %w", err)
	}
	if ver > 0 {
		return ver, nil
	}
	if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
		return 0, fmt.Errorf("finance/cache: init version: %w", err)
	}
	return 1, nil
}

// BuildKey joins parts and suffixes the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if !c.enabled() {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return joined + ":v" + strconv.FormatInt(ver, 10), nil
}

// FetchJSON decodes a cached value into dest or fills the key from loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("finance/cache: loader required")
	}
	if c.enabled() {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return fmt.Errorf("finance/cache: get %s: %w", key, err)
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.store(ctx, key, raw); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// StoreJSON overwrites key with value.
func (c *Cache) StoreJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.store(ctx, key, raw)
}

func (c *Cache) store(ctx context.Context, key string, raw []byte) error {
	if !c.enabled() {
		return nil
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("finance/cache: set %s: %w", key, err)
	}
	return nil
}

// Bump invalidates every cached overview and notifies other instances.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return fmt.Errorf("finance/cache: bump: %w", err)
	}
	return c.client.Publish(ctx, BumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation applies version bumps published on channel until ctx
// is cancelled. A numeric payload only ever raises the version; any other
// payload increments it. An empty channel listens on BumpChannel.
func (c *Cache) ListenForInvalidation(ctx context.Context, channel string) error {
	if !c.enabled() {
		return nil
	}
	if channel == "" {
		channel = BumpChannel
	}
	pubsub := c.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("finance/cache: subscribe: %w", err)
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if ver, err := strconv.ParseInt(msg.Payload, 10, 64); err == nil && ver > 0 {
					_ = raiseVersion.Run(ctx, c.client, []string{cacheVersionKey}, ver).Err()
					continue
				}
				_ = c.client.Incr(ctx, cacheVersionKey).Err()
			}
		}
	}()
	return nil
}

func keyOverview(req OverviewRequest, now time.Time) string {
	return strings.Join([]string{"finance", "overview", req.Key(), now.Format(dayLayout)}, ":")
}
