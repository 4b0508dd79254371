package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LoctusTM/oskiosk-client/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// LookupCache caches resolved identifiers so repeated scans of the same
// barcode skip the database.
type LookupCache interface {
	Get(ctx context.Context, identifier string) (domain.Identifiable, error)
	Set(ctx context.Context, identifier string, item domain.Identifiable) error
	Delete(ctx context.Context, identifier string) error
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

// cachedEntry keeps the discriminator next to the payload so the entry decodes
// back into the right entity.
type cachedEntry struct {
	Kind    domain.Kind     `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func (r RedisCache) Get(ctx context.Context, identifier string) (domain.Identifiable, error) {
	key := cacheKey(identifier)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var entry cachedEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal cached entry failed: %w", err)
	}

	switch entry.Kind {
	case domain.KindProduct:
		var p domain.Product
		if err := json.Unmarshal(entry.Payload, &p); err != nil {
			return nil, fmt.Errorf("unmarshal cached product failed: %w", err)
		}
		return p, nil
	case domain.KindUser:
		var u domain.User
		if err := json.Unmarshal(entry.Payload, &u); err != nil {
			return nil, fmt.Errorf("unmarshal cached user failed: %w", err)
		}
		return u, nil
	default:
		return nil, fmt.Errorf("cached entry for %q has unknown kind %q", identifier, entry.Kind)
	}
}

func (r RedisCache) Set(ctx context.Context, identifier string, item domain.Identifiable) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal entity failed: %w", err)
	}
	data, err := json.Marshal(cachedEntry{Kind: item.EntityKind(), Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal cached entry failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, cacheKey(identifier), string(data), ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, identifier string) error {
	if err := r.client.Del(ctx, cacheKey(identifier)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(identifier string) string {
	return fmt.Sprintf("identifier:%s", identifier)
}
