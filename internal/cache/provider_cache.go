// Package cache keeps provider snapshots in redis so searches do not reload the
// whole provider table on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/provider"
)

const (
	defaultKeyPrefix = "matching:"
	defaultTTL       = 5 * time.Minute
	allProvidersKey  = "providers:all"
)

// ProviderSnapshotCache is a read-through cache in front of a ProviderRepository.
// Redis failures fall back to the source and are logged, never returned.
type ProviderSnapshotCache struct {
	source    provider.ProviderRepository
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewProviderSnapshotCache wraps source. A zero ttl uses five minutes.
func NewProviderSnapshotCache(source provider.ProviderRepository, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *ProviderSnapshotCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ProviderSnapshotCache{
		source:    source,
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       ttl,
		tracer:    otel.Tracer("service-matching.cache"),
		logger:    logger,
	}
}

// ListAll returns the cached provider set, loading it from the source on a miss.
func (c *ProviderSnapshotCache) ListAll(ctx context.Context) ([]*provider.Provider, error) {
	ctx, span := c.tracer.Start(ctx, "ProviderSnapshotCache.ListAll")
	defer span.End()

	key := c.keyPrefix + allProvidersKey
	var providers []*provider.Provider
	if c.get(ctx, key, &providers) {
		return providers, nil
	}

	providers, err := c.source.ListAll(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "source list failed")
		return nil, err
	}
	c.set(ctx, key, providers)
	return providers, nil
}

// FindByID returns one cached provider, loading it from the source on a miss.
func (c *ProviderSnapshotCache) FindByID(ctx context.Context, id uuid.UUID) (*provider.Provider, error) {
	ctx, span := c.tracer.Start(ctx, "ProviderSnapshotCache.FindByID")
	defer span.End()

	key := c.providerKey(id)
	var p provider.Provider
	if c.get(ctx, key, &p) {
		return &p, nil
	}

	found, err := c.source.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, found)
	return found, nil
}

// FindByUserID is not cached; it is only used on the booking listing path.
func (c *ProviderSnapshotCache) FindByUserID(ctx context.Context, userID uuid.UUID) (*provider.Provider, error) {
	return c.source.FindByUserID(ctx, userID)
}

// Invalidate drops the snapshot of one provider and the full provider set.
func (c *ProviderSnapshotCache) Invalidate(ctx context.Context, providerID uuid.UUID) error {
	if err := c.client.Del(ctx, c.providerKey(providerID), c.keyPrefix+allProvidersKey).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *ProviderSnapshotCache) providerKey(id uuid.UUID) string {
	return c.keyPrefix + "provider:" + id.String()
}

func (c *ProviderSnapshotCache) get(ctx context.Context, key string, v interface{}) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("provider cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		c.logger.Warn("provider cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *ProviderSnapshotCache) set(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("failed to encode provider snapshot", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("provider cache write failed", zap.String("key", key), zap.Error(err))
	}
}
