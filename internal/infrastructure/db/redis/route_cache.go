package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/anshfreight/ifta-miles/internal/api/metrics"
	"github.com/anshfreight/ifta-miles/internal/core/ports"
)

// RouteCache decorates a RouteResolver with a Redis-backed geometry cache.
// Routes between city pairs are stable over a reporting quarter, so cached
// geometries are reused across runs. Failures are never cached.
// Key format: route:<origin>|<destination>
type RouteCache struct {
	client *redis.Client
	inner  ports.RouteResolver
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRouteCache(client *redis.Client, inner ports.RouteResolver, ttl time.Duration, logger zerolog.Logger) *RouteCache {
	return &RouteCache{client: client, inner: inner, ttl: ttl, logger: logger}
}

// Resolve serves the pair from cache when present, otherwise delegates and
// stores the result. Cache errors degrade to a direct resolver call rather
// than failing the leg.
func (c *RouteCache) Resolve(ctx context.Context, origin, destination string) (*ports.RouteGeometry, error) {
	key := c.key(origin, destination)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var geom ports.RouteGeometry
		if err := json.Unmarshal(raw, &geom); err == nil {
			metrics.RouteCacheTotal.WithLabelValues("hit").Inc()
			return &geom, nil
		}
		c.logger.Warn().Str("key", key).Msg("corrupt cached route, refetching")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn().Err(err).Str("key", key).Msg("route cache read failed")
	}
	metrics.RouteCacheTotal.WithLabelValues("miss").Inc()

	geom, err := c.inner.Resolve(ctx, origin, destination)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(geom); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("route cache write failed")
		}
	}
	return geom, nil
}

func (c *RouteCache) key(origin, destination string) string {
	return "route:" + origin + "|" + destination
}
