package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/platform/obs"
)

const routeKeyPrefix = "sitetrack:route:"

// Redis-backed implementation of the RouteCache port. Routes are stored as
// JSON under one key per route id with a fixed TTL.
type RedisRouteCache struct {
	rdb *redis.Client
	ttl time.Duration
	log logrus.FieldLogger
}

func NewRedisRouteCache(rdb *redis.Client, ttl time.Duration, log logrus.FieldLogger) *RedisRouteCache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RedisRouteCache{rdb: rdb, ttl: ttl, log: log.WithField("component", "route_cache")}
}

// NewRedisClient accepts either a redis:// URL or a bare host:port address.
func NewRedisClient(url string) (*redis.Client, error) {
	if strings.Contains(url, "://") {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("redis: parse url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: url}), nil
}

func routeKey(id string) string { return routeKeyPrefix + id }

// GetRoute returns ok=false on a cache miss.
func (c *RedisRouteCache) GetRoute(ctx context.Context, id string) (_ *domain.Route, _ bool, err error) {
	defer obs.Time(ctx, c.log, "route.cache.Get")(&err)

	if c.rdb == nil {
		return nil, false, errors.New("route cache: redis client is nil")
	}

	b, err := c.rdb.Get(ctx, routeKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get route cache %s: %w", id, err)
	}

	var r domain.Route
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, false, fmt.Errorf("get route cache %s: decode: %w", id, err)
	}
	return &r, true, nil
}

func (c *RedisRouteCache) PutRoute(ctx context.Context, r *domain.Route) (err error) {
	defer obs.Time(ctx, c.log, "route.cache.Put")(&err)

	if c.rdb == nil {
		return errors.New("route cache: redis client is nil")
	}
	if r == nil || r.ID == "" {
		return fmt.Errorf("put route cache: route id must not be empty: %w", domain.ErrValidation)
	}

	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("put route cache %s: encode: %w", r.ID, err)
	}
	if err := c.rdb.Set(ctx, routeKey(r.ID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("put route cache %s: %w", r.ID, err)
	}
	return nil
}

func (c *RedisRouteCache) InvalidateRoute(ctx context.Context, id string) (err error) {
	defer obs.Time(ctx, c.log, "route.cache.Invalidate")(&err)

	if c.rdb == nil {
		return errors.New("route cache: redis client is nil")
	}
	if err := c.rdb.Del(ctx, routeKey(id)).Err(); err != nil {
		return fmt.Errorf("invalidate route cache %s: %w", id, err)
	}
	return nil
}
