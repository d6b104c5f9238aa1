package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"muebles-catalog/internal/logger"
	"muebles-catalog/internal/model"

	"github.com/karlseguin/ccache/v3"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
)

const (
	ProductListPrefix  = "productos:"
	ProductListPattern = ProductListPrefix + "*"

	// GenerationKey is the shared Redis counter bumped on every catalog write.
	// It sits outside ProductListPattern so invalidation never deletes it.
	GenerationKey = "productos-generation"

	localMaxSize = 1000
)

var ProductCacheTracer = otel.Tracer("ProductCache")

// ProductCache caches product listings in process (ccache) and, when a Redis
// client is given, in Redis as well. Failures are logged and reported as
// misses.
//
// Entries are keyed by generation. A listing stored under a generation that
// an invalidation has since replaced is never read again, so a slow reader
// cannot put a pre-write snapshot back. With Redis the generation includes
// the shared counter, which also retires the local entries of every other
// process.
type ProductCache struct {
	local    *ccache.Cache[[]model.Product]
	redis    *redis.Client
	ttl      time.Duration
	localGen atomic.Uint64
}

// NewProductCache stores nothing when ttl is not positive.
func NewProductCache(ttl time.Duration, rdb *redis.Client) *ProductCache {
	return &ProductCache{
		local: ccache.New(ccache.Configure[[]model.Product]().MaxSize(localMaxSize)),
		redis: rdb,
		ttl:   ttl,
	}
}

// entryKeys returns the process-local and the Redis key of a listing. The
// Redis key carries only the shared part of the generation so every process
// reads the same entry.
func entryKeys(gen, filterKey string) (local, shared string) {
	sharedGen, _, _ := strings.Cut(gen, ".")
	return ProductListPrefix + gen + ":" + filterKey, ProductListPrefix + sharedGen + ":" + filterKey
}

// Generation must be read before the store is queried and passed unchanged
// to GetProducts and SetProducts. ok is false when the shared counter cannot
// be read; the cache must then be bypassed.
func (c *ProductCache) Generation(ctx context.Context) (string, bool) {
	local := c.localGen.Load()
	if c.redis == nil {
		return strconv.FormatUint(local, 10), true
	}
	shared, err := c.redis.Get(ctx, GenerationKey).Uint64()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Warn(ctx, "Redis generation read failed, bypassing cache", logger.Err(err))
		return "", false
	}
	return strconv.FormatUint(shared, 10) + "." + strconv.FormatUint(local, 10), true
}

// NewRedisClient connects and pings; the caller owns the client.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (c *ProductCache) GetProducts(ctx context.Context, gen, filterKey string) ([]model.Product, bool) {
	ctx, span := ProductCacheTracer.Start(ctx, "ProductCache.GetProducts")
	defer span.End()

	localKey, key := entryKeys(gen, filterKey)

	if item := c.local.Get(localKey); item != nil && !item.Expired() {
		return cloneList(item.Value()), true
	}
	if c.redis == nil {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn(ctx, "Redis get failed", slog.String("key", key), logger.Err(err))
		}
		return nil, false
	}
	var products []model.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		logger.Warn(ctx, "Discarding undecodable cache entry", slog.String("key", key), logger.Err(err))
		return nil, false
	}
	c.local.Set(localKey, products, c.ttl)
	return cloneList(products), true
}

func (c *ProductCache) SetProducts(ctx context.Context, gen, filterKey string, products []model.Product) {
	ctx, span := ProductCacheTracer.Start(ctx, "ProductCache.SetProducts")
	defer span.End()

	// A zero TTL would make the Redis entry permanent.
	if c.ttl <= 0 {
		return
	}
	localKey, key := entryKeys(gen, filterKey)

	c.local.Set(localKey, cloneList(products), c.ttl)
	if c.redis == nil {
		return
	}
	raw, err := json.Marshal(products)
	if err != nil {
		logger.Warn(ctx, "Cache encode failed", slog.String("key", key), logger.Err(err))
		return
	}
	if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.Warn(ctx, "Redis set failed", slog.String("key", key), logger.Err(err))
	}
}

// InvalidateProducts drops every cached listing after a catalog write.
func (c *ProductCache) InvalidateProducts(ctx context.Context) {
	ctx, span := ProductCacheTracer.Start(ctx, "ProductCache.InvalidateProducts")
	defer span.End()

	c.localGen.Add(1)
	c.local.DeletePrefix(ProductListPrefix)
	if c.redis == nil {
		return
	}
	if err := c.redis.Incr(ctx, GenerationKey).Err(); err != nil {
		logger.Warn(ctx, "Redis generation bump failed", logger.Err(err))
	}
	// Old generations are unreachable; deleting them only frees memory.
	iter := c.redis.Scan(ctx, 0, ProductListPattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn(ctx, "Redis scan failed", logger.Err(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		logger.Warn(ctx, "Redis delete failed", slog.Int("keys", len(keys)), logger.Err(err))
	}
}

// Ping reports the Redis level's health. It is nil when Redis is not used.
func (c *ProductCache) Ping(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}

func (c *ProductCache) RedisEnabled() bool {
	return c.redis != nil
}

func (c *ProductCache) Close() error {
	c.local.Stop()
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}

func cloneList(products []model.Product) []model.Product {
	if products == nil {
		return nil
	}
	out := make([]model.Product, len(products))
	copy(out, products)
	return out
}
