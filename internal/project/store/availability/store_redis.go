package availability

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"bto/internal/project/models"
	"bto/pkg/platform/sentinel"
)

var (
	cacheReadDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bto_availability_cache_read_duration_ms",
		Help:    "Latency of availability cache reads in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

const (
	// Redis key prefix for per-project unit availability hashes
	unitsKeyPrefix = "units:"

	defaultTTL = 10 * time.Minute
)

// Units is the cached availability of one flat type.
type Units struct {
	Available int `json:"available"`
	Total     int `json:"total"`
}

// RedisCache keeps a read-optimised copy of each project's unit ledger in a
// Redis hash: field "<FLAT_TYPE>:available" and "<FLAT_TYPE>:total".
// The project store remains the source of truth.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type Option func(*RedisCache)

// WithTTL sets how long a cached ledger lives without being refreshed.
func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func NewRedis(client *redis.Client, opts ...Option) *RedisCache {
	c := &RedisCache{client: client, ttl: defaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func unitsKey(projectID string) string {
	return unitsKeyPrefix + projectID
}

// Put replaces the cached ledger for p. The delete and write run in one
// MULTI/EXEC so readers never see a half-written hash.
func (c *RedisCache) Put(ctx context.Context, p *models.Project) error {
	key := unitsKey(p.ID())
	fields := make([]any, 0, 4*len(p.FlatTypes()))
	for _, t := range p.FlatTypes() {
		fields = append(fields,
			string(t)+":available", p.AvailableUnitsByType(t),
			string(t)+":total", p.TotalUnitsByType(t),
		)
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(fields) > 0 {
			pipe.HSet(ctx, key, fields...)
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache availability for %s: %w", p.ID(), err)
	}
	return nil
}

// Get returns the cached ledger. A missing entry is sentinel.ErrNotFound.
func (c *RedisCache) Get(ctx context.Context, projectID string) (map[models.FlatType]Units, error) {
	start := time.Now()
	defer func() {
		cacheReadDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	raw, err := c.client.HGetAll(ctx, unitsKey(projectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read cached availability for %s: %w", projectID, err)
	}
	if len(raw) == 0 {
		return nil, sentinel.ErrNotFound
	}

	out := make(map[models.FlatType]Units, len(raw)/2)
	for field, value := range raw {
		flatType, kind, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("parse cached %s for %s: %w", field, projectID, err)
		}
		u := out[models.FlatType(flatType)]
		switch kind {
		case "available":
			u.Available = n
		case "total":
			u.Total = n
		}
		out[models.FlatType(flatType)] = u
	}
	return out, nil
}

// Invalidate drops the cached ledger for projectID.
func (c *RedisCache) Invalidate(ctx context.Context, projectID string) error {
	return c.client.Del(ctx, unitsKey(projectID)).Err()
}
