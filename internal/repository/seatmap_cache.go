package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/cinema-booking/internal/metrics"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// SeatMapSource loads a theater's seat map from the system of record.
type SeatMapSource interface {
	SeatMap(ctx context.Context, theaterID uint64) ([]model.SeatRecord, error)
}

// SeatMapCache serves seat maps from Redis, falling back to the source on
// a miss.  Concurrent misses for one theater share a single load.  A nil
// Redis client turns the cache into a pass-through.  Redis failures are
// logged and never surface to callers.
//
// Entries live under a per-theater generation: prefix:<theater>:<gen>.
// Invalidate bumps the generation, so a load that started before a commit
// can only write to a key no reader will look up again.
type SeatMapCache struct {
	rdb    *redis.Client
	source SeatMapSource
	ttl    time.Duration
	prefix string
	log    *zap.Logger
	group  singleflight.Group
}

const (
	invalidateTimeout = 2 * time.Second
	loadTimeout       = 5 * time.Second
)

// NewSeatMapCache builds a cache in front of source.
func NewSeatMapCache(rdb *redis.Client, source SeatMapSource, ttl time.Duration, prefix string, log *zap.Logger) *SeatMapCache {
	if log == nil {
		log = zap.NewNop()
	}
	if prefix == "" {
		prefix = "seatmap"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SeatMapCache{rdb: rdb, source: source, ttl: ttl, prefix: prefix, log: log}
}

func (c *SeatMapCache) genKey(theaterID uint64) string {
	return c.prefix + ":" + strconv.FormatUint(theaterID, 10) + ":gen"
}

func (c *SeatMapCache) key(theaterID uint64, gen int64) string {
	return c.prefix + ":" + strconv.FormatUint(theaterID, 10) + ":" + strconv.FormatInt(gen, 10)
}

// SeatMap returns the seat map of a theater.
func (c *SeatMapCache) SeatMap(ctx context.Context, theaterID uint64) ([]model.SeatRecord, error) {
	if c.rdb == nil {
		return c.source.SeatMap(ctx, theaterID)
	}
	gen, err := c.rdb.Get(ctx, c.genKey(theaterID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		metrics.SeatMapCacheError()
		c.log.Warn("seat map generation read failed", zap.Uint64("theater_id", theaterID), zap.Error(err))
		return c.source.SeatMap(ctx, theaterID)
	}

	key := c.key(theaterID, gen)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var seats []model.SeatRecord
		if jsonErr := json.Unmarshal(raw, &seats); jsonErr == nil {
			metrics.SeatMapCacheHit()
			return seats, nil
		}
		c.log.Warn("discarding undecodable seat map cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		metrics.SeatMapCacheError()
		c.log.Warn("seat map cache read failed", zap.String("key", key), zap.Error(err))
		return c.source.SeatMap(ctx, theaterID)
	}

	metrics.SeatMapCacheMiss()
	// The load is shared by every waiter on key, so it must not die with
	// whichever caller happened to start it.
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
	defer cancel()
	v, err, _ := c.group.Do(key, func() (any, error) {
		seats, err := c.source.SeatMap(loadCtx, theaterID)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(seats); err == nil {
			if err := c.rdb.Set(loadCtx, key, payload, c.ttl).Err(); err != nil {
				c.log.Warn("seat map cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return seats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.SeatRecord), nil
}

// Invalidate moves a theater to a new cache generation.  It is called after
// every committed claim or release and outlives the request that made it.
func (c *SeatMapCache) Invalidate(ctx context.Context, theaterID uint64) {
	if c.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
	defer cancel()
	if err := c.rdb.Incr(ctx, c.genKey(theaterID)).Err(); err != nil {
		metrics.SeatMapCacheError()
		c.log.Warn("seat map cache invalidation failed", zap.Uint64("theater_id", theaterID), zap.Error(err))
	}
}
