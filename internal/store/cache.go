package store

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/yanun0323/errors"

	"main/internal/model"
	"main/pkg/exception"
)

const tickKeyPrefix = "tick:"

// TickCache keeps the most recent trade per symbol so a fresh tick
// subscriber receives an immediate snapshot before live delivery begins.
// Best-effort: cache failures never interrupt the pipeline.
type TickCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTickCache wraps a Redis client. A nil client disables the cache.
func NewTickCache(rdb *redis.Client, ttl time.Duration) *TickCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TickCache{rdb: rdb, ttl: ttl}
}

// Enabled reports whether a Redis backend is attached.
func (c *TickCache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// SetLatest stores the newest trade for its symbol.
func (c *TickCache) SetLatest(ctx context.Context, ev model.TradeEvent) error {
	if !c.Enabled() {
		return exception.ErrCacheDisabled
	}
	value, err := sonic.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encode tick")
	}
	if err := c.rdb.Set(ctx, tickKeyPrefix+ev.Symbol, value, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "cache tick")
	}
	return nil
}

// Latest returns the cached newest trade for a symbol.
func (c *TickCache) Latest(ctx context.Context, symbol string) (model.TradeEvent, error) {
	if !c.Enabled() {
		return model.TradeEvent{}, exception.ErrCacheDisabled
	}
	value, err := c.rdb.Get(ctx, tickKeyPrefix+symbol).Bytes()
	if err != nil {
		if err == redis.Nil {
			return model.TradeEvent{}, exception.ErrCacheMiss
		}
		return model.TradeEvent{}, errors.Wrap(err, "read tick")
	}
	var ev model.TradeEvent
	if err := sonic.Unmarshal(value, &ev); err != nil {
		return model.TradeEvent{}, errors.Wrap(err, "decode tick")
	}
	return ev, nil
}
