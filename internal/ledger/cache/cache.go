package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	platformredis "carecoin/internal/platform/redis"
)

const keyPrefix = "carecoin:balance:"

// BalanceCache is a read-through cache for balance queries, the hottest
// endpoint on the ledger (tier gating checks balances on nearly every
// platform request). Mutating operations invalidate the affected accounts;
// a cache failure is treated as a miss so the ledger remains the source of
// truth.
type BalanceCache struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New builds a BalanceCache. A nil client disables caching: all lookups
// miss and writes are no-ops.
func New(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *BalanceCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &BalanceCache{client: client, ttl: ttl, logger: logger}
}

// Get returns a cached balance and whether it was present.
func (c *BalanceCache) Get(ctx context.Context, account string) (uint64, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}
	raw, err := c.client.Client.Get(ctx, keyPrefix+account).Result()
	if err != nil {
		return 0, false
	}
	balance, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.logger.Warn("corrupt cached balance, dropping", "account", account)
		c.client.Client.Del(ctx, keyPrefix+account)
		return 0, false
	}
	return balance, true
}

// Set stores a balance for the configured TTL.
func (c *BalanceCache) Set(ctx context.Context, account string, balance uint64) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Client.Set(ctx, keyPrefix+account, strconv.FormatUint(balance, 10), c.ttl).Err(); err != nil {
		c.logger.Debug("balance cache set failed", "account", account, "error", err)
	}
}

// Invalidate drops cached balances for the given accounts. Called after any
// operation that moved value involving them.
func (c *BalanceCache) Invalidate(ctx context.Context, accounts ...string) {
	if c == nil || c.client == nil || len(accounts) == 0 {
		return
	}
	keys := make([]string, 0, len(accounts))
	for _, account := range accounts {
		if account != "" {
			keys = append(keys, keyPrefix+account)
		}
	}
	if err := c.client.Client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Debug("balance cache invalidation failed", "error", err)
	}
}
