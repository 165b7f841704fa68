//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"carecoin/internal/ledger/cache"
	"carecoin/internal/platform/logger"
	platformredis "carecoin/internal/platform/redis"
	"carecoin/pkg/testutil/containers"
)

type BalanceCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.BalanceCache
}

func TestBalanceCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(BalanceCacheSuite))
}

func (s *BalanceCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())

	client, err := platformredis.New(context.Background(), s.redis.URL)
	s.Require().NoError(err)
	s.Require().NotNil(client)
	s.cache = cache.New(client, time.Minute, logger.New())
}

func (s *BalanceCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *BalanceCacheSuite) TestGetSet() {
	ctx := context.Background()

	s.Run("miss before set", func() {
		_, ok := s.cache.Get(ctx, "user-a")
		s.False(ok)
	})

	s.Run("hit after set", func() {
		s.cache.Set(ctx, "user-a", 1234)
		balance, ok := s.cache.Get(ctx, "user-a")
		s.True(ok)
		s.Equal(uint64(1234), balance)
	})

	s.Run("zero balances are cacheable", func() {
		s.cache.Set(ctx, "user-b", 0)
		balance, ok := s.cache.Get(ctx, "user-b")
		s.True(ok)
		s.Zero(balance)
	})
}

func (s *BalanceCacheSuite) TestInvalidate() {
	ctx := context.Background()

	s.cache.Set(ctx, "sender", 100)
	s.cache.Set(ctx, "recipient", 200)
	s.cache.Set(ctx, "bystander", 300)

	s.cache.Invalidate(ctx, "sender", "recipient")

	_, ok := s.cache.Get(ctx, "sender")
	s.False(ok)
	_, ok = s.cache.Get(ctx, "recipient")
	s.False(ok)

	balance, ok := s.cache.Get(ctx, "bystander")
	s.True(ok)
	s.Equal(uint64(300), balance)
}

func (s *BalanceCacheSuite) TestCorruptEntryReadsAsMiss() {
	ctx := context.Background()

	err := s.redis.Client.Set(ctx, "carecoin:balance:user-a", "not-a-number", time.Minute).Err()
	s.Require().NoError(err)

	_, ok := s.cache.Get(ctx, "user-a")
	s.False(ok)
}

func (s *BalanceCacheSuite) TestNilCacheIsSafe() {
	ctx := context.Background()
	var disabled *cache.BalanceCache

	_, ok := disabled.Get(ctx, "user-a")
	s.False(ok)
	disabled.Set(ctx, "user-a", 1)
	disabled.Invalidate(ctx, "user-a")
}
