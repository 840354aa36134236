package redis

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/service/cache/provider"
	"github.com/x-xyz/keeper/service/redis"
	mockRedis "github.com/x-xyz/keeper/service/redis/mocks"
)

var mockCtx = ctx.Background()

type testsuite struct {
	suite.Suite
	im    provider.Provider
	redis *mockRedis.Service
}

func (ts *testsuite) SetupTest() {
	ts.redis = mockRedis.NewService(ts.T())
	ts.im = NewRedis(ts.redis)
}

func TestRedisProvider(t *testing.T) {
	suite.Run(t, new(testsuite))
}

func (ts *testsuite) TestSetExpiry() {
	v := []byte("6")

	ts.redis.On("Set", mockCtx, "tokenInfo:usdc", v, time.Minute).Return(nil).Once()
	ts.NoError(ts.im.Set(mockCtx, "tokenInfo:usdc", v, time.Minute))

	ts.redis.On("Set", mockCtx, "tokenInfo:usdc", v, redis.Forever).Return(nil).Once()
	ts.NoError(ts.im.Set(mockCtx, "tokenInfo:usdc", v, 0))
}

func (ts *testsuite) TestGet() {
	k := "tokenInfo:weth"
	v := []byte("18")

	ts.redis.On("Get", mockCtx, k).Return(nil, redis.ErrNotFound).Once()
	res, _, err := ts.im.Get(mockCtx, k)
	ts.Nil(res)
	ts.True(errors.Is(err, provider.ErrNotFound))

	ts.redis.On("Get", mockCtx, k).Return(v, nil).Once()
	ts.redis.On("TTL", mockCtx, k).Return(30, nil).Once()
	res, ttl, err := ts.im.Get(mockCtx, k)
	ts.NoError(err)
	ts.Equal(v, res)
	ts.Equal(30*time.Second, ttl)

	ts.redis.On("Get", mockCtx, k).Return(v, nil).Once()
	ts.redis.On("TTL", mockCtx, k).Return(0, redis.ErrNoTTL).Once()
	_, ttl, err = ts.im.Get(mockCtx, k)
	ts.NoError(err)
	ts.Zero(ttl)
}

func (ts *testsuite) TestGetExpiresBetweenCalls() {
	k := "tokenInfo:dai"
	ts.redis.On("Get", mockCtx, k).Return([]byte("18"), nil).Once()
	ts.redis.On("TTL", mockCtx, k).Return(0, redis.ErrNotFound).Once()

	_, _, err := ts.im.Get(mockCtx, k)
	ts.True(errors.Is(err, provider.ErrNotFound))
}

func (ts *testsuite) TestSetNX() {
	k := "seenLog:0xabc"
	v := []byte("1")

	ts.redis.On("SetNX", mockCtx, k, v, time.Hour).Return(true, nil).Once()
	ok, err := ts.im.SetNX(mockCtx, k, v, time.Hour)
	ts.NoError(err)
	ts.True(ok)

	ts.redis.On("SetNX", mockCtx, k, v, time.Hour).Return(false, nil).Once()
	ok, err = ts.im.SetNX(mockCtx, k, v, time.Hour)
	ts.NoError(err)
	ts.False(ok)

	ts.redis.On("SetNX", mockCtx, k, v, time.Hour).Return(false, errors.New("conn refused")).Once()
	_, err = ts.im.SetNX(mockCtx, k, v, time.Hour)
	ts.Error(err)
}

func (ts *testsuite) TestDel() {
	ts.redis.On("Del", mockCtx, "k").Return(1, nil).Once()
	ts.NoError(ts.im.Del(mockCtx, "k"))
}
