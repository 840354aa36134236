package cache

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain/keys"
	"github.com/x-xyz/keeper/service/cache/provider"
	"github.com/x-xyz/keeper/service/cache/provider/primitive"
)

var (
	mockCtx = ctx.Background()
)

type tokenMeta struct {
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}

type testsuite struct {
	suite.Suite
	im    Service
	store provider.Provider
}

func (ts *testsuite) SetupTest() {
	ts.store = primitive.NewPrimitive("test", 1)
	ts.im = New(Config{
		TTL:      time.Second,
		Prefix:   "tokenInfo",
		Provider: ts.store,
	})
}

func Test(t *testing.T) {
	suite.Run(t, new(testsuite))
}

func (ts *testsuite) TestGetMiss() {
	ts.True(errors.Is(ts.im.Get(mockCtx, "1:0xa1", &tokenMeta{}), ErrNotFound))
}

func (ts *testsuite) TestSetUsesPrefix() {
	v := tokenMeta{"USDC", 6}
	ts.NoError(ts.im.Set(mockCtx, "1:0xa1", v))

	raw, _, err := ts.store.Get(mockCtx, keys.RedisKey("tokenInfo", "1:0xa1"))
	ts.Require().NoError(err)
	got := tokenMeta{}
	ts.NoError(json.Unmarshal(raw, &got))
	ts.Equal(v, got)

	got = tokenMeta{}
	ts.NoError(ts.im.Get(mockCtx, "1:0xa1", &got))
	ts.Equal(v, got)
}

func (ts *testsuite) TestExpires() {
	ts.NoError(ts.im.Set(mockCtx, "1:0xa1", tokenMeta{"USDC", 6}))
	time.Sleep(2 * time.Second)
	ts.True(errors.Is(ts.im.Get(mockCtx, "1:0xa1", &tokenMeta{}), ErrNotFound))
}

func (ts *testsuite) TestGetByFuncLoadsOnce() {
	calls := 0
	load := func() (interface{}, error) {
		calls++
		return &tokenMeta{"WETH", 18}, nil
	}

	got := tokenMeta{}
	ts.NoError(ts.im.GetByFunc(mockCtx, "1:0xb1", &got, load))
	ts.Equal(tokenMeta{"WETH", 18}, got)

	got = tokenMeta{}
	ts.NoError(ts.im.GetByFunc(mockCtx, "1:0xb1", &got, load))
	ts.Equal(tokenMeta{"WETH", 18}, got)
	ts.Equal(1, calls)
}

func (ts *testsuite) TestGetByFuncLoadErrorIsNotCached() {
	boom := errors.New("rpc down")
	err := ts.im.GetByFunc(mockCtx, "1:0xc1", &tokenMeta{}, func() (interface{}, error) {
		return nil, boom
	})
	ts.True(errors.Is(err, boom))
	ts.True(errors.Is(ts.im.Get(mockCtx, "1:0xc1", &tokenMeta{}), ErrNotFound))
}

func (ts *testsuite) TestGetByFuncTypeMismatch() {
	err := ts.im.GetByFunc(mockCtx, "1:0xd1", &tokenMeta{}, func() (interface{}, error) {
		return "USDC", nil
	})
	ts.Error(err)
}

func (ts *testsuite) TestGetByFuncSharesConcurrentLoads() {
	var calls int32
	release := make(chan struct{})
	load := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return &tokenMeta{"DAI", 18}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := tokenMeta{}
			ts.NoError(ts.im.GetByFunc(mockCtx, "1:0xe1", &got, load))
			ts.Equal("DAI", got.Symbol)
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	ts.LessOrEqual(atomic.LoadInt32(&calls), int32(4))
	ts.GreaterOrEqual(atomic.LoadInt32(&calls), int32(1))
}
