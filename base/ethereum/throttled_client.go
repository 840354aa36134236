// Package ethereum bounds the rpc pressure the keeper puts on one endpoint.
package ethereum

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/sync/semaphore"

	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/domain"
)

const slowAcquire = time.Second

// ThrottledClient allows at most n rpc calls in flight against inner. A call whose
// context ends while waiting for a slot fails with the context error.
type ThrottledClient struct {
	inner  domain.EthClientRepo
	slots  *semaphore.Weighted
	logger log.Logger
}

func NewThrottledClient(inner domain.EthClientRepo, n int) *ThrottledClient {
	if n <= 0 {
		n = 1
	}
	return &ThrottledClient{
		inner:  inner,
		slots:  semaphore.NewWeighted(int64(n)),
		logger: log.Log().WithField("component", "throttledClient"),
	}
}

// Dial connects to url, http or websocket, and allows n concurrent calls.
func Dial(ctx context.Context, url string, n int) (*ThrottledClient, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewThrottledClient(client, n), nil
}

func throttle[T any](c *ThrottledClient, ctx context.Context, call func() (T, error)) (T, error) {
	start := time.Now()
	if err := c.slots.Acquire(ctx, 1); err != nil {
		var zero T
		return zero, err
	}
	defer c.slots.Release(1)
	if waited := time.Since(start); waited > slowAcquire {
		c.logger.WithField("waited", waited.String()).Debug("rpc call throttled")
	}
	return call()
}

func (c *ThrottledClient) ChainID(ctx context.Context) (*big.Int, error) {
	return throttle(c, ctx, func() (*big.Int, error) { return c.inner.ChainID(ctx) })
}

func (c *ThrottledClient) BlockNumber(ctx context.Context) (uint64, error) {
	return throttle(c, ctx, func() (uint64, error) { return c.inner.BlockNumber(ctx) })
}

func (c *ThrottledClient) BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error) {
	return throttle(c, ctx, func() (*types.Block, error) { return c.inner.BlockByNumber(ctx, number) })
}

func (c *ThrottledClient) BlockByHash(ctx context.Context, hash common.Hash) (*types.Block, error) {
	return throttle(c, ctx, func() (*types.Block, error) { return c.inner.BlockByHash(ctx, hash) })
}

func (c *ThrottledClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return throttle(c, ctx, func() (*types.Header, error) { return c.inner.HeaderByNumber(ctx, number) })
}

func (c *ThrottledClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return throttle(c, ctx, func() ([]types.Log, error) { return c.inner.FilterLogs(ctx, q) })
}

// SubscribeFilterLogs only holds a slot while the subscription is being set up.
func (c *ThrottledClient) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return throttle(c, ctx, func() (ethereum.Subscription, error) { return c.inner.SubscribeFilterLogs(ctx, q, ch) })
}

func (c *ThrottledClient) CodeAt(ctx context.Context, addr common.Address, number *big.Int) ([]byte, error) {
	return throttle(c, ctx, func() ([]byte, error) { return c.inner.CodeAt(ctx, addr, number) })
}

func (c *ThrottledClient) CallContract(ctx context.Context, msg ethereum.CallMsg, number *big.Int) ([]byte, error) {
	return throttle(c, ctx, func() ([]byte, error) { return c.inner.CallContract(ctx, msg, number) })
}

func (c *ThrottledClient) PendingCodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	return throttle(c, ctx, func() ([]byte, error) { return c.inner.PendingCodeAt(ctx, addr) })
}

func (c *ThrottledClient) PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	return throttle(c, ctx, func() (uint64, error) { return c.inner.PendingNonceAt(ctx, addr) })
}

func (c *ThrottledClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return throttle(c, ctx, func() (*big.Int, error) { return c.inner.SuggestGasPrice(ctx) })
}

func (c *ThrottledClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return throttle(c, ctx, func() (*big.Int, error) { return c.inner.SuggestGasTipCap(ctx) })
}

func (c *ThrottledClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return throttle(c, ctx, func() (uint64, error) { return c.inner.EstimateGas(ctx, msg) })
}

func (c *ThrottledClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	_, err := throttle(c, ctx, func() (struct{}, error) { return struct{}{}, c.inner.SendTransaction(ctx, tx) })
	return err
}

func (c *ThrottledClient) TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, pending bool, err error) {
	_, err = throttle(c, ctx, func() (struct{}, error) {
		var callErr error
		tx, pending, callErr = c.inner.TransactionByHash(ctx, hash)
		return struct{}{}, callErr
	})
	return tx, pending, err
}

func (c *ThrottledClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return throttle(c, ctx, func() (*types.Receipt, error) { return c.inner.TransactionReceipt(ctx, hash) })
}

func (c *ThrottledClient) Close() {
	c.inner.Close()
}
