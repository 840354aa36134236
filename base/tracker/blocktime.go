package tracker

import (
	"math/big"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/x-xyz/keeper/base/backoff"
	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/domain"
)

const (
	blockTimeCacheSize = 4096
	headerRetryLimit   = 5
)

// blockTimes caches block timestamps so a batch of logs from one block costs one header call.
type blockTimes struct {
	chainId    domain.ChainId
	client     domain.EthClientRepo
	cache      *lru.Cache
	retryStart time.Duration
}

func newBlockTimes(chainId domain.ChainId, client domain.EthClientRepo) *blockTimes {
	cache, _ := lru.New(blockTimeCacheSize)
	return &blockTimes{chainId: chainId, client: client, cache: cache, retryStart: 200 * time.Millisecond}
}

func (b *blockTimes) get(ctx bCtx.Ctx, number uint64) (time.Time, error) {
	if v, ok := b.cache.Get(number); ok {
		return v.(time.Time), nil
	}
	if b.client == nil {
		return time.Time{}, domain.ErrNotFound
	}

	bo := backoff.NewExponential(b.retryStart, 5*time.Second)
	blk := new(big.Int).SetUint64(number)
	for {
		h, err := b.client.HeaderByNumber(ctx, blk)
		if err == nil {
			t := time.Unix(int64(h.Time), 0).UTC()
			b.cache.Add(number, t)
			return t, nil
		}
		if bo.Attempts() >= headerRetryLimit {
			return time.Time{}, err
		}
		ctx.WithFields(log.Fields{
			"chainId": b.chainId,
			"blk":     number,
			"retry":   bo.Attempts(),
			"err":     err,
		}).Warn("HeaderByNumber failed, retry")
		if err := bo.Backoff(ctx); err != nil {
			return time.Time{}, err
		}
	}
}
