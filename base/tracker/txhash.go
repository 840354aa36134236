package tracker

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
)

// fallbackNamespace scopes the name-based ids minted for logs without a recoverable hash.
var fallbackNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("x-xyz/keeper/fallback-tx-hash"))

// TxHashSource records which step of the resolution chain produced a hash.
type TxHashSource string

const (
	TxHashFromLog      TxHashSource = "log"
	TxHashFromWrapper  TxHashSource = "wrapper"
	TxHashFromBlock    TxHashSource = "block"
	TxHashFromFallback TxHashSource = "fallback"
)

type TxHashResolver struct {
	chainId domain.ChainId
	client  domain.EthClientRepo
}

func NewTxHashResolver(chainId domain.ChainId, client domain.EthClientRepo) *TxHashResolver {
	return &TxHashResolver{chainId: chainId, client: client}
}

// Resolve tries the log itself, then the wrapper it came in, then the block's transaction
// list at the log's TxIndex. When all fail it mints a deterministic fallback id so the
// event is still recorded, and the same log always maps to the same id.
func (r *TxHashResolver) Resolve(ctx bCtx.Ctx, env Envelope, discriminator string) (domain.TxHash, TxHashSource) {
	l := env.RawLog()
	if l.TxHash != (common.Hash{}) {
		return toTxHash(l.TxHash), TxHashFromLog
	}
	if h, ok := env.nestedTxHash(); ok {
		return toTxHash(h), TxHashFromWrapper
	}
	if h, err := r.fromBlock(ctx, env); err == nil {
		return toTxHash(h), TxHashFromBlock
	} else {
		ctx.WithFields(log.Fields{
			"chainId":     r.chainId,
			"blockNumber": l.BlockNumber,
			"txIndex":     l.TxIndex,
			"err":         err,
		}).Debug("tx hash not recoverable from block")
	}

	id := r.fallback(l.BlockNumber, l.BlockHash, l.Index, discriminator)
	ctx.WithFields(log.Fields{
		"chainId":     r.chainId,
		"blockNumber": l.BlockNumber,
		"logIndex":    l.Index,
		"fallback":    id,
	}).Warn("no transaction hash for event, using fallback id")
	return id, TxHashFromFallback
}

func (r *TxHashResolver) fromBlock(ctx bCtx.Ctx, env Envelope) (common.Hash, error) {
	if r.client == nil {
		return common.Hash{}, domain.ErrNotFound
	}
	l := env.RawLog()
	var (
		blk *types.Block
		err error
	)
	if l.BlockHash != (common.Hash{}) {
		blk, err = r.client.BlockByHash(ctx, l.BlockHash)
	} else {
		blk, err = r.client.BlockByNumber(ctx, new(big.Int).SetUint64(l.BlockNumber))
	}
	if err != nil {
		return common.Hash{}, err
	}
	txs := blk.Transactions()
	if int(l.TxIndex) >= len(txs) {
		return common.Hash{}, fmt.Errorf("tx index %d out of range (%d txs)", l.TxIndex, len(txs))
	}
	return txs[l.TxIndex].Hash(), nil
}

func (r *TxHashResolver) fallback(blockNumber uint64, blockHash common.Hash, logIndex uint, discriminator string) domain.TxHash {
	name := fmt.Sprintf("%d:%d:%s:%d:%s", r.chainId, blockNumber, lowerHex(blockHash), logIndex, discriminator)
	return domain.TxHash(auction.FallbackHashPrefix + uuid.NewSHA1(fallbackNamespace, []byte(name)).String())
}

func toTxHash(h common.Hash) domain.TxHash {
	return domain.TxHash(lowerHex(h))
}
