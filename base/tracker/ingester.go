package tracker

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/x-xyz/keeper/base/abi"
	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/base/metrics"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
)

type IngesterCfg struct {
	ChainId domain.ChainId
	// Client serves block lookups for tx hash recovery and block times. It may be nil.
	Client         domain.EthClientRepo
	AuctionUseCase auction.UseCase
	Seen           SeenSet
	Metrics        metrics.Service
}

// Ingester turns auction hub and bid manager logs of one chain into stored records.
// Ingest is safe to call more than once for the same log.
type Ingester struct {
	chainId    domain.ChainId
	auctionUC  auction.UseCase
	seen       SeenSet
	txHashes   *TxHashResolver
	blockTimes *blockTimes
	met        metrics.Service
	handls     map[common.Hash]eventHandler
	timeNow    func() time.Time
}

func NewIngester(cfg *IngesterCfg) (*Ingester, error) {
	seen := cfg.Seen
	if seen == nil {
		s, err := NewSeenSet(0, nil, 0)
		if err != nil {
			return nil, err
		}
		seen = s
	}
	met := cfg.Metrics
	if met == nil {
		met = metrics.Noop()
	}
	in := &Ingester{
		chainId:    cfg.ChainId,
		auctionUC:  cfg.AuctionUseCase,
		seen:       seen,
		txHashes:   NewTxHashResolver(cfg.ChainId, cfg.Client),
		blockTimes: newBlockTimes(cfg.ChainId, cfg.Client),
		met:        met,
		timeNow:    time.Now,
	}
	in.handls = in.handlers()
	return in, nil
}

func (in *Ingester) ChainId() domain.ChainId {
	return in.chainId
}

// Ingest dedups the log and hands it to the handler for its topic. Logs with unknown
// topics are ignored. When handling fails the log is forgotten so a redelivery retries it.
func (in *Ingester) Ingest(c bCtx.Ctx, env Envelope) error {
	l := env.RawLog()
	if len(l.Topics) == 0 {
		return nil
	}
	h, ok := in.handls[l.Topics[0]]
	if !ok {
		c.WithField("topic", l.Topics[0].Hex()).Warn("unknown topic, skipping")
		return nil
	}
	if len(l.Topics) < 2 {
		return abi.ErrMissingTopics
	}
	intentId := toIntentId(l.Topics[1])
	ctx := bCtx.WithLogFields(c, log.Fields{
		"chainId":  in.chainId,
		"kind":     h.kind,
		"intentId": intentId,
		"block":    l.BlockNumber,
		"logIndex": l.Index,
	})

	txHash, src := in.txHashes.Resolve(ctx, env, fmt.Sprintf("%s:%s", h.kind, intentId))
	ctx = bCtx.WithLogFields(ctx, log.Fields{"txHash": txHash})
	tags := []string{"chainId", fmt.Sprint(in.chainId), "kind", h.kind}
	if src == TxHashFromFallback {
		in.met.BumpSum("tracker.txhash.fallback", 1, 1, tags...)
	}

	key := DedupKey(txHash, l.Index, h.kind, intentId)
	first, err := in.seen.MarkSeen(ctx, key)
	if err != nil {
		return err
	}
	if !first {
		ctx.Debug("duplicate event, skipping")
		in.met.BumpSum("tracker.event.duplicate", 1, 1, tags...)
		return nil
	}

	blockTime, err := in.blockTimes.get(ctx, l.BlockNumber)
	if err != nil {
		// ordering hint only, never worth losing the event over
		ctx.WithField("err", err).Warn("block time unavailable, using local clock")
		blockTime = in.timeNow().UTC()
	}

	if err := h.handle(ctx, l, toLogMeta(in.chainId, l, txHash, blockTime)); err != nil {
		in.seen.Forget(ctx, key)
		in.met.BumpSum("tracker.event.err", 1, 1, tags...)
		return err
	}
	in.met.BumpSum("tracker.event.ingested", 1, 1, append(tags, "txHashSource", string(src))...)
	return nil
}

// IngestReceipt feeds every log of receipt emitted by one of contracts.
func (in *Ingester) IngestReceipt(ctx bCtx.Ctx, receipt *types.Receipt, contracts ...common.Address) (int, error) {
	n := 0
	for _, env := range ReceiptEnvelopes(receipt) {
		if !matchesContract(env.RawLog().Address, contracts) {
			continue
		}
		if err := in.Ingest(ctx, env); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func matchesContract(addr common.Address, contracts []common.Address) bool {
	if len(contracts) == 0 {
		return true
	}
	for _, c := range contracts {
		if c == addr {
			return true
		}
	}
	return false
}
