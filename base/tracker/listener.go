package tracker

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/smallnest/chanx"
	"golang.org/x/xerrors"

	"github.com/x-xyz/keeper/base/backoff"
	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/base/metrics"
	"github.com/x-xyz/keeper/domain"
)

const (
	CaughtUpBlock       = 5
	TooManyLogsTimeout  = 30 * time.Second
	defaultPollInterval = 15 * time.Second
	subBufferSize       = 128
)

// LogIngester is what a Listener feeds. *Ingester implements it.
type LogIngester interface {
	Ingest(bCtx.Ctx, Envelope) error
}

type ListenerCfg struct {
	ChainId  domain.ChainId
	Tag      string
	Contract common.Address
	Topics   [][]common.Hash

	RpcClient domain.EthClientRepo
	// WsClient is optional. Without it the listener polls RpcClient every PollInterval.
	WsClient            domain.EthClientRepo
	Ingester            LogIngester
	TrackerStateUseCase domain.TrackerStateUseCase
	Metrics             metrics.Service

	// BackfillBlocks is how far behind head a listener without a checkpoint starts.
	BackfillBlocks uint64
	// FollowDistance keeps polling this many blocks behind head. Subscriptions always
	// backfill to head, as they only deliver logs mined after they start.
	FollowDistance uint64
	PollInterval   time.Duration
	ReconnectStart time.Duration
	ReconnectLimit time.Duration
}

// Listener follows one contract on one chain. Each session backfills from the stored
// checkpoint to head, then either consumes a log subscription or polls. A dropped
// session is restarted with exponential backoff, so logs missed while disconnected
// are picked up by the next backfill.
type Listener struct {
	chainId        domain.ChainId
	tag            string
	contract       common.Address
	filter         ethereum.FilterQuery
	rpcClient      domain.EthClientRepo
	wsClient       domain.EthClientRepo
	ingester       LogIngester
	trackerStateUC domain.TrackerStateUseCase
	met            metrics.Service
	backfillBlocks uint64
	followDistance uint64
	pollInterval   time.Duration
	reconnectStart time.Duration
	reconnectLimit time.Duration

	state *domain.TrackerState
}

func NewListener(cfg *ListenerCfg) (*Listener, error) {
	if cfg.RpcClient == nil || cfg.Ingester == nil || cfg.TrackerStateUseCase == nil {
		return nil, xerrors.Errorf("%w: listener needs rpc client, ingester and tracker state usecase", domain.ErrInvalidConfig)
	}
	if cfg.Contract == (common.Address{}) {
		return nil, xerrors.Errorf("%w: listener contract address is empty", domain.ErrInvalidConfig)
	}
	met := cfg.Metrics
	if met == nil {
		met = metrics.Noop()
	}
	l := &Listener{
		chainId:  cfg.ChainId,
		tag:      cfg.Tag,
		contract: cfg.Contract,
		filter: ethereum.FilterQuery{
			Addresses: []common.Address{cfg.Contract},
			Topics:    cfg.Topics,
		},
		rpcClient:      cfg.RpcClient,
		wsClient:       cfg.WsClient,
		ingester:       cfg.Ingester,
		trackerStateUC: cfg.TrackerStateUseCase,
		met:            met,
		backfillBlocks: cfg.BackfillBlocks,
		followDistance: cfg.FollowDistance,
		pollInterval:   cfg.PollInterval,
		reconnectStart: cfg.ReconnectStart,
		reconnectLimit: cfg.ReconnectLimit,
	}
	if l.tag == "" {
		l.tag = domain.DefaultTag
	}
	if l.pollInterval <= 0 {
		l.pollInterval = defaultPollInterval
	}
	if l.reconnectStart <= 0 {
		l.reconnectStart = time.Second
	}
	if l.reconnectLimit <= 0 {
		l.reconnectLimit = time.Minute
	}
	return l, nil
}

// Run blocks until ctx is done. It only returns nil: session failures are logged and retried.
func (f *Listener) Run(c bCtx.Ctx) error {
	ctx := bCtx.WithLogFields(c, log.Fields{
		"chainId":  f.chainId,
		"contract": lowerHex(f.contract),
		"tag":      f.tag,
	})
	bo := backoff.NewExponential(f.reconnectStart, f.reconnectLimit)
	for {
		err := f.session(ctx, bo)
		if ctx.Err() != nil {
			ctx.Info("listener stopped")
			return nil
		}
		ctx.WithFields(log.Fields{
			"err":     err,
			"attempt": bo.Attempts() + 1,
			"wait":    bo.NextDuration,
		}).Error("listener session ended, reconnecting")
		f.met.BumpSum("tracker.reconnect", 1, 1, "chainId", fmt.Sprint(f.chainId), "tag", f.tag)
		if err := bo.Backoff(ctx); err != nil {
			ctx.Info("listener stopped")
			return nil
		}
	}
}

func (f *Listener) session(ctx bCtx.Ctx, bo *backoff.Backoff) error {
	if f.state == nil {
		state, err := f.setupTrackerState(ctx)
		if err != nil {
			return err
		}
		f.state = state
	}
	if f.wsClient == nil {
		return f.poll(ctx, bo)
	}
	return f.subscribe(ctx, bo)
}

func (f *Listener) subscribe(ctx bCtx.Ctx, bo *backoff.Backoff) error {
	sCtx, cancel := bCtx.WithCancel(ctx)
	defer cancel()

	buf := chanx.NewUnboundedChan[types.Log](sCtx, subBufferSize)
	// from/to blocks must stay unset for subscriptions
	sub, err := f.wsClient.SubscribeFilterLogs(sCtx, ethereum.FilterQuery{
		Addresses: f.filter.Addresses,
		Topics:    f.filter.Topics,
	}, buf.In)
	if err != nil {
		return xerrors.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Unsubscribe()
	ctx.Info("subscription")

	// subscribed first, so logs mined during the backfill are buffered rather than missed
	if err := f.backfill(ctx, 0); err != nil {
		return err
	}
	bo.Reset()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed")
			}
			return xerrors.Errorf("subscription dropped: %w", err)
		case l, ok := <-buf.Out:
			if !ok {
				return nil
			}
			f.handleLive(ctx, l)
		}
	}
}

func (f *Listener) poll(ctx bCtx.Ctx, bo *backoff.Backoff) error {
	if err := f.backfill(ctx, f.followDistance); err != nil {
		return err
	}
	bo.Reset()

	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := f.backfill(ctx, f.followDistance); err != nil {
				return err
			}
		}
	}
}

func (f *Listener) handleLive(ctx bCtx.Ctx, l types.Log) {
	if l.Removed {
		ctx.WithFields(log.Fields{
			"block":    l.BlockNumber,
			"logIndex": l.Index,
		}).Warn("log removed by reorg, ignoring")
		return
	}
	if f.processed(&l) {
		return
	}
	if err := f.ingester.Ingest(ctx, &LogEnvelope{Log: l}); err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"block":    l.BlockNumber,
			"logIndex": l.Index,
		}).Error("failed to ingest log")
		return
	}
	if err := f.advance(ctx, l.BlockNumber, int64(l.Index)); err != nil {
		ctx.WithField("err", err).Warn("failed to store tracker state")
	}
}

// backfill handles every log from the checkpoint to distance blocks behind head,
// re-reading head until it is within CaughtUpBlock blocks.
func (f *Listener) backfill(ctx bCtx.Ctx, distance uint64) error {
	for {
		head, err := f.rpcClient.BlockNumber(ctx)
		if err != nil {
			return xerrors.Errorf("failed to get block number: %w", err)
		}
		f.met.BumpAvg("blockchain.lastBlock", float64(head), 1, "chainId", fmt.Sprint(f.chainId))
		if head < distance {
			return nil
		}
		target := head - distance
		start := f.state.LastBlockProcessed
		if start > target {
			return nil
		}
		for _, r := range newBlockRange(start, target).chunks(maxBlockRange) {
			if err := f.processBlkRange(ctx, r); err != nil {
				return err
			}
		}
		ctx.Info(fmt.Sprintf("process block range start=%d end=%d last=%d", start, target, f.state.LastBlockProcessed))
		f.met.BumpAvg("tracker.lastBlock", float64(f.state.LastBlockProcessed), 1, "chainId", fmt.Sprint(f.chainId), "tag", f.tag)
		if target-start < CaughtUpBlock {
			return nil
		}
	}
}

func (f *Listener) processBlkRange(ctx bCtx.Ctx, blkRange blockRange) error {
	ranges := []blockRange{blkRange}
	for len(ranges) > 0 {
		idx := len(ranges) - 1
		r := ranges[idx]
		ranges = ranges[:idx]

		q := f.filter
		q.FromBlock = r.from()
		q.ToBlock = r.to()
		tCtx, cancel := bCtx.WithTimeout(ctx, TooManyLogsTimeout)
		logs, err := f.rpcClient.FilterLogs(tCtx, q)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if r.single() {
				ctx.WithFields(log.Fields{
					"err":   err,
					"block": r.begin,
				}).Error("failed to get logs within one block")
				return err
			}
			r1, r2 := r.split()
			ranges = append(ranges, r2, r1)
			ctx.WithFields(log.Fields{
				"originalRange": r.String(),
				"range1":        r1.String(),
				"range2":        r2.String(),
			}).Info("splitting blockRange")
			continue
		}
		ctx.WithFields(log.Fields{
			"beginBlock": r.begin,
			"endBlock":   r.end,
			"#logs":      len(logs),
		}).Debug(fmt.Sprintf("received #%d logs", len(logs)))

		for i := range logs {
			l := &logs[i]
			if l.Removed || f.processed(l) {
				continue
			}
			if err := f.ingester.Ingest(ctx, &LogEnvelope{Log: *l}); err != nil {
				// best effort, settlement reads chain state before acting
				ctx.WithFields(log.Fields{
					"err":      err,
					"block":    l.BlockNumber,
					"logIndex": l.Index,
				}).Error("failed to ingest log")
				f.met.BumpSum("tracker.ingest.err", 1, 1, "chainId", fmt.Sprint(f.chainId), "tag", f.tag)
			}
			if err := f.advance(ctx, l.BlockNumber, int64(l.Index)); err != nil {
				return err
			}
		}
		if err := f.advance(ctx, r.end+1, -1); err != nil {
			return err
		}
	}
	return nil
}

// processed reports whether l is at or before the checkpoint.
func (f *Listener) processed(l *types.Log) bool {
	return f.state.Covers(l.BlockNumber, int64(l.Index))
}

func (f *Listener) advance(ctx bCtx.Ctx, blk uint64, logIndex int64) error {
	if f.state.Covers(blk, logIndex) {
		return nil
	}
	next := *f.state
	next.LastBlockProcessed = blk
	next.LastLogIndexProcessed = logIndex
	if err := f.trackerStateUC.Advance(ctx, &next); err != nil {
		return xerrors.Errorf("failed to store tracker state: %w", err)
	}
	f.state = &next
	return nil
}

func (f *Listener) setupTrackerState(ctx bCtx.Ctx) (*domain.TrackerState, error) {
	id := &domain.TrackerStateId{
		ChainId:         f.chainId,
		ContractAddress: toDomainAddress(f.contract),
		Tag:             f.tag,
	}
	state, err := f.trackerStateUC.Get(ctx, id)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	head, err := f.rpcClient.BlockNumber(ctx)
	if err != nil {
		return nil, xerrors.Errorf("failed to get block number: %w", err)
	}
	start := uint64(0)
	if head > f.backfillBlocks {
		start = head - f.backfillBlocks
	}
	ctx.WithFields(log.Fields{
		"head":       head,
		"startBlock": start,
	}).Info("no checkpoint, starting behind head")
	return &domain.TrackerState{
		ChainId:               f.chainId,
		ContractAddress:       toDomainAddress(f.contract),
		Tag:                   f.tag,
		LastBlockProcessed:    start,
		LastLogIndexProcessed: -1,
	}, nil
}
