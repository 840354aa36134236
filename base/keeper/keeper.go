package keeper

import (
	"errors"
	"sort"
	"time"

	"github.com/viney-shih/goroutines"
	"golang.org/x/xerrors"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/goroutine"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/base/metrics"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
	"github.com/x-xyz/keeper/domain/chain"
	"github.com/x-xyz/keeper/service/tokeninfo"
)

const (
	DefaultInterval = 10 * time.Second
	defaultWorkers  = 1
)

// Outcome is what one tick did with one auction.
type Outcome string

const (
	OutcomeUnknownChain    Outcome = "unknownChain"
	OutcomeChainReadFailed Outcome = "chainReadFailed"
	OutcomeNotOnChain      Outcome = "notOnChain"
	OutcomeNotEnded        Outcome = "notEnded"
	OutcomeDone            Outcome = "done"
	OutcomeReconciled      Outcome = "reconciled"
	OutcomeNotActive       Outcome = "notActive"
	OutcomeLocked          Outcome = "locked"
	OutcomeStoreFailed     Outcome = "storeFailed"
	OutcomeNoBids          Outcome = "noBids"
	OutcomeUnknownToken    Outcome = "unknownToken"
	OutcomeInvalidBids     Outcome = "invalidBids"
	OutcomeNoWinner        Outcome = "noWinner"
	OutcomePremature       Outcome = "premature"
	OutcomeFinalizeFailed  Outcome = "finalizeFailed"
	OutcomeSettleFailed    Outcome = "settleFailed"
	OutcomeSettled         Outcome = "settled"
	OutcomePanic           Outcome = "panic"
)

// Report counts outcomes of one tick.
type Report map[Outcome]int

type Config struct {
	Interval time.Duration
	// Workers bounds how many auctions one tick processes at once.
	Workers        int
	Registry       *chain.Registry
	Contracts      auction.ContractProvider
	AuctionUseCase auction.UseCase
	Tokens         tokeninfo.Service
	Settler        *Settler
	Lock           *ProcessingLock
	Metrics        metrics.Service
}

// Keeper periodically drives every stored auction towards settlement. On-chain state
// read at the start of each attempt decides what to do, the store only says which
// auctions exist and which sub-steps are confirmed.
type Keeper struct {
	interval  time.Duration
	workers   int
	registry  *chain.Registry
	contracts auction.ContractProvider
	auctionUC auction.UseCase
	tokens    tokeninfo.Service
	settler   *Settler
	lock      *ProcessingLock
	met       metrics.Service
	timeNow   func() time.Time
}

func New(cfg *Config) (*Keeper, error) {
	if cfg.Registry == nil || cfg.Contracts == nil || cfg.AuctionUseCase == nil || cfg.Tokens == nil || cfg.Settler == nil {
		return nil, xerrors.Errorf("%w: keeper needs registry, contracts, auction usecase, tokens and settler", domain.ErrInvalidConfig)
	}
	k := &Keeper{
		interval:  cfg.Interval,
		workers:   cfg.Workers,
		registry:  cfg.Registry,
		contracts: cfg.Contracts,
		auctionUC: cfg.AuctionUseCase,
		tokens:    cfg.Tokens,
		settler:   cfg.Settler,
		lock:      cfg.Lock,
		met:       cfg.Metrics,
		timeNow:   time.Now,
	}
	if k.interval <= 0 {
		k.interval = DefaultInterval
	}
	if k.workers <= 0 {
		k.workers = defaultWorkers
	}
	if k.lock == nil {
		k.lock = NewProcessingLock()
	}
	if k.met == nil {
		k.met = metrics.Noop()
	}
	return k, nil
}

// Run ticks immediately and then every interval until ctx is done.
func (k *Keeper) Run(ctx bCtx.Ctx) error {
	ctx.WithField("interval", k.interval.String()).Info("keeper started")
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()
	for {
		k.tick(ctx)
		select {
		case <-ctx.Done():
			ctx.Info("keeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (k *Keeper) tick(ctx bCtx.Ctx) {
	goroutine.Run(func() {
		report, err := k.RunOnce(ctx)
		if err != nil {
			ctx.WithField("err", err).Error("keeper tick failed")
			return
		}
		fields := log.Fields{}
		for o, n := range report {
			fields[string(o)] = n
		}
		ctx.WithFields(fields).Debug("keeper tick done")
	}, goroutine.WithLogger(ctx.Logger), goroutine.WithRecovered(func(*goroutine.PanicEvent) {
		k.met.BumpSum("keeper.panic", 1, 1, "where", "tick")
	}))
}

// RunOnce makes one pass over all stored auctions. Failures are contained per auction;
// only failing to list auctions fails the pass.
func (k *Keeper) RunOnce(ctx bCtx.Ctx) (Report, error) {
	defer k.met.BumpTime("keeper.tick.time", 1).End()

	all, err := k.auctionUC.GetAllAuctions(ctx)
	if err != nil {
		ctx.WithField("err", err).Error("auctionUC.GetAllAuctions failed")
		k.met.BumpSum("keeper.tick.err", 1, 1)
		return nil, err
	}
	candidates := make([]*auction.Auction, 0, len(all))
	for _, a := range all {
		if a.Status.IsTerminal() {
			continue
		}
		candidates = append(candidates, a)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].IntentId < candidates[j].IntentId })

	report := Report{}
	k.met.BumpAvg("keeper.auctions.open", float64(len(candidates)), 1)
	if len(candidates) == 0 {
		return report, nil
	}

	b := goroutines.NewBatch(k.workers, goroutines.WithBatchSize(len(candidates)))
	defer b.Close()
	for _, a := range candidates {
		a := a
		b.Queue(func() (interface{}, error) {
			return k.processSafely(ctx, a), nil
		})
	}
	b.QueueComplete()

	for ret := range b.Results() {
		o, _ := ret.Value().(Outcome)
		report[o]++
		k.met.BumpSum("keeper.auction", 1, 1, "outcome", string(o))
	}
	return report, nil
}

func (k *Keeper) processSafely(c bCtx.Ctx, a *auction.Auction) Outcome {
	ctx := bCtx.WithLogFields(c, log.Fields{"intentId": a.IntentId, "chainId": a.ChainId})
	outcome := OutcomePanic
	goroutine.Run(func() {
		outcome = k.process(ctx, a)
	}, goroutine.WithLogger(ctx.Logger), goroutine.WithRecovered(func(*goroutine.PanicEvent) {
		k.met.BumpSum("keeper.panic", 1, 1, "where", "auction")
	}))
	return outcome
}

func (k *Keeper) process(ctx bCtx.Ctx, a *auction.Auction) Outcome {
	if k.lock.IsLocked(a.IntentId) {
		return OutcomeLocked
	}
	if _, err := k.registry.Lookup(a.ChainId); err != nil {
		ctx.WithFields(log.Fields{"err": err, "available": k.registry.Keys()}).Warn("auction chain not configured")
		return OutcomeUnknownChain
	}
	hub, err := k.contracts.AuctionHub(a.ChainId)
	if err != nil {
		ctx.WithField("err", err).Warn("contracts.AuctionHub failed")
		return OutcomeUnknownChain
	}
	onChain, err := hub.Auctions(ctx, a.IntentId)
	if err != nil {
		ctx.WithField("err", err).Error("hub.Auctions failed")
		return OutcomeChainReadFailed
	}
	if !onChain.Exists() {
		ctx.Debug("auction not on chain yet")
		return OutcomeNotOnChain
	}
	if onChain.Status.IsTerminal() {
		return k.reconcile(ctx, a, onChain.Status)
	}
	if !onChain.Ended(k.timeNow()) {
		return OutcomeNotEnded
	}
	if onChain.Status != auction.StatusActive && onChain.Status != auction.StatusFinalized {
		ctx.WithField("onChainStatus", onChain.Status.String()).Debug("auction not active on chain")
		return OutcomeNotActive
	}

	if !k.lock.TryAcquire(a.IntentId) {
		ctx.Debug("auction locked by another attempt")
		return OutcomeLocked
	}
	defer k.lock.Release(a.IntentId)

	bids, err := k.auctionUC.GetBids(ctx, a.IntentId)
	if err != nil {
		ctx.WithField("err", err).Error("auctionUC.GetBids failed")
		return OutcomeStoreFailed
	}
	if len(bids) == 0 {
		// only the seller can cancel an unfunded auction
		ctx.Debug("no bids")
		return OutcomeNoBids
	}
	aggs, err := auction.AggregateBids(bids, k.tokens.Classify(ctx, bids))
	if err != nil {
		ctx.WithField("err", err).Error("auction.AggregateBids failed")
		return OutcomeInvalidBids
	}

	a = withOnChain(a, onChain)
	reserve, err := k.tokens.Reserve(ctx, a, onChain.ReservePrice)
	if err != nil {
		ctx.WithField("err", err).Error("cannot denominate the reserve price")
		return OutcomeUnknownToken
	}
	winner, err := pickWinner(a, onChain, aggs, reserve)
	if err != nil {
		ctx.WithFields(log.Fields{"reserve": onChain.ReservePrice, "#bidders": len(aggs)}).Info("no bid meets the reserve price")
		return OutcomeNoWinner
	}
	ctx = bCtx.WithLogFields(ctx, log.Fields{"winner": winner.Bidder, "winningAmount": winner.TotalAmount.String()})

	if onChain.Status == auction.StatusActive {
		finalized, outcome := k.finalize(ctx, hub, a, winner)
		if finalized == nil {
			return outcome
		}
		a = finalized
	} else if a.Status != auction.StatusFinalized {
		a = k.markFinalized(ctx, a, winner, "")
	}

	if err := k.settler.Settle(ctx, a, winner, aggs); err != nil {
		ctx.WithField("err", err).Error("settlement incomplete, retrying next tick")
		return OutcomeSettleFailed
	}
	now := k.timeNow()
	if _, err := k.auctionUC.UpdateAuctionStatus(ctx, a.IntentId, auction.StatusSettled, &auction.AuctionPatchable{SettledAt: &now}); err != nil {
		ctx.WithField("err", err).Error("auctionUC.UpdateAuctionStatus failed")
		return OutcomeStoreFailed
	}
	ctx.Info("auction settled")
	return OutcomeSettled
}

// finalize returns the updated auction, or nil and the outcome to report.
func (k *Keeper) finalize(ctx bCtx.Ctx, hub auction.AuctionHub, a *auction.Auction, winner *auction.AggregatedBid) (*auction.Auction, Outcome) {
	var hash domain.TxHash
	tx, err := hub.FinalizeAuction(ctx, a.IntentId, winner.Bidder, winner.TotalAmount)
	if err == nil {
		hash = tx.Hash()
		ctx.WithField("txHash", hash).Info("finalize sent")
		err = tx.Wait(ctx)
	}
	switch {
	case errors.Is(err, domain.ErrPrematureFinalize):
		ctx.WithField("err", err).Info("chain clock behind deadline, retrying next tick")
		return nil, OutcomePremature
	case errors.Is(err, domain.ErrAlreadyDone):
		ctx.WithField("err", err).Info("auction already finalized on chain")
	case err != nil:
		ctx.WithField("err", err).Error("finalize failed")
		return nil, OutcomeFinalizeFailed
	}
	return k.markFinalized(ctx, a, winner, hash), ""
}

func (k *Keeper) markFinalized(ctx bCtx.Ctx, a *auction.Auction, winner *auction.AggregatedBid, hash domain.TxHash) *auction.Auction {
	amount := winner.TotalAmount.String()
	patch := &auction.AuctionPatchable{Winner: &winner.Bidder, WinningAmount: &amount}
	if hash != "" {
		patch.FinalizeTxHash = &hash
	}
	updated, err := k.auctionUC.UpdateAuctionStatus(ctx, a.IntentId, auction.StatusFinalized, patch)
	if err != nil {
		// finalized on chain regardless, the next tick sees that
		ctx.WithField("err", err).Warn("auctionUC.UpdateAuctionStatus failed")
		patch.Apply(a)
		a.Status = auction.StatusFinalized
		return a
	}
	return withOnChainFields(updated, a)
}

func (k *Keeper) reconcile(ctx bCtx.Ctx, a *auction.Auction, status auction.Status) Outcome {
	if a.Status == status {
		return OutcomeDone
	}
	ctx.WithFields(log.Fields{
		"stored":  a.Status.String(),
		"onChain": status.String(),
	}).Info("reconciling stored status with chain")
	if _, err := k.auctionUC.UpdateAuctionStatus(ctx, a.IntentId, status, nil); err != nil {
		ctx.WithField("err", err).Error("auctionUC.UpdateAuctionStatus failed")
		return OutcomeStoreFailed
	}
	return OutcomeReconciled
}

// pickWinner keeps the winner already named on chain when the auction was finalized by
// an earlier attempt, so late store changes cannot redirect the release.
func pickWinner(a *auction.Auction, onChain *auction.OnChainAuction, aggs []*auction.AggregatedBid, reserve auction.Price) (*auction.AggregatedBid, error) {
	if onChain.Status == auction.StatusFinalized && !a.Winner.IsEmpty() {
		var best *auction.AggregatedBid
		for _, agg := range aggs {
			if !agg.Bidder.Equals(a.Winner) {
				continue
			}
			if agg.TotalAmount.String() == a.WinningAmount {
				return agg, nil
			}
			if best == nil || agg.TotalAmount.Cmp(best.TotalAmount) > 0 {
				best = agg
			}
		}
		if best != nil {
			return best, nil
		}
	}
	return auction.SelectWinner(aggs, reserve)
}

// withOnChain returns a copy of a with the fields the contract is authoritative for.
func withOnChain(a *auction.Auction, onChain *auction.OnChainAuction) *auction.Auction {
	c := *a
	c.Seller = onChain.Seller.ToLower()
	c.PreferredToken = onChain.PreferredToken.ToLower()
	c.PreferredChain = onChain.PreferredChain
	if onChain.ReservePrice != nil {
		c.ReservePrice = onChain.ReservePrice.String()
	}
	c.Deadline = onChain.Deadline
	return &c
}

func withOnChainFields(stored, from *auction.Auction) *auction.Auction {
	c := *stored
	c.Seller = from.Seller
	c.PreferredToken = from.PreferredToken
	c.PreferredChain = from.PreferredChain
	c.ReservePrice = from.ReservePrice
	c.Deadline = from.Deadline
	return &c
}
