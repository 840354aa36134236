package keeper

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/viney-shih/goroutines"
	"golang.org/x/xerrors"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/base/metrics"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
	"github.com/x-xyz/keeper/domain/chain"
	"github.com/x-xyz/keeper/domain/token"
	"github.com/x-xyz/keeper/service/tokeninfo"
)

const defaultRefundWorkers = 4

type SettlerCfg struct {
	Registry       *chain.Registry
	Contracts      auction.ContractProvider
	AuctionUseCase auction.UseCase
	Tokens         tokeninfo.Service
	Notifier       auction.Notifier
	Metrics        metrics.Service
	RefundWorkers  int
}

// Settler moves a finalized auction's escrow: it releases the winning funds to the
// seller, refunds everybody else and releases the NFT to the winner. Every confirmed
// sub-step is recorded on the auction, so calling Settle again after a partial failure
// only repeats what is missing.
type Settler struct {
	registry      *chain.Registry
	contracts     auction.ContractProvider
	auctionUC     auction.UseCase
	tokens        tokeninfo.Service
	notifier      auction.Notifier
	met           metrics.Service
	refundWorkers int
	timeNow       func() time.Time
}

func NewSettler(cfg *SettlerCfg) *Settler {
	s := &Settler{
		registry:      cfg.Registry,
		contracts:     cfg.Contracts,
		auctionUC:     cfg.AuctionUseCase,
		tokens:        cfg.Tokens,
		notifier:      cfg.Notifier,
		met:           cfg.Metrics,
		refundWorkers: cfg.RefundWorkers,
		timeNow:       time.Now,
	}
	if s.refundWorkers <= 0 {
		s.refundWorkers = defaultRefundWorkers
	}
	if s.met == nil {
		s.met = metrics.Noop()
	}
	return s
}

type refundJob struct {
	bidder  domain.Address
	chainId domain.ChainId
	amount  *big.Int
}

func (j refundJob) step() string {
	return auction.RefundStep(j.bidder, j.chainId)
}

// Settle succeeds once the winning funds are released on every chain the winner bid
// from and the NFT is released. Refund failures are recorded and reported but do not
// fail the settlement.
func (s *Settler) Settle(c bCtx.Ctx, a *auction.Auction, winner *auction.AggregatedBid, aggs []*auction.AggregatedBid) error {
	ctx := bCtx.WithLogFields(c, log.Fields{"winner": winner.Bidder, "winningAmount": winner.TotalAmount.String()})

	if err := s.resolveChains(ctx, a, winner); err != nil {
		return err
	}

	for _, chainId := range winner.Chains {
		chainId := chainId
		sCtx := bCtx.WithLogFields(ctx, log.Fields{"step": "release", "escrowChain": chainId})
		err := s.runStep(sCtx, a, auction.ReleaseStep(chainId), func() (auction.PendingTx, error) {
			bm, err := s.contracts.BidManager(chainId)
			if err != nil {
				return nil, err
			}
			return bm.ReleaseWinningBid(sCtx, a.IntentId, winner.Bidder, a.Seller)
		})
		if err != nil {
			sCtx.WithField("err", err).Error("failed to release winning bid")
			return xerrors.Errorf("release on chain %d: %w", chainId, err)
		}
	}

	plan := s.plan(ctx, a, winner)

	failed := s.refund(ctx, a, refundJobs(append(auction.Losers(aggs, winner), auction.WinnerLeftovers(aggs, winner)...)))
	if failed > 0 {
		ctx.WithField("failedRefunds", failed).Warn("some refunds failed, retry with retry-refunds")
	}

	nCtx := bCtx.WithLogFields(ctx, log.Fields{"step": "nftRelease"})
	err := s.runStep(nCtx, a, auction.StepNftRelease, func() (auction.PendingTx, error) {
		hub, err := s.contracts.AuctionHub(a.ChainId)
		if err != nil {
			return nil, err
		}
		return hub.NFTRelease(nCtx, a.IntentId)
	})
	if err != nil {
		nCtx.WithField("err", err).Error("failed to release nft")
		return xerrors.Errorf("nft release: %w", err)
	}

	if err := s.notifier.AuctionSettled(ctx, a, winner, plan); err != nil {
		ctx.WithField("err", err).Warn("notifier.AuctionSettled failed")
	}
	return nil
}

// RetryRefunds re-attempts the failed refunds recorded on a settled auction and returns
// how many still fail.
func (s *Settler) RetryRefunds(c bCtx.Ctx, intentId domain.IntentId) (int, error) {
	ctx := bCtx.WithLogFields(c, log.Fields{"intentId": intentId})
	a, err := s.auctionUC.GetAuction(ctx, intentId)
	if err != nil {
		return 0, err
	}
	if a.Status != auction.StatusSettled {
		return 0, xerrors.Errorf("%w: auction %s is %s, not settled", domain.ErrBadParamInput, intentId, a.Status)
	}
	jobs := make([]refundJob, 0, len(a.Settlement.FailedRefunds))
	for _, f := range a.Settlement.FailedRefunds {
		amount, ok := new(big.Int).SetString(f.Amount, 10)
		if !ok {
			amount = new(big.Int)
		}
		jobs = append(jobs, refundJob{bidder: f.Bidder, chainId: f.ChainId, amount: amount})
	}
	if len(jobs) == 0 {
		ctx.Info("no failed refunds")
		return 0, nil
	}
	return s.refund(ctx, a, jobs), nil
}

func (s *Settler) resolveChains(ctx bCtx.Ctx, a *auction.Auction, winner *auction.AggregatedBid) error {
	ids := append([]domain.ChainId{a.ChainId}, winner.Chains...)
	if a.PreferredChain != 0 {
		ids = append(ids, a.PreferredChain)
	}
	for _, id := range ids {
		if _, err := s.registry.Lookup(id); err != nil {
			ctx.WithFields(log.Fields{
				"err":       err,
				"chainId":   id,
				"available": s.registry.Keys(),
			}).Error("settlement chain not configured")
			return err
		}
	}
	return nil
}

// plan only produces guidance, the keeper never bridges or swaps.
func (s *Settler) plan(ctx bCtx.Ctx, a *auction.Auction, winner *auction.AggregatedBid) token.RoutePlan {
	plan, err := s.tokens.Plan(ctx, a, winner)
	if err != nil {
		ctx.WithField("err", err).Warn("cannot classify settlement tokens")
		return plan
	}
	fields := log.Fields{
		"from":       fmt.Sprintf("%s@%d", plan.From.Symbol, plan.From.ChainId),
		"to":         fmt.Sprintf("%s@%d", plan.To.Symbol, plan.To.ChainId),
		"needBridge": plan.NeedsBridge,
		"needSwap":   plan.NeedsSwap,
	}
	if !plan.From.IsStable() || !plan.To.IsStable() {
		ctx.WithFields(fields).Warn("settlement token is not a recognized stablecoin")
	}
	if plan.Direct() {
		ctx.WithFields(fields).Info("funds released in the preferred token and chain")
	} else {
		ctx.WithFields(fields).Info("seller action required: " + plan.Guidance())
	}
	return plan
}

// refund runs jobs concurrently and returns the number that failed.
func (s *Settler) refund(ctx bCtx.Ctx, a *auction.Auction, jobs []refundJob) int {
	if len(jobs) == 0 {
		return 0
	}
	b := goroutines.NewBatch(s.refundWorkers, goroutines.WithBatchSize(len(jobs)))
	defer b.Close()
	for _, j := range jobs {
		job := j
		b.Queue(func() (interface{}, error) {
			return nil, s.refundOne(ctx, a, job)
		})
	}
	b.QueueComplete()

	failed := 0
	for ret := range b.Results() {
		if ret.Error() != nil {
			failed++
		}
	}
	return failed
}

func (s *Settler) refundOne(c bCtx.Ctx, a *auction.Auction, job refundJob) error {
	ctx := bCtx.WithLogFields(c, log.Fields{
		"step":        "refund",
		"bidder":      job.bidder,
		"escrowChain": job.chainId,
		"amount":      job.amount.String(),
	})
	err := s.runStep(ctx, a, job.step(), func() (auction.PendingTx, error) {
		bm, err := s.contracts.BidManager(job.chainId)
		if err != nil {
			return nil, err
		}
		return bm.RefundBid(ctx, a.IntentId, job.bidder)
	})
	if err == nil {
		if hasFailedRefund(a, job) {
			if err := s.auctionUC.ClearFailedRefund(ctx, a.IntentId, job.bidder, job.chainId); err != nil {
				ctx.WithField("err", err).Warn("auctionUC.ClearFailedRefund failed")
			}
		}
		return nil
	}

	ctx.WithField("err", err).Error("refund failed")
	s.met.BumpSum("keeper.refund.err", 1, 1, "chainId", fmt.Sprint(job.chainId))
	failure := auction.FailedRefund{
		Bidder:   job.bidder,
		ChainId:  job.chainId,
		Amount:   job.amount.String(),
		Error:    err.Error(),
		FailedAt: s.timeNow(),
	}
	// replaces an earlier record for the same bidder and chain
	if err := s.auctionUC.RecordFailedRefund(ctx, a.IntentId, failure); err != nil {
		ctx.WithField("err", err).Error("auctionUC.RecordFailedRefund failed")
	}
	if err := s.notifier.RefundFailed(ctx, a, failure); err != nil {
		ctx.WithField("err", err).Warn("notifier.RefundFailed failed")
	}
	return err
}

// runStep submits and confirms one transaction unless step is already recorded. A
// rejection saying the step was already performed counts as success.
func (s *Settler) runStep(ctx bCtx.Ctx, a *auction.Auction, step string, submit func() (auction.PendingTx, error)) error {
	if a.Settlement.Done(step) {
		ctx.WithField("settlementStep", step).Debug("step already recorded, skipping")
		return nil
	}
	var hash domain.TxHash
	tx, err := submit()
	if err == nil {
		hash = tx.Hash()
		ctx.WithFields(log.Fields{"settlementStep": step, "txHash": hash}).Info("transaction sent")
		err = tx.Wait(ctx)
	}
	if errors.Is(err, domain.ErrAlreadyDone) {
		ctx.WithFields(log.Fields{"settlementStep": step, "err": err}).Info("step already performed on chain")
		err = nil
	}
	if err != nil {
		return err
	}
	if err := s.auctionUC.RecordSettlementStep(ctx, a.IntentId, step, hash); err != nil {
		// the contract rejects the repeat, which counts as done next time
		ctx.WithFields(log.Fields{"settlementStep": step, "err": err}).Warn("auctionUC.RecordSettlementStep failed")
	}
	return nil
}

func hasFailedRefund(a *auction.Auction, job refundJob) bool {
	for _, f := range a.Settlement.FailedRefunds {
		if f.Bidder.Equals(job.bidder) && f.ChainId == job.chainId {
			return true
		}
	}
	return false
}

// refundJobs turns aggregates into one refund per bidder and escrow chain, since the
// contract refunds a bidder's whole escrow on a chain at once.
func refundJobs(aggs []*auction.AggregatedBid) []refundJob {
	type key struct {
		bidder  domain.Address
		chainId domain.ChainId
	}
	byKey := make(map[key]*refundJob)
	var order []key
	for _, agg := range aggs {
		for _, chainId := range agg.Chains {
			k := key{bidder: agg.Bidder.ToLower(), chainId: chainId}
			j, ok := byKey[k]
			if !ok {
				j = &refundJob{bidder: k.bidder, chainId: chainId, amount: new(big.Int)}
				byKey[k] = j
				order = append(order, k)
			}
			j.amount.Add(j.amount, agg.ChainAmounts[chainId])
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].bidder != order[j].bidder {
			return order[i].bidder < order[j].bidder
		}
		return order[i].chainId < order[j].chainId
	})
	jobs := make([]refundJob, 0, len(order))
	for _, k := range order {
		jobs = append(jobs, *byKey[k])
	}
	return jobs
}
