package usecase

import (
	"errors"
	"time"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
)

type impl struct {
	repo       auction.Repo
	ctxTimeout time.Duration
	timeNow    func() time.Time
}

func NewAuctionUseCase(repo auction.Repo, ctxTimeout time.Duration) auction.UseCase {
	return &impl{
		repo:       repo,
		ctxTimeout: ctxTimeout,
		timeNow:    time.Now,
	}
}

func (im *impl) AddAuction(c bCtx.Ctx, a *auction.Auction) (*auction.Auction, error) {
	ctx, cancel := bCtx.WithTimeout(c, im.ctxTimeout)
	defer cancel()

	a.LowerCase()
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = im.timeNow()
	}
	err := im.repo.InsertAuction(ctx, a)
	if errors.Is(err, domain.ErrConflict) {
		ctx.WithField("intentId", a.IntentId).Debug("auction exists, returning stored record")
		return im.repo.FindAuction(ctx, a.IntentId)
	} else if err != nil {
		return nil, err
	}
	return a, nil
}

func (im *impl) AddBid(c bCtx.Ctx, b *auction.Bid) (*auction.Bid, error) {
	ctx, cancel := bCtx.WithTimeout(c, im.ctxTimeout)
	defer cancel()

	b.LowerCase()
	err := im.repo.InsertBid(ctx, b)
	if errors.Is(err, domain.ErrConflict) {
		ctx.WithField("txHash", b.TxHash).Debug("bid exists, returning stored record")
		return im.repo.FindBid(ctx, b.TxHash)
	} else if err != nil {
		return nil, err
	}
	return b, nil
}

func (im *impl) UpdateAuctionStatus(c bCtx.Ctx, id domain.IntentId, status auction.Status, extra *auction.AuctionPatchable) (*auction.Auction, error) {
	ctx, cancel := bCtx.WithTimeout(c, im.ctxTimeout)
	defer cancel()

	if !status.IsValid() {
		return nil, domain.ErrBadParamInput
	}
	patch := auction.AuctionPatchable{}
	if extra != nil {
		patch = *extra
	}
	now := im.timeNow()
	patch.Status = &status
	patch.UpdatedAt = &now

	a, err := im.repo.PatchAuction(ctx, id.ToLower(), &patch)
	if err != nil {
		return nil, err
	}
	ctx.WithFields(log.Fields{"intentId": id, "status": status.String()}).Info("auction status updated")
	return a, nil
}

func (im *impl) GetAuction(c bCtx.Ctx, id domain.IntentId) (*auction.Auction, error) {
	ctx, cancel := bCtx.WithTimeout(c, im.ctxTimeout)
	defer cancel()
	return im.repo.FindAuction(ctx, id.ToLower())
}

func (im *impl) GetAllAuctions(c bCtx.Ctx) (map[domain.IntentId]*auction.Auction, error) {
	ctx, cancel := bCtx.WithTimeout(c, im.ctxTimeout)
	defer cancel()

	list, err := im.repo.ListAuctions(ctx)
	if err != nil {
		return nil, err
	}
	res := make(map[domain.IntentId]*auction.Auction, len(list))
	for _, a := range list {
		res[a.IntentId] = a
	}
	return res, nil
}

func (im *impl) GetBids(c bCtx.Ctx, id domain.IntentId) ([]*auction.Bid, error) {
	ctx, cancel := bCtx.WithTimeout(c, im.ctxTimeout)
	defer cancel()
	return im.repo.ListBids(ctx, id.ToLower())
}

func (im *impl) GetAllBids(c bCtx.Ctx) (map[domain.IntentId][]*auction.Bid, error) {
	ctx, cancel := bCtx.WithTimeout(c, im.ctxTimeout)
	defer cancel()

	list, err := im.repo.ListAllBids(ctx)
	if err != nil {
		return nil, err
	}
	res := make(map[domain.IntentId][]*auction.Bid)
	for _, b := range list {
		res[b.IntentId] = append(res[b.IntentId], b)
	}
	return res, nil
}

func (im *impl) RecordSettlementStep(c bCtx.Ctx, id domain.IntentId, step string, hash domain.TxHash) error {
	ctx, cancel := bCtx.WithTimeout(c, im.ctxTimeout)
	defer cancel()
	return im.repo.SetSettlementStep(ctx, id.ToLower(), step, hash.ToLower())
}

func (im *impl) RecordFailedRefund(c bCtx.Ctx, id domain.IntentId, f auction.FailedRefund) error {
	ctx, cancel := bCtx.WithTimeout(c, im.ctxTimeout)
	defer cancel()
	f.Bidder = f.Bidder.ToLower()
	if f.FailedAt.IsZero() {
		f.FailedAt = im.timeNow()
	}
	return im.repo.PushFailedRefund(ctx, id.ToLower(), f)
}

func (im *impl) ClearFailedRefund(c bCtx.Ctx, id domain.IntentId, bidder domain.Address, chainId domain.ChainId) error {
	ctx, cancel := bCtx.WithTimeout(c, im.ctxTimeout)
	defer cancel()
	return im.repo.PullFailedRefund(ctx, id.ToLower(), bidder.ToLower(), chainId)
}
