package tracker

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/x-xyz/keeper/base/abi"
	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
)

var (
	bidPlacedSig        = abi.BidManagerABI.Events[abi.EventBidPlaced].ID
	auctionCreatedSig   = abi.AuctionHubABI.Events[abi.EventAuctionCreated].ID
	auctionCancelledSig = abi.AuctionHubABI.Events[abi.EventAuctionCancelled].ID
)

// Event kinds, also used as the discriminator of dedup keys.
const (
	KindBidPlaced        = "bidPlaced"
	KindAuctionCreated   = "auctionCreated"
	KindAuctionCancelled = "auctionCancelled"
)

// BidManagerTopics is the filter for a bid manager contract.
func BidManagerTopics() [][]common.Hash {
	return [][]common.Hash{{bidPlacedSig}}
}

// AuctionHubTopics is the filter for an auction hub contract.
func AuctionHubTopics() [][]common.Hash {
	return [][]common.Hash{{auctionCreatedSig, auctionCancelledSig}}
}

type eventHandler struct {
	kind   string
	handle func(bCtx.Ctx, *types.Log, *domain.LogMeta) error
}

func (in *Ingester) handlers() map[common.Hash]eventHandler {
	return map[common.Hash]eventHandler{
		bidPlacedSig:        {kind: KindBidPlaced, handle: in.onBidPlaced},
		auctionCreatedSig:   {kind: KindAuctionCreated, handle: in.onAuctionCreated},
		auctionCancelledSig: {kind: KindAuctionCancelled, handle: in.onAuctionCancelled},
	}
}

func (in *Ingester) onBidPlaced(ctx bCtx.Ctx, l *types.Log, meta *domain.LogMeta) error {
	ev, err := abi.ToBidPlacedLog(l)
	if err != nil {
		ctx.WithField("err", err).Error("abi.ToBidPlacedLog failed")
		return err
	}
	bid := &auction.Bid{
		TxHash:      meta.TxHash,
		IntentId:    toIntentId(ev.IntentId),
		Bidder:      toDomainAddress(ev.Bidder),
		Amount:      ev.Amount.String(),
		Token:       toDomainAddress(ev.Token),
		ChainId:     in.chainId,
		BlockNumber: meta.BlockNumber,
		LogIndex:    meta.LogIndex,
		Timestamp:   meta.BlockTime,
	}
	stored, err := in.auctionUC.AddBid(ctx, bid)
	if err != nil {
		ctx.WithField("err", err).Error("auctionUC.AddBid failed")
		return err
	}
	ctx.WithFields(log.Fields{
		"bidder": stored.Bidder,
		"amount": stored.Amount,
		"token":  stored.Token,
		"at":     meta.Position(),
	}).Info("bid stored")
	return nil
}

func (in *Ingester) onAuctionCreated(ctx bCtx.Ctx, l *types.Log, meta *domain.LogMeta) error {
	ev, err := abi.ToAuctionCreatedLog(l)
	if err != nil {
		ctx.WithField("err", err).Error("abi.ToAuctionCreatedLog failed")
		return err
	}
	a := &auction.Auction{
		IntentId:       toIntentId(ev.IntentId),
		ChainId:        in.chainId,
		Seller:         toDomainAddress(ev.Seller),
		NftContract:    toDomainAddress(ev.NftContract),
		TokenId:        ev.TokenId.String(),
		StartingPrice:  ev.StartingPrice.String(),
		ReservePrice:   ev.ReservePrice.String(),
		Deadline:       ev.Deadline.Int64(),
		PreferredToken: toDomainAddress(ev.PreferdToken),
		PreferredChain: domain.ChainId(ev.PreferdChain.Int64()),
		Status:         auction.StatusActive,
		TxHash:         meta.TxHash,
		CreatedAt:      meta.BlockTime,
	}
	if _, err := in.auctionUC.AddAuction(ctx, a); err != nil {
		ctx.WithField("err", err).Error("auctionUC.AddAuction failed")
		return err
	}
	ctx.WithFields(log.Fields{
		"seller":   a.Seller,
		"deadline": a.Deadline,
		"reserve":  a.ReservePrice,
		"at":       meta.Position(),
	}).Info("auction stored")
	return nil
}

func (in *Ingester) onAuctionCancelled(ctx bCtx.Ctx, l *types.Log, meta *domain.LogMeta) error {
	ev, err := abi.ToAuctionCancelledLog(l)
	if err != nil {
		ctx.WithField("err", err).Error("abi.ToAuctionCancelledLog failed")
		return err
	}
	intentId := toIntentId(ev.IntentId)
	a, err := in.auctionUC.GetAuction(ctx, intentId)
	if errors.Is(err, domain.ErrNotFound) {
		// creation event not seen yet; settlement reconciles from chain state
		ctx.Warn("cancel for unknown auction")
		return nil
	} else if err != nil {
		ctx.WithField("err", err).Error("auctionUC.GetAuction failed")
		return err
	}
	if a.Status.IsTerminal() {
		ctx.WithField("status", a.Status.String()).Debug("auction already terminal, ignoring cancel")
		return nil
	}

	txHash := meta.TxHash
	cancelledAt := meta.BlockTime
	if _, err := in.auctionUC.UpdateAuctionStatus(ctx, intentId, auction.StatusCancelled, &auction.AuctionPatchable{
		CancelTxHash: &txHash,
		CancelledAt:  &cancelledAt,
	}); err != nil {
		ctx.WithField("err", err).Error("auctionUC.UpdateAuctionStatus failed")
		return err
	}
	return nil
}
