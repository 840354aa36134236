package auction

import (
	"math/big"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/token"
)

// PendingTx is a submitted transaction. Wait blocks until it is mined and returns
// domain.ErrTxReverted (possibly classified further) when the receipt reports failure.
type PendingTx interface {
	Hash() domain.TxHash
	Wait(ctx.Ctx) error
}

type AuctionHub interface {
	Auctions(ctx.Ctx, domain.IntentId) (*OnChainAuction, error)
	FinalizeAuction(ctx.Ctx, domain.IntentId, domain.Address, *big.Int) (PendingTx, error)
	NFTRelease(ctx.Ctx, domain.IntentId) (PendingTx, error)
}

type BidManager interface {
	ReleaseWinningBid(c ctx.Ctx, intentId domain.IntentId, winner, seller domain.Address) (PendingTx, error)
	RefundBid(c ctx.Ctx, intentId domain.IntentId, bidder domain.Address) (PendingTx, error)
}

// ContractProvider hands out contract bindings for configured chains.
type ContractProvider interface {
	AuctionHub(domain.ChainId) (AuctionHub, error)
	BidManager(domain.ChainId) (BidManager, error)
}

// Notifier is told about settlement outcomes that people may need to act on.
type Notifier interface {
	AuctionSettled(ctx.Ctx, *Auction, *AggregatedBid, token.RoutePlan) error
	RefundFailed(ctx.Ctx, *Auction, FailedRefund) error
}
