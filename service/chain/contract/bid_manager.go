package contract

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	bAbi "github.com/x-xyz/keeper/base/abi"
	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
	"github.com/x-xyz/keeper/service/chain"
)

type bidManagerContract struct {
	chainService chain.Client
	abi          abi.ABI
	chainId      domain.ChainId
	addr         common.Address
}

func NewBidManager(chainService chain.Client, chainId domain.ChainId, addr domain.Address) auction.BidManager {
	return &bidManagerContract{
		chainService: chainService,
		abi:          bAbi.BidManagerABI,
		chainId:      chainId,
		addr:         common.HexToAddress(string(addr)),
	}
}

func (c *bidManagerContract) ReleaseWinningBid(ctx ctx.Ctx, intentId domain.IntentId, winner, seller domain.Address) (auction.PendingTx, error) {
	return c.chainService.Transact(
		ctx, c.chainId, c.addr, c.abi, bAbi.MethodReleaseWinningBid,
		intentIdToBytes32(intentId),
		common.HexToAddress(string(winner)),
		common.HexToAddress(string(seller)),
	)
}

func (c *bidManagerContract) RefundBid(ctx ctx.Ctx, intentId domain.IntentId, bidder domain.Address) (auction.PendingTx, error) {
	return c.chainService.Transact(
		ctx, c.chainId, c.addr, c.abi, bAbi.MethodRefundBid,
		intentIdToBytes32(intentId),
		common.HexToAddress(string(bidder)),
	)
}
