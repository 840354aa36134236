package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	bAbi "github.com/x-xyz/keeper/base/abi"
	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
	"github.com/x-xyz/keeper/service/chain"
)

type auctionHubContract struct {
	chainService chain.Client
	abi          abi.ABI
	chainId      domain.ChainId
	addr         common.Address
}

func NewAuctionHub(chainService chain.Client, chainId domain.ChainId, addr domain.Address) auction.AuctionHub {
	return &auctionHubContract{
		chainService: chainService,
		abi:          bAbi.AuctionHubABI,
		chainId:      chainId,
		addr:         common.HexToAddress(string(addr)),
	}
}

func (c *auctionHubContract) Auctions(ctx ctx.Ctx, intentId domain.IntentId) (*auction.OnChainAuction, error) {
	res, err := c.chainService.Call(ctx, c.chainId, c.addr, nil, c.abi, bAbi.MethodAuctions, intentIdToBytes32(intentId))
	if err != nil {
		return nil, err
	}
	if len(res) != 9 {
		return nil, domain.ErrAuctionNotOnChain
	}
	seller, _ := res[0].(common.Address)
	nftContract, _ := res[1].(common.Address)
	tokenId, _ := res[2].(*big.Int)
	startingPrice, _ := res[3].(*big.Int)
	reservePrice, _ := res[4].(*big.Int)
	deadline, _ := res[5].(*big.Int)
	preferredToken, _ := res[6].(common.Address)
	preferredChain, _ := res[7].(*big.Int)
	status, _ := res[8].(uint8)

	view := &auction.OnChainAuction{
		Seller:         domain.NormalizeAddress(seller.Hex()),
		NftContract:    domain.NormalizeAddress(nftContract.Hex()),
		TokenId:        orZero(tokenId),
		StartingPrice:  orZero(startingPrice),
		ReservePrice:   orZero(reservePrice),
		PreferredToken: domain.NormalizeAddress(preferredToken.Hex()),
		Status:         auction.Status(status),
	}
	if deadline != nil && deadline.IsInt64() {
		view.Deadline = deadline.Int64()
	}
	if preferredChain != nil && preferredChain.IsInt64() {
		view.PreferredChain = domain.ChainId(preferredChain.Int64())
	}
	return view, nil
}

func (c *auctionHubContract) FinalizeAuction(ctx ctx.Ctx, intentId domain.IntentId, winner domain.Address, amount *big.Int) (auction.PendingTx, error) {
	return c.chainService.Transact(ctx, c.chainId, c.addr, c.abi, bAbi.MethodFinalizeAuction, intentIdToBytes32(intentId), common.HexToAddress(string(winner)), amount)
}

func (c *auctionHubContract) NFTRelease(ctx ctx.Ctx, intentId domain.IntentId) (auction.PendingTx, error) {
	return c.chainService.Transact(ctx, c.chainId, c.addr, c.abi, bAbi.MethodNFTRelease, intentIdToBytes32(intentId))
}

func intentIdToBytes32(id domain.IntentId) [32]byte {
	return common.HexToHash(string(id))
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
