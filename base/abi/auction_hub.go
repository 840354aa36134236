package abi

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var AuctionHubABI abi.ABI

var auctionHubABI = `[{"type":"function","name":"auctions","stateMutability":"view","inputs":[{"type":"bytes32","name":"intentId"}],"outputs":[{"type":"address","name":"seller"},{"type":"address","name":"nftContract"},{"type":"uint256","name":"tokenId"},{"type":"uint256","name":"startingPrice"},{"type":"uint256","name":"reservePrice"},{"type":"uint256","name":"deadline"},{"type":"address","name":"preferdToken"},{"type":"uint256","name":"preferdChain"},{"type":"uint8","name":"status"}]},{"type":"function","name":"finalizeAuction","stateMutability":"nonpayable","inputs":[{"type":"bytes32","name":"intentId"},{"type":"address","name":"winner"},{"type":"uint256","name":"amount"}],"outputs":[]},{"type":"function","name":"NFTrelease","stateMutability":"nonpayable","inputs":[{"type":"bytes32","name":"intentId"}],"outputs":[]},{"type":"event","anonymous":false,"name":"AuctionCreated","inputs":[{"type":"bytes32","name":"intentId","indexed":true},{"type":"address","name":"seller","indexed":true},{"type":"address","name":"nftContract"},{"type":"uint256","name":"tokenId"},{"type":"uint256","name":"startingPrice"},{"type":"uint256","name":"reservePrice"},{"type":"uint256","name":"deadline"},{"type":"address","name":"preferdToken"},{"type":"uint256","name":"preferdChain"}]},{"type":"event","anonymous":false,"name":"AuctionCancelled","inputs":[{"type":"bytes32","name":"intentId","indexed":true}]}]`

const (
	EventAuctionCreated   = "AuctionCreated"
	EventAuctionCancelled = "AuctionCancelled"

	MethodAuctions        = "auctions"
	MethodFinalizeAuction = "finalizeAuction"
	MethodNFTRelease      = "NFTrelease"
)

func init() {
	_abi, err := abi.JSON(strings.NewReader(auctionHubABI))
	if err != nil {
		panic("Failed to parse auction hub abi")
	}
	AuctionHubABI = _abi
}

type AuctionCreatedLog struct {
	IntentId      common.Hash    // indexed
	Seller        common.Address // indexed
	NftContract   common.Address
	TokenId       *big.Int
	StartingPrice *big.Int
	ReservePrice  *big.Int
	Deadline      *big.Int
	PreferdToken  common.Address
	PreferdChain  *big.Int
}

type AuctionCancelledLog struct {
	IntentId common.Hash // indexed
}

func ToAuctionCreatedLog(log *types.Log) (*AuctionCreatedLog, error) {
	if len(log.Topics) < 3 {
		return nil, ErrMissingTopics
	}
	var created AuctionCreatedLog
	if err := AuctionHubABI.UnpackIntoInterface(&created, EventAuctionCreated, log.Data); err != nil {
		return nil, err
	}
	created.IntentId = log.Topics[1]
	created.Seller = common.BytesToAddress(log.Topics[2].Bytes())
	return &created, nil
}

func ToAuctionCancelledLog(log *types.Log) (*AuctionCancelledLog, error) {
	if len(log.Topics) < 2 {
		return nil, ErrMissingTopics
	}
	return &AuctionCancelledLog{IntentId: log.Topics[1]}, nil
}

// AuctionView is the decoded output of auctions(bytes32).
type AuctionView struct {
	Seller        common.Address
	NftContract   common.Address
	TokenId       *big.Int
	StartingPrice *big.Int
	ReservePrice  *big.Int
	Deadline      *big.Int
	PreferdToken  common.Address
	PreferdChain  *big.Int
	Status        uint8
}

func ToAuctionView(data []byte) (*AuctionView, error) {
	var view AuctionView
	if err := AuctionHubABI.UnpackIntoInterface(&view, MethodAuctions, data); err != nil {
		return nil, err
	}
	return &view, nil
}
