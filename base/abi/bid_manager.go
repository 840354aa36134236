package abi

import (
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var ErrMissingTopics = errors.New("log is missing indexed topics")

var BidManagerABI abi.ABI

var bidManagerABI = `[{"type":"function","name":"releaseWinningBid","stateMutability":"nonpayable","inputs":[{"type":"bytes32","name":"intentId"},{"type":"address","name":"winner"},{"type":"address","name":"seller"}],"outputs":[]},{"type":"function","name":"refundBid","stateMutability":"nonpayable","inputs":[{"type":"bytes32","name":"intentId"},{"type":"address","name":"bidder"}],"outputs":[]},{"type":"event","anonymous":false,"name":"BidPlaced","inputs":[{"type":"bytes32","name":"intentId","indexed":true},{"type":"address","name":"bidder","indexed":true},{"type":"address","name":"token"},{"type":"uint256","name":"amount"}]}]`

const (
	EventBidPlaced = "BidPlaced"

	MethodReleaseWinningBid = "releaseWinningBid"
	MethodRefundBid         = "refundBid"
)

func init() {
	_abi, err := abi.JSON(strings.NewReader(bidManagerABI))
	if err != nil {
		panic("Failed to parse bid manager abi")
	}
	BidManagerABI = _abi
}

type BidPlacedLog struct {
	IntentId common.Hash    // indexed
	Bidder   common.Address // indexed
	Token    common.Address
	Amount   *big.Int
}

func ToBidPlacedLog(log *types.Log) (*BidPlacedLog, error) {
	if len(log.Topics) < 3 {
		return nil, ErrMissingTopics
	}
	var placed BidPlacedLog
	if err := BidManagerABI.UnpackIntoInterface(&placed, EventBidPlaced, log.Data); err != nil {
		return nil, err
	}
	placed.IntentId = log.Topics[1]
	placed.Bidder = common.BytesToAddress(log.Topics[2].Bytes())
	return &placed, nil
}
