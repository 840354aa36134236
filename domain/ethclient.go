package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EthClientRepo is the slice of *ethclient.Client the keeper talks to: log tracking,
// contract reads and sending its own transactions. Both the http and the websocket
// endpoint of a chain are held behind it.
type EthClientRepo interface {
	ethereum.LogFilterer
	ethereum.ContractCaller
	ethereum.GasPricer
	ethereum.GasEstimator
	ethereum.TransactionSender
	ethereum.TransactionReader

	ChainID(context.Context) (*big.Int, error)
	BlockNumber(context.Context) (uint64, error)
	BlockByNumber(context.Context, *big.Int) (*types.Block, error)
	BlockByHash(context.Context, common.Hash) (*types.Block, error)
	HeaderByNumber(context.Context, *big.Int) (*types.Header, error)
	CodeAt(context.Context, common.Address, *big.Int) ([]byte, error)
	PendingCodeAt(context.Context, common.Address) ([]byte, error)
	PendingNonceAt(context.Context, common.Address) (uint64, error)
	SuggestGasTipCap(context.Context) (*big.Int, error)
	Close()
}
