package domain

import "errors"

var (
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrConflict will throw if the current action already exists
	ErrConflict = errors.New("Your Item already exist")
	// ErrBadParamInput will throw if the given params are not valid
	ErrBadParamInput       = errors.New("Given Param is not valid")
	ErrInvalidNumberFormat = errors.New("invalid number format")
	ErrInvalidChainId      = errors.New("invalid chain id")
	ErrInvalidAddress      = errors.New("Invalid address")
	ErrInvalidConfig       = errors.New("invalid config")

	// chain / token resolution
	ErrUnknownChain = errors.New("unknown chain")
	ErrUnknownToken = errors.New("unknown token")

	// transaction outcomes
	ErrTxReverted           = errors.New("transaction reverted")
	ErrPrematureFinalize    = errors.New("auction deadline not reached on chain")
	ErrAlreadyDone          = errors.New("step already performed on chain")
	ErrReceiptTimeout       = errors.New("timed out waiting for receipt")
	ErrAuctionNotOnChain    = errors.New("auction not found on chain")
	ErrNoWinner             = errors.New("no bid meets the reserve price")
	ErrSettlementIncomplete = errors.New("settlement incomplete")
)
