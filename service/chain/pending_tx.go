package chain

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/xerrors"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/domain"
)

type pendingTx struct {
	client   domain.EthClientRepo
	tx       *types.Transaction
	from     common.Address
	timeout  time.Duration
	patterns RevertPatterns
}

func (p *pendingTx) Hash() domain.TxHash {
	return domain.TxHash(p.tx.Hash().Hex()).ToLower()
}

// Wait returns nil once the transaction is mined successfully. It never blocks longer
// than the receipt timeout.
func (p *pendingTx) Wait(c bCtx.Ctx) error {
	ctx, cancel := bCtx.WithTimeout(c, p.timeout)
	defer cancel()

	receipt, err := bind.WaitMined(ctx, p.client, p.tx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return xerrors.Errorf("%w: %s", domain.ErrReceiptTimeout, p.Hash())
		}
		return err
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return nil
	}

	reason := p.revertReason(ctx, receipt)
	ctx.WithFields(log.Fields{"txHash": p.Hash(), "reason": reason}).Warn("transaction reverted")
	return p.patterns.Classify(xerrors.Errorf("%w: %s: %s", domain.ErrTxReverted, p.Hash(), reason))
}

// revertReason replays the call at the mined block to recover the revert message.
func (p *pendingTx) revertReason(ctx bCtx.Ctx, receipt *types.Receipt) string {
	msg := ethereum.CallMsg{
		From:  p.from,
		To:    p.tx.To(),
		Gas:   p.tx.Gas(),
		Value: p.tx.Value(),
		Data:  p.tx.Data(),
	}
	if _, err := p.client.CallContract(ctx, msg, receipt.BlockNumber); err != nil {
		return err.Error()
	}
	return "unknown"
}
