package tracker

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/x-xyz/keeper/domain"
)

// Chain values are stored lowercase so ids built from logs, receipts and config agree.
func lowerHex(v interface{ Hex() string }) string {
	return strings.ToLower(v.Hex())
}

func toDomainAddress(v interface{ Hex() string }) domain.Address {
	return domain.Address(lowerHex(v))
}

func toIntentId(v interface{ Hex() string }) domain.IntentId {
	return domain.IntentId(lowerHex(v))
}

func toLogMeta(chainId domain.ChainId, l *types.Log, txHash domain.TxHash, blockTime time.Time) *domain.LogMeta {
	meta := &domain.LogMeta{
		ChainId:         chainId,
		TxHash:          txHash,
		ContractAddress: toDomainAddress(l.Address),
		BlockTime:       blockTime,
	}
	meta.BlockNumber = domain.BlockNumber(l.BlockNumber)
	meta.BlockHash = domain.BlockHash(lowerHex(l.BlockHash))
	meta.TxIndex, meta.LogIndex = l.TxIndex, l.Index
	return meta
}
