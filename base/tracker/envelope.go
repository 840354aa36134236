package tracker

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Envelope is one contract log in the shape its transport delivered it.
// Implementations: *LogEnvelope and *ReceiptEnvelope.
type Envelope interface {
	RawLog() *types.Log
	// nestedTxHash is the hash carried by the wrapper around the log, if any.
	nestedTxHash() (common.Hash, bool)
}

// LogEnvelope is a log from a subscription or a filter query.
type LogEnvelope struct {
	Log types.Log
}

func (e *LogEnvelope) RawLog() *types.Log {
	return &e.Log
}

func (e *LogEnvelope) nestedTxHash() (common.Hash, bool) {
	return common.Hash{}, false
}

// ReceiptEnvelope is a log read back from a transaction receipt.
type ReceiptEnvelope struct {
	Log     types.Log
	Receipt *types.Receipt
}

func (e *ReceiptEnvelope) RawLog() *types.Log {
	return &e.Log
}

func (e *ReceiptEnvelope) nestedTxHash() (common.Hash, bool) {
	if e.Receipt == nil || e.Receipt.TxHash == (common.Hash{}) {
		return common.Hash{}, false
	}
	return e.Receipt.TxHash, true
}

// ReceiptEnvelopes wraps every log of receipt.
func ReceiptEnvelopes(receipt *types.Receipt) []Envelope {
	envs := make([]Envelope, 0, len(receipt.Logs))
	for _, l := range receipt.Logs {
		if l == nil {
			continue
		}
		envs = append(envs, &ReceiptEnvelope{Log: *l, Receipt: receipt})
	}
	return envs
}
