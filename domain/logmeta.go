package domain

import (
	"fmt"
	"time"
)

// LogMeta locates one contract log on its chain. BlockTime falls back to the
// ingesting host's clock when the block header cannot be read.
type LogMeta struct {
	ChainId         ChainId
	BlockNumber     BlockNumber
	BlockHash       BlockHash
	BlockTime       time.Time
	TxHash          TxHash
	TxIndex         uint
	LogIndex        uint
	ContractAddress Address
}

// Position orders logs of one chain: block first, then log index.
func (m *LogMeta) Position() string {
	return fmt.Sprintf("%d/%d#%d", m.ChainId, m.BlockNumber, m.LogIndex)
}
