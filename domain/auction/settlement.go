package auction

import (
	"fmt"
	"time"

	"github.com/x-xyz/keeper/domain"
)

// Settlement step keys. Recorded steps are skipped when settlement is retried.
const StepNftRelease = "nft"

func ReleaseStep(chainId domain.ChainId) string {
	return fmt.Sprintf("release:%d", chainId)
}

func RefundStep(bidder domain.Address, chainId domain.ChainId) string {
	return fmt.Sprintf("refund:%s:%d", bidder.ToLower(), chainId)
}

// SettlementProgress is the durable record of confirmed settlement sub-steps.
type SettlementProgress struct {
	Steps         map[string]domain.TxHash `json:"steps,omitempty" bson:"steps,omitempty"`
	FailedRefunds []FailedRefund           `json:"failedRefunds,omitempty" bson:"failedRefunds,omitempty"`
}

func (p *SettlementProgress) Done(step string) bool {
	_, ok := p.Steps[step]
	return ok
}

type FailedRefund struct {
	Bidder   domain.Address `json:"bidder" bson:"bidder"`
	ChainId  domain.ChainId `json:"chainId" bson:"chainId"`
	Amount   string         `json:"amount" bson:"amount"`
	Error    string         `json:"error" bson:"error"`
	FailedAt time.Time      `json:"failedAt" bson:"failedAt"`
}
