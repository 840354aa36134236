package auction

import (
	"math/big"
	"strings"
	"time"

	"golang.org/x/xerrors"

	"github.com/x-xyz/keeper/domain"
)

// FallbackHashPrefix marks bid ids synthesized because no transaction hash could be recovered.
const FallbackHashPrefix = "fallback-"

type Bid struct {
	TxHash      domain.TxHash      `json:"transactionHash" bson:"transactionHash"`
	IntentId    domain.IntentId    `json:"intentId" bson:"intentId"`
	Bidder      domain.Address     `json:"bidder" bson:"bidder"`
	Amount      string             `json:"amount" bson:"amount"`
	Token       domain.Address     `json:"token" bson:"token"`
	ChainId     domain.ChainId     `json:"chainId" bson:"chainId"`
	BlockNumber domain.BlockNumber `json:"blockNumber" bson:"blockNumber"`
	LogIndex    uint               `json:"logIndex" bson:"logIndex"`
	Timestamp   time.Time          `json:"timestamp" bson:"timestamp"`
}

func (b *Bid) LowerCase() {
	b.TxHash = b.TxHash.ToLower()
	b.IntentId = b.IntentId.ToLower()
	b.Bidder = b.Bidder.ToLower()
	b.Token = b.Token.ToLower()
}

func (b *Bid) HasFallbackHash() bool {
	return strings.HasPrefix(string(b.TxHash), FallbackHashPrefix)
}

func (b *Bid) AmountInt() (*big.Int, error) {
	return parseAmount(b.Amount)
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, xerrors.Errorf("%w: %q", domain.ErrInvalidNumberFormat, s)
	}
	return n, nil
}
