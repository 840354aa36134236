package auction

import (
	"math/big"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/x-xyz/keeper/domain"
)

// AggregatedBid is one bidder's rollup for one auction and one settlement token.
type AggregatedBid struct {
	Bidder   domain.Address
	TokenKey string
	Symbol   string
	// Unit and Decimals say what TotalAmount is worth, see TokenClass.
	Unit        string
	Decimals    int32
	Token       domain.Address
	SourceChain domain.ChainId
	TotalAmount *big.Int
	// ChainAmounts splits TotalAmount by the chain the funds are escrowed on.
	ChainAmounts map[domain.ChainId]*big.Int
	// Chains lists escrow chains in the order they were first bid from.
	Chains     []domain.ChainId
	BidCount   int
	TxHashes   []domain.TxHash
	FirstBidAt time.Time
	LastBidAt  time.Time
}

// TokenClass places a bid's token for aggregation and winner selection.
type TokenClass struct {
	// Key groups one bidder's bids into one aggregate. Bids sharing a key share Decimals.
	Key    string
	Symbol string
	// Unit groups aggregates whose amounts compare once scaled by Decimals.
	Unit     string
	Decimals int32
}

// TokenClassFunc decides which bids are fungible with each other.
type TokenClassFunc func(*Bid) TokenClass

// ByTokenAddress keys bids by their lower-cased token address. Only bids in the very
// same token compare.
func ByTokenAddress(b *Bid) TokenClass {
	addr := b.Token.ToLowerStr()
	return TokenClass{Key: addr, Unit: addr}
}

// Price is an amount in the smallest unit of a token class.
type Price struct {
	Amount   *big.Int
	Unit     string
	Decimals int32
}

// SortBids orders bids chronologically, falling back to block position for equal timestamps.
func SortBids(bids []*Bid) []*Bid {
	sorted := make([]*Bid, len(bids))
	copy(sorted, bids)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.ChainId == b.ChainId && a.BlockNumber != b.BlockNumber {
			return a.BlockNumber < b.BlockNumber
		}
		if a.ChainId == b.ChainId {
			return a.LogIndex < b.LogIndex
		}
		return false
	})
	return sorted
}

// AggregateBids groups bids by (bidder, token key) and sums amounts exactly. The returned
// slice is ordered by first bid.
func AggregateBids(bids []*Bid, classify TokenClassFunc) ([]*AggregatedBid, error) {
	if classify == nil {
		classify = ByTokenAddress
	}
	type aggKey struct {
		bidder domain.Address
		token  string
	}
	byKey := make(map[aggKey]*AggregatedBid)
	var ordered []*AggregatedBid

	for _, b := range SortBids(bids) {
		amount, err := b.AmountInt()
		if err != nil {
			return nil, err
		}
		class := classify(b)
		k := aggKey{bidder: b.Bidder.ToLower(), token: class.Key}
		agg, ok := byKey[k]
		if !ok {
			agg = &AggregatedBid{
				Bidder:       k.bidder,
				TokenKey:     class.Key,
				Symbol:       class.Symbol,
				Unit:         class.Unit,
				Decimals:     class.Decimals,
				TotalAmount:  new(big.Int),
				ChainAmounts: make(map[domain.ChainId]*big.Int),
				FirstBidAt:   b.Timestamp,
			}
			byKey[k] = agg
			ordered = append(ordered, agg)
		}
		agg.TotalAmount.Add(agg.TotalAmount, amount)
		if _, ok := agg.ChainAmounts[b.ChainId]; !ok {
			agg.ChainAmounts[b.ChainId] = new(big.Int)
			agg.Chains = append(agg.Chains, b.ChainId)
		}
		agg.ChainAmounts[b.ChainId].Add(agg.ChainAmounts[b.ChainId], amount)
		agg.Token = b.Token.ToLower()
		agg.SourceChain = b.ChainId
		agg.BidCount++
		agg.TxHashes = append(agg.TxHashes, b.TxHash)
		agg.LastBidAt = b.Timestamp
	}
	return ordered, nil
}

// Cmp compares the worth of two aggregates after scaling both to the larger decimals.
// It ignores Unit, callers compare within one unit.
func (a *AggregatedBid) Cmp(b *AggregatedBid) int {
	return cmpScaled(a.TotalAmount, a.Decimals, b.TotalAmount, b.Decimals)
}

func cmpScaled(x *big.Int, xd int32, y *big.Int, yd int32) int {
	switch {
	case xd < yd:
		x = new(big.Int).Mul(x, pow10(yd-xd))
	case yd < xd:
		y = new(big.Int).Mul(y, pow10(xd-yd))
	}
	return x.Cmp(y)
}

func pow10(n int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// beats orders aggregates for winner selection: greater worth, then earlier first bid,
// then the lexicographically smaller bidder address.
func (a *AggregatedBid) beats(b *AggregatedBid) bool {
	if c := a.Cmp(b); c != 0 {
		return c > 0
	}
	if !a.FirstBidAt.Equal(b.FirstBidAt) {
		return a.FirstBidAt.Before(b.FirstBidAt)
	}
	if a.Bidder != b.Bidder {
		return a.Bidder < b.Bidder
	}
	return a.TokenKey < b.TokenKey
}

// SelectWinner returns the best aggregate denominated in the reserve's unit whose worth
// reaches the reserve, or domain.ErrNoWinner. A reserve without a unit takes the unit and
// decimals of the earliest aggregate. Aggregates in other units never win.
func SelectWinner(aggs []*AggregatedBid, reserve Price) (*AggregatedBid, error) {
	if len(aggs) == 0 {
		return nil, domain.ErrNoWinner
	}
	if reserve.Unit == "" {
		reserve.Unit, reserve.Decimals = aggs[0].Unit, aggs[0].Decimals
	}
	eligible := lo.Filter(aggs, func(a *AggregatedBid, _ int) bool {
		return a.Unit == reserve.Unit
	})
	if len(eligible) == 0 {
		return nil, domain.ErrNoWinner
	}
	best := lo.Reduce(eligible[1:], func(best *AggregatedBid, a *AggregatedBid, _ int) *AggregatedBid {
		if a.beats(best) {
			return a
		}
		return best
	}, eligible[0])
	if reserve.Amount != nil && cmpScaled(best.TotalAmount, best.Decimals, reserve.Amount, reserve.Decimals) < 0 {
		return nil, domain.ErrNoWinner
	}
	return best, nil
}

// Losers are the aggregates of every bidder other than the winner.
func Losers(aggs []*AggregatedBid, winner *AggregatedBid) []*AggregatedBid {
	return lo.Filter(aggs, func(a *AggregatedBid, _ int) bool {
		return !a.Bidder.Equals(winner.Bidder)
	})
}

// WinnerLeftovers are the winner's aggregates in tokens other than the winning one.
func WinnerLeftovers(aggs []*AggregatedBid, winner *AggregatedBid) []*AggregatedBid {
	return lo.Filter(aggs, func(a *AggregatedBid, _ int) bool {
		return a != winner && a.Bidder.Equals(winner.Bidder)
	})
}
