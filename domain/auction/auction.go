package auction

import (
	"math/big"
	"strings"
	"time"

	"golang.org/x/xerrors"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
)

// Status mirrors the auction hub contract enum.
type Status int32

const (
	StatusCreated Status = iota
	StatusActive
	StatusFinalized
	StatusSettled
	StatusClaimed
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusCreated:   "created",
	StatusActive:    "active",
	StatusFinalized: "finalized",
	StatusSettled:   "settled",
	StatusClaimed:   "claimed",
	StatusCancelled: "cancelled",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s Status) IsValid() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseStatus is the inverse of String.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == strings.ToLower(name) {
			return s, nil
		}
	}
	return 0, xerrors.Errorf("%w: unknown auction status %q", domain.ErrBadParamInput, name)
}

// MarshalText renders the status by name in json. bson keeps the number.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// IsTerminal reports whether the keeper has nothing left to do for the auction.
func (s Status) IsTerminal() bool {
	return s == StatusSettled || s == StatusClaimed || s == StatusCancelled
}

type Auction struct {
	IntentId       domain.IntentId `json:"intentId" bson:"intentId"`
	ChainId        domain.ChainId  `json:"chainId" bson:"chainId"`
	Seller         domain.Address  `json:"seller" bson:"seller"`
	NftContract    domain.Address  `json:"nftContract" bson:"nftContract"`
	TokenId        string          `json:"tokenId" bson:"tokenId"`
	StartingPrice  string          `json:"startingPrice" bson:"startingPrice"`
	ReservePrice   string          `json:"reservePrice" bson:"reservePrice"`
	Deadline       int64           `json:"deadline" bson:"deadline"`
	PreferredToken domain.Address  `json:"preferredToken" bson:"preferredToken"`
	PreferredChain domain.ChainId  `json:"preferredChain" bson:"preferredChain"`
	Status         Status          `json:"status" bson:"status"`
	TxHash         domain.TxHash   `json:"transactionHash" bson:"transactionHash"`
	CreatedAt      time.Time       `json:"createdAt" bson:"createdAt"`

	CancelTxHash domain.TxHash `json:"cancelTxHash,omitempty" bson:"cancelTxHash,omitempty"`
	CancelledAt  *time.Time    `json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`

	Winner         domain.Address `json:"winner,omitempty" bson:"winner,omitempty"`
	WinningAmount  string         `json:"winningAmount,omitempty" bson:"winningAmount,omitempty"`
	FinalizeTxHash domain.TxHash  `json:"finalizeTxHash,omitempty" bson:"finalizeTxHash,omitempty"`
	SettledAt      *time.Time     `json:"settledAt,omitempty" bson:"settledAt,omitempty"`

	Settlement SettlementProgress `json:"settlement" bson:"settlement"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (a *Auction) LowerCase() {
	a.IntentId = a.IntentId.ToLower()
	a.Seller = a.Seller.ToLower()
	a.NftContract = a.NftContract.ToLower()
	a.PreferredToken = a.PreferredToken.ToLower()
	a.TxHash = a.TxHash.ToLower()
}

func (a *Auction) ReservePriceInt() (*big.Int, error) {
	return parseAmount(a.ReservePrice)
}

// AuctionPatchable carries the fields UpdateAuctionStatus may set next to the status.
type AuctionPatchable struct {
	Status         *Status         `bson:"status,omitempty"`
	Winner         *domain.Address `bson:"winner,omitempty"`
	WinningAmount  *string         `bson:"winningAmount,omitempty"`
	FinalizeTxHash *domain.TxHash  `bson:"finalizeTxHash,omitempty"`
	CancelTxHash   *domain.TxHash  `bson:"cancelTxHash,omitempty"`
	CancelledAt    *time.Time      `bson:"cancelledAt,omitempty"`
	SettledAt      *time.Time      `bson:"settledAt,omitempty"`
	UpdatedAt      *time.Time      `bson:"updatedAt,omitempty"`
}

// Apply copies the set fields onto a. Used by the in-memory store.
func (p *AuctionPatchable) Apply(a *Auction) {
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Winner != nil {
		a.Winner = *p.Winner
	}
	if p.WinningAmount != nil {
		a.WinningAmount = *p.WinningAmount
	}
	if p.FinalizeTxHash != nil {
		a.FinalizeTxHash = *p.FinalizeTxHash
	}
	if p.CancelTxHash != nil {
		a.CancelTxHash = *p.CancelTxHash
	}
	if p.CancelledAt != nil {
		t := *p.CancelledAt
		a.CancelledAt = &t
	}
	if p.SettledAt != nil {
		t := *p.SettledAt
		a.SettledAt = &t
	}
	if p.UpdatedAt != nil {
		a.UpdatedAt = *p.UpdatedAt
	}
}

// OnChainAuction is the auction hub's view of an auction and wins over the stored copy.
type OnChainAuction struct {
	Seller         domain.Address
	NftContract    domain.Address
	TokenId        *big.Int
	StartingPrice  *big.Int
	ReservePrice   *big.Int
	Deadline       int64
	PreferredToken domain.Address
	PreferredChain domain.ChainId
	Status         Status
}

// Exists is false until the creation transaction is visible to the rpc node.
func (a *OnChainAuction) Exists() bool {
	return !a.Seller.IsZero()
}

func (a *OnChainAuction) Ended(now time.Time) bool {
	return now.Unix() >= a.Deadline
}

type Repo interface {
	// InsertAuction returns domain.ErrConflict when intentId is taken.
	InsertAuction(ctx.Ctx, *Auction) error
	FindAuction(ctx.Ctx, domain.IntentId) (*Auction, error)
	ListAuctions(ctx.Ctx) ([]*Auction, error)
	PatchAuction(ctx.Ctx, domain.IntentId, *AuctionPatchable) (*Auction, error)

	SetSettlementStep(ctx.Ctx, domain.IntentId, string, domain.TxHash) error
	PushFailedRefund(ctx.Ctx, domain.IntentId, FailedRefund) error
	PullFailedRefund(ctx.Ctx, domain.IntentId, domain.Address, domain.ChainId) error

	// InsertBid returns domain.ErrConflict when txHash is taken.
	InsertBid(ctx.Ctx, *Bid) error
	FindBid(ctx.Ctx, domain.TxHash) (*Bid, error)
	ListBids(ctx.Ctx, domain.IntentId) ([]*Bid, error)
	ListAllBids(ctx.Ctx) ([]*Bid, error)
}

type UseCase interface {
	// AddAuction and AddBid return the stored record when the unique key already exists.
	AddAuction(ctx.Ctx, *Auction) (*Auction, error)
	AddBid(ctx.Ctx, *Bid) (*Bid, error)
	UpdateAuctionStatus(ctx.Ctx, domain.IntentId, Status, *AuctionPatchable) (*Auction, error)
	GetAuction(ctx.Ctx, domain.IntentId) (*Auction, error)
	GetAllAuctions(ctx.Ctx) (map[domain.IntentId]*Auction, error)
	GetBids(ctx.Ctx, domain.IntentId) ([]*Bid, error)
	GetAllBids(ctx.Ctx) (map[domain.IntentId][]*Bid, error)

	RecordSettlementStep(ctx.Ctx, domain.IntentId, string, domain.TxHash) error
	RecordFailedRefund(ctx.Ctx, domain.IntentId, FailedRefund) error
	ClearFailedRefund(ctx.Ctx, domain.IntentId, domain.Address, domain.ChainId) error
}
