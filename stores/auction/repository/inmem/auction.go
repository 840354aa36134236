package inmem

import (
	"sort"
	"sync"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
)

// repo keeps auctions and bids in process memory with the same unique keys as the mongo
// backend. Records are copied on the way in and out.
type repo struct {
	mu       sync.RWMutex
	auctions map[domain.IntentId]*auction.Auction
	bids     map[domain.TxHash]*auction.Bid
	order    []domain.TxHash
}

func NewAuctionRepo() auction.Repo {
	return &repo{
		auctions: make(map[domain.IntentId]*auction.Auction),
		bids:     make(map[domain.TxHash]*auction.Bid),
	}
}

func copyAuction(a *auction.Auction) *auction.Auction {
	c := *a
	if a.Settlement.Steps != nil {
		c.Settlement.Steps = make(map[string]domain.TxHash, len(a.Settlement.Steps))
		for k, v := range a.Settlement.Steps {
			c.Settlement.Steps[k] = v
		}
	}
	c.Settlement.FailedRefunds = append([]auction.FailedRefund(nil), a.Settlement.FailedRefunds...)
	return &c
}

func copyBid(b *auction.Bid) *auction.Bid {
	c := *b
	return &c
}

func (r *repo) InsertAuction(_ bCtx.Ctx, a *auction.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.auctions[a.IntentId]; ok {
		return domain.ErrConflict
	}
	r.auctions[a.IntentId] = copyAuction(a)
	return nil
}

func (r *repo) FindAuction(_ bCtx.Ctx, id domain.IntentId) (*auction.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.auctions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyAuction(a), nil
}

func (r *repo) ListAuctions(_ bCtx.Ctx) ([]*auction.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*auction.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		res = append(res, copyAuction(a))
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.Before(res[j].CreatedAt)
		}
		return res[i].IntentId < res[j].IntentId
	})
	return res, nil
}

func (r *repo) PatchAuction(_ bCtx.Ctx, id domain.IntentId, patch *auction.AuctionPatchable) (*auction.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.auctions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	patch.Apply(a)
	return copyAuction(a), nil
}

func (r *repo) SetSettlementStep(_ bCtx.Ctx, id domain.IntentId, step string, hash domain.TxHash) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.auctions[id]
	if !ok {
		return domain.ErrNotFound
	}
	if a.Settlement.Steps == nil {
		a.Settlement.Steps = make(map[string]domain.TxHash)
	}
	a.Settlement.Steps[step] = hash
	return nil
}

func (r *repo) PushFailedRefund(c bCtx.Ctx, id domain.IntentId, f auction.FailedRefund) error {
	if err := r.PullFailedRefund(c, id, f.Bidder, f.ChainId); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.auctions[id]
	a.Settlement.FailedRefunds = append(a.Settlement.FailedRefunds, f)
	return nil
}

func (r *repo) PullFailedRefund(_ bCtx.Ctx, id domain.IntentId, bidder domain.Address, chainId domain.ChainId) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.auctions[id]
	if !ok {
		return domain.ErrNotFound
	}
	kept := a.Settlement.FailedRefunds[:0]
	for _, f := range a.Settlement.FailedRefunds {
		if f.Bidder == bidder && f.ChainId == chainId {
			continue
		}
		kept = append(kept, f)
	}
	a.Settlement.FailedRefunds = kept
	return nil
}

func (r *repo) InsertBid(_ bCtx.Ctx, b *auction.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bids[b.TxHash]; ok {
		return domain.ErrConflict
	}
	r.bids[b.TxHash] = copyBid(b)
	r.order = append(r.order, b.TxHash)
	return nil
}

func (r *repo) FindBid(_ bCtx.Ctx, hash domain.TxHash) (*auction.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bids[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyBid(b), nil
}

func (r *repo) ListBids(_ bCtx.Ctx, id domain.IntentId) ([]*auction.Bid, error) {
	return r.listBids(func(b *auction.Bid) bool { return b.IntentId == id }), nil
}

func (r *repo) ListAllBids(_ bCtx.Ctx) ([]*auction.Bid, error) {
	return r.listBids(func(*auction.Bid) bool { return true }), nil
}

func (r *repo) listBids(match func(*auction.Bid) bool) []*auction.Bid {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := []*auction.Bid{}
	for _, h := range r.order {
		if b := r.bids[h]; match(b) {
			res = append(res, copyBid(b))
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Timestamp.Before(res[j].Timestamp) })
	return res
}
