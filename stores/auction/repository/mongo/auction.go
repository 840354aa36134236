package mongo

import (
	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/database/mongoclient"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
	"github.com/x-xyz/keeper/service/query"
)

type auctionMongoRepo struct {
	m query.Mongo
}

// NewAuctionMongoRepo ensures the unique keys the store relies on: intentId for auctions
// and transactionHash for bids.
func NewAuctionMongoRepo(c bCtx.Ctx, m query.Mongo) (auction.Repo, error) {
	if err := m.EnsureIndexes(c, domain.TableAuctions,
		query.Index{Keys: bson.D{{Key: "intentId", Value: 1}}, Unique: true},
		query.Index{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	); err != nil {
		return nil, err
	}
	if err := m.EnsureIndexes(c, domain.TableBids,
		query.Index{Keys: bson.D{{Key: "transactionHash", Value: 1}}, Unique: true},
		query.Index{Keys: bson.D{{Key: "intentId", Value: 1}, {Key: "timestamp", Value: 1}}},
	); err != nil {
		return nil, err
	}
	return &auctionMongoRepo{m: m}, nil
}

func (r *auctionMongoRepo) InsertAuction(ctx bCtx.Ctx, a *auction.Auction) error {
	if err := r.m.Insert(ctx, domain.TableAuctions, a); err == query.ErrDuplicateKey {
		return domain.ErrConflict
	} else if err != nil {
		ctx.WithFields(log.Fields{"err": err, "intentId": a.IntentId}).Error("m.Insert failed")
		return err
	}
	return nil
}

func (r *auctionMongoRepo) FindAuction(ctx bCtx.Ctx, id domain.IntentId) (*auction.Auction, error) {
	a := &auction.Auction{}
	if err := r.m.FindOne(ctx, domain.TableAuctions, bson.M{"intentId": id}, a); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{"err": err, "intentId": id}).Error("m.FindOne failed")
		return nil, err
	}
	return a, nil
}

func (r *auctionMongoRepo) ListAuctions(ctx bCtx.Ctx) ([]*auction.Auction, error) {
	res := []*auction.Auction{}
	if err := r.m.Search(ctx, domain.TableAuctions, 0, 0, "createdAt", bson.M{}, &res); err != nil {
		ctx.WithField("err", err).Error("m.Search failed")
		return nil, err
	}
	return res, nil
}

func (r *auctionMongoRepo) PatchAuction(ctx bCtx.Ctx, id domain.IntentId, patch *auction.AuctionPatchable) (*auction.Auction, error) {
	updater, err := mongoclient.MakeBsonM(patch)
	if err != nil {
		ctx.WithFields(log.Fields{"err": err, "patch": patch}).Error("failed to make bson.M")
		return nil, err
	}
	a := &auction.Auction{}
	if err := r.m.PatchAndFind(ctx, domain.TableAuctions, bson.M{"intentId": id}, updater, a); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{"err": err, "intentId": id}).Error("m.PatchAndFind failed")
		return nil, err
	}
	return a, nil
}

func (r *auctionMongoRepo) SetSettlementStep(ctx bCtx.Ctx, id domain.IntentId, step string, hash domain.TxHash) error {
	return r.customPatch(ctx, id, bson.M{"$set": bson.M{"settlement.steps." + step: hash}})
}

func (r *auctionMongoRepo) PushFailedRefund(ctx bCtx.Ctx, id domain.IntentId, f auction.FailedRefund) error {
	// keep one entry per bidder and chain
	if err := r.PullFailedRefund(ctx, id, f.Bidder, f.ChainId); err != nil {
		return err
	}
	return r.customPatch(ctx, id, bson.M{"$push": bson.M{"settlement.failedRefunds": f}})
}

func (r *auctionMongoRepo) PullFailedRefund(ctx bCtx.Ctx, id domain.IntentId, bidder domain.Address, chainId domain.ChainId) error {
	return r.customPatch(ctx, id, bson.M{"$pull": bson.M{"settlement.failedRefunds": bson.M{
		"bidder":  bidder,
		"chainId": chainId,
	}}})
}

func (r *auctionMongoRepo) customPatch(ctx bCtx.Ctx, id domain.IntentId, update bson.M) error {
	if err := r.m.CustomPatch(ctx, domain.TableAuctions, bson.M{"intentId": id}, update); err == query.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{"err": err, "intentId": id}).Error("m.CustomPatch failed")
		return err
	}
	return nil
}

func (r *auctionMongoRepo) InsertBid(ctx bCtx.Ctx, b *auction.Bid) error {
	if err := r.m.Insert(ctx, domain.TableBids, b); err == query.ErrDuplicateKey {
		return domain.ErrConflict
	} else if err != nil {
		ctx.WithFields(log.Fields{"err": err, "txHash": b.TxHash}).Error("m.Insert failed")
		return err
	}
	return nil
}

func (r *auctionMongoRepo) FindBid(ctx bCtx.Ctx, hash domain.TxHash) (*auction.Bid, error) {
	b := &auction.Bid{}
	if err := r.m.FindOne(ctx, domain.TableBids, bson.M{"transactionHash": hash}, b); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{"err": err, "txHash": hash}).Error("m.FindOne failed")
		return nil, err
	}
	return b, nil
}

func (r *auctionMongoRepo) ListBids(ctx bCtx.Ctx, id domain.IntentId) ([]*auction.Bid, error) {
	res := []*auction.Bid{}
	if err := r.m.Search(ctx, domain.TableBids, 0, 0, "timestamp", bson.M{"intentId": id}, &res); err != nil {
		ctx.WithFields(log.Fields{"err": err, "intentId": id}).Error("m.Search failed")
		return nil, err
	}
	return res, nil
}

func (r *auctionMongoRepo) ListAllBids(ctx bCtx.Ctx) ([]*auction.Bid, error) {
	res := []*auction.Bid{}
	if err := r.m.Search(ctx, domain.TableBids, 0, 0, "timestamp", bson.M{}, &res); err != nil {
		ctx.WithField("err", err).Error("m.Search failed")
		return nil, err
	}
	return res, nil
}
