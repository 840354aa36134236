package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/service/query"
)

type trackerStateMongoRepo struct {
	m query.Mongo
}

func NewTrackerStateMongoRepo(c bCtx.Ctx, mCon query.Mongo) (domain.TrackerStateRepo, error) {
	if err := mCon.EnsureIndexes(c, domain.TableTrackerStates, query.Index{
		Keys:   bson.D{{Key: "chainId", Value: 1}, {Key: "contractAddress", Value: 1}, {Key: "tag", Value: 1}},
		Unique: true,
	}); err != nil {
		return nil, err
	}
	return &trackerStateMongoRepo{m: mCon}, nil
}

func idFilter(id *domain.TrackerStateId) bson.M {
	return bson.M{
		"chainId":         id.ChainId,
		"contractAddress": id.ContractAddress.ToLower(),
		"tag":             id.Tag,
	}
}

// behind matches a stored checkpoint that is strictly before state.
func behind(state *domain.TrackerState) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"lastBlockProcessed": bson.M{"$lt": state.LastBlockProcessed}},
		bson.M{
			"lastBlockProcessed":    state.LastBlockProcessed,
			"lastLogIndexProcessed": bson.M{"$lt": state.LastLogIndexProcessed},
		},
	}}
}

func (r *trackerStateMongoRepo) Get(ctx bCtx.Ctx, id *domain.TrackerStateId) (*domain.TrackerState, error) {
	state := &domain.TrackerState{}
	if err := r.m.FindOne(ctx, domain.TableTrackerStates, idFilter(id), state); errors.Is(err, query.ErrNotFound) {
		return nil, domain.ErrNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{"err": err, "id": id.String()}).Error("m.FindOne failed")
		return nil, err
	}
	return state, nil
}

// Update only moves the stored checkpoint forward. An update behind what another
// replica already stored is dropped.
func (r *trackerStateMongoRepo) Update(ctx bCtx.Ctx, state *domain.TrackerState) error {
	id := state.ToId()
	selector := idFilter(id)
	for k, v := range behind(state) {
		selector[k] = v
	}
	err := r.m.CustomPatch(ctx, domain.TableTrackerStates, selector, bson.M{"$set": bson.M{
		"lastBlockProcessed":    state.LastBlockProcessed,
		"lastLogIndexProcessed": state.LastLogIndexProcessed,
	}})
	if errors.Is(err, query.ErrNotFound) {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		ctx.WithField("id", id.String()).Debug("stored checkpoint is ahead, update dropped")
		return nil
	} else if err != nil {
		ctx.WithFields(log.Fields{"err": err, "id": id.String()}).Error("m.CustomPatch failed")
		return err
	}
	return nil
}

func (r *trackerStateMongoRepo) Store(ctx bCtx.Ctx, state *domain.TrackerState) error {
	stored := *state
	stored.ContractAddress = state.ContractAddress.ToLower()
	if err := r.m.Insert(ctx, domain.TableTrackerStates, &stored); errors.Is(err, query.ErrDuplicateKey) {
		return domain.ErrConflict
	} else if err != nil {
		ctx.WithFields(log.Fields{"err": err, "id": state.ToId().String()}).Error("m.Insert failed")
		return err
	}
	return nil
}
