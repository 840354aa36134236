package inmem

import (
	"sync"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
)

type trackerStateRepo struct {
	mu     sync.Mutex
	states map[domain.TrackerStateId]domain.TrackerState
}

func NewTrackerStateRepo() domain.TrackerStateRepo {
	return &trackerStateRepo{states: make(map[domain.TrackerStateId]domain.TrackerState)}
}

func (r *trackerStateRepo) Get(_ bCtx.Ctx, id *domain.TrackerStateId) (*domain.TrackerState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[*id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

// Update only moves a checkpoint forward, like the mongo repo.
func (r *trackerStateRepo) Update(_ bCtx.Ctx, state *domain.TrackerState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := *state.ToId()
	cur, ok := r.states[id]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Covers(state.LastBlockProcessed, state.LastLogIndexProcessed) {
		return nil
	}
	r.states[id] = *state
	return nil
}

func (r *trackerStateRepo) Store(_ bCtx.Ctx, state *domain.TrackerState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := *state.ToId()
	if _, ok := r.states[id]; ok {
		return domain.ErrConflict
	}
	r.states[id] = *state
	return nil
}
