package usecase

import (
	"errors"
	"time"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
)

type trackerStateUseCase struct {
	trackerStateRepo domain.TrackerStateRepo
	ctxTimeout       time.Duration
}

func NewTrackerStateUseCase(r domain.TrackerStateRepo, ctxTimeout time.Duration) domain.TrackerStateUseCase {
	return &trackerStateUseCase{
		trackerStateRepo: r,
		ctxTimeout:       ctxTimeout,
	}
}

func (u *trackerStateUseCase) Get(c bCtx.Ctx, id *domain.TrackerStateId) (*domain.TrackerState, error) {
	ctx, cancel := bCtx.WithTimeout(c, u.ctxTimeout)
	defer cancel()
	return u.trackerStateRepo.Get(ctx, id)
}

func (u *trackerStateUseCase) Advance(c bCtx.Ctx, state *domain.TrackerState) error {
	ctx, cancel := bCtx.WithTimeout(c, u.ctxTimeout)
	defer cancel()

	cur, err := u.trackerStateRepo.Get(ctx, state.ToId())
	if errors.Is(err, domain.ErrNotFound) {
		if err := u.trackerStateRepo.Store(ctx, state); !errors.Is(err, domain.ErrConflict) {
			return err
		}
		// lost a race with another writer, fall through to the update path
		if cur, err = u.trackerStateRepo.Get(ctx, state.ToId()); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if cur.Covers(state.LastBlockProcessed, state.LastLogIndexProcessed) {
		return nil
	}
	return u.trackerStateRepo.Update(ctx, state)
}
