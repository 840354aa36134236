package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/stores/tracker_state/repository/inmem"
)

func TestAdvanceNeverMovesBackward(t *testing.T) {
	c := bCtx.Background()
	uc := NewTrackerStateUseCase(inmem.NewTrackerStateRepo(), time.Second)
	id := &domain.TrackerStateId{ChainId: 1, ContractAddress: "0xbid", Tag: domain.DefaultTag}

	_, err := uc.Get(c, id)
	require.ErrorIs(t, err, domain.ErrNotFound)

	state := func(block uint64, logIndex int64) *domain.TrackerState {
		return &domain.TrackerState{
			ChainId:               id.ChainId,
			ContractAddress:       id.ContractAddress,
			Tag:                   id.Tag,
			LastBlockProcessed:    block,
			LastLogIndexProcessed: logIndex,
		}
	}

	require.NoError(t, uc.Advance(c, state(10, 2)))
	require.NoError(t, uc.Advance(c, state(10, 5)))
	require.NoError(t, uc.Advance(c, state(9, 99)))

	got, err := uc.Get(c, id)
	require.NoError(t, err)
	require.Equal(t, uint64(10), got.LastBlockProcessed)
	require.Equal(t, int64(5), got.LastLogIndexProcessed)

	require.NoError(t, uc.Advance(c, state(12, 0)))
	got, err = uc.Get(c, id)
	require.NoError(t, err)
	require.Equal(t, uint64(12), got.LastBlockProcessed)
}
