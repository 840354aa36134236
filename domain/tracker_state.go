package domain

import (
	"fmt"

	"github.com/x-xyz/keeper/base/ctx"
)

const DefaultTag = "default"

// TrackerState is one listener's checkpoint: the last log it handled on (chain, contract, tag).
// LastLogIndexProcessed is -1 when every log before LastBlockProcessed is handled and
// none of that block yet.
type TrackerState struct {
	ChainId               ChainId `bson:"chainId"`
	ContractAddress       Address `bson:"contractAddress"`
	Tag                   string  `bson:"tag"`
	LastBlockProcessed    uint64  `bson:"lastBlockProcessed"`
	LastLogIndexProcessed int64   `bson:"lastLogIndexProcessed"`
}

// Covers reports whether the log at (block, logIndex) is at or before the checkpoint.
func (s *TrackerState) Covers(block uint64, logIndex int64) bool {
	if block != s.LastBlockProcessed {
		return block < s.LastBlockProcessed
	}
	return logIndex <= s.LastLogIndexProcessed
}

func (s *TrackerState) ToId() *TrackerStateId {
	return &TrackerStateId{
		ChainId:         s.ChainId,
		ContractAddress: s.ContractAddress.ToLower(),
		Tag:             s.Tag,
	}
}

type TrackerStateId struct {
	ChainId         ChainId `bson:"chainId"`
	ContractAddress Address `bson:"contractAddress"`
	Tag             string  `bson:"tag"`
}

func (id TrackerStateId) String() string {
	return fmt.Sprintf("%d:%s:%s", id.ChainId, id.ContractAddress.ToLower(), id.Tag)
}

type TrackerStateRepo interface {
	Get(ctx.Ctx, *TrackerStateId) (*TrackerState, error)
	Update(ctx.Ctx, *TrackerState) error
	Store(ctx.Ctx, *TrackerState) error
}

type TrackerStateUseCase interface {
	Get(ctx.Ctx, *TrackerStateId) (*TrackerState, error)
	// Advance moves the checkpoint forward, creating it on first use. It never moves backward.
	Advance(ctx.Ctx, *TrackerState) error
}
