package tracker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/service/cache/provider"
	"github.com/x-xyz/keeper/service/cache/provider/primitive"
)

func TestDedupKey(t *testing.T) {
	req := require.New(t)
	k1 := DedupKey("0xAB", 1, KindBidPlaced, "0xCD")
	req.Equal("0xab:1:bidPlaced:0xcd", k1)
	req.NotEqual(k1, DedupKey("0xab", 1, KindAuctionCreated, "0xcd"))
	req.NotEqual(k1, DedupKey("0xab", 2, KindBidPlaced, "0xcd"))
}

func TestSeenSet_local(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()
	s, err := NewSeenSet(2, nil, 0)
	req.NoError(err)

	first, err := s.MarkSeen(ctx, "a")
	req.NoError(err)
	req.True(first)
	first, err = s.MarkSeen(ctx, "a")
	req.NoError(err)
	req.False(first)

	s.Forget(ctx, "a")
	first, err = s.MarkSeen(ctx, "a")
	req.NoError(err)
	req.True(first)
}

func TestSeenSet_shared(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()
	shared := primitive.NewPrimitive("seen", 1)
	a, err := NewSeenSet(0, shared, time.Minute)
	req.NoError(err)
	b, err := NewSeenSet(0, shared, time.Minute)
	req.NoError(err)

	first, err := a.MarkSeen(ctx, "k")
	req.NoError(err)
	req.True(first)
	first, err = b.MarkSeen(ctx, "k")
	req.NoError(err)
	req.False(first, "replica sharing the store must see the claim")

	a.Forget(ctx, "k")
	b.Forget(ctx, "k")
	first, err = b.MarkSeen(ctx, "k")
	req.NoError(err)
	req.True(first)
}

type brokenProvider struct{}

func (brokenProvider) Get(bCtx.Ctx, string) ([]byte, time.Duration, error) {
	return nil, 0, provider.ErrNotFound
}

func (brokenProvider) Set(bCtx.Ctx, string, []byte, time.Duration) error {
	return errors.New("down")
}

func (brokenProvider) SetNX(bCtx.Ctx, string, []byte, time.Duration) (bool, error) {
	return false, errors.New("down")
}

func (brokenProvider) Del(bCtx.Ctx, string) error {
	return errors.New("down")
}

func TestSeenSet_sharedUnavailable(t *testing.T) {
	req := require.New(t)
	ctx := bCtx.Background()
	s, err := NewSeenSet(0, brokenProvider{}, time.Minute)
	req.NoError(err)

	first, err := s.MarkSeen(ctx, DedupKey(domain.TxHash("0x1"), 0, KindBidPlaced, "0x2"))
	req.NoError(err)
	req.True(first)
}
