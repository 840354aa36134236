package tracker

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/keys"
	"github.com/x-xyz/keeper/service/cache/provider"
)

const (
	defaultSeenSize = 100_000
	defaultSeenTTL  = 24 * time.Hour
)

// DedupKey identifies one event occurrence. Kind and intentId keep two events of one log apart.
func DedupKey(txHash domain.TxHash, logIndex uint, kind string, intentId domain.IntentId) string {
	return fmt.Sprintf("%s:%d:%s:%s", txHash.ToLower(), logIndex, kind, intentId.ToLower())
}

// SeenSet drops events that were already handed to the store.
type SeenSet interface {
	// MarkSeen records key and reports whether this is its first sighting.
	MarkSeen(bCtx.Ctx, string) (bool, error)
	// Forget undoes MarkSeen, for events whose handling failed and must be retried.
	Forget(bCtx.Ctx, string)
}

type seenSet struct {
	local  *lru.Cache
	shared provider.Provider
	ttl    time.Duration
}

// NewSeenSet keeps up to size keys in process. When shared is set, keys are also claimed
// there, so replicas and restarts within ttl skip the same events.
func NewSeenSet(size int, shared provider.Provider, ttl time.Duration) (SeenSet, error) {
	if size <= 0 {
		size = defaultSeenSize
	}
	if ttl <= 0 {
		ttl = defaultSeenTTL
	}
	local, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &seenSet{local: local, shared: shared, ttl: ttl}, nil
}

func (s *seenSet) MarkSeen(ctx bCtx.Ctx, key string) (bool, error) {
	if found, _ := s.local.ContainsOrAdd(key, struct{}{}); found {
		return false, nil
	}
	if s.shared == nil {
		return true, nil
	}
	first, err := s.shared.SetNX(ctx, keys.RedisKey(keys.PfxSeenLog, key), []byte("1"), s.ttl)
	if err != nil {
		// the store's unique keys still catch duplicates
		ctx.WithField("err", err).Warn("shared seen set unavailable")
		return true, nil
	}
	return first, nil
}

func (s *seenSet) Forget(ctx bCtx.Ctx, key string) {
	s.local.Remove(key)
	if s.shared == nil {
		return
	}
	if err := s.shared.Del(ctx, keys.RedisKey(keys.PfxSeenLog, key)); err != nil {
		ctx.WithField("err", err).Warn("failed to forget seen key")
	}
}
