package primitive

import (
	"errors"
	"time"

	"github.com/coocood/freecache"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/service/cache/provider"
)

type impl struct {
	name  string
	cache *freecache.Cache
}

// NewPrimitive builds an in-process cache of sizeMB megabytes. freecache evicts the
// oldest entries once it is full.
func NewPrimitive(name string, sizeMB int) provider.Provider {
	return &impl{name: name, cache: freecache.NewCache(sizeMB * 1024 * 1024)}
}

func (im *impl) fail(c ctx.Ctx, op, key string, err error) {
	c.WithFields(log.Fields{"err": err, "key": key, "cache": im.name}).Error(op + " failed")
}

func (im *impl) Get(c ctx.Ctx, key string) ([]byte, time.Duration, error) {
	val, expireAt, err := im.cache.GetWithExpiration([]byte(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, 0, provider.ErrNotFound
	} else if err != nil {
		im.fail(c, "freecache.Get", key, err)
		return nil, 0, err
	}
	return val, remaining(expireAt), nil
}

func (im *impl) Set(c ctx.Ctx, key string, value []byte, ttl time.Duration) error {
	if err := im.cache.Set([]byte(key), value, ttlSeconds(ttl)); err != nil {
		im.fail(c, "freecache.Set", key, err)
		return err
	}
	return nil
}

func (im *impl) SetNX(c ctx.Ctx, key string, value []byte, ttl time.Duration) (bool, error) {
	prev, err := im.cache.GetOrSet([]byte(key), value, ttlSeconds(ttl))
	if err != nil {
		im.fail(c, "freecache.GetOrSet", key, err)
		return false, err
	}
	return prev == nil, nil
}

func (im *impl) Del(_ ctx.Ctx, key string) error {
	im.cache.Del([]byte(key))
	return nil
}

// remaining turns freecache's unix expiry into a ttl, 0 for entries that never expire.
func remaining(expireAt uint32) time.Duration {
	if expireAt == 0 {
		return 0
	}
	left := time.Until(time.Unix(int64(expireAt), 0))
	if left < time.Second {
		return time.Second
	}
	return left.Truncate(time.Second)
}

// freecache treats 0 as no expiry and counts whole seconds.
func ttlSeconds(ttl time.Duration) int {
	switch {
	case ttl <= 0:
		return 0
	case ttl < time.Second:
		return 1
	default:
		return int(ttl / time.Second)
	}
}
