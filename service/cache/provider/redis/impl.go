package redis

import (
	"errors"
	"time"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/service/cache/provider"
	"github.com/x-xyz/keeper/service/redis"
)

type impl struct {
	redis redis.Service
}

// NewRedis shares cache entries between keeper processes.
func NewRedis(r redis.Service) provider.Provider {
	return &impl{redis: r}
}

func fail(c ctx.Ctx, op, key string, err error) {
	c.WithFields(log.Fields{"err": err, "key": key}).Error(op + " failed")
}

func (im *impl) Get(c ctx.Ctx, key string) ([]byte, time.Duration, error) {
	val, err := im.redis.Get(c, key)
	if errors.Is(err, redis.ErrNotFound) {
		return nil, 0, provider.ErrNotFound
	} else if err != nil {
		fail(c, "redis.Get", key, err)
		return nil, 0, err
	}

	secs, err := im.redis.TTL(c, key)
	switch {
	case errors.Is(err, redis.ErrNoTTL):
		return val, 0, nil
	case errors.Is(err, redis.ErrNotFound):
		// expired between GET and TTL
		return nil, 0, provider.ErrNotFound
	case err != nil:
		fail(c, "redis.TTL", key, err)
		return nil, 0, err
	}
	return val, time.Duration(secs) * time.Second, nil
}

func (im *impl) Set(c ctx.Ctx, key string, value []byte, ttl time.Duration) error {
	if err := im.redis.Set(c, key, value, expiry(ttl)); err != nil {
		fail(c, "redis.Set", key, err)
		return err
	}
	return nil
}

func (im *impl) SetNX(c ctx.Ctx, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := im.redis.SetNX(c, key, value, expiry(ttl))
	if err != nil {
		fail(c, "redis.SetNX", key, err)
		return false, err
	}
	return ok, nil
}

func (im *impl) Del(c ctx.Ctx, key string) error {
	if _, err := im.redis.Del(c, key); err != nil {
		fail(c, "redis.Del", key, err)
		return err
	}
	return nil
}

// expiry maps a zero ttl to no expiry, same as the in-process provider.
func expiry(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return redis.Forever
	}
	return ttl
}
