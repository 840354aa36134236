package redis

import (
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/metrics"
	"github.com/x-xyz/keeper/domain/keys"
)

const (
	// retTTLNoKey is the return value of TTL when the key does not exist
	retTTLNoKey = -2

	// retTTLNoExpire is the return value of TTL when the key exists but has
	// no associated expire
	retTTLNoExpire = -1

	// Forever disables expiry on Set and SetNX
	Forever time.Duration = -1
)

var (
	ErrNotFound = errors.New("redis key not found")
	ErrNoTTL    = errors.New("redis key has no ttl")
)

type Service interface {
	Get(ctx.Ctx, string) ([]byte, error)
	Set(ctx.Ctx, string, []byte, time.Duration) error
	// SetNX reports whether the key was written, i.e. it did not exist before.
	SetNX(ctx.Ctx, string, []byte, time.Duration) (bool, error)
	Del(ctx.Ctx, ...string) (int, error)
	Exists(ctx.Ctx, string) (bool, error)
	TTL(ctx.Ctx, string) (int, error)
	Ping(ctx.Ctx) error
}

type redImpl struct {
	name string
	met  metrics.Service
	pool *redis.Pool
}

func New(name string, met metrics.Service, pool *redis.Pool) Service {
	return &redImpl{
		name: name,
		met:  met,
		pool: pool,
	}
}

func (r *redImpl) connDo(c ctx.Ctx, commandName string, args ...interface{}) (interface{}, error) {
	timer := r.met.BumpTime("getconn.time", 1, "cluster", r.name)
	conn, err := r.pool.GetContext(c)
	timer.End()
	if err != nil {
		r.met.BumpSum("getConn.err", 1, 1, "cluster", r.name)
		return nil, err
	}

	reply, err := conn.Do(commandName, args...)

	// release the connection asap so the pool does not grow under load
	if err := conn.Close(); err != nil {
		r.met.BumpSum("conn.Close.err", 1, 1, "cluster", r.name)
	}
	return reply, err
}

func (r *redImpl) tags(funcName, key string) []string {
	return []string{"func", funcName, "cluster", r.name, "prefix", keys.GetPrefix(key)}
}

func (r *redImpl) Get(c ctx.Ctx, key string) ([]byte, error) {
	tags := r.tags("get", key)
	defer r.met.BumpTime("time", 1, tags...).End()

	val, err := redis.Bytes(r.connDo(c, "GET", key))
	if err == redis.ErrNil {
		return nil, ErrNotFound
	} else if err != nil {
		c.WithField("err", err).Error("get redis failed")
		return nil, err
	}
	r.met.BumpHistogram("bytes", float64(len(val)), 1, tags...)
	return val, nil
}

func (r *redImpl) Set(c ctx.Ctx, key string, val []byte, expire time.Duration) error {
	tags := r.tags("set", key)
	defer r.met.BumpTime("time", 1, tags...).End()
	r.met.BumpHistogram("bytes", float64(len(val)), 1, tags...)

	var err error
	if expire == Forever {
		_, err = r.connDo(c, "SET", key, val)
	} else {
		_, err = r.connDo(c, "SET", key, val, "PX", int(expire/time.Millisecond))
	}
	if err != nil {
		c.WithField("err", err).Error("set redis failed")
	}
	return err
}

func (r *redImpl) SetNX(c ctx.Ctx, key string, val []byte, expire time.Duration) (bool, error) {
	tags := r.tags("setnx", key)
	defer r.met.BumpTime("time", 1, tags...).End()

	var err error
	if expire == Forever {
		_, err = redis.String(r.connDo(c, "SET", key, val, "NX"))
	} else {
		_, err = redis.String(r.connDo(c, "SET", key, val, "NX", "PX", int(expire/time.Millisecond)))
	}
	if err == redis.ErrNil {
		// key exists
		return false, nil
	} else if err != nil {
		c.WithField("err", err).Error("setnx redis failed")
		return false, err
	}
	return true, nil
}

func (r *redImpl) Del(c ctx.Ctx, ks ...string) (int, error) {
	if len(ks) == 0 {
		return 0, nil
	}
	defer r.met.BumpTime("time", 1, r.tags("del", ks[0])...).End()

	res, err := redis.Int(r.connDo(c, "DEL", redis.Args{}.AddFlat(ks)...))
	if err != nil {
		c.WithField("err", err).Error("DEL redis failed")
		return 0, err
	}
	return res, nil
}

func (r *redImpl) Exists(c ctx.Ctx, key string) (bool, error) {
	defer r.met.BumpTime("time", 1, r.tags("exists", key)...).End()
	res, err := redis.Bool(r.connDo(c, "EXISTS", key))
	if err != nil {
		c.WithField("err", err).Error("Exists redis failed")
	}
	return res, err
}

func (r *redImpl) TTL(c ctx.Ctx, key string) (int, error) {
	defer r.met.BumpTime("time", 1, r.tags("TTL", key)...).End()
	res, err := redis.Int(r.connDo(c, "TTL", key))
	if err != nil {
		c.WithField("err", err).Error("TTL redis failed")
		return 0, err
	}

	if res == retTTLNoKey {
		return res, ErrNotFound
	} else if res == retTTLNoExpire {
		return res, ErrNoTTL
	}
	return res, nil
}

func (r *redImpl) Ping(c ctx.Ctx) error {
	_, err := redis.String(r.connDo(c, "PING"))
	return err
}
