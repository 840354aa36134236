// Package redisclient dials the optional redis shared by keeper processes.
package redisclient

import (
	"context"
	"runtime"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/x-xyz/keeper/base/backoff"
	"github.com/x-xyz/keeper/base/log"
)

const (
	dialTimeout   = 2 * time.Second
	ioTimeout     = 1500 * time.Millisecond
	idleTimeout   = 4 * time.Minute
	borrowTestAge = time.Second
	dialRetries   = 3
)

type Options struct {
	Password string
	// PoolMultiplier sizes the pool per cpu. 0 keeps the fixed default sizes.
	PoolMultiplier float64
	// Retry keeps dialing with backoff, dialRetries times, before giving up.
	Retry bool
}

// poolSize returns maxActive and maxIdle; a quarter of the pool may sit idle.
func poolSize(multiplier float64, cpus int) (int, int) {
	if multiplier <= 0 {
		return 64, 16
	}
	active := int(float64(cpus) * multiplier)
	if active < 1 {
		active = 1
	}
	return active, (active + 3) / 4
}

func newPool(addr string, opt Options) *redis.Pool {
	dialOpts := []redis.DialOption{
		redis.DialConnectTimeout(dialTimeout),
		redis.DialReadTimeout(ioTimeout),
		redis.DialWriteTimeout(ioTimeout),
	}
	if opt.Password != "" {
		dialOpts = append(dialOpts, redis.DialPassword(opt.Password))
	}
	active, idle := poolSize(opt.PoolMultiplier, runtime.NumCPU())
	return &redis.Pool{
		MaxActive:   active,
		MaxIdle:     idle,
		Wait:        true,
		IdleTimeout: idleTimeout,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr, dialOpts...)
		},
		TestOnBorrow: func(c redis.Conn, lastUsed time.Time) error {
			if time.Since(lastUsed) < borrowTestAge {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// ConnectRedis builds a pool for addr and makes sure one connection answers PING.
func ConnectRedis(ctx context.Context, addr string, opt Options) (*redis.Pool, error) {
	p := newPool(addr, opt)
	logger := log.Log().WithField("redis", addr)

	bo := backoff.NewExponential(time.Second, 8*time.Second)
	for {
		err := ping(ctx, p)
		if err == nil {
			break
		}
		logger.WithFields(log.Fields{"err": err, "attempt": bo.Attempts() + 1}).Warn("redis ping failed")
		if !opt.Retry || bo.Attempts() >= dialRetries {
			p.Close()
			return nil, err
		}
		if err := bo.Backoff(ctx); err != nil {
			p.Close()
			return nil, err
		}
	}

	logger.WithFields(log.Fields{"maxActive": p.MaxActive, "maxIdle": p.MaxIdle}).Info("redis connected")
	return p, nil
}

func ping(ctx context.Context, p *redis.Pool) error {
	c, err := p.GetContext(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	_, err = c.Do("PING")
	return err
}
