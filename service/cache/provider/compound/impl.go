package compound

import (
	"errors"
	"time"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/service/cache/provider"
)

type impl struct {
	layers []provider.Provider
}

// NewCompound stacks layers nearest first, e.g. freecache in front of redis. A read
// stops at the first hit and copies the value into the layers in front of it. A
// failing layer is skipped, so an unreachable redis degrades to the local layers.
func NewCompound(layers []provider.Provider) provider.Provider {
	return &impl{layers}
}

func (im *impl) Get(c ctx.Ctx, key string) ([]byte, time.Duration, error) {
	var lastErr error
	for idx, lyr := range im.layers {
		val, ttl, err := lyr.Get(c, key)
		if errors.Is(err, provider.ErrNotFound) {
			continue
		}
		if err != nil {
			c.WithFields(log.Fields{"err": err, "key": key, "layer": idx}).Warn("cache layer read failed")
			lastErr = err
			continue
		}
		im.fill(c, idx, key, val, ttl)
		return val, ttl, nil
	}
	if lastErr != nil {
		return nil, 0, lastErr
	}
	return nil, 0, provider.ErrNotFound
}

// fill copies a hit at layer hit into the layers in front of it.
func (im *impl) fill(c ctx.Ctx, hit int, key string, val []byte, ttl time.Duration) {
	for idx := 0; idx < hit; idx++ {
		if err := im.layers[idx].Set(c, key, val, ttl); err != nil {
			c.WithFields(log.Fields{"err": err, "key": key, "layer": idx}).Warn("cache layer fill failed")
		}
	}
}

// Set writes every layer and fails only when no layer took the value.
func (im *impl) Set(c ctx.Ctx, key string, value []byte, ttl time.Duration) error {
	var lastErr error
	stored := 0
	for idx, lyr := range im.layers {
		if err := lyr.Set(c, key, value, ttl); err != nil {
			c.WithFields(log.Fields{"err": err, "key": key, "layer": idx}).Warn("cache layer write failed")
			lastErr = err
			continue
		}
		stored++
	}
	if stored == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}

// SetNX is decided by the last layer, the one shared between processes. Front layers
// are filled either way so later lookups stay local.
func (im *impl) SetNX(c ctx.Ctx, key string, value []byte, ttl time.Duration) (bool, error) {
	if len(im.layers) == 0 {
		return false, provider.ErrNotFound
	}
	last := len(im.layers) - 1
	ok, err := im.layers[last].SetNX(c, key, value, ttl)
	if err != nil {
		return false, err
	}
	im.fill(c, last, key, value, ttl)
	return ok, nil
}

func (im *impl) Del(c ctx.Ctx, key string) error {
	var lastErr error
	for _, lyr := range im.layers {
		if err := lyr.Del(c, key); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
