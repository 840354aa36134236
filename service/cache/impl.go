package cache

import (
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/xerrors"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/base/metrics"
	"github.com/x-xyz/keeper/domain/keys"
	"github.com/x-xyz/keeper/service/cache/provider"
)

type impl struct {
	ttl       time.Duration
	prefix    string
	provider  provider.Provider
	met       metrics.Service
	marshal   Marshal
	unmarshal Unmarshal
	loads     singleflight.Group
}

func New(cfg Config) Service {
	im := &impl{
		ttl:       cfg.TTL,
		prefix:    cfg.Prefix,
		provider:  cfg.Provider,
		met:       cfg.Metrics,
		marshal:   cfg.Marshal,
		unmarshal: cfg.Unmarshal,
	}
	if im.marshal == nil {
		im.marshal = json.Marshal
	}
	if im.unmarshal == nil {
		im.unmarshal = json.Unmarshal
	}
	if im.met == nil {
		im.met = metrics.Noop()
	}
	return im
}

func (im *impl) key(k string) string {
	return keys.RedisKey(im.prefix, k)
}

func (im *impl) GetByFunc(c ctx.Ctx, key string, container interface{}, load Loader) error {
	err := im.Get(c, key, container)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		// a broken cache must not hide the value, fall through to load
		c.WithFields(log.Fields{"err": err, "key": key}).Warn("cache read failed, loading")
	}

	val, err, _ := im.loads.Do(key, func() (interface{}, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}
		if err := im.Set(c, key, v); err != nil {
			c.WithFields(log.Fields{"err": err, "key": key}).Warn("cache write failed")
		}
		return v, nil
	})
	if err != nil {
		return err
	}

	dst := reflect.ValueOf(container)
	src := reflect.ValueOf(val)
	if dst.Kind() != reflect.Ptr || src.Kind() != reflect.Ptr || src.Type() != dst.Type() {
		return xerrors.Errorf("cache %s: loader returned %T for container %T", im.prefix, val, container)
	}
	dst.Elem().Set(src.Elem())
	return nil
}

func (im *impl) Get(c ctx.Ctx, key string, container interface{}) error {
	raw, _, err := im.provider.Get(c, im.key(key))
	if errors.Is(err, provider.ErrNotFound) {
		im.met.BumpSum("cache.miss", 1, 1, "prefix", im.prefix)
		return ErrNotFound
	} else if err != nil {
		return xerrors.Errorf("cache get %s: %w", im.key(key), err)
	}
	if err := im.unmarshal(raw, container); err != nil {
		return xerrors.Errorf("cache decode %s: %w", im.key(key), err)
	}
	im.met.BumpSum("cache.hit", 1, 1, "prefix", im.prefix)
	return nil
}

func (im *impl) Set(c ctx.Ctx, key string, value interface{}) error {
	raw, err := im.marshal(value)
	if err != nil {
		return xerrors.Errorf("cache encode %s: %w", im.key(key), err)
	}
	if err := im.provider.Set(c, im.key(key), raw, im.ttl); err != nil {
		return xerrors.Errorf("cache set %s: %w", im.key(key), err)
	}
	return nil
}
