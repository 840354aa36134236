package cache

import (
	"errors"
	"time"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/metrics"
	"github.com/x-xyz/keeper/service/cache/provider"
)

var (
	ErrNotFound = errors.New("cache miss")
)

// Loader produces the value to cache on a miss. It must return a pointer to the same
// type as the container handed to GetByFunc.
type Loader func() (interface{}, error)

type Marshal func(interface{}) ([]byte, error)

type Unmarshal func([]byte, interface{}) error

// Service stores json encoded values under Prefix in a byte Provider.
type Service interface {
	// GetByFunc fills container from the cache, or from load on a miss. Concurrent
	// misses of one key share a single load.
	GetByFunc(c ctx.Ctx, key string, container interface{}, load Loader) error
	Get(c ctx.Ctx, key string, container interface{}) error
	Set(c ctx.Ctx, key string, value interface{}) error
}

type Config struct {
	TTL      time.Duration
	Prefix   string
	Provider provider.Provider
	// Metrics counts hits and misses tagged by prefix. Optional.
	Metrics   metrics.Service
	Marshal   Marshal
	Unmarshal Unmarshal
}
