// Package provider is the byte level storage behind service/cache, the cache
// middleware and the tracker seen set.
package provider

import (
	"errors"
	"time"

	"github.com/x-xyz/keeper/base/ctx"
)

// ErrNotFound is returned by Get for absent or expired keys.
var ErrNotFound = errors.New("cache key not found")

type Provider interface {
	// Get returns the value and its remaining ttl.
	Get(c ctx.Ctx, key string) ([]byte, time.Duration, error)
	Set(c ctx.Ctx, key string, value []byte, ttl time.Duration) error
	// SetNX writes only when key is absent and reports whether it did.
	SetNX(c ctx.Ctx, key string, value []byte, ttl time.Duration) (bool, error)
	Del(c ctx.Ctx, key string) error
}
