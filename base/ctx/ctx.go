// Package ctx pairs a context.Context with the logger of the work it scopes, so
// fields added along a call chain (chainId, intentId, step) end up on every line.
package ctx

import (
	"context"
	"time"

	"github.com/x-xyz/keeper/base/log"
)

type Ctx struct {
	context.Context
	log.Logger
}

func Background() Ctx {
	return From(context.Background())
}

// From lifts a plain context.Context, e.g. one handed out by errgroup or signal.
func From(c context.Context) Ctx {
	if bc, ok := c.(Ctx); ok {
		return bc
	}
	return Ctx{Context: c, Logger: log.Log()}
}

// WithValue stores val under key and logs it as a field.
func WithValue(parent Ctx, key string, val interface{}) Ctx {
	return Ctx{
		Context: context.WithValue(parent.Context, key, val),
		Logger:  parent.Logger.WithField(key, val),
	}
}

// WithLogFields only decorates the logger, context values are untouched.
func WithLogFields(parent Ctx, fields log.Fields) Ctx {
	return Ctx{Context: parent.Context, Logger: parent.Logger.WithFields(fields)}
}

func WithCancel(parent Ctx) (Ctx, context.CancelFunc) {
	c, cancel := context.WithCancel(parent.Context)
	return Ctx{Context: c, Logger: parent.Logger}, cancel
}

func WithTimeout(parent Ctx, timeout time.Duration) (Ctx, context.CancelFunc) {
	c, cancel := context.WithTimeout(parent.Context, timeout)
	return Ctx{Context: c, Logger: parent.Logger}, cancel
}
