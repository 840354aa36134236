// Package goroutine contains panics of keeper work units so one bad auction or tick
// cannot take the process down.
package goroutine

import (
	"runtime/debug"

	"github.com/x-xyz/keeper/base/log"
)

type PanicEvent struct {
	Panic interface{}
	Stack []byte
}

type options struct {
	logger    log.Logger
	recovered func(*PanicEvent)
}

type Option func(*options)

func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRecovered is called with the panic after it has been logged.
func WithRecovered(f func(*PanicEvent)) Option {
	return func(o *options) { o.recovered = f }
}

// Run calls f and returns the panic it raised, nil when f returned normally.
func Run(f func(), opts ...Option) (ev *PanicEvent) {
	o := options{logger: log.Log()}
	for _, opt := range opts {
		opt(&o)
	}
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		ev = &PanicEvent{Panic: p, Stack: debug.Stack()}
		o.logger.WithFields(log.Fields{"err": p, "stack": string(ev.Stack)}).Error("recovered from panic")
		if o.recovered != nil {
			o.recovered(ev)
		}
	}()
	f()
	return nil
}
