package goroutine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunReturnsPanic(t *testing.T) {
	var seen *PanicEvent
	ev := Run(func() { panic("nonce too low") }, WithRecovered(func(e *PanicEvent) { seen = e }))
	require.NotNil(t, ev)
	require.Equal(t, "nonce too low", ev.Panic)
	require.NotEmpty(t, ev.Stack)
	require.Same(t, ev, seen)
}

func TestRunWithoutPanic(t *testing.T) {
	called := false
	require.Nil(t, Run(func() {}, WithRecovered(func(*PanicEvent) { called = true })))
	require.False(t, called)
}
