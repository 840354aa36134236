package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogMetaPosition(t *testing.T) {
	m := &LogMeta{ChainId: 84532, BlockNumber: 1200, LogIndex: 7}
	require.Equal(t, "84532/1200#7", m.Position())
}
