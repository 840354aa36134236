package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackerStateCovers(t *testing.T) {
	s := &TrackerState{LastBlockProcessed: 100, LastLogIndexProcessed: 3}
	require.True(t, s.Covers(99, 50))
	require.True(t, s.Covers(100, 3))
	require.True(t, s.Covers(100, -1))
	require.False(t, s.Covers(100, 4))
	require.False(t, s.Covers(101, -1))

	fresh := &TrackerState{LastBlockProcessed: 100, LastLogIndexProcessed: -1}
	require.False(t, fresh.Covers(100, 0))
	require.True(t, fresh.Covers(99, 7))
}

func TestTrackerStateId(t *testing.T) {
	s := &TrackerState{ChainId: 84532, ContractAddress: "0xAbC", Tag: "bidManager"}
	id := s.ToId()
	require.Equal(t, Address("0xabc"), id.ContractAddress)
	require.Equal(t, "84532:0xabc:bidManager", id.String())
}
