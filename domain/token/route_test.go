package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsStable(t *testing.T) {
	require.True(t, IsStable("usdc"))
	require.True(t, IsStable(" USDC.e "))
	require.True(t, IsStable("PYUSD"))
	require.False(t, IsStable("WETH"))
	require.False(t, IsStable(""))
}

func TestPlanRoute(t *testing.T) {
	usdcSepolia := TokenInfo{ChainId: 11155111, Symbol: "USDC", Decimals: 6}
	usdcBase := TokenInfo{ChainId: 84532, Symbol: "USDC", Decimals: 6}
	usdtSepolia := TokenInfo{ChainId: 11155111, Symbol: "USDT", Decimals: 6}
	weth := TokenInfo{ChainId: 84532, Symbol: "WETH", Decimals: 18}

	cases := []struct {
		name         string
		from, to     TokenInfo
		bridge, swap bool
		stable       bool
		guidance     string
	}{
		{"same chain same token", usdcSepolia, usdcSepolia, false, false, true, "none"},
		{"bridge only", usdcSepolia, usdcBase, true, false, true, "bridge USDC only"},
		{"swap only", usdcSepolia, usdtSepolia, false, true, true, "swap USDC to USDT only"},
		{"bridge and swap", usdtSepolia, usdcBase, true, true, true, "bridge USDT then swap to USDC"},
		{"non stable", usdcSepolia, weth, true, true, false, "bridge USDC then swap to WETH"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := PlanRoute(c.from, c.to)
			require.Equal(t, c.bridge, p.NeedsBridge)
			require.Equal(t, c.swap, p.NeedsSwap)
			require.Equal(t, c.stable, p.StableEquivalent)
			require.Equal(t, c.guidance, p.Guidance())
		})
	}
}
