package token

import (
	"strings"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
)

// TokenInfo describes an ERC20 settlement token on one chain.
type TokenInfo struct {
	ChainId  domain.ChainId `json:"chainId" mapstructure:"-"`
	Address  domain.Address `json:"address" mapstructure:"-"`
	Symbol   string         `json:"symbol" mapstructure:"symbol" validate:"required"`
	Decimals int32          `json:"decimals" mapstructure:"decimals"`
}

// stableSymbols are treated as interchangeable when classifying settlement routes.
var stableSymbols = map[string]struct{}{
	"USDC":   {},
	"USDT":   {},
	"DAI":    {},
	"USDC.E": {},
	"USDBC":  {},
	"PYUSD":  {},
}

func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func IsStable(symbol string) bool {
	_, ok := stableSymbols[NormalizeSymbol(symbol)]
	return ok
}

func (t TokenInfo) IsStable() bool {
	return IsStable(t.Symbol)
}

// Resolver turns a token address on a chain into its symbol and decimals.
type Resolver interface {
	Resolve(ctx.Ctx, domain.ChainId, domain.Address) (*TokenInfo, error)
}
