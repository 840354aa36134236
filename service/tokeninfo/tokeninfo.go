package tokeninfo

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/xerrors"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
	"github.com/x-xyz/keeper/domain/chain"
	"github.com/x-xyz/keeper/domain/token"
	"github.com/x-xyz/keeper/service/cache"
	"github.com/x-xyz/keeper/service/chain/contract"
)

type Service interface {
	token.Resolver
	// FormatAmount scales a raw amount by the token's decimals.
	FormatAmount(bCtx.Ctx, domain.ChainId, domain.Address, *big.Int) (decimal.Decimal, error)
	// Classify resolves every bid's token up front and keys bids by (symbol, decimals), so
	// the same token bridged to different chains is aggregated together. A token that
	// cannot be resolved falls back to auction.ByTokenAddress.
	Classify(bCtx.Ctx, []*auction.Bid) auction.TokenClassFunc
	// Reserve denominates a reserve price in the auction's preferred token. Without a
	// preference the unit is left to the earliest bid.
	Reserve(bCtx.Ctx, *auction.Auction, *big.Int) (auction.Price, error)
	// Plan resolves the route from what the winner paid to what the seller asked for.
	Plan(bCtx.Ctx, *auction.Auction, *auction.AggregatedBid) (token.RoutePlan, error)
}

type Config struct {
	Registry *chain.Registry
	// ERC20 and Cache are optional; without them only configured tokens resolve.
	ERC20 contract.ERC20Contract
	Cache cache.Service
}

type impl struct {
	registry *chain.Registry
	erc20    contract.ERC20Contract
	cache    cache.Service
}

func New(cfg *Config) Service {
	return &impl{
		registry: cfg.Registry,
		erc20:    cfg.ERC20,
		cache:    cfg.Cache,
	}
}

func (im *impl) Resolve(ctx bCtx.Ctx, chainId domain.ChainId, addr domain.Address) (*token.TokenInfo, error) {
	addr = addr.ToLower()
	chainCfg, err := im.registry.Lookup(chainId)
	if err != nil {
		ctx.WithFields(log.Fields{
			"chainId":   chainId,
			"available": im.registry.Keys(),
		}).Warn("unknown chain")
		return nil, err
	}
	if info, ok := chainCfg.Token(addr); ok {
		return &info, nil
	}

	if im.erc20 == nil {
		return nil, im.unknown(ctx, chainCfg, addr, nil)
	}

	info := &token.TokenInfo{}
	getter := func() (interface{}, error) {
		return im.fetch(ctx, chainCfg.Id, addr)
	}
	if im.cache == nil {
		resolved, err := getter()
		if err != nil {
			return nil, im.unknown(ctx, chainCfg, addr, err)
		}
		return resolved.(*token.TokenInfo), nil
	}
	if err := im.cache.GetByFunc(ctx, fmt.Sprintf("%d:%s", chainCfg.Id, addr), info, getter); err != nil {
		return nil, im.unknown(ctx, chainCfg, addr, err)
	}
	return info, nil
}

func (im *impl) fetch(ctx bCtx.Ctx, chainId domain.ChainId, addr domain.Address) (*token.TokenInfo, error) {
	symbol, err := im.erc20.Symbol(ctx, chainId, addr)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(symbol) == "" {
		return nil, domain.ErrUnknownToken
	}
	decimals, err := im.erc20.Decimals(ctx, chainId, addr)
	if err != nil {
		return nil, err
	}
	return &token.TokenInfo{
		ChainId:  chainId,
		Address:  addr,
		Symbol:   token.NormalizeSymbol(symbol),
		Decimals: decimals,
	}, nil
}

func (im *impl) unknown(ctx bCtx.Ctx, chainCfg *chain.ChainConfig, addr domain.Address, cause error) error {
	available := lo.Map(lo.Values(chainCfg.Tokens), func(t token.TokenInfo, _ int) string {
		return fmt.Sprintf("%s(%s)", t.Symbol, t.Address)
	})
	sort.Strings(available)
	ctx.WithFields(log.Fields{
		"chainId":   chainCfg.Id,
		"token":     addr,
		"available": available,
		"err":       cause,
	}).Warn("unknown token")
	return xerrors.Errorf("%w: %s on %s (available: %s)", domain.ErrUnknownToken, addr, chainCfg.DisplayName(), strings.Join(available, ", "))
}

func (im *impl) FormatAmount(ctx bCtx.Ctx, chainId domain.ChainId, addr domain.Address, value *big.Int) (decimal.Decimal, error) {
	info, err := im.Resolve(ctx, chainId, addr)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(value, -info.Decimals), nil
}

func (im *impl) Classify(ctx bCtx.Ctx, bids []*auction.Bid) auction.TokenClassFunc {
	classes := make(map[string]auction.TokenClass)
	for _, b := range bids {
		k := bidTokenKey(b)
		if _, ok := classes[k]; ok {
			continue
		}
		info, err := im.Resolve(ctx, b.ChainId, b.Token)
		if err != nil {
			ctx.WithFields(log.Fields{
				"chainId": b.ChainId,
				"token":   b.Token,
				"err":     err,
			}).Warn("bid token unresolved, it only compares with itself")
			classes[k] = auction.ByTokenAddress(b)
			continue
		}
		classes[k] = classOf(info)
	}
	return func(b *auction.Bid) auction.TokenClass {
		if c, ok := classes[bidTokenKey(b)]; ok {
			return c
		}
		return auction.ByTokenAddress(b)
	}
}

func (im *impl) Reserve(ctx bCtx.Ctx, a *auction.Auction, amount *big.Int) (auction.Price, error) {
	price := auction.Price{Amount: amount}
	if a.PreferredToken.IsZero() {
		return price, nil
	}
	chainId := a.PreferredChain
	if chainId == 0 {
		chainId = a.ChainId
	}
	info, err := im.Resolve(ctx, chainId, a.PreferredToken)
	if err != nil {
		return price, xerrors.Errorf("preferred token of %s: %w", a.IntentId, err)
	}
	price.Unit = info.Symbol
	price.Decimals = info.Decimals
	return price, nil
}

func classOf(info *token.TokenInfo) auction.TokenClass {
	return auction.TokenClass{
		Key:      fmt.Sprintf("%s/%d", info.Symbol, info.Decimals),
		Symbol:   info.Symbol,
		Unit:     info.Symbol,
		Decimals: info.Decimals,
	}
}

func (im *impl) Plan(ctx bCtx.Ctx, a *auction.Auction, winner *auction.AggregatedBid) (token.RoutePlan, error) {
	from, err := im.Resolve(ctx, winner.SourceChain, winner.Token)
	if err != nil {
		return token.RoutePlan{}, err
	}
	if a.PreferredToken.IsZero() {
		// no preference, whatever was paid is fine
		return token.PlanRoute(*from, *from), nil
	}
	preferredChain := a.PreferredChain
	if preferredChain == 0 {
		preferredChain = a.ChainId
	}
	to, err := im.Resolve(ctx, preferredChain, a.PreferredToken)
	if err != nil {
		return token.RoutePlan{}, err
	}
	return token.PlanRoute(*from, *to), nil
}

func bidTokenKey(b *auction.Bid) string {
	return fmt.Sprintf("%d:%s", b.ChainId, b.Token.ToLower())
}
