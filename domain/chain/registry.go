package chain

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/xerrors"

	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/token"
)

// ChainConfig is everything the keeper needs to reach one network.
type ChainConfig struct {
	Key        string                             `mapstructure:"-"`
	Id         domain.ChainId                     `mapstructure:"chainId" validate:"required,gt=0"`
	Name       string                             `mapstructure:"name"`
	RpcUrl     string                             `mapstructure:"rpcUrl" validate:"required,url"`
	WsUrl      string                             `mapstructure:"wsUrl" validate:"omitempty,url"`
	AuctionHub domain.Address                     `mapstructure:"auctionHub" validate:"required,eth_addr"`
	BidManager domain.Address                     `mapstructure:"bidManager" validate:"required,eth_addr"`
	Tokens     map[domain.Address]token.TokenInfo `mapstructure:"tokens" validate:"dive,keys,eth_addr,endkeys"`
}

func (c *ChainConfig) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Key
}

// Token returns the statically configured token at addr.
func (c *ChainConfig) Token(addr domain.Address) (token.TokenInfo, bool) {
	info, ok := c.Tokens[addr.ToLower()]
	return info, ok
}

// ChainKey is the canonical form of a chain reference: a numeric id or a lower-case name.
type ChainKey struct {
	Id   domain.ChainId
	Name string
}

func (k ChainKey) String() string {
	if k.Name != "" {
		return k.Name
	}
	return strconv.FormatInt(int64(k.Id), 10)
}

// NormalizeChainKey accepts the representations call sites use for a chain: integer ids of
// any width, *big.Int, numeric strings and configured names.
func NormalizeChainKey(key interface{}) (ChainKey, error) {
	switch v := key.(type) {
	case domain.ChainId:
		return ChainKey{Id: v}, nil
	case int:
		return ChainKey{Id: domain.ChainId(v)}, nil
	case int32:
		return ChainKey{Id: domain.ChainId(v)}, nil
	case int64:
		return ChainKey{Id: domain.ChainId(v)}, nil
	case uint32:
		return ChainKey{Id: domain.ChainId(v)}, nil
	case uint64:
		return ChainKey{Id: domain.ChainId(v)}, nil
	case *big.Int:
		if v == nil || !v.IsInt64() {
			return ChainKey{}, domain.ErrInvalidChainId
		}
		return ChainKey{Id: domain.ChainId(v.Int64())}, nil
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if s == "" {
			return ChainKey{}, domain.ErrInvalidChainId
		}
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			return ChainKey{Id: domain.ChainId(id)}, nil
		}
		return ChainKey{Name: s}, nil
	default:
		return ChainKey{}, xerrors.Errorf("%w: unsupported chain key type %T", domain.ErrInvalidChainId, key)
	}
}

// Registry is immutable after NewRegistry.
type Registry struct {
	byId   map[domain.ChainId]*ChainConfig
	byName map[string]*ChainConfig
}

func NewRegistry(configs map[string]ChainConfig) (*Registry, error) {
	r := &Registry{
		byId:   make(map[domain.ChainId]*ChainConfig),
		byName: make(map[string]*ChainConfig),
	}
	for key, c := range configs {
		cfg := c
		cfg.Key = strings.ToLower(key)
		if cfg.Id <= 0 || cfg.RpcUrl == "" || cfg.AuctionHub.IsZero() || cfg.BidManager.IsZero() {
			return nil, xerrors.Errorf("%w: chain %s needs chainId, rpcUrl, auctionHub and bidManager", domain.ErrInvalidConfig, key)
		}
		if _, ok := r.byId[cfg.Id]; ok {
			return nil, xerrors.Errorf("%w: chain id %d configured twice", domain.ErrInvalidConfig, cfg.Id)
		}
		cfg.AuctionHub = cfg.AuctionHub.ToLower()
		cfg.BidManager = cfg.BidManager.ToLower()
		tokens := make(map[domain.Address]token.TokenInfo, len(cfg.Tokens))
		for addr, info := range cfg.Tokens {
			info.ChainId = cfg.Id
			info.Address = addr.ToLower()
			info.Symbol = token.NormalizeSymbol(info.Symbol)
			tokens[info.Address] = info
		}
		cfg.Tokens = tokens

		r.byId[cfg.Id] = &cfg
		r.byName[cfg.Key] = &cfg
		if cfg.Name != "" {
			r.byName[strings.ToLower(cfg.Name)] = &cfg
		}
	}
	if len(r.byId) == 0 {
		return nil, xerrors.Errorf("%w: no chain configured", domain.ErrInvalidConfig)
	}
	return r, nil
}

// Lookup resolves key with NormalizeChainKey, so 11155111, "11155111" and "sepolia" all hit the same record.
func (r *Registry) Lookup(key interface{}) (*ChainConfig, error) {
	k, err := NormalizeChainKey(key)
	if err != nil {
		return nil, err
	}
	var cfg *ChainConfig
	if k.Name != "" {
		cfg = r.byName[k.Name]
	} else {
		cfg = r.byId[k.Id]
	}
	if cfg == nil {
		return nil, xerrors.Errorf("%w: %s (available: %s)", domain.ErrUnknownChain, k, strings.Join(r.Keys(), ", "))
	}
	return cfg, nil
}

// Keys lists configured chains as "key(id)", sorted, for logs and error messages.
func (r *Registry) Keys() []string {
	keys := lo.Map(r.All(), func(c *ChainConfig, _ int) string {
		return fmt.Sprintf("%s(%d)", c.Key, c.Id)
	})
	sort.Strings(keys)
	return keys
}

// All returns every chain ordered by id.
func (r *Registry) All() []*ChainConfig {
	all := lo.Values(r.byId)
	sort.Slice(all, func(i, j int) bool { return all[i].Id < all[j].Id })
	return all
}
