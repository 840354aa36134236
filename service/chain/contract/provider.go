package contract

import (
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
	domainChain "github.com/x-xyz/keeper/domain/chain"
	"github.com/x-xyz/keeper/service/chain"
)

type provider struct {
	chainService chain.Client
	registry     *domainChain.Registry
}

// NewProvider binds contracts at the addresses the registry configures for each chain.
func NewProvider(chainService chain.Client, registry *domainChain.Registry) auction.ContractProvider {
	return &provider{chainService: chainService, registry: registry}
}

func (p *provider) AuctionHub(chainId domain.ChainId) (auction.AuctionHub, error) {
	cfg, err := p.registry.Lookup(chainId)
	if err != nil {
		return nil, err
	}
	return NewAuctionHub(p.chainService, cfg.Id, cfg.AuctionHub), nil
}

func (p *provider) BidManager(chainId domain.ChainId) (auction.BidManager, error) {
	cfg, err := p.registry.Lookup(chainId)
	if err != nil {
		return nil, err
	}
	return NewBidManager(p.chainService, cfg.Id, cfg.BidManager), nil
}
