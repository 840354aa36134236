package contract

import (
	"github.com/ethereum/go-ethereum/common"

	bAbi "github.com/x-xyz/keeper/base/abi"
	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/service/chain"
)

type ERC20Contract interface {
	Symbol(ctx.Ctx, domain.ChainId, domain.Address) (string, error)
	Decimals(ctx.Ctx, domain.ChainId, domain.Address) (int32, error)
}

type erc20Contract struct {
	chainService chain.Client
}

func NewERC20(chainService chain.Client) ERC20Contract {
	return &erc20Contract{chainService: chainService}
}

func (c *erc20Contract) Symbol(ctx ctx.Ctx, chainId domain.ChainId, addr domain.Address) (string, error) {
	contract := common.HexToAddress(string(addr))
	res, err := c.chainService.Call(ctx, chainId, contract, nil, bAbi.ERC20ABI, bAbi.MethodSymbol)
	if err == nil && len(res) == 1 {
		if symbol, ok := res[0].(string); ok {
			return symbol, nil
		}
	}
	// retry as bytes32 for tokens predating the string return type
	res, err = c.chainService.Call(ctx, chainId, contract, nil, bAbi.ERC20Bytes32ABI, bAbi.MethodSymbol)
	if err != nil {
		return "", err
	}
	if len(res) != 1 {
		return "", domain.ErrUnknownToken
	}
	raw, ok := res[0].([32]byte)
	if !ok {
		return "", domain.ErrUnknownToken
	}
	return bAbi.Bytes32ToString(raw), nil
}

func (c *erc20Contract) Decimals(ctx ctx.Ctx, chainId domain.ChainId, addr domain.Address) (int32, error) {
	res, err := c.chainService.Call(ctx, chainId, common.HexToAddress(string(addr)), nil, bAbi.ERC20ABI, bAbi.MethodDecimals)
	if err != nil {
		return 0, err
	}
	if len(res) != 1 {
		return 0, domain.ErrUnknownToken
	}
	decimals, ok := res[0].(uint8)
	if !ok {
		return 0, domain.ErrUnknownToken
	}
	return int32(decimals), nil
}
