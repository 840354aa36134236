package abi

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Some older tokens return bytes32 from symbol(), so both shapes are kept.
var (
	ERC20ABI        abi.ABI
	ERC20Bytes32ABI abi.ABI
)

const erc20ABI = `[{"inputs":[],"name":"decimals","outputs":[{"type":"uint8"}],"stateMutability":"view","type":"function"},{"inputs":[],"name":"symbol","outputs":[{"type":"string"}],"stateMutability":"view","type":"function"}]`

const erc20Bytes32ABI = `[{"inputs":[],"name":"decimals","outputs":[{"type":"uint8"}],"stateMutability":"view","type":"function"},{"inputs":[],"name":"symbol","outputs":[{"type":"bytes32"}],"stateMutability":"view","type":"function"}]`

const (
	MethodSymbol   = "symbol"
	MethodDecimals = "decimals"
)

func init() {
	_abi, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		panic("Failed to parse erc20 abi")
	}
	ERC20ABI = _abi

	_abi, err = abi.JSON(strings.NewReader(erc20Bytes32ABI))
	if err != nil {
		panic("Failed to parse erc20 bytes32 abi")
	}
	ERC20Bytes32ABI = _abi
}

// Bytes32ToString trims the zero padding of a bytes32 symbol.
func Bytes32ToString(b [32]byte) string {
	return strings.TrimRight(string(b[:]), "\x00")
}
