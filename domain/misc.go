package domain

import (
	"math/big"
	"strings"
)

var (
	Big0  = big.NewInt(0)
	Big1  = big.NewInt(1)
	Big10 = big.NewInt(10)
)

type ChainId int64

type Address string

const EmptyAddress = Address("0x0000000000000000000000000000000000000000")

// NormalizeAddress is applied at every boundary before an address is stored, compared or used as a key.
func NormalizeAddress(s string) Address {
	return Address(strings.ToLower(strings.TrimSpace(s)))
}

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0
}

// IsZero reports whether a is empty or the zero address.
func (a Address) IsZero() bool {
	return a.IsEmpty() || a.Equals(EmptyAddress)
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

type BlockNumber uint64

type TxHash string

func (h TxHash) ToLower() TxHash {
	return TxHash(strings.ToLower(string(h)))
}

type BlockHash string

// IntentId is the 32-byte auction id, kept as lower-case 0x-prefixed hex.
type IntentId string

func (i IntentId) ToLower() IntentId {
	return IntentId(strings.ToLower(string(i)))
}

func (i IntentId) String() string {
	return string(i)
}

func ToBigInt(nums []string) ([]*big.Int, error) {
	var bns []*big.Int
	for _, n := range nums {
		bn, ok := new(big.Int).SetString(n, 10)
		if !ok {
			return nil, ErrInvalidNumberFormat
		}
		bns = append(bns, bn)
	}
	return bns, nil
}
