package tracker

import (
	"fmt"
	"math/big"
)

// maxBlockRange caps one eth_getLogs call, many providers reject wider ranges.
const maxBlockRange = 2000

// blockRange is an inclusive range of block numbers.
type blockRange struct {
	begin uint64
	end   uint64
}

func newBlockRange(begin, end uint64) blockRange {
	return blockRange{begin: begin, end: end}
}

func (r blockRange) single() bool {
	return r.begin >= r.end
}

// split halves r, the first half keeps the middle block.
func (r blockRange) split() (blockRange, blockRange) {
	mid := r.begin + (r.end-r.begin)/2
	return blockRange{r.begin, mid}, blockRange{mid + 1, r.end}
}

// chunks cuts r into consecutive ranges of at most size blocks.
func (r blockRange) chunks(size uint64) []blockRange {
	if size == 0 || r.begin > r.end {
		return []blockRange{r}
	}
	res := []blockRange{}
	for begin := r.begin; begin <= r.end; begin += size {
		end := begin + size - 1
		if end > r.end || end < begin {
			end = r.end
		}
		res = append(res, blockRange{begin, end})
		if end == r.end {
			break
		}
	}
	return res
}

func (r blockRange) from() *big.Int {
	return new(big.Int).SetUint64(r.begin)
}

func (r blockRange) to() *big.Int {
	return new(big.Int).SetUint64(r.end)
}

func (r blockRange) String() string {
	return fmt.Sprintf("[%d,%d]", r.begin, r.end)
}
