package tokeninfo

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
	"github.com/x-xyz/keeper/domain/chain"
	"github.com/x-xyz/keeper/domain/token"
	"github.com/x-xyz/keeper/service/cache"
	"github.com/x-xyz/keeper/service/cache/provider/primitive"
	"github.com/x-xyz/keeper/service/chain/contract/mocks"
)

const (
	usdcSepolia = domain.Address("0x00000000000000000000000000000000000000a1")
	usdcBase    = domain.Address("0x00000000000000000000000000000000000000b1")
	daiBase     = domain.Address("0x00000000000000000000000000000000000000b2")
	unlisted    = domain.Address("0x00000000000000000000000000000000000000ff")
)

var mockCtx = ctx.Background()

type testsuite struct {
	suite.Suite
	registry *chain.Registry
	erc20    *mocks.ERC20Contract
	im       Service
}

func (ts *testsuite) SetupTest() {
	registry, err := chain.NewRegistry(map[string]chain.ChainConfig{
		"sepolia": {
			Id:         11155111,
			RpcUrl:     "http://localhost:8545",
			AuctionHub: "0x0000000000000000000000000000000000000001",
			BidManager: "0x0000000000000000000000000000000000000002",
			Tokens: map[domain.Address]token.TokenInfo{
				usdcSepolia: {Symbol: "usdc", Decimals: 6},
			},
		},
		"base": {
			Id:         84532,
			RpcUrl:     "http://localhost:8546",
			AuctionHub: "0x0000000000000000000000000000000000000003",
			BidManager: "0x0000000000000000000000000000000000000004",
			Tokens: map[domain.Address]token.TokenInfo{
				usdcBase: {Symbol: "USDC", Decimals: 6},
				daiBase:  {Symbol: "DAI", Decimals: 18},
			},
		},
	})
	ts.Require().NoError(err)
	ts.registry = registry
	ts.erc20 = mocks.NewERC20Contract(ts.T())
	ts.im = New(&Config{
		Registry: registry,
		ERC20:    ts.erc20,
		Cache: cache.New(cache.Config{
			TTL:      time.Hour,
			Prefix:   "tokenInfo",
			Provider: primitive.NewPrimitive("tokenInfo", 1),
		}),
	})
}

func Test(t *testing.T) {
	suite.Run(t, new(testsuite))
}

func (ts *testsuite) TestResolveConfigured() {
	info, err := ts.im.Resolve(mockCtx, 11155111, "0x00000000000000000000000000000000000000A1")
	ts.NoError(err)
	ts.Equal("USDC", info.Symbol)
	ts.Equal(int32(6), info.Decimals)
	ts.Equal(domain.ChainId(11155111), info.ChainId)
}

func (ts *testsuite) TestResolveOnChainIsCached() {
	ts.erc20.On("Symbol", mock.Anything, domain.ChainId(84532), unlisted).Return("weth", nil).Once()
	ts.erc20.On("Decimals", mock.Anything, domain.ChainId(84532), unlisted).Return(int32(18), nil).Once()

	for i := 0; i < 2; i++ {
		info, err := ts.im.Resolve(mockCtx, 84532, unlisted)
		ts.NoError(err)
		ts.Equal("WETH", info.Symbol)
		ts.Equal(int32(18), info.Decimals)
	}
}

func (ts *testsuite) TestResolveUnknown() {
	ts.erc20.On("Symbol", mock.Anything, domain.ChainId(84532), unlisted).Return("", errors.New("execution reverted")).Once()

	_, err := ts.im.Resolve(mockCtx, 84532, unlisted)
	ts.ErrorIs(err, domain.ErrUnknownToken)
	ts.Contains(err.Error(), "DAI(")

	_, err = ts.im.Resolve(mockCtx, 1, usdcBase)
	ts.ErrorIs(err, domain.ErrUnknownChain)
}

func (ts *testsuite) TestFormatAmount() {
	amount, err := ts.im.FormatAmount(mockCtx, 84532, usdcBase, big.NewInt(1_500_000))
	ts.NoError(err)
	ts.Equal("1.5", amount.String())
}

func (ts *testsuite) TestClassifyMergesBridgedToken() {
	bidder := domain.Address("0x00000000000000000000000000000000000000c1")
	bids := []*auction.Bid{
		{TxHash: "0x1", Bidder: bidder, Amount: "60", Token: usdcSepolia, ChainId: 11155111, Timestamp: time.Unix(10, 0)},
		{TxHash: "0x2", Bidder: bidder, Amount: "50", Token: usdcBase, ChainId: 84532, Timestamp: time.Unix(20, 0)},
		{TxHash: "0x3", Bidder: bidder, Amount: "7", Token: daiBase, ChainId: 84532, Timestamp: time.Unix(30, 0)},
	}
	aggs, err := auction.AggregateBids(bids, ts.im.Classify(mockCtx, bids))
	ts.NoError(err)
	ts.Len(aggs, 2)
	ts.Equal("USDC/6", aggs[0].TokenKey)
	ts.Equal("USDC", aggs[0].Symbol)
	ts.Equal("USDC", aggs[0].Unit)
	ts.Equal("110", aggs[0].TotalAmount.String())
	ts.Equal(domain.ChainId(84532), aggs[0].SourceChain)
	ts.Equal("DAI/18", aggs[1].TokenKey)
	ts.Equal(int32(18), aggs[1].Decimals)
}

func (ts *testsuite) TestClassifySeparatesDecimals() {
	// the same symbol deployed with 18 decimals
	ts.erc20.On("Symbol", mock.Anything, domain.ChainId(11155111), unlisted).Return("USDC", nil).Once()
	ts.erc20.On("Decimals", mock.Anything, domain.ChainId(11155111), unlisted).Return(int32(18), nil).Once()

	bidder := domain.Address("0x00000000000000000000000000000000000000c1")
	bids := []*auction.Bid{
		{TxHash: "0x1", Bidder: bidder, Amount: "1000000000", Token: usdcSepolia, ChainId: 11155111, Timestamp: time.Unix(10, 0)},
		{TxHash: "0x2", Bidder: bidder, Amount: "1000000000000", Token: unlisted, ChainId: 11155111, Timestamp: time.Unix(20, 0)},
	}
	aggs, err := auction.AggregateBids(bids, ts.im.Classify(mockCtx, bids))
	ts.NoError(err)
	ts.Require().Len(aggs, 2)
	ts.Equal("USDC/6", aggs[0].TokenKey)
	ts.Equal("USDC/18", aggs[1].TokenKey)
	ts.Equal(aggs[0].Unit, aggs[1].Unit)
	ts.Equal(1, aggs[0].Cmp(aggs[1]))
}

func (ts *testsuite) TestClassifyFallsBackToAddress() {
	ts.erc20.On("Symbol", mock.Anything, domain.ChainId(84532), unlisted).Return("", errors.New("execution reverted")).Once()

	bids := []*auction.Bid{
		{TxHash: "0x1", Bidder: "0xc1", Amount: "5", Token: unlisted, ChainId: 84532},
		{TxHash: "0x2", Bidder: "0xc2", Amount: "9", Token: usdcBase, ChainId: 84532},
	}
	classify := ts.im.Classify(mockCtx, bids)
	ts.Equal(auction.ByTokenAddress(bids[0]), classify(bids[0]))
	ts.Equal("USDC", classify(bids[1]).Unit)
}

func (ts *testsuite) TestReserve() {
	a := &auction.Auction{ChainId: 11155111, PreferredToken: daiBase, PreferredChain: 84532}
	p, err := ts.im.Reserve(mockCtx, a, big.NewInt(100))
	ts.NoError(err)
	ts.Equal(auction.Price{Amount: big.NewInt(100), Unit: "DAI", Decimals: 18}, p)

	// preferred chain defaults to the auction's chain
	a = &auction.Auction{ChainId: 11155111, PreferredToken: usdcSepolia}
	p, err = ts.im.Reserve(mockCtx, a, big.NewInt(100))
	ts.NoError(err)
	ts.Equal(int32(6), p.Decimals)

	a = &auction.Auction{ChainId: 11155111}
	p, err = ts.im.Reserve(mockCtx, a, big.NewInt(100))
	ts.NoError(err)
	ts.Equal(auction.Price{Amount: big.NewInt(100)}, p)
}

func (ts *testsuite) TestReserveUnknownPreferredToken() {
	ts.erc20.On("Symbol", mock.Anything, domain.ChainId(84532), unlisted).Return("", errors.New("execution reverted")).Once()

	a := &auction.Auction{IntentId: "0x01", ChainId: 11155111, PreferredToken: unlisted, PreferredChain: 84532}
	_, err := ts.im.Reserve(mockCtx, a, big.NewInt(100))
	ts.ErrorIs(err, domain.ErrUnknownToken)
}

func (ts *testsuite) TestPlan() {
	a := &auction.Auction{ChainId: 11155111, PreferredToken: daiBase, PreferredChain: 84532}
	winner := &auction.AggregatedBid{Token: usdcSepolia, SourceChain: 11155111}

	plan, err := ts.im.Plan(mockCtx, a, winner)
	ts.NoError(err)
	ts.True(plan.NeedsBridge)
	ts.True(plan.NeedsSwap)
	ts.True(plan.StableEquivalent)
	ts.Equal("bridge USDC then swap to DAI", plan.Guidance())

	a.PreferredToken = ""
	plan, err = ts.im.Plan(mockCtx, a, winner)
	ts.NoError(err)
	ts.True(plan.Direct())
}
