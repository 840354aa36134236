package keeper

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/xerrors"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/metrics"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
	"github.com/x-xyz/keeper/domain/auction/mocks"
	"github.com/x-xyz/keeper/domain/chain"
	"github.com/x-xyz/keeper/domain/token"
	"github.com/x-xyz/keeper/service/notify"
	"github.com/x-xyz/keeper/service/tokeninfo"
	"github.com/x-xyz/keeper/stores/auction/repository/inmem"
	"github.com/x-xyz/keeper/stores/auction/usecase"
)

const (
	sepolia = domain.ChainId(11155111)
	base    = domain.ChainId(84532)

	intentId = domain.IntentId("0x00000000000000000000000000000000000000000000000000000000000000a1")
	seller   = domain.Address("0x5e11e40000000000000000000000000000000001")
	alice    = domain.Address("0xa11ce00000000000000000000000000000000001")
	bob      = domain.Address("0xb0b0000000000000000000000000000000000001")
	usdcSep  = domain.Address("0x1c7d4b196cb0c7b01d743fbc6116a902379c7238")
	usdcBase = domain.Address("0x036cbd53842c5426634e7929541ec2318f3dcf7e")
	weth     = domain.Address("0x7b79995e5f793a07bc00c21412e50ecae098e7f9")
	// a USDC deployment with 18 decimals
	usdcWide = domain.Address("0x0000000000000000000000000000000000001800")
)

type fakeTx struct {
	hash domain.TxHash
	err  error
}

func (t *fakeTx) Hash() domain.TxHash   { return t.hash }
func (t *fakeTx) Wait(bCtx.Ctx) error { return t.err }

// fakeChain plays the auction hub and bid managers of every chain. Like the real
// contracts it rejects a step that was already performed.
type fakeChain struct {
	mu       sync.Mutex
	auctions map[domain.IntentId]*auction.OnChainAuction
	done     map[string]bool
	calls    []string
	nonce    int

	finalizeErr error
	releaseErr  error
	nftErr      error
	refundErr   map[string]error
	readErr     error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		auctions:  make(map[domain.IntentId]*auction.OnChainAuction),
		done:      make(map[string]bool),
		refundErr: make(map[string]error),
	}
}

func (f *fakeChain) AuctionHub(id domain.ChainId) (auction.AuctionHub, error) {
	if id != sepolia && id != base {
		return nil, domain.ErrUnknownChain
	}
	return &fakeHub{f}, nil
}

func (f *fakeChain) BidManager(id domain.ChainId) (auction.BidManager, error) {
	if id != sepolia && id != base {
		return nil, domain.ErrUnknownChain
	}
	return &fakeBidManager{f, id}, nil
}

func (f *fakeChain) tx(call string, err error) (auction.PendingTx, error) {
	f.calls = append(f.calls, call)
	if err != nil {
		return nil, err
	}
	f.nonce++
	return &fakeTx{hash: domain.TxHash(fmt.Sprintf("0x%064x", f.nonce))}, nil
}

func (f *fakeChain) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeChain) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeHub struct{ f *fakeChain }

func (h *fakeHub) Auctions(_ bCtx.Ctx, id domain.IntentId) (*auction.OnChainAuction, error) {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()
	if h.f.readErr != nil {
		return nil, h.f.readErr
	}
	a, ok := h.f.auctions[id]
	if !ok {
		return &auction.OnChainAuction{Seller: domain.EmptyAddress}, nil
	}
	c := *a
	return &c, nil
}

func (h *fakeHub) FinalizeAuction(_ bCtx.Ctx, id domain.IntentId, winner domain.Address, amount *big.Int) (auction.PendingTx, error) {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()
	call := fmt.Sprintf("finalize:%s:%s", winner, amount)
	if h.f.finalizeErr != nil {
		return h.f.tx(call, h.f.finalizeErr)
	}
	a := h.f.auctions[id]
	if a.Status != auction.StatusActive {
		return h.f.tx(call, xerrors.Errorf("%w: already finalized", domain.ErrAlreadyDone))
	}
	a.Status = auction.StatusFinalized
	return h.f.tx(call, nil)
}

func (h *fakeHub) NFTRelease(_ bCtx.Ctx, id domain.IntentId) (auction.PendingTx, error) {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()
	if h.f.nftErr != nil {
		return h.f.tx("nft", h.f.nftErr)
	}
	if h.f.done["nft"] {
		return h.f.tx("nft", domain.ErrAlreadyDone)
	}
	h.f.done["nft"] = true
	h.f.auctions[id].Status = auction.StatusSettled
	return h.f.tx("nft", nil)
}

type fakeBidManager struct {
	f       *fakeChain
	chainId domain.ChainId
}

func (b *fakeBidManager) ReleaseWinningBid(_ bCtx.Ctx, _ domain.IntentId, winner, to domain.Address) (auction.PendingTx, error) {
	b.f.mu.Lock()
	defer b.f.mu.Unlock()
	call := fmt.Sprintf("release:%d", b.chainId)
	if b.f.releaseErr != nil {
		return b.f.tx(call, b.f.releaseErr)
	}
	if b.f.done[call] {
		return b.f.tx(call, domain.ErrAlreadyDone)
	}
	b.f.done[call] = true
	return b.f.tx(call, nil)
}

func (b *fakeBidManager) RefundBid(_ bCtx.Ctx, _ domain.IntentId, bidder domain.Address) (auction.PendingTx, error) {
	b.f.mu.Lock()
	defer b.f.mu.Unlock()
	call := fmt.Sprintf("refund:%s:%d", bidder, b.chainId)
	if err := b.f.refundErr[call]; err != nil {
		return b.f.tx(call, err)
	}
	if b.f.done[call] {
		return b.f.tx(call, domain.ErrAlreadyDone)
	}
	b.f.done[call] = true
	return b.f.tx(call, nil)
}

type KeeperTestSuite struct {
	suite.Suite

	ctx       bCtx.Ctx
	chain     *fakeChain
	registry  *chain.Registry
	auctionUC auction.UseCase
	lock      *ProcessingLock
	settler   *Settler
	keeper    *Keeper
	counts    *metrics.LogClient
	bidSeq    int
}

func (s *KeeperTestSuite) SetupTest() {
	s.ctx = bCtx.Background()
	s.chain = newFakeChain()
	registry, err := chain.NewRegistry(map[string]chain.ChainConfig{
		"sepolia": {
			Id:         sepolia,
			RpcUrl:     "https://rpc.sepolia.example",
			AuctionHub: "0xaaaa000000000000000000000000000000000001",
			BidManager: "0xbbbb000000000000000000000000000000000001",
			Tokens: map[domain.Address]token.TokenInfo{
				usdcSep: {Symbol: "USDC", Decimals: 6},
				weth:    {Symbol: "WETH", Decimals: 18},
			},
		},
		"baseSepolia": {
			Id:         base,
			RpcUrl:     "https://rpc.base.example",
			AuctionHub: "0xaaaa000000000000000000000000000000000002",
			BidManager: "0xbbbb000000000000000000000000000000000002",
			Tokens: map[domain.Address]token.TokenInfo{
				usdcBase: {Symbol: "USDC", Decimals: 6},
				usdcWide: {Symbol: "USDC", Decimals: 18},
			},
		},
	})
	s.Require().NoError(err)
	s.registry = registry
	s.auctionUC = usecase.NewAuctionUseCase(inmem.NewAuctionRepo(), time.Second)
	s.lock = NewProcessingLock()
	tokens := tokeninfo.New(&tokeninfo.Config{Registry: registry})
	met, counts := metrics.NewLogged("")
	s.counts = counts
	s.settler = NewSettler(&SettlerCfg{
		Registry:       registry,
		Contracts:      s.chain,
		AuctionUseCase: s.auctionUC,
		Tokens:         tokens,
		Notifier:       notify.Noop(),
		Metrics:        met,
		RefundWorkers:  2,
	})
	k, err := New(&Config{
		Registry:       registry,
		Contracts:      s.chain,
		AuctionUseCase: s.auctionUC,
		Tokens:         tokens,
		Settler:        s.settler,
		Lock:           s.lock,
		Metrics:        met,
	})
	s.Require().NoError(err)
	k.timeNow = func() time.Time { return time.Unix(2000, 0) }
	s.keeper = k
	s.bidSeq = 0
}

func (s *KeeperTestSuite) addAuction(deadline int64, reserve int64) {
	_, err := s.auctionUC.AddAuction(s.ctx, &auction.Auction{
		IntentId:       intentId,
		ChainId:        sepolia,
		Seller:         seller,
		ReservePrice:   fmt.Sprint(reserve),
		Deadline:       deadline,
		PreferredToken: usdcBase,
		PreferredChain: base,
		Status:         auction.StatusActive,
		TxHash:         "0xcreate",
	})
	s.Require().NoError(err)
	s.chain.auctions[intentId] = &auction.OnChainAuction{
		Seller:         seller,
		ReservePrice:   big.NewInt(reserve),
		Deadline:       deadline,
		PreferredToken: usdcBase,
		PreferredChain: base,
		Status:         auction.StatusActive,
	}
}

func (s *KeeperTestSuite) addBid(bidder domain.Address, chainId domain.ChainId, tokenAddr domain.Address, amount int64) {
	s.addBidAmount(bidder, chainId, tokenAddr, fmt.Sprint(amount))
}

func (s *KeeperTestSuite) addBidAmount(bidder domain.Address, chainId domain.ChainId, tokenAddr domain.Address, amount string) {
	s.bidSeq++
	_, err := s.auctionUC.AddBid(s.ctx, &auction.Bid{
		TxHash:    domain.TxHash(fmt.Sprintf("0xbid%d", s.bidSeq)),
		IntentId:  intentId,
		Bidder:    bidder,
		Amount:    amount,
		Token:     tokenAddr,
		ChainId:   chainId,
		Timestamp: time.Unix(int64(1000+s.bidSeq), 0),
	})
	s.Require().NoError(err)
}

func (s *KeeperTestSuite) stored() *auction.Auction {
	a, err := s.auctionUC.GetAuction(s.ctx, intentId)
	s.Require().NoError(err)
	return a
}

func (s *KeeperTestSuite) runOnce() Report {
	report, err := s.keeper.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Zero(s.lock.Len(), "lock must be released after every attempt")
	return report
}

func (s *KeeperTestSuite) TestSettlesCrossChainAuction() {
	s.addAuction(1500, 100)
	s.addBid(alice, sepolia, usdcSep, 60)
	s.addBid(bob, sepolia, usdcSep, 120)
	s.addBid(alice, base, usdcBase, 70)

	report := s.runOnce()
	s.Equal(1, report[OutcomeSettled])

	s.Equal(1, s.chain.callCount(fmt.Sprintf("finalize:%s:130", alice)))
	s.Equal(1, s.chain.callCount(fmt.Sprintf("release:%d", sepolia)))
	s.Equal(1, s.chain.callCount(fmt.Sprintf("release:%d", base)))
	s.Equal(1, s.chain.callCount(fmt.Sprintf("refund:%s:%d", bob, sepolia)))
	s.Equal(0, s.chain.callCount(fmt.Sprintf("refund:%s:%d", alice, sepolia)))
	s.Equal(1, s.chain.callCount("nft"))

	a := s.stored()
	s.Equal(auction.StatusSettled, a.Status)
	s.Equal(alice, a.Winner)
	s.Equal("130", a.WinningAmount)
	s.NotEmpty(a.FinalizeTxHash)
	s.NotNil(a.SettledAt)
	s.True(a.Settlement.Done(auction.ReleaseStep(sepolia)))
	s.True(a.Settlement.Done(auction.ReleaseStep(base)))
	s.True(a.Settlement.Done(auction.RefundStep(bob, sepolia)))
	s.True(a.Settlement.Done(auction.StepNftRelease))
	s.Empty(a.Settlement.FailedRefunds)
	s.Equal(int64(1), s.counts.Counted("keeper.auction", "outcome:settled"))

	calls := s.chain.totalCalls()
	report = s.runOnce()
	s.Empty(report)
	s.Equal(calls, s.chain.totalCalls(), "settled auctions are not touched again")
}

func (s *KeeperTestSuite) TestResumesAfterPartialSettlement() {
	s.addAuction(1500, 100)
	s.addBid(alice, sepolia, usdcSep, 150)
	s.addBid(bob, base, usdcBase, 110)
	s.chain.nftErr = errors.New("nonce too low")

	report := s.runOnce()
	s.Equal(1, report[OutcomeSettleFailed])
	a := s.stored()
	s.Equal(auction.StatusFinalized, a.Status)
	s.True(a.Settlement.Done(auction.ReleaseStep(sepolia)))
	s.True(a.Settlement.Done(auction.RefundStep(bob, base)))
	s.False(a.Settlement.Done(auction.StepNftRelease))

	s.chain.nftErr = nil
	report = s.runOnce()
	s.Equal(1, report[OutcomeSettled])
	s.Equal(1, s.chain.callCount(fmt.Sprintf("finalize:%s:150", alice)))
	s.Equal(1, s.chain.callCount(fmt.Sprintf("release:%d", sepolia)), "recorded steps are skipped")
	s.Equal(1, s.chain.callCount(fmt.Sprintf("refund:%s:%d", bob, base)))
	s.Equal(2, s.chain.callCount("nft"))
	s.Equal(auction.StatusSettled, s.stored().Status)
}

func (s *KeeperTestSuite) TestAlreadyDoneOnChainCountsAsDone() {
	s.addAuction(1500, 100)
	s.addBid(alice, sepolia, usdcSep, 150)
	// released by an attempt whose confirmation never got recorded
	s.chain.done[fmt.Sprintf("release:%d", sepolia)] = true

	report := s.runOnce()
	s.Equal(1, report[OutcomeSettled])
	s.True(s.stored().Settlement.Done(auction.ReleaseStep(sepolia)))
}

func (s *KeeperTestSuite) TestNoBidsLeavesAuctionUntouched() {
	s.addAuction(1500, 100)

	report := s.runOnce()
	s.Equal(1, report[OutcomeNoBids])
	s.Zero(s.chain.totalCalls())
	s.Equal(auction.StatusActive, s.stored().Status)
}

func (s *KeeperTestSuite) TestReserveNotMet() {
	s.addAuction(1500, 100)
	s.addBid(alice, sepolia, usdcSep, 40)
	s.addBid(bob, sepolia, usdcSep, 99)

	report := s.runOnce()
	s.Equal(1, report[OutcomeNoWinner])
	s.Zero(s.chain.totalCalls())
	s.Equal(auction.StatusActive, s.stored().Status)
}

func (s *KeeperTestSuite) TestNotEnded() {
	s.addAuction(2500, 100)
	s.addBid(alice, sepolia, usdcSep, 150)

	report := s.runOnce()
	s.Equal(1, report[OutcomeNotEnded])
	s.Zero(s.chain.totalCalls())
}

func (s *KeeperTestSuite) TestNotOnChainYet() {
	s.addAuction(1500, 100)
	delete(s.chain.auctions, intentId)

	report := s.runOnce()
	s.Equal(1, report[OutcomeNotOnChain])
}

func (s *KeeperTestSuite) TestChainReadFailure() {
	s.addAuction(1500, 100)
	s.chain.readErr = errors.New("connection refused")

	report := s.runOnce()
	s.Equal(1, report[OutcomeChainReadFailed])
	s.Equal(auction.StatusActive, s.stored().Status)
}

func (s *KeeperTestSuite) TestPrematureFinalizeRetriesLater() {
	s.addAuction(1500, 100)
	s.addBid(alice, sepolia, usdcSep, 150)
	s.chain.finalizeErr = xerrors.Errorf("%w: execution reverted: auction not ended", domain.ErrPrematureFinalize)

	report := s.runOnce()
	s.Equal(1, report[OutcomePremature])
	a := s.stored()
	s.Equal(auction.StatusActive, a.Status)
	s.Empty(a.Winner)

	s.chain.finalizeErr = nil
	report = s.runOnce()
	s.Equal(1, report[OutcomeSettled])
}

func (s *KeeperTestSuite) TestFinalizeFailureKeepsStatus() {
	s.addAuction(1500, 100)
	s.addBid(alice, sepolia, usdcSep, 150)
	s.chain.finalizeErr = errors.New("insufficient funds for gas")

	report := s.runOnce()
	s.Equal(1, report[OutcomeFinalizeFailed])
	s.Equal(auction.StatusActive, s.stored().Status)
	s.Zero(s.chain.callCount("nft"))
}

func (s *KeeperTestSuite) TestReconcilesCancelledOnChain() {
	s.addAuction(2500, 100)
	s.chain.auctions[intentId].Status = auction.StatusCancelled

	report := s.runOnce()
	s.Equal(1, report[OutcomeReconciled])
	s.Equal(auction.StatusCancelled, s.stored().Status)

	report = s.runOnce()
	s.Empty(report)
}

func (s *KeeperTestSuite) TestLockedAuctionIsSkipped() {
	s.addAuction(1500, 100)
	s.addBid(alice, sepolia, usdcSep, 150)
	s.True(s.lock.TryAcquire(intentId))

	report, err := s.keeper.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report[OutcomeLocked])
	s.Zero(s.chain.totalCalls())
	s.True(s.lock.IsLocked(intentId), "a skipped attempt must not release someone else's lock")
	s.lock.Release(intentId)
}

func (s *KeeperTestSuite) TestUnknownTokenDoesNotBlockSettlement() {
	stray := domain.Address("0x000000000000000000000000000000000000dead")
	s.addAuction(1500, 100)
	s.addBid(alice, sepolia, usdcSep, 150)
	s.addBid(bob, sepolia, stray, 500)

	report := s.runOnce()
	s.Equal(1, report[OutcomeSettled])
	s.Equal(1, s.chain.callCount(fmt.Sprintf("finalize:%s:150", alice)))
	s.Equal(1, s.chain.callCount(fmt.Sprintf("refund:%s:%d", bob, sepolia)))
}

func (s *KeeperTestSuite) TestUnknownTokenAloneHasNoWinner() {
	s.addAuction(1500, 100)
	s.addBid(alice, sepolia, "0x000000000000000000000000000000000000dead", 150)

	report := s.runOnce()
	s.Equal(1, report[OutcomeNoWinner])
	s.Zero(s.chain.totalCalls())
}

func (s *KeeperTestSuite) TestUnknownPreferredTokenSkipsAuction() {
	s.addAuction(1500, 100)
	s.chain.auctions[intentId].PreferredToken = "0x000000000000000000000000000000000000dead"
	s.addBid(alice, sepolia, usdcSep, 150)

	report := s.runOnce()
	s.Equal(1, report[OutcomeUnknownToken])
	s.Zero(s.chain.totalCalls())
}

func (s *KeeperTestSuite) TestComparesAcrossDecimals() {
	// reserve 100 USDC in the preferred 6 decimal token
	s.addAuction(1500, 100_000_000)
	// 1000 USDC
	s.addBid(alice, sepolia, usdcSep, 1_000_000_000)
	// 0.000001 USDC, larger only as a raw number
	s.addBid(bob, base, usdcWide, 1_000_000_000_000)

	report := s.runOnce()
	s.Equal(1, report[OutcomeSettled])
	s.Equal(1, s.chain.callCount(fmt.Sprintf("finalize:%s:1000000000", alice)))
	s.Equal(1, s.chain.callCount(fmt.Sprintf("refund:%s:%d", bob, base)))
	s.Equal(alice, s.stored().Winner)
}

func (s *KeeperTestSuite) TestDecimalsAreNotSummed() {
	s.addAuction(1500, 100_000_000)
	// 60 USDC at 6 decimals plus 50 USDC at 18 decimals on base
	s.addBid(alice, sepolia, usdcSep, 60_000_000)
	s.addBidAmount(alice, base, usdcWide, "50000000000000000000")
	s.addBid(bob, sepolia, usdcSep, 90_000_000)

	report := s.runOnce()
	s.Equal(1, report[OutcomeNoWinner], "no single aggregate reaches 100 USDC")
	s.Zero(s.chain.totalCalls())
}

func (s *KeeperTestSuite) TestRefundFailureDoesNotBlockSettlement() {
	s.addAuction(1500, 100)
	s.addBid(alice, sepolia, usdcSep, 150)
	s.addBid(bob, sepolia, usdcSep, 120)
	s.addBid(bob, base, usdcBase, 10)
	bobSepolia := fmt.Sprintf("refund:%s:%d", bob, sepolia)
	s.chain.refundErr[bobSepolia] = errors.New("execution reverted: paused")

	report := s.runOnce()
	s.Equal(1, report[OutcomeSettled])
	a := s.stored()
	s.Equal(auction.StatusSettled, a.Status)
	s.True(a.Settlement.Done(auction.RefundStep(bob, base)))
	s.Require().Len(a.Settlement.FailedRefunds, 1)
	s.Equal(bob, a.Settlement.FailedRefunds[0].Bidder)
	s.Equal(sepolia, a.Settlement.FailedRefunds[0].ChainId)
	s.Equal("120", a.Settlement.FailedRefunds[0].Amount)

	remaining, err := s.settler.RetryRefunds(s.ctx, intentId)
	s.Require().NoError(err)
	s.Equal(1, remaining)
	s.Len(s.stored().Settlement.FailedRefunds, 1)

	delete(s.chain.refundErr, bobSepolia)
	remaining, err = s.settler.RetryRefunds(s.ctx, intentId)
	s.Require().NoError(err)
	s.Zero(remaining)
	a = s.stored()
	s.Empty(a.Settlement.FailedRefunds)
	s.True(a.Settlement.Done(auction.RefundStep(bob, sepolia)))
}

func (s *KeeperTestSuite) TestRetryRefundsRequiresSettled() {
	s.addAuction(1500, 100)
	_, err := s.settler.RetryRefunds(s.ctx, intentId)
	s.ErrorIs(err, domain.ErrBadParamInput)
}

func (s *KeeperTestSuite) TestMixedTokensAggregateSeparately() {
	s.addAuction(1500, 100)
	s.addBid(alice, sepolia, usdcSep, 80)
	s.addBid(alice, sepolia, weth, 80)
	s.addBid(bob, sepolia, usdcSep, 90)

	report := s.runOnce()
	s.Equal(1, report[OutcomeNoWinner], "80 USDC plus 80 WETH is not 160 of anything")
}

func TestKeeperTestSuite(t *testing.T) {
	suite.Run(t, new(KeeperTestSuite))
}

func TestSettleFailsOnUnknownWinnerChain(t *testing.T) {
	ctx := bCtx.Background()
	registry, err := chain.NewRegistry(map[string]chain.ChainConfig{
		"sepolia": {
			Id:         sepolia,
			RpcUrl:     "https://rpc.sepolia.example",
			AuctionHub: "0xaaaa000000000000000000000000000000000001",
			BidManager: "0xbbbb000000000000000000000000000000000001",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	contracts := mocks.NewContractProvider(t)
	s := NewSettler(&SettlerCfg{
		Registry:       registry,
		Contracts:      contracts,
		AuctionUseCase: usecase.NewAuctionUseCase(inmem.NewAuctionRepo(), time.Second),
		Tokens:         tokeninfo.New(&tokeninfo.Config{Registry: registry}),
		Notifier:       notify.Noop(),
	})
	winner := &auction.AggregatedBid{Bidder: alice, TotalAmount: big.NewInt(1), Chains: []domain.ChainId{base}}
	err = s.Settle(ctx, &auction.Auction{IntentId: intentId, ChainId: sepolia}, winner, []*auction.AggregatedBid{winner})
	if !errors.Is(err, domain.ErrUnknownChain) {
		t.Fatalf("expected ErrUnknownChain, got %v", err)
	}
	contracts.AssertNotCalled(t, "BidManager", mock.Anything)
}
