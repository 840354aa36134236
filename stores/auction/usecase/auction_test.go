package usecase

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/ptr"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
	"github.com/x-xyz/keeper/stores/auction/repository/inmem"
)

type auctionSuite struct {
	suite.Suite
	ctx bCtx.Ctx
	uc  auction.UseCase
}

func TestAuctionSuite(t *testing.T) {
	suite.Run(t, new(auctionSuite))
}

func (s *auctionSuite) SetupTest() {
	s.ctx = bCtx.Background()
	s.uc = NewAuctionUseCase(inmem.NewAuctionRepo(), time.Second)
}

func newAuction(id domain.IntentId, reserve string) *auction.Auction {
	return &auction.Auction{
		IntentId:     id,
		ChainId:      11155111,
		Seller:       "0xSELLER",
		ReservePrice: reserve,
		Deadline:     1_700_000_000,
		Status:       auction.StatusActive,
		TxHash:       "0xCREATE",
		CreatedAt:    time.Unix(1_699_000_000, 0),
	}
}

func (s *auctionSuite) TestAddAuctionIsIdempotent() {
	first, err := s.uc.AddAuction(s.ctx, newAuction("0xAA", "100"))
	s.Require().NoError(err)
	s.Equal(domain.Address("0xseller"), first.Seller)

	second, err := s.uc.AddAuction(s.ctx, newAuction("0xaa", "999"))
	s.Require().NoError(err)
	s.Equal("100", second.ReservePrice)

	all, err := s.uc.GetAllAuctions(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
	s.Contains(all, domain.IntentId("0xaa"))
}

func (s *auctionSuite) TestAddBidIsIdempotentUnderConcurrency() {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := s.uc.AddBid(s.ctx, &auction.Bid{
				TxHash:   "0xBID",
				IntentId: "0xaa",
				Bidder:   "0xX",
				Amount:   "60",
				ChainId:  1,
			})
			s.NoError(err)
			s.Equal(domain.TxHash("0xbid"), b.TxHash)
		}()
	}
	wg.Wait()

	bids, err := s.uc.GetBids(s.ctx, "0xAA")
	s.Require().NoError(err)
	s.Len(bids, 1)
	s.Equal("60", bids[0].Amount)
}

func (s *auctionSuite) TestGetAllBidsGroupsByIntent() {
	for _, b := range []*auction.Bid{
		{TxHash: "0x1", IntentId: "0xaa", Amount: "1", Timestamp: time.Unix(3, 0)},
		{TxHash: "0x2", IntentId: "0xbb", Amount: "2", Timestamp: time.Unix(2, 0)},
		{TxHash: "0x3", IntentId: "0xaa", Amount: "3", Timestamp: time.Unix(1, 0)},
	} {
		_, err := s.uc.AddBid(s.ctx, b)
		s.Require().NoError(err)
	}
	all, err := s.uc.GetAllBids(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Require().Len(all["0xaa"], 2)
	s.Equal(domain.TxHash("0x3"), all["0xaa"][0].TxHash)
}

func (s *auctionSuite) TestUpdateAuctionStatus() {
	_, err := s.uc.UpdateAuctionStatus(s.ctx, "0xmissing", auction.StatusFinalized, nil)
	s.ErrorIs(err, domain.ErrNotFound)

	_, err = s.uc.AddAuction(s.ctx, newAuction("0xaa", "100"))
	s.Require().NoError(err)

	_, err = s.uc.UpdateAuctionStatus(s.ctx, "0xaa", auction.Status(42), nil)
	s.ErrorIs(err, domain.ErrBadParamInput)

	a, err := s.uc.UpdateAuctionStatus(s.ctx, "0xaa", auction.StatusFinalized, &auction.AuctionPatchable{
		Winner:        ptr.To(domain.Address("0xx")),
		WinningAmount: ptr.To("110"),
	})
	s.Require().NoError(err)
	s.Equal(auction.StatusFinalized, a.Status)
	s.Equal(domain.Address("0xx"), a.Winner)
	s.Equal("110", a.WinningAmount)
}

func (s *auctionSuite) TestSettlementProgress() {
	_, err := s.uc.AddAuction(s.ctx, newAuction("0xaa", "100"))
	s.Require().NoError(err)

	s.Require().NoError(s.uc.RecordSettlementStep(s.ctx, "0xaa", auction.ReleaseStep(1), "0xREL"))
	s.Require().NoError(s.uc.RecordFailedRefund(s.ctx, "0xaa", auction.FailedRefund{Bidder: "0xY", ChainId: 1, Amount: "90", Error: "boom"}))
	s.Require().NoError(s.uc.RecordFailedRefund(s.ctx, "0xaa", auction.FailedRefund{Bidder: "0xy", ChainId: 1, Amount: "90", Error: "boom again"}))

	a, err := s.uc.GetAuction(s.ctx, "0xaa")
	s.Require().NoError(err)
	s.True(a.Settlement.Done("release:1"))
	s.Equal(domain.TxHash("0xrel"), a.Settlement.Steps["release:1"])
	s.Require().Len(a.Settlement.FailedRefunds, 1)
	s.Equal("boom again", a.Settlement.FailedRefunds[0].Error)

	s.Require().NoError(s.uc.ClearFailedRefund(s.ctx, "0xaa", "0xY", 1))
	a, err = s.uc.GetAuction(s.ctx, "0xaa")
	s.Require().NoError(err)
	s.Empty(a.Settlement.FailedRefunds)

	s.ErrorIs(s.uc.RecordSettlementStep(s.ctx, "0xmissing", auction.StepNftRelease, "0x1"), domain.ErrNotFound)
}
