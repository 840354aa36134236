package http

import (
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/delivery"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
	"github.com/x-xyz/keeper/middleware"
	"github.com/x-xyz/keeper/service/cache/provider"
	"github.com/x-xyz/keeper/service/tokeninfo"
)

type Config struct {
	AuctionUseCase auction.UseCase
	Tokens         tokeninfo.Service
	// Cache, when set, caches single auction responses for CacheTTL.
	Cache    provider.Provider
	CacheTTL time.Duration
}

type handler struct {
	auctionUC auction.UseCase
	tokens    tokeninfo.Service
}

func New(e *echo.Echo, cfg Config) {
	h := &handler{
		auctionUC: cfg.AuctionUseCase,
		tokens:    cfg.Tokens,
	}

	g := e.Group("/auctions")

	g.GET("", h.list)

	mws := []echo.MiddlewareFunc{middleware.IsValidIntentId("intentId")}
	if cfg.Cache != nil && cfg.CacheTTL > 0 {
		mws = append(mws, middleware.CacheHttp(cfg.Cache, cfg.CacheTTL))
	}
	g.GET("/:intentId", h.get, mws...)
}

type Standing struct {
	Bidder      domain.Address   `json:"bidder"`
	Token       string           `json:"token"`
	TotalAmount string           `json:"totalAmount"`
	Display     string           `json:"display,omitempty"`
	Chains      []domain.ChainId `json:"chains"`
	BidCount    int              `json:"bidCount"`
	LastBidAt   time.Time        `json:"lastBidAt"`
}

type AuctionDetail struct {
	Auction   *auction.Auction `json:"auction"`
	Bids      []*auction.Bid   `json:"bids"`
	Standings []Standing       `json:"standings"`
	// Leader is who would win if the auction were settled now.
	Leader *Standing `json:"leader,omitempty"`
	// StandingsErr explains missing standings or leader, e.g. an unknown preferred token.
	StandingsErr string `json:"standingsErr,omitempty"`
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type payload struct {
		Status string         `query:"status" validate:"omitempty,oneof=created active finalized settled claimed cancelled"`
		Seller domain.Address `query:"seller" validate:"omitempty,eth_addr"`
	}

	p := payload{}
	if err := c.Bind(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	if err := c.Validate(&p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	all, err := h.auctionUC.GetAllAuctions(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	res := lo.Filter(lo.Values(all), func(a *auction.Auction, _ int) bool {
		if p.Status != "" && a.Status.String() != p.Status {
			return false
		}
		return p.Seller.IsEmpty() || a.Seller.Equals(p.Seller)
	})
	sort.Slice(res, func(i, j int) bool { return res[i].IntentId < res[j].IntentId })

	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) get(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id := domain.IntentId(c.Param("intentId")).ToLower()
	a, err := h.auctionUC.GetAuction(ctx, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	bids, err := h.auctionUC.GetBids(ctx, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	detail := &AuctionDetail{Auction: a, Bids: auction.SortBids(bids), Standings: []Standing{}}
	if len(bids) == 0 {
		return delivery.MakeJsonResp(c, http.StatusOK, detail)
	}

	aggs, err := auction.AggregateBids(bids, h.tokens.Classify(ctx, bids))
	if err != nil {
		detail.StandingsErr = err.Error()
		return delivery.MakeJsonResp(c, http.StatusOK, detail)
	}
	sort.SliceStable(aggs, func(i, j int) bool {
		if aggs[i].Unit != aggs[j].Unit {
			return aggs[i].Unit < aggs[j].Unit
		}
		return aggs[i].Cmp(aggs[j]) > 0
	})
	for _, agg := range aggs {
		detail.Standings = append(detail.Standings, h.standing(ctx, agg))
	}

	amount, err := a.ReservePriceInt()
	if err != nil {
		ctx.WithFields(log.Fields{"err": err, "reservePrice": a.ReservePrice}).Warn("stored reserve price unparsable")
		return delivery.MakeJsonResp(c, http.StatusOK, detail)
	}
	reserve, err := h.tokens.Reserve(ctx, a, amount)
	if err != nil {
		detail.StandingsErr = err.Error()
		return delivery.MakeJsonResp(c, http.StatusOK, detail)
	}
	if winner, err := auction.SelectWinner(aggs, reserve); err == nil {
		leader := h.standing(ctx, winner)
		detail.Leader = &leader
	}

	return delivery.MakeJsonResp(c, http.StatusOK, detail)
}

func (h *handler) standing(ctx ctx.Ctx, agg *auction.AggregatedBid) Standing {
	s := Standing{
		Bidder:      agg.Bidder,
		Token:       lo.Ternary(agg.Symbol != "", agg.Symbol, agg.TokenKey),
		TotalAmount: agg.TotalAmount.String(),
		Chains:      agg.Chains,
		BidCount:    agg.BidCount,
		LastBidAt:   agg.LastBidAt,
	}
	if d, err := h.tokens.FormatAmount(ctx, agg.SourceChain, agg.Token, agg.TotalAmount); err == nil {
		s.Display = d.String() + " " + s.Token
	}
	return s
}
