package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/base/tracker"
	"github.com/x-xyz/keeper/base/validator"
	domainChain "github.com/x-xyz/keeper/domain/chain"
	mmiddleware "github.com/x-xyz/keeper/middleware"
	"github.com/x-xyz/keeper/service/cache/provider/primitive"
	auctionHandler "github.com/x-xyz/keeper/stores/auction/delivery/http"
	healthHandler "github.com/x-xyz/keeper/stores/healthcheck/delivery/http"
	healthRepo "github.com/x-xyz/keeper/stores/healthcheck/repository"
	healthUsecase "github.com/x-xyz/keeper/stores/healthcheck/usecase"
)

const (
	shutdownTimeout = 10 * time.Second
	apiCacheMB      = 8

	tagAuctionHub = "auctionHub"
	tagBidManager = "bidManager"
)

func runKeeper(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := cfg.requireSigner(); err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx := bCtx.From(sigCtx)

	d, err := buildDeps(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer d.close()
	ctx.WithFields(log.Fields{
		"sender": d.chains.Sender().Hex(),
		"chains": d.registry.Keys(),
	}).Info("keeper starting")

	listeners, err := d.listeners()
	if err != nil {
		return err
	}
	e := d.echoServer()

	g, gctx := errgroup.WithContext(ctx)
	runCtx := bCtx.From(gctx)
	for _, l := range listeners {
		l := l
		g.Go(func() error { return l.Run(runCtx) })
	}
	g.Go(func() error { return d.keeper.Run(runCtx) })
	g.Go(func() error {
		runCtx.WithField("address", cfg.Server.Address).Info("ops api listening")
		if err := e.Start(cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(sCtx)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		ctx.WithField("err", err).Error("keeper stopped")
		return err
	}
	ctx.Info("keeper stopped")
	return nil
}

// listeners follows the auction hub and the bid manager of every configured chain.
func (d *deps) listeners() ([]*tracker.Listener, error) {
	res := []*tracker.Listener{}
	for _, chainCfg := range d.registry.All() {
		ingester, err := d.ingester(chainCfg.Id)
		if err != nil {
			return nil, err
		}
		rpc, err := d.chains.EthClient(chainCfg.Id)
		if err != nil {
			return nil, err
		}
		ws, err := d.chains.WsClient(chainCfg.Id)
		if err != nil {
			return nil, err
		}
		addrs := contractAddrs(chainCfg.AuctionHub, chainCfg.BidManager)
		for i, target := range []struct {
			tag    string
			topics func() [][]common.Hash
		}{
			{tagAuctionHub, tracker.AuctionHubTopics},
			{tagBidManager, tracker.BidManagerTopics},
		} {
			l, err := tracker.NewListener(&tracker.ListenerCfg{
				ChainId:             chainCfg.Id,
				Tag:                 target.tag,
				Contract:            addrs[i],
				Topics:              target.topics(),
				RpcClient:           rpc,
				WsClient:            ws,
				Ingester:            ingester,
				TrackerStateUseCase: d.trackerStateUC,
				Metrics:             d.met,
				BackfillBlocks:      d.cfg.Tracker.BackfillBlocks,
				FollowDistance:      d.cfg.Tracker.FollowDistance,
				PollInterval:        d.cfg.Tracker.PollInterval,
				ReconnectLimit:      d.cfg.Tracker.ReconnectLimit,
			})
			if err != nil {
				return nil, err
			}
			res = append(res, l)
		}
		logChain(chainCfg, ws != nil)
	}
	return res, nil
}

func logChain(c *domainChain.ChainConfig, ws bool) {
	log.Log().WithFields(log.Fields{
		"chain":      c.DisplayName(),
		"chainId":    c.Id,
		"auctionHub": c.AuctionHub,
		"bidManager": c.BidManager,
		"websocket":  ws,
	}).Info("tracking chain")
}

func (d *deps) echoServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.NewCustomValidator(validator.New())

	mw := mmiddleware.InitMiddleware(d.met)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(mw.AddContext())
	e.Use(mw.ResponseLogger())

	healthHandler.New(e, healthUsecase.New(healthRepo.New(d.mongo, d.redis, d.chains)))
	auctionHandler.New(e, auctionHandler.Config{
		AuctionUseCase: d.auctionUC,
		Tokens:         d.tokens,
		Cache:          primitive.NewPrimitive("httpCache", apiCacheMB),
		CacheTTL:       d.cfg.Api.CacheTTL,
	})
	return e
}
