package main

import (
	"time"

	"github.com/gomodule/redigo/redis"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/database/mongoclient"
	"github.com/x-xyz/keeper/base/database/redisclient"
	"github.com/x-xyz/keeper/base/env"
	"github.com/x-xyz/keeper/base/keeper"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/base/metrics"
	"github.com/x-xyz/keeper/base/tracker"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
	domainChain "github.com/x-xyz/keeper/domain/chain"
	"github.com/x-xyz/keeper/domain/keys"
	"github.com/x-xyz/keeper/service/cache"
	"github.com/x-xyz/keeper/service/cache/provider"
	"github.com/x-xyz/keeper/service/cache/provider/compound"
	"github.com/x-xyz/keeper/service/cache/provider/primitive"
	redisprovider "github.com/x-xyz/keeper/service/cache/provider/redis"
	"github.com/x-xyz/keeper/service/chain"
	"github.com/x-xyz/keeper/service/chain/contract"
	"github.com/x-xyz/keeper/service/notify"
	"github.com/x-xyz/keeper/service/query"
	redisService "github.com/x-xyz/keeper/service/redis"
	"github.com/x-xyz/keeper/service/tokeninfo"
	auctionInmem "github.com/x-xyz/keeper/stores/auction/repository/inmem"
	auctionMongo "github.com/x-xyz/keeper/stores/auction/repository/mongo"
	auctionUsecase "github.com/x-xyz/keeper/stores/auction/usecase"
	trackerStateInmem "github.com/x-xyz/keeper/stores/tracker_state/repository/inmem"
	trackerStateMongo "github.com/x-xyz/keeper/stores/tracker_state/repository/mongo"
	trackerStateUsecase "github.com/x-xyz/keeper/stores/tracker_state/usecase"
)

const (
	metricsNamespace = "keeper"
	tokenInfoTTL     = 24 * time.Hour
	tokenCacheMB     = 4
	redisPoolFactor  = 4
	mongoPoolFactor  = 4
)

// deps holds every long lived component one command may need.
type deps struct {
	cfg *Config
	met metrics.Service

	registry  *domainChain.Registry
	chains    chain.Client
	contracts auction.ContractProvider

	mongo          query.Mongo
	mongoClient    *mongoclient.Client
	redisPool      *redis.Pool
	redis          redisService.Service
	auctionUC      auction.UseCase
	trackerStateUC domain.TrackerStateUseCase

	tokens   tokeninfo.Service
	notifier auction.Notifier
	seen     tracker.SeenSet
	lock     *keeper.ProcessingLock
	settler  *keeper.Settler
	keeper   *keeper.Keeper
}

// buildDeps connects stores and chains. withSigner loads the keeper key, commands that
// only read leave it out.
func buildDeps(ctx bCtx.Ctx, cfg *Config, withSigner bool) (d *deps, err error) {
	d = &deps{cfg: cfg, lock: keeper.NewProcessingLock()}
	defer func() {
		if err != nil {
			d.close()
			d = nil
		}
	}()

	if d.met, err = metrics.New(metrics.Config{
		Enabled:   cfg.Datadog.Enabled,
		Host:      cfg.Datadog.Host,
		Port:      cfg.Datadog.Port,
		Namespace: metricsNamespace,
		Tags:      env.MetricTags(),
	}); err != nil {
		return nil, err
	}

	if d.registry, err = domainChain.NewRegistry(cfg.Chains); err != nil {
		return nil, err
	}
	chainCfg := &chain.ClientCfg{
		ReceiptTimeout: cfg.Keeper.ReceiptTimeout,
		MaxInflight:    cfg.Keeper.MaxInflight,
		RevertPatterns: cfg.Keeper.RevertPatterns,
	}
	if withSigner {
		chainCfg.PrivateKey = cfg.Keeper.PrivateKey
	}
	if d.chains, err = chain.NewClient(ctx, d.registry, chainCfg); err != nil {
		return nil, err
	}
	d.contracts = contract.NewProvider(d.chains, d.registry)

	if err := d.connectStore(ctx); err != nil {
		return nil, err
	}
	if err := d.connectRedis(ctx); err != nil {
		return nil, err
	}

	d.tokens = tokeninfo.New(&tokeninfo.Config{
		Registry: d.registry,
		ERC20:    contract.NewERC20(d.chains),
		Cache: cache.New(cache.Config{
			TTL:      tokenInfoTTL,
			Prefix:   keys.PfxTokenInfo,
			Provider: d.tokenCache(),
			Metrics:  d.met,
		}),
	})
	if d.notifier, err = notify.New(notify.Config{
		DiscordBotKey:    cfg.Discord.BotKey,
		DiscordChannelId: cfg.Discord.ChannelId,
		Registry:         d.registry,
		Tokens:           d.tokens,
	}); err != nil {
		return nil, err
	}

	var shared provider.Provider
	if d.redis != nil {
		shared = redisprovider.NewRedis(d.redis)
	}
	if d.seen, err = tracker.NewSeenSet(cfg.Tracker.SeenCacheSize, shared, cfg.Tracker.SeenTTL); err != nil {
		return nil, err
	}

	d.settler = keeper.NewSettler(&keeper.SettlerCfg{
		Registry:       d.registry,
		Contracts:      d.contracts,
		AuctionUseCase: d.auctionUC,
		Tokens:         d.tokens,
		Notifier:       d.notifier,
		Metrics:        d.met,
		RefundWorkers:  cfg.Keeper.RefundWorkers,
	})
	if d.keeper, err = keeper.New(&keeper.Config{
		Interval:       cfg.Keeper.Interval,
		Workers:        cfg.Keeper.Workers,
		Registry:       d.registry,
		Contracts:      d.contracts,
		AuctionUseCase: d.auctionUC,
		Tokens:         d.tokens,
		Settler:        d.settler,
		Lock:           d.lock,
		Metrics:        d.met,
	}); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *deps) connectStore(ctx bCtx.Ctx) error {
	timeout := d.cfg.Context.Timeout
	switch d.cfg.Store.Driver {
	case storeMemory:
		ctx.Warn("memory store: auctions and checkpoints are lost on restart")
		d.auctionUC = auctionUsecase.NewAuctionUseCase(auctionInmem.NewAuctionRepo(), timeout)
		d.trackerStateUC = trackerStateUsecase.NewTrackerStateUseCase(trackerStateInmem.NewTrackerStateRepo(), timeout)
		return nil
	}

	client, err := mongoclient.ConnectMongoClient(ctx, mongoclient.Config{
		Uri:                d.cfg.Mongo.Uri,
		AuthDBName:         d.cfg.Mongo.AuthDBName,
		DbName:             d.cfg.Mongo.DbName,
		EnableSSL:          d.cfg.Mongo.EnableSSL,
		SetSafe:            true,
		PoolSizeMultiplier: mongoPoolFactor,
	})
	if err != nil {
		return err
	}
	d.mongoClient = client
	d.mongo = query.New(client, true)

	auctionRepo, err := auctionMongo.NewAuctionMongoRepo(ctx, d.mongo)
	if err != nil {
		return err
	}
	trackerStateRepo, err := trackerStateMongo.NewTrackerStateMongoRepo(ctx, d.mongo)
	if err != nil {
		return err
	}
	d.auctionUC = auctionUsecase.NewAuctionUseCase(auctionRepo, timeout)
	d.trackerStateUC = trackerStateUsecase.NewTrackerStateUseCase(trackerStateRepo, timeout)
	return nil
}

func (d *deps) connectRedis(ctx bCtx.Ctx) error {
	if d.cfg.Redis.Uri == "" {
		return nil
	}
	pool, err := redisclient.ConnectRedis(ctx, d.cfg.Redis.Uri, redisclient.Options{
		Password:       d.cfg.Redis.Password,
		PoolMultiplier: redisPoolFactor,
		Retry:          true,
	})
	if err != nil {
		return err
	}
	d.redisPool = pool
	d.redis = redisService.New(metricsNamespace, d.met, pool)
	return nil
}

// tokenCache keeps resolved token metadata in process, backed by redis when configured.
func (d *deps) tokenCache() provider.Provider {
	local := primitive.NewPrimitive(keys.PfxTokenInfo, tokenCacheMB)
	if d.redis == nil {
		return local
	}
	return compound.NewCompound([]provider.Provider{local, redisprovider.NewRedis(d.redis)})
}

func (d *deps) ingester(chainId domain.ChainId) (*tracker.Ingester, error) {
	client, err := d.chains.EthClient(chainId)
	if err != nil {
		return nil, err
	}
	return tracker.NewIngester(&tracker.IngesterCfg{
		ChainId:        chainId,
		Client:         client,
		AuctionUseCase: d.auctionUC,
		Seen:           d.seen,
		Metrics:        d.met,
	})
}

func (d *deps) close() {
	if d.chains != nil {
		d.chains.Close()
	}
	if d.redisPool != nil {
		if err := d.redisPool.Close(); err != nil {
			log.Log().WithField("err", err).Warn("redis pool close failed")
		}
	}
	if d.mongoClient != nil {
		ctx, cancel := bCtx.WithTimeout(bCtx.Background(), 5*time.Second)
		defer cancel()
		if err := d.mongoClient.Disconnect(ctx); err != nil {
			log.Log().WithField("err", err).Warn("mongo disconnect failed")
		}
	}
}
