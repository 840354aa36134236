package repository

import (
	"time"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/domain"
	hcdomain "github.com/x-xyz/keeper/domain/healthcheck"
	"github.com/x-xyz/keeper/domain/keys"
	"github.com/x-xyz/keeper/service/chain"
	"github.com/x-xyz/keeper/service/query"
	"github.com/x-xyz/keeper/service/redis"
)

const pingTimeout = 2 * time.Second

type impl struct {
	mongo      query.Mongo
	redisCache redis.Service
	chains     chain.Client
}

// New creates the health check repo. mongo and redisCache are nil when the keeper runs
// without them and then always pass.
func New(
	mongo query.Mongo,
	redisCache redis.Service,
	chains chain.Client,
) hcdomain.HealthCheckRepo {
	return &impl{
		mongo:      mongo,
		redisCache: redisCache,
		chains:     chains,
	}
}

func (im *impl) PingDB(context ctx.Ctx) error {
	if im.mongo == nil {
		return nil
	}
	ctx, cancel := ctx.WithTimeout(context, pingTimeout)
	defer cancel()
	if err := im.mongo.Ping(ctx); err != nil {
		context.WithField("err", err).Error("ping mongo error")
		return err
	}
	return nil
}

func (im *impl) PingCache(context ctx.Ctx) error {
	if im.redisCache == nil {
		return nil
	}
	ctx, cancel := ctx.WithTimeout(context, pingTimeout)
	defer cancel()
	if err := im.redisCache.Set(ctx, keys.RedisKey(keys.PfxHealthCheck, "testset"), []byte("1"), 30*time.Second); err != nil {
		context.WithField("err", err).Error("test redis set failed")
		return err
	}
	return nil
}

func (im *impl) ChainIds() []domain.ChainId {
	return im.chains.ChainIds()
}

func (im *impl) ChainHead(context ctx.Ctx, chainId domain.ChainId) (uint64, error) {
	client, err := im.chains.EthClient(chainId)
	if err != nil {
		return 0, err
	}
	ctx, cancel := ctx.WithTimeout(context, pingTimeout)
	defer cancel()
	head, err := client.BlockNumber(ctx)
	if err != nil {
		context.WithFields(log.Fields{"err": err, "chainId": chainId}).Error("rpc BlockNumber failed")
		return 0, err
	}
	return head, nil
}
