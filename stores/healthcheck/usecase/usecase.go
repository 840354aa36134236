package usecase

import (
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/x-xyz/keeper/base/ctx"
	hcdomain "github.com/x-xyz/keeper/domain/healthcheck"
)

type impl struct {
	repo hcdomain.HealthCheckRepo
}

// New creates new healthCheckUsecase object representation of HealthCheckUsecase interface
func New(repo hcdomain.HealthCheckRepo) hcdomain.HealthCheckUsecase {
	return &impl{
		repo: repo,
	}
}

func (im *impl) Check(context ctx.Ctx) ([]hcdomain.Component, error) {
	chainIds := im.repo.ChainIds()
	components := make([]hcdomain.Component, 2+len(chainIds))

	var g errgroup.Group
	g.Go(func() error {
		components[0] = component("store", im.repo.PingDB(context), "")
		return nil
	})
	g.Go(func() error {
		components[1] = component("cache", im.repo.PingCache(context), "")
		return nil
	})
	for i, id := range chainIds {
		i, id := i, id
		g.Go(func() error {
			head, err := im.repo.ChainHead(context, id)
			components[2+i] = component(fmt.Sprintf("chain:%d", id), err, fmt.Sprintf("head %d", head))
			return nil
		})
	}
	_ = g.Wait()

	var down []string
	for _, c := range components {
		if !c.Healthy {
			down = append(down, c.Name)
		}
	}
	if len(down) > 0 {
		return components, xerrors.Errorf("unhealthy: %s", strings.Join(down, ", "))
	}
	return components, nil
}

func component(name string, err error, detail string) hcdomain.Component {
	if err != nil {
		return hcdomain.Component{Name: name, Healthy: false, Detail: err.Error()}
	}
	return hcdomain.Component{Name: name, Healthy: true, Detail: detail}
}
