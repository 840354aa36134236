package usecase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
	hcdomain "github.com/x-xyz/keeper/domain/healthcheck"
	"github.com/x-xyz/keeper/domain/healthcheck/mocks"
)

func TestCheckHealthy(t *testing.T) {
	req := require.New(t)
	repo := mocks.NewHealthCheckRepo(t)
	repo.On("ChainIds").Return([]domain.ChainId{11155111, 84532})
	repo.On("PingDB", mock.Anything).Return(nil)
	repo.On("PingCache", mock.Anything).Return(nil)
	repo.On("ChainHead", mock.Anything, domain.ChainId(11155111)).Return(uint64(100), nil)
	repo.On("ChainHead", mock.Anything, domain.ChainId(84532)).Return(uint64(200), nil)

	components, err := New(repo).Check(ctx.Background())
	req.NoError(err)
	req.Equal([]hcdomain.Component{
		{Name: "store", Healthy: true},
		{Name: "cache", Healthy: true},
		{Name: "chain:11155111", Healthy: true, Detail: "head 100"},
		{Name: "chain:84532", Healthy: true, Detail: "head 200"},
	}, components)
}

func TestCheckReportsEveryFailure(t *testing.T) {
	req := require.New(t)
	repo := mocks.NewHealthCheckRepo(t)
	repo.On("ChainIds").Return([]domain.ChainId{84532})
	repo.On("PingDB", mock.Anything).Return(errors.New("server selection timeout"))
	repo.On("PingCache", mock.Anything).Return(nil)
	repo.On("ChainHead", mock.Anything, domain.ChainId(84532)).Return(uint64(0), errors.New("dial tcp: refused"))

	components, err := New(repo).Check(ctx.Background())
	req.EqualError(err, "unhealthy: store, chain:84532")
	req.Len(components, 3)
	req.False(components[0].Healthy)
	req.Equal("server selection timeout", components[0].Detail)
	req.True(components[1].Healthy)
	req.False(components[2].Healthy)
}
