package healthcheck

import (
	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
)

// Component is the outcome of pinging one dependency.
type Component struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// HealthCheckUsecase represents the healthCheck's usecases
type HealthCheckUsecase interface {
	// Check pings every dependency and fails when any of them is down.
	Check(context ctx.Ctx) ([]Component, error)
}

// HealthCheckRepo is repository layer of healthCheck
type HealthCheckRepo interface {
	PingDB(context ctx.Ctx) error
	PingCache(context ctx.Ctx) error
	ChainIds() []domain.ChainId
	ChainHead(context ctx.Ctx, chainId domain.ChainId) (uint64, error)
}
