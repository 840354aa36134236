package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/keeper/base/ctx"
	hcdomain "github.com/x-xyz/keeper/domain/healthcheck"
)

// report is the /health body. Message carries the usecase error when a component is down.
type report struct {
	Healthy    bool                 `json:"healthy"`
	Message    string               `json:"message,omitempty"`
	Components []hcdomain.Component `json:"components"`
}

type handler struct {
	usecase hcdomain.HealthCheckUsecase
}

// New mounts GET /health.
func New(e *echo.Echo, us hcdomain.HealthCheckUsecase) {
	h := &handler{usecase: us}
	e.GET("/health", h.check)
}

func (h *handler) check(c echo.Context) error {
	cont, ok := c.Get("ctx").(ctx.Ctx)
	if !ok {
		cont = ctx.Background()
	}
	components, err := h.usecase.Check(cont)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, report{Message: err.Error(), Components: components})
	}
	return c.JSON(http.StatusOK, report{Healthy: true, Components: components})
}
