// Package middleware holds the echo middlewares of the ops API.
package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/delivery"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/base/metrics"
	"github.com/x-xyz/keeper/base/validator"
)

const ctxKey = "ctx"

type GoMiddleware struct {
	met metrics.Service
}

// InitMiddleware builds the middlewares, met may be nil.
func InitMiddleware(met metrics.Service) *GoMiddleware {
	if met == nil {
		met = metrics.Noop()
	}
	return &GoMiddleware{met: met}
}

func requestCtx(c echo.Context) ctx.Ctx {
	if cont, ok := c.Get(ctxKey).(ctx.Ctx); ok {
		return cont
	}
	return ctx.Background()
}

// AddContext stores a ctx.Ctx bound to the request and tagged with its request id.
// Handlers read it back with c.Get("ctx").
func (m *GoMiddleware) AddContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			base := ctx.From(c.Request().Context())
			c.Set(ctxKey, ctx.WithValue(base, "requestID", c.Response().Header().Get(echo.HeaderXRequestID)))
			return next(c)
		}
	}
}

// ResponseLogger writes one line per request, at warn level for server errors, and
// times it by route.
func (m *GoMiddleware) ResponseLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			timer := m.met.BumpTime("http.request.time", 1, "method", c.Request().Method, "path", c.Path())
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			timer.End()
			req, res := c.Request(), c.Response()

			logger := requestCtx(c).WithFields(log.Fields{
				"httpMethod": req.Method,
				"uri":        req.URL.RequestURI(),
				"route":      c.Path(),
				"httpStatus": res.Status,
				"size":       res.Size,
				"ms":         float64(time.Since(start).Microseconds()) / 1000,
				"remoteIP":   c.RealIP(),
				"userAgent":  req.UserAgent(),
			})
			if err != nil {
				logger = logger.WithField("err", err)
			}
			if res.Status >= http.StatusInternalServerError {
				logger.Warn("response")
			} else {
				logger.Info("response")
			}
			return nil
		}
	}
}

// IsValidIntentId rejects requests whose path param is not a bytes32 intent id.
func IsValidIntentId(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !validator.IsValidIntentId(c.Param(param)) {
				return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid intent id")
			}
			return next(c)
		}
	}
}
