package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/require"

	"github.com/x-xyz/keeper/base/ctx"
)

const intentA1 = "0x00000000000000000000000000000000000000000000000000000000000000a1"

func newEcho() *echo.Echo {
	e := echo.New()
	mw := InitMiddleware(nil)
	e.Use(echoMiddleware.RequestID())
	e.Use(mw.AddContext())
	e.Use(mw.ResponseLogger())
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestAddContextCarriesRequestId(t *testing.T) {
	e := newEcho()
	var got interface{}
	e.GET("/ping", func(c echo.Context) error {
		got = c.Get("ctx").(ctx.Ctx).Value("requestID")
		return c.NoContent(http.StatusNoContent)
	})

	rec := get(e, "/ping")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotEmpty(t, got)
	require.Equal(t, rec.Header().Get(echo.HeaderXRequestID), got)
}

func TestResponseLoggerReportsHandlerErrors(t *testing.T) {
	e := newEcho()
	e.GET("/boom", func(echo.Context) error { return errors.New("store down") })
	e.GET("/teapot", func(echo.Context) error { return echo.NewHTTPError(http.StatusTeapot) })

	require.Equal(t, http.StatusInternalServerError, get(e, "/boom").Code)
	require.Equal(t, http.StatusTeapot, get(e, "/teapot").Code)
}

func TestIsValidIntentId(t *testing.T) {
	e := newEcho()
	e.GET("/auctions/:intentId", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Param("intentId"))
	}, IsValidIntentId("intentId"))

	rec := get(e, "/auctions/"+intentA1)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, intentA1, rec.Body.String())

	rec = get(e, "/auctions/0x01")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"data":"invalid intent id","status":"fail"}`, rec.Body.String())
}
