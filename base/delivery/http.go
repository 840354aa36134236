// Package delivery shapes the JSON envelope of the ops API.
package delivery

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/service/query"
)

type JsonResponseStatus string

const (
	JsonResponseStatusSuccess JsonResponseStatus = "success"
	JsonResponseStatusFail    JsonResponseStatus = "fail"
)

type JsonResponse struct {
	Data   interface{}        `json:"data"`
	Status JsonResponseStatus `json:"status"`
}

// errStatus maps domain errors onto http codes, fallback for anything else.
func errStatus(err error, fallback int) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, query.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBadParamInput),
		errors.Is(err, domain.ErrUnknownChain),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidChainId):
		return http.StatusBadRequest
	}
	return fallback
}

// MakeJsonResp writes data inside the envelope. An error as data is reported by its
// message and its status follows the error kind.
func MakeJsonResp(c echo.Context, status int, data interface{}) error {
	if err, ok := data.(error); ok {
		status = errStatus(err, status)
		data = err.Error()
	}
	switch {
	case status >= http.StatusBadRequest:
		return c.JSON(status, JsonResponse{Data: data, Status: JsonResponseStatusFail})
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		return c.JSON(status, JsonResponse{Data: data, Status: JsonResponseStatusSuccess})
	default:
		return c.JSON(status, data)
	}
}
