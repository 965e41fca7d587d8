package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// StatusClientClosedRequest is answered when the caller went away before
// the handler finished. Nobody reads it; it keeps such requests out of 5xx.
const StatusClientClosedRequest = 499

// ErrorHandler renders handler errors as a failed Response envelope.
func ErrorHandler(log Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		resp := toResponseError(err, c)
		if resp.Status == http.StatusNotFound && isNotFoundHandler(c.Handler()) {
			resp.ErrorMessage = "no route matched"
		}

		if err := c.JSON(resp.Status, resp); err != nil {
			log.Errorw("could not response", "code", resp.Status, "response_body", resp, "error", err)
		}
	}
}

func toResponseError(err error, c echo.Context) *ResponseError {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr
	}

	resp := &ResponseError{
		Status: http.StatusInternalServerError,
		Err:    err,
	}
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		resp.Status = httpErr.Code
		resp.ErrorMessage = fmt.Sprint(httpErr.Message)
	case errors.Is(err, context.Canceled) && errors.Is(c.Request().Context().Err(), context.Canceled):
		resp.Status = StatusClientClosedRequest
	}
	return resp
}
