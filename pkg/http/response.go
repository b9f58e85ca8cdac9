package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// genericInternalMessage is the only detail a 500 ever exposes.
const genericInternalMessage = "internal server error"

// SuccessResponse writes data as a 200 JSON body.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// ErrorStatusResponse writes {error, message} with the given status.
func ErrorStatusResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorBody{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// InternalServerErrorResponse writes a 500 error with a generic message.
func InternalServerErrorResponse(c echo.Context) error {
	return ErrorStatusResponse(c, http.StatusInternalServerError, genericInternalMessage)
}

// AppErrorResponse writes an AppError with its status. Any other error becomes a 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			return ErrorStatusResponse(c, appErr.Status, genericInternalMessage)
		}
		return ErrorStatusResponse(c, appErr.Status, appErr.Message)
	}
	return InternalServerErrorResponse(c)
}

// HTTPErrorHandler renders echo's own errors (404 routes, 405) in the same shape.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		if he.Code >= http.StatusInternalServerError {
			msg = genericInternalMessage
		}
		_ = ErrorStatusResponse(c, he.Code, msg)
		return
	}
	_ = AppErrorResponse(c, err)
}
