package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type ErrorMessageOption func(in *ErrorMessage) *ErrorMessage

func WithAdvice(advice string) ErrorMessageOption {
	return func(in *ErrorMessage) *ErrorMessage {
		if advice != "" {
			in.Advice = advice
		}
		return in
	}
}

func WithSee(see string) ErrorMessageOption {
	return func(in *ErrorMessage) *ErrorMessage {
		if see != "" {
			in.See = see
		}
		return in
	}
}

// NewErrorMessage builds an echo error whose body is ErrorMessage.
//
// cause is kept as internal error of echo, and not sent to clients.
func NewErrorMessage(code int, reason string, cause error, opts ...ErrorMessageOption) *echo.HTTPError {
	msg := ErrorMessage{Reason: reason}
	for _, opt := range opts {
		msg = *opt(&msg)
	}

	herr := echo.NewHTTPError(code, msg)
	if cause != nil {
		herr = herr.SetInternal(cause)
	}
	return herr
}

func NotFound() *echo.HTTPError {
	return NewErrorMessage(http.StatusNotFound, "not found", nil)
}

func BadRequest(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(http.StatusBadRequest, "bad request", err, WithAdvice(advice))
}

// BadGateway tells the platform API did not respond as expected.
func BadGateway(err error) *echo.HTTPError {
	reason := "upstream request failed"
	if err != nil {
		reason = err.Error()
	}
	return NewErrorMessage(http.StatusBadGateway, reason, err)
}

func InternalServerError(err error) *echo.HTTPError {
	return NewErrorMessage(http.StatusInternalServerError, "unexpected error", err)
}
