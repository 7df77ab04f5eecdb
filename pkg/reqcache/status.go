package reqcache

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	apierr "github.com/opst/podconsole/pkg/api/types/errors"
)

type StatusCodeRange int

const (
	StatusUnknown StatusCodeRange = iota
	Status1xx
	Status2xx
	Status3xx
	Status4xx
	Status5xx
)

func (sc StatusCodeRange) String() string {
	switch sc {
	case Status1xx:
		return "informational response"
	case Status2xx:
		return "success"
	case Status3xx:
		return "redirect"
	case Status4xx:
		return "client error"
	case Status5xx:
		return "server error"
	default:
		return fmt.Sprintf("unknown (%d)", sc)
	}
}

func StatusCodeRangeOf(resp *http.Response) StatusCodeRange {
	sc := resp.StatusCode
	switch {
	case sc < 100:
		return StatusUnknown
	case sc < 200:
		return Status1xx
	case sc < 300:
		return Status2xx
	case sc < 400:
		return Status3xx
	case sc < 500:
		return Status4xx
	case sc < 600:
		return Status5xx
	default:
		return StatusUnknown
	}
}

// StatusError is a response whose status is not 2xx.
type StatusError struct {
	Status     int
	StatusText string

	// Reason is the message from the server, if the body carries one.
	Reason string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("request failed: %d %s", e.Status, e.StatusText)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Range returns the class of the status code.
func (e *StatusError) Range() StatusCodeRange {
	return StatusCodeRangeOf(&http.Response{StatusCode: e.Status})
}

// DecodeError is a 2xx response whose body is not the expected JSON.
type DecodeError struct {
	Status int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unexpected response body: %s (status code = %d)", e.Err.Error(), e.Status)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Validate checks the status of resp.
//
// For non-2xx responses, it reads the body (to find the server's reason) and
// returns *StatusError. The body is left for the caller to close.
func Validate(resp *http.Response) error {
	if StatusCodeRangeOf(resp) == Status2xx {
		return nil
	}

	statusText := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode)))
	if statusText == "" {
		statusText = http.StatusText(resp.StatusCode)
	}
	serr := &StatusError{Status: resp.StatusCode, StatusText: statusText}

	if resp.Body == nil {
		return serr
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return serr
	}
	if em, ok := apierr.Parse(body); ok {
		serr.Reason = em.Reason
	}
	return serr
}
