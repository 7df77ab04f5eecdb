package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/podconsole/pkg/api/types/errors"
	"github.com/opst/podconsole/pkg/api/types/vms"
	"github.com/opst/podconsole/pkg/reqcache"
)

// VMAction changes the state of the virtual machine.
type VMAction func(ctx context.Context, id string) (vms.VirtualMachine, error)

// VMActionHandler runs action for the VM named by the path parameter,
// then refetches views showing VMs.
func VMActionHandler(action VMAction, param string, views ...Refetcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param(param)
		if id == "" {
			return apierr.BadRequest("vm id is required", nil)
		}

		vm, err := action(c.Request().Context(), id)
		if err != nil {
			return upstreamError(err)
		}

		for _, v := range views {
			v.Refetch()
		}
		return c.JSON(http.StatusOK, vm)
	}
}

// upstreamError maps a failed platform request to a response:
// not found stays not found, and anything else is bad gateway.
func upstreamError(err error) *echo.HTTPError {
	if serr := new(reqcache.StatusError); errors.As(err, &serr) && serr.Status == http.StatusNotFound {
		return apierr.NotFound()
	}
	return apierr.BadGateway(err)
}
