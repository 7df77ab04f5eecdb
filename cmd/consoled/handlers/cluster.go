package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/podconsole/pkg/api/types/errors"
	"github.com/opst/podconsole/pkg/api/types/metrics"
)

// NodeResources reads resources of the named node.
type NodeResources func(ctx context.Context, name string) (metrics.NodeResources, error)

// GetNodeResourcesHandler responds resources of the node named by the path parameter.
//
// It reads through to the platform on each request, as one node is not a part of any view.
func GetNodeResourcesHandler(read NodeResources, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param(param)
		if name == "" {
			return apierr.BadRequest("node name is required", nil)
		}

		node, err := read(c.Request().Context(), name)
		if err != nil {
			return upstreamError(err)
		}
		return c.JSON(http.StatusOK, node)
	}
}
