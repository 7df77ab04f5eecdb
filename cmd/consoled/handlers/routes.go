package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/opst/podconsole/pkg/api/types/templates"
	"github.com/opst/podconsole/pkg/api/types/users"
	"github.com/opst/podconsole/pkg/api/types/vms"
	"github.com/opst/podconsole/pkg/console"
	"github.com/opst/podconsole/pkg/dashboard"
)

// Register routes for views of c under g.
func Register(g *echo.Group, c *console.Console) {
	g.GET("/dashboard", GetDashboardHandler(c.Dashboard))
	g.POST("/dashboard/refetch", RefetchHandler(c.Dashboard))

	g.GET("/users", GetBindingHandler(Bound[users.List](c.Users)))
	g.POST("/users/refetch", RefetchHandler(c.Users))

	g.GET("/groups", GetBindingHandler(Bound[users.GroupList](c.Groups)))
	g.POST("/groups/refetch", RefetchHandler(c.Groups))

	g.GET("/templates", GetBindingHandler(Bound[templates.List](c.Templates)))
	g.POST("/templates/refetch", RefetchHandler(c.Templates))

	g.GET("/pods", GetPodsHandler(c.Pods))
	g.POST("/pods/refetch", RefetchHandler(c.Pods))

	g.GET("/vms", GetBindingHandler(Bound[vms.List](c.VMs)))
	g.POST("/vms/refetch", RefetchHandler(c.VMs))
	g.POST("/vms/:vmId/start", VMActionHandler(c.Client.StartVM, "vmId", c.VMs, c.Dashboard))
	g.POST("/vms/:vmId/stop", VMActionHandler(c.Client.StopVM, "vmId", c.VMs, c.Dashboard))

	g.GET("/cluster", GetBindingHandler(Bound[dashboard.ClusterOverview](c.Cluster)))
	g.POST("/cluster/refetch", RefetchHandler(c.Cluster))
	g.GET("/cluster/nodes/:name", GetNodeResourcesHandler(c.Client.NodeResources, "name"))

	g.GET("/session", GetSessionHandler(c.Session))
	g.POST("/session/refresh", RefreshSessionHandler(c.Session))
	g.POST("/logout", LogoutHandler(c.Session))
}
