package handlers

import (
	"github.com/labstack/echo/v4"
	apierr "github.com/opst/podconsole/pkg/api/types/errors"
	"github.com/opst/podconsole/pkg/api/types/pods"
	"github.com/opst/podconsole/pkg/rest"
	kubecore "k8s.io/api/core/v1"
)

type PodsBinding interface {
	Bound[pods.List]
	Update(rest.PodQuery)
}

var knownPhases = map[kubecore.PodPhase]struct{}{
	kubecore.PodPending:   {},
	kubecore.PodRunning:   {},
	kubecore.PodSucceeded: {},
	kubecore.PodFailed:    {},
	kubecore.PodUnknown:   {},
}

// GetPodsHandler responds the pods view.
//
// Query parameters namespace, template, owner and phase become the query of the view;
// the view keeps following the latest query until another one comes.
func GetPodsHandler(b PodsBinding) echo.HandlerFunc {
	return func(c echo.Context) error {
		q := rest.PodQuery{
			Namespace: c.QueryParam("namespace"),
			Template:  c.QueryParam("template"),
			Owner:     c.QueryParam("owner"),
			Phase:     c.QueryParam("phase"),
		}
		if q.Phase != "" {
			if _, ok := knownPhases[kubecore.PodPhase(q.Phase)]; !ok {
				return apierr.BadRequest(
					"phase should be one of Pending, Running, Succeeded, Failed or Unknown", nil,
				)
			}
		}
		b.Update(q)
		return GetBindingHandler[pods.List](b)(c)
	}
}
