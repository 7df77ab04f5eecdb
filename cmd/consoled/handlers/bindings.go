package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/opst/podconsole/pkg/binding"
	"github.com/opst/podconsole/pkg/dashboard"
)

// QueryWait is the query parameter to wait until the view is settled.
const QueryWait = "wait"

// Bound is a view backed by a binding.
type Bound[T any] interface {
	State() binding.State[T]
	Settled(ctx context.Context) (binding.State[T], error)
}

type Refetcher interface {
	Refetch()
}

// View is the response shape of a binding.
type View[T any] struct {
	Data    *T      `json:"data"`
	Loading bool    `json:"loading"`
	Error   *string `json:"error"`
}

func ViewOf[T any](st binding.State[T]) View[T] {
	v := View[T]{Loading: st.Loading, Error: nullable(st.Error)}
	if st.HasData {
		data := st.Data
		v.Data = &data
	}
	return v
}

type DashboardView struct {
	Stats   dashboard.DashboardStats `json:"stats"`
	Loading bool                     `json:"loading"`
	Error   *string                  `json:"error"`
}

func DashboardViewOf(st dashboard.State) DashboardView {
	return DashboardView{Stats: st.Stats, Loading: st.Loading, Error: nullable(st.Error)}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// waits reports whether the request asks to wait for the settled view.
func waits(c echo.Context) bool {
	_, ok := c.QueryParams()[QueryWait]
	return ok
}

// GetBindingHandler responds the current state of b.
//
// With ?wait, it responds after b is settled or the request is gone.
func GetBindingHandler[T any](b Bound[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		st := b.State()
		if waits(c) {
			// a cancelled wait still responds the state at that time.
			st, _ = b.Settled(c.Request().Context())
		}
		return c.JSON(http.StatusOK, ViewOf(st))
	}
}

func GetDashboardHandler(d *dashboard.Binding) echo.HandlerFunc {
	return func(c echo.Context) error {
		st := d.State()
		if waits(c) {
			st, _ = d.Settled(c.Request().Context())
		}
		return c.JSON(http.StatusOK, DashboardViewOf(st))
	}
}

// RefetchHandler triggers r, and responds 202 Accepted without waiting.
func RefetchHandler(r Refetcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		r.Refetch()
		return c.NoContent(http.StatusAccepted)
	}
}
