package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/opst/podconsole/pkg/session"
)

// GetSessionHandler checks the session (shared within the session window), and responds its state.
func GetSessionHandler(s *session.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.Check(c.Request().Context())
		return c.JSON(http.StatusOK, s.State())
	}
}

// RefreshSessionHandler checks the session again, ignoring the shared check.
func RefreshSessionHandler(s *session.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.Refresh(c.Request().Context())
		return c.JSON(http.StatusOK, s.State())
	}
}

// LogoutHandler drops the session. It always succeeds.
func LogoutHandler(s *session.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.Logout(c.Request().Context())
		return c.JSON(http.StatusOK, s.State())
	}
}
