package echoutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/opst/podconsole/pkg/logger"
)

// LogHandlerFunc logs requests and responses.
//
// A request without X-Request-Id gets a new one, and the id is sent back in the response.
func LogHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		rid := req.Header.Get(echo.HeaderXRequestID)
		if rid == "" {
			rid = uuid.NewString()
			req.Header.Set(echo.HeaderXRequestID, rid)
		}
		c.Response().Header().Set(echo.HeaderXRequestID, rid)

		meth := req.Method
		path := req.URL
		BEGIN := time.Now()
		c.Logger().Infof("< request [%s] %s %s", rid, meth, path)

		var err error
		defer func() {
			END := time.Now()
			c.Logger().Infof(
				"> response [%s] status = %d (for %s %s) in %v / error = %v",
				rid, c.Response().Status, meth, path, END.Sub(BEGIN), err,
			)
		}()

		err = next(c)
		return err
	}
}

// SetLevel sets the level of e.Logger by name.
//
// Unknown names fall back to warn, with a warning.
func SetLevel(e *echo.Echo, loglevel string) {
	lvl, ok := logger.ParseLevel(loglevel)
	e.Logger.SetLevel(lvl)
	if !ok {
		e.Logger.Warnf("unknown loglevel: %s . fall-backed to warn", loglevel)
	}
}
