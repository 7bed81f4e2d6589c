package session

import (
	"github.com/labstack/echo/v4"
)

const contextKey = "festival.session.accessor"

// Bind attaches a request-scoped ServerAccessor to every request so the guard
// and the handlers of one request share the same resolved AuthResult.
func Bind(f *ServerFactory) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(contextKey, f.ForRequest(c.Request()))
			return next(c)
		}
	}
}

// FromContext returns the request's accessor. It panics if Bind was not
// installed, which is a wiring error.
func FromContext(c echo.Context) *ServerAccessor {
	acc, ok := c.Get(contextKey).(*ServerAccessor)
	if !ok {
		panic("session: accessor not bound; install session.Bind")
	}
	return acc
}
