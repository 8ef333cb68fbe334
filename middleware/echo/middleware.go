package echomw

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reoring/nullbind"
	"github.com/reoring/nullbind/middleware"
)

// BindJSON binds the request body against s, stores Decoded[T] in the
// request context on success and answers 400 with the issues otherwise.
func BindJSON[T any](s *nullbind.Schema[T], opt nullbind.ParseOpt) echo.MiddlewareFunc {
	opt = middleware.OrDefault(opt)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d, err := middleware.BindRequest(c.Request(), s, opt)
			if err != nil {
				return c.JSON(http.StatusBadRequest, middleware.ErrorPayload(err))
			}
			c.SetRequest(c.Request().WithContext(middleware.ContextWithDecoded(c.Request().Context(), d)))
			return next(c)
		}
	}
}

// GetDecoded fetches Decoded[T] from echo.Context.
func GetDecoded[T any](c echo.Context) (nullbind.Decoded[T], bool) {
	return middleware.DecodedFromContext[T](c.Request().Context())
}
