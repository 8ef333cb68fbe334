package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reoring/nullbind"
	"github.com/reoring/nullbind/middleware"
)

// BindJSON binds the request body against s with opt (or the middleware
// defaults when opt is the zero value), stores Decoded[T] in the request
// context and aborts with 400 and an issues payload on failure.
func BindJSON[T any](s *nullbind.Schema[T], opt nullbind.ParseOpt) gin.HandlerFunc {
	opt = middleware.OrDefault(opt)
	return func(c *gin.Context) {
		d, err := middleware.BindRequest(c.Request, s, opt)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrorPayload(err))
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithDecoded(c.Request.Context(), d))
		c.Next()
	}
}

// GetDecoded fetches Decoded[T] from gin.Context.
func GetDecoded[T any](c *gin.Context) (nullbind.Decoded[T], bool) {
	return middleware.DecodedFromContext[T](c.Request.Context())
}
