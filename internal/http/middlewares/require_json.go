package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/bloghub/internal/http/apierr"
	"github.com/gin-gonic/gin"
)

// RequireJSON rejects non-JSON bodies on write methods. Bodiless writes such
// as POST /posts/:id/publish pass through.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength == 0 {
				break
			}
			ct := c.GetHeader("Content-Type")
			// allow "application/json; charset=utf-8"
			if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				// invalid input at the transport level
				apierr.Abort(c, http.StatusUnsupportedMediaType, apierr.CodeInvalidInput, "Content-Type must be application/json", nil)
				return
			}
		}
		c.Next()
	}
}
