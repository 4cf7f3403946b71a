package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/venue_backend/appctx"
	"github.com/gin-gonic/gin"
)

// VenueMiddleware binds the venue id from the X-Venue-Id header into the
// request context. Every scoped query downstream filters by it.
func VenueMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		venueId := strings.TrimSpace(c.GetHeader("X-Venue-Id"))
		if venueId == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "X-Venue-Id header is required"})
			return
		}
		ctx := appctx.Set(c.Request.Context(), appctx.ContextKeyVenueId, venueId)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
