package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"pura-pata-web/internal/metrics"
)

// Metrics records each request under its route pattern, so /perros/:id
// is one series rather than one per dog.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
