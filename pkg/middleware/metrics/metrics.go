// Package metrics records Prometheus HTTP metrics per request.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mentneo/mentmine/pkg/observability/metrics"
)

// Metrics records duration, count and in-flight requests into reg.
// The path label is the route template, "unmatched" for 404s, so label
// cardinality stays bounded.
func Metrics(reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		reg.IncrementInFlight()
		defer reg.DecrementInFlight()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		reg.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
