package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mentneo/mentmine/pkg/observability/metrics"
)

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := metrics.NewRegistry("mentmine")

	r := gin.New()
	r.Use(Metrics(reg))
	r.GET("/v1/collections/:name", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/v1/collections/courses", "/v1/collections/events", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`mentmine_http_requests_total{method="GET",path="/v1/collections/:name",status="200"} 2`,
		`mentmine_http_requests_total{method="GET",path="unmatched",status="404"} 1`,
		`mentmine_http_requests_in_flight 0`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
