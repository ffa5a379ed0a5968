package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mentneo/mentmine/pkg/catalog"
	"github.com/mentneo/mentmine/pkg/config"
	"github.com/mentneo/mentmine/pkg/health"
	"github.com/mentneo/mentmine/pkg/observability/logger"
	"github.com/mentneo/mentmine/pkg/observability/metrics"
	"github.com/mentneo/mentmine/pkg/query"
	"github.com/mentneo/mentmine/pkg/store/memory"
	"github.com/mentneo/mentmine/pkg/version"
)

type mockLogger struct{}

func (m *mockLogger) Debug(string, ...any)                      {}
func (m *mockLogger) Info(string, ...any)                       {}
func (m *mockLogger) Warn(string, ...any)                       {}
func (m *mockLogger) Error(string, ...any)                      {}
func (m *mockLogger) With(...any) logger.Logger                 { return m }
func (m *mockLogger) WithContext(context.Context) logger.Logger { return m }

var fixedNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func newTestAPI(t *testing.T, source query.Source) API {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if source == nil {
		source = memory.New(map[string][]query.Record{
			"courses": {
				{"id": "a", "title": "Go", "featured": true, "price": int64(100)},
				{"id": "b", "title": "CSS", "featured": false, "price": int64(50)},
				{"id": "c", "title": "Kubernetes", "featured": true, "price": int64(200)},
			},
			"events": {
				{"id": "e1", "title": "Workshop", "date": "2026-10-15T18:00:00Z"},
				{"id": "e2", "title": "Retro", "date": "2026-10-01T18:00:00Z"},
			},
			"reviews": {{"id": "r1", "name": "Asha", "approved": true, "rating": int64(5)}},
			"team":    {{"id": "t1", "name": "Sana", "order": int64(1)}},
			"secrets": {{"id": "s1"}},
		})
	}
	adapter, err := query.NewAdapter(source, &mockLogger{}, query.Options{})
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	cols := config.DefaultConfig().Catalog.Collections
	return API{
		Querier:     adapter,
		Catalog:     catalog.NewService(adapter, cols, &mockLogger{}),
		Collections: []string{cols.Courses, cols.Events, cols.Reviews, cols.Team},
		Now:         func() time.Time { return fixedNow },
	}
}

func doGet(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON from %s: %v", target, err)
		}
	}
	return rec, body
}

func itemIDs(body map[string]any) []string {
	items, _ := body["items"].([]any)
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			ids = append(ids, m["id"].(string))
		}
	}
	return ids
}

func TestPublicAPI_Collections(t *testing.T) {
	r := NewPublicRouter(newTestAPI(t, nil), config.ObservabilityConfig{}, nil, &mockLogger{})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantIDs    []string
	}{
		{"featured sorted by price", "/v1/collections/courses?where=featured%3Dtrue&sort=-price", http.StatusOK, []string{"c", "a"}},
		{"comparison and limit", "/v1/collections/courses?where=price%3E%3D60&sort=price&limit=1", http.StatusOK, []string{"a"}},
		{"no matches", "/v1/collections/courses?where=price%3E1000", http.StatusOK, []string{}},
		{"limit zero", "/v1/collections/courses?limit=0", http.StatusOK, []string{}},
		{"bad limit", "/v1/collections/courses?limit=abc", http.StatusBadRequest, nil},
		{"negative limit", "/v1/collections/courses?limit=-2", http.StatusBadRequest, nil},
		{"bad where", "/v1/collections/courses?where=featured", http.StatusBadRequest, nil},
		{"not exposed", "/v1/collections/secrets", http.StatusNotFound, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doGet(t, r, tt.target)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantIDs == nil {
				return
			}
			got := itemIDs(body)
			if strings.Join(got, ",") != strings.Join(tt.wantIDs, ",") {
				t.Fatalf("ids = %v, want %v", got, tt.wantIDs)
			}
			if int(body["count"].(float64)) != len(tt.wantIDs) || body["collection"] != "courses" {
				t.Fatalf("unexpected envelope: %v", body)
			}
		})
	}
}

func TestPublicAPI_Catalog(t *testing.T) {
	r := NewPublicRouter(newTestAPI(t, nil), config.ObservabilityConfig{}, nil, &mockLogger{})

	tests := []struct {
		target  string
		wantIDs []string
	}{
		{"/v1/courses?featured=true", []string{"c", "a"}},
		{"/v1/courses?limit=1", []string{"c"}},
		{"/v1/events/upcoming", []string{"e1"}},
		{"/v1/reviews", []string{"r1"}},
		{"/v1/team", []string{"t1"}},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec, body := doGet(t, r, tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if got := itemIDs(body); strings.Join(got, ",") != strings.Join(tt.wantIDs, ",") {
				t.Fatalf("ids = %v, want %v", got, tt.wantIDs)
			}
		})
	}

	if rec, _ := doGet(t, r, "/v1/courses?featured=maybe"); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid featured flag: status = %d", rec.Code)
	}
}

func TestPublicAPI_StoreFailureIsBadGateway(t *testing.T) {
	failing := query.SourceFunc(func(context.Context, string) ([]query.Record, error) {
		return nil, errors.New("dial tcp 10.1.2.3:443: i/o timeout")
	})
	r := NewPublicRouter(newTestAPI(t, failing), config.ObservabilityConfig{}, nil, &mockLogger{})

	for _, target := range []string{"/v1/collections/courses", "/v1/team"} {
		rec, body := doGet(t, r, target)
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("%s: status = %d, want 502", target, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "10.1.2.3") {
			t.Fatalf("%s: response leaks the store error: %s", target, rec.Body.String())
		}
		if id, _ := body["request_id"].(string); id == "" || id != rec.Header().Get("X-Request-ID") {
			t.Fatalf("%s: request ID in body should match the response header", target)
		}
	}
}

func TestPublicAPI_RecordsMetrics(t *testing.T) {
	reg := metrics.NewRegistry("mentmine")
	r := NewPublicRouter(newTestAPI(t, nil), config.ObservabilityConfig{}, reg, &mockLogger{})
	doGet(t, r, "/v1/team")

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `path="/v1/team"`) {
		t.Fatalf("expected /v1/team series in metrics output")
	}
}

type failingCheck struct{}

func (failingCheck) HealthCheck(context.Context) error { return errors.New("store down") }

func TestManagementServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := health.NewRegistry()
	registry.Register(health.NewPingChecker("alive"))

	mgmt := NewManagementServer(config.DefaultConfig().Management, &mockLogger{}, registry,
		metrics.NewRegistry("mentmine"), version.Info{Service: "mentmine", Version: "v1.0.0"})
	h := mgmt.Handler()

	if rec, body := doGet(t, h, "/health"); rec.Code != http.StatusOK || body["status"] != "healthy" {
		t.Fatalf("/health = %d %v", rec.Code, body)
	}
	if rec, _ := doGet(t, h, "/ready"); rec.Code != http.StatusOK {
		t.Fatalf("/ready = %d", rec.Code)
	}
	if rec, body := doGet(t, h, "/version"); rec.Code != http.StatusOK || body["version"] != "v1.0.0" {
		t.Fatalf("/version = %d %v", rec.Code, body)
	}
	if rec, _ := doGet(t, h, "/metrics"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("/metrics = %d", rec.Code)
	}

	registry.Register(health.NewAdapterChecker("store", failingCheck{}, time.Second))
	if rec, body := doGet(t, h, "/ready"); rec.Code != http.StatusServiceUnavailable || body["status"] != "unhealthy" {
		t.Fatalf("/ready with failing store = %d %v", rec.Code, body)
	}
}

func TestRunHTTPServers_GracefulShutdown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.HTTP.Port = 0
	cfg.Management.Port = 0

	var hookRan bool
	opts := &RunOptions{
		Config: cfg,
		API:    newTestAPI(t, nil),
		Logger: &mockLogger{},
		ShutdownHooks: []LifecycleHook{{Name: "close store", Fn: func(context.Context) error {
			hookRan = true
			return nil
		}}},
	}
	servers, err := BuildHTTPServers(opts)
	if err != nil {
		t.Fatalf("BuildHTTPServers() error = %v", err)
	}
	if servers.Management == nil {
		t.Fatal("management server should be enabled by default")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunHTTPServers(ctx, servers, opts) }()

	select {
	case <-servers.Public.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("public server did not start")
	}
	<-servers.Management.Ready()

	resp, err := http.Get("http://" + servers.Public.Addr() + "/v1/team")
	if err != nil {
		t.Fatalf("GET /v1/team: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunHTTPServers() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("servers did not shut down")
	}
	if !hookRan {
		t.Fatal("shutdown hook did not run")
	}
}

func TestRunHTTPServers_HooksRunWhenTracingFails(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.HTTP.Port = 0
	cfg.Management.Enabled = false
	cfg.Observability.TracingEnabled = true
	cfg.Observability.TracingEndpoint = ""

	var hookRan bool
	opts := &RunOptions{
		Config: cfg,
		API:    newTestAPI(t, nil),
		Logger: &mockLogger{},
		ShutdownHooks: []LifecycleHook{{Name: "close store", Fn: func(context.Context) error {
			hookRan = true
			return nil
		}}},
	}
	servers, err := BuildHTTPServers(opts)
	if err != nil {
		t.Fatalf("BuildHTTPServers() error = %v", err)
	}

	err = RunHTTPServers(context.Background(), servers, opts)
	if err == nil || !strings.Contains(err.Error(), "tracing") {
		t.Fatalf("expected tracing init error, got %v", err)
	}
	if !hookRan {
		t.Fatal("shutdown hook must run when startup fails")
	}
}

func TestBuildHTTPServers_Validation(t *testing.T) {
	if _, err := BuildHTTPServers(&RunOptions{}); err == nil {
		t.Fatal("expected error without config")
	}
	if _, err := BuildHTTPServers(&RunOptions{Config: config.DefaultConfig(), Logger: &mockLogger{}}); err == nil {
		t.Fatal("expected error without API")
	}
}
