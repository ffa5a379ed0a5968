package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mentneo/mentmine/pkg/config"
	"github.com/mentneo/mentmine/pkg/health"
	"github.com/mentneo/mentmine/pkg/observability/logger"
	"github.com/mentneo/mentmine/pkg/query"
	"github.com/mentneo/mentmine/pkg/store"
)

const testFixtures = `collections:
  courses:
    - id: go
      title: Go fundamentals
      featured: true
      price: 120
    - id: css
      title: Modern CSS
      featured: false
      price: 40
    - id: k8s
      title: Kubernetes in production
      featured: true
      price: 300
  team:
    - id: t1
      name: Sana
      role: Instructor
      order: 1
  reviews:
    - id: r1
      name: Asha
      approved: true
      rating: 5
`

func writeTestConfig(t *testing.T, database string) string {
	t.Helper()
	dir := t.TempDir()
	fixtures := filepath.Join(dir, "fixtures.yaml")
	if err := os.WriteFile(fixtures, []byte(testFixtures), 0o600); err != nil {
		t.Fatalf("write fixtures: %v", err)
	}
	if database == "" {
		database = "  type: memory\n  fixtures_file: " + fixtures + "\n"
	}
	cfg := "service:\n  name: mentmine-test\nobservability:\n  log_level: error\ndatabase:\n" + database
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, opts ServiceCommandOptions, args ...string) (string, error) {
	t.Helper()
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = "MENTMINE_CLI_TEST"
	}
	var out, errOut bytes.Buffer
	cmd := NewServiceCommand(opts)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewServiceCommand_Subcommands(t *testing.T) {
	cmd := NewServiceCommand(ServiceCommandOptions{Name: "mentmine"})
	for _, path := range [][]string{{"serve"}, {"query"}, {"healthcheck"}, {"version"}, {"config", "validate"}, {"config", "show"}, {"completion"}} {
		found, _, err := cmd.Find(path)
		if err != nil || found == nil || found.Name() != path[len(path)-1] {
			t.Fatalf("expected command %v, got %v (err=%v)", path, found, err)
		}
	}
	if flag := cmd.PersistentFlags().ShorthandLookup("c"); flag == nil || flag.Name != "config-file" {
		t.Fatal("expected -c/--config-file persistent flag")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, ServiceCommandOptions{Name: "mentmine"}, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "Service:    mentmine") || !strings.Contains(out, "Version:") {
		t.Fatalf("unexpected version output:\n%s", out)
	}
}

func TestQueryCommand_JSON(t *testing.T) {
	cfgPath := writeTestConfig(t, "")
	out, err := runCommand(t, ServiceCommandOptions{},
		"query", "courses", "-c", cfgPath, "--where", "featured=true", "--sort", "-price")
	if err != nil {
		t.Fatalf("query error = %v", err)
	}

	var records []map[string]any
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(records) != 2 || records[0]["id"] != "k8s" || records[1]["id"] != "go" {
		t.Fatalf("unexpected records: %v", records)
	}
}

func TestQueryCommand_YAMLWithLimit(t *testing.T) {
	cfgPath := writeTestConfig(t, "")
	out, err := runCommand(t, ServiceCommandOptions{},
		"query", "courses", "-c", cfgPath, "-w", "price>=40", "-s", "price", "-n", "1", "-o", "yaml")
	if err != nil {
		t.Fatalf("query error = %v", err)
	}

	var records []map[string]any
	if err := yaml.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}
	if len(records) != 1 || records[0]["id"] != "css" {
		t.Fatalf("unexpected records: %v", records)
	}
}

func TestQueryCommand_InputErrors(t *testing.T) {
	cfgPath := writeTestConfig(t, "")
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing collection", []string{"query", "-c", cfgPath}, "accepts 1 arg"},
		{"bad output", []string{"query", "courses", "-c", cfgPath, "-o", "xml"}, "unsupported output"},
		{"bad where", []string{"query", "courses", "-c", cfgPath, "-w", "featured"}, "no operator"},
		{"negative limit", []string{"query", "courses", "-c", cfgPath, "--limit=-1"}, "must not be negative"},
		{"blank collection", []string{"query", " ", "-c", cfgPath}, "collection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCommand(t, ServiceCommandOptions{}, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

type failingReader struct{}

func (failingReader) FetchAll(context.Context, string) ([]query.Record, error) {
	return nil, errors.New("connection refused")
}
func (failingReader) HealthCheck(context.Context) error { return errors.New("connection refused") }
func (failingReader) Close() error                      { return nil }

func TestQueryCommand_StoreFailure(t *testing.T) {
	cfgPath := writeTestConfig(t, "")
	opts := ServiceCommandOptions{
		NewReader: func(config.DatabaseConfig, logger.Logger) (store.Reader, error) { return failingReader{}, nil },
	}
	_, err := runCommand(t, opts, "query", "courses", "-c", cfgPath)
	if !errors.Is(err, query.ErrDataAccess) {
		t.Fatalf("error = %v, want ErrDataAccess", err)
	}
}

func TestHealthcheckCommand(t *testing.T) {
	cfgPath := writeTestConfig(t, "")
	out, err := runCommand(t, ServiceCommandOptions{}, "healthcheck", "-c", cfgPath)
	if err != nil {
		t.Fatalf("healthcheck error = %v", err)
	}
	for _, want := range []string{"store", "collection:courses", "collection:events", "degraded"} {
		if !strings.Contains(out, want) {
			t.Fatalf("healthcheck output missing %q:\n%s", want, out)
		}
	}

	opts := ServiceCommandOptions{
		NewReader: func(config.DatabaseConfig, logger.Logger) (store.Reader, error) { return failingReader{}, nil },
	}
	out, err = runCommand(t, opts, "healthcheck", "-c", cfgPath)
	if err == nil || !strings.Contains(out, "connection refused") {
		t.Fatalf("expected failing healthcheck, err=%v out=\n%s", err, out)
	}
	if code := exitCode(err); code != 2 {
		t.Fatalf("exitCode() = %d, want 2 for an unhealthy store", code)
	}
}

func TestConfigValidateCommand(t *testing.T) {
	out, err := runCommand(t, ServiceCommandOptions{}, "config", "validate", "-c", writeTestConfig(t, ""))
	if err != nil || !strings.Contains(out, "Configuration is valid") {
		t.Fatalf("validate = %q, %v", out, err)
	}

	_, err = runCommand(t, ServiceCommandOptions{}, "config", "validate", "-c", writeTestConfig(t, "  type: couchdb\n"))
	if err == nil || !strings.Contains(err.Error(), "database.type") {
		t.Fatalf("expected database.type error, got %v", err)
	}
}

func TestConfigShowCommand_RedactsCredentials(t *testing.T) {
	cfgPath := writeTestConfig(t, "  type: postgres\n  url: postgres://site:hunter2@db:5432/site\n")

	out, err := runCommand(t, ServiceCommandOptions{}, "config", "show", "-c", cfgPath)
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	if strings.Contains(out, "hunter2") || !strings.Contains(out, "url: ***") {
		t.Fatalf("credentials not redacted:\n%s", out)
	}

	out, err = runCommand(t, ServiceCommandOptions{}, "config", "show", "--show-secrets", "-c", cfgPath)
	if err != nil || !strings.Contains(out, "hunter2") {
		t.Fatalf("show --show-secrets = %v\n%s", err, out)
	}
}

func TestNewApp_WiresHealthChecks(t *testing.T) {
	cfg := config.DefaultConfig()
	app, err := NewApp(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	defer app.Close()

	names := app.Health.List()
	want := []string{"collection:courses", "collection:events", "collection:reviews", "collection:team", "store"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("checks = %v, want %v", names, want)
	}
	if got := app.API().Collections; len(got) != 4 {
		t.Fatalf("API collections = %v", got)
	}

	result := app.Health.Check(context.Background())
	if result.Status != health.StatusDegraded || !result.IsHealthy() {
		t.Fatalf("empty memory store should be degraded but healthy, got %s", result.Status)
	}
}

func TestNewApp_ReaderError(t *testing.T) {
	_, err := NewApp(config.DefaultConfig(), nil, func(config.DatabaseConfig, logger.Logger) (store.Reader, error) {
		return nil, errors.New("boom")
	})
	if err == nil || !strings.Contains(err.Error(), "open memory store") {
		t.Fatalf("error = %v", err)
	}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("open failure must match ErrStoreUnavailable: %v", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"data access", fmt.Errorf("run: %w", &query.DataAccessError{Collection: "courses", Err: errors.New("timeout")}), 2},
		{"store unavailable", fmt.Errorf("open mongodb store: %w: %w", ErrStoreUnavailable, errors.New("no route")), 2},
		{"usage", errors.New("accepts 1 arg(s), received 0"), 1},
		{"invalid query", query.ErrInvalidConfig, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.HTTP.Port = 0
	cfg.Management.Enabled = false
	app, err := NewApp(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := Serve(ctx, app); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
}

func TestParseWhere_LaterExpressionWins(t *testing.T) {
	filters, err := parseWhere([]string{"price>10", "", "price<=50"}, time.Now())
	if err != nil {
		t.Fatalf("parseWhere() error = %v", err)
	}
	cond, ok := filters["price"].(query.Comparison)
	if len(filters) != 1 || !ok || cond.Operator != query.OpLessOrEqual {
		t.Fatalf("filters = %#v", filters)
	}
}

func TestResolveEnvPrefix(t *testing.T) {
	if got := resolveEnvPrefix(" site "); got != "SITE" {
		t.Fatalf("resolveEnvPrefix() = %q", got)
	}
	if got := resolveEnvPrefix(""); got != config.DefaultEnvPrefix {
		t.Fatalf("resolveEnvPrefix(\"\") = %q", got)
	}
}

func TestQueryCommand_FlagOverridesFixtures(t *testing.T) {
	cfgPath := writeTestConfig(t, "  type: memory\n")
	fixtures := filepath.Join(t.TempDir(), "other.yaml")
	if err := os.WriteFile(fixtures, []byte(testFixtures), 0o600); err != nil {
		t.Fatalf("write fixtures: %v", err)
	}

	out, err := runCommand(t, ServiceCommandOptions{}, "query", "team", "-c", cfgPath, "--fixtures-file", fixtures)
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	if !strings.Contains(out, `"Sana"`) {
		t.Fatalf("expected team from flag fixtures, got:\n%s", out)
	}
}
