package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mentneo/mentmine/pkg/config"
	"github.com/mentneo/mentmine/pkg/observability/logger"
)

type mockLogger struct{}

func (m *mockLogger) Debug(string, ...any)                      {}
func (m *mockLogger) Info(string, ...any)                       {}
func (m *mockLogger) Warn(string, ...any)                       {}
func (m *mockLogger) Error(string, ...any)                      {}
func (m *mockLogger) With(...any) logger.Logger                 { return m }
func (m *mockLogger) WithContext(context.Context) logger.Logger { return m }

func TestNewReader_EmptyType(t *testing.T) {
	reader, err := NewReader(config.DatabaseConfig{Type: ""}, &mockLogger{})
	if err == nil {
		t.Fatal("expected error for empty type")
	}
	if reader != nil {
		t.Fatal("expected nil reader")
	}
}

func TestNewReader_UnsupportedType(t *testing.T) {
	_, err := NewReader(config.DatabaseConfig{Type: "cassandra"}, &mockLogger{})
	if err == nil {
		t.Fatal("expected unsupported type error")
	}
	if !strings.Contains(err.Error(), "unsupported database.type") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewReader_MemoryWithoutFixtures(t *testing.T) {
	reader, err := NewReader(config.DatabaseConfig{Type: "Memory"}, &mockLogger{})
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer reader.Close()

	records, err := reader.FetchAll(context.Background(), "courses")
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty collection, got %v, %v", records, err)
	}
}

func TestNewReader_MemoryFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	fixtures := "collections:\n  courses:\n    - id: go-101\n      price: 99\n"
	if err := os.WriteFile(path, []byte(fixtures), 0o600); err != nil {
		t.Fatalf("write fixtures: %v", err)
	}

	reader, err := NewReader(config.DatabaseConfig{Type: config.DatabaseTypeMemory, FixturesFile: path}, &mockLogger{})
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	records, err := reader.FetchAll(context.Background(), "courses")
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(records) != 1 || records[0].ID() != "go-101" {
		t.Fatalf("unexpected records: %v", records)
	}
	if err := reader.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
}

func TestNewReader_ValidationErrorsYieldNilReader(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
	}{
		{"memory missing fixtures", config.DatabaseConfig{Type: config.DatabaseTypeMemory, FixturesFile: "/does/not/exist.yaml"}},
		{"firestore without project", config.DatabaseConfig{Type: config.DatabaseTypeFirestore}},
		{"postgres without url", config.DatabaseConfig{Type: config.DatabaseTypePostgres}},
		{"mysql without url", config.DatabaseConfig{Type: config.DatabaseTypeMySQL}},
		{"mongodb without url", config.DatabaseConfig{Type: config.DatabaseTypeMongoDB}},
		{"dynamodb without region", config.DatabaseConfig{Type: config.DatabaseTypeDynamoDB}},
		{"redis without url", config.DatabaseConfig{Type: config.DatabaseTypeRedis}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewReader(tt.cfg, &mockLogger{})
			if err == nil {
				t.Fatal("expected validation error")
			}
			if reader != nil {
				t.Fatalf("expected nil reader, got %T", reader)
			}
		})
	}
}
