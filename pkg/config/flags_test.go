package config

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("MENTMINE_LOG_LEVEL", "warn")
	t.Setenv("MENTMINE_HTTP_PORT", "8282")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--log-level=debug"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := NewViperLoader("", "MENTMINE").WithFlags(fs).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected flag to win, got log level %q", cfg.Observability.LogLevel)
	}
	if cfg.HTTP.Port != 8282 {
		t.Errorf("unset flag must not override env, got port %d", cfg.HTTP.Port)
	}
}

func TestRegisterFlags_Idempotent(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	RegisterFlags(fs)
	for _, name := range []string{"log-level", "log-format", "http-port", "management-port", "db-type", "fixtures-file"} {
		if fs.Lookup(name) == nil {
			t.Errorf("flag --%s not registered", name)
		}
	}
}
