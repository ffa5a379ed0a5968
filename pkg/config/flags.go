package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagBindings maps command-line flags to configuration keys. A flag only
// overrides the file and environment when it is set explicitly.
var flagBindings = []struct {
	flag  string
	key   string
	usage string
}{
	{"log-level", "observability.log_level", "log level (debug, info, warn, error)"},
	{"log-format", "observability.log_format", "log format (json, text)"},
	{"http-port", "http.port", "public API port"},
	{"management-port", "management.port", "management server port"},
	{"db-type", "database.type", "backing store type"},
	{"fixtures-file", "database.fixtures_file", "fixtures file for the memory store"},
}

// RegisterFlags adds the configuration override flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	for _, b := range flagBindings {
		if fs.Lookup(b.flag) != nil {
			continue
		}
		switch b.key {
		case "http.port", "management.port":
			fs.Int(b.flag, 0, b.usage)
		default:
			fs.String(b.flag, "", b.usage)
		}
	}
}

// WithFlags makes explicitly set flags in fs take precedence over ENV.
func (l *ViperLoader) WithFlags(fs *pflag.FlagSet) *ViperLoader {
	l.flags = fs
	return l
}

func (l *ViperLoader) bindFlags(v *viper.Viper) error {
	if l.flags == nil {
		return nil
	}
	for _, b := range flagBindings {
		f := l.flags.Lookup(b.flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(b.key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", b.flag, err)
		}
	}
	return nil
}
