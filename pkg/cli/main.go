package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mentneo/mentmine/pkg/config"
	"github.com/mentneo/mentmine/pkg/health"
	"github.com/mentneo/mentmine/pkg/observability/logger"
	"github.com/mentneo/mentmine/pkg/query"
	"github.com/mentneo/mentmine/pkg/server"
	"github.com/mentneo/mentmine/pkg/store"
	"github.com/mentneo/mentmine/pkg/version"
)

// ServiceCommandOptions configures the root command.
type ServiceCommandOptions struct {
	Name        string
	Description string
	ConfigPath  string
	EnvPrefix   string

	// Optional: overrides store.NewReader (tests, custom backends).
	NewReader ReaderFactory
	// Optional: defaults to os.Stdout.
	Out io.Writer
	// Optional: defaults to time.Now; used to resolve "now" in --where.
	Now func() time.Time
}

// NewServiceCommand creates the CLI with serve, query, healthcheck, version and config subcommands.
func NewServiceCommand(opts ServiceCommandOptions) *cobra.Command {
	if opts.Name == "" {
		opts.Name = "mentmine"
	}
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = config.DefaultEnvPrefix
	}
	if opts.NewReader == nil {
		opts.NewReader = store.NewReader
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	rootCmd := &cobra.Command{
		Use:           opts.Name,
		Short:         opts.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if opts.Out != nil {
		rootCmd.SetOut(opts.Out)
	}

	var cfgPath string
	var secretFilePath string
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config-file", "c", opts.ConfigPath, "config file path")
	rootCmd.PersistentFlags().StringVar(&secretFilePath, "secret-file", "", "path to secrets file (sets "+opts.EnvPrefix+"_SECRETS_FILE)")
	config.RegisterFlags(rootCmd.PersistentFlags())

	loadConfig := func() (*config.Config, *config.Config, error) {
		if err := applySecretFileFlag(opts.EnvPrefix, secretFilePath); err != nil {
			return nil, nil, err
		}
		cfg, secrets, err := config.NewViperLoader(cfgPath, opts.EnvPrefix).
			WithFlags(rootCmd.PersistentFlags()).
			LoadWithSecrets()
		if err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, secrets, nil
	}

	// Commands that print results log to stderr so stdout stays parseable.
	openApp := func(logOut io.Writer) (*App, error) {
		cfg, _, err := loadConfig()
		if err != nil {
			return nil, err
		}
		log, err := NewLogger(cfg, logOut)
		if err != nil {
			return nil, err
		}
		logConfigIfDebug(log, cfg)
		return NewApp(cfg, log, opts.NewReader)
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Current(opts.Name)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Service:    %s\n", info.Service)
			fmt.Fprintf(out, "Version:    %s\n", info.Version)
			fmt.Fprintf(out, "Commit:     %s\n", info.Commit)
			fmt.Fprintf(out, "Build Time: %s\n", info.BuildTime)
			fmt.Fprintf(out, "Go:         %s\n", info.GoVersion)
			return nil
		},
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the public API and management servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(nil)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, app)
		},
	}
	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = serveCmd.RunE

	var (
		where  []string
		sortBy string
		limit  int
		output string
	)
	queryCmd := &cobra.Command{
		Use:   "query <collection>",
		Short: "Run a client-side query against a collection and print the records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := strings.ToLower(strings.TrimSpace(output))
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported output %q (supported: json, yaml)", output)
			}
			filters, err := parseWhere(where, opts.Now())
			if err != nil {
				return err
			}
			qc := query.Config{Filters: filters, SortField: sortBy}
			if cmd.Flags().Changed("limit") {
				if limit < 0 {
					return fmt.Errorf("--limit must not be negative, got %d", limit)
				}
				qc.Limit = query.Limit(limit)
			}

			app, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeApp(app)

			records, err := app.Querier.Query(commandContext(cmd), args[0], qc)
			if err != nil {
				return err
			}
			return writeRecords(cmd.OutOrStdout(), format, records)
		},
	}
	queryCmd.Flags().StringArrayVarP(&where, "where", "w", nil, `filter expression, e.g. "price>=100" (repeatable, ANDed)`)
	queryCmd.Flags().StringVarP(&sortBy, "sort", "s", "", `sort field, prefix with "-" for descending`)
	queryCmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of records")
	queryCmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	rootCmd.AddCommand(queryCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "healthcheck",
		Short: "Check store connectivity and catalog collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeApp(app)
			return Healthcheck(commandContext(cmd), cmd.OutOrStdout(), app.Health)
		},
	})

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := loadConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
			return nil
		},
	})

	var showSecrets bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, secrets, err := loadConfig()
			if err != nil {
				return err
			}
			if showSecrets {
				fmt.Fprint(cmd.OutOrStdout(), cfg.String())
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), cfg.Redacted(secrets))
			return nil
		},
	}
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "show secret values")
	configCmd.AddCommand(showCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = false
	rootCmd.InitDefaultCompletionCmd()

	return rootCmd
}

// Serve runs the HTTP servers until ctx is done. The store is closed on shutdown.
func Serve(ctx context.Context, app *App) error {
	if strings.EqualFold(app.Config.Observability.LogLevel, string(logger.DebugLevel)) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	opts := &server.RunOptions{
		Config:          app.Config,
		API:             app.API(),
		Logger:          app.Logger,
		HealthRegistry:  app.Health,
		MetricsRegistry: app.Metrics,
		ShutdownHooks: []server.LifecycleHook{
			{Name: "close store", Fn: func(context.Context) error { return app.Close() }},
		},
	}
	servers, err := server.BuildHTTPServers(opts)
	if err != nil {
		_ = app.Close()
		return err
	}
	return server.RunHTTPServers(ctx, servers, opts)
}

// Healthcheck runs every registered check, prints one line per check and
// fails when the aggregate is unhealthy.
func Healthcheck(ctx context.Context, out io.Writer, registry *health.Registry) error {
	result := registry.Check(ctx)
	for _, check := range result.Checks {
		line := fmt.Sprintf("%-28s %s", check.Name, check.Status)
		switch {
		case check.Error != "":
			line += "  " + check.Error
		case check.Message != "" && check.Message != "OK":
			line += "  " + check.Message
		}
		fmt.Fprintln(out, line)
	}
	if !result.IsHealthy() {
		return fmt.Errorf("healthcheck failed: status %s: %w", result.Status, ErrStoreUnavailable)
	}
	return nil
}

// NewLogger builds the zap logger described by cfg.Observability. A nil out means stdout.
func NewLogger(cfg *config.Config, out io.Writer) (logger.Logger, error) {
	log, err := logger.NewZapLogger(logger.Config{
		Level:  logger.LogLevel(cfg.Observability.LogLevel),
		Format: logger.LogFormat(cfg.Observability.LogFormat),
		Output: out,
		Fields: map[string]string{
			"service":     cfg.Service.Name,
			"environment": cfg.Service.Environment,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}

// parseWhere mirrors the HTTP where parameter: blanks are skipped and a later
// expression on the same field replaces an earlier one.
func parseWhere(exprs []string, now time.Time) (query.Filters, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	filters := make(query.Filters, len(exprs))
	for _, expr := range exprs {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		field, cond, err := query.ParseExpressionAt(expr, now)
		if err != nil {
			return nil, fmt.Errorf("--where %q: %w", expr, err)
		}
		filters[field] = cond
	}
	return filters, nil
}

func writeRecords(out io.Writer, format string, records []query.Record) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func closeApp(app *App) {
	if err := app.Close(); err != nil {
		app.Logger.Error("failed to close store", "error", err)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func applySecretFileFlag(envPrefix, secretFilePath string) error {
	if secretFilePath == "" {
		return nil
	}
	info, err := os.Stat(secretFilePath)
	if err != nil {
		return fmt.Errorf("secret file %s is not accessible: %w", secretFilePath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("secret file %s must not be a directory", secretFilePath)
	}
	return os.Setenv(resolveEnvPrefix(envPrefix)+"_SECRETS_FILE", filepath.Clean(secretFilePath))
}

// Execute runs the command and exits with appropriate code.
func Execute(cmd *cobra.Command) {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for store failures and 1 for everything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, query.ErrDataAccess), errors.Is(err, ErrStoreUnavailable):
		return 2
	}
	return 1
}

func logConfigIfDebug(log logger.Logger, cfg *config.Config) {
	if log == nil || cfg == nil {
		return
	}
	if !strings.EqualFold(cfg.Observability.LogLevel, string(logger.DebugLevel)) {
		return
	}
	log.Debug("effective configuration", "config", cfg.Redacted(nil))
}

func resolveEnvPrefix(prefix string) string {
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		return config.DefaultEnvPrefix
	}
	return strings.ToUpper(trimmed)
}
