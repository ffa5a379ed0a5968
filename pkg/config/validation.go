package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/text/language"

	"github.com/mentneo/mentmine/pkg/observability/logger"
)

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Service.Name) == "" {
		errs = append(errs, errors.New("service.name is required"))
	}
	if !validPort(c.HTTP.Port) {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}
	if c.Management.Enabled {
		if !validPort(c.Management.Port) {
			errs = append(errs, fmt.Errorf("management.port must be between 1 and 65535, got %d", c.Management.Port))
		}
		if c.Management.Port == c.HTTP.Port {
			errs = append(errs, errors.New("management.port must differ from http.port"))
		}
	}

	errs = append(errs, c.Database.validate()...)

	if c.Query.ScanWarnThreshold < 0 {
		errs = append(errs, errors.New("query.scan_warn_threshold cannot be negative"))
	}
	if tag := strings.TrimSpace(c.Query.Collation); tag != "" {
		if _, err := language.Parse(tag); err != nil {
			errs = append(errs, fmt.Errorf("query.collation %q is not a valid language tag: %w", tag, err))
		}
	}
	for index, field := range c.Query.TimestampFields {
		if strings.TrimSpace(field) == "" {
			errs = append(errs, fmt.Errorf("query.timestamp_fields[%d] cannot be empty", index))
		}
	}

	collections := map[string]string{
		"courses": c.Catalog.Collections.Courses,
		"events":  c.Catalog.Collections.Events,
		"reviews": c.Catalog.Collections.Reviews,
		"team":    c.Catalog.Collections.Team,
	}
	for feature, name := range collections {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("catalog.collections.%s is required", feature))
		}
	}

	if _, err := logger.ParseLogLevel(c.Observability.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("observability.log_level: %w", err))
	}
	if _, err := logger.ParseLogFormat(c.Observability.LogFormat); err != nil {
		errs = append(errs, fmt.Errorf("observability.log_format: %w", err))
	}
	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		errs = append(errs, errors.New("observability.tracing_sample_rate must be between 0 and 1"))
	}
	if c.Observability.TracingEnabled && strings.TrimSpace(c.Observability.TracingEndpoint) == "" {
		errs = append(errs, errors.New("observability.tracing_endpoint is required when tracing is enabled"))
	}

	return errors.Join(errs...)
}

func (d DatabaseConfig) validate() []error {
	dbType := strings.ToLower(strings.TrimSpace(d.Type))
	if !contains(SupportedDatabaseTypes, dbType) {
		return []error{fmt.Errorf("invalid database.type %q (must be one of: %v)", d.Type, SupportedDatabaseTypes)}
	}

	var errs []error
	switch dbType {
	case DatabaseTypeFirestore:
		if strings.TrimSpace(d.ProjectID) == "" {
			errs = append(errs, errors.New("database.project_id is required for Firestore"))
		}
	case DatabaseTypeMongoDB:
		if d.URL == "" {
			errs = append(errs, errors.New("database.url is required for MongoDB"))
		}
		if d.DatabaseName == "" {
			errs = append(errs, errors.New("database.database_name is required for MongoDB"))
		}
	case DatabaseTypeDynamoDB:
		if d.Region == "" {
			errs = append(errs, errors.New("database.region is required for DynamoDB"))
		}
		if (d.AccessKeyID == "") != (d.SecretAccessKey == "") {
			errs = append(errs, errors.New("database.access_key_id and database.secret_access_key must be set together"))
		}
	case DatabaseTypePostgres, DatabaseTypeMySQL, DatabaseTypeRedis:
		if d.URL == "" {
			errs = append(errs, fmt.Errorf("database.url is required when database.type is %s", dbType))
		}
	}
	if d.MaxOpenConns < 0 || d.MaxIdleConns < 0 || d.MaxConns < 0 {
		errs = append(errs, errors.New("database connection pool sizes cannot be negative"))
	}
	if d.QueryTimeout < 0 || d.ConnectTimeout < 0 {
		errs = append(errs, errors.New("database timeouts cannot be negative"))
	}
	return errs
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}

// String returns the full configuration as a formatted string
func (c *Config) String() string {
	return formatStruct(reflect.ValueOf(c).Elem(), reflect.Value{}, "")
}

// Redacted returns the configuration with secrets masked.
// Credentials always count as secrets; pass the secrets Config returned by
// LoadWithSecrets to mask the values that came from the secrets file too.
func (c *Config) Redacted(secrets *Config) string {
	mask := credentialMask(c)
	if secrets != nil {
		mergeMask(reflect.ValueOf(mask).Elem(), reflect.ValueOf(secrets).Elem())
	}
	return formatStruct(reflect.ValueOf(c).Elem(), reflect.ValueOf(mask).Elem(), "")
}

// credentialMask marks the fields that carry credentials in c.
func credentialMask(c *Config) *Config {
	return &Config{Database: DatabaseConfig{
		URL:             c.Database.URL,
		SecretAccessKey: c.Database.SecretAccessKey,
		SessionToken:    c.Database.SessionToken,
	}}
}

func mergeMask(dst, src reflect.Value) {
	for i := 0; i < dst.NumField(); i++ {
		d, s := dst.Field(i), src.Field(i)
		if !d.CanSet() {
			continue
		}
		if d.Kind() == reflect.Struct {
			mergeMask(d, s)
			continue
		}
		if shouldRedact(s) && !shouldRedact(d) {
			d.Set(s)
		}
	}
}

func formatStruct(v, mask reflect.Value, prefix string) string {
	var sb strings.Builder
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)
		if !value.CanInterface() {
			continue
		}
		var maskValue reflect.Value
		if mask.IsValid() {
			maskValue = mask.Field(i)
		}

		fieldName := strings.ToLower(field.Name)
		if tag := field.Tag.Get("mapstructure"); tag != "" && tag != "-" {
			fieldName = tag
		}

		switch value.Kind() {
		case reflect.Struct:
			sb.WriteString(fmt.Sprintf("%s%s:\n", prefix, fieldName))
			sb.WriteString(formatStruct(value, maskValue, prefix+"  "))
		case reflect.Slice:
			if value.Len() == 0 {
				sb.WriteString(fmt.Sprintf("%s%s: []\n", prefix, fieldName))
				continue
			}
			sb.WriteString(fmt.Sprintf("%s%s:\n", prefix, fieldName))
			for j := 0; j < value.Len(); j++ {
				sb.WriteString(fmt.Sprintf("%s  - %v\n", prefix, value.Index(j).Interface()))
			}
		default:
			displayValue := value.Interface()
			if shouldRedact(maskValue) {
				displayValue = "***"
			}
			sb.WriteString(fmt.Sprintf("%s%s: %v\n", prefix, fieldName, displayValue))
		}
	}

	return sb.String()
}

func shouldRedact(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}

	switch v.Kind() {
	case reflect.String:
		return v.String() != ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0
	case reflect.Bool:
		return v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() > 0
	default:
		return false
	}
}
