package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// section is one group of settings filled from the environment. validate
// returns a message per invalid setting, naming its variable.
type section interface {
	validate() []string
}

// Load reads every section from the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := load(cfg.sections()...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOffline reads only the import and logging settings, for tools that
// run the engine without a database.
func LoadOffline() (*Config, error) {
	cfg := &Config{}
	if err := load(&cfg.Import, &cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section and reports all failures at once.
func (c *Config) Validate() error {
	return check(c.sections())
}

func (c *Config) sections() []section {
	return []section{&c.Server, &c.Database, &c.Import, &c.Rate, &c.Security, &c.Logging}
}

func load(sections ...section) error {
	for _, s := range sections {
		if err := fill(reflect.ValueOf(s).Elem()); err != nil {
			return fmt.Errorf("config load: %w", err)
		}
	}
	if err := check(sections); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

func check(sections []section) error {
	var errs []string
	for _, s := range sections {
		errs = append(errs, s.validate()...)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
}

// fill sets each tagged field of a section struct. A field reads its env
// variable, then envAlt, then its default; required fields without a value
// are an error.
func fill(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := f.Tag.Get("env")
		if name == "" || !v.Field(i).CanSet() {
			continue
		}

		raw := os.Getenv(name)
		if alt := f.Tag.Get("envAlt"); raw == "" && alt != "" {
			raw = os.Getenv(alt)
		}
		if raw == "" && f.Tag.Get("required") == "true" {
			return fmt.Errorf("required environment variable %s is not set", name)
		}
		if raw == "" {
			raw = f.Tag.Get("default")
		}
		if raw == "" {
			continue
		}

		if err := assign(v.Field(i), raw); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, raw, err)
		}
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// assign parses raw into dst according to its type. Durations use
// time.ParseDuration; string slices are comma separated with blanks dropped.
func assign(dst reflect.Value, raw string) error {
	if dst.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		dst.SetInt(int64(d))
		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		dst.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		dst.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case reflect.Slice:
		if dst.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", dst.Type().Elem())
		}
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		dst.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported type %s", dst.Type())
	}
	return nil
}

func (c *ServerConfig) validate() []string {
	var errs []string
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Port))
	}
	if c.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	return errs
}

func (c *DatabaseConfig) validate() []string {
	var errs []string
	if c.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.MaxConns < c.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.MaxConns, c.MinConns))
	}
	return errs
}

func (c *ImportConfig) validate() []string {
	var errs []string
	if c.MaxFileSize <= 0 {
		errs = append(errs, "IMPORT_MAX_FILE_SIZE must be positive")
	}
	if c.MaxConcurrent <= 0 {
		errs = append(errs, "IMPORT_MAX_CONCURRENT must be positive")
	}
	if c.MaxWaitTime <= 0 {
		errs = append(errs, "IMPORT_MAX_WAIT_TIME must be positive")
	}
	if c.Timeout <= 0 {
		errs = append(errs, "IMPORT_TIMEOUT must be positive")
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, "IMPORT_STORE_TIMEOUT must be positive")
	}
	if c.StoreTimeout > c.Timeout {
		errs = append(errs, fmt.Sprintf("IMPORT_STORE_TIMEOUT (%s) must not exceed IMPORT_TIMEOUT (%s)",
			c.StoreTimeout, c.Timeout))
	}
	if c.DedupCacheSize <= 0 {
		errs = append(errs, "IMPORT_DEDUP_CACHE_SIZE must be positive")
	}
	return errs
}

func (c *LoggingConfig) validate() []string {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Format))
	}
	return errs
}

func (c *RateLimitConfig) validate() []string {
	if !c.Enabled {
		return nil
	}
	var errs []string
	if c.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.ImportLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_IMPORT must be positive when rate limiting is enabled")
	}
	return errs
}

func (c *SecurityConfig) validate() []string {
	if c.RequireAPIKey && len(c.APIKeys) == 0 {
		return []string{"REQUIRE_API_KEY is set but API_KEYS is empty"}
	}
	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Import: {MaxFileSize: %d, MaxConcurrent: %d, StrictNumbers: %v, DedupFailOpen: %v}, ",
		c.Import.MaxFileSize, c.Import.MaxConcurrent, c.Import.StrictNumbers, c.Import.DedupFailOpen))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: %d configured}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
