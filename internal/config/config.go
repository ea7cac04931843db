package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	vmerrors "github.com/vango-dev/vmodel/internal/errors"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. VMODEL_PORT.
	EnvPrefix = "vmodel"

	// ConfigName is the base name of the optional config file (modelctl.yaml, .json, .toml).
	ConfigName = "modelctl"

	// DefaultPort is the default devtools port.
	DefaultPort = 7070

	// DefaultHost is the default devtools host.
	DefaultHost = "localhost"

	// DefaultDebounce is the default snapshot debounce.
	DefaultDebounce = 500 * time.Millisecond
)

// Persistence backends.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// Flag and viper keys.
const (
	KeyHost             = "host"
	KeyPort             = "port"
	KeyReadOnly         = "read-only"
	KeyAccessLog        = "access-log"
	KeyPersist          = "persist"
	KeyBucket           = "s3-bucket"
	KeyPrefix           = "s3-prefix"
	KeyRegion           = "s3-region"
	KeyDebounce         = "debounce"
	KeyLogLevel         = "log-level"
	KeyLogFormat        = "log-format"
	KeyMetricsNamespace = "metrics-namespace"
	KeyTracing          = "tracing"
)

// Config is the modelctl configuration.
type Config struct {
	// Serve configures the devtools server.
	Serve ServeConfig

	// Persist configures snapshot storage.
	Persist PersistConfig

	// Log configures the slog logger.
	Log LogConfig

	// Metrics configures the Prometheus interceptor.
	Metrics MetricsConfig

	// Tracing enables the OpenTelemetry interceptor.
	Tracing bool
}

// ServeConfig configures the devtools server.
type ServeConfig struct {
	Host      string
	Port      int
	ReadOnly  bool
	AccessLog bool
}

// PersistConfig configures snapshot storage.
type PersistConfig struct {
	// Backend is one of "none", "memory" or "s3".
	Backend string

	// Bucket is the S3 bucket. Required for the s3 backend.
	Bucket string

	// Prefix is the S3 key prefix.
	Prefix string

	// Region overrides the AWS region from the environment.
	Region string

	// Debounce is the quiet period before a snapshot is written.
	Debounce time.Duration
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string

	// Format is text or json.
	Format string
}

// MetricsConfig configures metrics.
type MetricsConfig struct {
	Namespace string
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Serve: ServeConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Persist: PersistConfig{
			Backend:  BackendMemory,
			Prefix:   "models",
			Debounce: DefaultDebounce,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: "vmodel",
		},
	}
}

// BindFlags registers every configuration flag on fs with its default.
func BindFlags(fs *pflag.FlagSet) {
	d := New()

	fs.String(KeyHost, d.Serve.Host, "Host the devtools server listens on")
	fs.Int(KeyPort, d.Serve.Port, "Port the devtools server listens on")
	fs.Bool(KeyReadOnly, d.Serve.ReadOnly, "Disable state writes and action dispatch over HTTP")
	fs.Bool(KeyAccessLog, d.Serve.AccessLog, "Log every HTTP request")
	fs.String(KeyPersist, d.Persist.Backend, "Snapshot backend: none, memory or s3")
	fs.String(KeyBucket, d.Persist.Bucket, "S3 bucket for snapshots")
	fs.String(KeyPrefix, d.Persist.Prefix, "S3 key prefix for snapshots")
	fs.String(KeyRegion, d.Persist.Region, "AWS region (default: from the AWS environment)")
	fs.Duration(KeyDebounce, d.Persist.Debounce, "Quiet period before a snapshot is written")
	fs.String(KeyLogLevel, d.Log.Level, "Log level: debug, info, warn or error")
	fs.String(KeyLogFormat, d.Log.Format, "Log format: text or json")
	fs.String(KeyMetricsNamespace, d.Metrics.Namespace, "Prometheus metrics namespace")
	fs.Bool(KeyTracing, d.Tracing, "Trace actions with OpenTelemetry")
}

// InitEnv loads env files into the process environment and points v at
// VMODEL_* variables. Missing env files are ignored.
func InitEnv(v *viper.Viper, envFiles ...string) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", ".env.local"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// ReadFile reads the config file at path, or modelctl.* from dir when path
// is empty. A missing default file is not an error.
func ReadFile(v *viper.Viper, path, dir string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return vmerrors.New("M040").WithDetailf("config file: %v", err).Wrap(err)
	}
	return nil
}

// Load builds a Config from v. Flags bound with v.BindPFlags take effect
// when set; otherwise env, config file and defaults apply in that order.
func Load(v *viper.Viper) (*Config, error) {
	c := New()

	if v.IsSet(KeyHost) {
		c.Serve.Host = v.GetString(KeyHost)
	}
	if v.IsSet(KeyPort) {
		c.Serve.Port = v.GetInt(KeyPort)
	}
	c.Serve.ReadOnly = v.GetBool(KeyReadOnly)
	c.Serve.AccessLog = v.GetBool(KeyAccessLog)

	if v.IsSet(KeyPersist) {
		c.Persist.Backend = strings.ToLower(v.GetString(KeyPersist))
	}
	c.Persist.Bucket = v.GetString(KeyBucket)
	if v.IsSet(KeyPrefix) {
		c.Persist.Prefix = v.GetString(KeyPrefix)
	}
	c.Persist.Region = v.GetString(KeyRegion)
	if v.IsSet(KeyDebounce) {
		c.Persist.Debounce = v.GetDuration(KeyDebounce)
	}

	if v.IsSet(KeyLogLevel) {
		c.Log.Level = strings.ToLower(v.GetString(KeyLogLevel))
	}
	if v.IsSet(KeyLogFormat) {
		c.Log.Format = strings.ToLower(v.GetString(KeyLogFormat))
	}
	if v.IsSet(KeyMetricsNamespace) {
		c.Metrics.Namespace = v.GetString(KeyMetricsNamespace)
	}
	c.Tracing = v.GetBool(KeyTracing)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return invalid("port must be between 0 and 65535, got %d", c.Serve.Port)
	}

	switch c.Persist.Backend {
	case BackendNone, BackendMemory:
	case BackendS3:
		if c.Persist.Bucket == "" {
			return invalid("the s3 backend requires --%s", KeyBucket).
				WithSuggestion("Set VMODEL_S3_BUCKET or pass --" + KeyBucket)
		}
	default:
		return invalid("unknown persist backend %q", c.Persist.Backend).
			WithSuggestion("Use none, memory or s3")
	}

	if c.Persist.Debounce < 0 {
		return invalid("debounce must not be negative, got %s", c.Persist.Debounce)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return invalid("%v", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("unknown log format %q", c.Log.Format).
			WithSuggestion("Use text or json")
	}
	return nil
}

func invalid(format string, args ...any) *vmerrors.ModelError {
	return vmerrors.New("M040").WithDetailf(format, args...)
}

// Address returns the listen address of the devtools server.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Serve.Host, strconv.Itoa(c.Serve.Port))
}

// URL returns the base URL of the devtools server.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", l.Level)
	}
	return level, nil
}

// NewLogger builds the slog logger described by c, writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.Log.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
