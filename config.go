package goCare

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goCare/session"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the complete client configuration. It is read from an optional YAML file
// and overlaid by environment variables (see LoadConfig).
type Config struct {
	API     APIConfig     `yaml:"api"`
	Codec   CodecConfig   `yaml:"codec"`
	Storage StorageConfig `yaml:"storage"`
	HTTP    HTTPConfig    `yaml:"http"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the backend.
type APIConfig struct {
	BaseURL      string `yaml:"base_url" env:"GOCARE_API_URL" env-default:"http://localhost:3000"`
	LoginPath    string `yaml:"login_path" env:"GOCARE_LOGIN_PATH" env-default:"/auth/login"`
	RegisterPath string `yaml:"register_path" env:"GOCARE_REGISTER_PATH" env-default:"/auth/register"`
}

/*
====================================
CODEC CONFIG
====================================
*/

// CodecConfig overrides the compiled-in token key. Empty selects codec.DefaultKeyHex.
type CodecConfig struct {
	KeyHex string `yaml:"key_hex" env:"GOCARE_TOKEN_KEY"`
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageBackend selects the durable credential store.
type StorageBackend string

const (
	// StorageMemory keeps credentials for the life of the process only.
	StorageMemory StorageBackend = "memory"
	// StorageFile keeps credentials in a YAML file (default).
	StorageFile StorageBackend = "file"
	// StorageRedis keeps credentials in Redis.
	StorageRedis StorageBackend = "redis"
)

// StorageConfig configures durable credential storage.
type StorageConfig struct {
	Backend StorageBackend `yaml:"backend" env:"GOCARE_STORAGE" env-default:"file"`
	// Path of the file backend; empty selects session.DefaultFilePath.
	Path        string        `yaml:"path" env:"GOCARE_STORAGE_PATH"`
	RedisAddr   string        `yaml:"redis_addr" env:"GOCARE_REDIS_ADDR" env-default:"127.0.0.1:6379"`
	RedisPrefix string        `yaml:"redis_prefix" env:"GOCARE_REDIS_PREFIX" env-default:"gocare"`
	RedisTTL    time.Duration `yaml:"redis_ttl" env:"GOCARE_REDIS_TTL"`
	Keys        session.Keys  `yaml:"keys"`
}

/*
====================================
HTTP CONFIG
====================================
*/

// HTTPConfig configures the transport. A zero Timeout leaves requests bounded only by
// the caller's context.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" env:"GOCARE_HTTP_TIMEOUT"`
	SSLInsecure   bool          `yaml:"ssl_insecure" env:"GOCARE_SSL_INSECURE"`
	TrustedCerts  string        `yaml:"trusted_certs" env:"GOCARE_TRUSTED_CERTS"`
	EnableMetrics bool          `yaml:"enable_metrics" env:"GOCARE_HTTP_METRICS"`
	UserAgent     string        `yaml:"user_agent" env:"GOCARE_USER_AGENT" env-default:"gocare/1"`
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles the in-process counters and the request latency histogram.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled" env:"GOCARE_METRICS"`
	EnableLatencyHistograms bool `yaml:"latency_histograms" env:"GOCARE_METRICS_LATENCY"`
}

/*
====================================
LOG CONFIG
====================================
*/

// LogConfig configures the default logrus logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"GOCARE_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"GOCARE_LOG_FORMAT" env-default:"text"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:      "http://localhost:3000",
			LoginPath:    "/auth/login",
			RegisterPath: "/auth/register",
		},
		Storage: StorageConfig{
			Backend:     StorageFile,
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "gocare",
			Keys:        session.DefaultKeys(),
		},
		HTTP: HTTPConfig{
			UserAgent: "gocare/1",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads path (YAML) and then the environment. With an empty path only the
// environment and defaults are used. The result is validated.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("could not read config %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("could not read config from env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration and fills empty storage keys with defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("API BaseURL must be set")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("API BaseURL is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("API BaseURL must use http or https")
	}
	if u.Host == "" {
		return errors.New("API BaseURL must include a host")
	}
	if !strings.HasPrefix(c.API.LoginPath, "/") || !strings.HasPrefix(c.API.RegisterPath, "/") {
		return errors.New("API auth paths must start with /")
	}

	switch c.Storage.Backend {
	case StorageMemory, StorageFile:
	case StorageRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("Storage RedisAddr required for redis backend")
		}
		if c.Storage.RedisTTL < 0 {
			return errors.New("Storage RedisTTL must be >= 0")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}
	def := session.DefaultKeys()
	if c.Storage.Keys.Token == "" {
		c.Storage.Keys.Token = def.Token
	}
	if c.Storage.Keys.IV == "" {
		c.Storage.Keys.IV = def.IV
	}
	if c.Storage.Keys.Token == c.Storage.Keys.IV {
		return errors.New("Storage token and iv keys must differ")
	}

	if c.HTTP.Timeout < 0 {
		return errors.New("HTTP Timeout must be >= 0")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics latency histograms require metrics to be enabled")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("unsupported log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.Log.Format)
	}

	return nil
}
