package goCare

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/MrEthical07/goCare/codec"
	"github.com/MrEthical07/goCare/httpclient"
	"github.com/MrEthical07/goCare/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Builder assembles a Client. Each With method replaces the corresponding default;
// Build may be called once.
type Builder struct {
	config Config

	storage    session.Storage
	redis      redis.UniversalClient
	httpClient *http.Client
	registerer prometheus.Registerer
	logger     logrus.FieldLogger
	notifier   Notifier

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithBaseURL sets the backend base URL.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithStorage uses s for durable credentials instead of the configured backend.
func (b *Builder) WithStorage(s session.Storage) *Builder {
	b.storage = s
	return b
}

// WithRedis supplies the client for the redis storage backend. Build does not close
// a client supplied here.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	b.config.Storage.Backend = StorageRedis
	return b
}

// WithHTTPClient uses client for every request instead of one from the shared factory.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithPrometheusRegisterer registers transport metrics with reg instead of the
// default registerer. It only matters when HTTP.EnableMetrics is set.
func (b *Builder) WithPrometheusRegisterer(reg prometheus.Registerer) *Builder {
	b.registerer = reg
	return b
}

// WithLogger replaces the logger built from Log config.
func (b *Builder) WithLogger(logger logrus.FieldLogger) *Builder {
	b.logger = logger
	return b
}

// WithNotifier sets the sink that presents request failures to the user.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithMetricsEnabled toggles the client counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the request latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Client. Build performs no
// network I/O; call Client.Hydrate to restore a stored session.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not parse base url: %w", err)
	}

	logger := b.logger
	if logger == nil {
		logger = newLogger(cfg.Log)
	}

	cd, err := codec.NewCodec(cfg.Codec.KeyHex)
	if err != nil {
		return nil, err
	}

	c := &Client{
		config:  cfg,
		baseURL: baseURL,
		codec:   cd,
		logger:  logger,
		metrics: NewMetrics(cfg.Metrics),
	}

	// -------- TRANSPORT --------
	c.http = b.httpClient
	if c.http == nil {
		cc := httpclient.ClientConfig{
			TrustedCerts:  cfg.HTTP.TrustedCerts,
			SSLInsecure:   cfg.HTTP.SSLInsecure,
			Timeout:       cfg.HTTP.Timeout,
			EnableMetrics: cfg.HTTP.EnableMetrics,
		}
		if cfg.HTTP.EnableMetrics {
			mc, err := httpclient.NewMetricsConfig(b.registerer, "gocare")
			if err != nil {
				_ = c.Close()
				return nil, fmt.Errorf("could not register http client metrics: %w", err)
			}
			cc.MetricsConfig = mc
		}
		c.http = httpclient.GetFactory().GetOrCreateClient(httpclient.ClientKey(cc), cc)
	}

	// -------- DURABLE STORAGE --------
	storage := b.storage
	if storage == nil {
		storage, err = b.buildStorage(cfg.Storage, c)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	c.store = session.NewStore(storage, cd, cfg.Storage.Keys)

	c.notifier = b.notifier
	if c.notifier == nil {
		c.notifier = logNotifier{logger: logger.WithField("component", "notifier")}
	}

	b.built = true

	logger.WithFields(logrus.Fields{
		"base_url": baseURL.String(),
		"storage":  string(cfg.Storage.Backend),
	}).Debug("client built")

	return c, nil
}

func (b *Builder) buildStorage(cfg StorageConfig, c *Client) (session.Storage, error) {
	switch cfg.Backend {
	case StorageMemory:
		return session.NewMemoryStorage(), nil
	case StorageRedis:
		rdb := b.redis
		if rdb == nil {
			owned := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			c.closers = append(c.closers, owned.Close)
			rdb = owned
		}
		return session.NewRedisStorage(rdb, cfg.RedisPrefix, cfg.RedisTTL), nil
	default:
		path := cfg.Path
		if path == "" {
			var err error
			path, err = session.DefaultFilePath()
			if err != nil {
				return nil, fmt.Errorf("could not locate session file: %w", err)
			}
		}
		return session.NewFileStorage(path), nil
	}
}
