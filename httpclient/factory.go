package httpclient

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// ClientConfig holds configuration for HTTP client creation
type ClientConfig struct {
	TrustedCerts  string
	SSLInsecure   bool
	Timeout       time.Duration
	EnableMetrics bool
	MetricsConfig *MetricsConfig
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	InFlightGauge   prometheus.Gauge
	RequestsCounter *prometheus.CounterVec
	Trace           *promhttp.InstrumentTrace
	HistogramVec    prometheus.ObserverVec
}

// Factory manages shared HTTP clients with different configurations
type Factory struct {
	mu      sync.RWMutex
	clients map[string]*http.Client
	logger  logrus.FieldLogger
}

var (
	factory *Factory
	once    sync.Once
)

// GetFactory returns the process-wide factory.
func GetFactory() *Factory {
	once.Do(func() {
		factory = NewFactory(logrus.StandardLogger())
	})
	return factory
}

// NewFactory returns an empty factory that logs through logger.
func NewFactory(logger logrus.FieldLogger) *Factory {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Factory{
		clients: make(map[string]*http.Client),
		logger:  logger.WithField("component", "httpclient"),
	}
}

// GetOrCreateClient returns an existing HTTP client or creates a new one based on the configuration
func (f *Factory) GetOrCreateClient(key string, config ClientConfig) *http.Client {
	f.mu.RLock()
	if client, exists := f.clients[key]; exists {
		f.mu.RUnlock()
		return client
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double-check in case another goroutine created it
	if client, exists := f.clients[key]; exists {
		return client
	}

	client := f.createHTTPClient(config)
	f.clients[key] = client
	f.logger.Debugf("created new HTTP client for key: %s", key)

	return client
}

// createHTTPClient creates a new HTTP client with the given configuration
func (f *Factory) createHTTPClient(config ClientConfig) *http.Client {
	// Get the SystemCertPool, continue with an empty pool on error
	rootCAs, _ := x509.SystemCertPool()
	if rootCAs == nil {
		rootCAs = x509.NewCertPool()
	}

	if config.TrustedCerts != "" {
		if ok := rootCAs.AppendCertsFromPEM([]byte(config.TrustedCerts)); !ok {
			f.logger.Debug("no certs appended, using only system certs")
		}
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: config.SSLInsecure,
		RootCAs:            rootCAs,
		MinVersion:         tls.VersionTLS12,
	}
	if config.SSLInsecure {
		f.logger.Warn("TLS certificate verification is disabled")
	}

	// A zero timeout leaves the request bounded by its context only.
	var rt http.RoundTripper = tr
	if config.EnableMetrics && config.MetricsConfig != nil {
		f.logger.Debug("creating HTTP client with metrics instrumentation")
		rt = promhttp.InstrumentRoundTripperInFlight(config.MetricsConfig.InFlightGauge,
			promhttp.InstrumentRoundTripperCounter(config.MetricsConfig.RequestsCounter,
				promhttp.InstrumentRoundTripperTrace(config.MetricsConfig.Trace,
					promhttp.InstrumentRoundTripperDuration(config.MetricsConfig.HistogramVec, tr),
				),
			),
		)
	}

	return &http.Client{
		Transport: rt,
		Timeout:   config.Timeout,
	}
}

// Len returns the number of cached clients.
func (f *Factory) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// ClientKey creates a deterministic cache key for a configuration. Clients share a
// key only when they trust the same certificates and report to the same instruments.
func ClientKey(config ClientConfig) string {
	var b strings.Builder
	if config.TrustedCerts != "" {
		sum := sha256.Sum256([]byte(config.TrustedCerts))
		b.WriteString("certs=")
		b.WriteString(hex.EncodeToString(sum[:8]))
		b.WriteString(":")
	}
	if config.SSLInsecure {
		b.WriteString("insecure:")
	}
	if config.EnableMetrics {
		b.WriteString("metrics")
		if config.MetricsConfig != nil {
			// NewMetricsConfig hands back the same counter for the same registry.
			fmt.Fprintf(&b, "=%p", config.MetricsConfig.RequestsCounter)
		}
		b.WriteString(":")
	}
	b.WriteString(config.Timeout.String())
	return b.String()
}
