package goCare

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/MrEthical07/goCare/codec"
	"github.com/MrEthical07/goCare/session"
	"github.com/sirupsen/logrus"
)

// Client is one user session against the backend. It owns the credential store and
// issues every request through the gateway (Do and the verb helpers).
//
// A Client is created by Builder.Build, mutated only by Login, Register, HandleToken,
// Hydrate and Logout, and released with Close. Methods are safe for concurrent use.
type Client struct {
	config   Config
	baseURL  *url.URL
	http     *http.Client
	codec    *codec.Codec
	store    *session.Store
	notifier Notifier
	logger   logrus.FieldLogger
	metrics  *Metrics
	closers  []func() error
}

// Close releases resources opened by Build, such as a Redis connection it created.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config {
	return c.config
}

// Session returns the credential store.
func (c *Client) Session() *session.Store {
	return c.store
}

// Codec returns the token codec.
func (c *Client) Codec() *codec.Codec {
	return c.codec
}

// IsAuthenticated reports whether a session is active in this process.
func (c *Client) IsAuthenticated() bool {
	return c.store.IsAuthenticated()
}

// Claims returns the decoded claims of the active session, or nil. Claims are
// unverified and only suitable for display.
func (c *Client) Claims() *codec.Claims {
	cred, ok := c.store.Get()
	if !ok {
		return nil
	}
	return cred.Claims
}

// MetricsSnapshot returns the current client counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}
