package goCare

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goCare/codec"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Fetch issues GET path.
func (c *Client) Fetch(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Create issues POST path with body.
func (c *Client) Create(ctx context.Context, path string, body Body) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Replace issues PUT path with body.
func (c *Client) Replace(ctx context.Context, path string, body Body) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Remove issues DELETE path.
func (c *Client) Remove(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do sends one request to the backend.
//
// The bearer credential comes from the session store, or from durable storage when
// the store is empty. If the stored token cannot be decrypted the request is sent
// without a credential and the backend's answer is returned as usual.
//
// Any non-2xx status or transport error is returned as *RequestFailure after the
// Notifier has been called. On success the Response is ResultEmpty for 204,
// ResultJSON for a JSON content type and ResultText otherwise. Do never retries.
func (c *Client) Do(ctx context.Context, method, path string, body Body) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	requestID := requestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := c.logger.WithFields(logrus.Fields{
		"component":  "gateway",
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		var err error
		reader, contentType, err = body.encode()
		if err != nil {
			return nil, fmt.Errorf("could not encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return nil, fmt.Errorf("could not build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.config.HTTP.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.HTTP.UserAgent)
	}
	if bearer, ok := c.bearer(ctx, log); ok {
		req.Header.Set("Authorization", "Bearer "+string(bearer))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.Observe(MetricRequestLatency, time.Since(start))
	if err != nil {
		return nil, c.fail(ctx, log, &RequestFailure{Message: err.Error(), Err: err})
	}
	defer resp.Body.Close()

	log = log.WithField("status", resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(ctx, log, &RequestFailure{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("could not read response: %v", err),
			Err:        err,
		})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(ctx, log, &RequestFailure{
			StatusCode: resp.StatusCode,
			Message:    failureMessage(resp.StatusCode, raw),
		})
	}

	out, err := newResponse(resp, raw)
	if err != nil {
		return nil, c.fail(ctx, log, &RequestFailure{
			StatusCode: resp.StatusCode,
			Message:    err.Error(),
			Err:        err,
		})
	}

	c.metrics.Inc(MetricRequestSuccess)
	log.WithField("result", out.Kind.String()).Debug("request completed")
	return out, nil
}

// bearer returns the plaintext token for the Authorization header.
func (c *Client) bearer(ctx context.Context, log logrus.FieldLogger) (codec.BearerToken, bool) {
	cred, ok := c.store.Get()
	if !ok {
		cred, ok = c.store.Persisted(ctx)
	}
	if !ok {
		return "", false
	}

	plain, err := c.codec.Decrypt(cred.Token, cred.IV)
	if err != nil {
		// Fail open: the backend rejects the anonymous request and the caller sees
		// that failure.
		c.metrics.Inc(MetricDecryptFailOpen)
		log.WithError(err).Warn("stored token could not be decrypted, sending request without credential")
		return "", false
	}
	return plain, true
}

func (c *Client) fail(ctx context.Context, log logrus.FieldLogger, failure *RequestFailure) error {
	c.metrics.Inc(MetricRequestFailure)
	log.WithError(failure).Warn("request failed")
	if c.notifier != nil {
		c.notifier.Notify(ctx, failure)
	}
	return failure
}

// resolve joins path onto the base URL. Absolute http(s) URLs are used unchanged.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	base := strings.TrimRight(c.baseURL.String(), "/")
	return base + "/" + strings.TrimLeft(path, "/")
}
