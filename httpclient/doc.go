// Package httpclient builds and caches the *http.Client instances used by goCare.
//
// Clients are keyed by their configuration so that every Client built with the same
// TLS and timeout settings shares one connection pool. When metrics are enabled the
// transport is wrapped with promhttp round-tripper instrumentation (in-flight gauge,
// request counter, DNS/TLS trace histograms and request duration).
//
// # What this package must NOT do
//
//   - Import goCare.
//   - Add authentication headers; credential injection belongs to the gateway.
package httpclient
