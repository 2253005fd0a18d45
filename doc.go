// Package goCare is the client-side session core of the patient-management app. It
// acquires tokens and keeps the sealed session across restarts. Every backend request
// goes through one authenticated gateway.
//
// A [Client] is an explicit session object created by [Builder.Build]. There is no
// package-level session; two Clients built over the same storage share the durable
// credential but not the in-memory one. Client methods are safe to call from
// multiple goroutines.
//
// # Architecture boundaries
//
// goCare is the public surface. It exposes [Client], [Builder], [Config], the request
// [Body] constructors, [Response] and the single failure shape [RequestFailure].
// Token sealing lives in codec, credential persistence in session, and the shared
// transport in httpclient.
//
// # Credential handling
//
// The backend token is kept sealed (AES-CBC, base64, with its IV) in durable storage
// under the keys "token" and "iv". The plaintext form only exists in memory while a
// request is being built. Claims are decoded without signature verification and are
// for display only; the backend remains the authority.
//
// When the stored token cannot be decrypted the gateway sends the request without a
// credential and returns whatever the backend answers. This fail-open path is counted
// by [MetricDecryptFailOpen] and logged.
//
// # What this package must NOT do
//
//   - Persist the plaintext token or the decoded claims.
//   - Retry requests or refresh tokens.
//   - Perform I/O in Build; call [Client.Hydrate] to restore a stored session.
package goCare
