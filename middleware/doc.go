// Package middleware provides the bearer guard used by the reference backend in
// examples/http-minimal and by goCare's integration tests.
//
// [Guard] reads the Authorization header, verifies the token with a [Verifier] and
// stores the verified claims in the request context. [HS256] builds a Verifier for
// HMAC-signed tokens.
//
// Rejections are written as JSON {"message": "..."} with status 401, which is the
// error shape the goCare gateway normalizes.
//
// # What this package must NOT do
//
//   - Import goCare or session.
//   - Decrypt sealed tokens; only plaintext bearer tokens reach the server.
package middleware
