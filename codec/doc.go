// Package codec seals and opens session tokens with a fixed pre-shared AES key and
// decodes token claims without verifying a signature.
//
// # Token forms
//
// A [SealedToken] is the base64 AES-CBC ciphertext that may be written to durable
// storage together with its IV. A [BearerToken] is the decrypted compact token that is
// presented to the backend. The two are distinct types and never convert implicitly.
//
// # Architecture boundaries
//
// The codec provides confidentiality of stored tokens against casual inspection only.
// CBC is not an authenticated mode and [DecodeClaims] does not check signatures, so
// decoded [Claims] are advisory. The backend remains the authority on every request.
//
// # What this package must NOT do
//
//   - Import goCare or session (no upward imports).
//   - Persist or log plaintext tokens.
//   - Treat decoded claims as proof of identity.
package codec
