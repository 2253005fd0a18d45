// Package session holds the client's credential state: a volatile [Store] mirrored to a
// durable [Storage] backend.
//
// # Credential pairs
//
// A [Credential] is a sealed token plus its IV. Both halves are written with one
// [Storage.Save] call and cleared with one [Storage.Delete] call. A durable record with
// only one half is treated as no credential and is never decrypted.
//
// # Backends
//
//   - [MemoryStorage]: process-local, for tests and short-lived tools.
//   - [FileStorage]: a YAML document on disk, replaced atomically on every write.
//   - [RedisStorage]: two prefixed string keys written in a MULTI/EXEC transaction.
//
// # What this package must NOT do
//
//   - Import goCare (no upward imports).
//   - Persist plaintext tokens or decoded claims.
//   - Issue HTTP requests.
package session
