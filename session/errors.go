package session

import "errors"

var (
	// ErrStorageUnavailable wraps failures of the durable storage backend.
	ErrStorageUnavailable = errors.New("credential storage unavailable")
	// ErrIncompleteCredential is returned by Set when the token or IV is missing.
	ErrIncompleteCredential = errors.New("credential requires both token and iv")
	// ErrNoCredential means no complete credential pair exists.
	ErrNoCredential = errors.New("no credential")
)
