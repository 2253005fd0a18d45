package goCare

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/goCare/codec"
	"github.com/MrEthical07/goCare/session"
)

var (
	// ErrDecryption is returned when a sealed token cannot be opened.
	ErrDecryption = codec.ErrDecryption
	// ErrMalformedToken is returned when a plaintext token's claims cannot be parsed.
	ErrMalformedToken = codec.ErrMalformedToken
	// ErrStorageUnavailable wraps durable credential storage failures.
	ErrStorageUnavailable = session.ErrStorageUnavailable
	// ErrIncompleteCredential is returned when a token is stored without its IV or the reverse.
	ErrIncompleteCredential = session.ErrIncompleteCredential
	// ErrNoCredential means no session is held.
	ErrNoCredential = session.ErrNoCredential
	// ErrInvalidEnvelope is returned when a login or register response carries no token.
	ErrInvalidEnvelope = errors.New("invalid token envelope")
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
)

// RequestFailure is the single failure shape returned by every gateway call that
// did not produce a 2xx response. StatusCode is 0 for transport errors.
type RequestFailure struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestFailure) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *RequestFailure) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Unauthorized reports whether the backend rejected the credential (401 or 403).
func (e *RequestFailure) Unauthorized() bool {
	return e != nil && (e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// AsRequestFailure unwraps err to a *RequestFailure.
func AsRequestFailure(err error) (*RequestFailure, bool) {
	var rf *RequestFailure
	if errors.As(err, &rf) {
		return rf, true
	}
	return nil, false
}
