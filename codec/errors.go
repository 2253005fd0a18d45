package codec

import "errors"

var (
	// ErrInvalidKey is returned by NewCodec when the key is not hex or not a valid AES key size.
	ErrInvalidKey = errors.New("invalid codec key")
	// ErrDecryption covers bad IVs, bad ciphertext, padding failures and empty or garbled plaintext.
	ErrDecryption = errors.New("token decryption failed")
	// ErrMalformedToken is returned when a plaintext token cannot be parsed into claims.
	ErrMalformedToken = errors.New("malformed token")
)
