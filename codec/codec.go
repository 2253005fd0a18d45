package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/MrEthical07/goCare/internal"
)

const (
	// DefaultKeyHex is the AES-256 key compiled into the client. The backend seals
	// tokens with the same key.
	DefaultKeyHex = "1dadb247fe47339ac85664e3e12955076c1ecb04ea192f17245d896d19b69600"

	// IVSize is the decoded IV length in bytes.
	IVSize = aes.BlockSize
)

// Codec seals and opens session tokens with one AES key. A Codec is safe for
// concurrent use.
type Codec struct {
	block cipher.Block
}

// NewCodec builds a Codec from a hex-encoded AES key (16, 24 or 32 bytes).
// An empty keyHex selects DefaultKeyHex.
func NewCodec(keyHex string) (*Codec, error) {
	keyHex = strings.TrimSpace(keyHex)
	if keyHex == "" {
		keyHex = DefaultKeyHex
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return &Codec{block: block}, nil
}

// Decrypt opens a sealed token with the base64-encoded IV.
//
// Decrypt returns ErrDecryption when the IV or ciphertext is malformed, the padding
// does not validate, or the plaintext is empty or not a compact token.
func (c *Codec) Decrypt(token SealedToken, iv string) (BearerToken, error) {
	rawIV, err := decodeIV(iv)
	if err != nil {
		return "", err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(string(token))
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext is not base64", ErrDecryption)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d is not a multiple of the block size", ErrDecryption, len(ciphertext))
	}

	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, rawIV).CryptBlocks(out, ciphertext)

	plain, err := unpad(out, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	if len(plain) == 0 {
		return "", fmt.Errorf("%w: empty plaintext", ErrDecryption)
	}
	if !isCompact(plain) {
		return "", fmt.Errorf("%w: plaintext is not a compact token", ErrDecryption)
	}

	return BearerToken(plain), nil
}

// Encrypt seals a plaintext token with the base64-encoded IV. It is the reference
// encryptor matching Decrypt.
func (c *Codec) Encrypt(token BearerToken, iv string) (SealedToken, error) {
	if !isCompact([]byte(token)) {
		return "", fmt.Errorf("%w: plaintext is not a compact token", ErrMalformedToken)
	}
	rawIV, err := decodeIV(iv)
	if err != nil {
		return "", err
	}

	padded := pad([]byte(token), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, rawIV).CryptBlocks(out, padded)

	return SealedToken(base64.StdEncoding.EncodeToString(out)), nil
}

// Seal encrypts token under a freshly generated IV and returns both.
func (c *Codec) Seal(token BearerToken) (SealedToken, string, error) {
	iv, err := NewIV()
	if err != nil {
		return "", "", err
	}
	sealed, err := c.Encrypt(token, iv)
	if err != nil {
		return "", "", err
	}
	return sealed, iv, nil
}

// Open decrypts a sealed token and decodes its claims.
func (c *Codec) Open(token SealedToken, iv string) (BearerToken, *Claims, error) {
	plain, err := c.Decrypt(token, iv)
	if err != nil {
		return "", nil, err
	}
	claims, err := DecodeClaims(plain)
	if err != nil {
		return "", nil, err
	}
	return plain, claims, nil
}

// NewIV returns a random IV encoded as standard base64.
func NewIV() (string, error) {
	raw, err := internal.RandomBytes(IVSize)
	if err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func decodeIV(iv string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(iv)
	if err != nil {
		return nil, fmt.Errorf("%w: iv is not base64", ErrDecryption)
	}
	if len(raw) != IVSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrDecryption, IVSize, len(raw))
	}
	return raw, nil
}
