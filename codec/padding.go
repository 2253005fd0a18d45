package codec

import "errors"

var (
	errInvalidBlockSize = errors.New("invalid block size")
	errInvalidPadding   = errors.New("invalid padding")
)

// pad applies PKCS#7 padding. A full block is appended when len(b) is already aligned.
func pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	out := make([]byte, len(b)+n)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func unpad(b []byte, blockSize int) ([]byte, error) {
	if blockSize <= 0 || blockSize > 255 {
		return nil, errInvalidBlockSize
	}
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, errInvalidPadding
	}

	n := int(b[len(b)-1])
	if n == 0 || n > blockSize {
		return nil, errInvalidPadding
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, errInvalidPadding
		}
	}
	return b[:len(b)-n], nil
}
