package codec

// SealedToken is the ciphertext form of a session token (standard base64).
type SealedToken string

// BearerToken is the plaintext compact token sent in the Authorization header.
//
// String redacts the value so tokens do not leak through %v or log fields; use
// string(t) where the raw value is required.
type BearerToken string

func (t BearerToken) String() string {
	if t == "" {
		return ""
	}
	return "[redacted]"
}

// isCompact reports whether b only holds base64url characters and dots, which is the
// alphabet of a compact JWS. A wrong IV garbles the first block and fails this check.
func isCompact(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
