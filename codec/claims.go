package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the normalized, unverified view of a plaintext token's payload.
type Claims struct {
	UserID    string
	Role      string
	Email     string
	Name      string
	ExpiresAt time.Time
	IssuedAt  time.Time
	// Raw holds every claim as decoded; numbers are json.Number.
	Raw map[string]any
}

// Expired reports whether the token carries an expiry that is not after now.
// Tokens without an exp claim never expire from the client's point of view.
func (c *Claims) Expired(now time.Time) bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt)
}

// userIDClaims lists the claim names the backend has used for the user identifier,
// in lookup order.
var userIDClaims = []string{"id", "userId", "_id", "sub"}

// DecodeClaims parses the payload segment of a compact token without verifying its
// signature. DecodeClaims returns ErrMalformedToken when the token cannot be parsed.
func DecodeClaims(token BearerToken) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}

	parser := jwt.NewParser(jwt.WithJSONNumber())
	raw := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(string(token), raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	exp, err := raw.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: exp: %v", ErrMalformedToken, err)
	}
	iat, err := raw.GetIssuedAt()
	if err != nil {
		return nil, fmt.Errorf("%w: iat: %v", ErrMalformedToken, err)
	}

	out := &Claims{
		Role:  stringClaim(raw, "role"),
		Email: stringClaim(raw, "email"),
		Name:  stringClaim(raw, "name"),
		Raw:   map[string]any(raw),
	}
	for _, name := range userIDClaims {
		if v := stringClaim(raw, name); v != "" {
			out.UserID = v
			break
		}
	}
	if exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat != nil {
		out.IssuedAt = iat.Time
	}

	return out, nil
}

func stringClaim(raw jwt.MapClaims, name string) string {
	switch v := raw[name].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
