package codec

import (
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func TestDecodeClaimsExtractsFields(t *testing.T) {
	iat := time.Now().Add(-time.Minute).Truncate(time.Second)
	exp := iat.Add(time.Hour)
	tok := signedToken(t, gjwt.MapClaims{
		"id":    42,
		"role":  "admin",
		"email": "a@clinic.test",
		"name":  "Dr A",
		"iat":   iat.Unix(),
		"exp":   exp.Unix(),
	})

	claims, err := DecodeClaims(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.UserID != "42" {
		t.Fatalf("expected numeric id rendered as 42, got %q", claims.UserID)
	}
	if claims.Role != "admin" || claims.Email != "a@clinic.test" || claims.Name != "Dr A" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.IssuedAt.Equal(iat) || !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected times: iat=%v exp=%v", claims.IssuedAt, claims.ExpiresAt)
	}
	if claims.Expired(iat) {
		t.Fatal("token should not be expired before exp")
	}
	if !claims.Expired(exp) {
		t.Fatal("token should be expired at exp")
	}
}

func TestDecodeClaimsIgnoresSignature(t *testing.T) {
	tok := signedToken(t, gjwt.MapClaims{"sub": "user-7"})
	parts := strings.Split(string(tok), ".")
	tampered := BearerToken(parts[0] + "." + parts[1] + ".invalid")

	claims, err := DecodeClaims(tampered)
	if err != nil {
		t.Fatalf("decode must not verify signatures: %v", err)
	}
	if claims.UserID != "user-7" {
		t.Fatalf("expected sub fallback, got %q", claims.UserID)
	}
}

func TestDecodeClaimsUserIDPrecedence(t *testing.T) {
	tok := signedToken(t, gjwt.MapClaims{"sub": "s", "userId": "u", "id": "i"})
	claims, err := DecodeClaims(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.UserID != "i" {
		t.Fatalf("expected id to win, got %q", claims.UserID)
	}
}

func TestDecodeClaimsMalformed(t *testing.T) {
	for _, tok := range []BearerToken{"", "abc", "not.a.jwt", "a.b", "eyJhbGciOiJIUzI1NiJ9.!!!.sig"} {
		if _, err := DecodeClaims(tok); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("DecodeClaims(%q): expected ErrMalformedToken, got %v", string(tok), err)
		}
	}
}

func TestDecodeClaimsRejectsBadExpType(t *testing.T) {
	tok := signedToken(t, gjwt.MapClaims{"id": "u", "exp": "tomorrow"})
	if _, err := DecodeClaims(tok); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
}

func TestExpiredWithoutExp(t *testing.T) {
	var c *Claims
	if c.Expired(time.Now()) {
		t.Fatal("nil claims never expire")
	}
	if (&Claims{}).Expired(time.Now()) {
		t.Fatal("claims without exp never expire")
	}
}
