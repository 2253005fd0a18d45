package session

import (
	"testing"
	"time"

	"github.com/MrEthical07/goCare/codec"
	"github.com/alicebob/miniredis/v2"
	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

func newTestCodec(t *testing.T) *codec.Codec {
	t.Helper()
	c, err := codec.NewCodec(codec.DefaultKeyHex)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return c
}

// sealedCredential signs a token for userID and seals it under a fresh IV.
func sealedCredential(t *testing.T, c *codec.Codec, userID string) Credential {
	t.Helper()
	plain, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{
		"id":   userID,
		"role": "doctor",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("backend-secret-backend-secret-32"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	sealed, iv, err := c.Seal(codec.BearerToken(plain))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	claims, err := codec.DecodeClaims(codec.BearerToken(plain))
	if err != nil {
		t.Fatalf("decode claims: %v", err)
	}
	return Credential{Token: sealed, IV: iv, Claims: claims}
}

func newRedisStorageTest(t *testing.T) (*RedisStorage, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStorage(rdb, "gocare", 0), mr, func() {
		rdb.Close()
		mr.Close()
	}
}
