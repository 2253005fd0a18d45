package goCare

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goCare/internal/refapi"
	"github.com/MrEthical07/goCare/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

var testSecret = []byte("gateway-test-secret-0123456789ab")

const (
	testEmail    = "meredith@clinic.test"
	testPassword = "seattle-grace"
)

type recordingNotifier struct {
	mu       sync.Mutex
	failures []*RequestFailure
}

func (n *recordingNotifier) Notify(_ context.Context, failure *RequestFailure) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, failure)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.failures)
}

func (n *recordingNotifier) last() *RequestFailure {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.failures) == 0 {
		return nil
	}
	return n.failures[len(n.failures)-1]
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newBackend starts the reference backend with one registered user.
func newBackend(t *testing.T, opts refapi.Options) (*refapi.Server, *httptest.Server) {
	t.Helper()
	if opts.Secret == nil {
		opts.Secret = testSecret
	}
	srv := refapi.New(opts)
	if _, err := srv.AddUser("Meredith Grey", testEmail, testPassword, "doctor"); err != nil {
		t.Fatalf("add user: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

// unreliableStorage wraps MemoryStorage and fails the operations switched on.
type unreliableStorage struct {
	*session.MemoryStorage
	failLoad   bool
	failDelete bool
}

var errDiskGone = errors.New("disk gone")

func (s *unreliableStorage) Load(ctx context.Context, keys ...string) (map[string]string, error) {
	if s.failLoad {
		return nil, errDiskGone
	}
	return s.MemoryStorage.Load(ctx, keys...)
}

func (s *unreliableStorage) Delete(ctx context.Context, keys ...string) error {
	if s.failDelete {
		return errDiskGone
	}
	return s.MemoryStorage.Delete(ctx, keys...)
}

func newTestClient(t *testing.T, baseURL string, storage session.Storage, notifier Notifier) *Client {
	t.Helper()
	if storage == nil {
		storage = session.NewMemoryStorage()
	}
	b := New().
		WithBaseURL(baseURL).
		WithStorage(storage).
		WithLogger(quietLogger()).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true)
	if notifier != nil {
		b = b.WithNotifier(notifier)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func login(t *testing.T, c *Client) session.Credential {
	t.Helper()
	cred, err := c.Login(context.Background(), LoginRequest{Email: testEmail, Password: testPassword})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return cred
}

func expectFailure(t *testing.T, err error) *RequestFailure {
	t.Helper()
	if err == nil {
		t.Fatal("expected request failure, got nil")
	}
	rf, ok := AsRequestFailure(err)
	if !ok {
		t.Fatalf("expected *RequestFailure, got %T: %v", err, err)
	}
	return rf
}

func signTestToken(t *testing.T, userID string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   userID,
		"role": "nurse",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}
