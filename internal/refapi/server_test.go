package refapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goCare/codec"
	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("reference-backend-secret-32bytes")

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := hashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := verifyPassword("correct horse", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	ok, err = verifyPassword("wrong horse", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}
	if _, err := verifyPassword("x", "$bcrypt$nope"); err == nil {
		t.Fatal("expected error for foreign hash")
	}
}

func TestRegisterLoginAndGuard(t *testing.T) {
	srv := New(Options{Secret: testSecret, TokenTTL: time.Hour})
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Dr. Grey", "email": "grey@clinic.test", "password": "longenough",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "grey@clinic.test", "password": "longenough",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d", rec.Code)
	}
	var env map[string]string
	decodeBody(t, rec, &env)
	if env["token"] == "" || env["iv"] != "" {
		t.Fatalf("expected plaintext token envelope, got %v", env)
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.Parse(env["token"], func(*jwt.Token) (any, error) { return testSecret, nil }); err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if _, _, err := jwt.NewParser().ParseUnverified(env["token"], claims); err != nil {
		t.Fatalf("parse claims: %v", err)
	}
	if claims["email"] != "grey@clinic.test" || claims["role"] != "doctor" {
		t.Fatalf("unexpected claims %v", claims)
	}

	if rec := do(t, h, http.MethodGet, "/patients", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/patients", env["token"], nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	if srv.Logins() != 2 {
		t.Fatalf("expected 2 logins, got %d", srv.Logins())
	}
}

func TestLoginFailureUsesErrorField(t *testing.T) {
	srv := New(Options{Secret: testSecret})
	if _, err := srv.AddUser("A", "a@clinic.test", "password1", ""); err != nil {
		t.Fatalf("add user: %v", err)
	}

	rec := do(t, srv.Handler(), http.MethodPost, "/auth/login", "", map[string]string{
		"email": "a@clinic.test", "password": "nope",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["error"] != "invalid credentials" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRegisterValidationAndConflict(t *testing.T) {
	srv := New(Options{Secret: testSecret})
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/auth/register", "", map[string]string{"email": "bad", "password": "short"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Message []string `json:"message"`
	}
	decodeBody(t, rec, &body)
	if len(body.Message) != 3 {
		t.Fatalf("expected three messages, got %v", body.Message)
	}

	in := map[string]string{"name": "B", "email": "b@clinic.test", "password": "password1"}
	if rec := do(t, h, http.MethodPost, "/auth/register", "", in); rec.Code != http.StatusCreated {
		t.Fatalf("first register: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/auth/register", "", in); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestSealedEnvelope(t *testing.T) {
	c, err := codec.NewCodec("")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	srv := New(Options{Secret: testSecret, Codec: c})
	if _, err := srv.AddUser("C", "c@clinic.test", "password1", "admin"); err != nil {
		t.Fatalf("add user: %v", err)
	}

	rec := do(t, srv.Handler(), http.MethodPost, "/auth/login", "", map[string]string{
		"email": "c@clinic.test", "password": "password1",
	})
	var env map[string]string
	decodeBody(t, rec, &env)
	if env["iv"] == "" {
		t.Fatalf("expected iv in sealed envelope, got %v", env)
	}

	_, claims, err := c.Open(codec.SealedToken(env["token"]), env["iv"])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if claims.Role != "admin" {
		t.Fatalf("expected admin role, got %q", claims.Role)
	}
}

func TestPatientLifecycle(t *testing.T) {
	srv := New(Options{Secret: testSecret})
	h := srv.Handler()
	token, err := srv.Issue("u-1", "Dr. Who", "who@clinic.test", "doctor")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := do(t, h, http.MethodPost, "/patients", token, Patient{Name: "Ada", Age: 36})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created Patient
	decodeBody(t, rec, &created)
	if created.ID == "" || created.CreatedBy != "u-1" {
		t.Fatalf("unexpected patient %+v", created)
	}

	rec = do(t, h, http.MethodPut, "/patients/"+created.ID, token, Patient{Name: "Ada L.", Age: 37})
	if rec.Code != http.StatusOK {
		t.Fatalf("replace: %d", rec.Code)
	}

	rec = do(t, h, http.MethodDelete, "/patients/"+created.ID, token, nil)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("delete: %d %q", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/patients/"+created.ID, token, nil)
	if rec.Code != http.StatusNotFound || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("expected plain 404, got %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestPatientSchemaViolations(t *testing.T) {
	srv := New(Options{Secret: testSecret})
	h := srv.Handler()
	token, err := srv.Issue("u-1", "Dr. Who", "who@clinic.test", "doctor")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := do(t, h, http.MethodPost, "/patients", token, map[string]any{"age": -3, "notes": 7})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Message []string `json:"message"`
	}
	decodeBody(t, rec, &out)
	if len(out.Message) != 3 {
		t.Fatalf("expected three violations, got %q", out.Message)
	}
	joined := strings.Join(out.Message, "; ")
	for _, want := range []string{"name is required", "age:", "notes:"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in %q", want, joined)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/patients", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestUploadDocument(t *testing.T) {
	srv := New(Options{Secret: testSecret})
	h := srv.Handler()
	token, _ := srv.Issue("u-1", "", "", "doctor")

	rec := do(t, h, http.MethodPost, "/patients", token, Patient{Name: "Ada"})
	var p Patient
	decodeBody(t, rec, &p)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("kind", "xray")
	fw, _ := mw.CreateFormFile("file", "scan.png")
	_, _ = fw.Write([]byte("0123456789"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/patients/"+p.ID+"/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	out := httptest.NewRecorder()
	h.ServeHTTP(out, req)

	if out.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", out.Code, out.Body.String())
	}
	var doc Document
	decodeBody(t, out, &doc)
	if doc.Filename != "scan.png" || doc.Kind != "xray" || doc.Size != 10 {
		t.Fatalf("unexpected document %+v", doc)
	}
}
