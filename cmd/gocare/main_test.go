package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrEthical07/goCare/internal/refapi"
)

type cli struct {
	t       *testing.T
	baseURL string
	session string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	srv := refapi.New(refapi.Options{Secret: []byte("cli-test-secret-0123456789abcdef")})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &cli{t: t, baseURL: ts.URL, session: filepath.Join(t.TempDir(), "session.yaml")}
}

func (c *cli) run(args ...string) (int, string, string) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--base-url", c.baseURL, "--storage-path", c.session}, args...)
	code := run(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCLISessionLifecycle(t *testing.T) {
	c := newCLI(t)

	code, out, errOut := c.run("register", "--name", "Miranda Bailey", "--email", "bailey@clinic.test", "--password", "the-nazi-1", "--role", "chief")
	if code != 0 || !strings.Contains(out, "registered Miranda Bailey <bailey@clinic.test>") {
		t.Fatalf("register: code=%d out=%q err=%q", code, out, errOut)
	}
	if _, err := os.Stat(c.session); err != nil {
		t.Fatalf("session file not written: %v", err)
	}

	code, out, _ = c.run("whoami")
	if code != 0 || !strings.Contains(out, "role:  chief") || !strings.Contains(out, "email: bailey@clinic.test") {
		t.Fatalf("whoami: code=%d out=%q", code, out)
	}

	code, out, errOut = c.run("post", "/patients", "--data", `{"name":"Richard","age":60}`)
	if code != 0 {
		t.Fatalf("post: code=%d err=%q", code, errOut)
	}
	var p refapi.Patient
	if err := json.Unmarshal([]byte(out), &p); err != nil || p.ID == "" {
		t.Fatalf("post output %q: %v", out, err)
	}

	code, out, _ = c.run("get", "/patients")
	if code != 0 || !strings.Contains(out, `"name": "Richard"`) {
		t.Fatalf("get: code=%d out=%q", code, out)
	}

	code, out, _ = c.run("delete", "/patients/"+p.ID)
	if code != 0 || out != "" {
		t.Fatalf("delete: code=%d out=%q", code, out)
	}

	code, _, errOut = c.run("get", "/patients/"+p.ID)
	if code != 1 || !strings.Contains(errOut, "request failed (404): patient not found") {
		t.Fatalf("missing patient: code=%d err=%q", code, errOut)
	}

	if code, _, errOut = c.run("logout"); code != 0 {
		t.Fatalf("logout: code=%d err=%q", code, errOut)
	}
	code, _, errOut = c.run("whoami")
	if code != 1 || !strings.Contains(errOut, "no credential") {
		t.Fatalf("whoami after logout: code=%d err=%q", code, errOut)
	}
}

func TestCLILoginFailurePrintsBackendMessage(t *testing.T) {
	c := newCLI(t)

	code, _, errOut := c.run("login", "--email", "nobody@clinic.test", "--password", "whatever")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut, "request failed (401): invalid credentials") {
		t.Fatalf("unexpected stderr %q", errOut)
	}
	if strings.Contains(errOut, "error:") {
		t.Fatalf("request failure printed twice: %q", errOut)
	}
}

func TestCLIMultipartUpload(t *testing.T) {
	c := newCLI(t)
	if code, _, errOut := c.run("register", "--name", "A", "--email", "a@clinic.test", "--password", "password-a"); code != 0 {
		t.Fatalf("register: %q", errOut)
	}
	_, out, _ := c.run("post", "/patients", "--data", `{"name":"Lexie"}`)
	var p refapi.Patient
	_ = json.Unmarshal([]byte(out), &p)

	scan := filepath.Join(t.TempDir(), "scan.bin")
	if err := os.WriteFile(scan, []byte("0123456789"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	code, out, errOut := c.run("post", "/patients/"+p.ID+"/documents", "--form", "kind=mri", "--file", "file="+scan)
	if code != 0 {
		t.Fatalf("upload: code=%d err=%q", code, errOut)
	}
	var doc refapi.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if doc.Filename != "scan.bin" || doc.Kind != "mri" || doc.Size != 10 {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestCLIUsageErrors(t *testing.T) {
	c := newCLI(t)

	tests := [][]string{
		{"bogus"},
		{"get"},
		{"login", "--email", "x@y.z"},
		{"post", "/patients", "--data", "{not json"},
		{"post", "/patients", "--data", "{}", "--form", "a=b"},
		{"put", "/patients/1", "--form", "novalue"},
	}
	for _, args := range tests {
		t.Setenv("GOCARE_PASSWORD", "")
		if code, _, _ := c.run(args...); code != 2 {
			t.Fatalf("%v: expected exit 2, got %d", args, code)
		}
	}

	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 2 || !strings.Contains(stderr.String(), "usage: gocare") {
		t.Fatalf("expected usage, got %d %q", code, stderr.String())
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName("A", "a@b.c"); got != "A <a@b.c>" {
		t.Fatalf("got %q", got)
	}
	if got := displayName("", "a@b.c"); got != "a@b.c" {
		t.Fatalf("got %q", got)
	}
	if got := displayName("A", ""); got != "A" {
		t.Fatalf("got %q", got)
	}
}
