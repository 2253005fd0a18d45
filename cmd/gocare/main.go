package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	goCare "github.com/MrEthical07/goCare"
	"github.com/spf13/pflag"
)

const usage = `usage: gocare [global flags] <command> [flags]

Commands:
  login      --email E --password P       log in and store the session
  register   --name N --email E --password P [--role R]
  whoami                                  show the stored session's claims
  logout                                  forget the stored session
  get PATH                                GET PATH
  post PATH  [--data JSON | --form k=v --file field=path]
  put PATH   [--data JSON | --form k=v --file field=path]
  delete PATH                             DELETE PATH
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type stderrNotifier struct {
	w io.Writer
}

func (n stderrNotifier) Notify(_ context.Context, failure *goCare.RequestFailure) {
	if failure.StatusCode == 0 {
		fmt.Fprintf(n.w, "request failed: %s\n", failure.Message)
		return
	}
	fmt.Fprintf(n.w, "request failed (%d): %s\n", failure.StatusCode, failure.Message)
}

func run(args []string, stdout, stderr io.Writer) int {
	global := pflag.NewFlagSet("gocare", pflag.ContinueOnError)
	global.SetOutput(stderr)
	global.SetInterspersed(false)
	global.Usage = func() {
		fmt.Fprint(stderr, usage)
		fmt.Fprintf(stderr, "\nGlobal flags:\n%s", global.FlagUsages())
	}

	configPath := global.String("config", "", "YAML config file; environment variables override it")
	baseURL := global.String("base-url", "", "backend base URL (overrides config)")
	storagePath := global.String("storage-path", "", "session file (overrides config)")
	logLevel := global.String("log-level", "warn", "log level")

	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return 2
	}

	cfg, err := goCare.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
	}
	if *storagePath != "" {
		cfg.Storage.Backend = goCare.StorageFile
		cfg.Storage.Path = *storagePath
	}
	if global.Changed("log-level") || os.Getenv("GOCARE_LOG_LEVEL") == "" {
		cfg.Log.Level = *logLevel
	}

	client, err := goCare.New().
		WithConfig(cfg).
		WithNotifier(stderrNotifier{w: stderr}).
		Build()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer client.Close()

	ctx := context.Background()
	if _, err := client.Hydrate(ctx); err != nil {
		fmt.Fprintf(stderr, "warning: stored session discarded: %v\n", err)
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "login":
		err = login(ctx, client, cmdArgs, stdout, stderr)
	case "register":
		err = register(ctx, client, cmdArgs, stdout, stderr)
	case "whoami":
		err = whoami(client, stdout)
	case "logout":
		err = client.Logout(ctx)
	case "get", "delete":
		err = simple(ctx, client, cmd, cmdArgs, stdout)
	case "post", "put":
		err = withBody(ctx, client, cmd, cmdArgs, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		global.Usage()
		return 2
	}

	var usageErr usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &usageErr):
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	default:
		// The notifier already printed request failures.
		if _, ok := goCare.AsRequestFailure(err); !ok {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
		return 1
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }

func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func login(ctx context.Context, client *goCare.Client, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("login", stderr)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("GOCARE_PASSWORD"), "account password (default $GOCARE_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if *email == "" || *password == "" {
		return usageError("login requires --email and --password")
	}

	cred, err := client.Login(ctx, goCare.LoginRequest{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "logged in as %s\n", displayName(cred.Claims.Name, cred.Claims.Email))
	return nil
}

func register(ctx context.Context, client *goCare.Client, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("register", stderr)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("GOCARE_PASSWORD"), "account password (default $GOCARE_PASSWORD)")
	role := fs.String("role", "", "account role")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}

	cred, err := client.Register(ctx, goCare.RegisterRequest{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Role:     *role,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "registered %s\n", displayName(cred.Claims.Name, cred.Claims.Email))
	return nil
}

func whoami(client *goCare.Client, stdout io.Writer) error {
	claims := client.Claims()
	if claims == nil {
		return goCare.ErrNoCredential
	}

	fmt.Fprintf(stdout, "user:  %s\n", claims.UserID)
	if claims.Name != "" {
		fmt.Fprintf(stdout, "name:  %s\n", claims.Name)
	}
	if claims.Email != "" {
		fmt.Fprintf(stdout, "email: %s\n", claims.Email)
	}
	if claims.Role != "" {
		fmt.Fprintf(stdout, "role:  %s\n", claims.Role)
	}
	if !claims.ExpiresAt.IsZero() {
		state := "valid"
		if claims.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Fprintf(stdout, "expires: %s (%s)\n", claims.ExpiresAt.Local().Format(time.RFC3339), state)
	}
	return nil
}

func simple(ctx context.Context, client *goCare.Client, cmd string, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return usageError(cmd + " requires exactly one PATH")
	}

	var (
		resp *goCare.Response
		err  error
	)
	if cmd == "get" {
		resp, err = client.Fetch(ctx, args[0])
	} else {
		resp, err = client.Remove(ctx, args[0])
	}
	if err != nil {
		return err
	}
	return printResponse(stdout, resp)
}

func withBody(ctx context.Context, client *goCare.Client, cmd string, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet(cmd, stderr)
	data := fs.String("data", "", "JSON request body; @file reads it from a file")
	fields := fs.StringArray("form", nil, "multipart field key=value (repeatable)")
	files := fs.StringArray("file", nil, "multipart file field=path (repeatable)")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if fs.NArg() != 1 {
		return usageError(cmd + " requires exactly one PATH")
	}
	if *data != "" && (len(*fields) > 0 || len(*files) > 0) {
		return usageError("--data cannot be combined with --form or --file")
	}

	body, err := buildBody(*data, *fields, *files)
	if err != nil {
		return err
	}

	var resp *goCare.Response
	if cmd == "post" {
		resp, err = client.Create(ctx, fs.Arg(0), body)
	} else {
		resp, err = client.Replace(ctx, fs.Arg(0), body)
	}
	if err != nil {
		return err
	}
	return printResponse(stdout, resp)
}

func buildBody(data string, fields, files []string) (goCare.Body, error) {
	if len(fields) == 0 && len(files) == 0 {
		if data == "" {
			data = "{}"
		}
		raw := []byte(data)
		if strings.HasPrefix(data, "@") {
			var err error
			if raw, err = os.ReadFile(data[1:]); err != nil {
				return nil, err
			}
		}
		if !json.Valid(raw) {
			return nil, usageError("--data is not valid JSON")
		}
		return goCare.JSON(json.RawMessage(raw)), nil
	}

	parts := make([]goCare.Part, 0, len(fields)+len(files))
	for _, f := range fields {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			return nil, usageError("--form expects key=value, got " + f)
		}
		parts = append(parts, goCare.Field(k, v))
	}
	for _, f := range files {
		field, path, ok := strings.Cut(f, "=")
		if !ok {
			return nil, usageError("--file expects field=path, got " + f)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		parts = append(parts, goCare.File(field, filepath.Base(path), bytes.NewReader(content)))
	}
	return goCare.Multipart(parts...), nil
}

func printResponse(w io.Writer, resp *goCare.Response) error {
	switch resp.Kind {
	case goCare.ResultEmpty:
		return nil
	case goCare.ResultJSON:
		var out bytes.Buffer
		if err := json.Indent(&out, resp.JSON, "", "  "); err != nil {
			return err
		}
		out.WriteByte('\n')
		_, err := out.WriteTo(w)
		return err
	default:
		_, err := io.WriteString(w, resp.Text)
		if err == nil && !strings.HasSuffix(resp.Text, "\n") {
			_, err = io.WriteString(w, "\n")
		}
		return err
	}
}

func displayName(name, email string) string {
	switch {
	case name != "" && email != "":
		return name + " <" + email + ">"
	case email != "":
		return email
	default:
		return name
	}
}
