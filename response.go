package goCare

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
)

// ErrNotJSON is returned by Response.Decode when the response was not JSON.
var ErrNotJSON = errors.New("response is not json")

// ResultKind tells which field of a Response carries the result.
type ResultKind uint8

const (
	// ResultEmpty is a 204 No Content response.
	ResultEmpty ResultKind = iota
	// ResultJSON is a response with a JSON content type.
	ResultJSON
	// ResultText is any other response, kept as raw text.
	ResultText
)

func (k ResultKind) String() string {
	switch k {
	case ResultEmpty:
		return "empty"
	case ResultJSON:
		return "json"
	case ResultText:
		return "text"
	default:
		return "unknown"
	}
}

// Response is a successful gateway result.
type Response struct {
	StatusCode int
	Header     http.Header
	Kind       ResultKind
	JSON       json.RawMessage
	Text       string
}

// Empty reports whether the backend answered 204 No Content.
func (r *Response) Empty() bool {
	return r != nil && r.Kind == ResultEmpty
}

// Decode unmarshals a JSON result into v.
func (r *Response) Decode(v any) error {
	if r == nil || r.Kind != ResultJSON {
		return ErrNotJSON
	}
	return json.Unmarshal(r.JSON, v)
}

func newResponse(resp *http.Response, raw []byte) (*Response, error) {
	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}

	if resp.StatusCode == http.StatusNoContent {
		out.Kind = ResultEmpty
		return out, nil
	}

	if isJSONContentType(resp.Header.Get("Content-Type")) {
		if !json.Valid(raw) {
			return nil, errors.New("invalid JSON response body")
		}
		out.Kind = ResultJSON
		out.JSON = json.RawMessage(raw)
		return out, nil
	}

	out.Kind = ResultText
	out.Text = string(raw)
	return out, nil
}

func isJSONContentType(v string) bool {
	if v == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// failureMessage extracts a human-readable message from an error body: the JSON
// "message" field (a string or a list of strings), then "error", then the raw text,
// then the status text.
func failureMessage(status int, raw []byte) string {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err == nil {
		for _, key := range []string{"message", "error"} {
			if msg := messageText(doc[key]); msg != "" {
				return msg
			}
		}
	}

	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "request failed"
}

func messageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", ")
	}

	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}

	return ""
}
