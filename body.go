package goCare

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Body is a request payload. Use JSON or Multipart to build one.
type Body interface {
	encode() (io.Reader, string, error)
}

type jsonBody struct {
	v any
}

// JSON serializes v as the request body with Content-Type application/json.
func JSON(v any) Body {
	return jsonBody{v: v}
}

func (b jsonBody) encode() (io.Reader, string, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

// Part is one field or file of a multipart form.
type Part struct {
	name        string
	value       string
	filename    string
	contentType string
	r           io.Reader
}

// Field is a plain form field.
func Field(name, value string) Part {
	return Part{name: name, value: value}
}

// File is a file field sent as application/octet-stream.
func File(name, filename string, r io.Reader) Part {
	return Part{name: name, filename: filename, r: r}
}

// FileWithType is a file field with an explicit content type, for example image/jpeg.
func FileWithType(name, filename, contentType string, r io.Reader) Part {
	return Part{name: name, filename: filename, contentType: contentType, r: r}
}

type multipartBody struct {
	parts []Part
}

// Multipart builds a multipart/form-data body. The Content-Type header, including
// the boundary, comes from the multipart writer.
func Multipart(parts ...Part) Body {
	return multipartBody{parts: parts}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (b multipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range b.parts {
		if p.r == nil {
			if err := w.WriteField(p.name, p.value); err != nil {
				return nil, "", err
			}
			continue
		}

		var (
			dst io.Writer
			err error
		)
		if p.contentType == "" {
			dst, err = w.CreateFormFile(p.name, p.filename)
		} else {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
				quoteEscaper.Replace(p.name), quoteEscaper.Replace(p.filename)))
			h.Set("Content-Type", p.contentType)
			dst, err = w.CreatePart(h)
		}
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(dst, p.r); err != nil {
			return nil, "", fmt.Errorf("could not copy %s: %w", p.filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
