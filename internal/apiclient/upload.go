package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
)

// File is one file part of a multipart upload.
type File struct {
	Field       string
	Name        string
	ContentType string
	Content     io.Reader
}

// Upload sends fields and files as multipart/form-data. The body is
// buffered so a refreshed retry can resend it.
func (c *Client) Upload(ctx context.Context, method, path string, fields map[string]string, files ...File) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}

	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Name))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("create part %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("copy part %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	return c.send(ctx, &request{
		method:      method,
		path:        path,
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	})
}
