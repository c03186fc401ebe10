package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Params are query-string parameters. Nil values are dropped, slices repeat
// the key, and keys are emitted in sorted order.
type Params map[string]any

// Values converts p to url.Values.
func (p Params) Values() url.Values {
	values := url.Values{}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := p[k].(type) {
		case nil:
		case string:
			if v != "" {
				values.Add(k, v)
			}
		case []string:
			for _, item := range v {
				values.Add(k, item)
			}
		case []int:
			for _, item := range v {
				values.Add(k, fmt.Sprint(item))
			}
		case time.Time:
			if !v.IsZero() {
				values.Add(k, v.UTC().Format(time.RFC3339))
			}
		case *string:
			if v != nil && *v != "" {
				values.Add(k, *v)
			}
		default:
			values.Add(k, fmt.Sprint(v))
		}
	}
	return values
}

// Encode returns the sorted query string.
func (p Params) Encode() string {
	return p.Values().Encode()
}

// Path builds an API path, escaping every argument as a path segment.
func Path(format string, args ...string) string {
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = url.PathEscape(a)
	}
	return fmt.Sprintf(format, escaped...)
}

// WithQuery appends params to path.
func WithQuery(path string, params Params) string {
	query := params.Encode()
	if query == "" {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&" + query
	}
	return path + "?" + query
}

func call[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](resp.Envelope)
}

// Get issues GET path and decodes the payload.
func Get[T any](ctx context.Context, c *Client, path string) (T, error) {
	return call[T](ctx, c, http.MethodGet, path, nil)
}

// GetWithParams issues GET path?params.
func GetWithParams[T any](ctx context.Context, c *Client, path string, params Params) (T, error) {
	return call[T](ctx, c, http.MethodGet, WithQuery(path, params), nil)
}

// Post issues POST path with a JSON body.
func Post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return call[T](ctx, c, http.MethodPost, path, body)
}

// Put issues PUT path with a JSON body.
func Put[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return call[T](ctx, c, http.MethodPut, path, body)
}

// Patch issues PATCH path with a JSON body.
func Patch[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return call[T](ctx, c, http.MethodPatch, path, body)
}

// Delete issues DELETE path.
func Delete[T any](ctx context.Context, c *Client, path string) (T, error) {
	return call[T](ctx, c, http.MethodDelete, path, nil)
}

// Upload issues a multipart POST.
func Upload[T any](ctx context.Context, c *Client, path string, fields map[string]string, files ...File) (T, error) {
	resp, err := c.Upload(ctx, http.MethodPost, path, fields, files...)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](resp.Envelope)
}
