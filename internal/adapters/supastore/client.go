// Cliente mínimo del Storage de Supabase: subir objetos y armar la URL
// pública. No usamos el SDK, con dos endpoints REST alcanza.
package supastore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	key     string // service role key
	bucket  string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(baseURL, serviceRoleKey, bucket string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     serviceRoleKey,
		bucket:  bucket,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Upload sube el objeto al bucket. El path puede llevar "/" (carpetas por
// fecha); cada segmento se escapa por separado.
func (c *Client) Upload(ctx context.Context, objectPath, mimeType string, data []byte) error {
	u := c.baseURL + "/storage/v1/object/" + url.PathEscape(c.bucket) + "/" + escapePath(objectPath)
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("supastore request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("apikey", c.key)
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Cache-Control", "3600")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("supastore http: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &APIError{Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

// PublicURL arma la URL pública del objeto (el bucket tiene que ser público).
func (c *Client) PublicURL(objectPath string) string {
	return c.baseURL + "/storage/v1/object/public/" + url.PathEscape(c.bucket) + "/" + escapePath(objectPath)
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase storage status %d: %s", e.Status, e.Body)
}
