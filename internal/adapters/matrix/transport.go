package matrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const clientPrefix = "/_matrix/client/r0"

// Client habla con el homeserver sin autenticar (login, register).
// Las llamadas autenticadas salen por Session, que comparte este transporte.
type Client struct {
	homeserver string
	http       *http.Client
}

func New(homeserverURL string, opts ...Option) *Client {
	c := &Client{
		homeserver: trimSlash(homeserverURL),
		// tope duro generoso: tiene que bancar el long-poll de /sync y las
		// descargas de media; las operaciones cortas acotan con su ctx
		http: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func trimSlash(u string) string {
	for len(u) > 0 && u[len(u)-1] == '/' {
		u = u[:len(u)-1]
	}
	return u
}

// doJSON: construye URL, agrega Authorization si hay token, maneja 429 con
// Retry-After (un solo reintento). Errores del homeserver salen como *APIError
// con el errcode del body.
func (c *Client) doJSON(ctx context.Context, method, path, token string, q url.Values, in, out any) error {
	u := c.homeserver + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("matrix encode: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("matrix request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("matrix http: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests {
		// backoff básico leyendo Retry-After (segundos); un reintento y listo
		if ra := res.Header.Get("Retry-After"); ra != "" {
			if sec, _ := strconv.Atoi(ra); sec > 0 {
				select {
				case <-time.After(time.Duration(sec) * time.Second):
				case <-ctx.Done():
					return ctx.Err()
				}
				return c.doJSON(ctx, method, path, token, q, in, out)
			}
		}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return decodeAPIError(res)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func decodeAPIError(res *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	apiErr := &APIError{Status: res.StatusCode}
	// todos los errores de Matrix vienen con el mismo shape {errcode, error}
	var dto struct {
		Code    string `json:"errcode"`
		Message string `json:"error"`
	}
	if json.Unmarshal(b, &dto) == nil && dto.Code != "" {
		apiErr.Code = dto.Code
		apiErr.Message = dto.Message
	} else {
		apiErr.Message = string(bytes.TrimSpace(b))
	}
	return apiErr
}
