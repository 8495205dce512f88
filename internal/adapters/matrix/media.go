package matrix

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrMediaTooBig: el adjunto superó el límite configurado; no lo archivamos.
var ErrMediaTooBig = fmt.Errorf("matrix: media demasiado grande")

// DownloadMedia baja un mxc:// del homeserver, cortando en maxSize bytes.
func (s *Session) DownloadMedia(ctx context.Context, mxcURL string, maxSize int64) ([]byte, error) {
	server, mediaID, err := splitMXC(mxcURL)
	if err != nil {
		return nil, err
	}

	u := s.c.homeserver + "/_matrix/media/r0/download/" + server + "/" + mediaID
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("matrix media request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	res, err := s.c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("matrix media http: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, decodeAPIError(res)
	}
	if res.ContentLength > 0 && res.ContentLength > maxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMediaTooBig, res.ContentLength)
	}

	// leemos un byte de más para detectar el exceso sin tragar el archivo entero
	data, err := io.ReadAll(io.LimitReader(res.Body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("matrix media read: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: supera %d bytes", ErrMediaTooBig, maxSize)
	}
	return data, nil
}

func splitMXC(mxcURL string) (server, mediaID string, err error) {
	rest, ok := strings.CutPrefix(mxcURL, "mxc://")
	if !ok {
		return "", "", fmt.Errorf("matrix: url de media inválida %q", mxcURL)
	}
	server, mediaID, ok = strings.Cut(rest, "/")
	if !ok || server == "" || mediaID == "" {
		return "", "", fmt.Errorf("matrix: url de media inválida %q", mxcURL)
	}
	return server, mediaID, nil
}
