package supastore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUpload(t *testing.T) {
	var gotPath, gotAuth, gotKey, gotMime string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		gotMime = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "service-key", "matrix-media")
	err := c.Upload(context.Background(), "2024/01/02/$ev_foto.png", "image/png", []byte("bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "/storage/v1/object/matrix-media/2024/01/02/$ev_foto.png"; gotPath != want {
		t.Errorf("path = %q, quería %q", gotPath, want)
	}
	if gotAuth != "Bearer service-key" || gotKey != "service-key" {
		t.Errorf("auth = %q / %q", gotAuth, gotKey)
	}
	if gotMime != "image/png" {
		t.Errorf("Content-Type = %q", gotMime)
	}
	if string(gotBody) != "bytes" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestUploadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"message":"The resource already exists"}`)
	}))
	defer srv.Close()

	err := New(srv.URL, "k", "b").Upload(context.Background(), "x", "text/plain", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
	if apiErr.Status != http.StatusConflict {
		t.Errorf("Status = %d", apiErr.Status)
	}
}

func TestPublicURL(t *testing.T) {
	c := New("https://proj.supabase.co/", "k", "matrix-media")
	got := c.PublicURL("2024/01/02/foto.png")
	want := "https://proj.supabase.co/storage/v1/object/public/matrix-media/2024/01/02/foto.png"
	if got != want {
		t.Errorf("PublicURL = %q, quería %q", got, want)
	}
}
