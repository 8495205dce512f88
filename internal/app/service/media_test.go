package service

import (
	"strings"
	"testing"
)

func TestNormalizeFilename(t *testing.T) {
	cases := []struct{ name, file, mime, want string }{
		{"con extensión", "foto.png", "image/png", "foto.png"},
		{"sin extensión", "foto", "image/png", "foto.png"},
		{"mime desconocido", "archivo", "application/x-rareza", "archivo.bin"},
		{"caracteres conflictivos", `ruta/al\archivo?.pdf`, "application/pdf", "ruta_al_archivo_.pdf"},
		{"extensión en mayúsculas", "FOTO.PNG", "image/png", "FOTO.PNG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeFilename(tc.file, tc.mime); got != tc.want {
				t.Errorf("normalizeFilename(%q, %q) = %q, quería %q", tc.file, tc.mime, got, tc.want)
			}
		})
	}
}

func TestSanitizeFilenameLongName(t *testing.T) {
	long := strings.Repeat("a", 300) + ".pdf"
	got := sanitizeFilename(long)
	if len(got) > 255 {
		t.Errorf("len = %d", len(got))
	}
	if !strings.HasSuffix(got, ".pdf") {
		t.Errorf("perdió la extensión: %q", got)
	}
}

func TestMediaCategory(t *testing.T) {
	cases := map[string]string{
		"image/png":                "image",
		"video/mp4":                "video",
		"audio/ogg":                "audio",
		"application/pdf":          "document",
		"text/plain":               "text",
		"application/octet-stream": "file",
	}
	for mime, want := range cases {
		if got := mediaCategory(mime); got != want {
			t.Errorf("mediaCategory(%q) = %q, quería %q", mime, got, want)
		}
	}
}
