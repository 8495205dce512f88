package service

import "strings"

// Normalización de nombres/tipos de adjuntos antes de subirlos al storage.

var mimeToExt = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"video/mp4":       "mp4",
	"video/webm":      "webm",
	"audio/mpeg":      "mp3",
	"audio/ogg":       "ogg",
	"audio/wav":       "wav",
	"application/pdf": "pdf",
	"text/plain":      "txt",
	"application/json": "json",
}

// normalizeFilename: sanea el nombre y le garantiza una extensión coherente.
func normalizeFilename(filename, mimeType string) string {
	clean := sanitizeFilename(filename)
	ext := extensionFor(mimeType, clean)
	if !strings.HasSuffix(strings.ToLower(clean), "."+ext) {
		clean += "." + ext
	}
	return clean
}

// sanitizeFilename reemplaza caracteres conflictivos y acota el largo a 255.
func sanitizeFilename(filename string) string {
	const unsafe = `<>:"/\|?*`
	out := []rune(filename)
	for i, r := range out {
		if strings.ContainsRune(unsafe, r) {
			out[i] = '_'
		}
	}
	s := string(out)
	if len(s) > 255 {
		name, ext := s, ""
		if i := strings.LastIndexByte(s, '.'); i >= 0 {
			name, ext = s[:i], s[i+1:]
		}
		max := 250 - len(ext)
		if len(name) > max {
			name = name[:max]
		}
		s = name
		if ext != "" {
			s += "." + ext
		}
	}
	return s
}

// extensionFor: si el archivo ya trae extensión se respeta; si no, se deduce
// del MIME ("bin" como último recurso).
func extensionFor(mimeType, filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i >= 0 && i < len(filename)-1 {
		return strings.ToLower(filename[i+1:])
	}
	if ext, ok := mimeToExt[mimeType]; ok {
		return ext
	}
	return "bin"
}

// mediaCategory agrupa el MIME en la categoría que guardamos en la base.
func mediaCategory(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "image"
	case strings.HasPrefix(mimeType, "video/"):
		return "video"
	case strings.HasPrefix(mimeType, "audio/"):
		return "audio"
	case mimeType == "application/pdf":
		return "document"
	case strings.HasPrefix(mimeType, "text/"):
		return "text"
	default:
		return "file"
	}
}
