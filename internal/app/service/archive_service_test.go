package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jose-valero/matrix-archiver/internal/adapters/matrix"
	"github.com/jose-valero/matrix-archiver/internal/domain"
	"github.com/jose-valero/matrix-archiver/internal/infra/storage"
)

// --- fakes ---

type fakeMsgs struct {
	inserted []storage.ArchivedMessage
	err      error
}

func (f *fakeMsgs) Insert(ctx context.Context, m storage.ArchivedMessage) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, m)
	return nil
}

type fakeMedia struct {
	inserted []storage.ArchivedMedia
}

func (f *fakeMedia) Insert(ctx context.Context, m storage.ArchivedMedia) error {
	f.inserted = append(f.inserted, m)
	return nil
}

type fakeDownloader struct {
	data []byte
	err  error
	urls []string
}

func (f *fakeDownloader) DownloadMedia(ctx context.Context, mxcURL string, maxSize int64) ([]byte, error) {
	f.urls = append(f.urls, mxcURL)
	return f.data, f.err
}

type fakeObjects struct {
	uploads map[string][]byte
	err     error
}

func (f *fakeObjects) Upload(ctx context.Context, objectPath, mimeType string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[objectPath] = data
	return nil
}

func (f *fakeObjects) PublicURL(objectPath string) string {
	return "https://cdn.example.org/" + objectPath
}

type fakePolicies struct {
	archive bool
	media   bool
}

func (f fakePolicies) ShouldArchive(ctx context.Context, roomID string) bool      { return f.archive }
func (f fakePolicies) ShouldArchiveMedia(ctx context.Context, roomID string) bool { return f.media }

func textEvent(id string) domain.MessageEvent {
	return domain.MessageEvent{
		EventID:     id,
		RoomID:      "!r:example.org",
		Sender:      "@ana:example.org",
		Timestamp:   1700000000000, // 2023-11-14 UTC
		MessageType: "m.text",
		Content:     map[string]any{"msgtype": "m.text", "body": "hola"},
	}
}

func imageEvent(id string) domain.MessageEvent {
	return domain.MessageEvent{
		EventID:     id,
		RoomID:      "!r:example.org",
		Sender:      "@ana:example.org",
		Timestamp:   1700000000000,
		MessageType: "m.image",
		Content: map[string]any{
			"msgtype": "m.image",
			"body":    "foto.png",
			"url":     "mxc://example.org/xyz",
			"info":    map[string]any{"mimetype": "image/png"},
		},
	}
}

// --- HandleMessage ---

func TestHandleMessageText(t *testing.T) {
	msgs := &fakeMsgs{}
	media := &fakeMedia{}
	dl := &fakeDownloader{}
	a := NewArchiveService(msgs, media, dl, &fakeObjects{}, fakePolicies{archive: true, media: true}, nil, 0)

	a.HandleMessage(context.Background(), textEvent("$t1"))

	if len(msgs.inserted) != 1 {
		t.Fatalf("inserted = %v", msgs.inserted)
	}
	got := msgs.inserted[0]
	if got.EventID != "$t1" || got.MessageType != "m.text" {
		t.Errorf("mensaje mal mapeado: %+v", got)
	}
	if !strings.Contains(string(got.Content), `"hola"`) {
		t.Errorf("content = %s", got.Content)
	}
	if len(dl.urls) != 0 || len(media.inserted) != 0 {
		t.Error("un texto no dispara el camino de media")
	}
}

func TestHandleMessagePolicyOff(t *testing.T) {
	msgs := &fakeMsgs{}
	a := NewArchiveService(msgs, &fakeMedia{}, &fakeDownloader{}, &fakeObjects{}, fakePolicies{}, nil, 0)

	a.HandleMessage(context.Background(), textEvent("$t1"))

	if len(msgs.inserted) != 0 {
		t.Errorf("sala sin política no archiva: %v", msgs.inserted)
	}
}

func TestHandleMessageWithMedia(t *testing.T) {
	msgs := &fakeMsgs{}
	media := &fakeMedia{}
	dl := &fakeDownloader{data: []byte("png bytes")}
	objects := &fakeObjects{}
	a := NewArchiveService(msgs, media, dl, objects, fakePolicies{archive: true, media: true}, nil, 0)

	a.HandleMessage(context.Background(), imageEvent("$img1"))

	if len(dl.urls) != 1 || dl.urls[0] != "mxc://example.org/xyz" {
		t.Fatalf("descargas = %v", dl.urls)
	}
	wantPath := "2023/11/14/$img1_foto.png"
	if _, ok := objects.uploads[wantPath]; !ok {
		t.Fatalf("uploads = %v, quería %q", objects.uploads, wantPath)
	}
	if len(media.inserted) != 1 {
		t.Fatalf("media inserted = %v", media.inserted)
	}
	rec := media.inserted[0]
	if rec.MediaType != "image" || rec.MimeType != "image/png" || rec.FileSize != len("png bytes") {
		t.Errorf("registro de media mal: %+v", rec)
	}
	if rec.PublicURL != "https://cdn.example.org/"+wantPath {
		t.Errorf("PublicURL = %q", rec.PublicURL)
	}
}

func TestHandleMessageMediaPolicyOff(t *testing.T) {
	dl := &fakeDownloader{data: []byte("x")}
	msgs := &fakeMsgs{}
	a := NewArchiveService(msgs, &fakeMedia{}, dl, &fakeObjects{}, fakePolicies{archive: true, media: false}, nil, 0)

	a.HandleMessage(context.Background(), imageEvent("$img1"))

	// el mensaje se archiva igual, el adjunto no
	if len(msgs.inserted) != 1 {
		t.Errorf("inserted = %v", msgs.inserted)
	}
	if len(dl.urls) != 0 {
		t.Errorf("descargas = %v, archive_media estaba apagado", dl.urls)
	}
}

func TestHandleMessageMediaDownloadFails(t *testing.T) {
	media := &fakeMedia{}
	dl := &fakeDownloader{err: errors.New("demasiado grande")}
	objects := &fakeObjects{}
	a := NewArchiveService(&fakeMsgs{}, media, dl, objects, fakePolicies{archive: true, media: true}, nil, 0)

	a.HandleMessage(context.Background(), imageEvent("$img1"))

	if len(objects.uploads) != 0 || len(media.inserted) != 0 {
		t.Error("con la descarga fallida no se sube ni se registra nada")
	}
}

// --- Backfill ---

type fakeHistory struct {
	pages [][]matrix.Event
	ends  []string
	calls int
}

func (f *fakeHistory) Messages(ctx context.Context, roomID, from, dir string, limit int) ([]matrix.Event, string, error) {
	if dir != "b" {
		return nil, "", errors.New("el backfill pagina hacia atrás")
	}
	if f.calls >= len(f.pages) {
		return nil, "", nil
	}
	page, end := f.pages[f.calls], f.ends[f.calls]
	f.calls++
	return page, end, nil
}

func histEvent(id, typ string) matrix.Event {
	return matrix.Event{
		EventID:        id,
		Type:           typ,
		Sender:         "@ana:example.org",
		OriginServerTS: 1700000000000,
		Content:        map[string]any{"msgtype": "m.text", "body": "viejo"},
	}
}

func TestBackfill(t *testing.T) {
	msgs := &fakeMsgs{}
	a := NewArchiveService(msgs, &fakeMedia{}, &fakeDownloader{}, &fakeObjects{}, fakePolicies{archive: true}, nil, 0)

	hist := &fakeHistory{
		pages: [][]matrix.Event{
			{histEvent("$1", "m.room.message"), histEvent("$2", "m.room.member"), histEvent("$3", "m.room.message")},
			{histEvent("$4", "m.room.message")},
		},
		ends: []string{"t2", ""}, // end vacío corta la paginación
	}

	n := a.Backfill(context.Background(), hist, "!r:example.org", 50)

	if n != 3 {
		t.Errorf("n = %d, solo los m.room.message cuentan", n)
	}
	if len(msgs.inserted) != 3 {
		t.Errorf("inserted = %d", len(msgs.inserted))
	}
	if hist.calls != 2 {
		t.Errorf("páginas pedidas = %d", hist.calls)
	}
}

func TestBackfillRespectsLimit(t *testing.T) {
	msgs := &fakeMsgs{}
	a := NewArchiveService(msgs, &fakeMedia{}, &fakeDownloader{}, &fakeObjects{}, fakePolicies{archive: true}, nil, 0)

	hist := &fakeHistory{
		pages: [][]matrix.Event{
			{histEvent("$1", "m.room.message"), histEvent("$2", "m.room.message")},
			{histEvent("$3", "m.room.message"), histEvent("$4", "m.room.message")},
		},
		ends: []string{"t2", "t3"},
	}

	n := a.Backfill(context.Background(), hist, "!r:example.org", 2)
	if n != 2 {
		t.Errorf("n = %d, el límite era 2", n)
	}
}

type fakeTokens struct {
	saved map[string]string
}

func (f *fakeTokens) UpdateSyncToken(ctx context.Context, roomID, token string) error {
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[roomID] = token
	return nil
}

func TestBackfillSavesLastToken(t *testing.T) {
	tokens := &fakeTokens{}
	a := NewArchiveService(&fakeMsgs{}, &fakeMedia{}, &fakeDownloader{}, &fakeObjects{}, fakePolicies{archive: true}, tokens, 0)

	hist := &fakeHistory{
		pages: [][]matrix.Event{
			{histEvent("$1", "m.room.message")},
			{histEvent("$2", "m.room.message")},
		},
		ends: []string{"t2", ""},
	}

	a.Backfill(context.Background(), hist, "!r:example.org", 50)

	if got := tokens.saved["!r:example.org"]; got != "t2" {
		t.Errorf("token guardado = %q, quería t2", got)
	}
}
