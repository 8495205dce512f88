package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/jose-valero/matrix-archiver/internal/adapters/matrix"
	"github.com/jose-valero/matrix-archiver/internal/domain"
	"github.com/jose-valero/matrix-archiver/internal/infra/storage"
)

// Lo implementa RoomsService (cache de monitored_rooms)
type RoomPolicies interface {
	ShouldArchive(ctx context.Context, roomID string) bool
	ShouldArchiveMedia(ctx context.Context, roomID string) bool
}

// Lo implementa internal/adapters/matrix.Session
type MessageHistory interface {
	Messages(ctx context.Context, roomID, from, dir string, limit int) ([]matrix.Event, string, error)
}

// ArchiveService persiste mensajes y adjuntos de las salas monitoreadas.
type ArchiveService struct {
	msgs        MessagesStore
	media       MediaStore
	dl          MediaDownloader
	objects     ObjectStorage
	policies    RoomPolicies
	tokens      SyncTokenStore // puede ser nil
	maxFileSize int64
}

func NewArchiveService(msgs MessagesStore, media MediaStore, dl MediaDownloader, objects ObjectStorage, policies RoomPolicies, tokens SyncTokenStore, maxFileSize int64) *ArchiveService {
	if maxFileSize <= 0 {
		maxFileSize = 100 << 20 // 100MB
	}
	return &ArchiveService{msgs: msgs, media: media, dl: dl, objects: objects, policies: policies, tokens: tokens, maxFileSize: maxFileSize}
}

// HandleMessage: callback del sync. No devuelve error: un evento podrido se
// loguea y no frena el archivo del resto.
func (a *ArchiveService) HandleMessage(ctx context.Context, ev domain.MessageEvent) {
	if !a.policies.ShouldArchive(ctx, ev.RoomID) {
		return
	}

	content, err := json.Marshal(ev.Content)
	if err != nil {
		log.Printf("❌ [archive] serializando content de %s: %v", ev.EventID, err)
		return
	}
	msg := storage.ArchivedMessage{
		EventID:        ev.EventID,
		RoomID:         ev.RoomID,
		Sender:         ev.Sender,
		Timestamp:      ev.Timestamp,
		MessageType:    ev.MessageType,
		Content:        content,
		ThreadID:       strPtr(ev.ThreadID),
		ReplyToEventID: strPtr(ev.ReplyToEventID),
	}
	if err := a.msgs.Insert(ctx, msg); err != nil {
		log.Printf("❌ [archive] guardando mensaje %s: %v", ev.EventID, err)
	}

	if ev.HasMedia() && a.policies.ShouldArchiveMedia(ctx, ev.RoomID) {
		a.archiveMedia(ctx, ev)
	}
}

func (a *ArchiveService) archiveMedia(ctx context.Context, ev domain.MessageEvent) {
	mxc, _ := ev.Content["url"].(string)

	mime := "application/octet-stream"
	if info, _ := ev.Content["info"].(map[string]any); info != nil {
		if m, _ := info["mimetype"].(string); m != "" {
			mime = m
		}
	}
	filename, _ := ev.Content["body"].(string)
	if filename == "" {
		filename = "unknown"
	}

	data, err := a.dl.DownloadMedia(ctx, mxc, a.maxFileSize)
	if err != nil {
		log.Printf("❌ [archive] bajando media de %s: %v", ev.EventID, err)
		return
	}

	clean := normalizeFilename(filename, mime)
	objectPath := time.UnixMilli(ev.Timestamp).UTC().Format("2006/01/02") + "/" + ev.EventID + "_" + clean

	if err := a.objects.Upload(ctx, objectPath, mime, data); err != nil {
		log.Printf("❌ [archive] subiendo %s al storage: %v", clean, err)
		return
	}

	rec := storage.ArchivedMedia{
		EventID:          ev.EventID,
		MediaType:        mediaCategory(mime),
		OriginalFilename: clean,
		FileSize:         len(data),
		MimeType:         mime,
		MatrixURL:        mxc,
		StoragePath:      objectPath,
		PublicURL:        a.objects.PublicURL(objectPath),
	}
	if err := a.media.Insert(ctx, rec); err != nil {
		log.Printf("⚠️ [archive] media subida pero sin registrar (%s): %v", ev.EventID, err)
		return
	}
	log.Printf("✅ [archive] media %s archivada para %s", clean, ev.EventID)
}

// Backfill trae historial viejo de la sala (hacia atrás) y lo pasa por el
// mismo camino que los mensajes en vivo. Devuelve cuántos eventos procesó.
func (a *ArchiveService) Backfill(ctx context.Context, hist MessageHistory, roomID string, limit int) int {
	from := ""
	count := 0
	lastToken := ""
	for count < limit {
		batch := limit - count
		if batch > 100 {
			batch = 100
		}
		events, end, err := hist.Messages(ctx, roomID, from, "b", batch)
		if err != nil {
			log.Printf("❌ [archive] backfill %s: %v", roomID, err)
			break
		}
		if len(events) == 0 {
			break
		}
		for _, ev := range events {
			if ev.Type != "m.room.message" {
				continue
			}
			a.HandleMessage(ctx, matrix.ToMessageEvent(roomID, ev))
			count++
		}
		if end == "" {
			break // no hay más historial
		}
		from, lastToken = end, end
	}
	if lastToken != "" && a.tokens != nil {
		// guardamos hasta dónde llegamos para retomar en la próxima corrida
		if err := a.tokens.UpdateSyncToken(ctx, roomID, lastToken); err != nil {
			log.Printf("⚠️ [archive] guardando token de backfill de %s: %v", roomID, err)
		}
	}
	if count > 0 {
		log.Printf("✅ [archive] backfill de %s: %d mensajes", roomID, count)
	}
	return count
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
