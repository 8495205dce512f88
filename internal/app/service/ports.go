package service

import (
	"context"

	"github.com/jose-valero/matrix-archiver/internal/infra/storage"
)

// Lo implementa internal/adapters/matrix.Session
type MatrixRooms interface {
	JoinedRooms(ctx context.Context) (map[string]struct{}, error)
	JoinRoom(ctx context.Context, roomID string) error
	LeaveRoom(ctx context.Context, roomID string) error
}

// Lo implementa internal/infra/storage.RoomsRepo
type RoomsStore interface {
	ListEnabled(ctx context.Context) (map[string]storage.MonitoredRoom, error)
	KnownRoomIDs(ctx context.Context) (map[string]struct{}, error)
	FindByRoomIDs(ctx context.Context, ids []string) (map[string]storage.MonitoredRoom, error)
	Upsert(ctx context.Context, m storage.MonitoredRoom) error
}

// Lo implementa EscalationService; separado para poder fakear en tests
type Escalator interface {
	Escalate(ctx context.Context, roomID string) error
}

// Lo implementa internal/infra/storage.MessagesRepo
type MessagesStore interface {
	Insert(ctx context.Context, m storage.ArchivedMessage) error
}

// Lo implementa internal/infra/storage.MediaRepo
type MediaStore interface {
	Insert(ctx context.Context, m storage.ArchivedMedia) error
}

// Lo implementa internal/infra/storage.RoomsRepo
type SyncTokenStore interface {
	UpdateSyncToken(ctx context.Context, roomID, token string) error
}

// Lo implementa internal/adapters/matrix.Session
type MediaDownloader interface {
	DownloadMedia(ctx context.Context, mxcURL string, maxSize int64) ([]byte, error)
}

// Lo implementa internal/adapters/supastore.Client
type ObjectStorage interface {
	Upload(ctx context.Context, objectPath, mimeType string, data []byte) error
	PublicURL(objectPath string) string
}
