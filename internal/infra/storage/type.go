package storage

import "time"

// MonitoredRoom es la fila de monitored_rooms: la tabla que manda sobre qué
// salas el bot debe estar y archivar.
type MonitoredRoom struct {
	RoomID        string
	RoomName      string
	RoomAlias     *string
	Enabled       bool // master switch: apagado = ni join ni archivo
	AutoJoin      bool // si falta del joined set, ¿intentamos join?
	ArchiveMedia  bool
	LastSyncToken *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ArchivedMessage struct {
	EventID        string
	RoomID         string
	Sender         string
	Timestamp      int64 // origin_server_ts (ms)
	MessageType    string
	Content        []byte // JSON crudo del content
	ThreadID       *string
	ReplyToEventID *string
}

type ArchivedMedia struct {
	EventID          string
	MediaType        string
	OriginalFilename string
	FileSize         int
	MimeType         string
	MatrixURL        string
	StoragePath      string
	PublicURL        string
}
