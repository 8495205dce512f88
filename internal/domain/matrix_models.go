package domain

// MessageEvent es lo mínimo que persistimos de un evento m.room.message.
type MessageEvent struct {
	EventID        string
	RoomID         string
	Sender         string
	Timestamp      int64 // origin_server_ts (ms)
	MessageType    string
	Content        map[string]any
	ThreadID       string // event_id raíz del thread (m.thread), si aplica
	ReplyToEventID string // m.in_reply_to, si aplica
}

// HasMedia: true si el content trae un adjunto descargable (mxc://).
func (e MessageEvent) HasMedia() bool {
	u, _ := e.Content["url"].(string)
	return u != ""
}

// MediaInfo describe un adjunto ya normalizado, listo para subir al storage.
type MediaInfo struct {
	EventID          string
	MediaType        string // image | video | audio | document | text | file
	OriginalFilename string
	FileSize         int
	MimeType         string
	MatrixURL        string // mxc://server/media_id
	Data             []byte
}
