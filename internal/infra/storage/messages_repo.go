package storage

import (
	"context"
	"database/sql"
)

type MessagesRepo struct{ db *sql.DB }

func NewMessagesRepo(db *sql.DB) *MessagesRepo { return &MessagesRepo{db: db} }

// Insert es idempotente por event_id: los re-sync y el backfill pisan los
// mismos eventos y no queremos duplicados.
func (r *MessagesRepo) Insert(ctx context.Context, m ArchivedMessage) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO archived_messages
  (event_id, room_id, sender, ts, message_type, content, thread_id, reply_to_event_id)
VALUES
  ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (event_id) DO NOTHING
`, m.EventID, m.RoomID, m.Sender, m.Timestamp, m.MessageType, m.Content, m.ThreadID, m.ReplyToEventID)
	return err
}
