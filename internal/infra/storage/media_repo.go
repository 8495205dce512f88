package storage

import (
	"context"
	"database/sql"
)

type MediaRepo struct{ db *sql.DB }

func NewMediaRepo(db *sql.DB) *MediaRepo { return &MediaRepo{db: db} }

func (r *MediaRepo) Insert(ctx context.Context, m ArchivedMedia) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO archived_media
  (event_id, media_type, original_filename, file_size, mime_type, matrix_url, storage_path, public_url)
VALUES
  ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (event_id) DO NOTHING
`, m.EventID, m.MediaType, m.OriginalFilename, m.FileSize, m.MimeType, m.MatrixURL, m.StoragePath, m.PublicURL)
	return err
}
