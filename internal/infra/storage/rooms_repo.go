package storage

import (
	"context"
	"database/sql"

	pq "github.com/lib/pq"
)

type RoomsRepo struct{ db *sql.DB }

func NewRoomsRepo(db *sql.DB) *RoomsRepo { return &RoomsRepo{db: db} }

const roomCols = `room_id, room_name, room_alias, enabled, auto_join, archive_media, last_sync_token, created_at, updated_at`

// ListEnabled: mapa room_id -> fila, solo enabled = true. Es la lectura del
// "estado deseado" que hace el reconciliador en cada pasada.
func (r *RoomsRepo) ListEnabled(ctx context.Context) (map[string]MonitoredRoom, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+roomCols+`
  FROM monitored_rooms
 WHERE enabled = true
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoomMap(rows)
}

// KnownRoomIDs: TODOS los room_id de la tabla, enabled o no. La fase de leave
// solo puede tocar salas que no tengan fila acá (deshabilitar pausa el
// archivo pero no nos saca de la sala).
func (r *RoomsRepo) KnownRoomIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT room_id FROM monitored_rooms`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// FindByRoomIDs: mapa room_id -> fila para un lote de salas (cache de
// políticas del archivador).
func (r *RoomsRepo) FindByRoomIDs(ctx context.Context, ids []string) (map[string]MonitoredRoom, error) {
	if len(ids) == 0 {
		return map[string]MonitoredRoom{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+roomCols+`
  FROM monitored_rooms
 WHERE room_id = ANY($1)
`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoomMap(rows)
}

// Upsert por room_id; idempotente.
func (r *RoomsRepo) Upsert(ctx context.Context, m MonitoredRoom) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO monitored_rooms
  (room_id, room_name, room_alias, enabled, auto_join, archive_media)
VALUES
  ($1,$2,$3,$4,$5,$6)
ON CONFLICT (room_id) DO UPDATE SET
  room_name     = EXCLUDED.room_name,
  room_alias    = EXCLUDED.room_alias,
  enabled       = EXCLUDED.enabled,
  auto_join     = EXCLUDED.auto_join,
  archive_media = EXCLUDED.archive_media,
  updated_at    = now()
`, m.RoomID, m.RoomName, m.RoomAlias, m.Enabled, m.AutoJoin, m.ArchiveMedia)
	return err
}

// UpdateSyncToken guarda el último token de sync de la sala (backfill).
func (r *RoomsRepo) UpdateSyncToken(ctx context.Context, roomID, token string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE monitored_rooms SET last_sync_token = $2, updated_at = now() WHERE room_id = $1
`, roomID, token)
	return err
}

func scanRoomMap(rows *sql.Rows) (map[string]MonitoredRoom, error) {
	out := map[string]MonitoredRoom{}
	for rows.Next() {
		var m MonitoredRoom
		if err := rows.Scan(&m.RoomID, &m.RoomName, &m.RoomAlias, &m.Enabled, &m.AutoJoin,
			&m.ArchiveMedia, &m.LastSyncToken, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out[m.RoomID] = m
	}
	return out, rows.Err()
}
