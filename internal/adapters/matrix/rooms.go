package matrix

import (
	"context"
	"fmt"
	"net/url"
)

// JoinedRooms devuelve el set de salas donde la cuenta está unida ahora mismo.
func (s *Session) JoinedRooms(ctx context.Context) (map[string]struct{}, error) {
	var dto joinedRoomsDTO
	if err := s.c.doJSON(ctx, "GET", clientPrefix+"/joined_rooms", s.token, nil, nil, &dto); err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(dto.JoinedRooms))
	for _, id := range dto.JoinedRooms {
		out[id] = struct{}{}
	}
	return out, nil
}

// JoinRoom intenta unirse a la sala. Un 403 sale como ErrForbidden: significa
// que no hay invitación pendiente y el caller decide si escala. Una sola
// vuelta de red, acá no se reintenta nada.
func (s *Session) JoinRoom(ctx context.Context, roomID string) error {
	path := clientPrefix + "/rooms/" + url.PathEscape(roomID) + "/join"
	if err := s.c.doJSON(ctx, "POST", path, s.token, nil, struct{}{}, nil); err != nil {
		return fmt.Errorf("join %s: %w", roomID, err)
	}
	return nil
}

// LeaveRoom abandona la sala.
func (s *Session) LeaveRoom(ctx context.Context, roomID string) error {
	path := clientPrefix + "/rooms/" + url.PathEscape(roomID) + "/leave"
	if err := s.c.doJSON(ctx, "POST", path, s.token, nil, struct{}{}, nil); err != nil {
		return fmt.Errorf("leave %s: %w", roomID, err)
	}
	return nil
}

// Invite invita a userID a la sala. "Already in the room" NO se filtra acá;
// usá IsAlreadyInRoom si te sirve tratarlo como éxito.
func (s *Session) Invite(ctx context.Context, roomID, userID string) error {
	path := clientPrefix + "/rooms/" + url.PathEscape(roomID) + "/invite"
	if err := s.c.doJSON(ctx, "POST", path, s.token, nil, inviteRequest{UserID: userID}, nil); err != nil {
		return fmt.Errorf("invite %s a %s: %w", userID, roomID, err)
	}
	return nil
}

// Messages pagina el historial de la sala (dir "b" = hacia atrás). Lo usamos
// para el backfill inicial.
func (s *Session) Messages(ctx context.Context, roomID, from, dir string, limit int) ([]Event, string, error) {
	q := url.Values{}
	q.Set("dir", dir)
	q.Set("limit", fmt.Sprint(limit))
	if from != "" {
		q.Set("from", from)
	}
	path := clientPrefix + "/rooms/" + url.PathEscape(roomID) + "/messages"
	var dto messagesDTO
	if err := s.c.doJSON(ctx, "GET", path, s.token, q, nil, &dto); err != nil {
		return nil, "", fmt.Errorf("messages %s: %w", roomID, err)
	}
	return dto.Chunk, dto.End, nil
}
