package matrix

import (
	"context"
	"fmt"
	"net/url"
)

// ForceJoin usa la admin API de Synapse para meter a userID en la sala sin
// pasar por invitación. Clasificación del resultado:
//   - nil: adentro
//   - ErrForbidden (403): el admin no tiene privilegio de servidor
//   - ErrNotFound (404): sala inexistente o admin API no habilitada
func (s *Session) ForceJoin(ctx context.Context, roomID, userID string) error {
	path := "/_synapse/admin/v1/join/" + url.PathEscape(roomID)
	if err := s.c.doJSON(ctx, "POST", path, s.token, nil, forceJoinRequest{UserID: userID}, nil); err != nil {
		return fmt.Errorf("force-join %s a %s: %w", userID, roomID, err)
	}
	return nil
}
