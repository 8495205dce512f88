package matrix

import (
	"context"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/jose-valero/matrix-archiver/internal/domain"
)

// SyncCallbacks: qué hacer con lo que trae cada /sync. Cualquiera puede ser nil.
type SyncCallbacks struct {
	// OnInvite se dispara una vez por sala con invitación pendiente.
	OnInvite func(ctx context.Context, roomID string)
	// OnMessage se dispara por cada m.room.message del timeline.
	OnMessage func(ctx context.Context, ev domain.MessageEvent)
}

// SyncForever corre el long-poll de /sync hasta que el ctx muera. Los errores
// de red no cortan el loop: se loguean y se reintenta tras una pausa.
func (s *Session) SyncForever(ctx context.Context, timeout time.Duration, cb SyncCallbacks) error {
	since := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		next, err := s.syncOnce(ctx, since, timeout, cb)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("⚠️ [sync] %v", err)
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		since = next
	}
}

func (s *Session) syncOnce(ctx context.Context, since string, timeout time.Duration, cb SyncCallbacks) (string, error) {
	q := url.Values{}
	if since != "" {
		q.Set("since", since)
		q.Set("timeout", strconv.FormatInt(timeout.Milliseconds(), 10))
	}
	// el request entero tiene que poder esperar el long-poll completo
	rctx, cancel := context.WithTimeout(ctx, timeout+15*time.Second)
	defer cancel()

	var dto syncResponse
	if err := s.c.doJSON(rctx, "GET", clientPrefix+"/sync", s.token, q, nil, &dto); err != nil {
		return "", err
	}

	if cb.OnInvite != nil {
		for roomID := range dto.Rooms.Invite {
			cb.OnInvite(ctx, roomID)
		}
	}
	if cb.OnMessage != nil {
		for roomID, room := range dto.Rooms.Join {
			for _, ev := range room.Timeline.Events {
				if ev.Type != "m.room.message" {
					continue
				}
				cb.OnMessage(ctx, ToMessageEvent(roomID, ev))
			}
		}
	}
	return dto.NextBatch, nil
}

// ToMessageEvent arma el modelo de dominio, incluyendo thread/reply si el
// content trae m.relates_to.
func ToMessageEvent(roomID string, ev Event) domain.MessageEvent {
	msgtype, _ := ev.Content["msgtype"].(string)
	me := domain.MessageEvent{
		EventID:     ev.EventID,
		RoomID:      roomID,
		Sender:      ev.Sender,
		Timestamp:   ev.OriginServerTS,
		MessageType: msgtype,
		Content:     ev.Content,
	}
	rel, _ := ev.Content["m.relates_to"].(map[string]any)
	if rel == nil {
		return me
	}
	if rt, _ := rel["rel_type"].(string); rt == "m.thread" {
		me.ThreadID, _ = rel["event_id"].(string)
	} else if reply, _ := rel["m.in_reply_to"].(map[string]any); reply != nil {
		me.ReplyToEventID, _ = reply["event_id"].(string)
	}
	return me
}
