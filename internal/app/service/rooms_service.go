package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jose-valero/matrix-archiver/internal/adapters/matrix"
	"github.com/jose-valero/matrix-archiver/internal/infra/storage"
)

// RoomsService mantiene el set de salas del bot alineado con monitored_rooms:
// el reconciliador periódico (Refresh) y el manejo reactivo de invitaciones
// (HandleInvite). También cachea las políticas para el archivador.
type RoomsService struct {
	rooms MatrixRooms
	store RoomsStore
	esc   Escalator // puede ser nil: escalación no disponible

	interval time.Duration
	now      func() time.Time // inyectable para tests de cadencia

	mu          sync.Mutex // single-flight: una pasada a la vez
	lastRefresh time.Time

	pmu      sync.RWMutex
	policies map[string]storage.MonitoredRoom // solo filas enabled
}

func NewRoomsService(rooms MatrixRooms, store RoomsStore, esc Escalator, interval time.Duration) *RoomsService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &RoomsService{
		rooms:    rooms,
		store:    store,
		esc:      esc,
		interval: interval,
		now:      time.Now,
		policies: map[string]storage.MonitoredRoom{},
	}
}

// Refresh es una pasada del reconciliador: lee estado deseado y estado real,
// y empareja. Barato de llamar seguido: la cadencia interna (interval) decide
// si de verdad sale a la red.
func (s *RoomsService) Refresh(ctx context.Context) {
	if !s.mu.TryLock() {
		return // pasada anterior en vuelo; este tick se saltea
	}
	defer s.mu.Unlock()

	if s.now().Sub(s.lastRefresh) < s.interval {
		return
	}
	// la cadencia avanza siempre, fallas parciales incluidas: lo que quedó
	// mal se reintenta el próximo ciclo en vez de martillar al server ya
	defer func() { s.lastRefresh = s.now() }()

	log.Printf("🔄 [rooms] reconciliando salas...")

	monitored, merr := s.store.ListEnabled(ctx)
	if merr != nil {
		log.Printf("⚠️ [rooms] leyendo monitored_rooms: %v", merr)
	}
	knownIDs, kerr := s.store.KnownRoomIDs(ctx)
	if kerr != nil {
		log.Printf("⚠️ [rooms] leyendo room_ids conocidos: %v", kerr)
	}
	joined, jerr := s.rooms.JoinedRooms(ctx)
	if jerr != nil {
		log.Printf("⚠️ [rooms] leyendo joined_rooms: %v", jerr)
	}

	if merr == nil {
		s.setPolicies(monitored)
	}
	if merr != nil || kerr != nil || jerr != nil {
		// lectura coja: no tocamos nada este ciclo. En particular un
		// joined_rooms vacío por error JAMÁS se interpreta como "salir
		// de todas las salas".
		return
	}

	// Fase A: join a lo que falta (enabled + auto_join)
	for roomID, cfg := range monitored {
		if !cfg.AutoJoin {
			continue
		}
		if _, ok := joined[roomID]; ok {
			continue
		}
		log.Printf("🔗 [rooms] join a sala monitoreada: %s (%s)", cfg.RoomName, roomID)
		err := s.rooms.JoinRoom(ctx, roomID)
		switch {
		case err == nil:
			log.Printf("✅ [rooms] join ok: %s", roomID)
		case errors.Is(err, matrix.ErrForbidden):
			// sin invitación pendiente: la señal esperada para escalar
			log.Printf("⚠️ [rooms] sin invitación para %s, escalando", roomID)
			s.escalate(ctx, roomID)
		default:
			log.Printf("❌ [rooms] join %s: %v", roomID, err)
		}
	}

	// Fase B: leave solo de salas SIN fila en monitored_rooms. Deshabilitar
	// una sala pausa el archivo pero no nos saca de ella.
	for roomID := range joined {
		if _, ok := knownIDs[roomID]; ok {
			continue
		}
		log.Printf("🚪 [rooms] saliendo de sala no monitoreada: %s", roomID)
		if err := s.rooms.LeaveRoom(ctx, roomID); err != nil {
			log.Printf("❌ [rooms] leave %s: %v", roomID, err)
		}
	}

	log.Printf("✅ [rooms] reconciliación lista: monitoreadas=%d unidas=%d", len(knownIDs), len(joined))
}

func (s *RoomsService) escalate(ctx context.Context, roomID string) {
	if s.esc == nil {
		log.Printf("⚠️ [rooms] escalación no configurada, %s queda pendiente", roomID)
		return
	}
	if err := s.esc.Escalate(ctx, roomID); err != nil {
		log.Printf("❌ [rooms] escalación para %s: %v", roomID, err)
		return
	}
	log.Printf("✅ [rooms] escalación ok para %s", roomID)
}

// HandleInvite: llegó una invitación por el sync. Conocida: se acepta según
// política. Desconocida: se acepta siempre y la sala pasa a monitorearse
// (recién después de confirmar el join).
func (s *RoomsService) HandleInvite(ctx context.Context, roomID string) {
	log.Printf("📨 [rooms] invitación a %s", roomID)

	known, err := s.store.FindByRoomIDs(ctx, []string{roomID})
	if err != nil {
		// sin política no decidimos; la invitación queda pendiente y el
		// próximo sync la vuelve a traer
		log.Printf("⚠️ [rooms] no pude leer la política de %s: %v", roomID, err)
		return
	}

	if cfg, ok := known[roomID]; ok {
		if cfg.Enabled && cfg.AutoJoin {
			if err := s.rooms.JoinRoom(ctx, roomID); err != nil {
				log.Printf("❌ [rooms] aceptando invitación a %s: %v", roomID, err)
				return
			}
			log.Printf("✅ [rooms] invitación aceptada (sala monitoreada): %s", roomID)
		} else {
			// a propósito no hay rechazo a nivel protocolo: queda pendiente
			// y para el homeserver seguimos afuera
			log.Printf("⚠️ [rooms] invitación ignorada (auto_join apagado): %s", roomID)
		}
		return
	}

	if err := s.rooms.JoinRoom(ctx, roomID); err != nil {
		// sin join confirmado no se registra nada
		log.Printf("❌ [rooms] join a sala nueva %s: %v", roomID, err)
		return
	}
	room := storage.MonitoredRoom{
		RoomID:       roomID,
		RoomName:     deriveRoomName(roomID),
		Enabled:      true,
		AutoJoin:     true,
		ArchiveMedia: true,
	}
	if err := s.store.Upsert(ctx, room); err != nil {
		// ya estamos adentro; la registrará un operador o el próximo intento
		log.Printf("⚠️ [rooms] no pude registrar %s en monitored_rooms: %v", roomID, err)
		return
	}
	s.addPolicy(room)
	log.Printf("✅ [rooms] sala nueva registrada: %s (%s)", room.RoomName, roomID)
}

// deriveRoomName: nombre amigable a partir del ID ("Room !abc123de").
func deriveRoomName(roomID string) string {
	local := roomID
	if i := strings.IndexByte(local, ':'); i >= 0 {
		local = local[:i]
	}
	if len(local) > 8 {
		local = local[len(local)-8:]
	}
	return "Room " + local
}

// --- cache de políticas (lo consulta el archivador por cada evento) ---

func (s *RoomsService) setPolicies(monitored map[string]storage.MonitoredRoom) {
	fresh := make(map[string]storage.MonitoredRoom, len(monitored))
	for id, m := range monitored {
		fresh[id] = m
	}
	s.pmu.Lock()
	s.policies = fresh
	s.pmu.Unlock()
}

func (s *RoomsService) addPolicy(m storage.MonitoredRoom) {
	s.pmu.Lock()
	s.policies[m.RoomID] = m
	s.pmu.Unlock()
}

// ShouldArchive: ¿guardamos mensajes de esta sala?
func (s *RoomsService) ShouldArchive(ctx context.Context, roomID string) bool {
	m, ok := s.policy(ctx, roomID)
	return ok && m.Enabled
}

// ShouldArchiveMedia: ¿guardamos también los adjuntos?
func (s *RoomsService) ShouldArchiveMedia(ctx context.Context, roomID string) bool {
	m, ok := s.policy(ctx, roomID)
	return ok && m.Enabled && m.ArchiveMedia
}

func (s *RoomsService) policy(ctx context.Context, roomID string) (storage.MonitoredRoom, bool) {
	s.pmu.RLock()
	m, ok := s.policies[roomID]
	s.pmu.RUnlock()
	if ok {
		return m, true
	}
	// miss: puede ser una sala recién unida que todavía no pasó por Refresh
	found, err := s.store.FindByRoomIDs(ctx, []string{roomID})
	if err != nil {
		log.Printf("⚠️ [rooms] política de %s: %v", roomID, err)
		return storage.MonitoredRoom{}, false
	}
	m, ok = found[roomID]
	if ok && m.Enabled {
		s.addPolicy(m)
	}
	return m, ok
}
