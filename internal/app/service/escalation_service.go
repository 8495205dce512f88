package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jose-valero/matrix-archiver/internal/adapters/matrix"
)

// AdminCreds viene de la config (no del ambiente directo: así se testea sin
// tocar env). Vacías = escalación no disponible, que no es lo mismo que rota.
type AdminCreds struct {
	Username string
	Password string
}

var ErrNoAdminCreds = errors.New("escalación no disponible: faltan credenciales de admin")

// EscalationService mete al bot en una sala cuando el join normal devolvió
// Forbidden. Login fresco del admin en cada intento: escalar es raro y un
// token cacheado viejo molesta más de lo que ayuda.
type EscalationService struct {
	client     *matrix.Client
	creds      AdminCreds
	serverName string
	botUserID  string
	device     string
}

func NewEscalationService(client *matrix.Client, creds AdminCreds, serverName, botUserID string) *EscalationService {
	return &EscalationService{
		client:     client,
		creds:      creds,
		serverName: serverName,
		botUserID:  botUserID,
		device:     "archiver-admin",
	}
}

// Escalate: tres niveles, cada uno una sola vez por invocación.
//  1. login con credenciales de admin
//  2. force-join vía admin API de Synapse
//  3. plan B: el admin entra a la sala y nos manda la invitación
//
// Si el 3 falla, la sala queda sin unir hasta la próxima pasada del
// reconciliador, que vuelve a arrancar desde el 1.
func (e *EscalationService) Escalate(ctx context.Context, roomID string) error {
	if e.creds.Username == "" || e.creds.Password == "" {
		return ErrNoAdminCreds
	}

	adminID := matrix.QualifyUserID(e.creds.Username, e.serverName)
	admin, err := e.client.Login(ctx, adminID, e.creds.Password, e.device)
	if err != nil {
		return fmt.Errorf("login admin: %w", err)
	}

	err = admin.ForceJoin(ctx, roomID, e.botUserID)
	switch {
	case err == nil:
		log.Printf("✅ [escalate] force-join ok: %s -> %s", e.botUserID, roomID)
		return nil
	case errors.Is(err, matrix.ErrForbidden):
		// el admin no tiene privilegio de servidor: el plan B tampoco va
		// a andar mejor, cortamos acá
		return fmt.Errorf("admin sin privilegio para force-join: %w", err)
	default:
		// 404 (admin API no habilitada) o error de red: probamos el plan B
		log.Printf("⚠️ [escalate] force-join no disponible (%v), probando join+invite", err)
	}

	// el admin entra a la sala; "ya estaba adentro" cuenta como éxito
	if err := admin.JoinRoom(ctx, roomID); err != nil && !matrix.IsAlreadyInRoom(err) {
		return fmt.Errorf("join del admin a %s: %w", roomID, err)
	}
	// e invita al bot; "ya está en la sala" también cuenta como éxito
	if err := admin.Invite(ctx, roomID, e.botUserID); err != nil && !matrix.IsAlreadyInRoom(err) {
		return fmt.Errorf("invitación del admin en %s: %w", roomID, err)
	}

	log.Printf("✅ [escalate] %s invitado a %s vía admin", e.botUserID, roomID)
	return nil
}
