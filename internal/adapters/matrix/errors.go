package matrix

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrForbidden: el homeserver rechazó la operación (403). En un join significa
// "no hay invitación pendiente" y es la señal para escalar con el admin.
var ErrForbidden = errors.New("matrix: forbidden")

// ErrNotFound: sala o endpoint inexistente (404). En la admin API significa
// que el servidor no soporta el endpoint.
var ErrNotFound = errors.New("matrix: not found")

// APIError es cualquier respuesta de error del homeserver.
type APIError struct {
	Status  int
	Code    string // errcode, ej M_FORBIDDEN
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("matrix api status %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("matrix api status %d: %s", e.Status, e.Message)
}

// Is permite errors.Is(err, ErrForbidden) sin perder el detalle del APIError.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// IsAlreadyInRoom: el "error" idempotente que devuelven join/invite cuando el
// usuario ya está adentro. Lo tratamos como éxito en la escalación.
func IsAlreadyInRoom(err error) bool {
	var e *APIError
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == "M_FORBIDDEN" && strings.Contains(strings.ToLower(e.Message), "already in the room")
}
