package matrix

import (
	"context"
	"fmt"
	"strings"
)

// Session es un access token sobre el Client compartido. El transporte HTTP
// es el mismo para el bot y el admin; solo cambia el token.
type Session struct {
	c      *Client
	UserID string
	token  string
}

// Login hace m.login.password y devuelve la sesión lista para usar.
func (c *Client) Login(ctx context.Context, userID, password, deviceName string) (*Session, error) {
	var out loginResponse
	err := c.doJSON(ctx, "POST", clientPrefix+"/login", "", nil, loginRequest{
		Type:                     "m.login.password",
		User:                     userID,
		Password:                 password,
		InitialDeviceDisplayName: deviceName,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("login %s: %w", userID, err)
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("login %s: respuesta sin access_token", userID)
	}
	return &Session{c: c, UserID: out.UserID, token: out.AccessToken}, nil
}

// QualifyUserID: completa "@user:server" si vino el username pelado.
func QualifyUserID(username, serverName string) string {
	if strings.Contains(username, ":") {
		return username
	}
	return "@" + strings.TrimPrefix(username, "@") + ":" + serverName
}

// ServerName extrae el dominio de un user ID completo ("" si no se puede).
func ServerName(userID string) string {
	if i := strings.IndexByte(userID, ':'); i >= 0 {
		return userID[i+1:]
	}
	return ""
}
