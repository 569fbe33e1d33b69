package api

import (
	"strings"

	"github.com/labstack/echo/v4"

	"taskboard-api/domain"
)

const bearerPrefix = "Bearer "

// identityFromRequest resolves the bearer session token on the request into
// an authenticated identity. An absent, malformed or unknown token resolves
// to nil; the resolvers turn that into their in-band authorization errors.
// Only a session store failure is an error.
func identityFromRequest(c echo.Context, sessions SessionStore) (*domain.Identity, error) {
	token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if token == "" {
		return nil, nil
	}
	return sessions.Get(c.Request().Context(), token)
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) <= len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
