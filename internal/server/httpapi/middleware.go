package httpapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"filevault/internal/common"
	"filevault/internal/server/models"
)

const identityContextKey = "identity"

// withIdentity resolves the caller's identity from a bearer token when one
// is present. It never rejects: pathways that require authentication enforce
// it themselves, and the listing pathway needs to distinguish "no session"
// from "session with zero files".
func (s *Server) withIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(common.AuthHeaderName)
		if strings.HasPrefix(header, common.AuthSchemePrefix) {
			token := strings.TrimPrefix(header, common.AuthSchemePrefix)

			userID, err := s.users.VerifyAccessToken(token)
			if err == nil {
				identity, err := s.users.ResolveIdentity(c.Request().Context(), userID)
				if err == nil {
					c.Set(identityContextKey, identity)
				}
			}
		}
		return next(c)
	}
}

// identityFromContext returns the resolved identity, or a zero Identity when
// the request carried no valid session.
func identityFromContext(c echo.Context) models.Identity {
	if identity, ok := c.Get(identityContextKey).(models.Identity); ok {
		return identity
	}
	return models.Identity{}
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		s.logger.Info(c.Request().Context(), "request",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", c.Response().Status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}
}
