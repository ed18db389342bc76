package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"filevault/internal/common"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// respondError classifies err into an HTTP status and a display-safe
// message. Unclassified errors become a generic 500; their detail stays in
// the server log only.
func (s *Server) respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, common.ErrNoFileProvided):
		status, message = http.StatusBadRequest, "no file provided"
	case errors.Is(err, common.ErrFileTooLarge):
		status, message = http.StatusBadRequest, "file too large"
	case errors.Is(err, common.ErrInvalidFileID):
		status, message = http.StatusBadRequest, "invalid file id"
	case errors.Is(err, common.ErrorNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrUserAlreadyExists):
		status, message = http.StatusConflict, "user already exists"
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		status, message = http.StatusUnauthorized, "unauthorized"
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "request failed", "error", err.Error())
	}

	return c.JSON(status, errorResponse{Success: false, Error: message})
}
