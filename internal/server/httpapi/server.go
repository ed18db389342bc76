// Package httpapi exposes the file and auth pathways over HTTP using echo.
// Handlers classify service errors into statuses; no raw internal error
// detail crosses this boundary.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"filevault/internal/logging"
	"filevault/internal/server/models"
	"filevault/internal/server/services"
)

// FileService is the subset of the file pathways used by the handlers.
type FileService interface {
	Upload(ctx context.Context, identity models.Identity, filename string, content io.Reader, size int64, contentType string) (*models.StoredFile, error)
	List(ctx context.Context, identity models.Identity) ([]*models.StoredFile, error)
	Download(ctx context.Context, fileID, filename string) (*models.StoredFile, io.ReadCloser, error)
	Delete(ctx context.Context, identity models.Identity, fileID string) error
	ShareURL(ctx context.Context, identity models.Identity, fileID string) (string, error)
}

// UserService is the subset of the account pathways used by the handlers.
type UserService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	ResolveIdentity(ctx context.Context, userID string) (models.Identity, error)
	VerifyAccessToken(tokenString string) (string, error)
}

// Server wires the echo engine, routes and middleware.
type Server struct {
	address string
	echo    *echo.Echo
	files   FileService
	users   UserService
	logger  logging.Logger
}

func NewServer(address string, logger logging.Logger, files FileService, users UserService) *Server {
	s := &Server{
		address: address,
		files:   files,
		users:   users,
		logger:  logger.With("module", "http_server"),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(s.requestLogger)
	e.Use(s.withIdentity)

	api := e.Group("/api")
	{
		api.POST("/auth/register", s.handleRegister)
		api.POST("/auth/login", s.handleLogin)
		api.POST("/auth/refresh", s.handleRefresh)

		api.POST("/files", s.handleUpload)
		api.GET("/files", s.handleList)
		api.GET("/files/download", s.handleDownload)
		api.GET("/files/share", s.handleShare)
		api.DELETE("/files", s.handleDelete)
	}

	s.echo = e
	return s
}

// Run starts the HTTP listener and shuts it down gracefully when ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info(ctx, "starting HTTP server", "address", s.address)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info(ctx, "stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}
