package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"

	"filevault/internal/common"
	"filevault/internal/filex"
	"filevault/internal/server/models"
)

type uploadResponse struct {
	Success  bool   `json:"success"`
	FileID   string `json:"fileId"`
	Filename string `json:"filename"`
}

// fileView is the display-oriented shape returned by the listing pathway.
type fileView struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	SizeBytes   int64     `json:"sizeBytes"`
	SizeHuman   string    `json:"sizeHuman"`
	ContentType string    `json:"contentType"`
	TypeLabel   string    `json:"typeLabel"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

type listResponse struct {
	Success bool       `json:"success"`
	Files   []fileView `json:"files"`
	Session bool       `json:"session"`
}

type deleteRequest struct {
	FileID string `json:"fileId"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type shareResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

func (s *Server) handleUpload(c echo.Context) error {
	identity := identityFromContext(c)
	if identity.IsZero() {
		return s.respondError(c, common.ErrorUnauthorized)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return s.respondError(c, common.ErrNoFileProvided)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return s.respondError(c, fmt.Errorf("opening multipart file: %w", err))
	}
	defer src.Close()

	contentType := fileHeader.Header.Get(echo.HeaderContentType)

	file, err := s.files.Upload(c.Request().Context(), identity, fileHeader.Filename, src, fileHeader.Size, contentType)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, uploadResponse{
		Success:  true,
		FileID:   file.ID,
		Filename: file.Filename,
	})
}

func (s *Server) handleList(c echo.Context) error {
	identity := identityFromContext(c)
	if identity.IsZero() {
		// distinguishable from an authenticated user with zero files
		return c.JSON(http.StatusOK, listResponse{Success: true, Files: []fileView{}, Session: false})
	}

	result, err := s.files.List(c.Request().Context(), identity)
	if err != nil {
		return s.respondError(c, err)
	}

	views := make([]fileView, 0, len(result))
	for _, f := range result {
		views = append(views, toFileView(f))
	}

	return c.JSON(http.StatusOK, listResponse{Success: true, Files: views, Session: true})
}

func (s *Server) handleDownload(c echo.Context) error {
	fileID := c.QueryParam("fileId")
	filename := c.QueryParam("filename")

	file, stream, err := s.files.Download(c.Request().Context(), fileID, filename)
	if err != nil {
		return s.respondError(c, err)
	}
	defer stream.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Response().Header().Set(echo.HeaderContentLength, fmt.Sprintf("%d", file.SizeBytes))

	return c.Stream(http.StatusOK, file.ContentType, stream)
}

func (s *Server) handleDelete(c echo.Context) error {
	identity := identityFromContext(c)

	var req deleteRequest
	if err := c.Bind(&req); err != nil || req.FileID == "" {
		return s.respondError(c, common.ErrInvalidFileID)
	}

	if err := s.files.Delete(c.Request().Context(), identity, req.FileID); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleShare(c echo.Context) error {
	identity := identityFromContext(c)

	url, err := s.files.ShareURL(c.Request().Context(), identity, c.QueryParam("fileId"))
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, shareResponse{Success: true, URL: url})
}

func toFileView(f *models.StoredFile) fileView {
	return fileView{
		ID:          f.ID,
		Filename:    f.Filename,
		SizeBytes:   f.SizeBytes,
		SizeHuman:   humanize.Bytes(uint64(f.SizeBytes)),
		ContentType: f.ContentType,
		TypeLabel:   filex.TypeLabel(f.ContentType),
		UploadedAt:  f.UploadedAt,
	}
}
