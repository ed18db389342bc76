// Package services orchestrates the file and user pathways on top of the
// repositories and the blob store.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"filevault/internal/common"
	"filevault/internal/filex"
	"filevault/internal/logging"
	"filevault/internal/server/models"
	"filevault/internal/server/repositories/files"
	"filevault/internal/server/storage"
)

// FileService implements the upload, listing, download, deletion and share
// pathways. It owns no mutable state; everything shared lives in the
// ownership index and the blob store.
type FileService struct {
	repo             files.Repository
	store            storage.BlobStore
	logger           logging.Logger
	maxUploadSize    int64
	shareURLValidity time.Duration
}

func NewFileService(repo files.Repository, store storage.BlobStore, logger logging.Logger, maxUploadSize int64, shareURLValidity time.Duration) *FileService {
	return &FileService{
		repo:             repo,
		store:            store,
		logger:           logger.With("module", "file_service"),
		maxUploadSize:    maxUploadSize,
		shareURLValidity: shareURLValidity,
	}
}

// makeObjectKey builds a date-prefixed random storage key. The key never
// collides with earlier uploads, so payloads stay immutable once written.
func makeObjectKey(filename string) string {
	d := time.Now()
	return fmt.Sprintf("users/%d/%02d/%02d/%s_%s", d.Year(), d.Month(), d.Day(), uuid.NewString(), filename)
}

// Upload validates the request, streams content into the blob store and
// records ownership metadata. Exactly one StoredFile is created per
// successful call; a failed transfer or failed metadata write leaves
// nothing behind.
func (s *FileService) Upload(ctx context.Context, identity models.Identity, filename string, content io.Reader, size int64, contentType string) (*models.StoredFile, error) {
	// Validating
	if identity.IsZero() {
		return nil, common.ErrorUnauthorized
	}
	if filename == "" || content == nil {
		return nil, common.ErrNoFileProvided
	}
	if size > s.maxUploadSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", common.ErrFileTooLarge, size, s.maxUploadSize)
	}
	if contentType == "" {
		contentType = filex.ContentTypeByName(filename)
	}

	// Streaming
	key := makeObjectKey(filename)
	if err := s.store.Put(ctx, key, content, size, contentType); err != nil {
		return nil, fmt.Errorf("streaming upload: %w", err)
	}

	file := &models.StoredFile{
		ID:          uuid.NewString(),
		Filename:    filename,
		SizeBytes:   size,
		ContentType: contentType,
		ObjectKey:   key,
		OwnerID:     identity.ID,
		OwnerEmail:  identity.Email,
		OwnerName:   identity.Name,
		UploadedAt:  time.Now().UTC(),
	}

	// Committed only once the metadata row exists. If the write fails the
	// blob is removed again so nothing claims success with missing state.
	if err := s.repo.Create(ctx, file); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Error(ctx, "orphaned blob after failed commit", "key", key, "error", delErr.Error())
		}
		return nil, fmt.Errorf("recording upload: %w", err)
	}

	s.logger.Info(ctx, "file uploaded", "file_id", file.ID, "filename", filename, "size", size)
	return file, nil
}

// List returns the files owned by identity, resolved through the ordered
// matcher chain of the ownership index. An empty slice is a valid result.
func (s *FileService) List(ctx context.Context, identity models.Identity) ([]*models.StoredFile, error) {
	if identity.IsZero() {
		return nil, common.ErrorUnauthorized
	}

	result, err := s.repo.ListByOwner(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return result, nil
}

// Download resolves a file by id or filename and opens a payload stream.
// The returned StoredFile always carries a usable content type; the caller
// must close the stream.
func (s *FileService) Download(ctx context.Context, fileID, filename string) (*models.StoredFile, io.ReadCloser, error) {
	var (
		file *models.StoredFile
		err  error
	)
	switch {
	case fileID != "":
		if _, parseErr := uuid.Parse(fileID); parseErr != nil {
			return nil, nil, common.ErrInvalidFileID
		}
		file, err = s.repo.GetByID(ctx, fileID)
	case filename != "":
		file, err = s.repo.GetByFilename(ctx, filename)
	default:
		return nil, nil, common.ErrInvalidFileID
	}
	if err != nil {
		return nil, nil, err
	}

	if file.ContentType == "" {
		file.ContentType = filex.ContentTypeByName(file.Filename)
	}

	stream, err := s.store.Get(ctx, file.ObjectKey)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, fmt.Errorf("opening download: %w", err)
	}
	return file, stream, nil
}

// Delete removes the blob and its metadata entry. The blob goes first:
// if the storage delete fails the metadata row stays, and a retry redoes
// both steps safely because the storage delete tolerates a missing key.
func (s *FileService) Delete(ctx context.Context, identity models.Identity, fileID string) error {
	if identity.IsZero() {
		return common.ErrorUnauthorized
	}
	if _, err := uuid.Parse(fileID); err != nil {
		return common.ErrInvalidFileID
	}

	file, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, file.ObjectKey); err != nil {
		return fmt.Errorf("deleting blob: %w", err)
	}
	if err := s.repo.Delete(ctx, fileID); err != nil {
		return err
	}

	s.logger.Info(ctx, "file deleted", "file_id", fileID)
	return nil
}

// ShareURL returns a time-limited presigned download URL for the file.
func (s *FileService) ShareURL(ctx context.Context, identity models.Identity, fileID string) (string, error) {
	if identity.IsZero() {
		return "", common.ErrorUnauthorized
	}
	if _, err := uuid.Parse(fileID); err != nil {
		return "", common.ErrInvalidFileID
	}

	file, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		return "", err
	}

	url, err := s.store.PresignGet(ctx, file.ObjectKey, file.Filename, s.shareURLValidity)
	if err != nil {
		return "", fmt.Errorf("presigning url: %w", err)
	}
	return url, nil
}
