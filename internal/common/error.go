// Package common defines shared constants and sentinel errors used across
// the filevault server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Upload validation errors.
	ErrNoFileProvided = errors.New("no file provided")
	ErrFileTooLarge   = errors.New("file too large")
	ErrInvalidFileID  = errors.New("invalid file id")

	// Account errors.
	ErrUserAlreadyExists = errors.New("user already exists")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
