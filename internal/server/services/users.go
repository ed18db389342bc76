package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"filevault/internal/common"
	"filevault/internal/dbx"
	"filevault/internal/server/auth"
	"filevault/internal/server/config"
	"filevault/internal/server/models"
	"filevault/internal/server/repositories/repomanager"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService implements credential registration, login and refresh-token
// rotation.
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates a new account, hashing the password with a random
// per-user salt.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	salt := common.GenerateRandByteArray(32)
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	user := &models.User{
		UserName:     username,
		Email:        email,
		Salt:         salt,
		PasswordHash: auth.HashPassword(pw, salt),
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login verifies the credentials and issues a token pair. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	if !auth.CheckPassword(pw, user.Salt, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	tokenPair, err := s.generateTokenPair(ctx, user.ID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return tokenPair, nil
}

// Refresh rotates a refresh token: the old token is deleted and a new pair
// is issued in one transaction, so a token can be redeemed at most once.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var tokenPair *TokenPair

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txRepo := s.repomanager.RefreshTokens(tx)

		if err := txRepo.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}

		accessToken, err := auth.GenerateToken(token.UserID, s.jwtSecret, s.accessTokenValidityDuration)
		if err != nil {
			return fmt.Errorf("error generating access token: %w", err)
		}

		newRefreshToken, err := common.MakeRandHexString(32)
		if err != nil {
			return fmt.Errorf("error generating refresh token: %w", err)
		}

		if err := txRepo.Create(ctx, token.UserID, newRefreshToken, s.refreshTokenValidityDuration); err != nil {
			return fmt.Errorf("error saving refresh token: %w", err)
		}

		tokenPair = &TokenPair{AccessToken: accessToken, RefreshToken: newRefreshToken}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tokenPair, nil
}

// ResolveIdentity loads the identity attributes for a verified user id.
// The auth middleware uses this to attach an Identity to the request.
func (s *UserService) ResolveIdentity(ctx context.Context, userID string) (models.Identity, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return models.Identity{}, common.ErrorUnauthorized
		}
		return models.Identity{}, common.ErrorInternal
	}

	return models.Identity{ID: user.ID, Email: user.Email, Name: user.UserName}, nil
}

// VerifyAccessToken extracts the user id from a bearer token.
func (s *UserService) VerifyAccessToken(tokenString string) (string, error) {
	return auth.GetUserIDFromToken(tokenString, s.jwtSecret)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.RefreshTokens(s.db)
	if err := repo.Create(ctx, userID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
