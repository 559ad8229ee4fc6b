package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/journalapp/syncserver/internal/common"
	"github.com/journalapp/syncserver/internal/dbx"
	"github.com/journalapp/syncserver/internal/server/auth"
	"github.com/journalapp/syncserver/internal/server/config"
	"github.com/journalapp/syncserver/internal/server/models"
	"github.com/journalapp/syncserver/internal/server/repositories/repomanager"
)

// TokenPair is what a successful login or refresh returns. The device id is
// generated per login and ties the refresh token to one device.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	DeviceID     string
}

// AuthService registers accounts, logs devices in and rotates refresh
// tokens. Access tokens are short-lived HS256 JWTs; the HTTP middleware
// validates them before any sync operation runs.
type AuthService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	config *config.Config
}

// NewAuthService constructs the auth service.
func NewAuthService(db *sql.DB, repos repomanager.RepositoryManager, config *config.Config) *AuthService {
	return &AuthService{db: db, repos: repos, config: config}
}

// Register creates an account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}
	return s.repos.Users(s.db).Create(ctx, user)
}

// Login verifies the password and issues a token pair for a fresh device id.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}

	return s.issueTokens(ctx, s.db, user.ID, uuid.NewString())
}

// Refresh rotates a refresh token: the old token is deleted and a new pair
// is issued for the same user and device. The token must belong to the
// device that presents it.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, deviceID string) (*TokenPair, error) {
	stored, err := s.repos.RefreshTokens(s.db).Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}

	if stored.DeviceID != deviceID {
		return nil, common.ErrInvalidToken
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return err
		}
		pair, err = s.issueTokens(ctx, tx, stored.UserID, stored.DeviceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *AuthService) issueTokens(ctx context.Context, db dbx.DBTX, userID, deviceID string) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(userID, []byte(s.config.SecretKey), s.config.AccessTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	refreshToken := &models.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    userID,
		DeviceID:  deviceID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.RefreshTokenValidityDuration),
	}
	if err := s.repos.RefreshTokens(db).Create(ctx, refreshToken); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.Token,
		DeviceID:     deviceID,
	}, nil
}
