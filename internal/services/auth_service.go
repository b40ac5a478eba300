package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/planshare/planshare-backend/internal/config"
	"github.com/planshare/planshare-backend/internal/dto"
	"github.com/planshare/planshare-backend/internal/models"
	"github.com/planshare/planshare-backend/internal/repository"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrOwnsPlans          = errors.New("cannot delete an account that still owns plans")
)

type AuthService struct {
	store repository.Store
	cfg   *config.Config
}

func NewAuthService(store repository.Store, cfg *config.Config) *AuthService {
	return &AuthService{store: store, cfg: cfg}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if len(req.Email) == 0 || len(req.Password) < 8 {
		return nil, errors.New("email required and password must be at least 8 characters")
	}

	existing, err := s.store.Users().FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		UUID:     uuid.New(),
		Email:    req.Email,
		Password: string(hash),
		Role:     "user",
	}

	if err := s.store.Users().Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.generateTokenPair(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.store.Users().FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(ctx, user)
}

func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	stored, err := s.store.RefreshTokens().FindByHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrInvalidToken
	}

	// Refresh tokens rotate: the presented one is spent either way.
	if err := s.store.RefreshTokens().Revoke(ctx, tokenHash); err != nil {
		return nil, err
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	user, err := s.store.Users().GetByUUID(ctx, stored.UserUUID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return s.generateTokenPair(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	return s.store.RefreshTokens().Revoke(ctx, hashToken(req.RefreshToken))
}

// DeleteAccount removes the user and their refresh tokens after a
// password check. The user's JOINED subscriptions are cancelled in the
// same transaction so no plan is left pointing at a missing member.
// Plan owners must dispose of their plans first; deleting the owner
// would orphan every membership on them.
func (s *AuthService) DeleteAccount(ctx context.Context, userUUID uuid.UUID, password string) error {
	user, err := s.store.Users().FindByUUID(ctx, userUUID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	return s.store.Atomically(ctx, func(tx repository.Store) error {
		owned, err := tx.Plans().FindByOwner(ctx, userUUID)
		if err != nil {
			return err
		}
		if len(owned) > 0 {
			return ErrOwnsPlans
		}

		subs, err := tx.Subscriptions().FindByUser(ctx, userUUID)
		if err != nil {
			return err
		}
		for i := range subs {
			sub := &subs[i]
			if !sub.Active() {
				continue
			}
			if err := sub.Transition(models.SubscriptionCancelled); err != nil {
				return err
			}
			if err := tx.Subscriptions().Update(ctx, sub); err != nil {
				return err
			}
		}

		if err := tx.RefreshTokens().DeleteByUser(ctx, userUUID); err != nil {
			return err
		}
		return tx.Users().Delete(ctx, userUUID)
	})
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			UUID:  user.UUID,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.UUID.String(),
		"email": user.Email,
		"role":  user.Role,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := &models.RefreshToken{
		UUID:      uuid.New(),
		UserUUID:  user.UUID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.store.RefreshTokens().Insert(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
