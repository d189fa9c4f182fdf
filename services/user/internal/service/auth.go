package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkravets/shop-system/pkg/hash"
	"github.com/mkravets/shop-system/pkg/logging"
	"github.com/mkravets/shop-system/pkg/metrics"
	"github.com/mkravets/shop-system/pkg/mykafka"
	"github.com/mkravets/shop-system/pkg/tokens"
	"github.com/mkravets/shop-system/services/user/internal/models"
	"github.com/mkravets/shop-system/services/user/internal/repo"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password") // 401
	ErrInvalidToken       = errors.New("invalid token")                // 401
	ErrUserExists         = errors.New("user already exists")          // 409
	ErrUserNotFound       = errors.New("user not found")               // 404
)

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	TokenTTL  time.Duration
	Producer  *mykafka.Producer
}

type TokenResult struct {
	Token     string
	ExpiresAt time.Time
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", username)

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register failed", "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := &models.User{
		Username:     username,
		PasswordHash: pwHash,
		Role:         "user",
	}

	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExists) {
			l.Warn("register failed", "reason", "user already exists")
			return nil, ErrUserExists
		}
		l.Error("register failed", "error", err)
		return nil, err
	}

	s.publishEvent(ctx, "user_registered", user)
	return user, nil
}

// IssueToken verifies the password against the stored bcrypt hash and mints
// a signed access token. Unknown user and wrong password fail identically.
func (s *AuthService) IssueToken(ctx context.Context, username, password string) (*TokenResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("failed").Inc()
			l.Warn("login failed", "reason", "invalid credentials")
			return nil, ErrInvalidCredentials
		}
		l.Error("login failed", "error", err)
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		metrics.LoginsTotal.WithLabelValues("failed").Inc()
		l.Warn("login failed", "reason", "invalid credentials")
		return nil, ErrInvalidCredentials
	}

	token, exp, err := tokens.SignAccessToken(user.Username, user.Role, s.JWTSecret, s.TokenTTL)
	if err != nil {
		l.Error("login failed", "reason", "cannot sign token", "error", err)
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	s.publishEvent(ctx, "user_logged_in", user)
	l.Info("login successful")

	return &TokenResult{Token: token, ExpiresAt: exp}, nil
}

// Validate is the stateless check behind the validate endpoint: signature and
// expiry only, no revocation store to consult.
func (s *AuthService) Validate(ctx context.Context, token string) (username, role string, err error) {
	claims, err := tokens.AccessClaimsFromToken(token, s.JWTSecret)
	if err != nil {
		metrics.ValidationsTotal.WithLabelValues("invalid").Inc()
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	metrics.ValidationsTotal.WithLabelValues("ok").Inc()
	return claims.Username, claims.Role, nil
}

func (s *AuthService) DeleteUser(ctx context.Context, username string) error {
	if err := s.Repo.DeleteByUsername(ctx, username); err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *AuthService) publishEvent(ctx context.Context, eventType string, user *models.User) {
	l := logging.FromContext(ctx)

	event := map[string]interface{}{
		"event_id": uuid.NewString(),
		"type":     eventType,
		"user_id":  user.ID,
		"username": user.Username,
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.Producer.PublishEvent(pubCtx, "user_events", fmt.Sprint(user.ID), event); err != nil {
		l.Error("kafka publish error", "error", err)
	}
}
