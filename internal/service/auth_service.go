package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"checkpay/internal/domain"
	"checkpay/internal/repository"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("rate limited")
	ErrUserNotFound       = errors.New("user not found")
)

// dummyHash iguala el costo de bcrypt cuando el usuario no existe.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("checkpay-dummy"), bcrypt.DefaultCost)

// AuthService valida credenciales y emite tokens de acceso.
type AuthService struct {
	logger  *zap.Logger
	users   repository.UserRepository
	tokens  *JWTService
	limiter LoginLimiter
}

type LoginResult struct {
	AccessToken string
	User        domain.User
}

func NewAuthService(logger *zap.Logger, users repository.UserRepository, tokens *JWTService, limiter LoginLimiter) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewLoginLimiter(10*time.Minute, 5)
	}
	return &AuthService{
		logger:  logger,
		users:   users,
		tokens:  tokens,
		limiter: limiter,
	}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if s.users == nil || s.tokens == nil {
		return LoginResult{}, errors.New("auth service not configured")
	}

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, ErrMissingCredentials
	}
	if s.limiter.Blocked(ctx, username) {
		s.logger.Warn("login throttled", zap.String("username", username))
		return LoginResult{}, ErrRateLimited
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return LoginResult{}, err
	}
	hash := []byte(user.PasswordHash)
	if err != nil || len(hash) == 0 {
		hash = dummyHash
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil || user.ID == "" {
		s.limiter.RecordFailure(ctx, username)
		s.logger.Info("login failed", zap.String("username", username))
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, err
	}
	s.limiter.Reset(ctx, username)
	s.logger.Info("login succeeded", zap.String("username", user.Username), zap.String("user_id", user.ID))
	return LoginResult{AccessToken: token, User: user}, nil
}

// Authenticate resuelve el usuario de un token de acceso.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (domain.User, error) {
	claims, err := s.tokens.ParseAccessToken(accessToken)
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return user, err
}

// BootstrapUsers crea o actualiza los usuarios configurados con hash bcrypt.
func (s *AuthService) BootstrapUsers(ctx context.Context, users map[string]string) error {
	for name, password := range users {
		name = strings.TrimSpace(name)
		if name == "" || password == "" {
			return ErrMissingCredentials
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user, err := s.users.Upsert(ctx, domain.User{
			ID:           uuid.NewString(),
			Username:     name,
			PasswordHash: string(hash),
			CreatedAt:    time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		s.logger.Info("bootstrap user ready", zap.String("username", user.Username), zap.String("user_id", user.ID))
	}
	return nil
}
