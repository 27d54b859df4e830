// Package auth implements registration and login. Tokens identify callers to
// the API layer; the engine only ever sees the numeric user id.
package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"bidvault/internal/engine"
	"bidvault/internal/model"
	"bidvault/internal/util"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserStore is the slice of the repository the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

type Service struct {
	store     UserStore
	jwtSecret string
	logger    *zap.Logger
}

func NewService(store UserStore, jwtSecret string, logger *zap.Logger) *Service {
	return &Service{store: store, jwtSecret: jwtSecret, logger: logger}
}

func (s *Service) Register(ctx context.Context, email, password string) (*model.User, error) {
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, engine.ErrNotFound) {
		return nil, err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{Email: email, PasswordHash: hash}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.Int("user_id", u.ID))
	return u, nil
}

// Login checks the credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, engine.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !util.CheckPassword(u.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(u.ID, s.jwtSecret)
	if err != nil {
		return "", err
	}

	s.logger.Info("User logged in", zap.Int("user_id", u.ID))
	return token, nil
}
