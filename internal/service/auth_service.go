package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"firmflow/internal/model"
	"firmflow/internal/repository"
	"firmflow/internal/util"
	"firmflow/pkg/rbac"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService struct {
	userRepo  *repository.UserRepository
	jwtSecret string
}

func NewAuthService(userRepo *repository.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
	}
}

// Register creates a new user.
func (s *AuthService) Register(ctx context.Context, email, password, role string) (*model.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("email already exists")
	}
	if role == "" {
		role = rbac.RoleStaff
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Login checks user credentials and returns a signed JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u == nil || !util.CheckPassword(password, u.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	return util.GenerateJWT(u.ID, u.Role, s.jwtSecret)
}
