package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/vaxtrack/registry-api/internal/model"
	"github.com/vaxtrack/registry-api/internal/repository"
	"github.com/vaxtrack/registry-api/pkg/auth"
	apperrors "github.com/vaxtrack/registry-api/pkg/errors"
	"github.com/vaxtrack/registry-api/pkg/security"
)

type Service struct {
	users  repository.UserRepository
	jwtSvc auth.JWTService
	hasher security.PasswordHasher
}

func NewService(users repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{
		users:  users,
		jwtSvc: jwtSvc,
		hasher: hasher,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.NewValidation(err.Error())
	}

	role := req.Role
	if role == "" {
		role = model.RoleResident
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Mobile:       req.Mobile,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		// Do not leak whether the email exists.
		return nil, apperrors.Unauthorized(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	token, err := s.jwtSvc.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        user,
	}, nil
}

// CurrentUser resolves a validated token's claims to the stored user.
func (s *Service) CurrentUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.users.Get(ctx, id)
}

func (s *Service) ValidateToken(token string) (*auth.Claims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}
	return claims, nil
}
