package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/vaxtrack/registry-api/internal/model"
	"github.com/vaxtrack/registry-api/internal/repository"
	apperrors "github.com/vaxtrack/registry-api/pkg/errors"
	"github.com/vaxtrack/registry-api/pkg/security"
)

type Service struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
}

func NewService(users repository.UserRepository, hasher security.PasswordHasher) *Service {
	return &Service{users: users, hasher: hasher}
}

func (s *Service) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.users.List(ctx)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.users.Get(ctx, id)
}

// UpdateProfile applies a self-edit. Only the account owner may call
// this; handlers enforce the caller/id match.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Mobile != nil {
		user.Mobile = *req.Mobile
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, apperrors.NewValidation(err.Error())
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}
