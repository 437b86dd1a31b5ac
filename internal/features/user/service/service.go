package service

import (
	"context"

	"github.com/rs/zerolog/log"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/common/validation"
	"atmwater-backend/internal/features/user/models"
	"atmwater-backend/internal/features/user/repository"
)

type UserService interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*models.User, error)
	ListUsers(ctx context.Context, role *models.Role) ([]*models.UserResponse, error)
	UpdateProfile(ctx context.Context, user *models.User, name, email string) (*models.UserResponse, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *userService) GetByPhone(ctx context.Context, phoneNumber string) (*models.User, error) {
	return s.repo.GetByPhone(ctx, phoneNumber)
}

func (s *userService) ListUsers(ctx context.Context, role *models.Role) ([]*models.UserResponse, error) {
	users, err := s.repo.List(ctx, role)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}
	return responses, nil
}

func (s *userService) UpdateProfile(ctx context.Context, user *models.User, name, email string) (*models.UserResponse, error) {
	if len(name) > validation.MaxNameLength {
		return nil, apperrors.NewValidationError("name", "too long")
	}
	if len(email) > validation.MaxEmailLength {
		return nil, apperrors.NewValidationError("email", "too long")
	}

	user.Name = name
	user.Email = email
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Debug().Str("user_id", user.ID).Msg("profile updated")
	return user.ToResponse(), nil
}
