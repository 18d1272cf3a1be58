package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tasklist/core/internal/domain/entities"
	"github.com/tasklist/core/internal/infrastructure/logger"
	"github.com/tasklist/core/internal/ports"
)

// UserService handles profile operations for the signed-in user
type UserService struct {
	userRepo ports.UserRepository
	logger   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger.WithComponent("users"),
	}
}

// GetProfile returns the caller's own account
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return user, nil
}

// UpdateProfilePhoto sets or, with a nil photo, clears the caller's profile photo
func (s *UserService) UpdateProfilePhoto(ctx context.Context, userID uuid.UUID, req ports.UpdateProfilePhotoRequest) (*entities.User, error) {
	user, err := s.userRepo.UpdateProfilePhoto(ctx, userID, req.ProfilePhoto)
	if err != nil {
		return nil, fmt.Errorf("update profile photo: %w", err)
	}

	s.logger.LogUserAction(userID, "update_profile_photo", "cleared", req.ProfilePhoto == nil)
	return user, nil
}
