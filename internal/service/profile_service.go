package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "studytrack/backend/internal/errors"
	"studytrack/backend/internal/model"
	"studytrack/backend/internal/repository"
)

type ProfileService struct {
	userRepo *repository.UserRepository
}

type ProfileInput struct {
	Name     string
	Phone    string
	Bio      string
	Location string
	ExamType string
}

func NewProfileService(userRepo *repository.UserRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*model.User, *apperrors.APIError) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("user_not_found", "user not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to fetch profile")
	}
	return user, nil
}

func (s *ProfileService) Update(ctx context.Context, userID string, input ProfileInput) (*model.User, *apperrors.APIError) {
	if !model.IsValidExamType(input.ExamType) {
		return nil, apperrors.BadRequest("invalid_exam_type", "unknown exam type")
	}

	user, apiErr := s.Get(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	user.Name = strings.TrimSpace(input.Name)
	user.Phone = strings.TrimSpace(input.Phone)
	user.Bio = input.Bio
	user.Location = strings.TrimSpace(input.Location)
	user.ExamType = input.ExamType
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, apperrors.Internal("failed to update profile")
	}
	return user, nil
}

func (s *ProfileService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) *apperrors.APIError {
	if len(newPassword) < 6 {
		return apperrors.BadRequest("invalid_password", "password must be at least 6 characters")
	}

	user, apiErr := s.Get(ctx, userID)
	if apiErr != nil {
		return apiErr
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return apperrors.Unauthorized("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal("failed to secure password")
	}

	updatedAt := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.userRepo.UpdatePassword(ctx, userID, string(hash), updatedAt); err != nil {
		return apperrors.Internal("failed to update password")
	}
	return nil
}
