package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/storage"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/utils"
)

type UserService interface {
	GetProfile(ctx context.Context, userID int) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error)
	SetRole(ctx context.Context, actor Actor, userID int, role models.UserRole) (*models.User, error)
	UploadAvatar(ctx context.Context, userID int, contentType string, file io.Reader) (*models.User, error)
}

type UpdateProfileInput struct {
	DisplayName   *string `json:"display_name"`
	PlayerTag     *string `json:"player_tag"`
	TownHallLevel *int    `json:"town_hall_level"`
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
	logger   *slog.Logger
}

// NewUserService accepts a nil uploader when uploads are disabled.
func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader, logger *slog.Logger) UserService {
	return &userService{userRepo: userRepo, uploader: uploader, logger: logger}
}

func (s *userService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, handleRepositoryError(err, "get user")
	}
	populateUserDetails(user, s.uploader)
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, handleRepositoryError(err, "get user")
	}

	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, fmt.Errorf("%w: display name cannot be empty", ErrValidationFailed)
		}
		user.DisplayName = name
	}
	if input.PlayerTag != nil {
		if strings.TrimSpace(*input.PlayerTag) == "" {
			user.PlayerTag = nil
		} else {
			tag := utils.NormalizeTag(*input.PlayerTag)
			if !utils.ValidTag(tag) {
				return nil, ErrInvalidPlayerTag
			}
			user.PlayerTag = &tag
		}
	}
	if input.TownHallLevel != nil {
		if *input.TownHallLevel < 1 || *input.TownHallLevel > maxTownHallLevel {
			return nil, fmt.Errorf("%w: town hall level must be between 1 and %d", ErrValidationFailed, maxTownHallLevel)
		}
		user.TownHallLevel = input.TownHallLevel
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, handleRepositoryError(err, "update user")
	}
	populateUserDetails(user, s.uploader)
	return user, nil
}

func (s *userService) SetRole(ctx context.Context, actor Actor, userID int, role models.UserRole) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbiddenOperation
	}
	switch role {
	case models.RolePlayer, models.RoleOrganizer, models.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidationFailed, role)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, handleRepositoryError(err, "get user")
	}
	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, handleRepositoryError(err, "update user role")
	}
	s.logger.InfoContext(ctx, "user role changed", slog.Int("user_id", userID), slog.String("role", string(role)), slog.Int("by", actor.UserID))
	populateUserDetails(user, s.uploader)
	return user, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID int, contentType string, file io.Reader) (*models.User, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	ext, err := storage.ImageExtension(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, handleRepositoryError(err, "get user")
	}

	key := storage.ObjectKey("avatars", userID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}
	if err := s.userRepo.UpdateAvatarKey(ctx, userID, &key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to clean up uploaded avatar", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, handleRepositoryError(err, "save avatar key")
	}

	if user.AvatarKey != nil && *user.AvatarKey != "" {
		if err := s.uploader.Delete(ctx, *user.AvatarKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous avatar", slog.String("key", *user.AvatarKey), slog.Any("error", err))
		}
	}

	user.AvatarKey = &key
	populateUserDetails(user, s.uploader)
	return user, nil
}
