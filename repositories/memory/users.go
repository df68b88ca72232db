package memory

import (
	"context"
	"strings"
	"time"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories"
)

type userRepository struct{ s *Store }

func (r *userRepository) conflict(u *models.User) error {
	for _, existing := range r.s.data.users {
		if existing.ID == u.ID {
			continue
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return repositories.ErrUserEmailConflict
		}
		if u.PlayerTag != nil && existing.PlayerTag != nil && *existing.PlayerTag == *u.PlayerTag {
			return repositories.ErrUserPlayerTagConflict
		}
	}
	return nil
}

func (r *userRepository) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.conflict(u); err != nil {
		return err
	}
	u.ID = r.s.id()
	u.CreatedAt = time.Now().UTC()
	r.s.data.users[u.ID] = *u
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id int) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *userRepository) Update(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.data.users[u.ID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	if err := r.conflict(u); err != nil {
		return err
	}
	existing.DisplayName = u.DisplayName
	existing.Role = u.Role
	existing.PlayerTag = u.PlayerTag
	existing.TownHallLevel = u.TownHallLevel
	r.s.data.users[u.ID] = existing
	return nil
}

func (r *userRepository) UpdateAvatarKey(_ context.Context, userID int, avatarKey *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.AvatarKey = avatarKey
	r.s.data.users[userID] = u
	return nil
}
