package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ediltrentini/site-backend/errs"
	"github.com/ediltrentini/site-backend/models"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db}
}

// FindByUsername returns the user with the given username or an error wrapping errs.ErrNotFound.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewNotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username %q: %w", username, err)
	}
	return &user, nil
}

// Add inserts a new user into the database
func (r *UserRepo) Add(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user %q: %w", user.Username, err)
	}
	return nil
}

// UpdatePasswordHash replaces the stored hash of the given user.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return fmt.Errorf("update password of user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NewNotFound("user")
	}
	return nil
}
