package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/123sania456789/MindTrackAI/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureExists creates a placeholder row for an identity first seen in a
// token, so journal rows always have an owner.
func (r *UserRepository) EnsureExists(ctx context.Context, id int64) (*model.User, error) {
	user := model.User{ID: id}
	err := r.db.WithContext(ctx).
		Where(model.User{ID: id}).
		Attrs(model.User{Username: fmt.Sprintf("user_%d", id)}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
