package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "paperless/internal/errors"
	"paperless/internal/model"
)

// UserRepository defines persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.ErrUserAlreadyExists
	}
	return err
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, userErr(err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", model.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, userErr(err)
	}
	return &user, nil
}

// FindByEmailOrUsername returns the first user that holds either identifier.
func (r *userRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ? OR username = ?", model.NormalizeEmail(email), username).
		First(&user).Error
	if err != nil {
		return nil, userErr(err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// TouchLastLogin updates only the last_login column so the password hash is
// never rewritten.
func (r *userRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).UpdateColumn("last_login", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func userErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrUserNotFound
	}
	return err
}
