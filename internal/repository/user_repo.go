package repository

import (
	"context"
	"errors"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrUserExists   = errors.New("usuário já existe")
	ErrUserNotFound = errors.New("usuário não encontrado")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByChatID(ctx context.Context, chatID int64) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	GetAll(ctx context.Context) ([]*models.User, error)
	UpdateRole(ctx context.Context, chatID int64, role models.Role) error
	SetAuthorized(ctx context.Context, chatID int64, authorized bool) error
	SetSelectedUnit(ctx context.Context, chatID int64, unitID string) error
	GetStats(ctx context.Context) (total int, authorized int, err error)
}

type GormUserRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormUserRepository(db *gorm.DB) (*GormUserRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.User{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate users table")
		return nil, err
	}

	return &GormUserRepository{db: db, logger: logger}, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	exists, err := r.exists(ctx, user.ChatID)
	if err != nil {
		return err
	}
	if exists {
		return ErrUserExists
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create user")
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"chat_id": user.ChatID,
		"role":    user.Role,
	}).Info("User created")
	return nil
}

func (r *GormUserRepository) GetByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	return &user, nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	exists, err := r.exists(ctx, user.ChatID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}

	return r.db.WithContext(ctx).Save(user).Error
}

func (r *GormUserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	if err := r.db.WithContext(ctx).Order("first_name").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormUserRepository) UpdateRole(ctx context.Context, chatID int64, role models.Role) error {
	return r.updateColumn(ctx, chatID, "role", string(role))
}

func (r *GormUserRepository) SetAuthorized(ctx context.Context, chatID int64, authorized bool) error {
	return r.updateColumn(ctx, chatID, "authorized", authorized)
}

func (r *GormUserRepository) SetSelectedUnit(ctx context.Context, chatID int64, unitID string) error {
	return r.updateColumn(ctx, chatID, "selected_unit_id", unitID)
}

func (r *GormUserRepository) GetStats(ctx context.Context) (int, int, error) {
	var total, authorized int64

	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}

	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("authorized = ? OR role = ?", true, models.RoleAdmin).
		Count(&authorized).Error
	if err != nil {
		return 0, 0, err
	}

	return int(total), int(authorized), nil
}

func (r *GormUserRepository) exists(ctx context.Context, chatID int64) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("chat_id = ?", chatID).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

func (r *GormUserRepository) updateColumn(ctx context.Context, chatID int64, column string, value any) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("chat_id = ?", chatID).
		Update(column, value)

	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("column", column).Error("Failed to update user")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
