package repository

import (
	"context"
	"errors"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository interface {
	Get(ctx context.Context) (*models.AppSettings, error)
	Save(ctx context.Context, settings *models.AppSettings) error
}

type GormSettingsRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormSettingsRepository(db *gorm.DB) (*GormSettingsRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.AppSettings{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate settings table")
		return nil, err
	}

	return &GormSettingsRepository{db: db, logger: logger}, nil
}

// Get returns the singleton row, or nil when it was never saved.
func (r *GormSettingsRepository) Get(ctx context.Context) (*models.AppSettings, error) {
	var settings models.AppSettings
	result := r.db.WithContext(ctx).Where("id = ?", models.SettingsID).First(&settings)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get settings")
		return nil, result.Error
	}

	return &settings, nil
}

func (r *GormSettingsRepository) Save(ctx context.Context, settings *models.AppSettings) error {
	settings.ID = models.SettingsID

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(settings)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to save settings")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"justified_counts_as_presence": settings.JustifiedCountsAsPresence,
	}).Info("Settings saved")
	return nil
}
