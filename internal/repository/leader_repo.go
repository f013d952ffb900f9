package repository

import (
	"context"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LeaderRepository interface {
	GetAll(ctx context.Context) ([]models.Leader, error)
	Upsert(ctx context.Context, leader *models.Leader) error
}

type GormLeaderRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormLeaderRepository(db *gorm.DB) (*GormLeaderRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.Leader{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate leaders table")
		return nil, err
	}

	return &GormLeaderRepository{db: db, logger: logger}, nil
}

func (r *GormLeaderRepository) GetAll(ctx context.Context) ([]models.Leader, error) {
	var leaders []models.Leader
	if err := r.db.WithContext(ctx).Find(&leaders).Error; err != nil {
		r.logger.WithError(err).Error("Failed to get leaders")
		return nil, err
	}
	return leaders, nil
}

// Upsert keeps one leader per (unit, generation).
func (r *GormLeaderRepository) Upsert(ctx context.Context, leader *models.Leader) error {
	if err := leader.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "unit_id"}, {Name: "generation"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "updated_at"}),
	}).Create(leader)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to upsert leader")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"unit_id":    leader.UnitID,
		"generation": leader.Generation,
	}).Info("Leader saved")
	return nil
}
