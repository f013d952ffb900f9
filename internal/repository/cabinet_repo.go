package repository

import (
	"context"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CabinetRepository interface {
	GetAll(ctx context.Context) ([]models.CabinetFollowUp, error)
	Upsert(ctx context.Context, followUp *models.CabinetFollowUp) error
	BulkUpsert(ctx context.Context, followUps []models.CabinetFollowUp) error
}

type GormCabinetRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormCabinetRepository(db *gorm.DB) (*GormCabinetRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.CabinetFollowUp{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate cabinet table")
		return nil, err
	}

	return &GormCabinetRepository{db: db, logger: logger}, nil
}

func (r *GormCabinetRepository) GetAll(ctx context.Context) ([]models.CabinetFollowUp, error) {
	var followUps []models.CabinetFollowUp
	if err := r.db.WithContext(ctx).Find(&followUps).Error; err != nil {
		r.logger.WithError(err).Error("Failed to get cabinet follow-ups")
		return nil, err
	}
	return followUps, nil
}

func (r *GormCabinetRepository) Upsert(ctx context.Context, followUp *models.CabinetFollowUp) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(followUp)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to upsert cabinet follow-up")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"member_id": followUp.MemberID,
		"period":    followUp.Period,
		"status":    followUp.Status,
	}).Info("Cabinet status saved")
	return nil
}

func (r *GormCabinetRepository) BulkUpsert(ctx context.Context, followUps []models.CabinetFollowUp) error {
	if len(followUps) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(&followUps, 200)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to bulk upsert cabinet follow-ups")
		return result.Error
	}
	return nil
}
