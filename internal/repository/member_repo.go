package repository

import (
	"context"
	"errors"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MemberRepository interface {
	GetAll(ctx context.Context) ([]models.Member, error)
	GetByID(ctx context.Context, id string) (*models.Member, error)
	Upsert(ctx context.Context, member *models.Member) error
	BulkUpsert(ctx context.Context, members []models.Member) error
	Delete(ctx context.Context, id string) error
}

type GormMemberRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormMemberRepository(db *gorm.DB) (*GormMemberRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.Member{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate members table")
		return nil, err
	}

	logger.Info("Member repository initialized")

	return &GormMemberRepository{db: db, logger: logger}, nil
}

func (r *GormMemberRepository) GetAll(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	if err := r.db.WithContext(ctx).Order("name").Find(&members).Error; err != nil {
		r.logger.WithError(err).Error("Failed to get members")
		return nil, err
	}
	return members, nil
}

func (r *GormMemberRepository) GetByID(ctx context.Context, id string) (*models.Member, error) {
	var member models.Member
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&member)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get member by ID")
		return nil, result.Error
	}

	return &member, nil
}

func (r *GormMemberRepository) Upsert(ctx context.Context, member *models.Member) error {
	if err := member.Validate(); err != nil {
		r.logger.WithField("id", member.ID).Warn("Invalid member data")
		return err
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(member)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to upsert member")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":      member.ID,
		"unit_id": member.UnitID,
		"active":  member.Active,
	}).Debug("Member saved")

	return nil
}

func (r *GormMemberRepository) BulkUpsert(ctx context.Context, members []models.Member) error {
	if len(members) == 0 {
		return nil
	}
	for i := range members {
		if err := members[i].Validate(); err != nil {
			return err
		}
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(&members, 100)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to bulk upsert members")
		return result.Error
	}

	r.logger.WithField("count", len(members)).Info("Members saved")
	return nil
}

func (r *GormMemberRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Member{})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete member")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrMemberNotFound
	}

	r.logger.WithField("id", id).Info("Member deleted")
	return nil
}
