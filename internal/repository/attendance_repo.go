package repository

import (
	"context"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttendanceRepository interface {
	GetAll(ctx context.Context) ([]models.AttendanceRecord, error)
	GetByUnitAndPeriod(ctx context.Context, unitID, period string) ([]models.AttendanceRecord, error)
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
	BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error
	DeleteByKey(ctx context.Context, memberID, date string) error
	DeleteByUnitAndDate(ctx context.Context, unitID, date string) (int64, error)
}

type GormAttendanceRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormAttendanceRepository(db *gorm.DB) (*GormAttendanceRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.AttendanceRecord{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate attendance table")
		return nil, err
	}

	logger.Info("Attendance repository initialized")

	return &GormAttendanceRepository{db: db, logger: logger}, nil
}

// recordConflict makes (member_id, date) the upsert key; the row id of the first write is kept.
var recordConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "member_id"}, {Name: "date"}},
	DoUpdates: clause.AssignmentColumns([]string{"unit_id", "status", "justification_text", "recorded_at"}),
}

func (r *GormAttendanceRepository) GetAll(ctx context.Context) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	if err := r.db.WithContext(ctx).Order("date").Find(&records).Error; err != nil {
		r.logger.WithError(err).Error("Failed to get attendance records")
		return nil, err
	}
	return records, nil
}

// GetByUnitAndPeriod returns the unit's records whose date falls in the YYYY-MM period.
func (r *GormAttendanceRepository) GetByUnitAndPeriod(ctx context.Context, unitID, period string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	result := r.db.WithContext(ctx).
		Where("unit_id = ? AND date LIKE ?", unitID, period+"-%").
		Order("date").
		Find(&records)
	if result.Error != nil {
		r.logger.WithFields(logrus.Fields{
			"unit_id": unitID,
			"period":  period,
		}).WithError(result.Error).Error("Failed to get attendance for period")
		return nil, result.Error
	}
	return records, nil
}

func (r *GormAttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	if !record.IsValid() {
		r.logger.WithField("key", record.Key()).Warn("Invalid attendance record")
		return models.ErrInvalidAttendance
	}

	result := r.db.WithContext(ctx).Clauses(recordConflict).Create(record)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to upsert attendance")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"member_id": record.MemberID,
		"date":      record.Date,
		"status":    record.Status,
	}).Debug("Attendance saved")
	return nil
}

func (r *GormAttendanceRepository) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		if !records[i].IsValid() {
			return models.ErrInvalidAttendance
		}
	}

	result := r.db.WithContext(ctx).Clauses(recordConflict).CreateInBatches(&records, 200)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to bulk upsert attendance")
		return result.Error
	}

	r.logger.WithField("count", len(records)).Info("Attendance batch saved")
	return nil
}

// DeleteByKey removes the (member, date) record; deleting a missing record is not an error.
func (r *GormAttendanceRepository) DeleteByKey(ctx context.Context, memberID, date string) error {
	result := r.db.WithContext(ctx).
		Where("member_id = ? AND date = ?", memberID, date).
		Delete(&models.AttendanceRecord{})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete attendance")
		return result.Error
	}
	return nil
}

func (r *GormAttendanceRepository) DeleteByUnitAndDate(ctx context.Context, unitID, date string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("unit_id = ? AND date = ?", unitID, date).
		Delete(&models.AttendanceRecord{})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to clear attendance day")
		return 0, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"unit_id": unitID,
		"date":    date,
		"deleted": result.RowsAffected,
	}).Info("Attendance day cleared")
	return result.RowsAffected, nil
}
