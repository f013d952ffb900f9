package models

import (
	"errors"
	"time"

	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"
)

var ErrInvalidAttendance = errors.New("registro de presença inválido")

// AttendanceRecord is one member's status for one service date.
// At most one record exists per (member, date).
type AttendanceRecord struct {
	ID                string                     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	MemberID          string                     `gorm:"not null;uniqueIndex:idx_attendance_member_date" json:"member_id"`
	UnitID            string                     `gorm:"not null;index" json:"unit_id"`
	Date              string                     `gorm:"type:varchar(10);not null;uniqueIndex:idx_attendance_member_date;index" json:"date"` // YYYY-MM-DD
	Status            frequency.AttendanceStatus `gorm:"type:varchar(20);not null" json:"status"`
	JustificationText string                     `json:"justification_text,omitempty"`
	RecordedAt        time.Time                  `gorm:"not null" json:"recorded_at"`
}

func (AttendanceRecord) TableName() string {
	return "attendance"
}

// Key identifies the record's (member, date) slot.
func (r *AttendanceRecord) Key() string {
	return AttendanceKey(r.MemberID, r.Date)
}

func AttendanceKey(memberID, date string) string {
	return memberID + "|" + date
}

// Day returns the parsed date; zero time when malformed.
func (r *AttendanceRecord) Day() time.Time {
	d, err := frequency.ParseDate(r.Date)
	if err != nil {
		return time.Time{}
	}
	return d
}

// ToFrequency converts the record to its aggregation view.
func (r *AttendanceRecord) ToFrequency() frequency.Record {
	return frequency.Record{
		MemberID:   r.MemberID,
		Date:       r.Day(),
		Status:     r.Status,
		RecordedAt: r.RecordedAt,
	}
}

// IsValid reports whether the record can be persisted.
func (r *AttendanceRecord) IsValid() bool {
	if r.MemberID == "" || r.UnitID == "" {
		return false
	}
	if _, err := frequency.ParseDate(r.Date); err != nil {
		return false
	}
	return r.Status.IsRegistered()
}
