package models

import (
	"time"

	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"
)

// CabinetFollowUp tracks the pastoral case of a member for one period.
type CabinetFollowUp struct {
	MemberID   string                  `gorm:"primaryKey;type:varchar(36)" json:"member_id"`
	Period     string                  `gorm:"primaryKey;type:varchar(7)" json:"period"` // YYYY-MM
	Status     frequency.CabinetStatus `gorm:"type:varchar(20);not null" json:"status"`
	LastUpdate time.Time               `gorm:"not null" json:"last_update"`
}

func (CabinetFollowUp) TableName() string {
	return "cabinet"
}

func (c *CabinetFollowUp) Key() string {
	return CabinetKey(c.MemberID, c.Period)
}

func CabinetKey(memberID, period string) string {
	return memberID + "|" + period
}
