package models

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidLeader = errors.New("dados do líder inválidos")

// Leader is the contact person of a generation inside a unit.
type Leader struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UnitID     string    `gorm:"not null;uniqueIndex:idx_leader_unit_generation" json:"unit_id" validate:"required"`
	Generation string    `gorm:"not null;uniqueIndex:idx_leader_unit_generation" json:"generation" validate:"required,generation"`
	Name       string    `gorm:"not null" json:"name" validate:"required,max=120"`
	Phone      string    `gorm:"not null" json:"phone" validate:"required,numeric,min=10,max=15"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Leader) TableName() string {
	return "leaders"
}

func (l *Leader) Normalize() {
	l.Name = strings.TrimSpace(l.Name)
	l.Generation = MatchGeneration(l.Generation)
}

func (l *Leader) Validate() error {
	if err := validate.Struct(l); err != nil {
		return errors.Join(ErrInvalidLeader, err)
	}
	return nil
}
