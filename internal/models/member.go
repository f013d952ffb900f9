package models

import (
	"errors"
	"strings"
	"time"

	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"
)

// Generations lists the age cohorts in display order.
var Generations = []string{
	"Berçário",
	"Kids",
	"Teens",
	"Jovens",
	"Homens",
	"Mulheres",
	"Anciões",
}

const (
	RoleMember    = "Membro"
	RoleLeader    = "Obreiro/Líder"
	RoleVolunteer = "Voluntário"
)

var Roles = []string{RoleMember, RoleLeader, RoleVolunteer}

var (
	ErrMemberNotFound = errors.New("membro não encontrado")
	ErrInvalidMember  = errors.New("dados do membro inválidos")
)

type Member struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id" validate:"required,max=36"`
	Name       string    `gorm:"not null" json:"name" validate:"required,max=120"`
	UnitID     string    `gorm:"not null;index" json:"unit_id" validate:"required"`
	Generation string    `json:"generation,omitempty" validate:"omitempty,generation"`
	Role       string    `json:"role,omitempty" validate:"omitempty,member_role"`
	Active     bool      `gorm:"not null" json:"active"`
	StartDate  string    `gorm:"type:varchar(10)" json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"` // YYYY-MM-DD
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string {
	return "members"
}

// EnrolledOn returns the enrollment start date, nil when unset or malformed.
func (m *Member) EnrolledOn() *time.Time {
	return frequency.ParseStartDate(m.StartDate)
}

// RoleOrDefault returns the role used in messages.
func (m *Member) RoleOrDefault() string {
	if m.Role == "" {
		return RoleMember
	}
	return m.Role
}

// GenerationOrDefault returns the generation used in listings.
func (m *Member) GenerationOrDefault() string {
	if m.Generation == "" {
		return "Sem Geração"
	}
	return m.Generation
}

// Normalize trims free text fields.
func (m *Member) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Generation = MatchGeneration(m.Generation)
	m.Role = MatchRole(m.Role)
	m.StartDate = strings.TrimSpace(m.StartDate)
	m.Notes = strings.TrimSpace(m.Notes)
}

// Validate checks the member against its validation tags.
func (m *Member) Validate() error {
	if err := validate.Struct(m); err != nil {
		return errors.Join(ErrInvalidMember, err)
	}
	return nil
}

// MatchGeneration returns the canonical generation name for s (case-insensitive),
// or s unchanged when it matches nothing.
func MatchGeneration(s string) string {
	s = strings.TrimSpace(s)
	for _, g := range Generations {
		if strings.EqualFold(g, s) {
			return g
		}
	}
	return s
}

// MatchRole returns the canonical role name for s (case-insensitive).
func MatchRole(s string) string {
	s = strings.TrimSpace(s)
	for _, r := range Roles {
		if strings.EqualFold(r, s) {
			return r
		}
	}
	return s
}

func IsGeneration(s string) bool {
	for _, g := range Generations {
		if g == s {
			return true
		}
	}
	return false
}

func IsRole(s string) bool {
	for _, r := range Roles {
		if r == s {
			return true
		}
	}
	return false
}
