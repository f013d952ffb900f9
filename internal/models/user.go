package models

type Role string

const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// User is a Telegram chat operating the bot (volunteer or admin).
type User struct {
	ID             uint   `gorm:"primarykey" json:"id"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
	ChatID         int64  `gorm:"uniqueIndex;not null" json:"chat_id"`
	Username       string `json:"username"`
	FirstName      string `gorm:"not null" json:"first_name"`
	LastName       string `json:"last_name"`
	Role           string `gorm:"default:'client'" json:"role"`
	Authorized     bool   `gorm:"not null;default:false" json:"authorized"`
	SelectedUnitID string `json:"selected_unit_id"`
}

// IsAdmin reports whether the user may change settings and restore backups.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanOperate reports whether the user may record attendance and see reports.
func (u *User) CanOperate() bool {
	return u.Authorized || u.IsAdmin()
}

func (u *User) SetRole(role Role) {
	u.Role = string(role)
}

func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (User) TableName() string {
	return "users"
}
