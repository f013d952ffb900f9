package models

import "time"

// SettingsID is the primary key of the singleton settings row.
const SettingsID = 1

// AppSettings holds the global configuration.
type AppSettings struct {
	ID                        uint      `gorm:"primaryKey" json:"-"`
	JustifiedCountsAsPresence bool      `gorm:"not null;default:false" json:"justified_counts_as_presence"`
	AccessPasswordHash        string    `json:"-"`
	UpdatedAt                 time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AppSettings) TableName() string {
	return "settings"
}

func DefaultSettings() AppSettings {
	return AppSettings{ID: SettingsID}
}
