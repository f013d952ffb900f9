package models

import (
	"time"

	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/units"
)

// Unit is a congregation with its own weekly service schedule. Reference data, not stored.
type Unit struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ServiceDays []int  `json:"service_days"` // 0=domingo .. 6=sábado
	PastorPhone string `json:"pastor_phone"`
}

func UnitsFrom(defs []units.Unit) []Unit {
	out := make([]Unit, 0, len(defs))
	for _, d := range defs {
		out = append(out, Unit{ID: d.ID, Name: d.Name, ServiceDays: d.ServiceDays, PastorPhone: d.PastorPhone})
	}
	return out
}

// Weekdays returns the recurrence as time.Weekday values.
func (u Unit) Weekdays() []time.Weekday {
	return frequency.Weekdays(u.ServiceDays)
}

// ServiceDates returns the unit's service calendar for the period.
func (u Unit) ServiceDates(p frequency.Period) []time.Time {
	return frequency.ServiceDates(u.Weekdays(), p)
}

// IsServiceDate reports whether the unit holds a service on d.
func (u Unit) IsServiceDate(d time.Time) bool {
	return frequency.IsServiceDate(u.Weekdays(), d)
}
