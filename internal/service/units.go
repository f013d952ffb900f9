package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
)

var ErrUnitNotFound = errors.New("unidade não encontrada")

var weekdayNames = []string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

// UnitCatalog is the fixed list of congregations served by the bot.
type UnitCatalog struct {
	units []models.Unit
}

func NewUnitCatalog(units []models.Unit) *UnitCatalog {
	return &UnitCatalog{units: units}
}

func (c *UnitCatalog) All() []models.Unit {
	out := make([]models.Unit, len(c.units))
	copy(out, c.units)
	return out
}

func (c *UnitCatalog) Get(id string) (models.Unit, error) {
	for _, u := range c.units {
		if strings.EqualFold(u.ID, id) {
			return u, nil
		}
	}
	return models.Unit{}, ErrUnitNotFound
}

// FormatServiceDays renders the weekly recurrence, e.g. "Dom e Qua".
func FormatServiceDays(unit models.Unit) string {
	names := make([]string, 0, len(unit.ServiceDays))
	for _, d := range unit.Weekdays() {
		names = append(names, weekdayNames[d])
	}
	if len(names) == 0 {
		return "sem cultos"
	}
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " e " + names[len(names)-1]
}

func (c *UnitCatalog) FormatUnits(selectedID string) string {
	if len(c.units) == 0 {
		return "📭 Nenhuma unidade cadastrada"
	}

	var result strings.Builder
	result.WriteString("⛪ Unidades:\n\n")
	for _, u := range c.units {
		mark := "▫️"
		if u.ID == selectedID {
			mark = "✅"
		}
		fmt.Fprintf(&result, "%s %s (%s) - cultos: %s\n", mark, u.Name, u.ID, FormatServiceDays(u))
	}
	return result.String()
}
