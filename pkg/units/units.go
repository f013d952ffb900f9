package units

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// UnitJSON - unit entry of the units file
type UnitJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ServiceDays string `json:"service_days"` // "0,3" or "dom,qua"
	PastorPhone string `json:"pastor_phone"`
}

// UnitsJSON - root of the units file
type UnitsJSON struct {
	Units []UnitJSON `json:"units"`
}

// Unit - congregation definition loaded at startup
type Unit struct {
	ID          string
	Name        string
	ServiceDays []int
	PastorPhone string
}

var dayAliases = map[string]int{
	"dom": 0, "domingo": 0,
	"seg": 1, "segunda": 1,
	"ter": 2, "terca": 2, "terça": 2,
	"qua": 3, "quarta": 3,
	"qui": 4, "quinta": 4,
	"sex": 5, "sexta": 5,
	"sab": 6, "sabado": 6, "sábado": 6,
}

// Defaults - units used when no file is configured
func Defaults() []Unit {
	return []Unit{
		{ID: "1", Name: "Boa Vista", ServiceDays: []int{0, 3}, PastorPhone: "5511999999999"},
		{ID: "2", Name: "Abacatão", ServiceDays: []int{0, 4}, PastorPhone: "5511888888888"},
	}
}

// ParseUnitsJSON - reads the units file
func ParseUnitsJSON(filePath string) ([]Unit, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}

	var unitsJSON UnitsJSON
	if err := json.Unmarshal(data, &unitsJSON); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	units := []Unit{}
	seen := map[string]bool{}

	for _, u := range unitsJSON.Units {
		if strings.TrimSpace(u.ID) == "" {
			return nil, fmt.Errorf("unit %q has no id", u.Name)
		}
		if seen[u.ID] {
			return nil, fmt.Errorf("duplicated unit id %q", u.ID)
		}
		seen[u.ID] = true

		days, err := ParseServiceDays(u.ServiceDays)
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", u.ID, err)
		}

		units = append(units, Unit{
			ID:          u.ID,
			Name:        strings.TrimSpace(u.Name),
			ServiceDays: days,
			PastorPhone: u.PastorPhone,
		})
	}

	if len(units) == 0 {
		return nil, fmt.Errorf("no units in %s", filePath)
	}

	return units, nil
}

// ParseServiceDays - parses "0,3" or "dom,qua" into weekday indices
func ParseServiceDays(s string) ([]int, error) {
	days := []int{}
	seen := map[int]bool{}

	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}

		day, ok := dayAliases[part]
		if !ok {
			n, err := strconv.Atoi(part)
			if err != nil || n < 0 || n > 6 {
				return nil, fmt.Errorf("invalid service day '%s'", part)
			}
			day = n
		}

		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}

	return days, nil
}

// FindByID - looks a unit up by id
func FindByID(units []Unit, id string) (Unit, bool) {
	for _, u := range units {
		if u.ID == id {
			return u, true
		}
	}
	return Unit{}, false
}
