package frequency

// Category is the monthly frequency label derived from the absence count.
// Values are ordered by severity.
type Category int

const (
	Perfect Category = iota
	Good
	Low
	Critical
)

// Absence cutoffs. A member with more than goodMaxAbsences is Low, with more than
// lowMaxAbsences is Critical.
const (
	goodMaxAbsences = 2
	lowMaxAbsences  = 4
)

// Categories lists every category from least to most severe.
var Categories = []Category{Perfect, Good, Low, Critical}

func Classify(absences int) Category {
	switch {
	case absences <= 0:
		return Perfect
	case absences <= goodMaxAbsences:
		return Good
	case absences <= lowMaxAbsences:
		return Low
	default:
		return Critical
	}
}

func (c Category) String() string {
	switch c {
	case Perfect:
		return "Frequência Perfeita"
	case Good:
		return "Frequência Boa"
	case Low:
		return "Frequência Baixa"
	case Critical:
		return "Frequência Crítica"
	}
	return "Frequência Desconhecida"
}

// Short returns the adjective alone ("Perfeita", "Boa", ...).
func (c Category) Short() string {
	switch c {
	case Perfect:
		return "Perfeita"
	case Good:
		return "Boa"
	case Low:
		return "Baixa"
	case Critical:
		return "Crítica"
	}
	return "?"
}

func (c Category) Emoji() string {
	switch c {
	case Perfect:
		return "🟢"
	case Good:
		return "🔵"
	case Low:
		return "🟠"
	case Critical:
		return "🔴"
	}
	return "⚪"
}

// NeedsFollowUp reports whether members in this category are pastoral follow-up candidates.
func (c Category) NeedsFollowUp() bool {
	return c >= Low
}
