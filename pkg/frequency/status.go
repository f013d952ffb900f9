package frequency

import "fmt"

// AttendanceStatus is the recorded state of one member on one service date.
type AttendanceStatus string

const (
	StatusNotRegistered AttendanceStatus = "not_registered"
	StatusPresent       AttendanceStatus = "present"
	StatusAbsent        AttendanceStatus = "absent"
	StatusJustified     AttendanceStatus = "justified"
)

var attendanceLabels = map[AttendanceStatus]string{
	StatusNotRegistered: "NÃO REGISTRADO",
	StatusPresent:       "PRESENTE",
	StatusAbsent:        "FALTOU",
	StatusJustified:     "JUSTIFICADO",
}

var attendanceEmoji = map[AttendanceStatus]string{
	StatusNotRegistered: "⬜",
	StatusPresent:       "✅",
	StatusAbsent:        "❌",
	StatusJustified:     "📝",
}

// Label returns the display label used in bot messages and exports.
func (s AttendanceStatus) Label() string {
	if label, ok := attendanceLabels[s]; ok {
		return label
	}
	return attendanceLabels[StatusNotRegistered]
}

func (s AttendanceStatus) Emoji() string {
	if e, ok := attendanceEmoji[s]; ok {
		return e
	}
	return attendanceEmoji[StatusNotRegistered]
}

// IsRegistered reports whether the status must be persisted.
// Recording StatusNotRegistered is the same as deleting the record.
func (s AttendanceStatus) IsRegistered() bool {
	return s == StatusPresent || s == StatusAbsent || s == StatusJustified
}

func ParseAttendanceStatus(s string) (AttendanceStatus, error) {
	st := AttendanceStatus(s)
	if _, ok := attendanceLabels[st]; !ok {
		return StatusNotRegistered, fmt.Errorf("unknown attendance status %q", s)
	}
	return st, nil
}

// CabinetStatus is the pastoral follow-up progression for a (member, period) pair.
type CabinetStatus string

const (
	CabinetNone           CabinetStatus = "none"
	CabinetLeaderInformed CabinetStatus = "leader_informed"
	CabinetFirstContact   CabinetStatus = "first_contact"
	CabinetOneOnOneDone   CabinetStatus = "one_on_one_done"
	CabinetResolved       CabinetStatus = "resolved"
)

// CabinetStatuses lists the progression in order.
var CabinetStatuses = []CabinetStatus{
	CabinetNone,
	CabinetLeaderInformed,
	CabinetFirstContact,
	CabinetOneOnOneDone,
	CabinetResolved,
}

var cabinetLabels = map[CabinetStatus]string{
	CabinetNone:           "Selecionar Status",
	CabinetLeaderInformed: "Líder informado",
	CabinetFirstContact:   "Primeiro contato - realizado",
	CabinetOneOnOneDone:   "Conversa 1a1 realizada",
	CabinetResolved:       "Solucionado",
}

func (s CabinetStatus) Label() string {
	if label, ok := cabinetLabels[s]; ok {
		return label
	}
	return cabinetLabels[CabinetNone]
}

// Step returns the position of the status in the progression, -1 when unknown.
func (s CabinetStatus) Step() int {
	for i, st := range CabinetStatuses {
		if st == s {
			return i
		}
	}
	return -1
}

func (s CabinetStatus) IsResolved() bool {
	return s == CabinetResolved
}

// ParseCabinetStatus maps an empty string to CabinetNone.
func ParseCabinetStatus(s string) (CabinetStatus, error) {
	if s == "" {
		return CabinetNone, nil
	}
	st := CabinetStatus(s)
	if st.Step() < 0 {
		return CabinetNone, fmt.Errorf("unknown cabinet status %q", s)
	}
	return st, nil
}
