package handler

import (
	"strconv"
	"strings"

	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"
)

// Callback data prefixes. Telegram limits callback data to 64 bytes,
// so statuses travel as one-letter codes or progression steps.
const (
	actionAttendance   = "att"
	actionRosterPage   = "pg"
	actionClearDay     = "clr"
	actionCase         = "case"
	actionCabinet      = "cab"
	actionDeleteMember = "delm"
	actionUnit         = "unit"
	actionNoop         = "noop"
)

const (
	answerYes = "yes"
	answerNo  = "no"
)

const maxCallbackData = 64

var statusCodes = map[string]frequency.AttendanceStatus{
	"p": frequency.StatusPresent,
	"a": frequency.StatusAbsent,
	"j": frequency.StatusJustified,
	"n": frequency.StatusNotRegistered,
}

type callbackData struct {
	action string
	args   []string
}

func parseCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{action: parts[0], args: parts[1:]}
}

// arg returns the i-th argument or "" when missing.
func (c callbackData) arg(i int) string {
	if i < 0 || i >= len(c.args) {
		return ""
	}
	return c.args[i]
}

func (c callbackData) intArg(i int) (int, bool) {
	n, err := strconv.Atoi(c.arg(i))
	return n, err == nil
}

func buildCallback(action string, args ...string) string {
	return strings.Join(append([]string{action}, args...), ":")
}

func statusCode(status frequency.AttendanceStatus) string {
	for code, st := range statusCodes {
		if st == status {
			return code
		}
	}
	return "n"
}

func attendanceCallback(status frequency.AttendanceStatus, memberID, date string, page int) string {
	return buildCallback(actionAttendance, statusCode(status), memberID, date, strconv.Itoa(page))
}

func cabinetCallback(status frequency.CabinetStatus, memberID string, period frequency.Period) string {
	return buildCallback(actionCabinet, strconv.Itoa(status.Step()), memberID, period.String())
}

// cabinetFromStep maps a progression step back to its status.
func cabinetFromStep(step int) (frequency.CabinetStatus, bool) {
	if step < 0 || step >= len(frequency.CabinetStatuses) {
		return frequency.CabinetNone, false
	}
	return frequency.CabinetStatuses[step], true
}
