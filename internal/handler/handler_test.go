package handler

import (
	"strings"
	"testing"
	"time"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/service"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

var testNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func TestCallbackRoundTrip(t *testing.T) {
	memberID := uuid.NewString()
	data := attendanceCallback(frequency.StatusJustified, memberID, "2024-03-10", 3)

	if len(data) > maxCallbackData {
		t.Fatalf("expected callback data within %d bytes, got %d", maxCallbackData, len(data))
	}

	cb := parseCallback(data)
	if cb.action != actionAttendance {
		t.Fatalf("expected action %q, got %q", actionAttendance, cb.action)
	}
	if statusCodes[cb.arg(0)] != frequency.StatusJustified {
		t.Fatalf("expected justified status code, got %q", cb.arg(0))
	}
	if cb.arg(1) != memberID || cb.arg(2) != "2024-03-10" {
		t.Fatalf("expected member and date preserved, got %v", cb.args)
	}
	if page, ok := cb.intArg(3); !ok || page != 3 {
		t.Fatalf("expected page 3, got %d (%v)", page, ok)
	}
	if cb.arg(9) != "" {
		t.Fatalf("expected empty missing argument, got %q", cb.arg(9))
	}
}

func TestCabinetCallbacks(t *testing.T) {
	memberID := uuid.NewString()
	period := frequency.Period{Year: 2024, Month: time.March}

	for _, status := range frequency.CabinetStatuses {
		data := cabinetCallback(status, memberID, period)
		if len(data) > maxCallbackData {
			t.Fatalf("expected callback data within %d bytes, got %d for %s", maxCallbackData, len(data), status)
		}

		cb := parseCallback(data)
		step, _ := cb.intArg(0)
		got, ok := cabinetFromStep(step)
		if !ok || got != status {
			t.Fatalf("expected %s, got %s", status, got)
		}
		if cb.arg(2) != "2024-03" {
			t.Fatalf("expected period 2024-03, got %q", cb.arg(2))
		}
	}

	if _, ok := cabinetFromStep(len(frequency.CabinetStatuses)); ok {
		t.Fatalf("expected out of range step to be rejected")
	}
}

func TestParseDateArg(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr bool
	}{
		{name: "iso", arg: "2024-03-10", want: "2024-03-10"},
		{name: "brazilian", arg: "10/03/2024", want: "2024-03-10"},
		{name: "day and month", arg: "07/04", want: "2024-04-07"},
		{name: "spaces", arg: "  2024-03-10 ", want: "2024-03-10"},
		{name: "invalid", arg: "ontem", wantErr: true},
		{name: "impossible date", arg: "31/02/2024", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDateArg(tt.arg, testNow)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParsePeriodArg(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr bool
	}{
		{name: "empty is current month", arg: "", want: "2024-03"},
		{name: "iso", arg: "2024-01", want: "2024-01"},
		{name: "month slash year", arg: "12/2023", want: "2023-12"},
		{name: "invalid", arg: "março", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePeriodArg(tt.arg, testNow)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestShortName(t *testing.T) {
	if got := shortName("Ana"); got != "Ana" {
		t.Fatalf("expected short names untouched, got %q", got)
	}

	long := "Maria Aparecida dos Santos Conceição"
	got := shortName(long)
	if n := len([]rune(got)); n != buttonNameLen {
		t.Fatalf("expected %d runes, got %d (%q)", buttonNameLen, n, got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
}

func testRoster(pending, completed int) *service.DayRoster {
	roster := &service.DayRoster{Date: "2024-03-10"}
	for i := 0; i < pending; i++ {
		roster.Pending = append(roster.Pending, service.RosterEntry{
			Member: models.Member{ID: uuid.NewString(), Name: "Pendente"},
			Status: frequency.StatusNotRegistered,
		})
	}
	for i := 0; i < completed; i++ {
		roster.Completed = append(roster.Completed, service.RosterEntry{
			Member: models.Member{ID: uuid.NewString(), Name: "Registrado"},
			Status: frequency.StatusPresent,
		})
	}
	return roster
}

func TestRosterKeyboardSinglePage(t *testing.T) {
	roster := testRoster(2, 1)
	keyboard := rosterKeyboard(roster, 0)

	if len(keyboard.InlineKeyboard) != 3 {
		t.Fatalf("expected 3 member rows, got %d", len(keyboard.InlineKeyboard))
	}

	// Pending members come first.
	first := keyboard.InlineKeyboard[0]
	if !strings.HasPrefix(first[0].Text, frequency.StatusNotRegistered.Emoji()) {
		t.Fatalf("expected pending member first, got %q", first[0].Text)
	}
	last := keyboard.InlineKeyboard[2]
	if !strings.HasPrefix(last[0].Text, frequency.StatusPresent.Emoji()) {
		t.Fatalf("expected registered member last, got %q", last[0].Text)
	}

	cb := parseCallback(*first[1].CallbackData)
	if cb.action != actionAttendance || statusCodes[cb.arg(0)] != frequency.StatusPresent {
		t.Fatalf("expected present button, got %q", *first[1].CallbackData)
	}
	if cb.arg(1) != roster.Pending[0].Member.ID {
		t.Fatalf("expected button for first pending member, got %q", cb.arg(1))
	}
}

func TestRosterKeyboardPaging(t *testing.T) {
	roster := testRoster(rosterPageSize+3, 2)

	firstPage := rosterKeyboard(roster, 0)
	if got := len(firstPage.InlineKeyboard); got != rosterPageSize+1 {
		t.Fatalf("expected %d rows with navigation, got %d", rosterPageSize+1, got)
	}
	nav := firstPage.InlineKeyboard[rosterPageSize]
	if len(nav) != 2 || nav[0].Text != "📄 1/2" {
		t.Fatalf("expected page counter and next button, got %+v", nav)
	}

	lastPage := rosterKeyboard(roster, 5)
	if got := len(lastPage.InlineKeyboard); got != 5+1 {
		t.Fatalf("expected clamped last page with 5 members, got %d rows", got)
	}
	nav = lastPage.InlineKeyboard[5]
	cb := parseCallback(*nav[0].CallbackData)
	if cb.action != actionRosterPage || cb.arg(1) != "0" {
		t.Fatalf("expected previous page button, got %q", *nav[0].CallbackData)
	}
}

func TestCaseKeyboard(t *testing.T) {
	period := frequency.Period{Year: 2024, Month: time.March}
	m := frequency.MemberFrequency{MemberID: uuid.NewString(), Name: "Ana", Cabinet: frequency.CabinetFirstContact}

	keyboard := caseKeyboard(m, period, nil)
	if got := len(keyboard.InlineKeyboard); got != len(frequency.CabinetStatuses)-1 {
		t.Fatalf("expected one row per status, got %d", got)
	}
	if !strings.HasPrefix(keyboard.InlineKeyboard[1][0].Text, "☑️") {
		t.Fatalf("expected current status marked, got %q", keyboard.InlineKeyboard[1][0].Text)
	}

	contact := &service.LeaderContact{
		Leader: models.Leader{Name: "João"},
		Link:   "https://wa.me/5511987654321?text=oi",
	}
	keyboard = caseKeyboard(m, period, contact)
	last := keyboard.InlineKeyboard[len(keyboard.InlineKeyboard)-1][0]
	if last.URL == nil || *last.URL != contact.Link {
		t.Fatalf("expected WhatsApp URL button, got %+v", last)
	}
}

func TestParseChatID(t *testing.T) {
	if id, err := parseChatID(" 123456 "); err != nil || id != 123456 {
		t.Fatalf("expected 123456, got %d (%v)", id, err)
	}
	for _, arg := range []string{"", "0", "abc"} {
		if _, err := parseChatID(arg); err == nil {
			t.Fatalf("expected error for %q", arg)
		}
	}
}

func TestHasExtension(t *testing.T) {
	if hasExtension(nil, ".csv") {
		t.Fatalf("expected missing document to be rejected")
	}
	if !hasExtension(&tgbotapi.Document{FileName: "Membros.CSV"}, ".csv") {
		t.Fatalf("expected case-insensitive extension match")
	}
	if hasExtension(&tgbotapi.Document{FileName: "backup.json"}, ".csv", ".txt") {
		t.Fatalf("expected json to be rejected for csv import")
	}
}
