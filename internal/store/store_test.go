package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alefyrezendesign/mvp-frequencia/internal/cache"
	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/repository"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openRepos(t *testing.T) Repositories {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	members, err := repository.NewGormMemberRepository(db)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	leaders, err := repository.NewGormLeaderRepository(db)
	if err != nil {
		t.Fatalf("leaders: %v", err)
	}
	attendance, err := repository.NewGormAttendanceRepository(db)
	if err != nil {
		t.Fatalf("attendance: %v", err)
	}
	cabinet, err := repository.NewGormCabinetRepository(db)
	if err != nil {
		t.Fatalf("cabinet: %v", err)
	}
	settings, err := repository.NewGormSettingsRepository(db)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}

	return Repositories{
		Members:    members,
		Leaders:    leaders,
		Attendance: attendance,
		Cabinet:    cabinet,
		Settings:   settings,
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(openRepos(t), nil, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return s
}

type failingAttendance struct {
	repository.AttendanceRepository
}

var errWrite = errors.New("write failed")

func (failingAttendance) Upsert(context.Context, *models.AttendanceRecord) error { return errWrite }
func (failingAttendance) BulkUpsert(context.Context, []models.AttendanceRecord) error {
	return errWrite
}
func (failingAttendance) DeleteByKey(context.Context, string, string) error { return errWrite }
func (failingAttendance) DeleteByUnitAndDate(context.Context, string, string) (int64, error) {
	return 0, errWrite
}

func TestSetAttendanceLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SetAttendance(ctx, "u1", "m1", "2024-03-03", frequency.StatusPresent, ""); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	first, ok := s.Record("m1", "2024-03-03")
	if !ok || first.Status != frequency.StatusPresent {
		t.Fatalf("expected present record, got %+v", first)
	}

	if err := s.SetAttendance(ctx, "u1", "m1", "2024-03-03", frequency.StatusJustified, "doente"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	second, _ := s.Record("m1", "2024-03-03")
	if second.ID != first.ID || second.JustificationText != "doente" {
		t.Fatalf("expected same slot updated, got %+v", second)
	}

	if err := s.SetAttendance(ctx, "u1", "m1", "2024-03-03", frequency.StatusNotRegistered, ""); err != nil {
		t.Fatalf("unset failed: %v", err)
	}
	if _, ok := s.Record("m1", "2024-03-03"); ok {
		t.Fatal("expected record to be removed")
	}

	// Reload from the database to make sure memory and storage agree.
	if err := s.Load(ctx); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if _, ok := s.Record("m1", "2024-03-03"); ok {
		t.Fatal("expected record to be removed from storage")
	}
}

func TestSetAttendanceRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SetAttendance(ctx, "u1", "m1", "2024-03-03", frequency.StatusPresent, ""); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	s.repos.Attendance = failingAttendance{s.repos.Attendance}

	if err := s.SetAttendance(ctx, "u1", "m1", "2024-03-03", frequency.StatusAbsent, ""); !errors.Is(err, errWrite) {
		t.Fatalf("expected write error, got %v", err)
	}
	rec, ok := s.Record("m1", "2024-03-03")
	if !ok || rec.Status != frequency.StatusPresent {
		t.Fatalf("expected rollback to present, got %+v (%v)", rec, ok)
	}

	if err := s.SetAttendance(ctx, "u1", "m2", "2024-03-03", frequency.StatusPresent, ""); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := s.Record("m2", "2024-03-03"); ok {
		t.Fatal("expected new record to be rolled back")
	}

	if _, err := s.ClearDay(ctx, "u1", "2024-03-03"); err == nil {
		t.Fatal("expected clear day error")
	}
	if _, ok := s.Record("m1", "2024-03-03"); !ok {
		t.Fatal("expected cleared records to be restored")
	}
}

func TestBatchAndClearDay(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	batch := []models.AttendanceRecord{
		{MemberID: "m1", UnitID: "u1", Date: "2024-03-03", Status: frequency.StatusAbsent},
		{MemberID: "m2", UnitID: "u1", Date: "2024-03-03", Status: frequency.StatusAbsent},
		{MemberID: "m1", UnitID: "u1", Date: "2024-03-06", Status: frequency.StatusPresent},
		{MemberID: "m9", UnitID: "u2", Date: "2024-03-03", Status: frequency.StatusPresent},
	}
	if err := s.BatchSetAttendance(ctx, batch); err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	period, _ := frequency.ParsePeriod("2024-03")
	if got := len(s.RecordsFor("u1", period)); got != 3 {
		t.Fatalf("expected 3 records for u1, got %d", got)
	}
	if got := len(s.RecordsOn("u1", "2024-03-03")); got != 2 {
		t.Fatalf("expected 2 records on the day, got %d", got)
	}

	removed, err := s.ClearDay(ctx, "u1", "2024-03-03")
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if _, ok := s.Record("m9", "2024-03-03"); !ok {
		t.Fatal("other units must not be cleared")
	}
}

func TestMembersLeadersSettings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	saved, err := s.SaveMember(ctx, models.Member{Name: " bruno ", UnitID: "u1", Generation: "jovens", Active: true})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if saved.ID == "" || saved.Generation != "Jovens" {
		t.Fatalf("expected generated id and normalized generation, got %+v", saved)
	}

	if err := s.BatchSaveMembers(ctx, []models.Member{
		{Name: "Ana", UnitID: "u1", Active: true},
		{Name: "Carla", UnitID: "u1", Active: false},
		{Name: "Davi", UnitID: "u2", Active: true},
	}); err != nil {
		t.Fatalf("batch save failed: %v", err)
	}

	all := s.Members("u1")
	if len(all) != 3 || all[0].Name != "Ana" || all[1].Name != "bruno" {
		t.Fatalf("expected members sorted by name, got %+v", all)
	}
	if got := len(s.ActiveMembers("u1")); got != 2 {
		t.Fatalf("expected 2 active members, got %d", got)
	}

	if _, err := s.SaveMember(ctx, models.Member{UnitID: "u1"}); !errors.Is(err, models.ErrInvalidMember) {
		t.Fatalf("expected ErrInvalidMember, got %v", err)
	}

	if err := s.DeleteMember(ctx, saved.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := s.DeleteMember(ctx, saved.ID); !errors.Is(err, models.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}

	l1, err := s.SaveLeader(ctx, models.Leader{UnitID: "u1", Generation: "Teens", Name: "Carlos", Phone: "5511988887777"})
	if err != nil {
		t.Fatalf("save leader failed: %v", err)
	}
	l2, err := s.SaveLeader(ctx, models.Leader{UnitID: "u1", Generation: "Teens", Name: "Dani", Phone: "5511977776666"})
	if err != nil {
		t.Fatalf("replace leader failed: %v", err)
	}
	if l1.ID != l2.ID {
		t.Fatal("expected leader slot to keep its id")
	}
	if got, ok := s.Leader("u1", "Teens"); !ok || got.Name != "Dani" {
		t.Fatalf("expected Dani, got %+v", got)
	}

	if err := s.SetCabinetStatus(ctx, "m1", "2024-03", frequency.CabinetFirstContact); err != nil {
		t.Fatalf("cabinet failed: %v", err)
	}
	if got := s.Cabinet("m1", "2024-03"); got != frequency.CabinetFirstContact {
		t.Fatalf("expected first contact, got %s", got)
	}
	if got := s.Cabinet("m1", "2024-04"); got != frequency.CabinetNone {
		t.Fatalf("expected none for another period, got %s", got)
	}

	settings := s.Settings()
	settings.JustifiedCountsAsPresence = true
	if err := s.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("settings failed: %v", err)
	}
	if err := s.Load(ctx); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !s.Settings().JustifiedCountsAsPresence {
		t.Fatal("expected settings to persist")
	}
}

func TestApplyRemoteChanges(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := models.AttendanceRecord{ID: "r1", MemberID: "m1", UnitID: "u1", Date: "2024-03-03", Status: frequency.StatusPresent, RecordedAt: time.Now()}

	own, _ := cache.NewEvent(s.Origin(), cache.EntityAttendance, cache.OpInsert, rec)
	if err := s.Apply(ctx, own); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, ok := s.Record("m1", "2024-03-03"); ok {
		t.Fatal("own events must be ignored")
	}

	remote, _ := cache.NewEvent("other", cache.EntityAttendance, cache.OpInsert, rec)
	if err := s.Apply(ctx, remote); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, ok := s.Record("m1", "2024-03-03"); !ok {
		t.Fatal("expected remote insert to be applied")
	}

	del, _ := cache.NewEvent("other", cache.EntityAttendance, cache.OpDelete, rec)
	if err := s.Apply(ctx, del); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, ok := s.Record("m1", "2024-03-03"); ok {
		t.Fatal("expected remote delete to be applied")
	}

	member, _ := cache.NewEvent("other", cache.EntityMember, cache.OpUpdate, models.Member{ID: "m5", Name: "Eva", UnitID: "u1", Active: true})
	if err := s.Apply(ctx, member); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, ok := s.Member("m5"); !ok {
		t.Fatal("expected remote member")
	}

	if err := s.Apply(ctx, cache.ChangeEvent{Origin: "other", Entity: "unknown"}); err == nil {
		t.Fatal("expected error for unknown entity")
	}
}

type failingMembers struct {
	repository.MemberRepository
}

func (failingMembers) GetAll(context.Context) ([]models.Member, error) {
	return nil, errWrite
}

func TestLoadWithoutDatabaseOrCache(t *testing.T) {
	repos := openRepos(t)
	repos.Members = failingMembers{repos.Members}

	s := New(repos, cache.New(nil), nil)
	if err := s.Load(context.Background()); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

// racingAttendance applies a change from another instance while the write is
// in flight, then fails.
type racingAttendance struct {
	repository.AttendanceRepository
	s      *Store
	remote models.AttendanceRecord
}

func (r racingAttendance) Upsert(ctx context.Context, _ *models.AttendanceRecord) error {
	ev, _ := cache.NewEvent("other", cache.EntityAttendance, cache.OpUpdate, r.remote)
	if err := r.s.Apply(ctx, ev); err != nil {
		return err
	}
	return errWrite
}

type racingMembers struct {
	repository.MemberRepository
	s      *Store
	remote models.Member
}

func (r racingMembers) Upsert(ctx context.Context, _ *models.Member) error {
	ev, _ := cache.NewEvent("other", cache.EntityMember, cache.OpUpdate, r.remote)
	if err := r.s.Apply(ctx, ev); err != nil {
		return err
	}
	return errWrite
}

func TestRollbackKeepsConcurrentRemoteChange(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SetAttendance(ctx, "u1", "m1", "2024-03-03", frequency.StatusPresent, ""); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	remote := models.AttendanceRecord{ID: "r-remote", MemberID: "m1", UnitID: "u1", Date: "2024-03-03", Status: frequency.StatusJustified, JustificationText: "viagem", RecordedAt: time.Now()}
	s.repos.Attendance = racingAttendance{AttendanceRepository: s.repos.Attendance, s: s, remote: remote}

	if err := s.SetAttendance(ctx, "u1", "m1", "2024-03-03", frequency.StatusAbsent, ""); !errors.Is(err, errWrite) {
		t.Fatalf("expected write error, got %v", err)
	}
	rec, ok := s.Record("m1", "2024-03-03")
	if !ok || rec.Status != frequency.StatusJustified || rec.ID != "r-remote" {
		t.Fatalf("expected remote record to survive the rollback, got %+v (%v)", rec, ok)
	}

	saved, err := s.SaveMember(ctx, models.Member{Name: "Ana", UnitID: "u1", Active: true})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	renamed := saved
	renamed.Name = "Ana Paula"
	s.repos.Members = racingMembers{MemberRepository: s.repos.Members, s: s, remote: renamed}

	edit := saved
	edit.Active = false
	if _, err := s.SaveMember(ctx, edit); !errors.Is(err, errWrite) {
		t.Fatalf("expected write error, got %v", err)
	}
	got, _ := s.Member(saved.ID)
	if got.Name != "Ana Paula" || !got.Active {
		t.Fatalf("expected remote member to survive the rollback, got %+v", got)
	}
}

func TestRollbackRestoresUntouchedSlots(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SetCabinetStatus(ctx, "m1", "2024-03", frequency.CabinetFirstContact); err != nil {
		t.Fatalf("cabinet failed: %v", err)
	}
	leader, err := s.SaveLeader(ctx, models.Leader{UnitID: "u1", Generation: "Teens", Name: "Carlos", Phone: "5511988887777"})
	if err != nil {
		t.Fatalf("save leader failed: %v", err)
	}

	s.repos.Cabinet = failingCabinet{s.repos.Cabinet}
	s.repos.Leaders = failingLeaders{s.repos.Leaders}
	s.repos.Settings = failingSettings{s.repos.Settings}

	if err := s.SetCabinetStatus(ctx, "m1", "2024-03", frequency.CabinetResolved); !errors.Is(err, errWrite) {
		t.Fatalf("expected write error, got %v", err)
	}
	if got := s.Cabinet("m1", "2024-03"); got != frequency.CabinetFirstContact {
		t.Fatalf("expected rollback to first contact, got %s", got)
	}

	if _, err := s.SaveLeader(ctx, models.Leader{UnitID: "u1", Generation: "Teens", Name: "Dani", Phone: "5511977776666"}); !errors.Is(err, errWrite) {
		t.Fatalf("expected write error, got %v", err)
	}
	if got, _ := s.Leader("u1", "Teens"); got.Name != leader.Name {
		t.Fatalf("expected rollback to %s, got %+v", leader.Name, got)
	}

	settings := s.Settings()
	settings.JustifiedCountsAsPresence = !settings.JustifiedCountsAsPresence
	if err := s.SaveSettings(ctx, settings); !errors.Is(err, errWrite) {
		t.Fatalf("expected write error, got %v", err)
	}
	if s.Settings().JustifiedCountsAsPresence == settings.JustifiedCountsAsPresence {
		t.Fatal("expected settings rollback")
	}
}

type failingCabinet struct {
	repository.CabinetRepository
}

func (failingCabinet) Upsert(context.Context, *models.CabinetFollowUp) error { return errWrite }

type failingLeaders struct {
	repository.LeaderRepository
}

func (failingLeaders) Upsert(context.Context, *models.Leader) error { return errWrite }

type failingSettings struct {
	repository.SettingsRepository
}

func (failingSettings) Save(context.Context, *models.AppSettings) error { return errWrite }
