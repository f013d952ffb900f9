package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alefyrezendesign/mvp-frequencia/internal/cache"
	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/repository"
	"github.com/alefyrezendesign/mvp-frequencia/internal/store"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testUnit = "boa-vista"

var march2024 = frequency.Period{Year: 2024, Month: time.March}

func openDB(t *testing.T) *gorm.DB {
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
	return db
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db := openDB(t)

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

	st := store.New(store.Repositories{
		Members:    members,
		Leaders:    leaders,
		Attendance: attendance,
		Cabinet:    cabinet,
		Settings:   settings,
	}, nil, nil)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return st
}

func testCatalog() *UnitCatalog {
	return NewUnitCatalog([]models.Unit{
		{ID: testUnit, Name: "Boa Vista", ServiceDays: []int{0, 3}, PastorPhone: "5511999999999"},
		{ID: "abacatao", Name: "Abacatão", ServiceDays: []int{0, 4}, PastorPhone: "5511888888888"},
	})
}

func addMember(t *testing.T, st *store.Store, name, generation string) models.Member {
	t.Helper()
	m, err := st.SaveMember(context.Background(), models.Member{
		Name:       name,
		UnitID:     testUnit,
		Generation: generation,
		Role:       models.RoleMember,
		Active:     true,
	})
	if err != nil {
		t.Fatalf("save member %s: %v", name, err)
	}
	return m
}

func mark(t *testing.T, st *store.Store, memberID, date string, status frequency.AttendanceStatus) {
	t.Helper()
	if err := st.SetAttendance(context.Background(), testUnit, memberID, date, status, ""); err != nil {
		t.Fatalf("mark %s on %s: %v", memberID, date, err)
	}
}

func newTestLocker() *cache.Locker {
	return cache.NewLocker(nil)
}
