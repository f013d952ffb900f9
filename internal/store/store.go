package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alefyrezendesign/mvp-frequencia/internal/cache"
	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/repository"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	snapshotKey = "frequencia:snapshot"
	snapshotTTL = 30 * 24 * time.Hour
)

var ErrNoData = errors.New("dados indisponíveis: banco e cache falharam")

// Repositories groups the persistence backends of the store.
type Repositories struct {
	Members    repository.MemberRepository
	Leaders    repository.LeaderRepository
	Attendance repository.AttendanceRepository
	Cabinet    repository.CabinetRepository
	Settings   repository.SettingsRepository
}

// Snapshot is the full data set, as cached and as exported in backups.
type Snapshot struct {
	Members      []models.Member           `json:"members"`
	Attendance   []models.AttendanceRecord `json:"attendance"`
	Cabinet      []models.CabinetFollowUp  `json:"cabinet"`
	Leaders      []models.Leader           `json:"leaders"`
	Settings     models.AppSettings        `json:"settings"`
	PasswordHash string                    `json:"password_hash,omitempty"`
	SavedAt      time.Time                 `json:"saved_at"`
}

// Store keeps the whole data set in memory. Mutations are applied to memory
// first, persisted, and rolled back if the repository write fails.
type Store struct {
	mu sync.RWMutex

	repos  Repositories
	cache  *cache.Cache
	feed   *cache.Feed
	origin string
	logger *logrus.Logger

	members    map[string]models.Member
	attendance map[string]models.AttendanceRecord
	cabinet    map[string]models.CabinetFollowUp
	leaders    map[string]models.Leader
	settings   models.AppSettings
	fromCache  bool
}

func New(repos Repositories, c *cache.Cache, feed *cache.Feed) *Store {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &Store{
		repos:      repos,
		cache:      c,
		feed:       feed,
		origin:     uuid.NewString(),
		logger:     logger,
		members:    make(map[string]models.Member),
		attendance: make(map[string]models.AttendanceRecord),
		cabinet:    make(map[string]models.CabinetFollowUp),
		leaders:    make(map[string]models.Leader),
		settings:   models.DefaultSettings(),
	}
}

// Origin identifies this instance in published change events.
func (s *Store) Origin() string {
	return s.origin
}

// FromCache reports whether the last Load fell back to the cached snapshot.
func (s *Store) FromCache() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fromCache
}

func leaderKey(unitID, generation string) string {
	return unitID + "|" + generation
}

// Load reads everything from the repositories. When that fails the last cached
// snapshot is used instead.
func (s *Store) Load(ctx context.Context) error {
	snap, err := s.readRepositories(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load from database, trying cache")

		var cached Snapshot
		found, cacheErr := s.cache.GetObject(ctx, snapshotKey, &cached)
		if cacheErr != nil || !found {
			return errors.Join(ErrNoData, err, cacheErr)
		}

		s.replace(cached, true)
		s.logger.WithField("saved_at", cached.SavedAt).Warn("Loaded data from cache snapshot")
		return nil
	}

	s.replace(snap, false)
	s.refreshCache(ctx)

	s.logger.WithFields(logrus.Fields{
		"members":    len(snap.Members),
		"attendance": len(snap.Attendance),
		"cabinet":    len(snap.Cabinet),
		"leaders":    len(snap.Leaders),
	}).Info("Data loaded")
	return nil
}

func (s *Store) readRepositories(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Members, err = s.repos.Members.GetAll(ctx); err != nil {
		return snap, fmt.Errorf("load members: %w", err)
	}
	if snap.Attendance, err = s.repos.Attendance.GetAll(ctx); err != nil {
		return snap, fmt.Errorf("load attendance: %w", err)
	}
	if snap.Cabinet, err = s.repos.Cabinet.GetAll(ctx); err != nil {
		return snap, fmt.Errorf("load cabinet: %w", err)
	}
	if snap.Leaders, err = s.repos.Leaders.GetAll(ctx); err != nil {
		return snap, fmt.Errorf("load leaders: %w", err)
	}

	settings, err := s.repos.Settings.Get(ctx)
	if err != nil {
		return snap, fmt.Errorf("load settings: %w", err)
	}
	if settings != nil {
		snap.Settings = *settings
	} else {
		snap.Settings = models.DefaultSettings()
	}
	snap.PasswordHash = snap.Settings.AccessPasswordHash

	return snap, nil
}

func (s *Store) replace(snap Snapshot, fromCache bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.members = make(map[string]models.Member, len(snap.Members))
	for _, m := range snap.Members {
		s.members[m.ID] = m
	}

	// Duplicated (member, date) rows keep the latest write.
	s.attendance = make(map[string]models.AttendanceRecord, len(snap.Attendance))
	for _, r := range snap.Attendance {
		if prev, ok := s.attendance[r.Key()]; ok && prev.RecordedAt.After(r.RecordedAt) {
			continue
		}
		s.attendance[r.Key()] = r
	}

	s.cabinet = make(map[string]models.CabinetFollowUp, len(snap.Cabinet))
	for _, c := range snap.Cabinet {
		s.cabinet[c.Key()] = c
	}

	s.leaders = make(map[string]models.Leader, len(snap.Leaders))
	for _, l := range snap.Leaders {
		s.leaders[leaderKey(l.UnitID, l.Generation)] = l
	}

	s.settings = snap.Settings
	s.settings.ID = models.SettingsID
	if snap.PasswordHash != "" {
		s.settings.AccessPasswordHash = snap.PasswordHash
	}
	s.fromCache = fromCache
}

// Snapshot returns a copy of the full data set.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Members:      make([]models.Member, 0, len(s.members)),
		Attendance:   make([]models.AttendanceRecord, 0, len(s.attendance)),
		Cabinet:      make([]models.CabinetFollowUp, 0, len(s.cabinet)),
		Leaders:      make([]models.Leader, 0, len(s.leaders)),
		Settings:     s.settings,
		PasswordHash: s.settings.AccessPasswordHash,
		SavedAt:      time.Now(),
	}
	for _, m := range s.members {
		snap.Members = append(snap.Members, m)
	}
	for _, r := range s.attendance {
		snap.Attendance = append(snap.Attendance, r)
	}
	for _, c := range s.cabinet {
		snap.Cabinet = append(snap.Cabinet, c)
	}
	for _, l := range s.leaders {
		snap.Leaders = append(snap.Leaders, l)
	}

	sort.Slice(snap.Members, func(i, j int) bool { return snap.Members[i].ID < snap.Members[j].ID })
	sort.Slice(snap.Attendance, func(i, j int) bool {
		if snap.Attendance[i].Date != snap.Attendance[j].Date {
			return snap.Attendance[i].Date < snap.Attendance[j].Date
		}
		return snap.Attendance[i].MemberID < snap.Attendance[j].MemberID
	})
	sort.Slice(snap.Cabinet, func(i, j int) bool { return snap.Cabinet[i].Key() < snap.Cabinet[j].Key() })
	sort.Slice(snap.Leaders, func(i, j int) bool {
		return leaderKey(snap.Leaders[i].UnitID, snap.Leaders[i].Generation) < leaderKey(snap.Leaders[j].UnitID, snap.Leaders[j].Generation)
	})

	return snap
}

func (s *Store) refreshCache(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.SetObject(ctx, snapshotKey, s.Snapshot(), snapshotTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to refresh snapshot cache")
	}
}

func (s *Store) publish(ctx context.Context, entity cache.Entity, op cache.Op, row any) {
	if !s.feed.Enabled() {
		return
	}

	ev, err := cache.NewEvent(s.origin, entity, op, row)
	if err == nil {
		err = s.feed.Publish(ctx, ev)
	}
	if err != nil {
		s.logger.WithError(err).WithField("entity", entity).Warn("Failed to publish change")
	}
}

// Members returns the unit's members sorted by name, inactive ones included.
func (s *Store) Members(unitID string) []models.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Member, 0)
	for _, m := range s.members {
		if m.UnitID == unitID {
			out = append(out, m)
		}
	}
	sortMembers(out)
	return out
}

// ActiveMembers returns the unit's active members sorted by name.
func (s *Store) ActiveMembers(unitID string) []models.Member {
	all := s.Members(unitID)
	out := all[:0]
	for _, m := range all {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}

func (s *Store) Member(id string) (models.Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	return m, ok
}

func sortMembers(members []models.Member) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := strings.ToLower(members[i].Name), strings.ToLower(members[j].Name)
		if a != b {
			return a < b
		}
		return members[i].ID < members[j].ID
	})
}

// RecordsFor returns the unit's records dated inside the period.
func (s *Store) RecordsFor(unitID string, period frequency.Period) []models.AttendanceRecord {
	prefix := period.String() + "-"

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AttendanceRecord, 0)
	for _, r := range s.attendance {
		if r.UnitID == unitID && strings.HasPrefix(r.Date, prefix) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out
}

// RecordsOn returns the unit's records for one date, keyed by member id.
func (s *Store) RecordsOn(unitID, date string) map[string]models.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.AttendanceRecord)
	for _, r := range s.attendance {
		if r.UnitID == unitID && r.Date == date {
			out[r.MemberID] = r
		}
	}
	return out
}

func (s *Store) Record(memberID, date string) (models.AttendanceRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.attendance[models.AttendanceKey(memberID, date)]
	return r, ok
}

// Cabinet returns the follow-up status of the member in the period; CabinetNone when unset.
func (s *Store) Cabinet(memberID, period string) frequency.CabinetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.cabinet[models.CabinetKey(memberID, period)]; ok {
		return c.Status
	}
	return frequency.CabinetNone
}

func (s *Store) Leader(unitID, generation string) (models.Leader, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.leaders[leaderKey(unitID, generation)]
	return l, ok
}

// Leaders returns the unit's leaders keyed by generation.
func (s *Store) Leaders(unitID string) map[string]models.Leader {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.Leader)
	for _, l := range s.leaders {
		if l.UnitID == unitID {
			out[l.Generation] = l
		}
	}
	return out
}

func (s *Store) Settings() models.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}
