package store

import (
	"context"
	"time"

	"github.com/alefyrezendesign/mvp-frequencia/internal/cache"
	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var now = time.Now

// SetAttendance records the member's status for a date. NotRegistered removes
// the record instead.
func (s *Store) SetAttendance(ctx context.Context, unitID, memberID, date string, status frequency.AttendanceStatus, justification string) error {
	key := models.AttendanceKey(memberID, date)

	s.mu.Lock()
	prev, had := s.attendance[key]

	if !status.IsRegistered() {
		delete(s.attendance, key)
		s.mu.Unlock()

		if err := s.repos.Attendance.DeleteByKey(ctx, memberID, date); err != nil {
			s.restoreRecord(key, nil, prev, had)
			return err
		}
		if had {
			s.publish(ctx, cache.EntityAttendance, cache.OpDelete, prev)
		}
		s.refreshCache(ctx)
		return nil
	}

	rec := models.AttendanceRecord{
		ID:         uuid.NewString(),
		MemberID:   memberID,
		UnitID:     unitID,
		Date:       date,
		Status:     status,
		RecordedAt: now(),
	}
	if had {
		rec.ID = prev.ID
	}
	if status == frequency.StatusJustified {
		rec.JustificationText = justification
	}
	s.attendance[key] = rec
	s.mu.Unlock()

	written := rec
	if err := s.repos.Attendance.Upsert(ctx, &rec); err != nil {
		s.restoreRecord(key, &written, prev, had)
		return err
	}

	op := cache.OpInsert
	if had {
		op = cache.OpUpdate
	}
	s.publish(ctx, cache.EntityAttendance, op, rec)
	s.refreshCache(ctx)
	return nil
}

// restoreRecord undoes a failed write of slot key. written is what the write
// left in memory, nil for a removal. A slot changed since then is kept.
func (s *Store) restoreRecord(key string, written *models.AttendanceRecord, prev models.AttendanceRecord, had bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.attendance[key]
	if written == nil && ok {
		return
	}
	if written != nil && (!ok || cur != *written) {
		return
	}

	if had {
		s.attendance[key] = prev
	} else {
		delete(s.attendance, key)
	}
}

// BatchSetAttendance upserts many records at once, replacing any record with the same (member, date).
func (s *Store) BatchSetAttendance(ctx context.Context, records []models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}

	type previous struct {
		rec models.AttendanceRecord
		had bool
	}
	prevs := make(map[string]previous, len(records))
	written := make(map[string]models.AttendanceRecord, len(records))
	batch := make([]models.AttendanceRecord, len(records))

	s.mu.Lock()
	for i, rec := range records {
		key := rec.Key()
		if _, seen := prevs[key]; !seen {
			p, had := s.attendance[key]
			prevs[key] = previous{rec: p, had: had}
		}
		if p := prevs[key]; p.had {
			rec.ID = p.rec.ID
		} else if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.RecordedAt.IsZero() {
			rec.RecordedAt = now()
		}
		batch[i] = rec
		written[key] = rec
		s.attendance[key] = rec
	}
	s.mu.Unlock()

	if err := s.repos.Attendance.BulkUpsert(ctx, batch); err != nil {
		for key, p := range prevs {
			rec := written[key]
			s.restoreRecord(key, &rec, p.rec, p.had)
		}
		return err
	}

	for _, rec := range batch {
		op := cache.OpInsert
		if prevs[rec.Key()].had {
			op = cache.OpUpdate
		}
		s.publish(ctx, cache.EntityAttendance, op, rec)
	}
	s.refreshCache(ctx)

	s.logger.WithField("count", len(batch)).Info("Attendance batch applied")
	return nil
}

// ClearDay removes every record of the unit on date and returns how many were removed.
func (s *Store) ClearDay(ctx context.Context, unitID, date string) (int, error) {
	s.mu.Lock()
	removed := make([]models.AttendanceRecord, 0)
	for key, r := range s.attendance {
		if r.UnitID == unitID && r.Date == date {
			removed = append(removed, r)
			delete(s.attendance, key)
		}
	}
	s.mu.Unlock()

	if _, err := s.repos.Attendance.DeleteByUnitAndDate(ctx, unitID, date); err != nil {
		for _, r := range removed {
			s.restoreRecord(r.Key(), nil, r, true)
		}
		return 0, err
	}

	for _, r := range removed {
		s.publish(ctx, cache.EntityAttendance, cache.OpDelete, r)
	}
	s.refreshCache(ctx)
	return len(removed), nil
}

func (s *Store) SetCabinetStatus(ctx context.Context, memberID, period string, status frequency.CabinetStatus) error {
	item := models.CabinetFollowUp{
		MemberID:   memberID,
		Period:     period,
		Status:     status,
		LastUpdate: now(),
	}
	key := item.Key()

	s.mu.Lock()
	prev, had := s.cabinet[key]
	s.cabinet[key] = item
	s.mu.Unlock()

	written := item
	if err := s.repos.Cabinet.Upsert(ctx, &item); err != nil {
		s.mu.Lock()
		if cur, ok := s.cabinet[key]; ok && cur == written {
			if had {
				s.cabinet[key] = prev
			} else {
				delete(s.cabinet, key)
			}
		}
		s.mu.Unlock()
		return err
	}

	op := cache.OpInsert
	if had {
		op = cache.OpUpdate
	}
	s.publish(ctx, cache.EntityCabinet, op, item)
	s.refreshCache(ctx)
	return nil
}

// SaveMember creates or replaces a member. A missing id is generated.
func (s *Store) SaveMember(ctx context.Context, member models.Member) (models.Member, error) {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	member.Normalize()
	if err := member.Validate(); err != nil {
		return models.Member{}, err
	}

	s.mu.Lock()
	prev, had := s.members[member.ID]
	if had && member.CreatedAt.IsZero() {
		member.CreatedAt = prev.CreatedAt
	}
	s.members[member.ID] = member
	s.mu.Unlock()

	written := member
	if err := s.repos.Members.Upsert(ctx, &member); err != nil {
		s.restoreMember(member.ID, &written, prev, had)
		return models.Member{}, err
	}

	// Pick up the timestamps set by the repository.
	s.mu.Lock()
	if cur, ok := s.members[member.ID]; ok && cur == written {
		s.members[member.ID] = member
	}
	s.mu.Unlock()

	op := cache.OpInsert
	if had {
		op = cache.OpUpdate
	}
	s.publish(ctx, cache.EntityMember, op, member)
	s.refreshCache(ctx)
	return member, nil
}

// restoreMember undoes a failed write of member id, unless the slot no longer
// holds written (nil for a removal).
func (s *Store) restoreMember(id string, written *models.Member, prev models.Member, had bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.members[id]
	if written == nil && ok {
		return
	}
	if written != nil && (!ok || cur != *written) {
		return
	}

	if had {
		s.members[id] = prev
	} else {
		delete(s.members, id)
	}
}

func (s *Store) BatchSaveMembers(ctx context.Context, members []models.Member) error {
	if len(members) == 0 {
		return nil
	}

	batch := make([]models.Member, len(members))
	for i, m := range members {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		m.Normalize()
		if err := m.Validate(); err != nil {
			return err
		}
		batch[i] = m
	}

	type previous struct {
		m   models.Member
		had bool
	}
	prevs := make(map[string]previous, len(batch))
	written := make(map[string]models.Member, len(batch))

	s.mu.Lock()
	for _, m := range batch {
		if _, seen := prevs[m.ID]; !seen {
			p, had := s.members[m.ID]
			prevs[m.ID] = previous{m: p, had: had}
		}
		written[m.ID] = m
		s.members[m.ID] = m
	}
	s.mu.Unlock()

	if err := s.repos.Members.BulkUpsert(ctx, batch); err != nil {
		for id, p := range prevs {
			m := written[id]
			s.restoreMember(id, &m, p.m, p.had)
		}
		return err
	}

	for _, m := range batch {
		op := cache.OpInsert
		if prevs[m.ID].had {
			op = cache.OpUpdate
		}
		s.publish(ctx, cache.EntityMember, op, m)
	}
	s.refreshCache(ctx)

	s.logger.WithField("count", len(batch)).Info("Members batch applied")
	return nil
}

// DeleteMember removes the member. Its attendance history stays in the database.
func (s *Store) DeleteMember(ctx context.Context, id string) error {
	s.mu.Lock()
	prev, had := s.members[id]
	if !had {
		s.mu.Unlock()
		return models.ErrMemberNotFound
	}
	delete(s.members, id)
	s.mu.Unlock()

	if err := s.repos.Members.Delete(ctx, id); err != nil {
		s.restoreMember(id, nil, prev, true)
		return err
	}

	s.publish(ctx, cache.EntityMember, cache.OpDelete, prev)
	s.refreshCache(ctx)
	return nil
}

// SaveLeader sets the leader of (unit, generation), replacing the previous one.
func (s *Store) SaveLeader(ctx context.Context, leader models.Leader) (models.Leader, error) {
	leader.Normalize()
	if err := leader.Validate(); err != nil {
		return models.Leader{}, err
	}
	key := leaderKey(leader.UnitID, leader.Generation)

	s.mu.Lock()
	prev, had := s.leaders[key]
	if had {
		leader.ID = prev.ID
	} else if leader.ID == "" {
		leader.ID = uuid.NewString()
	}
	s.leaders[key] = leader
	s.mu.Unlock()

	written := leader
	if err := s.repos.Leaders.Upsert(ctx, &leader); err != nil {
		s.mu.Lock()
		if cur, ok := s.leaders[key]; ok && cur == written {
			if had {
				s.leaders[key] = prev
			} else {
				delete(s.leaders, key)
			}
		}
		s.mu.Unlock()
		return models.Leader{}, err
	}

	op := cache.OpInsert
	if had {
		op = cache.OpUpdate
	}
	s.publish(ctx, cache.EntityLeader, op, leader)
	s.refreshCache(ctx)
	return leader, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings models.AppSettings) error {
	settings.ID = models.SettingsID

	s.mu.Lock()
	prev := s.settings
	s.settings = settings
	s.mu.Unlock()

	written := settings
	if err := s.repos.Settings.Save(ctx, &settings); err != nil {
		s.mu.Lock()
		if s.settings == written {
			s.settings = prev
		}
		s.mu.Unlock()
		return err
	}

	s.publish(ctx, cache.EntitySettings, cache.OpUpdate, settings)
	s.refreshCache(ctx)

	s.logger.WithFields(logrus.Fields{
		"justified_counts_as_presence": settings.JustifiedCountsAsPresence,
	}).Info("Settings updated")
	return nil
}
