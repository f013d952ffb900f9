package store

import (
	"context"
	"fmt"

	"github.com/alefyrezendesign/mvp-frequencia/internal/cache"
	"github.com/alefyrezendesign/mvp-frequencia/internal/models"

	"github.com/sirupsen/logrus"
)

// Apply merges a change made by another instance into memory. Events published
// by this store are ignored. Last write wins.
func (s *Store) Apply(ctx context.Context, ev cache.ChangeEvent) error {
	if ev.Origin == s.origin {
		return nil
	}

	switch ev.Entity {
	case cache.EntityMember:
		var m models.Member
		if err := ev.Decode(&m); err != nil {
			return fmt.Errorf("decode member event: %w", err)
		}
		s.mu.Lock()
		if ev.Op == cache.OpDelete {
			delete(s.members, m.ID)
		} else {
			s.members[m.ID] = m
		}
		s.mu.Unlock()

	case cache.EntityAttendance:
		var r models.AttendanceRecord
		if err := ev.Decode(&r); err != nil {
			return fmt.Errorf("decode attendance event: %w", err)
		}
		s.mu.Lock()
		if ev.Op == cache.OpDelete {
			delete(s.attendance, r.Key())
		} else {
			s.attendance[r.Key()] = r
		}
		s.mu.Unlock()

	case cache.EntityCabinet:
		var c models.CabinetFollowUp
		if err := ev.Decode(&c); err != nil {
			return fmt.Errorf("decode cabinet event: %w", err)
		}
		s.mu.Lock()
		if ev.Op == cache.OpDelete {
			delete(s.cabinet, c.Key())
		} else {
			s.cabinet[c.Key()] = c
		}
		s.mu.Unlock()

	case cache.EntityLeader:
		var l models.Leader
		if err := ev.Decode(&l); err != nil {
			return fmt.Errorf("decode leader event: %w", err)
		}
		key := leaderKey(l.UnitID, l.Generation)
		s.mu.Lock()
		if ev.Op == cache.OpDelete {
			delete(s.leaders, key)
		} else {
			s.leaders[key] = l
		}
		s.mu.Unlock()

	case cache.EntitySettings:
		// The password hash never travels in events; re-read the row.
		settings, err := s.repos.Settings.Get(ctx)
		if err != nil {
			return fmt.Errorf("reload settings: %w", err)
		}
		if settings != nil {
			s.mu.Lock()
			s.settings = *settings
			s.mu.Unlock()
		}

	default:
		return fmt.Errorf("unknown entity %q", ev.Entity)
	}

	s.logger.WithFields(logrus.Fields{
		"entity": ev.Entity,
		"op":     ev.Op,
		"origin": ev.Origin,
	}).Debug("Applied remote change")
	return nil
}

// Listen applies events from the feed until ctx is cancelled.
func (s *Store) Listen(ctx context.Context) error {
	return s.feed.Subscribe(ctx, func(ev cache.ChangeEvent) {
		if err := s.Apply(ctx, ev); err != nil {
			s.logger.WithError(err).Warn("Failed to apply remote change")
		}
	})
}
