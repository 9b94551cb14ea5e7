package store

import (
	"sort"
	"time"

	"github.com/clawdhub/clawdhub/internal/registry/spec"
)

// --- Stars ---

func (s *Store) PutStar(skillID, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.Stars[skillID] == nil {
		s.doc.Stars[skillID] = map[string]time.Time{}
	}
	if _, already := s.doc.Stars[skillID][userID]; already {
		return nil
	}
	s.doc.Stars[skillID][userID] = at
	if sk, ok := s.doc.Skills[skillID]; ok {
		sk.Stats.Stars++
		s.doc.Skills[skillID] = sk
	}
	return s.save()
}

func (s *Store) DeleteStar(skillID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.Stars[skillID] == nil {
		return nil
	}
	if _, ok := s.doc.Stars[skillID][userID]; !ok {
		return nil
	}
	delete(s.doc.Stars[skillID], userID)
	if sk, ok := s.doc.Skills[skillID]; ok && sk.Stats.Stars > 0 {
		sk.Stats.Stars--
		s.doc.Skills[skillID] = sk
	}
	return s.save()
}

func (s *Store) HasStar(skillID, userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.doc.Stars[skillID][userID]
	return ok
}

func (s *Store) CountStars(skillID string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.doc.Stars[skillID]))
}

// --- Comments ---

func (s *Store) PutComment(c spec.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Comments[c.SkillID] = append(s.doc.Comments[c.SkillID], c)
	if sk, ok := s.doc.Skills[c.SkillID]; ok {
		sk.Stats.Comments++
		s.doc.Skills[c.SkillID] = sk
	}
	return s.save()
}

// ListComments returns a skill's non-deleted comments, newest first.
func (s *Store) ListComments(skillID string) []spec.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.doc.Comments[skillID]
	out := make([]spec.Comment, 0, len(all))
	for _, c := range all {
		if c.SoftDeletedAt == nil {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) SoftDeleteComment(skillID, commentID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.doc.Comments[skillID]
	for i, c := range list {
		if c.ID == commentID {
			list[i].SoftDeletedAt = &at
			s.doc.Comments[skillID] = list
			return s.save()
		}
	}
	return nil
}

// --- Badges ---

func (s *Store) SetBadge(b spec.SkillBadge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.Badges[b.SkillID] == nil {
		s.doc.Badges[b.SkillID] = map[spec.BadgeKind]spec.SkillBadge{}
	}
	s.doc.Badges[b.SkillID][b.Kind] = b
	return s.save()
}

func (s *Store) ClearBadge(skillID string, kind spec.BadgeKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.doc.Badges[skillID], kind)
	return s.save()
}

func (s *Store) GetBadges(skillID string) []spec.SkillBadge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]spec.SkillBadge, 0, len(s.doc.Badges[skillID]))
	for _, b := range s.doc.Badges[skillID] {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
