package draft

import (
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"insight-memory/pkg/clock"
)

// Sweep deletes drafts whose period is older than olderThanDays, whatever
// their status. Weekly drafts are dated by the Monday of their week.
func (s *Store) Sweep(olderThanDays int) (int, error) {
	entries, err := s.docs.List("")
	if err != nil {
		return 0, err
	}
	cutoff := s.clock.Now().AddDate(0, 0, -olderThanDays).Format(clock.DateLayout)

	deleted := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		periodKey, _, ok := parseFileName(e.Name())
		if !ok {
			continue
		}
		date, ok := s.periodDate(periodKey)
		if !ok || date >= cutoff {
			continue
		}
		if err := s.docs.Remove(e.Name()); err != nil {
			return deleted, err
		}
		deleted++
	}
	if deleted > 0 {
		logx.Infof("draft: cleaned up %d old drafts", deleted)
	}
	return deleted, nil
}

// periodDate extracts the calendar date a period key refers to.
func (s *Store) periodDate(periodKey string) (string, bool) {
	if len(periodKey) >= len(clock.DateLayout) {
		prefix := periodKey[:len(clock.DateLayout)]
		if _, err := time.Parse(clock.DateLayout, prefix); err == nil {
			return prefix, true
		}
	}
	start, err := clock.WeekStart(periodKey, s.clock.Location())
	if err != nil {
		return "", false
	}
	return start.Format(clock.DateLayout), true
}
