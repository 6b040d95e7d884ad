package ratelimit

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CleanupSchedule is how often expired in-memory windows are swept
const CleanupSchedule = "@every 5m"

// ScheduleCleanup registers the sweep of s on the given scheduler
func ScheduleCleanup(c *cron.Cron, s *SlidingWindow, log *zap.Logger) (cron.EntryID, error) {
	return c.AddFunc(CleanupSchedule, func() {
		if removed := s.Cleanup(); removed > 0 {
			log.Debug("Rate limit windows swept", zap.Int("removed", removed), zap.Int("remaining", s.Len()))
		}
	})
}
