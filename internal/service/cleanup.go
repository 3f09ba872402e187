package service

import (
	"time"

	"go.uber.org/zap"
)

// SessionIdleTimeout is how long a session may go unused before it is closed
const SessionIdleTimeout = 24 * time.Hour

// CleanupService closes sessions nobody is using
type CleanupService struct {
	sessions *Sessions
	logger   *zap.Logger
	now      func() time.Time
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(sessions *Sessions, logger *zap.Logger) *CleanupService {
	return &CleanupService{
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// CleanupIdleSessions closes sessions idle for longer than SessionIdleTimeout
func (s *CleanupService) CleanupIdleSessions() int {
	s.logger.Info("Starting cleanup of idle sessions", zap.Duration("idle_timeout", SessionIdleTimeout))

	evicted := s.sessions.EvictIdle(s.now().Add(-SessionIdleTimeout))

	s.logger.Info("Cleanup completed successfully",
		zap.Int("evicted", evicted),
		zap.Int("open", s.sessions.Len()),
	)
	return evicted
}
