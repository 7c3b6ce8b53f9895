package reminder

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Scanner finds sessions that have become due and have not alerted yet
type Scanner struct {
	repo   *Repository
	logger zerolog.Logger
	first  bool
}

// NewScanner creates a scanner over repo
func NewScanner(repo *Repository) *Scanner {
	return &Scanner{
		repo:   repo,
		logger: log.With().Str("component", "scanner").Logger(),
		first:  true,
	}
}

// Scan returns due sessions at now, earliest scheduledFor first. Sessions that
// fell due while the process was down are included on the first scan.
func (s *Scanner) Scan(now int64) []StudySession {
	due := s.repo.Due(now)

	if s.first {
		s.first = false
		if len(due) > 0 {
			s.logger.Info().Int("count", len(due)).Msg("Sessions fell due while stopped")
		}
	}
	if len(due) > 0 {
		s.logger.Debug().Int("count", len(due)).Int64("now", now).Msg("Due sessions found")
	}

	return due
}
