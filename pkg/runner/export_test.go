package runner

import "time"

func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) TrackedLimiters() int {
	s.limitMu.Lock()
	defer s.limitMu.Unlock()
	return len(s.limiters)
}
