package metrics

import "time"

// PollStats accumulates what one run's poll loop observed.
type PollStats struct {
	Started     time.Time
	Finished    time.Time
	Polls       int
	Errors      int
	LastStatus  string
	Transitions []string
}

// StartPoll returns stats whose clock starts now.
func StartPoll(now time.Time) PollStats {
	return PollStats{Started: now}
}

// Observe records a successful poll. Transitions keeps each distinct status in
// the order it was first seen after a change.
func (s *PollStats) Observe(status string) {
	s.Polls++
	if status != s.LastStatus {
		s.Transitions = append(s.Transitions, status)
	}
	s.LastStatus = status
}

// ObserveError records a failed poll.
func (s *PollStats) ObserveError() {
	s.Polls++
	s.Errors++
}

// Finish stops the clock.
func (s *PollStats) Finish(now time.Time) {
	s.Finished = now
}

// Elapsed is the time between StartPoll and Finish, or zero before Finish.
func (s PollStats) Elapsed() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}
