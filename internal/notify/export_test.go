package notify

// FiredLen reports how many fired markers the scheduler still remembers.
func (s *Scheduler) FiredLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fired)
}
