package memory

func (s *Store) countAttempts(assignmentID, studentID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, attempt := range s.attempts {
		if attempt.AssignmentID == assignmentID && attempt.StudentID == studentID {
			n++
		}
	}
	return n
}

func (f *Feed) subscriberCount(assignmentID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers[assignmentID])
}
