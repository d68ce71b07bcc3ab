package utils

import "time"

// Clock abstracts time.Now so the repository's upcoming-entry filters and
// the orchestrator's window start can be pinned in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (s SystemClock) Now() time.Time {
	return time.Now()
}

// MockClock always reports FixedNow.
type MockClock struct {
	FixedNow time.Time
}

func (m *MockClock) Now() time.Time {
	return m.FixedNow
}
