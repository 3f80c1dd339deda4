package clock

import "time"

// RealSource implements Source using actual system time.
type RealSource struct {
	done chan struct{}
}

// NewRealSource creates a new RealSource.
func NewRealSource() *RealSource {
	return &RealSource{
		done: make(chan struct{}),
	}
}

// Now returns the current system time.
func (s *RealSource) Now() time.Time {
	return time.Now()
}

// Since returns the duration elapsed since t.
func (s *RealSource) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// Ticker returns a ticker that emits at the specified interval.
func (s *RealSource) Ticker(d time.Duration) *Ticker {
	t := time.NewTicker(d)
	return &Ticker{
		C:          t.C,
		realTicker: t,
		done:       s.done,
	}
}

// Done returns a channel that is closed when the source is stopped.
func (s *RealSource) Done() <-chan struct{} {
	return s.done
}

// Stop stops the source.
func (s *RealSource) Stop() {
	select {
	case <-s.done:
		// Already stopped
	default:
		close(s.done)
	}
}

// TimeScale returns 1 for the system clock.
func (s *RealSource) TimeScale() int {
	return 1
}
