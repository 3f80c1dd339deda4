package clock

import "time"

// Source provides wall time to the realtime driver. It can be the system clock
// or a scaled clock that runs faster than real time.
type Source interface {
	// Now returns the current time according to this source.
	Now() time.Time

	// Since returns the duration elapsed since t according to this source.
	Since(t time.Time) time.Duration

	// Ticker returns a ticker that emits at the specified interval according to this source.
	// For scaled sources the actual interval is d/timeScale.
	Ticker(d time.Duration) *Ticker

	// Done returns a channel that is closed when the source is stopped.
	Done() <-chan struct{}

	// Stop stops the source and releases resources.
	Stop()

	// TimeScale returns the time scale factor (1 for the system clock).
	TimeScale() int
}

// NewSource creates a Source. A timeScale above 1 yields a scaled source.
func NewSource(timeScale int) Source {
	if timeScale > 1 {
		return NewScaledSource(time.Now(), timeScale)
	}
	return NewRealSource()
}

// Ticker delivers source times on C until stopped.
type Ticker struct {
	C          <-chan time.Time
	realTicker *time.Ticker
	done       <-chan struct{}
	stopCh     chan struct{}
}

// Stop stops the ticker. It is safe to call more than once.
func (t *Ticker) Stop() {
	if t.realTicker != nil {
		t.realTicker.Stop()
	}
	if t.stopCh != nil {
		select {
		case <-t.stopCh:
		default:
			close(t.stopCh)
		}
	}
}
