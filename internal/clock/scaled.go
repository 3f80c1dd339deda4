package clock

import (
	"sync"
	"time"
)

// ScaledSource implements Source with time acceleration:
// 1 real second = timeScale source seconds.
type ScaledSource struct {
	startRealTime time.Time
	startTime     time.Time
	timeScale     int
	done          chan struct{}
	mu            sync.Mutex
}

// NewScaledSource creates a new ScaledSource starting at startTime.
func NewScaledSource(startTime time.Time, timeScale int) *ScaledSource {
	if timeScale < 1 {
		timeScale = 1
	}
	return &ScaledSource{
		startRealTime: time.Now(),
		startTime:     startTime,
		timeScale:     timeScale,
		done:          make(chan struct{}),
	}
}

// Now returns startTime + elapsed real time * timeScale.
func (s *ScaledSource) Now() time.Time {
	elapsed := time.Since(s.startRealTime)
	return s.startTime.Add(time.Duration(int64(elapsed) * int64(s.timeScale)))
}

// Since returns the scaled duration elapsed since t.
func (s *ScaledSource) Since(t time.Time) time.Duration {
	return s.Now().Sub(t)
}

// Ticker returns a ticker that emits scaled times every d/timeScale of real time.
func (s *ScaledSource) Ticker(d time.Duration) *Ticker {
	realInterval := s.RealDuration(d)
	if realInterval < time.Millisecond {
		realInterval = time.Millisecond
	}

	ch := make(chan time.Time, 1)
	stopCh := make(chan struct{})

	go func() {
		ticker := time.NewTicker(realInterval)
		defer ticker.Stop()
		defer close(ch)

		for {
			select {
			case <-ticker.C:
				select {
				case ch <- s.Now():
				default:
					// Drop if consumer is slow
				}
			case <-stopCh:
				return
			case <-s.done:
				return
			}
		}
	}()

	return &Ticker{
		C:      ch,
		stopCh: stopCh,
		done:   s.done,
	}
}

// Done returns a channel that is closed when the source is stopped.
func (s *ScaledSource) Done() <-chan struct{} {
	return s.done
}

// Stop stops the source and its tickers.
func (s *ScaledSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		// Already stopped
	default:
		close(s.done)
	}
}

// TimeScale returns the time scale factor.
func (s *ScaledSource) TimeScale() int {
	return s.timeScale
}

// RealDuration converts a scaled duration to real duration.
func (s *ScaledSource) RealDuration(d time.Duration) time.Duration {
	return time.Duration(int64(d) / int64(s.timeScale))
}
